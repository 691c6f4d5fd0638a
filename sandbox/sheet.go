package sandbox

// Sheet is a plain-data Context: table values and attributes are looked up in
// maps, and damage is the scaled base with no defensive multipliers. It is
// enough to compare scripts against each other or to sanity-check a formula
// by hand.
type Sheet struct {
	Tables        map[string]map[string][]float64
	Attrs         map[string]float64
	Constellation int
	TraceLevel    int
	// Reactions maps reaction ids to a flat damage value.
	Reactions map[string]float64
	// Multipliers maps an amplifying reaction id to its multiplier.
	Multipliers map[string]float64
}

func (s Sheet) Table(talent, table string, idx int) float64 {
	vals := s.Tables[talent][table]
	if idx < 0 || idx >= len(vals) {
		return 0
	}
	return vals[idx]
}

func (s Sheet) Attr(name string) float64 { return s.Attrs[name] }
func (s Sheet) Cons() int                { return s.Constellation }
func (s Sheet) Trace() int               { return s.TraceLevel }

func (s Sheet) Dmg(pct float64, key, ele string) Result {
	return s.DmgBasic(pct*s.Attrs["atk"]/100, key, ele)
}

func (s Sheet) DmgBasic(base float64, _ string, ele string) Result {
	v := base
	if m, ok := s.Multipliers[ele]; ok {
		v *= m
	}
	return Result{Dmg: v, Avg: v}
}

func (s Sheet) Heal(n float64) Result   { return Result{Avg: n} }
func (s Sheet) Shield(n float64) Result { return Result{Avg: n} }

func (s Sheet) Reaction(id string) Result {
	v := s.Reactions[id]
	return Result{Dmg: v, Avg: v}
}
