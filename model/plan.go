package model

// Caps applied by the validator before enrichment and kept through eviction.
const (
	MaxDetails = 20
	MaxBuffs   = 30
)

// Highest constellation and trace levels a buff can be gated on.
const (
	MaxCons  = 6
	MaxTrace = 10
)

// Draft is an untrusted plan: either decoded from model output or produced by
// the heuristic planner. Nothing in it is trusted until the validator has
// turned it into a Plan.
type Draft struct {
	MainAttr         []string
	DefaultDamageKey string
	Details          []DraftDetail
	Buffs            []DraftBuff
}

type DraftDetail struct {
	Title     string
	Kind      string
	Talent    string
	Table     string
	Key       string
	Element   string
	ScaleStat string
	Reaction  string
	Check     string
	RawExpr   string
	Params    map[string]float64
}

type DraftBuff struct {
	Title string
	Sort  int
	Cons  int
	Trace int
	Check string
	Data  map[string]BuffValue
}

// BuffValue is either a numeric literal or an expression over the script
// context functions.
type BuffValue struct {
	Num  float64
	Expr string
}

func Num(v float64) BuffValue    { return BuffValue{Num: v} }
func Expr(src string) BuffValue  { return BuffValue{Expr: src} }
func (v BuffValue) IsExpr() bool { return v.Expr != "" }

// Origin records which rule produced a detail row. Eviction and pruning use it.
type Origin int

const (
	OriginPlanned Origin = iota
	OriginCore
	OriginSynthesized
	OriginComposite
	OriginReaction
	OriginState
	OriginAlias
)

func (o Origin) Derived() bool { return o != OriginPlanned }

// Detail is one validated showcase row.
type Detail struct {
	Title     string
	Kind      Kind
	Talent    TalentKey
	Table     string
	Key       string
	Element   string
	ScaleStat string
	Reaction  string
	Params    map[string]float64
	Check     string
	RawExpr   string
	Origin    Origin
}

// Buff is one validated modifier definition.
type Buff struct {
	Title string
	Sort  int
	Cons  int
	Trace int
	Check string
	Data  map[string]BuffValue
}

// Plan is the validated intermediate representation. It references only
// whitelisted tables, and respects MaxDetails and MaxBuffs.
type Plan struct {
	Game             Game
	MainAttr         []string
	DefaultDamageKey string
	Details          []Detail
	Buffs            []Buff
}

// DefaultIndex is the index of the first damage row under DefaultDamageKey,
// falling back to the first damage row, then 0.
func (p Plan) DefaultIndex() int {
	first := -1
	for i, d := range p.Details {
		if d.Kind != KindDmg {
			continue
		}
		if d.Key == p.DefaultDamageKey {
			return i
		}
		if first < 0 {
			first = i
		}
	}
	if first < 0 {
		return 0
	}
	return first
}

// clampInt restricts v to [min, max].
func clampInt(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// Requirement normalizes a cons or trace gate. Non-positive values mean no
// gate; values above max are held at max so the gate stays.
func Requirement(v, max int) int {
	if v <= 0 {
		return 0
	}
	return clampInt(v, 1, max)
}
