package validator

import (
	"github.com/nstehr/abilityc/model"
	"github.com/nstehr/abilityc/planner"
)

// EvictionPolicy picks the row an incoming derived row replaces once the
// detail cap is reached. ok is false when nothing may be evicted for it, in
// which case the incoming row is discarded.
type EvictionPolicy interface {
	Victim(details []model.Detail, incoming model.Detail) (idx int, ok bool)
}

// EvictionFunc adapts a plain function to EvictionPolicy.
type EvictionFunc func(details []model.Detail, incoming model.Detail) (int, bool)

func (f EvictionFunc) Victim(details []model.Detail, incoming model.Detail) (int, bool) {
	return f(details, incoming)
}

// Tier matches the rows of one eviction class.
type Tier func(model.Detail) bool

// TieredPolicy evicts from the first tier that has a candidate, taking the
// last matching row of that tier. An incoming row that itself belongs to a
// tier may only evict rows of earlier tiers, unless it is a composite.
// Composite rows are never evicted.
type TieredPolicy struct {
	Tiers []Tier
}

func (p TieredPolicy) Victim(details []model.Detail, incoming model.Detail) (int, bool) {
	limit := len(p.Tiers)
	if incoming.Origin != model.OriginComposite {
		for i, tier := range p.Tiers {
			if tier(incoming) {
				limit = i
				break
			}
		}
	}
	for _, tier := range p.Tiers[:limit] {
		for i := len(details) - 1; i >= 0; i-- {
			d := details[i]
			if d.Origin == model.OriginComposite || d.RawExpr != "" {
				continue
			}
			if tier(d) {
				return i, true
			}
		}
	}
	return 0, false
}

// DefaultPolicy evicts per-hit normal-attack rows first, then any other
// normal-attack row, then charged attacks.
var DefaultPolicy EvictionPolicy = TieredPolicy{Tiers: []Tier{SegmentRow, NormalRow, ChargedRow}}

// SegmentRow matches per-hit normal-attack breakdown rows.
func SegmentRow(d model.Detail) bool {
	return d.Talent.IsNormalAttack() && planner.IsSegmentTable(d.Table)
}

// NormalRow matches normal-attack rows that are not charged attacks.
func NormalRow(d model.Detail) bool {
	return d.Talent.IsNormalAttack() && !ChargedRow(d)
}

// ChargedRow matches charged and aimed attacks.
func ChargedRow(d model.Detail) bool {
	return d.Key == "a2" || d.Talent.IsNormalAttack() && planner.IsChargedTable(d.Table)
}

// rowSet is the growing detail list during enrichment. It keeps titles
// unique and defers to the policy once the cap is reached.
type rowSet struct {
	details []model.Detail
	titles  map[string]bool
	policy  EvictionPolicy
}

func newRowSet(details []model.Detail, policy EvictionPolicy) *rowSet {
	s := &rowSet{
		details: append([]model.Detail(nil), details...),
		titles:  make(map[string]bool, len(details)),
		policy:  policy,
	}
	for _, d := range details {
		s.titles[d.Title] = true
	}
	return s
}

// add inserts d, evicting a row in place when the set is full. It reports
// whether d was kept.
func (s *rowSet) add(d model.Detail) bool {
	if s.titles[d.Title] {
		return false
	}
	if len(s.details) < model.MaxDetails {
		s.details = append(s.details, d)
		s.titles[d.Title] = true
		return true
	}
	i, ok := s.policy.Victim(s.details, d)
	if !ok || i < 0 || i >= len(s.details) {
		return false
	}
	delete(s.titles, s.details[i].Title)
	s.details[i] = d
	s.titles[d.Title] = true
	return true
}

func (s *rowSet) has(pred func(model.Detail) bool) bool {
	for _, d := range s.details {
		if pred(d) {
			return true
		}
	}
	return false
}
