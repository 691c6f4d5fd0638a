package validator

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/nstehr/abilityc/model"
	"github.com/nstehr/abilityc/planner"
	"github.com/nstehr/abilityc/sandbox"
)

// structuralDetails keeps the rows whose references all resolve. Rows that
// cannot be repaired are reported and skipped; optional fields that fail
// their checks are cleared.
func structuralDetails(in model.PlanInput, raw []model.DraftDetail, pr *problems) []model.Detail {
	var (
		out    []model.Detail
		titles = map[string]bool{}
	)
	for i, dd := range raw {
		d, err := structuralDetail(in, dd)
		if err != nil {
			pr.add("details[%d]: %v", i, err)
			continue
		}
		if titles[d.Title] {
			pr.add("details[%d]: duplicate title %q", i, d.Title)
			continue
		}
		if d.Check != "" {
			if err := sandbox.CheckExpr(d.Check, sandbox.ExprBool, d.Params); err != nil {
				pr.add("details[%d]: check dropped: %v", i, err)
				d.Check = ""
			}
		}
		if d.RawExpr != "" {
			if err := checkRawExpr(in, d); err != nil {
				pr.add("details[%d]: rawExpr dropped: %v", i, err)
				d.RawExpr = ""
			}
		}
		titles[d.Title] = true
		out = append(out, d)
	}
	return out
}

func structuralDetail(in model.PlanInput, dd model.DraftDetail) (model.Detail, error) {
	d := model.Detail{
		Title:     strings.TrimSpace(dd.Title),
		Kind:      model.ParseKind(dd.Kind),
		ScaleStat: model.ParseScaleStat(in.Game, dd.ScaleStat),
		Check:     strings.TrimSpace(dd.Check),
		RawExpr:   strings.TrimSpace(dd.RawExpr),
		Params:    finiteParams(dd.Params),
	}

	if d.Kind == model.KindReaction {
		r, ok := model.CanonicalReaction(in.Game, dd.Reaction)
		if !ok {
			return model.Detail{}, fmt.Errorf("unknown reaction %q", dd.Reaction)
		}
		d.Reaction = r.ID
		if d.Title == "" {
			d.Title = ReactionTitle(r.ID)
		}
		return d, nil
	}

	talent, ok := model.ParseTalentKey(dd.Talent)
	if !ok {
		return model.Detail{}, fmt.Errorf("unknown talent %q", dd.Talent)
	}
	if len(in.Tables[talent]) == 0 {
		return model.Detail{}, fmt.Errorf("talent %q has no tables", talent)
	}
	table, ok := in.CanonicalTable(talent, dd.Table)
	if !ok {
		return model.Detail{}, fmt.Errorf("table %q not in tables[%s]", dd.Table, talent)
	}
	d.Talent, d.Table = talent, table

	d.Key = string(talent)
	if k, ok := model.ParseTalentKey(dd.Key); ok {
		d.Key = string(k)
	} else if d.Kind == model.KindDmg {
		d.Key = planner.DamageKey(talent, table)
	}

	if d.Kind == model.KindDmg {
		d.Element = damageElement(in, dd.Element, dd.Reaction)
	}
	if d.Title == "" {
		d.Title = planner.Title(talent, table)
	}
	return d, nil
}

// damageElement resolves the element argument of a damage call: physical,
// or an amplifying reaction the character can trigger. Anything else means
// the character's own element, written as "".
func damageElement(in model.PlanInput, element, reaction string) string {
	for _, s := range []string{reaction, element} {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "phy" || s == "physical" {
			return "phy"
		}
		r, ok := model.CanonicalReaction(in.Game, s)
		if ok && r.Class == model.ReactionAmplifying && r.TriggeredBy(in.Element) {
			return r.ID
		}
	}
	return ""
}

// checkRawExpr accepts an inline expression only when every table it reads
// is whitelisted and it evaluates to a result in the inert sandbox.
func checkRawExpr(in model.PlanInput, d model.Detail) error {
	refs, ok, err := sandbox.TableRefs(d.RawExpr)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("table references must use literal arguments")
	}
	for _, r := range refs {
		talent, known := model.ParseTalentKey(r.Talent)
		if !known || string(talent) != r.Talent || !in.HasTable(talent, r.Table) {
			return fmt.Errorf("table %q not in tables[%s]", r.Table, r.Talent)
		}
	}
	return sandbox.CheckExpr(d.RawExpr, sandbox.ExprResult, d.Params)
}

func finiteParams(p map[string]float64) map[string]float64 {
	if len(p) == 0 {
		return nil
	}
	out := make(map[string]float64, len(p))
	for k, v := range p {
		if k = strings.TrimSpace(k); k == "" || math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		out[k] = v
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// structuralBuffs keeps buffs with a title, a valid gate and at least one
// known data key.
func structuralBuffs(g model.Game, raw []model.DraftBuff, pr *problems) []model.Buff {
	var (
		out    []model.Buff
		titles = map[string]bool{}
	)
	for i, db := range raw {
		b := model.Buff{
			Title: strings.TrimSpace(db.Title),
			Sort:  db.Sort,
			Cons:  model.Requirement(db.Cons, model.MaxCons),
			Trace: model.Requirement(db.Trace, model.MaxTrace),
			Check: strings.TrimSpace(db.Check),
		}
		if b.Title == "" {
			pr.add("buffs[%d]: missing title", i)
			continue
		}
		if db.Cons > model.MaxCons || db.Trace > model.MaxTrace {
			pr.add("buffs[%d]: requirement cons=%d trace=%d held at cons=%d trace=%d", i, db.Cons, db.Trace, b.Cons, b.Trace)
		}
		if titles[b.Title] {
			pr.add("buffs[%d]: duplicate title %q", i, b.Title)
			continue
		}
		if b.Check != "" {
			if err := sandbox.CheckExpr(b.Check, sandbox.ExprBool, nil); err != nil {
				pr.add("buffs[%d]: invalid check: %v", i, err)
				continue
			}
		}
		b.Data = buffData(g, db.Data, func(format string, args ...any) {
			pr.add("buffs[%d]: %s", i, fmt.Sprintf(format, args...))
		})
		if len(b.Data) == 0 {
			pr.add("buffs[%d]: no usable data", i)
			continue
		}
		titles[b.Title] = true
		out = append(out, b)
	}
	return out
}

func buffData(g model.Game, raw map[string]model.BuffValue, report func(string, ...any)) map[string]model.BuffValue {
	out := make(map[string]model.BuffValue, len(raw))
	for _, k := range sortedKeys(raw) {
		v := raw[k]
		if _, ok := model.BuffKeyCategory(g, k); !ok {
			report("unknown data key %q dropped", k)
			continue
		}
		if v.IsExpr() {
			if err := sandbox.CheckExpr(v.Expr, sandbox.ExprNumber, nil); err != nil {
				report("data %q dropped: %v", k, err)
				continue
			}
		} else if math.IsNaN(v.Num) || math.IsInf(v.Num, 0) {
			report("data %q is not finite", k)
			continue
		}
		out[k] = v
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
