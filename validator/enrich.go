package validator

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/nstehr/abilityc/model"
	"github.com/nstehr/abilityc/planner"
	"github.com/nstehr/abilityc/render"
	"github.com/nstehr/abilityc/script"
)

// Limits on derived rows.
const (
	maxSynthesized     = 2 // per kind, heal and shield
	maxReactionBases   = 2
	maxReactionRows    = 4
	maxTransformative  = 2
	maxStateRows       = 2
	maxAliasRows       = 5
	reactionScoreBurst = 2
	reactionScoreSkill = 1
)

// enrich applies the derivation rules in order. Every derived row passes
// through s.add, so the cap holds throughout. Segment totals are taken from
// the planned rows before anything can evict one of them.
func enrich(in model.PlanInput, evidence string, s *rowSet) {
	combos := segmentTotals(in, s.details)
	addCoreRows(in, s)
	synthesize(in, s, model.KindHeal, planner.IsHealTable)
	synthesize(in, s, model.KindShield, planner.IsShieldTable)
	addBlastTotals(in, s)
	for _, d := range combos {
		s.add(d)
	}
	addReactionRows(in, evidence, s)
	addStateRows(in, s)
	addAliasRows(in, s)
}

// addCoreRows ensures normal attack, skill and burst each have a damage row
// when they have a damage table.
func addCoreRows(in model.PlanInput, s *rowSet) {
	for _, t := range model.CoreTalents {
		if s.has(func(d model.Detail) bool { return d.Kind == model.KindDmg && d.Talent == t }) {
			continue
		}
		table, ok := planner.BestDamageTable(in, t)
		if !ok {
			continue
		}
		s.add(model.Detail{
			Title:  planner.Title(t, table),
			Kind:   model.KindDmg,
			Talent: t,
			Table:  table,
			Key:    planner.DamageKey(t, table),
			Origin: model.OriginCore,
		})
	}
}

// synthesize adds rows for heal or shield tables no row uses yet.
func synthesize(in model.PlanInput, s *rowSet, kind model.Kind, match func(string) bool) {
	n := 0
	for _, t := range in.Talents() {
		for _, table := range in.Tables[t] {
			if n >= maxSynthesized {
				return
			}
			if !match(table) || s.has(func(d model.Detail) bool { return d.Talent == t && d.Table == table }) {
				continue
			}
			if s.add(model.Detail{
				Title:  planner.Title(t, table),
				Kind:   kind,
				Talent: t,
				Table:  table,
				Key:    string(t),
				Origin: model.OriginSynthesized,
			}) {
				n++
			}
		}
	}
}

// addBlastTotals combines a main-target table with its adjacent-target
// counterpart into one row worth main + 2 * adjacent.
func addBlastTotals(in model.PlanInput, s *rowSet) {
	meta := render.MetaFor(in, "")
	for _, t := range in.Talents() {
		adjacent := map[string]string{}
		for _, table := range in.Tables[t] {
			if stem, role := planner.SplitTarget(table); role == planner.TargetAdjacent {
				if _, dup := adjacent[strings.ToLower(stem)]; !dup {
					adjacent[strings.ToLower(stem)] = table
				}
			}
		}
		for _, main := range in.Tables[t] {
			stem, role := planner.SplitTarget(main)
			adj, ok := adjacent[strings.ToLower(stem)]
			if role != planner.TargetMain || !ok || !planner.IsDamageTable(main) {
				continue
			}
			base := model.Detail{Kind: model.KindDmg, Talent: t, Table: main, Key: planner.DamageKey(t, main)}
			pct := script.Add(
				script.T(string(t), main),
				script.Mul(script.Num(2), script.T(string(t), adj)),
			)
			s.add(model.Detail{
				Title:   fmt.Sprintf("%s %s (complete)", t.Label(), stem),
				Kind:    model.KindDmg,
				Talent:  t,
				Table:   main,
				Key:     base.Key,
				RawExpr: script.Print(damageCall(in.Game, base, meta, pct)),
				Origin:  model.OriginComposite,
			})
		}
	}
}

// segmentTotals sums the per-hit rows of each normal-attack chain in details
// into one combined damage call.
func segmentTotals(in model.PlanInput, details []model.Detail) []model.Detail {
	meta := render.MetaFor(in, "")
	var out []model.Detail
	for _, t := range in.Talents() {
		if !t.IsNormalAttack() {
			continue
		}
		var (
			parts []script.Node
			first model.Detail
		)
		for _, d := range details {
			if d.Talent != t || d.Kind != model.KindDmg || d.RawExpr != "" || d.Element != "" || !planner.IsSegmentTable(d.Table) {
				continue
			}
			if len(parts) == 0 {
				first = d
			}
			parts = append(parts, script.T(string(t), d.Table))
		}
		if len(parts) < 2 {
			continue
		}
		out = append(out, model.Detail{
			Title:   fmt.Sprintf("%s Combo (complete)", t.Label()),
			Kind:    model.KindDmg,
			Talent:  t,
			Table:   first.Table,
			Key:     first.Key,
			RawExpr: script.Print(damageCall(in.Game, first, meta, script.Sum(parts...))),
			Origin:  model.OriginComposite,
		})
	}
	return out
}

// damageCall wraps a combined ratio in the same helper form the renderer
// uses for d's scaling stat.
func damageCall(g model.Game, d model.Detail, meta render.Meta, pct script.Node) script.Node {
	stat := render.ScaleStat(g, d, meta)
	if stat == model.StatATK {
		return script.Dmg(pct, d.Key, d.Element)
	}
	base := script.Div(script.Mul(pct, script.Attr(stat)), script.Num(100))
	return script.DmgBasic(base, d.Key, d.Element)
}

// addReactionRows derives reaction rows the evidence names. Amplifying
// reactions become variants of the best-scoring damage rows; transformative
// reactions become reaction rows of their own.
func addReactionRows(in model.PlanInput, evidence string, s *rowSet) {
	if evidence == "" {
		return
	}
	bases := reactionBases(in, s)
	amplified, transformative := 0, 0
	for _, r := range model.Reactions(in.Game) {
		if !r.MentionedIn(evidence) || !r.TriggeredBy(in.Element) {
			continue
		}
		if r.Class == model.ReactionTransformative {
			if transformative >= maxTransformative {
				continue
			}
			if s.add(model.Detail{
				Title:    ReactionTitle(r.ID),
				Kind:     model.KindReaction,
				Reaction: r.ID,
				Origin:   model.OriginReaction,
			}) {
				transformative++
			}
			continue
		}
		for _, b := range bases {
			if amplified >= maxReactionRows {
				return
			}
			v := b
			v.Title = fmt.Sprintf("%s (%s)", b.Title, ReactionTitle(r.ID))
			v.Element = r.ID
			v.Params = copyParams(b.Params)
			v.Origin = model.OriginReaction
			if s.add(v) {
				amplified++
			}
		}
	}
}

// reactionBases are the plain damage rows most worth showing with a
// reaction: skill and burst rows with the strongest damage tables first.
func reactionBases(in model.PlanInput, s *rowSet) []model.Detail {
	type scored struct {
		d     model.Detail
		score int
	}
	var cands []scored
	for _, d := range s.details {
		if d.Kind != model.KindDmg || d.RawExpr != "" || d.Element != "" || d.Origin.Derived() && d.Origin != model.OriginCore {
			continue
		}
		score, _ := planner.ScoreDamageTable(in, d.Talent, d.Table)
		switch d.Talent.Base() {
		case model.TalentQ:
			score += reactionScoreBurst
		case model.TalentE:
			score += reactionScoreSkill
		}
		cands = append(cands, scored{d, score})
	}
	sort.SliceStable(cands, func(i, j int) bool { return cands[i].score > cands[j].score })
	if len(cands) > maxReactionBases {
		cands = cands[:maxReactionBases]
	}
	out := make([]model.Detail, len(cands))
	for i, c := range cands {
		out[i] = c.d
	}
	return out
}

// ReactionTitle renders a reaction id as a row title: "superBreak" becomes
// "Super Break".
func ReactionTitle(id string) string {
	var b strings.Builder
	for i, r := range id {
		switch {
		case i == 0:
			r = unicode.ToUpper(r)
		case unicode.IsUpper(r):
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	return b.String()
}

var (
	stateWords  = []string{"while", "during", "期间", "状态下"}
	actionWords = map[model.TalentKey][]string{
		model.TalentA: {"normal attack", "normal attacks", "普通攻击", "普攻"},
		model.TalentE: {"elemental skill", "skill", "战技", "元素战技"},
	}
	stateSources = []model.TalentKey{model.TalentQ, model.TalentE}
)

// addStateRows derives "with burst active" style variants when a burst or
// skill description says, under a state word, that it changes another
// action.
func addStateRows(in model.PlanInput, s *rowSet) {
	n := 0
	for _, src := range stateSources {
		desc := strings.ToLower(in.TalentDesc[src])
		if desc == "" || !model.ContainsAnyWord(desc, stateWords) {
			continue
		}
		for _, target := range []model.TalentKey{model.TalentA, model.TalentE} {
			if target == src || !model.ContainsAnyWord(desc, actionWords[target]) {
				continue
			}
			for _, d := range append([]model.Detail(nil), s.details...) {
				if n >= maxStateRows {
					return
				}
				if d.Talent != target || d.Kind != model.KindDmg || d.Origin != model.OriginPlanned && d.Origin != model.OriginCore {
					continue
				}
				v := d
				v.Title = fmt.Sprintf("%s (%s active)", d.Title, src.Label())
				v.Params = copyParams(d.Params)
				if v.Params == nil {
					v.Params = map[string]float64{}
				}
				v.Params[string(src)] = 1
				v.Origin = model.OriginState
				if s.add(v) {
					n++
				}
				break
			}
		}
	}
}

// addAliasRows re-emits rows under titles an earlier script used, so
// downstream comparisons keep matching.
func addAliasRows(in model.PlanInput, s *rowSet) {
	n := 0
	for _, title := range in.BaselineTitles {
		if n >= maxAliasRows {
			return
		}
		title = strings.TrimSpace(title)
		if title == "" || s.titles[title] {
			continue
		}
		want := normalize(title)
		for _, d := range append([]model.Detail(nil), s.details...) {
			if d.Origin == model.OriginAlias || d.Kind == model.KindReaction {
				continue
			}
			if normalize(d.Title) != want && !strings.Contains(want, normalize(d.Table)) {
				continue
			}
			v := d
			v.Title = title
			v.Params = copyParams(d.Params)
			v.Origin = model.OriginAlias
			if s.add(v) {
				n++
			}
			break
		}
	}
}

// normalize lower-cases s and drops everything but letters and digits.
func normalize(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func copyParams(p map[string]float64) map[string]float64 {
	if p == nil {
		return nil
	}
	out := make(map[string]float64, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}
