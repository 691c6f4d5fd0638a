// Package planner builds plans without a model. Its output is the baseline
// every compile can fall back to.
package planner

import (
	"fmt"
	"strings"

	"github.com/nstehr/abilityc/model"
)

// defaultKeyOrder is the preference for the script's default damage row.
var defaultKeyOrder = []string{"q", "e", "a"}

// Heuristic picks, per talent key, the best damage table and emits one damage
// row for it. It never fails; the draft has no details only when no table in
// the input passes the damage heuristic.
func Heuristic(in model.PlanInput) model.Draft {
	var (
		details []model.DraftDetail
		stats   = map[string]int{}
	)
	for _, talent := range in.Talents() {
		table, ok := BestDamageTable(in, talent)
		if !ok {
			continue
		}
		details = append(details, model.DraftDetail{
			Title:  Title(talent, table),
			Kind:   string(model.KindDmg),
			Talent: string(talent),
			Table:  table,
			Key:    DamageKey(talent, table),
		})
		stats[unitStat(in, talent, table)]++
	}
	return model.Draft{
		MainAttr:         model.DefaultMainAttr(in.Game, dominant(stats)),
		DefaultDamageKey: defaultKey(details),
		Details:          details,
	}
}

// Title is the generated title for a table-driven row.
func Title(talent model.TalentKey, table string) string {
	return fmt.Sprintf("%s %s", talent.Label(), table)
}

func defaultKey(details []model.DraftDetail) string {
	for _, k := range defaultKeyOrder {
		for _, d := range details {
			if d.Key == k {
				return k
			}
		}
	}
	if len(details) > 0 {
		return details[0].Key
	}
	return ""
}

// unitStat classifies a table by its unit hint; tables without a usable hint
// count as attack-scaling.
func unitStat(in model.PlanInput, talent model.TalentKey, table string) string {
	u := strings.ToLower(in.Unit(talent, table))
	switch {
	case u == "":
		return model.StatATK
	case model.ContainsAnyWord(u, []string{"hp", "生命值"}):
		return model.StatHP
	case model.ContainsAnyWord(u, []string{"def", "防御力"}):
		return model.StatDEF
	case in.Game == model.GameGS && model.ContainsAnyWord(u, []string{"em", "mastery", "元素精通"}):
		return model.StatMastery
	}
	return model.StatATK
}

// dominant returns the most frequent stat; attack wins ties.
func dominant(stats map[string]int) string {
	best, n := model.StatATK, stats[model.StatATK]
	for _, s := range []string{model.StatHP, model.StatDEF, model.StatMastery} {
		if stats[s] > n {
			best, n = s, stats[s]
		}
	}
	return best
}
