package planner

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/nstehr/abilityc/model"
)

var (
	damageMarkers  = []string{"dmg", "damage", "伤害"}
	excludeMarkers = []string{
		"cd", "cooldown", "energy", "toughness", "duration", "cost", "stamina", "interval", "count",
		"crit", "bonus", "increase", "reduction",
		"冷却", "能量", "削韧", "持续时间", "消耗", "间隔", "次数", "暴击", "加成", "提升", "降低",
	}
	buffMarkers   = []string{"bonus", "increase", "stack", "per ", "boost", "提升", "加成", "每层"}
	healMarkers   = []string{"healing", "heal", "regeneration", "hp restored", "restore", "治疗", "回复"}
	shieldMarkers = []string{"shield", "护盾"}
	chargedWords  = []string{"charged", "aimed", "重击", "瞄准"}
	plungeWords   = []string{"plunge", "plunging", "下落", "下坠"}
)

// IsDamageTable reports whether a table name looks like a damage ratio.
func IsDamageTable(name string) bool {
	n := strings.ToLower(name)
	return model.ContainsAny(n, damageMarkers) && !model.ContainsAnyWord(n, excludeMarkers)
}

// IsHealTable reports whether a table name looks like a healing amount.
func IsHealTable(name string) bool {
	n := strings.ToLower(name)
	return model.ContainsAny(n, healMarkers) && !model.ContainsAnyWord(n, excludeMarkers) && !model.ContainsAny(n, buffMarkers)
}

// IsShieldTable reports whether a table name looks like a shield amount.
func IsShieldTable(name string) bool {
	n := strings.ToLower(name)
	return model.ContainsAny(n, shieldMarkers) && !model.ContainsAnyWord(n, excludeMarkers) && !model.ContainsAny(n, buffMarkers)
}

// IsChargedTable reports charged/aimed attack tables.
func IsChargedTable(name string) bool { return model.ContainsAny(strings.ToLower(name), chargedWords) }

// DamageKey infers the damage bucket a table belongs to.
func DamageKey(talent model.TalentKey, table string) string {
	if talent == model.TalentA {
		n := strings.ToLower(table)
		switch {
		case model.ContainsAny(n, chargedWords):
			return "a2"
		case model.ContainsAny(n, plungeWords):
			return "a3"
		}
	}
	return string(talent)
}

// ScoreDamageTable ranks damage tables for the heuristic; higher is better.
// ok is false for tables that fail the damage heuristic.
func ScoreDamageTable(in model.PlanInput, talent model.TalentKey, table string) (score int, ok bool) {
	if !IsDamageTable(table) {
		return 0, false
	}
	n := strings.ToLower(strings.TrimSpace(table))
	if u := strings.ToLower(in.Unit(talent, table)); strings.Contains(u, "%") {
		score += 2
	}
	for _, m := range damageMarkers {
		if strings.HasSuffix(n, m) {
			score++
			break
		}
	}
	if r := []rune(n); len(r) > 0 && unicode.IsDigit(r[len(r)-1]) {
		score--
	}
	if model.ContainsAny(n, buffMarkers) {
		score--
	}
	if strings.Contains(n, "/") || strings.Contains(n, "+") {
		score--
	}
	return score, true
}

// BestDamageTable returns the best-scoring damage table of a talent. Ties keep
// input order.
func BestDamageTable(in model.PlanInput, talent model.TalentKey) (string, bool) {
	best, bestScore, found := "", 0, false
	for _, t := range in.Tables[talent] {
		s, ok := ScoreDamageTable(in, talent, t)
		if ok && (!found || s > bestScore) {
			best, bestScore, found = t, s, true
		}
	}
	return best, found
}

var (
	segmentPattern = regexp.MustCompile(`(?i)\b\d+\s*-?\s*hit\b|[一二三四五六七八九]段`)
	targetPattern  = regexp.MustCompile(`(?i)\s*[(（\[]?\s*(main target|adjacent targets?|主目标|相邻目标)\s*[)）\]]?\s*`)
)

// IsSegmentTable reports per-hit breakdown tables such as "3-Hit DMG".
func IsSegmentTable(name string) bool { return segmentPattern.MatchString(name) }

// Target is the blast role a table name declares.
type Target int

const (
	TargetNone Target = iota
	TargetMain
	TargetAdjacent
)

// SplitTarget strips a blast marker from a table name and returns the
// remaining stem and the role the marker declared: "Skill DMG (Main Target)"
// gives ("Skill DMG", TargetMain).
func SplitTarget(name string) (string, Target) {
	m := targetPattern.FindStringSubmatchIndex(name)
	if m == nil {
		return strings.TrimSpace(name), TargetNone
	}
	role := TargetAdjacent
	if marker := strings.ToLower(name[m[2]:m[3]]); marker == "main target" || marker == "主目标" {
		role = TargetMain
	}
	return strings.Join(strings.Fields(name[:m[0]]+" "+name[m[1]:]), " "), role
}
