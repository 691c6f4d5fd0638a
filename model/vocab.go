package model

import (
	"sort"
	"strings"
)

// Effect categories used to match buff keys against evidence text.
const (
	CatATK      = "atk"
	CatHP       = "hp"
	CatDEF      = "def"
	CatCrit     = "crit"
	CatMastery  = "mastery"
	CatEnergy   = "energy"
	CatHeal     = "heal"
	CatShield   = "shield"
	CatDmg      = "dmg"
	CatRes      = "res"
	CatEnemyDef = "enemy_def"
	CatSpeed    = "speed"
	CatBreak    = "break"
	CatEffect   = "effect"
)

// CategoryWords are the evidence words that describe each effect category.
var CategoryWords = map[string][]string{
	CatATK:      {"atk", "attack", "攻击力"},
	CatHP:       {"max hp", "hp", "生命值"},
	CatDEF:      {"def", "defense", "防御力"},
	CatCrit:     {"crit", "暴击"},
	CatMastery:  {"elemental mastery", "mastery", "元素精通"},
	CatEnergy:   {"energy recharge", "energy", "充能", "能量恢复"},
	CatHeal:     {"healing", "heal", "治疗"},
	CatShield:   {"shield", "护盾"},
	CatDmg:      {"dmg", "damage", "伤害"},
	CatRes:      {"res", "resistance", "抗性"},
	CatEnemyDef: {"ignore", "def", "defense", "无视", "防御"},
	CatSpeed:    {"spd", "speed", "速度"},
	CatBreak:    {"break", "击破"},
	CatEffect:   {"effect hit", "effect res", "效果命中", "效果抵抗"},
}

var gsBuffKeys = map[string]string{
	"atkPct":   CatATK, "atkPlus": CatATK, "atkBase": CatATK,
	"hpPct":    CatHP, "hpPlus": CatHP, "hpBase": CatHP,
	"defPct":   CatDEF, "defPlus": CatDEF,
	"cpct":     CatCrit, "cdmg": CatCrit,
	"aCpct":    CatCrit, "aCdmg": CatCrit, "a2Cpct": CatCrit, "a2Cdmg": CatCrit,
	"eCpct":    CatCrit, "eCdmg": CatCrit, "qCpct": CatCrit, "qCdmg": CatCrit,
	"mastery":  CatMastery,
	"recharge": CatEnergy,
	"heal":     CatHeal, "healInc": CatHeal,
	"shield":   CatShield, "shieldInc": CatShield,
	"dmg":      CatDmg, "phy": CatDmg,
	"aDmg":     CatDmg, "a2Dmg": CatDmg, "a3Dmg": CatDmg, "eDmg": CatDmg, "qDmg": CatDmg,
	"aPlus":    CatDmg, "a2Plus": CatDmg, "a3Plus": CatDmg, "ePlus": CatDmg, "qPlus": CatDmg,
	"aMulti":   CatDmg, "a2Multi": CatDmg, "eMulti": CatDmg, "qMulti": CatDmg,
	"fyplus":   CatDmg, "fypct": CatDmg,
	"kx":       CatRes,
	"enemyDef": CatEnemyDef, "enemyIgnore": CatEnemyDef,
}

var srBuffKeys = map[string]string{
	"atkPct":   CatATK, "atkPlus": CatATK,
	"hpPct":    CatHP, "hpPlus": CatHP,
	"defPct":   CatDEF, "defPlus": CatDEF,
	"cpct":     CatCrit, "cdmg": CatCrit,
	"aCpct":    CatCrit, "aCdmg": CatCrit, "eCpct": CatCrit, "eCdmg": CatCrit,
	"qCpct":    CatCrit, "qCdmg": CatCrit, "tCpct": CatCrit, "tCdmg": CatCrit,
	"speed":    CatSpeed, "speedPct": CatSpeed,
	"recharge": CatEnergy,
	"effPct":   CatEffect, "effDef": CatEffect,
	"stance":   CatBreak, "breakEnhance": CatBreak, "superBreak": CatBreak,
	"heal":     CatHeal, "healInc": CatHeal,
	"shield":   CatShield,
	"dmg":      CatDmg, "aDmg": CatDmg, "eDmg": CatDmg, "qDmg": CatDmg, "tDmg": CatDmg, "dotDmg": CatDmg,
	"aPlus":    CatDmg, "ePlus": CatDmg, "qPlus": CatDmg, "tPlus": CatDmg,
	"aMulti":   CatDmg, "eMulti": CatDmg, "qMulti": CatDmg,
	"kx":       CatRes,
	"enemyDef": CatEnemyDef, "ignore": CatEnemyDef,
}

// BuffKeyCategory returns the category of a buff data key and whether the key
// is in the game's vocabulary.
func BuffKeyCategory(g Game, key string) (string, bool) {
	vocab := gsBuffKeys
	if g == GameSR {
		vocab = srBuffKeys
	}
	c, ok := vocab[key]
	return c, ok
}

// BuffKeys lists the game's buff data keys in sorted order.
func BuffKeys(g Game) []string {
	vocab := gsBuffKeys
	if g == GameSR {
		vocab = srBuffKeys
	}
	keys := make([]string, 0, len(vocab))
	for k := range vocab {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// IsMultiplierKey reports keys that scale a single hit rather than a stat.
func IsMultiplierKey(key string) bool {
	return strings.HasSuffix(key, "Multi") || strings.HasSuffix(key, "Plus") && !strings.HasPrefix(key, "atk") &&
		!strings.HasPrefix(key, "hp") && !strings.HasPrefix(key, "def")
}

var mainAttrs = map[Game][]string{
	GameGS: {"atk", "hp", "def", "mastery", "cpct", "cdmg", "recharge", "heal", "dmg", "phy"},
	GameSR: {"atk", "hp", "def", "speed", "cpct", "cdmg", "recharge", "heal", "dmg", "stance", "effPct", "effDef"},
}

// ParseMainAttr canonicalizes one main-attribute token.
func ParseMainAttr(g Game, s string) (string, bool) {
	s = strings.TrimSpace(s)
	for _, a := range mainAttrs[g] {
		if strings.EqualFold(a, s) {
			return a, true
		}
	}
	return "", false
}

// DefaultMainAttr is the attribute list used when nothing better is known.
func DefaultMainAttr(g Game, stat string) []string {
	if stat == "" {
		stat = StatATK
	}
	out := []string{stat}
	if stat != StatATK && g == GameGS {
		out = append(out, StatATK)
	}
	out = append(out, "cpct", "cdmg")
	if g == GameSR {
		out = append(out, "speed")
	}
	return out
}

// ReactionClass separates reactions that modify a hit from those that are
// their own damage instance.
type ReactionClass int

const (
	ReactionAmplifying ReactionClass = iota
	ReactionTransformative
)

// Reaction is one whitelisted reaction id.
type Reaction struct {
	ID       string
	Class    ReactionClass
	Aliases  []string
	Elements []string // character elements that can trigger it; empty means any
}

var gsReactions = []Reaction{
	{ID: "vaporize", Class: ReactionAmplifying, Aliases: []string{"vaporise", "蒸发"}, Elements: []string{"pyro", "hydro"}},
	{ID: "melt", Class: ReactionAmplifying, Aliases: []string{"融化"}, Elements: []string{"pyro", "cryo"}},
	{ID: "aggravate", Class: ReactionAmplifying, Aliases: []string{"超激化"}, Elements: []string{"electro"}},
	{ID: "spread", Class: ReactionAmplifying, Aliases: []string{"蔓激化"}, Elements: []string{"dendro"}},
	{ID: "swirl", Class: ReactionTransformative, Aliases: []string{"扩散"}, Elements: []string{"anemo"}},
	{ID: "overloaded", Class: ReactionTransformative, Aliases: []string{"overload", "超载"}},
	{ID: "electrocharged", Class: ReactionTransformative, Aliases: []string{"electro-charged", "感电"}},
	{ID: "superconduct", Class: ReactionTransformative, Aliases: []string{"超导"}},
	{ID: "shatter", Class: ReactionTransformative, Aliases: []string{"碎冰"}},
	{ID: "bloom", Class: ReactionTransformative, Aliases: []string{"绽放"}},
	{ID: "hyperbloom", Class: ReactionTransformative, Aliases: []string{"超绽放"}},
	{ID: "burgeon", Class: ReactionTransformative, Aliases: []string{"烈绽放"}},
	{ID: "burning", Class: ReactionTransformative, Aliases: []string{"燃烧"}},
}

var srReactions = []Reaction{
	{ID: "break", Class: ReactionTransformative, Aliases: []string{"break dmg", "weakness break", "击破伤害"}},
	{ID: "superBreak", Class: ReactionTransformative, Aliases: []string{"super break", "超击破"}},
}

// Reactions returns the whitelist for a game.
func Reactions(g Game) []Reaction {
	if g == GameSR {
		return srReactions
	}
	return gsReactions
}

// CanonicalReaction maps an id or alias to its whitelisted id.
func CanonicalReaction(g Game, s string) (Reaction, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return Reaction{}, false
	}
	for _, r := range Reactions(g) {
		if strings.ToLower(r.ID) == s {
			return r, true
		}
		for _, a := range r.Aliases {
			if a == s {
				return r, true
			}
		}
	}
	return Reaction{}, false
}

// MentionedIn reports whether text (lower-cased) names the reaction as a
// word of its own.
func (r Reaction) MentionedIn(text string) bool {
	if ContainsWordForm(text, strings.ToLower(r.ID)) {
		return true
	}
	for _, a := range r.Aliases {
		if ContainsWordForm(text, a) {
			return true
		}
	}
	return false
}

// TriggeredBy reports whether a character of element can trigger r.
func (r Reaction) TriggeredBy(element string) bool {
	if len(r.Elements) == 0 {
		return true
	}
	element = strings.ToLower(element)
	for _, e := range r.Elements {
		if e == element {
			return true
		}
	}
	return false
}
