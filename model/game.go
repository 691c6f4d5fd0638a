package model

import "strings"

// Game selects the per-game vocabularies (stats, buff keys, reactions).
type Game string

const (
	GameGS Game = "gs"
	GameSR Game = "sr"
)

func (g Game) Valid() bool { return g == GameGS || g == GameSR }

// TalentKey identifies the ability block a table is read from.
type TalentKey string

const (
	TalentA   TalentKey = "a"
	TalentA2  TalentKey = "a2"
	TalentA3  TalentKey = "a3"
	TalentE   TalentKey = "e"
	TalentE2  TalentKey = "e2"
	TalentQ   TalentKey = "q"
	TalentQ2  TalentKey = "q2"
	TalentT   TalentKey = "t"
	TalentT2  TalentKey = "t2"
	TalentZ   TalentKey = "z"
	TalentME  TalentKey = "me"
	TalentME2 TalentKey = "me2"
	TalentMT  TalentKey = "mt"
	TalentMT2 TalentKey = "mt2"
)

// TalentKeys is the closed vocabulary in canonical order.
var TalentKeys = []TalentKey{
	TalentA, TalentA2, TalentA3,
	TalentE, TalentE2,
	TalentQ, TalentQ2,
	TalentT, TalentT2,
	TalentZ,
	TalentME, TalentME2, TalentMT, TalentMT2,
}

// CoreTalents must each carry at least one damage row when they have a damage table.
var CoreTalents = []TalentKey{TalentA, TalentE, TalentQ}

// ParseTalentKey normalizes s and reports whether it is in the closed vocabulary.
func ParseTalentKey(s string) (TalentKey, bool) {
	k := TalentKey(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range TalentKeys {
		if k == known {
			return k, true
		}
	}
	return "", false
}

// Base strips the enhanced/sub-kit suffix: "a2" -> "a", "me2" -> "me".
func (k TalentKey) Base() TalentKey {
	return TalentKey(strings.TrimRight(string(k), "0123456789"))
}

// IsNormalAttack reports whether the key belongs to the basic-attack block.
func (k TalentKey) IsNormalAttack() bool { return k.Base() == TalentA }

// Label is the short human prefix used in generated titles.
func (k TalentKey) Label() string {
	switch k {
	case TalentA:
		return "Normal"
	case TalentA2:
		return "Enhanced Normal"
	case TalentE:
		return "E"
	case TalentQ:
		return "Q"
	case TalentT:
		return "Talent"
	case TalentZ:
		return "Technique"
	case TalentME:
		return "Memo Skill"
	case TalentMT:
		return "Memo Talent"
	}
	return strings.ToUpper(string(k))
}

// Kind is the closed set of detail variants.
type Kind string

const (
	KindDmg      Kind = "dmg"
	KindHeal     Kind = "heal"
	KindShield   Kind = "shield"
	KindReaction Kind = "reaction"
)

// ParseKind maps free text onto a Kind; anything unrecognized is a damage row.
func ParseKind(s string) Kind {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "heal", "healing":
		return KindHeal
	case "shield":
		return KindShield
	case "reaction":
		return KindReaction
	}
	return KindDmg
}

// Scale stats a detail can be based on.
const (
	StatATK     = "atk"
	StatHP      = "hp"
	StatDEF     = "def"
	StatMastery = "mastery"
)

// ParseScaleStat returns the canonical scaling stat or "" when s names none.
func ParseScaleStat(g Game, s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "atk", "attack":
		return StatATK
	case "hp", "maxhp", "max hp":
		return StatHP
	case "def", "defense", "defence":
		return StatDEF
	case "mastery", "em", "elemental mastery":
		if g == GameGS {
			return StatMastery
		}
	}
	return ""
}
