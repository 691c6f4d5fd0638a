package validator

import (
	"strings"

	"github.com/nstehr/abilityc/model"
)

const (
	keepTransformative = 2
	keepSpecial        = 3
)

// specialWords mark showcase rows for kit-specific mechanics. Such a row
// survives only when the evidence or its own table name uses the same word.
var specialWords = []string{
	"stack", "stacks", "mark", "seal", "bond of life", "nightsoul", "lunar", "consume", "consumption",
	"层", "印记", "生命之契", "夜魂", "消耗",
}

// prune drops derived-looking rows the evidence does not support and caps
// the supported ones.
func prune(g model.Game, details []model.Detail, evidence string) []model.Detail {
	var (
		out                 []model.Detail
		reactions, specials int
	)
	for _, d := range details {
		if d.Kind == model.KindReaction {
			r, ok := model.CanonicalReaction(g, d.Reaction)
			if !ok || !r.MentionedIn(evidence) || reactions >= keepTransformative {
				continue
			}
			reactions++
		}
		if w, ok := specialWord(d.Title); ok && !model.ContainsWord(strings.ToLower(d.Table), w) {
			if !model.ContainsWord(evidence, w) || specials >= keepSpecial {
				continue
			}
			specials++
		}
		out = append(out, d)
	}
	return out
}

func specialWord(title string) (string, bool) {
	t := strings.ToLower(title)
	for _, w := range specialWords {
		if model.ContainsWord(t, w) {
			return w, true
		}
	}
	return "", false
}
