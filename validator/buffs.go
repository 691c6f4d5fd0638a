package validator

import (
	"strings"
	"unicode"

	"github.com/nstehr/abilityc/model"
)

// oneShotWords mark effects that apply to a single upcoming action.
var oneShotWords = []string{"next", "下一次", "下次"}

// filterBuffs drops data keys the buff's evidence does not describe and
// strips single-use multipliers. Buffs left without data are dropped.
func filterBuffs(in model.PlanInput, buffs []model.Buff) []model.Buff {
	var out []model.Buff
	for _, b := range buffs {
		local := strings.ToLower(b.Title)
		if h, ok := bestHint(b.Title, in.BuffHints); ok {
			local += "\n" + strings.ToLower(h)
		}
		evidence := local
		if local == strings.ToLower(b.Title) {
			evidence += "\n" + strings.ToLower(in.Evidence())
		}
		oneShot := model.ContainsAnyWord(local, oneShotWords)

		data := make(map[string]model.BuffValue, len(b.Data))
		for k, v := range b.Data {
			cat, _ := model.BuffKeyCategory(in.Game, k)
			if !model.ContainsAnyWord(evidence, model.CategoryWords[cat]) {
				continue
			}
			if oneShot && (model.IsMultiplierKey(k) || cat == model.CatDmg) {
				continue
			}
			data[k] = v
		}
		if len(data) == 0 {
			continue
		}
		b.Data = data
		out = append(out, b)
	}
	return out
}

// bestHint returns the hint sharing the most words with title.
func bestHint(title string, hints []string) (string, bool) {
	want := words(title)
	best, bestN := "", 0
	for _, h := range hints {
		n := 0
		for w := range words(h) {
			if want[w] {
				n++
			}
		}
		if n > bestN {
			best, bestN = h, n
		}
	}
	return best, bestN > 0
}

// words splits s into lower-cased words; each CJK rune counts as a word.
func words(s string) map[string]bool {
	out := map[string]bool{}
	var cur []rune
	flush := func() {
		if len(cur) > 1 {
			out[string(cur)] = true
		}
		cur = cur[:0]
	}
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.Is(unicode.Han, r):
			flush()
			out[string(r)] = true
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			cur = append(cur, r)
		default:
			flush()
		}
	}
	flush()
	return out
}
