package render

import (
	"strings"

	"github.com/nstehr/abilityc/model"
)

type statPhrase struct {
	stat    string
	phrases []string
}

// unitPhrases maps unit hints onto scaling stats.
var unitPhrases = []statPhrase{
	{model.StatMastery, []string{"elemental mastery", "元素精通", "em"}},
	{model.StatHP, []string{"max hp", "生命值上限", "生命值", "hp"}},
	{model.StatDEF, []string{"def", "防御力"}},
	{model.StatATK, []string{"atk", "attack", "攻击力"}},
}

// textPhrases are stricter: descriptions mention enemy DEF or HP in passing,
// so only scaling wording counts.
var textPhrases = []statPhrase{
	{model.StatMastery, []string{"based on elemental mastery", "of elemental mastery", "元素精通"}},
	{model.StatHP, []string{"of max hp", "based on max hp", "max hp as", "生命值上限"}},
	{model.StatDEF, []string{"of def", "based on def", "of her def", "of his def", "of their def", "防御力"}},
	{model.StatATK, []string{"of atk", "based on atk", "攻击力"}},
}

// ScaleStat picks the stat a detail scales with: an explicit stat first, then
// the table's unit hint, then the talent description, defaulting to attack.
func ScaleStat(g model.Game, d model.Detail, meta Meta) string {
	if s := model.ParseScaleStat(g, d.ScaleStat); s != "" {
		return s
	}
	if u := meta.TableUnits[d.Talent][d.Table]; u != "" {
		if s := StatFromUnit(g, u); s != "" {
			return s
		}
	}
	if s := StatFromText(g, meta.TalentDesc[d.Talent]); s != "" {
		return s
	}
	return model.StatATK
}

// StatFromUnit reads a unit hint such as "%Max HP" or "DEF".
func StatFromUnit(g model.Game, unit string) string {
	u := strings.ToLower(unit)
	for _, sp := range unitPhrases {
		for _, p := range sp.phrases {
			if model.ContainsWord(u, p) {
				return usable(g, sp.stat)
			}
		}
	}
	return ""
}

// StatFromText infers a non-attack stat from description text. Text that
// also mentions attack is ambiguous and yields "".
func StatFromText(g model.Game, text string) string {
	t := strings.ToLower(text)
	if t == "" {
		return ""
	}
	found := ""
	for _, sp := range textPhrases {
		for _, p := range sp.phrases {
			if !model.ContainsWord(t, p) {
				continue
			}
			if sp.stat == model.StatATK {
				return ""
			}
			if found == "" {
				found = sp.stat
			}
			break
		}
	}
	return usable(g, found)
}

func usable(g model.Game, stat string) string {
	if stat == model.StatMastery && g != model.GameGS {
		return ""
	}
	return stat
}
