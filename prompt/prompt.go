// Package prompt turns a plan input into the conversation sent to the model.
package prompt

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/nstehr/abilityc/llm"
	"github.com/nstehr/abilityc/model"
	"github.com/nstehr/abilityc/sandbox"
	"github.com/nstehr/abilityc/validator"
)

const (
	// Version changes whenever the wording or schema below changes; it is
	// part of every cache fingerprint.
	Version = "abilityc-prompt/3"
	Purpose = "plan"

	// MaxAttempts is the number of distinct prompt shapes.
	MaxAttempts = 3

	defaultDescTokens = 600
	maxHints          = 24
)

// Builder renders prompts. The zero value is not usable; call New.
type Builder struct {
	counter    *Counter
	descTokens int
}

// New returns a builder that truncates each talent description to descTokens
// tokens. Zero selects the default budget.
func New(descTokens int) *Builder {
	if descTokens <= 0 {
		descTokens = defaultDescTokens
	}
	return &Builder{counter: &Counter{}, descTokens: descTokens}
}

// Build returns the messages for attempt n (1-based). lastErr is the failure
// of attempt n-1 and is ignored on the first attempt.
func (b *Builder) Build(in model.PlanInput, n int, lastErr error) []llm.Message {
	msgs := []llm.Message{
		{Role: llm.RoleSystem, Content: b.system(in)},
		{Role: llm.RoleUser, Content: b.user(in)},
	}
	if n >= 2 && lastErr != nil {
		msgs = append(msgs, llm.Message{Role: llm.RoleUser, Content: feedback(lastErr)})
	}
	if n >= MaxAttempts {
		msgs = append(msgs, llm.Message{Role: llm.RoleUser, Content: strictJSON})
	}
	return msgs
}

const schema = `{
  "mainAttr": "comma separated stat ids",
  "defaultDamageKey": "talent key of the headline damage row",
  "details": [
    {
      "title": "short display title",
      "kind": "dmg | heal | shield | reaction",
      "talent": "talent key",
      "table": "exact table name",
      "key": "damage key (optional)",
      "element": "element or reaction id for amplified hits (optional)",
      "reaction": "reaction id (kind=reaction only)",
      "check": "boolean expression (optional)",
      "params": {"name": 1},
      "rawExpr": "full expression, only when no single table fits (optional)"
    }
  ],
  "buffs": [
    {
      "title": "source of the effect",
      "cons": 0,
      "trace": 0,
      "check": "boolean expression (optional)",
      "data": {"buffKey": "number or numeric expression"}
    }
  ]
}`

func (b *Builder) system(in model.PlanInput) string {
	var s strings.Builder
	fmt.Fprintln(&s, "You design damage calculation plans for one game character.")
	fmt.Fprintln(&s, "Reply with a single JSON object and nothing else.")
	fmt.Fprintln(&s)
	fmt.Fprintln(&s, "Output schema:")
	fmt.Fprintln(&s, schema)
	fmt.Fprintln(&s)

	talents := in.Talents()
	keys := make([]string, len(talents))
	for i, k := range talents {
		keys[i] = string(k)
	}
	fmt.Fprintf(&s, "Talent keys: %s\n", strings.Join(keys, ", "))

	tables := make(map[string][]string, len(talents))
	for _, k := range talents {
		tables[string(k)] = in.Tables[k]
	}
	// Maps marshal with sorted keys.
	whitelist, _ := json.Marshal(tables)
	fmt.Fprintf(&s, "Allowed tables (copy names exactly, never invent one): %s\n", whitelist)

	fmt.Fprintf(&s, "Buff data keys: %s\n", strings.Join(model.BuffKeys(in.Game), ", "))

	var reactions []string
	for _, r := range model.Reactions(in.Game) {
		reactions = append(reactions, r.ID)
	}
	fmt.Fprintf(&s, "Reaction ids: %s\n", strings.Join(reactions, ", "))
	fmt.Fprintf(&s, "Expression functions: %s\n", strings.Join(sandbox.Functions(), ", "))
	fmt.Fprintln(&s)
	fmt.Fprintln(&s, "Rules:")
	fmt.Fprintln(&s, "- At most 20 details and 30 buffs.")
	fmt.Fprintln(&s, "- Only add reaction rows or buffs that the descriptions support.")
	fmt.Fprintln(&s, "- Buff values are numbers or expressions over the functions above; no other identifiers.")
	return s.String()
}

func (b *Builder) user(in model.PlanInput) string {
	var s strings.Builder
	fmt.Fprintf(&s, "Character: %s", in.Name)
	if in.Element != "" {
		fmt.Fprintf(&s, " | Element: %s", in.Element)
	}
	if in.Weapon != "" {
		fmt.Fprintf(&s, " | Weapon: %s", in.Weapon)
	}
	if in.Star > 0 {
		fmt.Fprintf(&s, " | Rarity: %d", in.Star)
	}
	fmt.Fprintf(&s, " | Game: %s\n", in.Game)

	for _, k := range in.Talents() {
		fmt.Fprintf(&s, "\n[%s] %s\n", k, k.Label())
		if units := in.TableUnits[k]; len(units) > 0 {
			names := make([]string, 0, len(units))
			for name := range units {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				fmt.Fprintf(&s, "  unit %s: %s\n", name, units[name])
			}
		}
		if d := strings.TrimSpace(in.TalentDesc[k]); d != "" {
			fmt.Fprintf(&s, "  %s\n", b.counter.Truncate(d, b.descTokens))
		}
	}

	if len(in.BuffHints) > 0 {
		fmt.Fprintln(&s, "\nPassive and constellation effects:")
		for i, h := range in.BuffHints {
			if i == maxHints {
				fmt.Fprintf(&s, "  (%d more omitted)\n", len(in.BuffHints)-maxHints)
				break
			}
			fmt.Fprintf(&s, "  - %s\n", b.counter.Truncate(strings.TrimSpace(h), b.descTokens/2))
		}
	}
	if len(in.BaselineTitles) > 0 {
		fmt.Fprintf(&s, "\nExisting row titles: %s\n", strings.Join(in.BaselineTitles, "; "))
	}
	return s.String()
}

func feedback(err error) string {
	var s strings.Builder
	fmt.Fprintln(&s, "Your previous answer was rejected. Fix these problems and answer again:")
	var verr *validator.Error
	if errors.As(err, &verr) {
		for _, p := range verr.Problems {
			fmt.Fprintf(&s, "- %s\n", p)
		}
		return s.String()
	}
	fmt.Fprintf(&s, "- %v\n", err)
	return s.String()
}

const strictJSON = `Formatting requirements:
- Output raw JSON only: no markdown fences, no comments, no trailing commas.
- Use double quotes for every key and string.
- Table names must be copied character for character from the allowed list.`
