package model

import (
	"errors"
	"fmt"
	"strings"
)

// PlanInput is the per-character description handed to the compiler by the
// upstream collectors. Tables is the authoritative whitelist of table names.
type PlanInput struct {
	Game           Game                            `json:"game" yaml:"game"`
	Name           string                          `json:"name" yaml:"name"`
	Element        string                          `json:"element" yaml:"element"`
	Weapon         string                          `json:"weapon,omitempty" yaml:"weapon,omitempty"`
	Star           int                             `json:"star,omitempty" yaml:"star,omitempty"`
	Tables         map[TalentKey][]string          `json:"tables" yaml:"tables"`
	TableUnits     map[TalentKey]map[string]string `json:"tableUnits,omitempty" yaml:"tableUnits,omitempty"`
	TalentDesc     map[TalentKey]string            `json:"talentDesc,omitempty" yaml:"talentDesc,omitempty"`
	BuffHints      []string                        `json:"buffHints,omitempty" yaml:"buffHints,omitempty"`
	BaselineTitles []string                        `json:"baselineTitles,omitempty" yaml:"baselineTitles,omitempty"`
}

// Check reports whether the input is well-formed enough to compile.
func (in PlanInput) Check() error {
	if !in.Game.Valid() {
		return fmt.Errorf("unknown game %q", in.Game)
	}
	if len(in.Tables) == 0 {
		return errors.New("no talent tables")
	}
	for k := range in.Tables {
		if _, ok := ParseTalentKey(string(k)); !ok {
			return fmt.Errorf("unknown talent key %q", k)
		}
	}
	return nil
}

// Talents returns the talent keys present in Tables, in canonical order.
func (in PlanInput) Talents() []TalentKey {
	var out []TalentKey
	for _, k := range TalentKeys {
		if len(in.Tables[k]) > 0 {
			out = append(out, k)
		}
	}
	return out
}

// HasTable reports whether table is whitelisted under talent.
func (in PlanInput) HasTable(talent TalentKey, table string) bool {
	for _, t := range in.Tables[talent] {
		if t == table {
			return true
		}
	}
	return false
}

// CanonicalTable resolves table against the whitelist, forgiving surrounding
// whitespace and case. The returned name is always the whitelisted spelling.
func (in PlanInput) CanonicalTable(talent TalentKey, table string) (string, bool) {
	if in.HasTable(talent, table) {
		return table, true
	}
	want := strings.TrimSpace(table)
	for _, t := range in.Tables[talent] {
		if strings.EqualFold(strings.TrimSpace(t), want) {
			return t, true
		}
	}
	return "", false
}

// Unit returns the unit hint for a table, if any.
func (in PlanInput) Unit(talent TalentKey, table string) string {
	return in.TableUnits[talent][table]
}

// Evidence is all free text that may justify a derived row or buff effect.
func (in PlanInput) Evidence() string {
	var b strings.Builder
	for _, k := range TalentKeys {
		if d := in.TalentDesc[k]; d != "" {
			b.WriteString(d)
			b.WriteByte('\n')
		}
	}
	for _, h := range in.BuffHints {
		b.WriteString(h)
		b.WriteByte('\n')
	}
	return b.String()
}
