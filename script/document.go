package script

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Provenance tags identify which code path produced a script. Downstream
// tooling relies on them to tell generations apart.
const (
	CreatedByModel           = "model"
	CreatedByUpstreamDerived = "upstream-derived"
	CreatedByUpstreamDirect  = "upstream-direct"
	CreatedByHeuristic       = "heuristic"
)

// ValidProvenance reports whether tag is one of the fixed provenance tags.
func ValidProvenance(tag string) bool {
	switch tag {
	case CreatedByModel, CreatedByUpstreamDerived, CreatedByUpstreamDirect, CreatedByHeuristic:
		return true
	}
	return false
}

// Document is the script's export contract. Field names are stable.
type Document struct {
	CreatedBy     string      `yaml:"created_by"`
	MainAttr      string      `yaml:"main_attr"`
	DefaultDmgIdx int         `yaml:"default_dmg_idx"`
	DefaultDmgKey string      `yaml:"default_dmg_key"`
	Details       []Entry     `yaml:"details"`
	Buffs         []BuffEntry `yaml:"buffs"`
}

// Entry is one calculation row: a helper call or an inlined composite.
type Entry struct {
	Title  string             `yaml:"title"`
	Kind   string             `yaml:"kind"`
	Key    string             `yaml:"key,omitempty"`
	Check  string             `yaml:"check,omitempty"`
	Params map[string]float64 `yaml:"params,omitempty"`
	Expr   string             `yaml:"expr"`
}

// BuffEntry is one modifier; Data values are expression source (numbers are
// plain literals).
type BuffEntry struct {
	Title string            `yaml:"title"`
	Sort  int               `yaml:"sort,omitempty"`
	Cons  int               `yaml:"cons,omitempty"`
	Trace int               `yaml:"trace,omitempty"`
	Check string            `yaml:"check,omitempty"`
	Data  map[string]string `yaml:"data"`
}

const header = "# calculation script, generated; do not edit\n"

// Encode writes the document in its canonical form.
func Encode(doc Document) (string, error) {
	var buf bytes.Buffer
	buf.WriteString(header)
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return "", fmt.Errorf("encode script: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("encode script: %w", err)
	}
	return buf.String(), nil
}

// Decode parses script text. Unknown fields are rejected so a malformed
// script cannot silently lose rows.
func Decode(src string) (Document, error) {
	var doc Document
	dec := yaml.NewDecoder(bytes.NewBufferString(src))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return Document{}, fmt.Errorf("decode script: %w", err)
	}
	return doc, nil
}
