// Package render compiles a validated plan into calculation script text.
// Rendering is a pure function of its arguments: the same plan always
// renders to byte-identical output, and a validated plan never fails.
package render

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/nstehr/abilityc/model"
	"github.com/nstehr/abilityc/script"
)

// Meta carries the hints the renderer needs besides the plan itself.
type Meta struct {
	CreatedBy  string
	TableUnits map[model.TalentKey]map[string]string
	TalentDesc map[model.TalentKey]string
}

// MetaFor builds render hints from the compiler input.
func MetaFor(in model.PlanInput, createdBy string) Meta {
	return Meta{CreatedBy: createdBy, TableUnits: in.TableUnits, TalentDesc: in.TalentDesc}
}

// Render produces the script text for p.
func Render(p model.Plan, meta Meta) (string, error) {
	doc, err := Document(p, meta)
	if err != nil {
		return "", err
	}
	return script.Encode(doc)
}

// Document builds the script document without encoding it.
func Document(p model.Plan, meta Meta) (script.Document, error) {
	if !script.ValidProvenance(meta.CreatedBy) {
		return script.Document{}, fmt.Errorf("render: unknown provenance %q", meta.CreatedBy)
	}
	doc := script.Document{
		CreatedBy:     meta.CreatedBy,
		MainAttr:      strings.Join(p.MainAttr, ","),
		DefaultDmgIdx: p.DefaultIndex(),
		DefaultDmgKey: p.DefaultDamageKey,
		Details:       make([]script.Entry, 0, len(p.Details)),
		Buffs:         make([]script.BuffEntry, 0, len(p.Buffs)),
	}
	for _, d := range p.Details {
		e, err := entry(p.Game, d, meta)
		if err != nil {
			return script.Document{}, fmt.Errorf("render: detail %q: %w", d.Title, err)
		}
		doc.Details = append(doc.Details, e)
	}
	for _, b := range p.Buffs {
		doc.Buffs = append(doc.Buffs, buffEntry(b))
	}
	return doc, nil
}

func entry(g model.Game, d model.Detail, meta Meta) (script.Entry, error) {
	e := script.Entry{
		Title:  d.Title,
		Kind:   string(d.Kind),
		Key:    d.Key,
		Check:  d.Check,
		Params: copyParams(d.Params),
	}
	if d.RawExpr != "" {
		e.Expr = script.Print(script.Raw(d.RawExpr))
		return e, nil
	}
	node, err := Call(g, d, meta)
	if err != nil {
		return script.Entry{}, err
	}
	e.Expr = script.Print(node)
	return e, nil
}

// Call builds the helper-call node for a table-driven detail.
func Call(g model.Game, d model.Detail, meta Meta) (script.Node, error) {
	talent := string(d.Talent)
	switch d.Kind {
	case model.KindReaction:
		if d.Reaction == "" {
			return nil, fmt.Errorf("reaction row without reaction id")
		}
		return script.Reaction(d.Reaction), nil
	case model.KindHeal, model.KindShield:
		if d.Table == "" {
			return nil, fmt.Errorf("%s row without table", d.Kind)
		}
		stat := ScaleStat(g, d, meta)
		amount := script.Add(
			script.Div(script.Mul(script.T(talent, d.Table), script.Attr(stat)), script.Num(100)),
			script.TAt(talent, d.Table, 1),
		)
		if d.Kind == model.KindHeal {
			return script.Heal(amount), nil
		}
		return script.Shield(amount), nil
	default:
		if d.Table == "" {
			return nil, fmt.Errorf("dmg row without table")
		}
		key := d.Key
		if key == "" {
			key = talent
		}
		stat := ScaleStat(g, d, meta)
		if stat == model.StatATK {
			return script.Dmg(script.T(talent, d.Table), key, d.Element), nil
		}
		base := script.Div(script.Mul(script.T(talent, d.Table), script.Attr(stat)), script.Num(100))
		return script.DmgBasic(base, key, d.Element), nil
	}
}

func buffEntry(b model.Buff) script.BuffEntry {
	data := make(map[string]string, len(b.Data))
	for k, v := range b.Data {
		data[k] = Value(v)
	}
	return script.BuffEntry{
		Title: b.Title,
		Sort:  b.Sort,
		Cons:  b.Cons,
		Trace: b.Trace,
		Check: b.Check,
		Data:  data,
	}
}

// Value renders a buff value as expression source.
func Value(v model.BuffValue) string {
	if v.IsExpr() {
		return script.Print(script.Raw(v.Expr))
	}
	return strconv.FormatFloat(v.Num, 'f', -1, 64)
}

func copyParams(p map[string]float64) map[string]float64 {
	if len(p) == 0 {
		return nil
	}
	out := make(map[string]float64, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}
