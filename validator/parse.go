package validator

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/nstehr/abilityc/model"
)

// ErrNoJSON is returned when a response contains no JSON object at all.
var ErrNoJSON = errors.New("response contains no JSON object")

// Parse extracts the first JSON object from a model response and decodes it
// leniently into a draft. Fields with the wrong shape are treated as absent;
// only a response that is not a JSON object at all is an error.
func Parse(text string) (model.Draft, error) {
	raw, err := ExtractJSON(text)
	if err != nil {
		return model.Draft{}, err
	}
	var top map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &top); err != nil {
		return model.Draft{}, fmt.Errorf("response is not a JSON object: %w", err)
	}

	d := model.Draft{
		MainAttr:         strList(first(top, "mainAttrList", "mainAttr", "main_attr")),
		DefaultDamageKey: str(first(top, "defaultDamageKey", "defDmgKey", "default_dmg_key")),
	}
	for _, obj := range objects(first(top, "details")) {
		d.Details = append(d.Details, parseDetail(obj))
	}
	for _, obj := range objects(first(top, "buffs")) {
		d.Buffs = append(d.Buffs, parseBuff(obj))
	}
	return d, nil
}

func parseDetail(obj map[string]json.RawMessage) model.DraftDetail {
	return model.DraftDetail{
		Title:     str(first(obj, "title")),
		Kind:      str(first(obj, "kind", "type")),
		Talent:    str(first(obj, "talent")),
		Table:     str(first(obj, "table")),
		Key:       str(first(obj, "key", "dmgKey")),
		Element:   str(first(obj, "element", "ele")),
		ScaleStat: str(first(obj, "scaleStat", "stat")),
		Reaction:  str(first(obj, "reaction")),
		Check:     str(first(obj, "check", "checkExpr")),
		RawExpr:   str(first(obj, "rawExpr", "expr", "dmgExpr")),
		Params:    numMap(first(obj, "params")),
	}
}

func parseBuff(obj map[string]json.RawMessage) model.DraftBuff {
	b := model.DraftBuff{
		Title: str(first(obj, "title")),
		Check: str(first(obj, "check", "checkExpr")),
	}
	if v, ok := num(first(obj, "sort")); ok {
		b.Sort = int(v)
	}
	if v, ok := num(first(obj, "cons", "constellationReq", "eidolonReq")); ok {
		b.Cons = int(v)
	}
	if v, ok := num(first(obj, "trace", "traceReq", "tree")); ok {
		b.Trace = int(v)
	}
	var data map[string]json.RawMessage
	if raw := first(obj, "data"); raw != nil && json.Unmarshal(raw, &data) == nil {
		b.Data = make(map[string]model.BuffValue, len(data))
		for k, raw := range data {
			if v, ok := num(raw); ok {
				b.Data[k] = model.Num(v)
				continue
			}
			if s := str(raw); s != "" {
				b.Data[k] = model.Expr(s)
			}
		}
	}
	return b
}

// ExtractJSON finds the first balanced JSON object in text, skipping code
// fences and prose around it.
func ExtractJSON(text string) (string, error) {
	start := strings.IndexByte(text, '{')
	for start >= 0 {
		if end, ok := matchBrace(text, start); ok {
			return text[start : end+1], nil
		}
		next := strings.IndexByte(text[start+1:], '{')
		if next < 0 {
			break
		}
		start += next + 1
	}
	return "", ErrNoJSON
}

// matchBrace returns the index of the brace closing the one at start,
// honoring string literals and escapes.
func matchBrace(text string, start int) (int, bool) {
	depth, inStr, esc := 0, false, false
	for i := start; i < len(text); i++ {
		c := text[i]
		switch {
		case esc:
			esc = false
		case inStr && c == '\\':
			esc = true
		case c == '"':
			inStr = !inStr
		case inStr:
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}

func first(obj map[string]json.RawMessage, keys ...string) json.RawMessage {
	for _, k := range keys {
		if v, ok := obj[k]; ok && string(v) != "null" {
			return v
		}
	}
	return nil
}

func str(raw json.RawMessage) string {
	var s string
	if raw == nil || json.Unmarshal(raw, &s) != nil {
		return ""
	}
	return strings.TrimSpace(s)
}

// num accepts JSON numbers and numeric strings.
func num(raw json.RawMessage) (float64, bool) {
	if raw == nil || string(raw) == "null" {
		return 0, false
	}
	var f float64
	if json.Unmarshal(raw, &f) == nil {
		return f, !math.IsNaN(f) && !math.IsInf(f, 0)
	}
	var s string
	if json.Unmarshal(raw, &s) != nil {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// strList accepts ["a","b"] or "a,b".
func strList(raw json.RawMessage) []string {
	if raw == nil {
		return nil
	}
	var list []string
	if json.Unmarshal(raw, &list) != nil {
		s := str(raw)
		if s == "" {
			return nil
		}
		list = strings.Split(s, ",")
	}
	out := make([]string, 0, len(list))
	for _, s := range list {
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func numMap(raw json.RawMessage) map[string]float64 {
	var m map[string]json.RawMessage
	if raw == nil || json.Unmarshal(raw, &m) != nil {
		return nil
	}
	out := make(map[string]float64, len(m))
	for k, v := range m {
		if f, ok := num(v); ok {
			out[k] = f
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func objects(raw json.RawMessage) []map[string]json.RawMessage {
	var items []json.RawMessage
	if raw == nil || json.Unmarshal(raw, &items) != nil {
		return nil
	}
	out := make([]map[string]json.RawMessage, 0, len(items))
	for _, it := range items {
		var obj map[string]json.RawMessage
		if json.Unmarshal(it, &obj) == nil && obj != nil {
			out = append(out, obj)
		}
	}
	return out
}
