package validator

import (
	"errors"
	"testing"

	"github.com/nstehr/abilityc/model"
)

func TestParseLenient(t *testing.T) {
	text := "Here is the plan:\n```json\n" + `{
  "mainAttr": "atk, cpct",
  "defDmgKey": "q",
  "details": [
    {"title": "Q", "talent": "q", "table": "Burst DMG", "ele": "Vaporize", "params": {"q": "1", "bad": "x"}},
    "not an object",
    {"title": 5, "talent": "e", "table": "Skill DMG"}
  ],
  "buffs": [
    {"title": "C2", "cons": "2", "traceReq": 3, "data": {"atkPct": "20", "cdmg": "Attr(\"atk\") / 100", "bad": null}}
  ]
}` + "\n```\nLet me know!"

	d, err := Parse(text)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(d.MainAttr) != 2 || d.MainAttr[0] != "atk" || d.MainAttr[1] != "cpct" {
		t.Errorf("mainAttr = %v", d.MainAttr)
	}
	if d.DefaultDamageKey != "q" {
		t.Errorf("defaultDamageKey = %q", d.DefaultDamageKey)
	}
	if len(d.Details) != 2 {
		t.Fatalf("details = %d, want 2", len(d.Details))
	}
	if got := d.Details[0]; got.Element != "Vaporize" || got.Params["q"] != 1 || len(got.Params) != 1 {
		t.Errorf("details[0] = %+v", got)
	}
	if d.Details[1].Title != "" {
		t.Errorf("wrong-typed title should decode as absent, got %q", d.Details[1].Title)
	}
	if len(d.Buffs) != 1 {
		t.Fatalf("buffs = %d, want 1", len(d.Buffs))
	}
	b := d.Buffs[0]
	if b.Cons != 2 || b.Trace != 3 {
		t.Errorf("cons/trace = %d/%d", b.Cons, b.Trace)
	}
	if b.Data["atkPct"] != model.Num(20) {
		t.Errorf("atkPct = %+v", b.Data["atkPct"])
	}
	if !b.Data["cdmg"].IsExpr() {
		t.Errorf("cdmg should be an expression, got %+v", b.Data["cdmg"])
	}
	if _, ok := b.Data["bad"]; ok {
		t.Error("null data value should be dropped")
	}
}

func TestParseMainAttrArray(t *testing.T) {
	d, err := Parse(`{"mainAttrList": ["atk", "cpct,cdmg"]}`)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"atk", "cpct", "cdmg"}
	if len(d.MainAttr) != len(want) {
		t.Fatalf("mainAttr = %v", d.MainAttr)
	}
	for i := range want {
		if d.MainAttr[i] != want[i] {
			t.Errorf("mainAttr[%d] = %q, want %q", i, d.MainAttr[i], want[i])
		}
	}
}

func TestParseNoJSON(t *testing.T) {
	if _, err := Parse("I cannot help with that."); !errors.Is(err, ErrNoJSON) {
		t.Errorf("err = %v, want ErrNoJSON", err)
	}
	if _, err := Parse("{ unterminated"); !errors.Is(err, ErrNoJSON) {
		t.Errorf("err = %v, want ErrNoJSON", err)
	}
}

func TestExtractJSON(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{`{"a":1}`, `{"a":1}`},
		{`prefix {"a":"}{"} suffix`, `{"a":"}{"}`},
		{`{"a":"\"}"} trailing }`, `{"a":"\"}"}`},
		{`{"outer":{"inner":[1,2]}}`, `{"outer":{"inner":[1,2]}}`},
		{"{ broken\n{\"ok\":true}", `{"ok":true}`},
	}
	for _, c := range cases {
		got, err := ExtractJSON(c.in)
		if err != nil {
			t.Errorf("ExtractJSON(%q): %v", c.in, err)
			continue
		}
		if got != c.want {
			t.Errorf("ExtractJSON(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
