package sandbox

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nstehr/abilityc/script"
)

func encode(t *testing.T, details []script.Entry, buffs []script.BuffEntry) string {
	t.Helper()
	src, err := script.Encode(script.Document{
		CreatedBy: script.CreatedByModel,
		MainAttr:  "atk,cpct,cdmg",
		Details:   details,
		Buffs:     buffs,
	})
	require.NoError(t, err)
	return src
}

func dmgRow(expr string) script.Entry {
	return script.Entry{Title: "row", Kind: "dmg", Expr: expr}
}

func TestCheckAccepts(t *testing.T) {
	src := encode(t,
		[]script.Entry{
			dmgRow(`Dmg(T("e", "Skill DMG"), "e", "")`),
			dmgRow(`let pct = T("a", "1-Hit DMG") + T("a", "2-Hit DMG"); Dmg(pct, "a", "phy")`),
			{Title: "heal", Kind: "heal", Expr: `Heal(T("q", "Healing") * Attr("hp") / 100 + TAt("q", "Healing", 1))`},
			{Title: "gated", Kind: "dmg", Check: `Cons() >= 2 && Param("q") > 0`, Params: map[string]float64{"q": 1},
				Expr: `DmgBasic(Attr("def") * 2, "q", "melt")`},
			{Title: "swirl", Kind: "reaction", Expr: `Reaction("swirl")`},
		},
		[]script.BuffEntry{
			{Title: "C2", Cons: 2, Check: `Trace() > 0`, Data: map[string]string{"atkPct": "20", "cdmg": `Attr("atk") / 100`}},
			{Title: "C4", Data: map[string]string{"dmg": `abs(Attr("atk")) / 100`}},
		})
	assert.NoError(t, Check(src))
}

func TestCheckStatic(t *testing.T) {
	cases := map[string]string{
		"unknown function": `Dmg(Boom("e"), "e", "")`,
		"unknown variable": `Dmg(secret, "e", "")`,
		"syntax":           `Dmg(T("e", "Skill DMG"), "e"`,
	}
	for name, expr := range cases {
		t.Run(name, func(t *testing.T) {
			err := Check(encode(t, []script.Entry{dmgRow(expr)}, nil))
			var serr *Error
			require.True(t, errors.As(err, &serr), "got %v", err)
			assert.Equal(t, PassStatic, serr.Pass)
			assert.Contains(t, serr.Where, "details[0]")
		})
	}
}

func TestCheckRuntime(t *testing.T) {
	cases := map[string]struct {
		details []script.Entry
		buffs   []script.BuffEntry
	}{
		"number row":    {details: []script.Entry{dmgRow(`T("e", "Skill DMG")`)}},
		"wrong arity":   {details: []script.Entry{dmgRow(`Dmg(T("e", "Skill DMG"))`)}},
		"string check":  {details: []script.Entry{{Title: "x", Kind: "dmg", Check: `"yes"`, Expr: `Reaction("bloom")`}}},
		"bool buff":     {buffs: []script.BuffEntry{{Title: "b", Data: map[string]string{"dmg": "Cons() > 1"}}}},
		"type mismatch": {details: []script.Entry{dmgRow(`Dmg("ten", "e", "")`)}},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			err := Check(encode(t, c.details, c.buffs))
			var serr *Error
			require.True(t, errors.As(err, &serr), "got %v", err)
			assert.Equal(t, PassRuntime, serr.Pass)
		})
	}
}

func TestCheckDocument(t *testing.T) {
	var serr *Error

	err := Check("created_by: model\nbogus: true\n")
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, PassStatic, serr.Pass)

	src, _ := script.Encode(script.Document{CreatedBy: "llm"})
	err = Check(src)
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, "created_by", serr.Where)

	src, _ = script.Encode(script.Document{CreatedBy: script.CreatedByHeuristic, DefaultDmgIdx: 3,
		Details: []script.Entry{dmgRow(`Reaction("bloom")`)}})
	err = Check(src)
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, "default_dmg_idx", serr.Where)
}

func TestEvaluate(t *testing.T) {
	src := encode(t, []script.Entry{
		dmgRow(`Dmg(T("e", "Skill DMG"), "e", "")`),
		dmgRow(`DmgBasic(T("e", "Skill DMG") * Attr("hp") / 100, "e", "vaporize")`),
		{Title: "gated", Kind: "dmg", Check: `Cons() >= 2`, Expr: `Reaction("swirl")`},
	}, nil)
	sheet := Sheet{
		Tables:        map[string]map[string][]float64{"e": {"Skill DMG": {150}}},
		Attrs:         map[string]float64{"atk": 2000, "hp": 30000},
		Constellation: 1,
		Reactions:     map[string]float64{"swirl": 5000},
		Multipliers:   map[string]float64{"vaporize": 1.5},
	}
	out, err := Evaluate(src, sheet)
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.InDelta(t, 3000, out[0].Result.Dmg, 1e-9)
	assert.InDelta(t, 67500, out[1].Result.Dmg, 1e-9)
	assert.False(t, out[2].Active)
	assert.Equal(t, 5000.0, out[2].Result.Dmg)
}

func TestCheckExpr(t *testing.T) {
	assert.NoError(t, CheckExpr(`Param("q") > 0`, ExprBool, map[string]float64{"q": 1}))
	assert.NoError(t, CheckExpr(`Attr("atk") * 0.2`, ExprNumber, nil))
	assert.NoError(t, CheckExpr(`Heal(T("q", "Healing"))`, ExprResult, nil))
	assert.Error(t, CheckExpr(`Attr("atk")`, ExprBool, nil))
	assert.Error(t, CheckExpr(`1 / 0`, ExprNumber, nil))
	assert.Error(t, CheckExpr(`os.Exit(1)`, ExprNumber, nil))
}

func TestTableRefs(t *testing.T) {
	refs, ok, err := TableRefs(`Dmg(T("e", "A") + TAt("q", "B", 1), "e", "")`)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []TableRef{{"e", "A"}, {"q", "B"}}, refs)

	_, ok, err = TableRefs(`let t = "A"; Dmg(T("e", t), "e", "")`)
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, err = TableRefs(`Dmg(`)
	assert.Error(t, err)
}

func TestFunctions(t *testing.T) {
	assert.Equal(t, []string{
		"Attr", "Cons", "Dmg", "DmgBasic", "Heal", "Param", "Reaction", "Shield", "T", "TAt", "Trace",
	}, Functions())
}
