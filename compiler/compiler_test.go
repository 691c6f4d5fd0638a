package compiler

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/nstehr/abilityc/agent"
	"github.com/nstehr/abilityc/cache"
	"github.com/nstehr/abilityc/llm"
	"github.com/nstehr/abilityc/model"
	"github.com/nstehr/abilityc/sandbox"
	"github.com/nstehr/abilityc/script"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		// Started by an init in the genai client's dependency tree.
		goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"),
	)
}

// fakeModel replays canned replies and records every conversation it saw.
type fakeModel struct {
	mu      sync.Mutex
	replies []string
	err     error
	seen    [][]llm.Message
}

func (f *fakeModel) Name() string { return "fake/model" }

func (f *fakeModel) Send(_ context.Context, msgs []llm.Message, _ llm.Params) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seen = append(f.seen, msgs)
	if f.err != nil {
		return "", f.err
	}
	if len(f.replies) == 0 {
		return "", errors.New("no more replies")
	}
	r := f.replies[0]
	if len(f.replies) > 1 {
		f.replies = f.replies[1:]
	}
	return r, nil
}

func (f *fakeModel) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.seen)
}

func skillInput() model.PlanInput {
	return model.PlanInput{
		Game:   model.GameGS,
		Name:   "Tester",
		Tables: map[model.TalentKey][]string{model.TalentE: {"Skill DMG", "Skill DMG2"}},
	}
}

const goodPlan = `{"mainAttr":"atk,cpct,cdmg","defaultDamageKey":"e",
 "details":[{"title":"E Skill DMG","talent":"e","table":"Skill DMG"}]}`

const badTablePlan = `{"details":[{"title":"X","talent":"e","table":"Nonexistent"}]}`

func decode(t *testing.T, src string) script.Document {
	t.Helper()
	require.NoError(t, sandbox.Check(src))
	doc, err := script.Decode(src)
	require.NoError(t, err)
	return doc
}

func TestCompileHeuristicOnly(t *testing.T) {
	res := New(Options{}).Compile(context.Background(), skillInput(), script.CreatedByModel)
	assert.False(t, res.UsedModel)
	assert.Empty(t, res.Error)

	doc := decode(t, res.Script)
	assert.Equal(t, script.CreatedByHeuristic, doc.CreatedBy)
	assert.Equal(t, "atk,cpct,cdmg", doc.MainAttr)
	require.Len(t, doc.Details, 1)
	assert.Equal(t, "dmg", doc.Details[0].Kind)
	assert.Equal(t, "e", doc.Details[0].Key)
	assert.Contains(t, doc.Details[0].Expr, `T("e", "Skill DMG")`)
}

func TestCompileModelSuccess(t *testing.T) {
	fm := &fakeModel{replies: []string{goodPlan}}
	res := New(Options{Client: fm}).Compile(context.Background(), skillInput(), script.CreatedByUpstreamDerived)
	assert.True(t, res.UsedModel)
	assert.Empty(t, res.Error)
	assert.Equal(t, 1, fm.calls())

	doc := decode(t, res.Script)
	assert.Equal(t, script.CreatedByUpstreamDerived, doc.CreatedBy)
	assert.Equal(t, "E Skill DMG", doc.Details[0].Title)
}

func TestCompileProvenance(t *testing.T) {
	for _, tag := range []string{"", "bogus", script.CreatedByHeuristic} {
		fm := &fakeModel{replies: []string{goodPlan}}
		res := New(Options{Client: fm}).Compile(context.Background(), skillInput(), tag)
		require.True(t, res.UsedModel, tag)
		assert.Equal(t, script.CreatedByModel, decode(t, res.Script).CreatedBy, tag)
	}
}

func TestCompileRetriesWithFeedback(t *testing.T) {
	fm := &fakeModel{replies: []string{"I'd rather not.", goodPlan}}
	res := New(Options{Client: fm}).Compile(context.Background(), skillInput(), "")
	assert.True(t, res.UsedModel)
	require.Equal(t, 2, fm.calls())

	second := fm.seen[1]
	require.Len(t, second, 3)
	assert.Contains(t, second[2].Content, "no JSON object")
}

func TestCompileFallback(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := agent.NewMetrics(reg)
	fm := &fakeModel{replies: []string{badTablePlan}}
	res := New(Options{Client: fm, Metrics: metrics}).Compile(context.Background(), skillInput(), "")

	assert.False(t, res.UsedModel)
	assert.Equal(t, MaxAttempts, fm.calls())
	assert.True(t, strings.HasPrefix(res.Error,
		"all model attempts exhausted, heuristic fallback used, last failure = invalid plan:"), res.Error)
	assert.Contains(t, res.Error, `table "Nonexistent" not in tables[e]`)

	doc := decode(t, res.Script)
	assert.Equal(t, script.CreatedByHeuristic, doc.CreatedBy)
	require.Len(t, doc.Details, 1)

	// Attempts 2 and 3 carry the failure; the last one adds formatting rules.
	assert.Len(t, fm.seen[0], 2)
	assert.Contains(t, fm.seen[1][2].Content, "Nonexistent")
	assert.Len(t, fm.seen[2], 4)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Fallbacks))
	assert.Equal(t, 3.0, testutil.ToFloat64(metrics.Attempts.WithLabelValues("validate")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Compiles.WithLabelValues("fallback")))
}

func TestCompileSendErrors(t *testing.T) {
	fm := &fakeModel{err: errors.New("connection refused")}
	res := New(Options{Client: fm}).Compile(context.Background(), skillInput(), "")
	assert.False(t, res.UsedModel)
	assert.Contains(t, res.Error, "last failure = model fake/model: connection refused")
	assert.NotEmpty(t, res.Script)
}

func TestCompileCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	fm := &fakeModel{err: context.Canceled}
	res := New(Options{Client: fm}).Compile(ctx, skillInput(), "")
	assert.Equal(t, 1, fm.calls(), "cancellation ends the retry loop after the current attempt")
	assert.False(t, res.UsedModel)
	assert.NotEmpty(t, res.Script)
}

func TestCompileUsesCache(t *testing.T) {
	store := cache.NewMemory()
	in := skillInput()

	fm := &fakeModel{replies: []string{goodPlan}}
	first := New(Options{Client: fm, Cache: store}).Compile(context.Background(), in, "")
	require.True(t, first.UsedModel)

	// Same model name, so the cached reply is served and the client never asked.
	silent := &fakeModel{err: errors.New("should not be called")}
	second := New(Options{Client: silent, Cache: store}).Compile(context.Background(), in, "")
	assert.True(t, second.UsedModel)
	assert.Equal(t, first.Script, second.Script)
	assert.Equal(t, 0, silent.calls())
}

func TestCompileNoDamageTables(t *testing.T) {
	in := model.PlanInput{
		Game:   model.GameGS,
		Tables: map[model.TalentKey][]string{model.TalentE: {"Skill CD", "Energy Cost"}},
	}
	res := New(Options{}).Compile(context.Background(), in, "")
	assert.Contains(t, res.Error, "no valid details")
	doc := decode(t, res.Script)
	assert.Empty(t, doc.Details)
	assert.Equal(t, script.CreatedByHeuristic, doc.CreatedBy)
}

func TestCompileInvalidInput(t *testing.T) {
	res := New(Options{}).Compile(context.Background(), model.PlanInput{Game: "hsr"}, "")
	assert.Empty(t, res.Script)
	assert.Contains(t, res.Error, "invalid input")
}

func TestCompileConcurrent(t *testing.T) {
	c := New(Options{Client: &fakeModel{replies: []string{goodPlan}}, Cache: cache.NewMemory()})
	var wg sync.WaitGroup
	results := make([]Result, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = c.Compile(context.Background(), skillInput(), "")
		}(i)
	}
	wg.Wait()
	for _, r := range results {
		assert.True(t, r.UsedModel)
		assert.Equal(t, results[0].Script, r.Script)
	}
}

func TestAttemptTransition(t *testing.T) {
	boom := errors.New("boom")
	a := Attempt{N: 1}
	assert.Equal(t, StateSuccess, a.Transition(nil))
	assert.Equal(t, StateModelAttempt, a.Transition(boom))
	a = a.Next(boom).Next(boom)
	assert.Equal(t, 3, a.N)
	assert.Equal(t, boom, a.LastErr)
	assert.Equal(t, StateFallbackHeuristic, a.Transition(boom))
	assert.True(t, a.Next(boom).Exhausted())
	assert.Equal(t, "fallback-heuristic", StateFallbackHeuristic.String())
}
