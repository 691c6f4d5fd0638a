// Package agent consults the model on behalf of the compiler. It owns the
// per-attempt sampling schedule and the response cache; it never judges
// what the model says.
package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/nstehr/abilityc/cache"
	"github.com/nstehr/abilityc/llm"
	"github.com/nstehr/abilityc/prompt"
)

// temperatures is the sampling schedule; attempts past the end reuse the last.
var temperatures = []float64{0.2, 0.1, 0}

// Temperature returns the sampling temperature for attempt n (1-based).
func Temperature(n int) float64 {
	if n < 1 {
		n = 1
	}
	if n > len(temperatures) {
		n = len(temperatures)
	}
	return temperatures[n-1]
}

// Agent sends prompts to one model client. It is safe for concurrent use as
// long as its client and store are.
type Agent struct {
	client  llm.Client
	store   cache.Store
	logger  *zap.Logger
	metrics *Metrics
}

// New creates an agent. store and metrics may be nil.
func New(client llm.Client, store cache.Store, logger *zap.Logger, metrics *Metrics) *Agent {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Agent{client: client, store: store, logger: logger.Named("agent"), metrics: metrics}
}

// Model names the underlying client.
func (a *Agent) Model() string { return a.client.Name() }

// Ask returns the model's reply to msgs for attempt n. A cached reply for the
// identical request is returned without contacting the model. Cache failures
// are logged and otherwise ignored.
func (a *Agent) Ask(ctx context.Context, msgs []llm.Message, n int) (string, error) {
	params := llm.Params{Temperature: Temperature(n)}
	fp := cache.Fingerprint(cache.Key{
		Version:  prompt.Version,
		Purpose:  prompt.Purpose,
		Model:    a.client.Name(),
		Messages: msgs,
		Params:   params,
	})
	log := a.logger.With(zap.Int("attempt", n), zap.String("fingerprint", fp[:12]))

	if a.store != nil {
		text, ok, err := a.store.Get(ctx, fp)
		switch {
		case err != nil:
			a.metrics.lookup("error")
			log.Warn("cache lookup failed", zap.Error(err))
		case ok:
			a.metrics.lookup("hit")
			log.Debug("cache hit")
			return text, nil
		default:
			a.metrics.lookup("miss")
		}
	}

	start := time.Now()
	text, err := a.client.Send(ctx, msgs, params)
	elapsed := time.Since(start)
	a.metrics.latency(a.client.Name(), elapsed.Seconds())
	if err != nil {
		return "", fmt.Errorf("model %s: %w", a.client.Name(), err)
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("model %s: %w", a.client.Name(), llm.ErrEmptyResponse)
	}
	log.Debug("model replied",
		zap.String("model", a.client.Name()),
		zap.Float64("temperature", params.Temperature),
		zap.Duration("elapsed", elapsed),
		zap.Int("chars", len(text)),
	)

	if a.store != nil {
		if err := a.store.Put(ctx, fp, text); err != nil {
			log.Warn("cache store failed", zap.Error(err))
		}
	}
	return text, nil
}
