// Package compiler turns a character description into a calculation script.
// With a model configured it tries a bounded number of model plans, feeding
// each failure into the next prompt, and falls back to the heuristic plan.
package compiler

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/nstehr/abilityc/agent"
	"github.com/nstehr/abilityc/cache"
	"github.com/nstehr/abilityc/llm"
	"github.com/nstehr/abilityc/model"
	"github.com/nstehr/abilityc/planner"
	"github.com/nstehr/abilityc/prompt"
	"github.com/nstehr/abilityc/render"
	"github.com/nstehr/abilityc/sandbox"
	"github.com/nstehr/abilityc/script"
	"github.com/nstehr/abilityc/validator"
)

// MaxAttempts bounds the model attempts per compile.
const MaxAttempts = prompt.MaxAttempts

// Options are the compiler's dependencies. Everything is optional; without a
// Client every compile takes the heuristic path.
type Options struct {
	Client     llm.Client
	Cache      cache.Store
	Logger     *zap.Logger
	Metrics    *agent.Metrics
	Policy     validator.EvictionPolicy
	DescTokens int
}

// Result is what a compile hands back. Script is empty only for malformed
// input; Error is a diagnostic, not a failure, whenever Script is set.
type Result struct {
	Script    string `json:"script"`
	UsedModel bool   `json:"usedModel"`
	Error     string `json:"error,omitempty"`
}

// Compiler holds only immutable dependencies and may be shared between
// goroutines.
type Compiler struct {
	agent     *agent.Agent
	prompts   *prompt.Builder
	validator *validator.Validator
	logger    *zap.Logger
	metrics   *agent.Metrics
}

func New(opts Options) *Compiler {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Compiler{
		prompts:   prompt.New(opts.DescTokens),
		validator: validator.New(logger, validator.WithPolicy(opts.Policy)),
		logger:    logger.Named("compiler"),
		metrics:   opts.Metrics,
	}
	if opts.Client != nil {
		c.agent = agent.New(opts.Client, opts.Cache, logger, opts.Metrics)
	}
	return c
}

// Compile produces the script for in. provenance tags model-assisted output;
// an unknown tag is treated as script.CreatedByModel. Heuristic output is
// always tagged script.CreatedByHeuristic.
func (c *Compiler) Compile(ctx context.Context, in model.PlanInput, provenance string) Result {
	log := c.logger.With(zap.String("name", in.Name), zap.String("game", string(in.Game)))
	if err := in.Check(); err != nil {
		c.metrics.Compile("failed")
		log.Warn("rejected input", zap.Error(err))
		return Result{Error: fmt.Sprintf("invalid input: %v", err)}
	}

	if c.agent == nil {
		log.Debug("compiling", zap.Stringer("state", StateHeuristic))
		res := c.heuristic(in)
		c.metrics.Compile("heuristic")
		return res
	}

	if !script.ValidProvenance(provenance) || provenance == script.CreatedByHeuristic {
		provenance = script.CreatedByModel
	}

	a, state := Attempt{N: 1}, StateModelAttempt
	for state == StateModelAttempt {
		src, err := c.modelAttempt(ctx, in, a, provenance)
		state = a.Transition(err)
		if state == StateSuccess {
			c.metrics.Attempt("ok")
			c.metrics.Compile("model")
			log.Info("compiled with model", zap.Int("attempt", a.N), zap.String("model", c.agent.Model()))
			return Result{Script: src, UsedModel: true}
		}
		c.metrics.Attempt(stage(err))
		log.Warn("model attempt failed", zap.Int("attempt", a.N), zap.Stringer("next", state), zap.Error(err))
		a = a.Next(err)
		if ctx.Err() != nil {
			state = StateFallbackHeuristic
		}
	}

	c.metrics.Fallback()
	c.metrics.Compile("fallback")
	res := c.heuristic(in)
	diag := fmt.Sprintf("all model attempts exhausted, heuristic fallback used, last failure = %v", a.LastErr)
	if res.Error != "" {
		diag += "; " + res.Error
	}
	res.Error = diag
	log.Warn("heuristic fallback", zap.Error(a.LastErr))
	return res
}

// modelAttempt runs prompt, model, validator, renderer and sandbox once.
func (c *Compiler) modelAttempt(ctx context.Context, in model.PlanInput, a Attempt, provenance string) (string, error) {
	msgs := c.prompts.Build(in, a.N, a.LastErr)
	text, err := c.agent.Ask(ctx, msgs, a.N)
	if err != nil {
		return "", &stageError{stage: "send", err: err}
	}
	draft, err := validator.Parse(text)
	if err != nil {
		return "", &stageError{stage: "validate", err: err}
	}
	plan, err := c.validator.Validate(in, draft)
	if err != nil {
		return "", &stageError{stage: "validate", err: err}
	}
	src, err := render.Render(plan, render.MetaFor(in, provenance))
	if err != nil {
		return "", &stageError{stage: "render", err: err}
	}
	if err := sandbox.Check(src); err != nil {
		return "", &stageError{stage: "sandbox", err: err}
	}
	return src, nil
}

// heuristic runs the model-free path once. A plan that fails the sandbox
// is still returned, with the failure recorded.
func (c *Compiler) heuristic(in model.PlanInput) Result {
	meta := render.MetaFor(in, script.CreatedByHeuristic)
	plan, err := c.validator.Validate(in, planner.Heuristic(in))
	var diag string
	if err != nil {
		// No damage table at all: the script carries no rows but is still
		// a well-formed document.
		diag = fmt.Sprintf("heuristic: %v", err)
		plan = model.Plan{Game: in.Game, MainAttr: model.DefaultMainAttr(in.Game, "")}
	}
	src, err := render.Render(plan, meta)
	if err != nil {
		c.logger.Error("heuristic plan did not render", zap.String("name", in.Name), zap.Error(err))
		return Result{Error: fmt.Sprintf("heuristic: %v", err)}
	}
	if err := sandbox.Check(src); err != nil {
		c.logger.Error("heuristic script failed sandbox", zap.String("name", in.Name), zap.Error(err))
		diag = fmt.Sprintf("heuristic: %v", err)
	}
	return Result{Script: src, Error: diag}
}

// stageError tags an attempt failure with the stage that raised it. Its
// message is the underlying error's, which is what the next prompt sees.
type stageError struct {
	stage string
	err   error
}

func (e *stageError) Error() string { return e.err.Error() }
func (e *stageError) Unwrap() error { return e.err }

func stage(err error) string {
	var se *stageError
	if errors.As(err, &se) {
		return se.stage
	}
	return "unknown"
}
