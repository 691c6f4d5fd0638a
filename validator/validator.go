// Package validator turns untrusted drafts into plans. Every table, reaction,
// buff key and expression in a returned plan has been checked against the
// compiler input; a draft that cannot be repaired is rejected with every
// problem found, so the caller can feed them back to the model.
package validator

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/nstehr/abilityc/model"
)

// Error lists the problems that made a draft unusable. Problems is never empty.
type Error struct {
	Problems []string
}

func (e *Error) Error() string {
	return "invalid plan: " + strings.Join(e.Problems, "; ")
}

// Validator validates and enriches drafts. The zero value is not usable; use New.
type Validator struct {
	policy EvictionPolicy
	logger *zap.Logger
}

// Option configures a Validator.
type Option func(*Validator)

// WithPolicy replaces the eviction policy used once the detail cap is reached.
func WithPolicy(p EvictionPolicy) Option {
	return func(v *Validator) {
		if p != nil {
			v.policy = p
		}
	}
}

func New(logger *zap.Logger, opts ...Option) *Validator {
	if logger == nil {
		logger = zap.NewNop()
	}
	v := &Validator{policy: DefaultPolicy, logger: logger.Named("validator")}
	for _, o := range opts {
		o(v)
	}
	return v
}

// Validate checks d against in and returns the enriched plan. The returned
// error is a *Error whenever the draft itself is at fault.
func (v *Validator) Validate(in model.PlanInput, d model.Draft) (model.Plan, error) {
	if err := in.Check(); err != nil {
		return model.Plan{}, fmt.Errorf("validate: %w", err)
	}
	var (
		pr       problems
		evidence = strings.ToLower(in.Evidence())
	)

	mainAttr := mainAttrList(in.Game, d.MainAttr)
	if len(mainAttr) == 0 {
		pr.fatal("mainAttrList is missing or has no known attributes")
	}

	details := structuralDetails(in, d.Details, &pr)
	buffs := structuralBuffs(in.Game, d.Buffs, &pr)

	if len(details) > model.MaxDetails {
		pr.add("%d details exceed the cap of %d; extra rows dropped", len(details), model.MaxDetails)
		details = details[:model.MaxDetails]
	}
	if len(buffs) > model.MaxBuffs {
		pr.add("%d buffs exceed the cap of %d; extra buffs dropped", len(buffs), model.MaxBuffs)
		buffs = buffs[:model.MaxBuffs]
	}
	if len(details) == 0 {
		pr.fatal("no valid details")
	}
	if pr.failed {
		return model.Plan{}, &Error{Problems: pr.list}
	}

	set := newRowSet(details, v.policy)
	enrich(in, evidence, set)
	details = prune(in.Game, set.details, evidence)
	if len(details) == 0 {
		pr.fatal("no valid details after pruning")
		return model.Plan{}, &Error{Problems: pr.list}
	}
	buffs = filterBuffs(in, buffs)

	if len(pr.list) > 0 {
		v.logger.Debug("draft repaired", zap.String("name", in.Name), zap.Strings("problems", pr.list))
	}
	return model.Plan{
		Game:             in.Game,
		MainAttr:         mainAttr,
		DefaultDamageKey: defaultDamageKey(d.DefaultDamageKey, details),
		Details:          details,
		Buffs:            buffs,
	}, nil
}

// problems collects messages; failed marks that at least one was fatal.
type problems struct {
	list   []string
	failed bool
}

func (p *problems) add(format string, args ...any) {
	p.list = append(p.list, fmt.Sprintf(format, args...))
}

func (p *problems) fatal(format string, args ...any) {
	p.add(format, args...)
	p.failed = true
}

func mainAttrList(g model.Game, raw []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, s := range raw {
		a, ok := model.ParseMainAttr(g, s)
		if !ok || seen[a] {
			continue
		}
		seen[a] = true
		out = append(out, a)
	}
	return out
}

var defaultKeyOrder = []string{"q", "e", "a"}

// defaultDamageKey keeps the requested key when a damage row carries it and
// otherwise prefers burst, skill, then normal attack.
func defaultDamageKey(want string, details []model.Detail) string {
	has := func(k string) bool {
		for _, d := range details {
			if d.Kind == model.KindDmg && d.Key == k {
				return true
			}
		}
		return false
	}
	if want = strings.TrimSpace(want); want != "" && has(want) {
		return want
	}
	for _, k := range defaultKeyOrder {
		if has(k) {
			return k
		}
	}
	for _, d := range details {
		if d.Kind == model.KindDmg {
			return d.Key
		}
	}
	return ""
}
