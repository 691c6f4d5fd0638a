package sandbox

import (
	"reflect"
	"sort"
)

// Result is what every damage, heal, shield and reaction call yields.
type Result struct {
	Dmg float64
	Avg float64
}

// Context supplies the values a script reads at evaluation time. The
// simulation engine provides a real one; the sandbox runs scripts against
// Inert.
type Context interface {
	Table(talent, table string, idx int) float64
	Attr(name string) float64
	Cons() int
	Trace() int
	Dmg(pct float64, key, ele string) Result
	DmgBasic(base float64, key, ele string) Result
	Heal(n float64) Result
	Shield(n float64) Result
	Reaction(id string) Result
}

// Inert accepts every lookup and call and answers with zero values.
type Inert struct{}

func (Inert) Table(string, string, int) float64       { return 0 }
func (Inert) Attr(string) float64                     { return 0 }
func (Inert) Cons() int                               { return 0 }
func (Inert) Trace() int                              { return 0 }
func (Inert) Dmg(float64, string, string) Result      { return Result{} }
func (Inert) DmgBasic(float64, string, string) Result { return Result{} }
func (Inert) Heal(float64) Result                     { return Result{} }
func (Inert) Shield(float64) Result                   { return Result{} }
func (Inert) Reaction(string) Result                  { return Result{} }

// Scope wraps a Context and exposes helper methods callable from
// expressions. Its method set is the module scope of the mini-language.
type Scope struct {
	ctx    Context
	params map[string]float64
}

// NewScope binds ctx and the row's static parameters.
func NewScope(ctx Context, params map[string]float64) Scope {
	if ctx == nil {
		ctx = Inert{}
	}
	return Scope{ctx: ctx, params: params}
}

// T reads the first value of a talent table.
func (s Scope) T(talent, table string) float64 { return s.ctx.Table(talent, table, 0) }

// TAt reads the idx-th value of a multi-part table, e.g. the flat part of
// "10% Max HP + 1200".
func (s Scope) TAt(talent, table string, idx int) float64 { return s.ctx.Table(talent, table, idx) }

func (s Scope) Attr(name string) float64 { return s.ctx.Attr(name) }
func (s Scope) Cons() int                { return s.ctx.Cons() }
func (s Scope) Trace() int               { return s.ctx.Trace() }

// Param reads a static parameter of the current row; missing names are 0.
func (s Scope) Param(name string) float64 { return s.params[name] }

func (s Scope) Dmg(pct float64, key, ele string) Result       { return s.ctx.Dmg(pct, key, ele) }
func (s Scope) DmgBasic(base float64, key, ele string) Result { return s.ctx.DmgBasic(base, key, ele) }
func (s Scope) Heal(n float64) Result                         { return s.ctx.Heal(n) }
func (s Scope) Shield(n float64) Result                       { return s.ctx.Shield(n) }
func (s Scope) Reaction(id string) Result                     { return s.ctx.Reaction(id) }

var scopeNames = func() map[string]bool {
	t := reflect.TypeOf(Scope{})
	names := make(map[string]bool, t.NumMethod())
	for i := 0; i < t.NumMethod(); i++ {
		names[t.Method(i).Name] = true
	}
	return names
}()

// Functions lists the module-scope function names in sorted order.
func Functions() []string {
	out := make([]string, 0, len(scopeNames))
	for n := range scopeNames {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
