package sandbox

import (
	"fmt"
	"math"
	"sort"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/ast"
	"github.com/expr-lang/expr/builtin"
	"github.com/expr-lang/expr/parser"
	"github.com/expr-lang/expr/vm"

	"github.com/nstehr/abilityc/script"
)

// Pass names which sandbox stage rejected a script.
type Pass string

const (
	PassStatic  Pass = "static"
	PassRuntime Pass = "runtime"
)

// Error locates a sandbox failure in the script.
type Error struct {
	Pass  Pass
	Where string // e.g. `details[3] "Q DMG"`
	Err   error
}

func (e *Error) Error() string {
	if e.Where == "" {
		return fmt.Sprintf("%s pass: %v", e.Pass, e.Err)
	}
	return fmt.Sprintf("%s pass: %s: %v", e.Pass, e.Where, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Check runs both passes against the inert context.
func Check(src string) error {
	doc, err := Static(src)
	if err != nil {
		return err
	}
	return Runtime(doc, Inert{})
}

// Static decodes the script and verifies that every expression parses and
// references only module-scope names. Nothing is executed.
func Static(src string) (script.Document, error) {
	doc, err := script.Decode(src)
	if err != nil {
		return script.Document{}, &Error{Pass: PassStatic, Err: err}
	}
	if !script.ValidProvenance(doc.CreatedBy) {
		return doc, &Error{Pass: PassStatic, Where: "created_by", Err: fmt.Errorf("unknown provenance %q", doc.CreatedBy)}
	}
	if len(doc.Details) > 0 && (doc.DefaultDmgIdx < 0 || doc.DefaultDmgIdx >= len(doc.Details)) {
		return doc, &Error{Pass: PassStatic, Where: "default_dmg_idx", Err: fmt.Errorf("index %d out of range", doc.DefaultDmgIdx)}
	}
	for i, d := range doc.Details {
		where := fmt.Sprintf("details[%d] %q", i, d.Title)
		if err := parseScoped(d.Expr); err != nil {
			return doc, &Error{Pass: PassStatic, Where: where, Err: err}
		}
		if d.Check != "" {
			if err := parseScoped(d.Check); err != nil {
				return doc, &Error{Pass: PassStatic, Where: where + " check", Err: err}
			}
		}
	}
	for i, b := range doc.Buffs {
		where := fmt.Sprintf("buffs[%d] %q", i, b.Title)
		if b.Check != "" {
			if err := parseScoped(b.Check); err != nil {
				return doc, &Error{Pass: PassStatic, Where: where + " check", Err: err}
			}
		}
		for _, k := range sortedKeys(b.Data) {
			if err := parseScoped(b.Data[k]); err != nil {
				return doc, &Error{Pass: PassStatic, Where: where + " data." + k, Err: err}
			}
		}
	}
	return doc, nil
}

// Runtime compiles every entry point against the typed scope and invokes it
// with ctx. Detail rows must yield a Result, checks a bool and buff values a
// number.
func Runtime(doc script.Document, ctx Context) error {
	_, err := run(doc, ctx)
	return err
}

// Outcome is the evaluated value of one detail row.
type Outcome struct {
	Title  string
	Kind   string
	Active bool
	Result Result
}

// Evaluate runs a script against a real context and returns each row's value.
func Evaluate(src string, ctx Context) ([]Outcome, error) {
	doc, err := Static(src)
	if err != nil {
		return nil, err
	}
	return run(doc, ctx)
}

func run(doc script.Document, ctx Context) ([]Outcome, error) {
	out := make([]Outcome, 0, len(doc.Details))
	for i, d := range doc.Details {
		where := fmt.Sprintf("details[%d] %q", i, d.Title)
		scope := NewScope(ctx, d.Params)
		active := true
		if d.Check != "" {
			ok, err := evalBool(d.Check, scope)
			if err != nil {
				return nil, &Error{Pass: PassRuntime, Where: where + " check", Err: err}
			}
			active = ok
		}
		res, err := evalResult(d.Expr, scope)
		if err != nil {
			return nil, &Error{Pass: PassRuntime, Where: where, Err: err}
		}
		out = append(out, Outcome{Title: d.Title, Kind: d.Kind, Active: active, Result: res})
	}
	for i, b := range doc.Buffs {
		where := fmt.Sprintf("buffs[%d] %q", i, b.Title)
		scope := NewScope(ctx, nil)
		if b.Check != "" {
			if _, err := evalBool(b.Check, scope); err != nil {
				return nil, &Error{Pass: PassRuntime, Where: where + " check", Err: err}
			}
		}
		for _, k := range sortedKeys(b.Data) {
			if _, err := evalNumber(b.Data[k], scope); err != nil {
				return nil, &Error{Pass: PassRuntime, Where: where + " data." + k, Err: err}
			}
		}
	}
	return out, nil
}

// parseScoped parses src and rejects identifiers that are neither scope
// functions nor let-bound locals.
func parseScoped(src string) error {
	tree, err := parser.Parse(src)
	if err != nil {
		return err
	}
	locals := &localCollector{names: map[string]bool{}}
	ast.Walk(&tree.Node, locals)
	refs := &identCollector{}
	ast.Walk(&tree.Node, refs)
	for _, name := range refs.names {
		if _, ok := builtin.Index[name]; ok {
			continue
		}
		if !scopeNames[name] && !locals.names[name] {
			return fmt.Errorf("undefined name %q", name)
		}
	}
	return nil
}

type localCollector struct{ names map[string]bool }

func (c *localCollector) Visit(node *ast.Node) {
	if v, ok := (*node).(*ast.VariableDeclaratorNode); ok {
		c.names[v.Name] = true
	}
}

type identCollector struct{ names []string }

func (c *identCollector) Visit(node *ast.Node) {
	if id, ok := (*node).(*ast.IdentifierNode); ok {
		c.names = append(c.names, id.Value)
	}
}

func compile(src string, opts ...expr.Option) (*vm.Program, error) {
	opts = append([]expr.Option{expr.Env(Scope{})}, opts...)
	return expr.Compile(src, opts...)
}

func evalResult(src string, scope Scope) (Result, error) {
	prog, err := compile(src)
	if err != nil {
		return Result{}, err
	}
	v, err := vm.Run(prog, scope)
	if err != nil {
		return Result{}, err
	}
	res, ok := v.(Result)
	if !ok {
		return Result{}, fmt.Errorf("expression yields %T, want a Dmg/DmgBasic/Heal/Shield/Reaction result", v)
	}
	return res, nil
}

func evalBool(src string, scope Scope) (bool, error) {
	prog, err := compile(src, expr.AsBool())
	if err != nil {
		return false, err
	}
	v, err := vm.Run(prog, scope)
	if err != nil {
		return false, err
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("check yields %T, want bool", v)
	}
	return b, nil
}

func evalNumber(src string, scope Scope) (float64, error) {
	prog, err := compile(src)
	if err != nil {
		return 0, err
	}
	v, err := vm.Run(prog, scope)
	if err != nil {
		return 0, err
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	}
	return 0, fmt.Errorf("value yields %T, want a number", v)
}

// Expression kinds accepted by CheckExpr.
type ExprKind int

const (
	ExprResult ExprKind = iota
	ExprBool
	ExprNumber
)

// CheckExpr runs a single expression through both passes. The validator uses
// it to vet model-supplied expressions before they reach a plan.
func CheckExpr(src string, kind ExprKind, params map[string]float64) error {
	if err := parseScoped(src); err != nil {
		return &Error{Pass: PassStatic, Err: err}
	}
	scope := NewScope(Inert{}, params)
	var err error
	switch kind {
	case ExprBool:
		_, err = evalBool(src, scope)
	case ExprNumber:
		var v float64
		v, err = evalNumber(src, scope)
		if err == nil && math.IsInf(v, 0) {
			err = fmt.Errorf("value is infinite")
		}
	default:
		_, err = evalResult(src, scope)
	}
	if err != nil {
		return &Error{Pass: PassRuntime, Err: err}
	}
	return nil
}

// TableRef is a T/TAt reference with literal arguments.
type TableRef struct {
	Talent string
	Table  string
}

// TableRefs extracts every T/TAt call in src. ok is false when a call uses a
// non-literal talent or table, which makes the reference unverifiable.
func TableRefs(src string) (refs []TableRef, ok bool, err error) {
	tree, err := parser.Parse(src)
	if err != nil {
		return nil, false, err
	}
	c := &tableRefCollector{ok: true}
	ast.Walk(&tree.Node, c)
	return c.refs, c.ok, nil
}

type tableRefCollector struct {
	refs []TableRef
	ok   bool
}

func (c *tableRefCollector) Visit(node *ast.Node) {
	call, ok := (*node).(*ast.CallNode)
	if !ok {
		return
	}
	id, ok := call.Callee.(*ast.IdentifierNode)
	if !ok || (id.Value != "T" && id.Value != "TAt") {
		return
	}
	if len(call.Arguments) < 2 {
		c.ok = false
		return
	}
	talent, ok1 := call.Arguments[0].(*ast.StringNode)
	table, ok2 := call.Arguments[1].(*ast.StringNode)
	if !ok1 || !ok2 {
		c.ok = false
		return
	}
	c.refs = append(c.refs, TableRef{Talent: talent.Value, Table: table.Value})
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
