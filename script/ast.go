package script

import (
	"strconv"
	"strings"
)

// Node is an expression in the calculation mini-language. Printing a node
// always yields expr-lang source that parses back to the same tree.
type Node interface {
	write(b *strings.Builder)
}

// Num is a numeric literal.
type Num float64

// Str is a string literal.
type Str string

// Call invokes a module-scope function.
type Call struct {
	Fn   string
	Args []Node
}

// Binary is an infix arithmetic or comparison operation.
type Binary struct {
	Op          string
	Left, Right Node
}

// Cond is a ternary.
type Cond struct {
	If, Then, Else Node
}

// Raw is source that is emitted verbatim, already validated upstream.
type Raw string

func (n Num) write(b *strings.Builder) {
	v := float64(n)
	if v < 0 {
		b.WriteByte('(')
		b.WriteString(strconv.FormatFloat(v, 'f', -1, 64))
		b.WriteByte(')')
		return
	}
	b.WriteString(strconv.FormatFloat(v, 'f', -1, 64))
}

func (s Str) write(b *strings.Builder) { b.WriteString(strconv.Quote(string(s))) }

func (c Call) write(b *strings.Builder) {
	b.WriteString(c.Fn)
	b.WriteByte('(')
	for i, a := range c.Args {
		if i > 0 {
			b.WriteString(", ")
		}
		a.write(b)
	}
	b.WriteByte(')')
}

// Binary operands are always parenthesized when they are themselves binary,
// so printing never depends on precedence tables.
func (e Binary) write(b *strings.Builder) {
	writeOperand(b, e.Left)
	b.WriteByte(' ')
	b.WriteString(e.Op)
	b.WriteByte(' ')
	writeOperand(b, e.Right)
}

func writeOperand(b *strings.Builder, n Node) {
	switch n.(type) {
	case Binary, Cond, Raw:
		b.WriteByte('(')
		n.write(b)
		b.WriteByte(')')
	default:
		n.write(b)
	}
}

func (c Cond) write(b *strings.Builder) {
	writeOperand(b, c.If)
	b.WriteString(" ? ")
	writeOperand(b, c.Then)
	b.WriteString(" : ")
	writeOperand(b, c.Else)
}

func (r Raw) write(b *strings.Builder) { b.WriteString(strings.TrimSpace(string(r))) }

// Print renders a node as source text.
func Print(n Node) string {
	var b strings.Builder
	n.write(&b)
	return b.String()
}

// Constructors for the fixed helper forms.

func T(talent, table string) Node { return Call{Fn: "T", Args: []Node{Str(talent), Str(table)}} }

func TAt(talent, table string, idx int) Node {
	return Call{Fn: "TAt", Args: []Node{Str(talent), Str(table), Num(idx)}}
}

func Attr(name string) Node { return Call{Fn: "Attr", Args: []Node{Str(name)}} }

func Dmg(pct Node, key, ele string) Node {
	return Call{Fn: "Dmg", Args: []Node{pct, Str(key), Str(ele)}}
}

func DmgBasic(base Node, key, ele string) Node {
	return Call{Fn: "DmgBasic", Args: []Node{base, Str(key), Str(ele)}}
}

func Heal(n Node) Node   { return Call{Fn: "Heal", Args: []Node{n}} }
func Shield(n Node) Node { return Call{Fn: "Shield", Args: []Node{n}} }

func Reaction(id string) Node { return Call{Fn: "Reaction", Args: []Node{Str(id)}} }

func Add(l, r Node) Node { return Binary{Op: "+", Left: l, Right: r} }
func Mul(l, r Node) Node { return Binary{Op: "*", Left: l, Right: r} }
func Div(l, r Node) Node { return Binary{Op: "/", Left: l, Right: r} }

// Sum folds nodes left to right with "+".
func Sum(nodes ...Node) Node {
	if len(nodes) == 0 {
		return Num(0)
	}
	acc := nodes[0]
	for _, n := range nodes[1:] {
		acc = Add(acc, n)
	}
	return acc
}
