package ast

import (
	"bytes"
	"strconv"
	"strings"
)

// The base Node interface. Nodes are immutable once the parser has built them; the
// same node may be evaluated any number of times against different contexts.
type Node interface {
	// Pos is the byte offset of the node's first token in the source.
	Pos() int
	String() string
	node()
}

type NumberLiteral struct {
	Position int
	Value    any // int64 or float64
}

func (n *NumberLiteral) node()    {}
func (n *NumberLiteral) Pos() int { return n.Position }
func (n *NumberLiteral) String() string {
	switch v := n.Value.(type) {
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
	return "?"
}

type StringLiteral struct {
	Position int
	Value    string
}

func (s *StringLiteral) node()          {}
func (s *StringLiteral) Pos() int       { return s.Position }
func (s *StringLiteral) String() string { return strconv.Quote(s.Value) }

type Symbol struct {
	Position int
	Name     string
}

func (s *Symbol) node()          {}
func (s *Symbol) Pos() int       { return s.Position }
func (s *Symbol) String() string { return s.Name }

// ListValue is an application: Head is interpreted as an operator over the
// unevaluated Rest nodes.
type ListValue struct {
	Position int
	Head     Node
	Rest     []Node
}

func (l *ListValue) node()    {}
func (l *ListValue) Pos() int { return l.Position }
func (l *ListValue) String() string {
	var out bytes.Buffer
	out.WriteString(l.Head.String())
	out.WriteString("(")
	out.WriteString(joinNodes(l.Rest, ", "))
	out.WriteString(")")
	return out.String()
}

type ArrayValue struct {
	Position int
	Items    []Node
}

func (a *ArrayValue) node()          {}
func (a *ArrayValue) Pos() int       { return a.Position }
func (a *ArrayValue) String() string { return "[" + joinNodes(a.Items, ", ") + "]" }

type TupleValue struct {
	Position int
	Items    []Node
}

func (t *TupleValue) node()          {}
func (t *TupleValue) Pos() int       { return t.Position }
func (t *TupleValue) String() string { return "(" + joinNodes(t.Items, ", ") + ")" }

// Statements is a sequential block; a parsed program is a Statements node too.
type Statements struct {
	Position int
	Items    []Node
}

func (s *Statements) node()          {}
func (s *Statements) Pos() int       { return s.Position }
func (s *Statements) String() string { return "{" + joinNodes(s.Items, "; ") + "}" }

func joinNodes(nodes []Node, sep string) string {
	parts := make([]string, len(nodes))
	for i, n := range nodes {
		parts[i] = n.String()
	}
	return strings.Join(parts, sep)
}

// Apply builds the application of the named built-in over args.
func Apply(pos int, name string, args ...Node) *ListValue {
	return &ListValue{
		Position: pos,
		Head:     &Symbol{Position: pos, Name: name},
		Rest:     args,
	}
}

// IsApplicationOf reports whether n applies the symbol name, e.g. a `_dot` member access.
func IsApplicationOf(n Node, name string) (*ListValue, bool) {
	lv, ok := n.(*ListValue)
	if !ok {
		return nil, false
	}
	head, ok := lv.Head.(*Symbol)
	if !ok || head.Name != name {
		return nil, false
	}
	return lv, true
}
