package object

import (
	"bytes"
	"fmt"
	"plastic/internal/ast"
	"strconv"
	"strings"
)

type ValueType string

const (
	NIL_OBJ      = "NIL"
	BOOLEAN_OBJ  = "BOOLEAN"
	INTEGER_OBJ  = "INTEGER"
	FLOAT_OBJ    = "FLOAT"
	STRING_OBJ   = "STRING"
	ARRAY_OBJ    = "ARRAY"
	TUPLE_OBJ    = "TUPLE"
	MACRO_OBJ    = "MACRO"
	INSTANCE_OBJ = "OBJECT"
	THUNK_OBJ    = "THUNK"
	NATIVE_OBJ   = "NATIVE"

	NOT_TAKEN_OBJ = "NOT_TAKEN"
	VOID_OBJ      = "VOID"
)

var (
	NIL   = &Nil{}
	TRUE  = &Boolean{Value: true}
	FALSE = &Boolean{Value: false}

	// NOT_TAKEN is the result of a conditional or loop whose body never ran.
	NOT_TAKEN = &Sentinel{Kind: NOT_TAKEN_OBJ}
	// VOID is the result of an empty block.
	VOID = &Sentinel{Kind: VOID_OBJ}
)

type Value interface {
	Type() ValueType
	Inspect() string
}

func NativeBool(b bool) *Boolean {
	if b {
		return TRUE
	}
	return FALSE
}

type Integer struct {
	Value int64
}

func (i *Integer) Type() ValueType { return INTEGER_OBJ }
func (i *Integer) Inspect() string { return strconv.FormatInt(i.Value, 10) }

type Float struct {
	Value float64
}

func (f *Float) Type() ValueType { return FLOAT_OBJ }
func (f *Float) Inspect() string { return strconv.FormatFloat(f.Value, 'f', -1, 64) }

type String struct {
	Value string
}

func (s *String) Type() ValueType { return STRING_OBJ }
func (s *String) Inspect() string { return s.Value }

type Boolean struct {
	Value bool
}

func (b *Boolean) Type() ValueType { return BOOLEAN_OBJ }
func (b *Boolean) Inspect() string { return strconv.FormatBool(b.Value) }

type Nil struct{}

func (n *Nil) Type() ValueType { return NIL_OBJ }
func (n *Nil) Inspect() string { return "null" }

type Sentinel struct {
	Kind ValueType
}

func (s *Sentinel) Type() ValueType { return s.Kind }
func (s *Sentinel) Inspect() string { return "<" + strings.ToLower(string(s.Kind)) + ">" }

// Array elements are mutable slots.
type Array struct {
	Elements []Value
}

func (a *Array) Type() ValueType { return ARRAY_OBJ }
func (a *Array) Inspect() string { return "[" + inspectElements(a.Elements) + "]" }

type Tuple struct {
	Elements []Value
}

func (t *Tuple) Type() ValueType { return TUPLE_OBJ }
func (t *Tuple) Inspect() string { return "(" + inspectElements(t.Elements) + ")" }

func inspectElements(elements []Value) string {
	var out bytes.Buffer
	for i, e := range elements {
		if i > 0 {
			out.WriteString(", ")
		}
		if s, ok := e.(*String); ok {
			out.WriteString(strconv.Quote(s.Value))
			continue
		}
		out.WriteString(e.Inspect())
	}
	return out.String()
}

// MacroFunc receives its arguments unevaluated together with the calling context.
type MacroFunc func(ctx Context, args []ast.Node) (Value, error)

type Macro struct {
	Name string
	Fn   MacroFunc
}

func (m *Macro) Type() ValueType { return MACRO_OBJ }
func (m *Macro) Inspect() string {
	if m.Name == "" {
		return "<macro>"
	}
	return "<macro " + m.Name + ">"
}

// Instance is an object handle; its members live in Scope.
type Instance struct {
	Scope *Environment
}

func (o *Instance) Type() ValueType { return INSTANCE_OBJ }
func (o *Instance) Inspect() string {
	names := o.Scope.Names()
	var out bytes.Buffer
	out.WriteString("object{")
	n := 0
	for _, name := range names {
		if name == "this" {
			continue
		}
		if n > 0 {
			out.WriteString(", ")
		}
		out.WriteString(name)
		n++
	}
	out.WriteString("}")
	return out.String()
}

// Thunk is an argument expression paired with the context it must be evaluated in.
// Forcing is not memoised; every force evaluates the node again.
type Thunk struct {
	Node    ast.Node
	Context Context
}

func (t *Thunk) Type() ValueType { return THUNK_OBJ }
func (t *Thunk) Inspect() string { return "@" + t.Node.String() }

func (t *Thunk) Force() (Value, error) {
	return t.Context.Interpreter().Eval(t.Node, t.Context)
}

// NativeMethod is one overload of a host member; it receives evaluated arguments.
type NativeMethod func(args []Value) (Value, error)

// Native is an opaque host value. A method name may carry several candidates which
// are tried in order until one accepts the arguments.
type Native struct {
	TypeName   string
	Value      any
	Methods    map[string][]NativeMethod
	Properties map[string]Value
}

func (n *Native) Type() ValueType { return NATIVE_OBJ }
func (n *Native) Inspect() string {
	if s, ok := n.Value.(fmt.Stringer); ok {
		return s.String()
	}
	return "<" + n.TypeName + ">"
}

func (n *Native) HasMember(name string) bool {
	if _, ok := n.Properties[name]; ok {
		return true
	}
	_, ok := n.Methods[name]
	return ok
}

// Host wraps plain values so their members can be reached, e.g. `'abc'.Length`.
type Host interface {
	Wrap(v Value) (*Native, bool)
}

// Truthy reports whether v is TRUE; conditions must be booleans.
func Truthy(v Value) (bool, bool) {
	b, ok := v.(*Boolean)
	if !ok {
		return false, false
	}
	return b.Value, true
}
