package object

import (
	"plastic/internal/ast"
	"sort"
	"sync/atomic"
)

var nextID atomic.Uint64

func nextEnvID() uint64 {
	return nextID.Add(1)
}

// Environment is a lexical frame. Lookups walk outwards through Outer.
type Environment struct {
	ID       uint64
	Bindings map[string]Value
	Outer    Context

	chain  Value
	interp Interpreter
	sealed bool
}

// NewEnvironment creates a root frame evaluated by interp.
func NewEnvironment(interp Interpreter) *Environment {
	return &Environment{
		ID:       nextEnvID(),
		Bindings: make(map[string]Value),
		chain:    NIL,
		interp:   interp,
	}
}

// NewEnclosedEnvironment creates a child frame of outer.
func NewEnclosedEnvironment(outer Context) *Environment {
	env := NewEnvironment(outer.Interpreter())
	env.Outer = outer
	return env
}

func (e *Environment) GetLocal(name string) (Value, bool) {
	v, ok := e.Bindings[name]
	return v, ok
}

func (e *Environment) Get(name string) (Value, error) {
	if v, ok := e.Bindings[name]; ok {
		return v, nil
	}
	if e.Outer != nil {
		return e.Outer.Get(name)
	}
	return nil, &UnboundNameError{Name: name}
}

// Seal stops Set from rewriting this frame's bindings. Declare is unaffected.
func (e *Environment) Seal() { e.sealed = true }

func (e *Environment) Sealed() bool { return e.sealed }

// Set overwrites the nearest binding of name. A binding held by a sealed frame
// counts as absent.
func (e *Environment) Set(name string, val Value) error {
	if _, ok := e.Bindings[name]; ok {
		if e.sealed {
			return &UnboundNameError{Name: name}
		}
		e.Bindings[name] = val
		return nil
	}
	if e.Outer != nil {
		return e.Outer.Set(name, val)
	}
	return &UnboundNameError{Name: name}
}

func (e *Environment) Has(name string) bool {
	if _, ok := e.Bindings[name]; ok {
		return true
	}
	return e.Outer != nil && e.Outer.Has(name)
}

func (e *Environment) Declare(name string, val Value) {
	e.Bindings[name] = val
}

func (e *Environment) Invoke(head ast.Node, args []ast.Node) (Value, error) {
	callee, err := e.Interpreter().Eval(head, e)
	if err != nil {
		return nil, err
	}
	return Apply(e, callee, args, head.String())
}

func (e *Environment) Number(lit *ast.NumberLiteral) (Value, error) {
	return Literal(lit)
}

func (e *Environment) Quoted(lit *ast.StringLiteral) (Value, error) {
	return &String{Value: lit.Value}, nil
}

func (e *Environment) ChainResult() Value { return e.chain }

func (e *Environment) SetChainResult(val Value) { e.chain = val }

func (e *Environment) Interpreter() Interpreter {
	if e.interp == nil && e.Outer != nil {
		return e.Outer.Interpreter()
	}
	return e.interp
}

// Names lists the local bindings in sorted order.
func (e *Environment) Names() []string {
	names := make([]string, 0, len(e.Bindings))
	for name := range e.Bindings {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
