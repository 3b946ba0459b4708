package object

import (
	"plastic/internal/ast"
)

// Interpreter evaluates a node against a context. The root Environment carries one
// and every derived context reaches it through its parent.
type Interpreter interface {
	Eval(node ast.Node, ctx Context) (Value, error)
	Host() Host
}

// Context is the resolver every evaluation runs against. Lexical scopes, sequences,
// instances and host values each interpret names and literals their own way.
type Context interface {
	Get(name string) (Value, error)
	Set(name string, val Value) error
	Has(name string) bool
	Declare(name string, val Value)

	Invoke(head ast.Node, args []ast.Node) (Value, error)

	Number(lit *ast.NumberLiteral) (Value, error)
	Quoted(lit *ast.StringLiteral) (Value, error)

	ChainResult() Value
	SetChainResult(val Value)

	Interpreter() Interpreter
}

// Literal is the plain reading of a number literal.
func Literal(lit *ast.NumberLiteral) (Value, error) {
	switch v := lit.Value.(type) {
	case int64:
		return &Integer{Value: v}, nil
	case float64:
		return &Float{Value: v}, nil
	}
	return nil, &TypeMismatchError{Op: "number literal " + lit.String()}
}

// Apply calls callee with unevaluated args on behalf of ctx.
//
// Sequences, instances and native values are redirected: the first argument is
// resolved in the member context of the value, so `arr(0)` and `obj('name')` read a
// member. Any remaining arguments are applied to that member.
func Apply(ctx Context, callee Value, args []ast.Node, expr string) (Value, error) {
	switch fn := callee.(type) {
	case *Macro:
		return fn.Fn(ctx, args)
	case *Thunk:
		v, err := fn.Force()
		if err != nil || len(args) == 0 {
			return v, err
		}
		return Apply(ctx, v, args, expr)
	}

	var member Context
	switch callee.(type) {
	case *Array, *Tuple, *Instance, *Native:
		member = MemberContext(callee, ctx)
	}
	if member == nil || len(args) == 0 {
		return nil, &NotCallableError{Type: callee.Type(), Expr: expr}
	}
	if len(args) > 1 {
		if n, ok := member.(*HostContext); ok {
			return n.Invoke(args[0], args[1:])
		}
	}
	v, err := ctx.Interpreter().Eval(args[0], member)
	if err != nil || len(args) == 1 {
		return v, err
	}
	return Apply(ctx, v, args[1:], expr)
}

// MemberContext returns the context that resolves members of v, or nil when v has
// none. Plain values such as strings are offered to the interpreter's host.
func MemberContext(v Value, outer Context) Context {
	switch val := v.(type) {
	case *Array:
		return NewArrayContext(val, outer)
	case *Tuple:
		return NewTupleContext(val, outer)
	case *Instance:
		return NewObjectContext(val, outer)
	case *Native:
		return NewHostContext(val, outer)
	}
	if host := outer.Interpreter().Host(); host != nil {
		if n, ok := host.Wrap(v); ok {
			return NewHostContext(n, outer)
		}
	}
	return nil
}
