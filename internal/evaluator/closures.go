package evaluator

import (
	"log/slog"
	"plastic/internal/ast"
	"plastic/internal/object"
	"slices"
	"strings"
)

const byExpressionPrefix = "@"

type parameter struct {
	name   string
	byExpr bool
}

func parameters(callee string, nodes []ast.Node) ([]parameter, error) {
	params := make([]parameter, 0, len(nodes))
	for _, n := range nodes {
		s, ok := n.(*ast.Symbol)
		if !ok {
			return nil, &object.TypeMismatchError{Op: callee + " parameter " + n.String()}
		}
		if name, ok := strings.CutPrefix(s.Name, byExpressionPrefix); ok {
			params = append(params, parameter{name: name, byExpr: true})
			continue
		}
		params = append(params, parameter{name: s.Name})
	}
	return params, nil
}

func thunks(args []ast.Node, ctx object.Context) []*object.Thunk {
	out := make([]*object.Thunk, len(args))
	for i, arg := range args {
		out[i] = &object.Thunk{Node: arg, Context: ctx}
	}
	return out
}

// function builds a closure over the defining context: func(a, @b, body).
func (in *Interpreter) function(ctx object.Context, args []ast.Node) (object.Value, error) {
	if len(args) == 0 {
		return nil, &object.ArityError{Callee: "func", Want: 1, Got: 0}
	}
	params, err := parameters("func", args[:len(args)-1])
	if err != nil {
		return nil, err
	}
	in.log.Debug("closure created", slog.Int("params", len(params)))
	return in.closure(params, args[len(args)-1], ctx, nil), nil
}

// closure applies once enough arguments have arrived; until then each call returns
// a new closure holding the arguments seen so far.
func (in *Interpreter) closure(params []parameter, body ast.Node, defining object.Context, bound []*object.Thunk) *object.Macro {
	return &object.Macro{
		Name: "func",
		Fn: func(caller object.Context, args []ast.Node) (object.Value, error) {
			supplied := append(slices.Clone(bound), thunks(args, caller)...)
			if len(supplied) < len(params) {
				return in.closure(params, body, defining, supplied), nil
			}

			scope := object.NewEnclosedEnvironment(defining)
			all := make([]object.Value, 0, len(supplied))
			for i, t := range supplied {
				if i < len(params) && params[i].byExpr {
					scope.Declare(params[i].name, t)
					all = append(all, t)
					continue
				}
				v, err := t.Force()
				if err != nil {
					return nil, err
				}
				if i < len(params) {
					scope.Declare(params[i].name, v)
				}
				all = append(all, v)
			}
			scope.Declare("args", &object.Array{Elements: all})
			return in.Eval(body, scope)
		},
	}
}

// class builds a constructor. Each call makes an instance around a fresh scope
// below the defining context and runs the body there.
func (in *Interpreter) class(ctx object.Context, args []ast.Node) (object.Value, error) {
	if len(args) == 0 {
		return nil, &object.ArityError{Callee: "class", Want: 1, Got: 0}
	}
	params, err := parameters("class", args[:len(args)-1])
	if err != nil {
		return nil, err
	}
	body := args[len(args)-1]
	in.log.Debug("class created", slog.Int("params", len(params)))

	return &object.Macro{
		Name: "class",
		Fn: func(caller object.Context, args []ast.Node) (object.Value, error) {
			if len(args) < len(params) {
				return nil, &object.ArityError{Callee: "class", Want: len(params), Got: len(args)}
			}
			scope := object.NewEnclosedEnvironment(ctx)
			for i, p := range params {
				v, err := in.Eval(args[i], caller)
				if err != nil {
					return nil, err
				}
				scope.Declare(p.name, v)
			}
			self := &object.Instance{Scope: scope}
			scope.Declare("this", self)
			if _, err := in.Eval(body, scope); err != nil {
				return nil, err
			}
			return self, nil
		},
	}, nil
}

// mixin splices its parameters and body into the caller's own context.
func (in *Interpreter) mixin(ctx object.Context, args []ast.Node) (object.Value, error) {
	if len(args) == 0 {
		return nil, &object.ArityError{Callee: "mixin", Want: 1, Got: 0}
	}
	params, err := parameters("mixin", args[:len(args)-1])
	if err != nil {
		return nil, err
	}
	body := args[len(args)-1]

	return &object.Macro{
		Name: "mixin",
		Fn: func(caller object.Context, args []ast.Node) (object.Value, error) {
			if len(args) < len(params) {
				return nil, &object.ArityError{Callee: "mixin", Want: len(params), Got: len(args)}
			}
			vals := make([]object.Value, len(params))
			for i := range params {
				v, err := in.Eval(args[i], caller)
				if err != nil {
					return nil, err
				}
				vals[i] = v
			}
			for i, p := range params {
				caller.Declare(p.name, vals[i])
			}
			if _, err := in.Eval(body, caller); err != nil {
				return nil, err
			}
			return object.NIL, nil
		},
	}, nil
}
