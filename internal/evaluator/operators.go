package evaluator

import (
	"math"
	"plastic/internal/ast"
	"plastic/internal/object"
	"strings"
)

type binaryFn func(l, r object.Value) (object.Value, error)

type unaryFn func(v object.Value) (object.Value, error)

// binary evaluates both operands left to right before applying fn.
func (in *Interpreter) binary(name string, fn binaryFn) object.MacroFunc {
	return func(ctx object.Context, args []ast.Node) (object.Value, error) {
		if err := arity(name, args, 2); err != nil {
			return nil, err
		}
		l, err := in.Eval(args[0], ctx)
		if err != nil {
			return nil, err
		}
		r, err := in.Eval(args[1], ctx)
		if err != nil {
			return nil, err
		}
		return fn(l, r)
	}
}

func (in *Interpreter) unary(name string, fn unaryFn) object.MacroFunc {
	return func(ctx object.Context, args []ast.Node) (object.Value, error) {
		if err := arity(name, args, 1); err != nil {
			return nil, err
		}
		v, err := in.Eval(args[0], ctx)
		if err != nil {
			return nil, err
		}
		return fn(v)
	}
}

// logical short-circuits: the right operand is skipped once the left equals stop.
func (in *Interpreter) logical(name string, stop bool) object.MacroFunc {
	return func(ctx object.Context, args []ast.Node) (object.Value, error) {
		if err := arity(name, args, 2); err != nil {
			return nil, err
		}
		l, err := in.condition(name, args[0], ctx)
		if err != nil {
			return nil, err
		}
		if l == stop {
			return object.NativeBool(l), nil
		}
		r, err := in.condition(name, args[1], ctx)
		if err != nil {
			return nil, err
		}
		return object.NativeBool(r), nil
	}
}

// dot evaluates the right node in the member context of the left value.
func (in *Interpreter) dot(ctx object.Context, args []ast.Node) (object.Value, error) {
	if err := arity("_dot", args, 2); err != nil {
		return nil, err
	}
	target, err := in.Eval(args[0], ctx)
	if err != nil {
		return nil, err
	}
	members := object.MemberContext(target, ctx)
	if members == nil {
		return nil, object.Mismatch("member access ."+args[1].String(), target)
	}
	return in.Eval(args[1], members)
}

// numbers widens a pair of numeric operands. isFloat reports whether either was a float.
func numbers(l, r object.Value) (li, ri int64, lf, rf float64, isFloat, ok bool) {
	switch lv := l.(type) {
	case *object.Integer:
		li, lf = lv.Value, float64(lv.Value)
	case *object.Float:
		lf, isFloat = lv.Value, true
	default:
		return
	}
	switch rv := r.(type) {
	case *object.Integer:
		ri, rf = rv.Value, float64(rv.Value)
	case *object.Float:
		rf, isFloat = rv.Value, true
	default:
		return
	}
	ok = true
	return
}

func add(l, r object.Value) (object.Value, error) {
	_, ls := l.(*object.String)
	_, rs := r.(*object.String)
	if ls || rs {
		return &object.String{Value: l.Inspect() + r.Inspect()}, nil
	}
	return arithmetic("_add", func(a, b int64) int64 { return a + b }, func(a, b float64) float64 { return a + b })(l, r)
}

func arithmetic(op string, ints func(a, b int64) int64, floats func(a, b float64) float64) binaryFn {
	return func(l, r object.Value) (object.Value, error) {
		li, ri, lf, rf, isFloat, ok := numbers(l, r)
		if !ok {
			return nil, object.Mismatch(op, l, r)
		}
		if isFloat {
			return &object.Float{Value: floats(lf, rf)}, nil
		}
		return &object.Integer{Value: ints(li, ri)}, nil
	}
}

func divide(l, r object.Value) (object.Value, error) {
	li, ri, lf, rf, isFloat, ok := numbers(l, r)
	if !ok {
		return nil, object.Mismatch("_div", l, r)
	}
	if isFloat {
		return &object.Float{Value: lf / rf}, nil
	}
	if ri == 0 {
		return nil, &object.DivisionByZeroError{Op: "_div"}
	}
	return &object.Integer{Value: li / ri}, nil
}

func modulo(l, r object.Value) (object.Value, error) {
	li, ri, lf, rf, isFloat, ok := numbers(l, r)
	if !ok {
		return nil, object.Mismatch("_mod", l, r)
	}
	if isFloat {
		return &object.Float{Value: math.Mod(lf, rf)}, nil
	}
	if ri == 0 {
		return nil, &object.DivisionByZeroError{Op: "_mod"}
	}
	return &object.Integer{Value: li % ri}, nil
}

func negate(v object.Value) (object.Value, error) {
	switch v := v.(type) {
	case *object.Integer:
		return &object.Integer{Value: -v.Value}, nil
	case *object.Float:
		return &object.Float{Value: -v.Value}, nil
	}
	return nil, object.Mismatch("_neg", v)
}

func not(v object.Value) (object.Value, error) {
	b, ok := object.Truthy(v)
	if !ok {
		return nil, object.Mismatch("_not", v)
	}
	return object.NativeBool(!b), nil
}

// equal compares primitives of the same type by value and everything else by identity.
func equal(l, r object.Value) bool {
	switch lv := l.(type) {
	case *object.Integer:
		rv, ok := r.(*object.Integer)
		return ok && lv.Value == rv.Value
	case *object.Float:
		rv, ok := r.(*object.Float)
		return ok && lv.Value == rv.Value
	case *object.String:
		rv, ok := r.(*object.String)
		return ok && lv.Value == rv.Value
	case *object.Boolean:
		rv, ok := r.(*object.Boolean)
		return ok && lv.Value == rv.Value
	case *object.Nil:
		_, ok := r.(*object.Nil)
		return ok
	}
	return l == r
}

func compare(op string, test func(int) bool) binaryFn {
	return func(l, r object.Value) (object.Value, error) {
		if ls, ok := l.(*object.String); ok {
			rs, ok := r.(*object.String)
			if !ok {
				return nil, object.Mismatch(op, l, r)
			}
			return object.NativeBool(test(strings.Compare(ls.Value, rs.Value))), nil
		}
		li, ri, lf, rf, isFloat, ok := numbers(l, r)
		if !ok {
			return nil, object.Mismatch(op, l, r)
		}
		c := 0
		if isFloat {
			switch {
			case lf < rf:
				c = -1
			case lf > rf:
				c = 1
			}
		} else {
			switch {
			case li < ri:
				c = -1
			case li > ri:
				c = 1
			}
		}
		return object.NativeBool(test(c)), nil
	}
}
