package evaluator

import (
	"errors"
	"plastic/internal/ast"
	"plastic/internal/object"
	"plastic/internal/util"
)

// assign implements both `:=` and `=`. The right side is evaluated first. A tuple
// pattern on the left yields TRUE or FALSE instead of failing.
func (in *Interpreter) assign(ctx object.Context, args []ast.Node) (object.Value, error) {
	if err := arity("assign", args, 2); err != nil {
		return nil, err
	}
	v, err := in.Eval(args[1], ctx)
	if err != nil {
		return nil, err
	}

	switch left := args[0].(type) {
	case *ast.Symbol:
		if err := in.bind(ctx, left.Name, v); err != nil {
			return nil, err
		}
		return v, nil

	case *ast.TupleValue:
		ok, err := in.match(ctx, left, v)
		if err != nil {
			return nil, err
		}
		return object.NativeBool(ok), nil

	case *ast.ListValue:
		if dot, ok := ast.IsApplicationOf(left, "_dot"); ok && len(dot.Rest) == 2 {
			if err := in.assignMember(ctx, dot.Rest[0], dot.Rest[1], v); err != nil {
				return nil, err
			}
			return v, nil
		}
	}
	return nil, &object.TypeMismatchError{Op: "assignment to " + args[0].String()}
}

// bind writes name according to the interpreter's assign policy. Under declare a
// name with no writable binding, including one only the sealed root holds, is
// declared in ctx.
func (in *Interpreter) bind(ctx object.Context, name string, v object.Value) error {
	err := ctx.Set(name, v)
	var unbound *object.UnboundNameError
	if err == nil || in.policy == util.AssignStrict || !errors.As(err, &unbound) || unbound.Name != name {
		return err
	}
	ctx.Declare(name, v)
	return nil
}

func (in *Interpreter) assignMember(ctx object.Context, targetNode, memberNode ast.Node, v object.Value) error {
	target, err := in.Eval(targetNode, ctx)
	if err != nil {
		return err
	}
	switch members := object.MemberContext(target, ctx).(type) {
	case *object.ArrayContext:
		// mirrors reads: a literal indexes, a name goes through the array's Set
		if lit, ok := memberNode.(*ast.NumberLiteral); ok {
			i, ok := lit.Value.(int64)
			if !ok {
				return &object.TypeMismatchError{Op: "index " + lit.String(), Types: []object.ValueType{object.FLOAT_OBJ}}
			}
			return members.SetIndex(i, v)
		}
		name, err := memberName(memberNode)
		if err != nil {
			return err
		}
		return members.Set(name, v)
	case *object.ObjectContext:
		name, err := memberName(memberNode)
		if err != nil {
			return err
		}
		return members.Set(name, v)
	case *object.HostContext:
		name, err := memberName(memberNode)
		if err != nil {
			return err
		}
		return members.Set(name, v)
	}
	return object.Mismatch("member write ."+memberNode.String(), target)
}

func memberName(n ast.Node) (string, error) {
	switch n := n.(type) {
	case *ast.Symbol:
		return n.Name, nil
	case *ast.StringLiteral:
		return n.Value, nil
	}
	return "", &object.TypeMismatchError{Op: "member name " + n.String()}
}

// match destructures v against pattern. Bindings made before a mismatch are kept.
func (in *Interpreter) match(ctx object.Context, pattern *ast.TupleValue, v object.Value) (bool, error) {
	tup, ok := v.(*object.Tuple)
	if !ok || len(tup.Elements) != len(pattern.Items) {
		return false, nil
	}
	for i, item := range pattern.Items {
		element := tup.Elements[i]
		switch p := item.(type) {
		case *ast.Symbol:
			if err := in.bind(ctx, p.Name, element); err != nil {
				return false, err
			}
		case *ast.TupleValue:
			ok, err := in.match(ctx, p, element)
			if err != nil || !ok {
				return false, err
			}
		default:
			want, err := in.Eval(p, ctx)
			if err != nil {
				return false, err
			}
			if !equal(want, element) {
				return false, nil
			}
		}
	}
	return true, nil
}
