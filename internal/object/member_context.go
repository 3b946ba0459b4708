package object

import (
	"errors"
	"fmt"
	"plastic/internal/ast"
	"strconv"
)

const LengthMember = "Length"

// ArrayContext resolves indexes and Length against a sequence and hands every
// other name to its parent.
type ArrayContext struct {
	Elements []Value
	ReadOnly bool
	Outer    Context
}

func NewArrayContext(arr *Array, outer Context) *ArrayContext {
	return &ArrayContext{Elements: arr.Elements, Outer: outer}
}

func NewTupleContext(tup *Tuple, outer Context) *ArrayContext {
	return &ArrayContext{Elements: tup.Elements, ReadOnly: true, Outer: outer}
}

func sequenceIndex(name string) (int64, bool) {
	if name == "" {
		return 0, false
	}
	for _, ch := range name {
		if ch < '0' || ch > '9' {
			return 0, false
		}
	}
	i, err := strconv.ParseInt(name, 10, 64)
	return i, err == nil
}

func (a *ArrayContext) element(i int64) (Value, error) {
	if i < 0 || i >= int64(len(a.Elements)) {
		return nil, &IndexError{Index: i, Length: len(a.Elements)}
	}
	return a.Elements[i], nil
}

func (a *ArrayContext) Get(name string) (Value, error) {
	if name == LengthMember {
		return &Integer{Value: int64(len(a.Elements))}, nil
	}
	if i, ok := sequenceIndex(name); ok {
		return a.element(i)
	}
	return a.Outer.Get(name)
}

func (a *ArrayContext) Set(name string, val Value) error {
	i, ok := sequenceIndex(name)
	if !ok {
		if name == LengthMember {
			return &TypeMismatchError{Op: "write to " + LengthMember}
		}
		return a.Outer.Set(name, val)
	}
	return a.SetIndex(i, val)
}

// SetIndex writes one element slot. Tuples refuse.
func (a *ArrayContext) SetIndex(i int64, val Value) error {
	if a.ReadOnly {
		return &TypeMismatchError{Op: "element write", Types: []ValueType{TUPLE_OBJ}}
	}
	if i < 0 || i >= int64(len(a.Elements)) {
		return &IndexError{Index: i, Length: len(a.Elements)}
	}
	a.Elements[i] = val
	return nil
}

func (a *ArrayContext) Has(name string) bool {
	if name == LengthMember {
		return true
	}
	if i, ok := sequenceIndex(name); ok {
		return i < int64(len(a.Elements))
	}
	return a.Outer.Has(name)
}

func (a *ArrayContext) Declare(name string, val Value) { a.Outer.Declare(name, val) }

func (a *ArrayContext) Invoke(head ast.Node, args []ast.Node) (Value, error) {
	callee, err := a.Interpreter().Eval(head, a)
	if err != nil {
		return nil, err
	}
	return Apply(a.Outer, callee, args, head.String())
}

func (a *ArrayContext) Number(lit *ast.NumberLiteral) (Value, error) {
	i, ok := lit.Value.(int64)
	if !ok {
		return nil, &TypeMismatchError{Op: "index " + lit.String(), Types: []ValueType{FLOAT_OBJ}}
	}
	return a.element(i)
}

func (a *ArrayContext) Quoted(lit *ast.StringLiteral) (Value, error) { return a.Get(lit.Value) }

func (a *ArrayContext) ChainResult() Value       { return a.Outer.ChainResult() }
func (a *ArrayContext) SetChainResult(val Value) { a.Outer.SetChainResult(val) }
func (a *ArrayContext) Interpreter() Interpreter { return a.Outer.Interpreter() }

// ObjectContext resolves names against an instance's own frame only.
type ObjectContext struct {
	Instance *Instance
	Outer    Context
}

func NewObjectContext(inst *Instance, outer Context) *ObjectContext {
	return &ObjectContext{Instance: inst, Outer: outer}
}

func (o *ObjectContext) Get(name string) (Value, error) {
	if v, ok := o.Instance.Scope.GetLocal(name); ok {
		return v, nil
	}
	return nil, &UnboundNameError{Name: name}
}

// Set creates the member when it is absent.
func (o *ObjectContext) Set(name string, val Value) error {
	o.Instance.Scope.Declare(name, val)
	return nil
}

func (o *ObjectContext) Has(name string) bool {
	_, ok := o.Instance.Scope.GetLocal(name)
	return ok
}

func (o *ObjectContext) Declare(name string, val Value) { o.Instance.Scope.Declare(name, val) }

// Invoke resolves head as a member; the arguments belong to the caller.
func (o *ObjectContext) Invoke(head ast.Node, args []ast.Node) (Value, error) {
	callee, err := o.Interpreter().Eval(head, o)
	if err != nil {
		return nil, err
	}
	return Apply(o.Outer, callee, args, head.String())
}

func (o *ObjectContext) Number(lit *ast.NumberLiteral) (Value, error) { return Literal(lit) }
func (o *ObjectContext) Quoted(lit *ast.StringLiteral) (Value, error) { return o.Get(lit.Value) }

func (o *ObjectContext) ChainResult() Value       { return o.Outer.ChainResult() }
func (o *ObjectContext) SetChainResult(val Value) { o.Outer.SetChainResult(val) }
func (o *ObjectContext) Interpreter() Interpreter { return o.Outer.Interpreter() }

// HostContext resolves members from a native value's member table.
type HostContext struct {
	Native *Native
	Outer  Context
}

func NewHostContext(n *Native, outer Context) *HostContext {
	return &HostContext{Native: n, Outer: outer}
}

func (h *HostContext) Get(name string) (Value, error) {
	if v, ok := h.Native.Properties[name]; ok {
		return v, nil
	}
	if candidates, ok := h.Native.Methods[name]; ok {
		return h.boundMethod(name, candidates), nil
	}
	return nil, &HostDispatchError{TypeName: h.Native.TypeName, Member: name}
}

func (h *HostContext) Set(name string, val Value) error {
	return &HostDispatchError{TypeName: h.Native.TypeName, Member: name, Err: errors.New("members are read-only")}
}

func (h *HostContext) Has(name string) bool { return h.Native.HasMember(name) }

func (h *HostContext) Declare(name string, val Value) { h.Outer.Declare(name, val) }

// Invoke calls the member named by head. Arguments are evaluated once in the
// caller's context and offered to each candidate in turn.
func (h *HostContext) Invoke(head ast.Node, args []ast.Node) (Value, error) {
	name, ok := memberName(head)
	if !ok {
		callee, err := h.Interpreter().Eval(head, h)
		if err != nil {
			return nil, err
		}
		return Apply(h.Outer, callee, args, head.String())
	}

	if candidates, ok := h.Native.Methods[name]; ok {
		vals := make([]Value, 0, len(args))
		for _, arg := range args {
			v, err := h.Interpreter().Eval(arg, h.Outer)
			if err != nil {
				return nil, err
			}
			vals = append(vals, v)
		}
		return h.dispatch(name, candidates, vals)
	}
	if prop, ok := h.Native.Properties[name]; ok {
		if len(args) == 0 {
			return prop, nil
		}
		return Apply(h.Outer, prop, args, head.String())
	}
	return nil, &HostDispatchError{TypeName: h.Native.TypeName, Member: name}
}

func (h *HostContext) dispatch(name string, candidates []NativeMethod, args []Value) (Value, error) {
	var errs []error
	for _, candidate := range candidates {
		v, err := candidate(args)
		if err == nil {
			return v, nil
		}
		errs = append(errs, err)
	}
	return nil, &HostDispatchError{TypeName: h.Native.TypeName, Member: name, Err: errors.Join(errs...)}
}

func (h *HostContext) boundMethod(name string, candidates []NativeMethod) *Macro {
	return &Macro{
		Name: fmt.Sprintf("%s.%s", h.Native.TypeName, name),
		Fn: func(ctx Context, args []ast.Node) (Value, error) {
			vals := make([]Value, 0, len(args))
			for _, arg := range args {
				v, err := ctx.Interpreter().Eval(arg, ctx)
				if err != nil {
					return nil, err
				}
				vals = append(vals, v)
			}
			return h.dispatch(name, candidates, vals)
		},
	}
}

func (h *HostContext) Number(lit *ast.NumberLiteral) (Value, error) { return Literal(lit) }
func (h *HostContext) Quoted(lit *ast.StringLiteral) (Value, error) { return h.Get(lit.Value) }

func (h *HostContext) ChainResult() Value       { return h.Outer.ChainResult() }
func (h *HostContext) SetChainResult(val Value) { h.Outer.SetChainResult(val) }
func (h *HostContext) Interpreter() Interpreter { return h.Outer.Interpreter() }

func memberName(n ast.Node) (string, bool) {
	switch node := n.(type) {
	case *ast.Symbol:
		return node.Name, true
	case *ast.StringLiteral:
		return node.Value, true
	}
	return "", false
}
