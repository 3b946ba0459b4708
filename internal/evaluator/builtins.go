package evaluator

import (
	"fmt"
	"plastic/internal/ast"
	"plastic/internal/object"
	"plastic/internal/parser"
	"regexp"
	"strconv"
	"unicode/utf8"
)

func (in *Interpreter) registerBuiltins(env *object.Environment) {
	macros := map[string]object.MacroFunc{
		// control flow
		"print": in.print,
		"while": in.while,
		"each":  in.each,
		"if":    in.ifForm,
		"elif":  in.elif,
		"else":  in.elseForm,
		"eval":  in.eval,

		// construction
		"func":  in.function,
		"mixin": in.mixin,
		"class": in.class,

		// binding
		"assign": in.assign,
		"def":    in.def,

		// operators
		"_add":  in.binary("_add", add),
		"_sub":  in.binary("_sub", arithmetic("_sub", func(a, b int64) int64 { return a - b }, func(a, b float64) float64 { return a - b })),
		"_mul":  in.binary("_mul", arithmetic("_mul", func(a, b int64) int64 { return a * b }, func(a, b float64) float64 { return a * b })),
		"_div":  in.binary("_div", divide),
		"_mod":  in.binary("_mod", modulo),
		"_eq":   in.binary("_eq", func(l, r object.Value) (object.Value, error) { return object.NativeBool(equal(l, r)), nil }),
		"_neq":  in.binary("_neq", func(l, r object.Value) (object.Value, error) { return object.NativeBool(!equal(l, r)), nil }),
		"_gt":   in.binary("_gt", compare("_gt", func(c int) bool { return c > 0 })),
		"_gteq": in.binary("_gteq", compare("_gteq", func(c int) bool { return c >= 0 })),
		"_lt":   in.binary("_lt", compare("_lt", func(c int) bool { return c < 0 })),
		"_lteq": in.binary("_lteq", compare("_lteq", func(c int) bool { return c <= 0 })),
		"_band": in.logical("_band", false),
		"_bor":  in.logical("_bor", true),
		"_neg":  in.unary("_neg", negate),
		"_not":  in.unary("_not", not),
		"_dot":  in.dot,

		// values
		"len":  in.unary("len", length),
		"str":  in.unary("str", func(v object.Value) (object.Value, error) { return &object.String{Value: v.Inspect()}, nil }),
		"type": in.unary("type", func(v object.Value) (object.Value, error) { return &object.String{Value: string(v.Type())}, nil }),
	}
	for name, fn := range macros {
		env.Declare(name, &object.Macro{Name: name, Fn: fn})
	}

	env.Declare("true", object.TRUE)
	env.Declare("false", object.FALSE)
	env.Declare("null", object.NIL)
	env.Declare("exit", object.NOT_TAKEN)
}

func arity(callee string, args []ast.Node, want int) error {
	if len(args) != want {
		return &object.ArityError{Callee: callee, Want: want, Got: len(args)}
	}
	return nil
}

// condition evaluates node and insists on a boolean.
func (in *Interpreter) condition(op string, node ast.Node, ctx object.Context) (bool, error) {
	v, err := in.Eval(node, ctx)
	if err != nil {
		return false, err
	}
	b, ok := object.Truthy(v)
	if !ok {
		return false, object.Mismatch(op+" condition", v)
	}
	return b, nil
}

var placeholder = regexp.MustCompile(`\{(\d+)\}`)

func (in *Interpreter) print(ctx object.Context, args []ast.Node) (object.Value, error) {
	if len(args) == 0 {
		fmt.Fprintln(in.out)
		return object.NIL, nil
	}
	vals, err := in.evalItems(args, ctx)
	if err != nil {
		return nil, err
	}

	text := vals[0].Inspect()
	if fmtArgs := vals[1:]; len(fmtArgs) > 0 {
		text = placeholder.ReplaceAllStringFunc(text, func(m string) string {
			i, err := strconv.Atoi(m[1 : len(m)-1])
			if err != nil || i >= len(fmtArgs) {
				return m
			}
			return fmtArgs[i].Inspect()
		})
	}
	fmt.Fprintln(in.out, text)
	return vals[0], nil
}

func (in *Interpreter) ifForm(ctx object.Context, args []ast.Node) (object.Value, error) {
	if err := arity("if", args, 2); err != nil {
		return nil, err
	}
	return in.branch("if", args[0], args[1], ctx)
}

func (in *Interpreter) branch(op string, cond, body ast.Node, ctx object.Context) (object.Value, error) {
	ok, err := in.condition(op, cond, ctx)
	if err != nil || !ok {
		return object.NOT_TAKEN, err
	}
	return in.taken(body, ctx)
}

// taken evaluates a chosen branch. A body that itself yields NOT_TAKEN must not
// let a following elif or else fire.
func (in *Interpreter) taken(body ast.Node, ctx object.Context) (object.Value, error) {
	v, err := in.Eval(body, ctx)
	if err != nil {
		return nil, err
	}
	if v == object.NOT_TAKEN {
		return object.NIL, nil
	}
	return v, nil
}

func (in *Interpreter) elif(ctx object.Context, args []ast.Node) (object.Value, error) {
	if err := arity("elif", args, 2); err != nil {
		return nil, err
	}
	if last := ctx.ChainResult(); last != object.NOT_TAKEN {
		return last, nil
	}
	return in.branch("elif", args[0], args[1], ctx)
}

func (in *Interpreter) elseForm(ctx object.Context, args []ast.Node) (object.Value, error) {
	if err := arity("else", args, 1); err != nil {
		return nil, err
	}
	if last := ctx.ChainResult(); last != object.NOT_TAKEN {
		return last, nil
	}
	return in.taken(args[0], ctx)
}

func (in *Interpreter) while(ctx object.Context, args []ast.Node) (object.Value, error) {
	if err := arity("while", args, 2); err != nil {
		return nil, err
	}
	var result object.Value = object.NOT_TAKEN
	for {
		ok, err := in.condition("while", args[0], ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			return result, nil
		}
		if result, err = in.Eval(args[1], ctx); err != nil {
			return nil, err
		}
	}
}

// each binds the loop variable in ctx itself, so every iteration shares a single
// binding and closures made in the body see its latest value.
func (in *Interpreter) each(ctx object.Context, args []ast.Node) (object.Value, error) {
	if err := arity("each", args, 3); err != nil {
		return nil, err
	}
	name, ok := args[0].(*ast.Symbol)
	if !ok {
		return nil, &object.TypeMismatchError{Op: "each variable " + args[0].String()}
	}
	seq, err := in.Eval(args[1], ctx)
	if err != nil {
		return nil, err
	}

	var elements []object.Value
	switch s := seq.(type) {
	case *object.Array:
		elements = s.Elements
	case *object.Tuple:
		elements = s.Elements
	case *object.String:
		for _, r := range s.Value {
			elements = append(elements, &object.String{Value: string(r)})
		}
	default:
		return object.NOT_TAKEN, nil
	}

	var result object.Value = object.NIL
	for _, element := range elements {
		ctx.Declare(name.Name, element)
		if result, err = in.Eval(args[2], ctx); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// eval runs code as a fragment of the calling context.
func (in *Interpreter) eval(ctx object.Context, args []ast.Node) (object.Value, error) {
	if err := arity("eval", args, 1); err != nil {
		return nil, err
	}
	v, err := in.Eval(args[0], ctx)
	if err != nil {
		return nil, err
	}
	code, ok := v.(*object.String)
	if !ok {
		return nil, object.Mismatch("eval", v)
	}
	program, err := parser.Parse(code.Value)
	if err != nil {
		return nil, err
	}
	return in.Eval(program, ctx)
}

func (in *Interpreter) def(ctx object.Context, args []ast.Node) (object.Value, error) {
	if err := arity("def", args, 2); err != nil {
		return nil, err
	}
	name, ok := args[0].(*ast.Symbol)
	if !ok {
		return nil, &object.TypeMismatchError{Op: "def of " + args[0].String()}
	}
	v, err := in.Eval(args[1], ctx)
	if err != nil {
		return nil, err
	}
	ctx.Declare(name.Name, v)
	return v, nil
}

func length(v object.Value) (object.Value, error) {
	switch v := v.(type) {
	case *object.Array:
		return &object.Integer{Value: int64(len(v.Elements))}, nil
	case *object.Tuple:
		return &object.Integer{Value: int64(len(v.Elements))}, nil
	case *object.String:
		return &object.Integer{Value: int64(utf8.RuneCountInString(v.Value))}, nil
	}
	return nil, object.Mismatch("len", v)
}
