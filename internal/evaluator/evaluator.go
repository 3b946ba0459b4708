package evaluator

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"plastic/internal/ast"
	"plastic/internal/foreign"
	"plastic/internal/object"
	"plastic/internal/parser"
	"plastic/internal/util"
	"sync"
	"time"
)

// RuntimeError locates a failure at the top-level statement that raised it.
type RuntimeError struct {
	Line   int
	Column int
	Err    error
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("%d:%d: %v", e.Line, e.Column, e.Err)
}

func (e *RuntimeError) Unwrap() error { return e.Err }

type Library struct {
	Name   string
	Source string
}

// Interpreter owns a root context holding the built-ins. Runs are serialised.
type Interpreter struct {
	mu sync.Mutex

	root      *object.Environment
	out       io.Writer
	log       *slog.Logger
	policy    string
	host      object.Host
	bootstrap bool
	libraries []Library
}

type Option func(*Interpreter)

func WithOutput(w io.Writer) Option {
	return func(in *Interpreter) { in.out = w }
}

func WithLogger(l *slog.Logger) Option {
	return func(in *Interpreter) { in.log = l }
}

// WithAssignPolicy selects util.AssignDeclare or util.AssignStrict.
func WithAssignPolicy(policy string) Option {
	return func(in *Interpreter) { in.policy = policy }
}

func WithHost(h object.Host) Option {
	return func(in *Interpreter) { in.host = h }
}

func WithoutBootstrap() Option {
	return func(in *Interpreter) { in.bootstrap = false }
}

// WithLibrary evaluates src into the root after the core library.
func WithLibrary(name, src string) Option {
	return func(in *Interpreter) { in.libraries = append(in.libraries, Library{Name: name, Source: src}) }
}

// WithConfiguration applies the interpreter related settings of config.
func WithConfiguration(config util.Configuration) Option {
	return func(in *Interpreter) {
		in.policy = config.AssignPolicy
		in.bootstrap = !config.NoBootstrap
	}
}

func New(opts ...Option) (*Interpreter, error) {
	in := &Interpreter{
		out:       os.Stdout,
		log:       slog.Default(),
		policy:    util.AssignDeclare,
		host:      foreign.Host{},
		bootstrap: true,
	}
	for _, opt := range opts {
		opt(in)
	}
	switch in.policy {
	case util.AssignDeclare, util.AssignStrict:
	default:
		return nil, fmt.Errorf("unknown assign policy %q", in.policy)
	}

	in.root = object.NewEnvironment(in)
	in.registerBuiltins(in.root)
	foreign.Register(in.root)

	if in.bootstrap {
		if _, err := in.RunIn(coreLibrary, in.root); err != nil {
			return nil, fmt.Errorf("loading core library: %w", err)
		}
		in.log.Debug("core library loaded", slog.Int("bindings", len(in.root.Bindings)))
	}
	for _, lib := range in.libraries {
		if _, err := in.RunIn(lib.Source, in.root); err != nil {
			return nil, fmt.Errorf("loading library %s: %w", lib.Name, err)
		}
		in.log.Debug("library loaded", slog.String("name", lib.Name))
	}
	// programs shadow built-ins in their own scope instead of replacing them
	in.root.Seal()
	return in, nil
}

func (in *Interpreter) Root() *object.Environment { return in.root }

func (in *Interpreter) Host() object.Host { return in.host }

// Run evaluates src in a fresh scope below the root.
func (in *Interpreter) Run(src string) (object.Value, error) {
	in.mu.Lock()
	defer in.mu.Unlock()

	started := time.Now()
	in.log.Debug("run started", slog.Int("bytes", len(src)))
	v, err := in.RunIn(src, object.NewEnclosedEnvironment(in.root))
	in.log.Debug("run finished", slog.Duration("elapsed", time.Since(started)), slog.Bool("failed", err != nil))
	return v, err
}

// RunIn evaluates src in ctx without taking the run lock. The REPL and `eval`
// use it to keep state between fragments.
func (in *Interpreter) RunIn(src string, ctx object.Context) (object.Value, error) {
	program, err := parser.Parse(src)
	if err != nil {
		return nil, err
	}
	return in.evalProgram(program, src, ctx)
}

// Lock serialises callers that drive RunIn directly.
func (in *Interpreter) Lock()   { in.mu.Lock() }
func (in *Interpreter) Unlock() { in.mu.Unlock() }

func (in *Interpreter) evalProgram(program *ast.Statements, src string, ctx object.Context) (object.Value, error) {
	return in.sequence(program.Items, ctx, func(item ast.Node, err error) error {
		var rtErr *RuntimeError
		if errors.As(err, &rtErr) {
			return err
		}
		line, col := util.GetLineAndColumn(src, item.Pos())
		return &RuntimeError{Line: line, Column: col, Err: err}
	})
}

// Eval maps a node to its value in ctx. Literal and name interpretation is left
// to the context, which is how member access reaches arrays, objects and host values.
func (in *Interpreter) Eval(node ast.Node, ctx object.Context) (object.Value, error) {
	switch node := node.(type) {
	case *ast.NumberLiteral:
		return ctx.Number(node)

	case *ast.StringLiteral:
		return ctx.Quoted(node)

	case *ast.Symbol:
		return ctx.Get(node.Name)

	case *ast.ListValue:
		return ctx.Invoke(node.Head, node.Rest)

	case *ast.ArrayValue:
		elements, err := in.evalItems(node.Items, ctx)
		if err != nil {
			return nil, err
		}
		return &object.Array{Elements: elements}, nil

	case *ast.TupleValue:
		elements, err := in.evalItems(node.Items, ctx)
		if err != nil {
			return nil, err
		}
		return &object.Tuple{Elements: elements}, nil

	case *ast.Statements:
		return in.sequence(node.Items, ctx, nil)
	}
	return nil, fmt.Errorf("unknown node %T", node)
}

func (in *Interpreter) evalItems(items []ast.Node, ctx object.Context) ([]object.Value, error) {
	elements := make([]object.Value, 0, len(items))
	for _, item := range items {
		v, err := in.Eval(item, ctx)
		if err != nil {
			return nil, err
		}
		elements = append(elements, v)
	}
	return elements, nil
}

// sequence evaluates items in order in one context. Each item sees the previous
// item's result in the chain slot, which is how elif and else find a taken branch.
func (in *Interpreter) sequence(items []ast.Node, ctx object.Context, wrap func(ast.Node, error) error) (object.Value, error) {
	if len(items) == 0 {
		return object.VOID, nil
	}
	var result object.Value = object.NIL
	for _, item := range items {
		ctx.SetChainResult(result)
		v, err := in.Eval(item, ctx)
		if err != nil {
			if wrap != nil {
				return nil, wrap(item, err)
			}
			return nil, err
		}
		result = v
	}
	return result, nil
}
