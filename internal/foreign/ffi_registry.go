package foreign

import (
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"plastic/internal/ast"
	"plastic/internal/object"
	"time"
)

// Register declares the host built-ins in the root context.
func Register(env *object.Environment) {
	functions := map[string][]object.NativeMethod{
		"dbOpen": {dbOpen(env)},
		"env":    {fnSysEnv},
		"clock":  {fnTimeClock},
		"sha256": {fnCryptoSha256},
		"md5":    {fnCryptoMd5},
	}
	for name, candidates := range functions {
		env.Declare(name, function(name, candidates...))
	}
}

// function turns host methods into a macro that evaluates its arguments in the
// caller's context and takes the first candidate that accepts them.
func function(name string, candidates ...object.NativeMethod) *object.Macro {
	return &object.Macro{
		Name: name,
		Fn: func(ctx object.Context, args []ast.Node) (object.Value, error) {
			vals := make([]object.Value, 0, len(args))
			for _, arg := range args {
				v, err := ctx.Interpreter().Eval(arg, ctx)
				if err != nil {
					return nil, err
				}
				vals = append(vals, v)
			}
			var errs []error
			for _, candidate := range candidates {
				v, err := candidate(vals)
				if err == nil {
					return v, nil
				}
				errs = append(errs, err)
			}
			return nil, &object.HostDispatchError{TypeName: "builtin", Member: name, Err: errors.Join(errs...)}
		},
	}
}

func wantArgs(args []object.Value, n int) error {
	if len(args) != n {
		return fmt.Errorf("wrong number of arguments. got=%d, want=%d", len(args), n)
	}
	return nil
}

func stringArg(args []object.Value, i int) (string, error) {
	s, ok := args[i].(*object.String)
	if !ok {
		return "", fmt.Errorf("argument %d must be STRING, got=%s", i+1, args[i].Type())
	}
	return s.Value, nil
}

func fnSysEnv(args []object.Value) (object.Value, error) {
	if err := wantArgs(args, 1); err != nil {
		return nil, err
	}
	name, err := stringArg(args, 0)
	if err != nil {
		return nil, err
	}
	if value, ok := os.LookupEnv(name); ok {
		return &object.String{Value: value}, nil
	}
	return object.NIL, nil
}

func fnTimeClock(args []object.Value) (object.Value, error) {
	if err := wantArgs(args, 0); err != nil {
		return nil, err
	}
	return &object.Integer{Value: time.Now().UnixMilli()}, nil
}

func fnCryptoSha256(args []object.Value) (object.Value, error) {
	if err := wantArgs(args, 1); err != nil {
		return nil, err
	}
	s, err := stringArg(args, 0)
	if err != nil {
		return nil, err
	}
	hash := sha256.Sum256([]byte(s))
	return &object.String{Value: hex.EncodeToString(hash[:])}, nil
}

func fnCryptoMd5(args []object.Value) (object.Value, error) {
	if err := wantArgs(args, 1); err != nil {
		return nil, err
	}
	s, err := stringArg(args, 0)
	if err != nil {
		return nil, err
	}
	hash := md5.Sum([]byte(s))
	return &object.String{Value: hex.EncodeToString(hash[:])}, nil
}
