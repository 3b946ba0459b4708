package object

import (
	"fmt"
	"strings"
)

type UnboundNameError struct {
	Name string
}

func (e *UnboundNameError) Error() string {
	return fmt.Sprintf("unbound name: %s", e.Name)
}

type NotCallableError struct {
	Type ValueType
	Expr string
}

func (e *NotCallableError) Error() string {
	return fmt.Sprintf("not callable: %s (%s)", e.Expr, e.Type)
}

type TypeMismatchError struct {
	Op    string
	Types []ValueType
}

func (e *TypeMismatchError) Error() string {
	names := make([]string, len(e.Types))
	for i, t := range e.Types {
		names[i] = string(t)
	}
	return fmt.Sprintf("type mismatch: %s not supported for %s", e.Op, strings.Join(names, ", "))
}

// Mismatch builds a TypeMismatchError from the offending operands.
func Mismatch(op string, vals ...Value) *TypeMismatchError {
	types := make([]ValueType, len(vals))
	for i, v := range vals {
		types[i] = v.Type()
	}
	return &TypeMismatchError{Op: op, Types: types}
}

type DivisionByZeroError struct {
	Op string
}

func (e *DivisionByZeroError) Error() string {
	return fmt.Sprintf("division by zero in %s", e.Op)
}

type IndexError struct {
	Index  int64
	Length int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("index %d out of range [0:%d]", e.Index, e.Length)
}

type ArityError struct {
	Callee string
	Want   int
	Got    int
}

func (e *ArityError) Error() string {
	return fmt.Sprintf("%s expects %d arguments, got %d", e.Callee, e.Want, e.Got)
}

type HostDispatchError struct {
	TypeName string
	Member   string
	Err      error
}

func (e *HostDispatchError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s has no member %s", e.TypeName, e.Member)
	}
	return fmt.Sprintf("%s.%s: %v", e.TypeName, e.Member, e.Err)
}

func (e *HostDispatchError) Unwrap() error { return e.Err }
