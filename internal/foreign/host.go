package foreign

import (
	"fmt"
	"plastic/internal/object"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Host exposes members of plain strings and numbers, e.g. `'abc'.ToUpper()`.
type Host struct{}

func (Host) Wrap(v object.Value) (*object.Native, bool) {
	switch v := v.(type) {
	case *object.String:
		return wrapString(v.Value), true
	case *object.Integer:
		return wrapNumber(v, float64(v.Value)), true
	case *object.Float:
		return wrapNumber(v, v.Value), true
	}
	return nil, false
}

func wrapNumber(v object.Value, f float64) *object.Native {
	return &object.Native{
		TypeName: "Number",
		Value:    f,
		Methods: map[string][]object.NativeMethod{
			"ToString": {func(args []object.Value) (object.Value, error) {
				if err := wantArgs(args, 0); err != nil {
					return nil, err
				}
				return &object.String{Value: v.Inspect()}, nil
			}},
			"ToFloat": {func(args []object.Value) (object.Value, error) {
				if err := wantArgs(args, 0); err != nil {
					return nil, err
				}
				return &object.Float{Value: f}, nil
			}},
		},
	}
}

func stringResult(fn func(string) string, s string) object.NativeMethod {
	return func(args []object.Value) (object.Value, error) {
		if err := wantArgs(args, 0); err != nil {
			return nil, err
		}
		return &object.String{Value: fn(s)}, nil
	}
}

func wrapString(s string) *object.Native {
	return &object.Native{
		TypeName: "String",
		Value:    s,
		Properties: map[string]object.Value{
			object.LengthMember: &object.Integer{Value: int64(utf8.RuneCountInString(s))},
		},
		Methods: map[string][]object.NativeMethod{
			"ToUpper": {stringResult(strings.ToUpper, s)},
			"ToLower": {stringResult(strings.ToLower, s)},
			"Trim":    {stringResult(func(s string) string { return strings.TrimFunc(s, unicode.IsSpace) }, s)},
			"Contains": {func(args []object.Value) (object.Value, error) {
				return stringPredicate(args, func(sub string) bool { return strings.Contains(s, sub) })
			}},
			"StartsWith": {func(args []object.Value) (object.Value, error) {
				return stringPredicate(args, func(p string) bool { return strings.HasPrefix(s, p) })
			}},
			"EndsWith": {func(args []object.Value) (object.Value, error) {
				return stringPredicate(args, func(p string) bool { return strings.HasSuffix(s, p) })
			}},
			"Matches": {func(args []object.Value) (object.Value, error) {
				if err := wantArgs(args, 1); err != nil {
					return nil, err
				}
				pattern, err := stringArg(args, 0)
				if err != nil {
					return nil, err
				}
				re, err := regexp.Compile(pattern)
				if err != nil {
					return nil, fmt.Errorf("invalid pattern: %w", err)
				}
				return object.NativeBool(re.MatchString(s)), nil
			}},
			"Split": {
				func(args []object.Value) (object.Value, error) {
					if err := wantArgs(args, 0); err != nil {
						return nil, err
					}
					return stringArray(strings.Fields(s)), nil
				},
				func(args []object.Value) (object.Value, error) {
					if err := wantArgs(args, 1); err != nil {
						return nil, err
					}
					sep, err := stringArg(args, 0)
					if err != nil {
						return nil, err
					}
					return stringArray(strings.Split(s, sep)), nil
				},
			},
			"Replace": {func(args []object.Value) (object.Value, error) {
				if err := wantArgs(args, 2); err != nil {
					return nil, err
				}
				old, err := stringArg(args, 0)
				if err != nil {
					return nil, err
				}
				replacement, err := stringArg(args, 1)
				if err != nil {
					return nil, err
				}
				return &object.String{Value: strings.ReplaceAll(s, old, replacement)}, nil
			}},
			"IndexOf": {
				func(args []object.Value) (object.Value, error) {
					if err := wantArgs(args, 1); err != nil {
						return nil, err
					}
					return indexOf(s, args[0], 0)
				},
				func(args []object.Value) (object.Value, error) {
					if err := wantArgs(args, 2); err != nil {
						return nil, err
					}
					start, ok := args[1].(*object.Integer)
					if !ok {
						return nil, fmt.Errorf("start must be INTEGER, got=%s", args[1].Type())
					}
					return indexOf(s, args[0], int(max(start.Value, 0)))
				},
			},
			"ToNumber": {func(args []object.Value) (object.Value, error) {
				if err := wantArgs(args, 0); err != nil {
					return nil, err
				}
				if i, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64); err == nil {
					return &object.Integer{Value: i}, nil
				}
				f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
				if err != nil {
					return nil, fmt.Errorf("not a number: %q", s)
				}
				return &object.Float{Value: f}, nil
			}},
		},
	}
}

func stringPredicate(args []object.Value, test func(string) bool) (object.Value, error) {
	if err := wantArgs(args, 1); err != nil {
		return nil, err
	}
	arg, err := stringArg(args, 0)
	if err != nil {
		return nil, err
	}
	return object.NativeBool(test(arg)), nil
}

func stringArray(parts []string) *object.Array {
	elements := make([]object.Value, len(parts))
	for i, p := range parts {
		elements[i] = &object.String{Value: p}
	}
	return &object.Array{Elements: elements}
}

// indexOf counts in runes, starting the search at the start-th rune.
func indexOf(s string, needleArg object.Value, start int) (object.Value, error) {
	needle, ok := needleArg.(*object.String)
	if !ok {
		return nil, fmt.Errorf("needle must be STRING, got=%s", needleArg.Type())
	}
	runes := []rune(s)
	if start > len(runes) {
		return &object.Integer{Value: -1}, nil
	}
	i := strings.Index(string(runes[start:]), needle.Value)
	if i < 0 {
		return &object.Integer{Value: -1}, nil
	}
	return &object.Integer{Value: int64(start + utf8.RuneCountInString(string(runes[start:])[:i]))}, nil
}
