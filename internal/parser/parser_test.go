package parser

import (
	"bytes"
	"encoding/json"
	"errors"
	"plastic/internal/ast"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func parseItems(t *testing.T, input string) []string {
	t.Helper()
	program, err := Parse(input)
	if err != nil {
		t.Fatalf("%q: unexpected error: %v", input, err)
	}
	items := make([]string, len(program.Items))
	for i, item := range program.Items {
		items[i] = item.String()
	}
	return items
}

func TestOperatorPrecedence(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"1 + 2 * 3", "_add(1, _mul(2, 3))"},
		{"1 - 2 - 3", "_sub(_sub(1, 2), 3)"},
		{"a := b := 1", "assign(a, assign(b, 1))"},
		{"a = 1", "assign(a, 1)"},
		{"-a * b", "_mul(_neg(a), b)"},
		{"!x == y", "_eq(_not(x), y)"},
		{"a && b || c", "_bor(_band(a, b), c)"},
		{"a < b == c >= d", "_eq(_lt(a, b), _gteq(c, d))"},
		{"a % b != c", "_neq(_mod(a, b), c)"},
		{"x++", "assign(x, _add(x, 1))"},
		{"x--", "assign(x, _sub(x, 1))"},
		{"a.b.c", "_dot(_dot(a, b), c)"},
		{"a.b(1)", "_dot(a, b)(1)"},
		{"a.'Length'", `_dot(a, "Length")`},
		{"f(1)(2)", "f(1)(2)"},
		{"x => x * x", "func(x, _mul(x, x))"},
		{"(a, b) => a", "func(a, b, a)"},
		{"f := x => y => x", "assign(f, func(x, func(y, x)))"},
		{"func(@e) { e() }", "func(@e, {e()})"},
		{"()", "()"},
		{"(1)", "1"},
		{"(1, 2)", "(1, 2)"},
		{"[1, 'a']", `[1, "a"]`},
		{"1.5", "1.5"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			items := parseItems(t, tt.input)
			if len(items) != 1 {
				t.Fatalf("expected 1 statement, got %d: %v", len(items), items)
			}
			if items[0] != tt.expected {
				t.Errorf("expected %s, got %s", tt.expected, items[0])
			}
		})
	}
}

func TestSemicolonSeparatedArguments(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"for (a := 0; a < 10; a ++)\n{ s := s + a }", "for(assign(a, 0), _lt(a, 10), assign(a, _add(a, 1)), {assign(s, _add(s, a))})"},
		{"f(1; 2, 3)", "f(1, 2, 3)"},
		{"f(1;)", "f(1)"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			items := parseItems(t, tt.input)
			if len(items) != 1 {
				t.Fatalf("expected 1 statement, got %d: %v", len(items), items)
			}
			if items[0] != tt.expected {
				t.Errorf("expected %s, got %s", tt.expected, items[0])
			}
		})
	}
}

func TestStatementSeparation(t *testing.T) {
	tests := []struct {
		input    string
		expected []string
	}{
		{"a; b", []string{"a", "b"}},
		{"a\nb", []string{"a", "b"}},
		{"f(1)\n(2)", []string{"f(1)", "2"}},
		{"if (c) { 1 } else { 2 }", []string{"if(c, {1})", "else({2})"}},
		{"if (c)\n{ 1 }", []string{"if(c, {1})"}},
		{"while (a < 3) {\n\ta := a + 1\n}", []string{"while(_lt(a, 3), {assign(a, _add(a, 1))})"}},
		{"x\n{ 1 }", []string{"x", "{1}"}},
		{"{ a => a }{ 1 }", []string{"{func(a, a)}({1})"}},
		{"// comment\na # trailing\n", []string{"a"}},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if diff := cmp.Diff(tt.expected, parseItems(t, tt.input)); diff != "" {
				t.Errorf("statements mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSyntaxErrors(t *testing.T) {
	tests := []struct {
		input      string
		incomplete bool
	}{
		{"f(1, ", true},
		{"{ a", true},
		{"1 2", false},
		{"a := )", false},
		{"(1, 2) => x", false},
		{"'open", true},
		{"x := 'two\nlines", true},
		{"(1; 2)", false},
		{"a ? b", false},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, err := Parse(tt.input)
			var synErr *SyntaxError
			if !errors.As(err, &synErr) {
				t.Fatalf("expected *SyntaxError, got %v", err)
			}
			if synErr.Incomplete != tt.incomplete {
				t.Errorf("expected Incomplete=%v, got %v (%s)", tt.incomplete, synErr.Incomplete, synErr.Msg)
			}
			if synErr.Line != 1 {
				t.Errorf("expected line 1, got %d", synErr.Line)
			}
		})
	}
}

func TestPositions(t *testing.T) {
	program, err := Parse("a\n  b := 1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := program.Items[1].(*ast.ListValue).Rest[0].Pos(); got != 4 {
		t.Errorf("expected b at offset 4, got %d", got)
	}
}

func TestDebugAST(t *testing.T) {
	program, err := Parse("f(1, [x])")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var buf bytes.Buffer
	if err := WriteASTToJSON(program, &buf); err != nil {
		t.Fatalf("WriteASTToJSON: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, buf.String())
	}

	text := RenderASTAsText(program, 0)
	if text == "" {
		t.Error("expected a text rendering")
	}
}
