package evaluator

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"plastic/internal/object"
	"plastic/internal/parser"
	"plastic/internal/util"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func newTestInterpreter(t *testing.T, out io.Writer, opts ...Option) *Interpreter {
	t.Helper()
	base := []Option{
		WithOutput(out),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	}
	in, err := New(append(base, opts...)...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return in
}

func testEval(t *testing.T, src string, opts ...Option) object.Value {
	t.Helper()
	v, err := newTestInterpreter(t, io.Discard, opts...).Run(src)
	if err != nil {
		t.Fatalf("%q: unexpected error: %v", src, err)
	}
	return v
}

type evalCase struct {
	input    string
	expected string
}

func runCases(t *testing.T, tests []evalCase) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := testEval(t, tt.input).Inspect()
			if got != tt.expected {
				t.Errorf("expected %s, got %s", tt.expected, got)
			}
		})
	}
}

func TestArithmeticAndComparison(t *testing.T) {
	runCases(t, []evalCase{
		{"1 + 2 * 3", "7"},
		{"(1 + 2) * 3", "9"},
		{"10 - 2 - 3", "5"},
		{"7 / 2", "3"},
		{"7.0 / 2", "3.5"},
		{"7 % 3", "1"},
		{"-3 + 1", "-2"},
		{"1.5 + 1", "2.5"},
		{"'a' + 1", "a1"},
		{"1 + 'b'", "1b"},
		{"1 < 2", "true"},
		{"2 >= 3", "false"},
		{"2 <= 2.0", "true"},
		{"'a' < 'b'", "true"},
		{"1 == 1", "true"},
		{"1 == 1.0", "false"},
		{"'x' != 'y'", "true"},
		{"null == null", "true"},
		{"true && false", "false"},
		{"false || true", "true"},
		{"!true", "false"},
		{"1 + 2 == 3 && 2 > 1", "true"},
	})
}

func TestLogicalShortCircuit(t *testing.T) {
	runCases(t, []evalCase{
		{"false && undefinedName", "false"},
		{"true || undefinedName", "true"},
	})
}

func TestPartialApplication(t *testing.T) {
	runCases(t, []evalCase{
		{"f := func(a, b, c) { a }; f(1)(2)(3) == f(1, 2, 3)", "true"},
		{"f := func(a, b, c) { a + b + c }; f(1)(2)(3)", "6"},
		{"f := func(a, b, c) { a + b + c }; f(1, 2)(3)", "6"},
		{"g := func(a, b) { a - b }; h := g(10); h(3)", "7"},
		{"g := func(a, b) { a - b }; h := g(10); h(3) + h(4)", "13"},
		{"add := (a, b) => a + b; add(2)(3)", "5"},
		{"sq := x => x * x; sq(5)", "25"},
		{"f := func(a) { args }; f(1, 2, 3)", "[1, 2, 3]"},
		{"f := func() {}; f()", "<void>"},
	})
}

func TestWhile(t *testing.T) {
	runCases(t, []evalCase{
		{"a := 0; w := while(a < 3) { a := a + 1 }; (a, w)", "(3, 3)"},
		{"a := 0; while(a < 3) { a := a + 1; a * 10 }", "30"},
		{"while(false) { 1 }", "<not_taken>"},
		{"while(false) { 1 }\nelse { 2 }", "2"},
	})
}

func TestConditionals(t *testing.T) {
	runCases(t, []evalCase{
		{"if (false) { 1 }\nelif (true) { 2 }", "2"},
		{"if (true) { 1 }\nelif (true) { 2 }", "1"},
		{"if (false) { 1 } elif (false) { 2 } else { 3 }", "3"},
		{"if (true) { 1 } else { 2 }", "1"},
		{"x := 5\nif (x > 3) { 'big' } else { 'small' }", "big"},
		{"if (false) { 1 }", "<not_taken>"},
		{"else { 1 }", "null"},
		{"if (true) { while(false) { 1 } } else { 2 }", "null"},
		{"each(x, 5) { 1 } else { 'none' }", "none"},
	})
}

func TestDestructuring(t *testing.T) {
	runCases(t, []evalCase{
		{"(x, y) := (1, 2)", "true"},
		{"(x, y) := (1, 2); (x, y)", "(1, 2)"},
		{"(1, y) := (1, 2)", "true"},
		{"(1, y) := (1, 2); y", "2"},
		{"(2, y) := (1, 2)", "false"},
		{"((a, b), c) := ((1, 2), 3); a + b + c", "6"},
		{"(a, b) := (1, 2, 3)", "false"},
		{"(a, b) := [1, 2]", "false"},
		{"(a, (b, c)) := (1, 2)", "false"},
	})
}

func TestFailedDestructuringLeavesNamesUnbound(t *testing.T) {
	in := newTestInterpreter(t, io.Discard)
	_, err := in.Run("(2, y) := (1, 2)\ny")
	var unbound *object.UnboundNameError
	if !errors.As(err, &unbound) || unbound.Name != "y" {
		t.Fatalf("expected y to stay unbound, got %v", err)
	}
}

func TestObjects(t *testing.T) {
	person := `
Person := class(name) {
	greet := func() { 'hi ' + name }
	rename := func(n) { name := n }
}
`
	runCases(t, []evalCase{
		{person + "a := Person('ann')\nb := Person('bob')\na.rename('amy')\n(a.greet(), b.greet(), a.name, b.name)",
			`("hi amy", "hi bob", "amy", "bob")`},
		{person + "p := Person('x')\np.age := 3\np.age", "3"},
		{person + "p := Person('x')\np('name')", "x"},
		{person + "p := Person('x')\np.'name'", "x"},
		{"C := class() { self := func() { this } }\nc := C()\nc.self() == c", "true"},
		{"C := class() { n := 0 }\na := C(); b := C()\na.n := 5\n(a.n, b.n)", "(5, 0)"},
	})
}

func TestMixin(t *testing.T) {
	runCases(t, []evalCase{
		{"Named := mixin(n) { label := 'name:' + n }\nC := class(x) { Named(x) }\nC('z').label", "name:z"},
		{"Counter := mixin() { count := 10 }\nCounter()\ncount", "10"},
	})
}

func TestEach(t *testing.T) {
	runCases(t, []evalCase{
		{"s := 0; each(x, [1, 2, 3]) { s := s + x }; s", "6"},
		{"each(x, [1, 2, 3]) { x * 2 }", "6"},
		{"each(x, []) { x }", "null"},
		{"s := ''; each(c, 'abc') { s := c + s }; s", "cba"},
		{"each(x, (4, 5)) { x }", "5"},
	})
}

func TestLoopClosuresShareTheBinding(t *testing.T) {
	src := `
fs := [0, 0, 0]
each(x, [1, 2, 3]) {
	if (x == 1) { fs.0 := func() { x } }
	elif (x == 2) { fs.1 := func() { x } }
	else { fs.2 := func() { x } }
}
(fs(0)(), fs(1)(), fs(2)())
`
	for run := 0; run < 3; run++ {
		if got := testEval(t, src).Inspect(); got != "(3, 3, 3)" {
			t.Fatalf("run %d: expected (3, 3, 3), got %s", run, got)
		}
	}
}

func TestByExpressionParameters(t *testing.T) {
	runCases(t, []evalCase{
		{"twice := func(@body) { body(); body() }; n := 0; twice(n := n + 1); n", "2"},
		{"never := func(@body) { 0 }; never(undefinedName)", "0"},
		{"{@body => body()}{ 'strange' }", "strange"},
	})
}

func TestCoreLibrary(t *testing.T) {
	runCases(t, []evalCase{
		{"s := 0; for(i := 0, i < 4, i++) { s := s + i }; s", "6"},
		{"n := 0; repeat(3) { n := n + 2 }; n", "6"},
		{"max(3, 9)", "9"},
		{"min(3, 9)", "3"},
		{"abs(-4)", "4"},
	})
}

func TestMembers(t *testing.T) {
	runCases(t, []evalCase{
		{"'hello'.ToUpper()", "HELLO"},
		{"'abc'.Length", "3"},
		{"s := 'a-b'; s.Split('-')", `["a", "b"]`},
		{"'a b'.Split()", `["a", "b"]`},
		{"a := [1, 2, 3]; a.Length", "3"},
		{"a := [1, 2]; a(1)", "2"},
		{"a := [1, 2]; a.0", "1"},
		{"a := [1, 2]; a.(0) := 9; a", "[9, 2]"},
		{"t := (1, 2); t.Length", "2"},
		{"i := 1; a := [10, 20]; a.i", "1"},
		{"i := 1; a := [10, 20]; a.i := 99; (a, i)", "([10, 20], 99)"},
		{"a := [10, 20]; a.'1' := 5; a", "[10, 5]"},
		{"a := [10, 20]; a.1 := 5; a.1", "5"},
		{"n := 3; n.ToString() + '!'", "3!"},
	})
}

func TestValueBuiltins(t *testing.T) {
	runCases(t, []evalCase{
		{"len([1, 2])", "2"},
		{"len('héllo')", "5"},
		{"type(1.5)", "FLOAT"},
		{"type(class() {}())", "OBJECT"},
		{"str(12) + 'x'", "12x"},
		{"x := 1; eval('x := x + 41'); x", "42"},
		{"def(v, 3)", "3"},
		{"exit", "<not_taken>"},
		{"{}", "<void>"},
	})
}

func TestPrint(t *testing.T) {
	var out bytes.Buffer
	in := newTestInterpreter(t, &out)
	v, err := in.Run("print('hello {0} and {1}', 1, 'two')\nprint([1, 2])\nprint('{5}', 1)")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Inspect() != "{5}" {
		t.Errorf("print should return its first argument, got %s", v.Inspect())
	}
	want := "hello 1 and two\n[1, 2]\n{5}\n"
	if diff := cmp.Diff(want, out.String()); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestErrors(t *testing.T) {
	tests := []struct {
		input  string
		target func(error) bool
	}{
		{"undefinedName", isA[*object.UnboundNameError]},
		{"1 / 0", isA[*object.DivisionByZeroError]},
		{"5 % 0", isA[*object.DivisionByZeroError]},
		{"1 + true", isA[*object.TypeMismatchError]},
		{"'a' < 1", isA[*object.TypeMismatchError]},
		{"if (1) { 2 }", isA[*object.TypeMismatchError]},
		{"1 && true", isA[*object.TypeMismatchError]},
		{"x := 5; x(1)", isA[*object.NotCallableError]},
		{"[1](5)", isA[*object.IndexError]},
		{"t := (1, 2); t.(0) := 5", isA[*object.TypeMismatchError]},
		{"C := class(a) { }; C()", isA[*object.ArityError]},
		{"'abc'.Nope()", isA[*object.HostDispatchError]},
		{"'abc'.Contains(1)", isA[*object.HostDispatchError]},
		{"eval('1 +')", isA[*parser.SyntaxError]},
		{"1 := 2", isA[*object.TypeMismatchError]},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, err := newTestInterpreter(t, io.Discard).Run(tt.input)
			if err == nil {
				t.Fatal("expected an error")
			}
			if !tt.target(err) {
				t.Errorf("unexpected error type %T: %v", errors.Unwrap(err), err)
			}
		})
	}
}

func isA[T error](err error) bool {
	var target T
	return errors.As(err, &target)
}

func TestRuntimeErrorPosition(t *testing.T) {
	_, err := newTestInterpreter(t, io.Discard).Run("a := 1\nb := nope")
	var rtErr *RuntimeError
	if !errors.As(err, &rtErr) {
		t.Fatalf("expected *RuntimeError, got %T", err)
	}
	if rtErr.Line != 2 {
		t.Errorf("expected line 2, got %d", rtErr.Line)
	}
	if !isA[*object.UnboundNameError](err) {
		t.Errorf("expected the cause to be *object.UnboundNameError, got %v", rtErr.Err)
	}
}

func TestSyntaxErrorIsReported(t *testing.T) {
	_, err := newTestInterpreter(t, io.Discard).Run("f(1, ")
	var synErr *parser.SyntaxError
	if !errors.As(err, &synErr) {
		t.Fatalf("expected *parser.SyntaxError, got %v", err)
	}
}

func TestAssignPolicy(t *testing.T) {
	strict := WithAssignPolicy(util.AssignStrict)

	_, err := newTestInterpreter(t, io.Discard, strict).Run("x := 1")
	if !isA[*object.UnboundNameError](err) {
		t.Fatalf("strict policy must refuse new names, got %v", err)
	}
	if got := testEval(t, "def(x, 1); x := 2; x", strict).Inspect(); got != "2" {
		t.Errorf("expected 2, got %s", got)
	}
	if got := testEval(t, "x := 1; f := func() { x := 2 }; f(); x").Inspect(); got != "2" {
		t.Errorf("declare policy writes the nearest binding, got %s", got)
	}
	if got := testEval(t, "f := func() { y := 2; y }; f()").Inspect(); got != "2" {
		t.Errorf("declare policy declares absent names locally, got %s", got)
	}

	if _, err := New(WithAssignPolicy("sometimes")); err == nil {
		t.Error("expected an error for an unknown policy")
	}
}

func TestBootstrapOptions(t *testing.T) {
	_, err := newTestInterpreter(t, io.Discard, WithoutBootstrap()).Run("for")
	if !isA[*object.UnboundNameError](err) {
		t.Fatalf("expected for to be unbound without the core library, got %v", err)
	}

	lib := WithLibrary("answers", "def(answer, 42)")
	if got := testEval(t, "answer", lib).Inspect(); got != "42" {
		t.Errorf("expected 42, got %s", got)
	}

	if _, err := New(WithLibrary("broken", "1 +")); err == nil {
		t.Error("expected a broken library to fail New")
	}
}

func TestRunsAreIsolated(t *testing.T) {
	in := newTestInterpreter(t, io.Discard)
	if _, err := in.Run("x := 1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := in.Run("x"); !isA[*object.UnboundNameError](err) {
		t.Fatalf("each run gets a fresh scope, got %v", err)
	}

	scope := object.NewEnclosedEnvironment(in.Root())
	if _, err := in.RunIn("y := 7", scope); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v, err := in.RunIn("y", scope)
	if err != nil || v.Inspect() != "7" {
		t.Fatalf("RunIn keeps state in its context, got %v, %v", v, err)
	}
}

func TestBuiltinsSurviveShadowing(t *testing.T) {
	in := newTestInterpreter(t, io.Discard)
	v, err := in.Run("print := 1\nif := 5\nprint + if")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Inspect() != "6" {
		t.Errorf("expected the shadowing names in the program scope, got %s", v.Inspect())
	}

	v, err = in.Run("print('x')\nif (true) { 1 }")
	if err != nil {
		t.Fatalf("a later run must see the built-ins again, got %v", err)
	}
	if v.Inspect() != "1" {
		t.Errorf("expected 1, got %s", v.Inspect())
	}

	if got := testEval(t, "f := func() { max := 3; max }\n(f(), max(1, 2))").Inspect(); got != "(3, 2)" {
		t.Errorf("a function assigning a built-in name must get a local, got %s", got)
	}
	if _, err := newTestInterpreter(t, io.Discard, WithAssignPolicy(util.AssignStrict)).Run("print := 1"); !isA[*object.UnboundNameError](err) {
		t.Errorf("strict policy must not rewrite a built-in, got %v", err)
	}
}

func TestLinkedListProgram(t *testing.T) {
	src := `
LinkedList = class ()
{
    Node = class (value) { next = null; }

    head = null;
    tail = null;
    add = func (value)
    {
        node = Node(value);
        if (head == null)
        {
            head = node;
            tail = node;
        }
        else()
        {
            tail.next = node;
            tail = node;
        }
    }

    each = func (lambda)
    {
        current = head;
        while(current != null)
        {
            lambda(current.value);
            current = current.next;
        }
    }
}

list = LinkedList();
list.add('first');
list.add('second');
list.add('last');
list.each(v => {
    print ('item ' + v);
});
each(x, [1]) { print(x) }
`
	var out bytes.Buffer
	if _, err := newTestInterpreter(t, &out).Run(src); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "item first\nitem second\nitem last\n1\n"
	if diff := cmp.Diff(want, out.String()); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestSemicolonFor(t *testing.T) {
	src := "s := 0\nfor (a := 0; a < 10; a ++)\n{\n    s := s + a;\n}\ns"
	if got := testEval(t, src).Inspect(); got != "45" {
		t.Errorf("expected 45, got %s", got)
	}
}

func TestClosuresAreLexical(t *testing.T) {
	_, err := newTestInterpreter(t, io.Discard).Run("f := func() { zz }\ng := func() { zz := 5; f() }\ng()")
	if !isA[*object.UnboundNameError](err) {
		t.Fatalf("a callee must not see the caller's locals, got %v", err)
	}
	if got := testEval(t, "zz := 1\nf := func() { zz }\ng := func() { zz := 5; f() }\ng()").Inspect(); got != "5" {
		t.Errorf("writes reach the defining scope's binding, got %s", got)
	}
}

func TestDatabaseFromScript(t *testing.T) {
	src := `
db := dbOpen('sqlite3', ':memory:')
db.exec('CREATE TABLE kv (k TEXT, v INTEGER)')
db.exec('INSERT INTO kv VALUES (?, ?)', 'a', 1)
db.exec('INSERT INTO kv VALUES (?, ?)', 'b', 2)
rows := db.query('SELECT k, v FROM kv ORDER BY k')
total := 0
each(r, rows) { total := total + r.v }
db.close()
(rows.Length, rows(1).k, total)
`
	if got := testEval(t, src).Inspect(); got != `(2, "b", 3)` {
		t.Errorf("expected (2, \"b\", 3), got %s", got)
	}
}
