package repl

import (
	"bytes"
	"errors"
	"io"
	"plastic/internal/evaluator"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type scriptedPrompter struct {
	lines   []string
	prompts []string
}

func (s *scriptedPrompter) Prompt(prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	if len(s.lines) == 0 {
		return "", io.EOF
	}
	line := s.lines[0]
	s.lines = s.lines[1:]
	return line, nil
}

func TestReadUntilParsedJoinsIncompleteInput(t *testing.T) {
	p := &scriptedPrompter{lines: []string{"f := func(a) {", "  a + 1", "}", "f(1)"}}

	code, ok := readUntilParsed(p, PROMPT, CONTINUE)
	if !ok {
		t.Fatal("expected input")
	}
	if want := "f := func(a) {\n  a + 1\n}"; code != want {
		t.Errorf("expected %q, got %q", want, code)
	}
	if diff := cmp.Diff([]string{PROMPT, CONTINUE, CONTINUE}, p.prompts); diff != "" {
		t.Errorf("prompts mismatch (-want +got):\n%s", diff)
	}

	code, ok = readUntilParsed(p, PROMPT, CONTINUE)
	if !ok || code != "f(1)" {
		t.Errorf("expected f(1), got %q, %v", code, ok)
	}

	if _, ok := readUntilParsed(p, PROMPT, CONTINUE); ok {
		t.Error("expected end of input")
	}
}

func TestReadUntilParsedContinuesOpenStrings(t *testing.T) {
	p := &scriptedPrompter{lines: []string{"s := 'first", "second'"}}
	code, ok := readUntilParsed(p, PROMPT, CONTINUE)
	if !ok || code != "s := 'first\nsecond'" {
		t.Errorf("expected the string to span both lines, got %q, %v", code, ok)
	}
	if diff := cmp.Diff([]string{PROMPT, CONTINUE}, p.prompts); diff != "" {
		t.Errorf("prompts mismatch (-want +got):\n%s", diff)
	}
}

func TestReadUntilParsedStopsOnRealErrors(t *testing.T) {
	p := &scriptedPrompter{lines: []string{"1 2", "unused"}}
	code, ok := readUntilParsed(p, PROMPT, CONTINUE)
	if !ok || code != "1 2" {
		t.Errorf("a malformed line must be handed over as is, got %q, %v", code, ok)
	}
}

func TestSessionKeepsState(t *testing.T) {
	interp, err := evaluator.New(evaluator.WithOutput(io.Discard))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	session := NewSession(interp)

	if _, err := session.Eval("x := 40"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v, err := session.Eval("x + 2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Inspect() != "42" {
		t.Errorf("expected 42, got %s", v.Inspect())
	}
}

func TestPrintError(t *testing.T) {
	interp, err := evaluator.New(evaluator.WithOutput(io.Discard))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	session := NewSession(interp)

	src := "a := 1\nb := nope"
	_, runErr := session.Eval(src)
	var rtErr *evaluator.RuntimeError
	if !errors.As(runErr, &rtErr) {
		t.Fatalf("expected *evaluator.RuntimeError, got %v", runErr)
	}

	var out bytes.Buffer
	printError(&out, src, runErr)
	if !strings.Contains(out.String(), "unbound name: nope") {
		t.Errorf("expected the cause in the report, got:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "^ here") {
		t.Errorf("expected a position marker, got:\n%s", out.String())
	}
}
