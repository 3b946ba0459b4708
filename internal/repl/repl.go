package repl

import (
	"errors"
	"fmt"
	"io"
	"os"
	"plastic/internal/evaluator"
	"plastic/internal/object"
	"plastic/internal/parser"
	"plastic/internal/util"
	"strings"

	"github.com/peterh/liner"
)

const (
	PROMPT      = ">> "
	CONTINUE    = ".. "
	HistoryFile = ".plastic_history"
)

// Prompter reads one line of input.
type Prompter interface {
	Prompt(prompt string) (string, error)
}

// Session keeps one scope alive across entries.
type Session struct {
	interp *evaluator.Interpreter
	scope  *object.Environment
}

func NewSession(interp *evaluator.Interpreter) *Session {
	return &Session{interp: interp, scope: object.NewEnclosedEnvironment(interp.Root())}
}

func (s *Session) Eval(code string) (object.Value, error) {
	s.interp.Lock()
	defer s.interp.Unlock()
	return s.interp.RunIn(code, s.scope)
}

// Start runs an interactive loop until end of input or :quit.
func Start(interp *evaluator.Interpreter, out io.Writer, historyPath string) error {
	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	if historyPath != "" {
		if f, err := os.Open(historyPath); err == nil {
			_, _ = ln.ReadHistory(f)
			_ = f.Close()
		}
		defer func() {
			if f, err := os.Create(historyPath); err == nil {
				_, _ = ln.WriteHistory(f)
				_ = f.Close()
			}
		}()
	}

	session := NewSession(interp)
	for {
		code, ok := readUntilParsed(ln, PROMPT, CONTINUE)
		if !ok {
			fmt.Fprintln(out)
			return nil
		}
		trimmed := strings.TrimSpace(code)
		if trimmed == "" {
			continue
		}
		if trimmed == ":quit" {
			return nil
		}

		ln.AppendHistory(strings.ReplaceAll(code, "\n", " "))
		v, err := session.Eval(code)
		if err != nil {
			printError(out, code, err)
			continue
		}
		io.WriteString(out, v.Inspect())
		io.WriteString(out, "\n")
	}
}

// readUntilParsed keeps reading continuation lines while the input so far only
// fails to parse because it ended early.
func readUntilParsed(p Prompter, prompt, cont string) (string, bool) {
	var b strings.Builder
	for {
		current := prompt
		if b.Len() > 0 {
			current = cont
		}
		line, err := p.Prompt(current)
		if errors.Is(err, io.EOF) {
			if b.Len() > 0 {
				return b.String(), true
			}
			return "", false
		}
		if err != nil {
			return "", errors.Is(err, liner.ErrPromptAborted)
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		src := b.String()
		_, perr := parser.Parse(src)
		var synErr *parser.SyntaxError
		if errors.As(perr, &synErr) && synErr.Incomplete {
			continue
		}
		return src, true
	}
}

func printError(out io.Writer, src string, err error) {
	var synErr *parser.SyntaxError
	if errors.As(err, &synErr) {
		io.WriteString(out, "syntax error:\n")
		io.WriteString(out, util.GetContextLines(src, synErr.Line, synErr.Column))
		io.WriteString(out, "\t"+synErr.Msg+"\n")
		return
	}
	var rtErr *evaluator.RuntimeError
	if errors.As(err, &rtErr) {
		io.WriteString(out, util.GetContextLines(src, rtErr.Line, rtErr.Column))
		io.WriteString(out, "\t"+rtErr.Err.Error()+"\n")
		return
	}
	io.WriteString(out, "error: "+err.Error()+"\n")
}
