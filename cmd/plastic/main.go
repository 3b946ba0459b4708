package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"plastic/internal/evaluator"
	"plastic/internal/parser"
	"plastic/internal/repl"
	"plastic/internal/util"

	"golang.org/x/sync/errgroup"
)

var (
	// Version is the current version of the plastic binary, set at build time.
	Version   = "dev"
	BuildDate = "unknown"
	Commit    = "unknown"
	help      bool
	version   bool
	// logging
	logLevel string
	logFile  string
	// config vars
	configPath   string
	assignPolicy string
	noBootstrap  bool
	bootstrap    string
	parallel     int
	debugAST     string
)

var defaultConfigFiles = []string{"plastic.toml", "plastic.yaml", "plastic.yml"}

func init() {
	flag.BoolVar(&help, "help", false, "Display help information and exit")
	flag.BoolVar(&help, "h", false, "Display help information and exit")
	flag.BoolVar(&version, "version", false, "Display version information and exit")
	flag.BoolVar(&version, "v", false, "Display version information and exit")
	flag.StringVar(&configPath, "config", "", "Configuration file (.toml, .yaml or .yml)")
	// evaluator config
	flag.StringVar(&assignPolicy, "assign-policy", util.AssignDeclare, "What := does with an unbound name: declare or strict")
	flag.BoolVar(&noBootstrap, "no-bootstrap", false, "Skip the embedded core library")
	flag.StringVar(&bootstrap, "bootstrap", "", "Extra library file evaluated into the root before each program")
	flag.IntVar(&parallel, "parallel", 1, "How many script files to run at once")
	// parser config
	flag.StringVar(&debugAST, "debug-ast", "", "Render the AST instead of running: json (writes <file>.ast.json) or text")
	// log config
	flag.StringVar(&logLevel, "log-level", "none", "Log level: debug, info, warn, error, none")
	flag.StringVar(&logFile, "log-file", "", "Log file path (if not set, logs to stderr)")
}

func main() {
	flag.Parse()
	os.Exit(run())
}

func run() int {
	if version {
		printVersion()
		return 0
	}
	if help {
		printHelp()
		return 0
	}

	config, err := loadConfiguration()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	// Creates a new Logger that uses a JSONHandler to write to the log writer
	loggerOptions := &slog.HandlerOptions{
		AddSource: false,
		Level:     logLevelFromString(config.Log.Level),
	}
	logWriter, closeLog := configureLogWriter(config.Log.File)
	defer closeLog()
	defaultLogger := slog.New(slog.NewJSONHandler(logWriter, loggerOptions))
	slog.SetDefault(defaultLogger)

	files := flag.Args()
	if debugAST != "" {
		return renderAST(files, debugAST)
	}
	if len(files) == 0 {
		return startRepl(config, defaultLogger)
	}
	return runFiles(files, config, defaultLogger)
}

// loadConfiguration reads -config, or the first default file present, and applies
// the flags given explicitly on the command line over it.
func loadConfiguration() (util.Configuration, error) {
	path := configPath
	if path == "" {
		for _, candidate := range defaultConfigFiles {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
	}
	config, err := util.LoadConfiguration(path)
	if err != nil {
		return config, err
	}
	config.Version = Version
	config.BuildDate = BuildDate
	config.Commit = Commit

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "assign-policy":
			config.AssignPolicy = assignPolicy
		case "no-bootstrap":
			config.NoBootstrap = noBootstrap
		case "bootstrap":
			config.Bootstrap = bootstrap
		case "parallel":
			config.Parallel = parallel
		case "log-level":
			config.Log.Level = logLevel
		case "log-file":
			config.Log.File = logFile
		}
	})
	return config, config.Validate()
}

func newInterpreter(config util.Configuration, logger *slog.Logger, out io.Writer) (*evaluator.Interpreter, error) {
	opts := []evaluator.Option{
		evaluator.WithConfiguration(config),
		evaluator.WithLogger(logger),
		evaluator.WithOutput(out),
	}
	if config.Bootstrap != "" {
		src, err := os.ReadFile(config.Bootstrap)
		if err != nil {
			return nil, fmt.Errorf("reading bootstrap library: %w", err)
		}
		opts = append(opts, evaluator.WithLibrary(config.Bootstrap, string(src)))
	}
	return evaluator.New(opts...)
}

func startRepl(config util.Configuration, logger *slog.Logger) int {
	interp, err := newInterpreter(config, logger, os.Stdout)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	var history string
	if home, err := os.UserHomeDir(); err == nil {
		history = filepath.Join(home, repl.HistoryFile)
	}
	fmt.Printf("plastic %s, :quit to leave\n", Version)
	if err := repl.Start(interp, os.Stdout, history); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

type fileResult struct {
	output bytes.Buffer
	err    error
	src    string
}

// runFiles runs every file as an independent program with its own interpreter.
// Output is buffered per file when files run in parallel and flushed in order.
func runFiles(files []string, config util.Configuration, logger *slog.Logger) int {
	results := make([]*fileResult, len(files))
	var g errgroup.Group
	g.SetLimit(config.Parallel)

	for i, file := range files {
		file := file
		res := &fileResult{}
		results[i] = res
		g.Go(func() error {
			var out io.Writer = os.Stdout
			if config.Parallel > 1 {
				out = &res.output
			}
			res.src, res.err = runFile(file, config, logger.With(slog.String("file", file)), out)
			return nil
		})
	}
	_ = g.Wait()

	status := 0
	for i, res := range results {
		os.Stdout.Write(res.output.Bytes())
		if res.err != nil {
			status = 1
			reportError(os.Stderr, files[i], res.src, res.err)
		}
	}
	return status
}

func runFile(file string, config util.Configuration, logger *slog.Logger, out io.Writer) (string, error) {
	src, err := os.ReadFile(file)
	if err != nil {
		return "", err
	}
	interp, err := newInterpreter(config, logger, out)
	if err != nil {
		return "", err
	}
	_, err = interp.Run(string(src))
	return string(src), err
}

func reportError(w io.Writer, file, src string, err error) {
	var synErr *parser.SyntaxError
	var rtErr *evaluator.RuntimeError
	switch {
	case errors.As(err, &rtErr):
		fmt.Fprintf(w, "%s:%d:%d: %v\n", file, rtErr.Line, rtErr.Column, rtErr.Err)
		fmt.Fprint(w, util.GetContextLines(src, rtErr.Line, rtErr.Column))
	case errors.As(err, &synErr):
		fmt.Fprintf(w, "%s:%d:%d: syntax error: %s\n", file, synErr.Line, synErr.Column, synErr.Msg)
		fmt.Fprint(w, util.GetContextLines(src, synErr.Line, synErr.Column))
	default:
		fmt.Fprintf(w, "%s: %v\n", file, err)
	}
}

func renderAST(files []string, format string) int {
	status := 0
	for _, file := range files {
		if err := renderFileAST(file, format); err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", file, err)
			status = 1
		}
	}
	return status
}

func renderFileAST(file, format string) error {
	src, err := os.ReadFile(file)
	if err != nil {
		return err
	}
	program, err := parser.Parse(string(src))
	if err != nil {
		return err
	}
	switch format {
	case "json":
		out, err := os.Create(file + ".ast.json")
		if err != nil {
			return err
		}
		defer out.Close()
		return parser.WriteASTToJSON(program, out)
	case "text":
		fmt.Print(parser.RenderASTAsText(program, 0))
		return nil
	}
	return fmt.Errorf("unknown AST format %q, want json or text", format)
}

// configureLogWriter opens logFile for appending, or falls back to stderr. The
// returned func closes whatever was opened.
func configureLogWriter(logFile string) (io.Writer, func()) {
	noop := func() {}
	if logFile == "" {
		return os.Stderr, noop
	}
	// Create parent directories if they don't exist
	if err := os.MkdirAll(filepath.Dir(logFile), 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "failed to create log directory for '%s': %v; falling back to stderr\n", logFile, err)
		return os.Stderr, noop
	}
	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open log file '%s': %v; falling back to stderr\n", logFile, err)
		return os.Stderr, noop
	}
	return f, func() {
		if err := f.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "failed to close log file '%s': %v\n", logFile, err)
		}
	}
}

func printVersion() {
	fmt.Printf("plastic version 'v%s' %s %s\n", Version, BuildDate, Commit)
}

func printHelp() {
	fmt.Printf(`Usage: plastic [options] [file...]

Options:
  -config <path>          Read settings from a .toml or .yaml file. Default: ./plastic.toml or ./plastic.yaml if present.
  -assign-policy <policy> What := does with an unbound name: 'declare' (default) or 'strict'.
  -no-bootstrap           Skip the embedded core library (for, repeat, max, min, abs).
  -bootstrap <path>       Evaluate an extra library file into the root before each program.
  -parallel <n>           Run up to n files at once, each in its own interpreter. Default is 1.
  -debug-ast <format>     Render the AST instead of running: 'json' writes <file>.ast.json, 'text' prints it.
  -help                   Display this help information and exit.
  -version                Display version information and exit.
  -log-level <level>      Set the log level: debug, info, warn, error, none. Default is 'none'.
  -log-file <path>        Specify a log file to write logs. Default is stderr.

Details:
Each file is an independent program. Without files an interactive session starts.

Examples:
  plastic                          Start the REPL
  plastic script.pla               Run a program
  plastic -parallel 4 a.pla b.pla  Run two programs concurrently
  plastic -log-level=debug x.pla   Run with debug logging

Version Information:
  Version:    %s
  Build Date: %s
  Commit:     %s
`, Version, BuildDate, Commit)
}

func logLevelFromString(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		// none
		return slog.LevelError + 4
	}
}
