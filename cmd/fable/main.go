package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"fable/internal/codegen"
	"fable/internal/engine"
	"fable/internal/lexer"
	"fable/internal/native"
	"fable/internal/object"
	"fable/internal/parser"
	"fable/internal/repl"
	"fable/internal/util"
	"fable/internal/util/future"
)

var (
	// Version is stamped at build time.
	Version   = "dev"
	BuildDate = "unknown"
	Commit    = "unknown"

	help    bool
	version bool
	// logging
	logLevel string
	logFile  string
	// run config
	configPath   string
	manifestPath string
	target       string
	seed         int64
	ticks        int
)

func init() {
	flag.BoolVar(&help, "help", false, "Display help information and exit")
	flag.BoolVar(&help, "h", false, "Display help information and exit")
	flag.BoolVar(&version, "version", false, "Display version information and exit")
	flag.BoolVar(&version, "v", false, "Display version information and exit")
	flag.StringVar(&configPath, "config", "fable.toml", "Path to the TOML configuration file")
	flag.StringVar(&manifestPath, "manifest", "", "Path to a YAML run manifest")
	flag.StringVar(&target, "target", "", "Transpile to a target (js, lua, py, all) instead of running")
	flag.Int64Var(&seed, "seed", 0, "Seed for the default generator handle")
	flag.IntVar(&ticks, "ticks", 0, "Number of tick passes to run after init")
	flag.StringVar(&logLevel, "log-level", "error", "Log level: debug, info, warn, error")
	flag.StringVar(&logFile, "log-file", "", "Log file path (if not set, logs to stderr)")
}

func main() {
	flag.Parse()

	loggerOptions := &slog.HandlerOptions{
		AddSource: false,
		Level:     logLevelFromString(logLevel),
	}
	logWriter := configureLogWriter()
	slog.SetDefault(slog.New(slog.NewJSONHandler(logWriter, loggerOptions)))

	if version {
		printVersion()
		return
	}
	if help {
		printHelp()
		return
	}

	cfg, err := util.LoadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fable: %v\n", err)
		os.Exit(1)
	}
	cfg.Version = Version
	cfg.BuildDate = BuildDate
	cfg.Commit = Commit

	var manifest *Manifest
	if manifestPath != "" {
		manifest, err = LoadManifest(manifestPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "fable: %v\n", err)
			os.Exit(1)
		}
	}

	fileName := flag.Arg(0)
	if manifest != nil && fileName == "" {
		fileName = manifest.Script
	}
	if fileName == "" {
		repl.Start(os.Stdin, os.Stdout)
		return
	}

	src, lineMap, err := loadScript(fileName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fable: %v\n", err)
		os.Exit(1)
	}

	runTarget := target
	if runTarget == "" && manifest != nil {
		runTarget = manifest.Target
	}
	if runTarget == "default" {
		runTarget = cfg.DefaultTarget
	}
	if runTarget == "all" {
		if err := transpileAll(src, fileName); err != nil {
			fmt.Fprintln(os.Stderr, diagnostic(err, src, lineMap))
			os.Exit(1)
		}
		return
	}
	if runTarget != "" {
		if err := transpile(src, runTarget); err != nil {
			fmt.Fprintln(os.Stderr, diagnostic(err, src, lineMap))
			os.Exit(1)
		}
		return
	}

	if err := run(src, lineMap, cfg, manifest); err != nil {
		fmt.Fprintln(os.Stderr, diagnostic(err, src, lineMap))
		os.Exit(1)
	}
}

// loadScript reads a .fab file directly, or extracts the fable blocks from a
// markdown document along with their line map.
func loadScript(fileName string) (string, LineMap, error) {
	data, err := os.ReadFile(fileName)
	if err != nil {
		return "", nil, fmt.Errorf("read %s: %w", fileName, err)
	}
	src := string(data)

	ext := strings.ToLower(filepath.Ext(fileName))
	if ext == ".md" || ext == ".markdown" {
		code, lineMap := ExtractFable(src)
		if code == "" {
			return "", nil, fmt.Errorf("%s contains no fable blocks", fileName)
		}
		return code, lineMap, nil
	}
	return src, nil, nil
}

func transpile(src, target string) error {
	program, err := engine.Parse(src)
	if err != nil {
		return err
	}
	out, err := engine.Generate(program, target)
	if err != nil {
		return err
	}
	fmt.Print(out)
	return nil
}

// transpileAll emits every registered target in parallel, one output file per
// target next to the script.
func transpileAll(src, fileName string) error {
	program, err := engine.Parse(src)
	if err != nil {
		return err
	}

	targets := codegen.Targets()
	futures := make([]*future.Future[string], len(targets))
	for i, name := range targets {
		name := name
		futures[i] = future.New(func() (string, error) {
			return engine.Generate(program, name)
		})
	}
	outputs, err := future.All(futures...).Await()
	if err != nil {
		return err
	}

	base := strings.TrimSuffix(fileName, filepath.Ext(fileName))
	for i, name := range targets {
		outName := base + "." + name
		if err := os.WriteFile(outName, []byte(outputs[i]), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", outName, err)
		}
		slog.Info("transpiled", slog.String("target", name), slog.String("file", outName))
	}
	return nil
}

func run(src string, lineMap LineMap, cfg util.Configuration, manifest *Manifest) error {
	reg := native.NewRegistry()

	runSeed := cfg.Seed
	if manifest != nil && manifest.Seed != 0 {
		runSeed = manifest.Seed
	}
	if seed != 0 {
		runSeed = seed
	}
	reg.SetDefaultSeed(runSeed)

	if cfg.Storage.Enabled || (manifest != nil && manifest.nativeEnabled("storage")) {
		reg.EnableStorage()
	}

	tickCount := ticks
	if tickCount == 0 && manifest != nil {
		tickCount = manifest.Ticks
	}
	if tickCount > cfg.TickLimit {
		tickCount = cfg.TickLimit
	}

	// tickBudget lets scripts see how many tick passes remain
	remaining := tickCount
	reg.Register(&object.Native{
		Name:  "tickBudget",
		Arity: 0,
		Fn: func(ctx object.CallContext, args ...object.Object) object.Object {
			return &object.Integer{Value: int64(remaining)}
		},
	})

	instance, err := engine.NewInstance(src, reg)
	if err != nil {
		return err
	}

	if err := instance.RunInit(); err != nil {
		return err
	}
	for i := 0; i < tickCount; i++ {
		remaining = tickCount - i - 1
		if err := instance.RunTick(); err != nil {
			return err
		}
	}
	return nil
}

// diagnostic renders err. Script lines are remapped back to document lines
// when the source came out of a markdown file; plain scripts get the
// offending line with a caret.
func diagnostic(err error, src string, lineMap LineMap) string {
	var line, col int
	var what string
	switch e := err.(type) {
	case *lexer.LexError:
		line, col, what = e.Line, e.Col, "lex error: "+e.Message
	case *parser.ParseError:
		line, col, what = e.Line, e.Col, "parse error: "+e.Message
	case *object.Fault:
		line, col, what = e.Line, e.Col, string(e.Kind)+": "+e.Message
	default:
		return "fable: " + err.Error()
	}

	if lineMap != nil {
		return fmt.Sprintf("fable: %d:%d: %s", lineMap.DocLine(line), col, what)
	}
	msg := fmt.Sprintf("fable: %d:%d: %s", line, col, what)
	if ctx := util.ContextLines(src, line, col); ctx != "" {
		msg += "\n" + ctx
	}
	return msg
}

func configureLogWriter() *os.File {
	var logWriter *os.File
	var err error
	if logFile != "" {
		if err := os.MkdirAll(filepath.Dir(logFile), 0o755); err != nil {
			fmt.Fprintf(os.Stderr, "failed to create log directory for '%s': %v; falling back to stderr\n", logFile, err)
			return os.Stderr
		}
		logWriter, err = os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to open log file '%s': %v; falling back to stderr\n", logFile, err)
			logWriter = os.Stderr
		}
	} else {
		logWriter = os.Stderr
	}
	return logWriter
}

func printVersion() {
	fmt.Printf("fable version 'v%s' %s %s\n", Version, BuildDate, Commit)
}

func printHelp() {
	fmt.Printf(`Usage: fable [options] [filename]

Options:
  -config <path>     Path to the TOML configuration file. Default is 'fable.toml'.
  -manifest <path>   Path to a YAML run manifest naming script, seed, ticks.
  -target <name>     Transpile to a target (js, lua, py) instead of running.
                     'all' writes one output file per target next to the
                     script; 'default' uses default_target from fable.toml.
  -seed <n>          Seed for the default generator handle.
  -ticks <n>         Number of tick passes to run after init.
  -help              Display this help information and exit.
  -version           Display version information and exit.
  -log-level <level> Set the log level: debug, info, warn, error. Default is 'error'.
  -log-file <path>   Specify a log file to write logs. Default is stderr.

Details:
Fable is a small deterministic scripting language. Scripts are plain .fab
files or fenced blocks tagged 'fable' inside markdown documents.

Examples:
  fable                         Start the interactive REPL
  fable story.md                Extract and run the fable blocks in story.md
  fable -target=lua game.fab    Transpile game.fab to Lua on stdout
  fable -seed=42 -ticks=10 game.fab

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
		return slog.LevelError
	}
}
