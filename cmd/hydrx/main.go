// Command hydrx inspects the hydration plans of Go structs.
//
// Usage:
//
//	hydrx plan ./internal/models
//	hydrx validate --config hydrx.yaml ./internal/models
//	hydrx init
//	hydrx coverage --type Meal --source meals.csv ./internal/models
//	hydrx coverage --type Meal --source s3://bucket/meals.xlsx --sheet Week1 ./internal/models
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/hengadev/hydrx"
	"github.com/hengadev/hydrx/internal/monitoring"
	s3bucket "github.com/hengadev/hydrx/providers/s3"
)

// CLI defines the command-line interface.
type CLI struct {
	Plan     PlanCmd     `cmd:"" help:"List the lookup keys of tagged structs in plan order."`
	Validate ValidateCmd `cmd:"" help:"Validate the configuration file and struct tags."`
	Init     InitCmd     `cmd:"" help:"Write a default configuration file."`
	Coverage CoverageCmd `cmd:"" help:"Compare a struct's keys with the columns of a CSV, XLSX or S3 source."`
	Version  VersionCmd  `cmd:"" help:"Show version information."`

	Config    string `short:"c" help:"Path to config file." default:"hydrx.yaml" type:"path"`
	LogLevel  string `help:"Log level (debug, info, warn, error)." default:"warn" env:"HYDRX_LOG_LEVEL"`
	LogFormat string `help:"Log format (json, text)." default:"text" env:"HYDRX_LOG_FORMAT"`
}

// Env carries what commands share at run time.
type Env struct {
	Ctx    context.Context
	Out    io.Writer
	Logger *slog.Logger
	// S3 replaces the client built from the default AWS configuration.
	S3 s3bucket.AWSS3Downloader
}

func newLogger(level, format string, w io.Writer) (*slog.Logger, error) {
	lvl, err := monitoring.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	f, err := monitoring.ParseFormat(format)
	if err != nil {
		return nil, err
	}
	return monitoring.NewLogger(monitoring.LoggerConfig{
		Level:     lvl,
		Format:    f,
		Output:    w,
		Component: "cli",
	}), nil
}

// tagName resolves the struct tag to scan for: the flag wins, then the
// config file when one exists, then the default.
func (c *CLI) tagName(flag string, logger *slog.Logger) string {
	if flag != "" {
		return flag
	}
	cfg, err := hydrx.LoadConfigFile(c.Config)
	if err != nil {
		logger.Debug("using default tag name", "config", c.Config, "error", err)
		return hydrx.DefaultTagName
	}
	return cfg.TagName
}

// run parses args and runs the selected command. env must carry Ctx and
// Out; the logger is built from the parsed flags.
func run(args []string, env *Env, stderr io.Writer, exit func(int)) error {
	var cli CLI
	parser, err := kong.New(&cli,
		kong.Name("hydrx"),
		kong.Description("Inspect hydration plans and check sources against them."),
		kong.UsageOnError(),
		kong.Writers(env.Out, stderr),
		kong.Exit(exit),
	)
	if err != nil {
		return err
	}

	kctx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	logger, err := newLogger(cli.LogLevel, cli.LogFormat, stderr)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	env.Logger = logger
	return kctx.Run(&cli, env)
}

// errFailed marks a command that already reported its problems.
var errFailed = errors.New("validation failed")

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(os.Args[1:], &Env{Ctx: ctx, Out: os.Stdout}, os.Stderr, os.Exit); err != nil {
		if !errors.Is(err, errFailed) {
			fmt.Fprintf(os.Stderr, "hydrx: %v\n", err)
		}
		cancel()
		os.Exit(1)
	}
}
