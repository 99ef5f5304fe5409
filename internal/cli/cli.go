package cli

import (
	"context"
	"io"
	"time"

	"github.com/alecthomas/kong"

	"github.com/GriffinCanCode/htmlx/internal/infrastructure/config"
	"github.com/GriffinCanCode/htmlx/internal/infrastructure/logging"
	"github.com/GriffinCanCode/htmlx/internal/mount"
	"github.com/GriffinCanCode/htmlx/internal/render"
	"github.com/GriffinCanCode/htmlx/internal/sandbox"
	"github.com/GriffinCanCode/htmlx/internal/source"
)

// CLI is the top-level command-line interface for htmlx.
type CLI struct {
	LogLevel     string        `help:"Log level written to stderr." default:"warn" enum:"debug,info,warn,error" name:"log-level"`
	Timeout      time.Duration `help:"Time limit per expression, 0 for none." default:"0s"`
	MaxCallStack int           `help:"Call stack limit per expression, 0 for none." default:"0" name:"max-call-stack"`
	Retries      int           `help:"Retries for remote templates and contexts." default:"3"`

	Version kong.VersionFlag `help:"Print the version and exit."`

	Eval   Eval   `cmd:"" help:"Evaluate one expression and print it as JSON."`
	Render Render `cmd:"" help:"Render a template file or URL."`
	Mount  Mount  `cmd:"" help:"Render a template element into a target element of a document."`
	Serve  Serve  `cmd:"" help:"Run the HTTP rendering service."`
}

// Env carries what every command needs once flags are parsed.
type Env struct {
	Stdout   io.Writer
	Logger   *logging.Logger
	Loader   *source.Loader
	Renderer *render.Renderer
	Mounter  *mount.Mounter
}

// Evaluator returns the renderer's expression evaluator.
func (e *Env) Evaluator() *sandbox.Evaluator {
	return e.Renderer.Evaluator()
}

// Context loads the expression context named by ref, or an empty one.
func (e *Env) Context(ctx context.Context, ref string) (sandbox.Context, error) {
	if ref == "" {
		return sandbox.Context{}, nil
	}
	return e.Loader.Context(ctx, ref)
}

// Run parses args and executes the selected command. exit is called by kong
// for --help and usage errors.
func Run(ctx context.Context, stdout, stderr io.Writer, exit func(int), args ...string) error {
	var cli CLI

	parser, err := kong.New(&cli,
		kong.Name("htmlx"),
		kong.Description("Render HTML templates with sandboxed expressions."),
		kong.UsageOnError(),
		kong.Exit(exit),
		kong.Writers(stdout, stderr),
		kong.Vars{"version": mount.Version},
		kong.BindSingletonProvider(func() context.Context {
			return ctx
		}),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
			Summary: true,
		}),
	)
	if err != nil {
		return err
	}

	ktx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	logger, err := logging.New(logging.CLIConfig(cli.LogLevel))
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	return ktx.Run(cli.env(stdout, logger), &cli)
}

func (c *CLI) env(stdout io.Writer, logger *logging.Logger) *Env {
	evaluator := sandbox.New(sandbox.Config{
		Timeout:          c.Timeout,
		MaxCallStackSize: c.MaxCallStack,
	}).WithLogger(logger.Named("sandbox").Logger)
	renderer := render.New(evaluator).WithLogger(logger.Named("render").Logger)

	fetch := source.DefaultConfig()
	fetch.Retries = c.Retries

	return &Env{
		Stdout:   stdout,
		Logger:   logger,
		Loader:   source.NewLoader(fetch, logger.Named("source").Logger),
		Renderer: renderer,
		Mounter:  mount.New(renderer).WithLogger(logger.Named("mount").Logger),
	}
}

// serveConfig loads service configuration from the environment, letting the
// command flags override it.
func serveConfig(s *Serve, cli *CLI) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if s.Host != "" {
		cfg.Server.Host = s.Host
	}
	if s.Port != "" {
		cfg.Server.Port = s.Port
	}
	if cli.Timeout > 0 {
		cfg.Sandbox.Timeout = cli.Timeout
	}
	if cli.MaxCallStack > 0 {
		cfg.Sandbox.MaxCallStackSize = cli.MaxCallStack
	}
	return cfg, cfg.Validate()
}
