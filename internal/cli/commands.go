package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/PuerkitoBio/goquery"
	"github.com/bytedance/sonic"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/htmlx/internal/infrastructure/server"
	"github.com/GriffinCanCode/htmlx/internal/sandbox"
	"github.com/GriffinCanCode/htmlx/internal/source"
)

// Eval evaluates one expression.
type Eval struct {
	Expression string `arg:"" help:"Expression to evaluate."`
	Context    string `help:"Context file or URL (.json, .yaml, .yml, .toml)." short:"c"`
}

// Run prints the value as JSON, or as text when it has no JSON form.
func (e *Eval) Run(ctx context.Context, env *Env) error {
	vars, err := env.Context(ctx, e.Context)
	if err != nil {
		return err
	}
	value, err := env.Evaluator().Evaluate(e.Expression, vars)
	if err != nil {
		return err
	}

	out, err := sonic.Marshal(value)
	if err != nil {
		out = []byte(fmt.Sprint(value))
	}
	_, err = fmt.Fprintln(env.Stdout, string(out))
	return err
}

// Render renders one template, or every template under a directory that
// matches a glob.
type Render struct {
	Template string `arg:"" help:"Template file or URL, or a directory with --glob."`
	Context  string `help:"Context file or URL (.json, .yaml, .yml, .toml)." short:"c"`
	Glob     string `help:"Render every file under TEMPLATE matching this pattern, e.g. '**/*.html'."`
	Out      string `help:"Directory for rendered files. Defaults to stdout for a single template." short:"o" type:"path"`
}

// Run executes the render command.
func (r *Render) Run(ctx context.Context, env *Env) error {
	vars, err := env.Context(ctx, r.Context)
	if err != nil {
		return err
	}
	if r.Glob != "" {
		return r.renderTree(ctx, env, vars)
	}

	tmpl, err := env.Loader.Template(ctx, r.Template)
	if err != nil {
		return err
	}
	html, err := env.Renderer.Render(tmpl, vars)
	if err != nil {
		return err
	}
	if r.Out == "" {
		_, err = fmt.Fprint(env.Stdout, html)
		return err
	}

	name := filepath.Base(r.Template)
	if i := strings.IndexAny(name, "?#"); i >= 0 {
		name = name[:i]
	}
	return writeFile(filepath.Join(r.Out, name), html)
}

func (r *Render) renderTree(ctx context.Context, env *Env, vars sandbox.Context) error {
	if r.Out == "" {
		return errors.New("--out is required with --glob")
	}
	matches, err := source.FindTemplates(ctx, r.Template, r.Glob)
	if err != nil {
		return err
	}
	if len(matches) == 0 {
		return fmt.Errorf("no templates under %s match %q", r.Template, r.Glob)
	}

	for _, rel := range matches {
		tmpl, err := env.Loader.Template(ctx, filepath.Join(r.Template, filepath.FromSlash(rel)))
		if err != nil {
			return fmt.Errorf("%s: %w", rel, err)
		}
		html, err := env.Renderer.Render(tmpl, vars)
		if err != nil {
			return fmt.Errorf("%s: %w", rel, err)
		}
		if err := writeFile(filepath.Join(r.Out, filepath.FromSlash(rel)), html); err != nil {
			return err
		}
		env.Logger.Info("Rendered template", zap.String("template", rel))
	}
	return nil
}

// Mount renders a template element of a document into a target element.
type Mount struct {
	Document string `arg:"" help:"HTML document file or URL."`
	Template string `help:"Id of the template element." required:"" short:"t"`
	Target   string `help:"CSS selector, or XPath when it starts with '/' or '('." required:"" short:"s"`
	Context  string `help:"Context file or URL (.json, .yaml, .yml, .toml)." short:"c"`
}

// Run prints the updated document.
func (m *Mount) Run(ctx context.Context, env *Env) error {
	vars, err := env.Context(ctx, m.Context)
	if err != nil {
		return err
	}
	text, err := env.Loader.Template(ctx, m.Document)
	if err != nil {
		return err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(text))
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", m.Document, err)
	}
	if _, err := env.Mounter.Mount(doc, m.Template, m.Target, vars); err != nil {
		return err
	}

	html, err := doc.Html()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(env.Stdout, html)
	return err
}

// Serve runs the HTTP service. Configuration comes from the environment;
// flags override the listen address.
type Serve struct {
	Host string `help:"Listen host, overrides HOST."`
	Port string `help:"Listen port, overrides PORT." short:"p"`
}

// Run blocks until SIGINT or SIGTERM.
func (s *Serve) Run(ctx context.Context, cli *CLI) error {
	cfg, err := serveConfig(s, cli)
	if err != nil {
		return err
	}
	srv, err := server.NewServer(cfg, nil)
	if err != nil {
		return err
	}
	defer srv.Close()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	return srv.Run(ctx)
}

func writeFile(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(content), 0o644)
}
