package sandbox

import (
	"fmt"
	"strings"
	"time"

	"github.com/dop251/goja"
	"github.com/dop251/goja/ast"
	"github.com/dop251/goja/parser"
	"go.uber.org/zap"
)

// Evaluator parses, vets and evaluates expressions. It holds no per-call
// state and is safe for concurrent use.
type Evaluator struct {
	config  Config
	logger  *zap.Logger
	metrics Metrics
}

// New creates an evaluator with the given limits.
func New(config Config) *Evaluator {
	return &Evaluator{
		config: config,
		logger: zap.NewNop(),
	}
}

// WithLogger attaches a logger used for rejected and failed expressions.
func (e *Evaluator) WithLogger(logger *zap.Logger) *Evaluator {
	if logger != nil {
		e.logger = logger
	}
	return e
}

// WithMetrics attaches an evaluation metrics sink.
func (e *Evaluator) WithMetrics(metrics Metrics) *Evaluator {
	e.metrics = metrics
	return e
}

// Parse parses expression text, wrapped in parentheses exactly as it will be
// evaluated, with the latest syntax the parser supports. Vetting the wrapped
// form matters: `{}/x/i` is a regexp literal as a statement but a division as
// an expression.
func Parse(expression string) (*ast.Program, error) {
	prog, err := parser.ParseFile(nil, "", frame(expression), 0, parser.WithDisableSourceMaps)
	if err != nil {
		return nil, &ParseError{Expression: expression, Message: err.Error(), Err: err}
	}
	return prog, nil
}

// frame wraps an expression in parentheses on their own lines so a trailing
// line comment cannot swallow the closing parenthesis.
func frame(expression string) string {
	return "(\n" + expression + "\n)"
}

// Evaluate returns the value of expression with vars as its only bindings.
// null and undefined come back as nil. An empty expression yields "".
func (e *Evaluator) Evaluate(expression string, vars Context) (interface{}, error) {
	var out interface{} = ""
	err := e.run(expression, vars, func(_ *Runtime, v goja.Value) error {
		out = exportValue(v)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// EvaluateString is Evaluate followed by JavaScript String() coercion. ok is
// false when the value was null or undefined.
func (e *Evaluator) EvaluateString(expression string, vars Context) (s string, ok bool, err error) {
	ok = true
	err = e.run(expression, vars, func(r *Runtime, v goja.Value) error {
		if isNullish(v) {
			ok = false
			return nil
		}
		str, err := r.stringify(v)
		if err != nil {
			return &RuntimeError{Expression: expression, Message: r.message(err), Err: err}
		}
		s = str
		return nil
	})
	if err != nil {
		return "", false, err
	}
	return s, ok, nil
}

// run drives parse, check and evaluation. use is called with the result while
// the runtime that produced it is still alive.
func (e *Evaluator) run(expression string, vars Context, use func(*Runtime, goja.Value) error) (err error) {
	trimmed := strings.TrimSpace(expression)
	if trimmed == "" {
		return nil
	}

	start := time.Now()
	defer func() {
		e.observe(trimmed, start, err)
	}()

	prog, err := Parse(trimmed)
	if err != nil {
		return err
	}
	if err := Check(prog); err != nil {
		return err
	}
	if !isSingleExpression(prog) {
		return &ParseError{Expression: trimmed, Message: "expected a single expression"}
	}

	names := vars.names()
	for _, name := range names {
		if !bindable(name) {
			return &RuntimeError{Expression: trimmed, Message: fmt.Sprintf("invalid context key %q", name)}
		}
	}

	r, err := newRuntime(e.config)
	if err != nil {
		return &RuntimeError{Expression: trimmed, Message: err.Error(), Err: err}
	}

	values := make([]interface{}, len(names))
	for i, name := range names {
		values[i] = vars[name]
	}

	result, err := r.call(names, values, trimmed)
	if err != nil {
		return &RuntimeError{Expression: trimmed, Message: r.message(err), Err: err}
	}
	return use(r, result)
}

// Names that parse as identifiers but cannot be strict-mode parameters.
var strictReserved = map[string]bool{
	"arguments": true, "await": true, "eval": true, "implements": true,
	"interface": true, "let": true, "package": true, "private": true,
	"protected": true, "public": true, "static": true, "yield": true,
}

// bindable reports whether name is a single plain identifier. Context keys
// become parameter names of the evaluation wrapper.
func bindable(name string) bool {
	if name == "" || strictReserved[name] {
		return false
	}
	prog, err := parser.ParseFile(nil, "", name, 0, parser.WithDisableSourceMaps)
	if err != nil || len(prog.Body) != 1 {
		return false
	}
	stmt, ok := prog.Body[0].(*ast.ExpressionStatement)
	if !ok {
		return false
	}
	id, ok := stmt.Expression.(*ast.Identifier)
	return ok && id.Name.String() == name
}

func (e *Evaluator) observe(expression string, start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = Kind(err)
		e.logger.Debug("Expression failed",
			zap.String("kind", outcome),
			zap.String("expression", expression),
			zap.Error(err),
		)
	}
	if e.metrics != nil {
		e.metrics.RecordEvaluation(outcome, time.Since(start))
	}
}

func isSingleExpression(prog *ast.Program) bool {
	if len(prog.Body) != 1 {
		return false
	}
	_, ok := prog.Body[0].(*ast.ExpressionStatement)
	return ok
}
