package sandbox

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dop251/goja"
)

// ErrTimeout is the interrupt value used when Config.Timeout elapses.
var ErrTimeout = errors.New("expression evaluation timeout exceeded")

// Runtime wraps a goja VM built for a single evaluation. It is never reused:
// every call gets a fresh global object and a fresh parameter scope.
type Runtime struct {
	vm     *goja.Runtime
	config Config
}

// newRuntime creates a VM with the denied globals stripped.
func newRuntime(config Config) (*Runtime, error) {
	vm := goja.New()
	if config.MaxCallStackSize > 0 {
		vm.SetMaxCallStackSize(config.MaxCallStackSize)
	}

	r := &Runtime{vm: vm, config: config}
	if err := r.setupGlobals(); err != nil {
		return nil, err
	}
	return r, nil
}

// setupGlobals removes denied names from the global object and detaches the
// Function constructor from Function.prototype so it cannot be recovered
// through any function value's prototype chain.
func (r *Runtime) setupGlobals() error {
	global := r.vm.GlobalObject()

	if fn, ok := global.Get("Function").(*goja.Object); ok {
		if proto, ok := fn.Get("prototype").(*goja.Object); ok {
			if err := proto.Delete("constructor"); err != nil {
				return fmt.Errorf("failed to detach Function constructor: %w", err)
			}
		}
	}

	for _, name := range DeniedIdentifiers() {
		if err := global.Delete(name); err != nil {
			return fmt.Errorf("failed to remove global %q: %w", name, err)
		}
	}
	return nil
}

// call compiles expression as the return value of a strict-mode function
// whose parameters are exactly names, then invokes it with values.
func (r *Runtime) call(names []string, values []interface{}, expression string) (result goja.Value, err error) {
	src := "(function(" + strings.Join(names, ", ") + ") {\"use strict\"; return " + frame(expression) + ";})"

	prg, err := goja.Compile("", src, true)
	if err != nil {
		return nil, err
	}

	if r.config.Timeout > 0 {
		timer := time.AfterFunc(r.config.Timeout, func() {
			r.vm.Interrupt(ErrTimeout)
		})
		defer timer.Stop()
	}

	// Panics raised by Go values supplied in the context surface as errors.
	defer func() {
		if p := recover(); p != nil {
			result, err = nil, fmt.Errorf("%v", p)
		}
	}()

	fnVal, err := r.vm.RunProgram(prg)
	if err != nil {
		return nil, err
	}
	fn, ok := goja.AssertFunction(fnVal)
	if !ok {
		return nil, errors.New("compiled expression is not callable")
	}

	args := make([]goja.Value, len(values))
	for i, v := range values {
		args[i] = r.vm.ToValue(v)
	}
	return fn(goja.Undefined(), args...)
}

// stringify applies JavaScript String() coercion, catching exceptions thrown
// by user-visible toString implementations.
func (r *Runtime) stringify(v goja.Value) (s string, err error) {
	if ex := r.vm.Try(func() { s = v.String() }); ex != nil {
		return "", ex
	}
	return s, nil
}

// message extracts the diagnostic a JS author would see for err.
func (r *Runtime) message(err error) string {
	var interrupted *goja.InterruptedError
	if errors.As(err, &interrupted) {
		return fmt.Sprint(interrupted.Value())
	}

	var ex *goja.Exception
	if errors.As(err, &ex) {
		var msg string
		r.vm.Try(func() {
			if obj, ok := ex.Value().(*goja.Object); ok {
				if m := obj.Get("message"); m != nil && !goja.IsUndefined(m) {
					msg = m.String()
					return
				}
			}
			msg = ex.Value().String()
		})
		if msg != "" {
			return msg
		}
	}
	return err.Error()
}

// isNullish reports whether v is JavaScript null or undefined.
func isNullish(v goja.Value) bool {
	return v == nil || goja.IsUndefined(v) || goja.IsNull(v)
}

// exportValue converts a goja value to a Go value.
func exportValue(v goja.Value) interface{} {
	if isNullish(v) {
		return nil
	}
	return v.Export()
}
