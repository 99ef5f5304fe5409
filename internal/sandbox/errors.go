package sandbox

import (
	"errors"
	"fmt"
)

// Error kinds reported by Kind.
const (
	KindParse   = "parse"
	KindUnsafe  = "unsafe"
	KindRuntime = "runtime"
)

// ParseError reports expression text that is not valid syntax.
type ParseError struct {
	Expression string
	Message    string
	Err        error
}

func (e *ParseError) Error() string {
	return "unable to parse expression: " + e.Message
}

func (e *ParseError) Unwrap() error { return e.Err }

// UnsafeExpressionError reports an expression rejected by the safety checker.
// Exactly one of Identifier or Syntax is set.
type UnsafeExpressionError struct {
	Identifier string
	Syntax     string
	Reason     string
}

func (e *UnsafeExpressionError) Error() string {
	return e.Reason
}

// RuntimeError reports an exception raised while evaluating a vetted expression.
type RuntimeError struct {
	Expression string
	Message    string
	Err        error
}

func (e *RuntimeError) Error() string {
	return "error while evaluating expression: " + e.Message
}

func (e *RuntimeError) Unwrap() error { return e.Err }

func identifierViolation(name, format string) *UnsafeExpressionError {
	return &UnsafeExpressionError{
		Identifier: name,
		Reason:     fmt.Sprintf(format, name),
	}
}

func syntaxViolation(kind string) *UnsafeExpressionError {
	return &UnsafeExpressionError{
		Syntax: kind,
		Reason: fmt.Sprintf("the syntax %q is not permitted in expressions", kind),
	}
}

// Kind classifies err as KindParse, KindUnsafe or KindRuntime.
// It returns "" for errors that did not come from the sandbox.
func Kind(err error) string {
	var (
		parseErr   *ParseError
		unsafeErr  *UnsafeExpressionError
		runtimeErr *RuntimeError
	)
	switch {
	case errors.As(err, &unsafeErr):
		return KindUnsafe
	case errors.As(err, &parseErr):
		return KindParse
	case errors.As(err, &runtimeErr):
		return KindRuntime
	}
	return ""
}
