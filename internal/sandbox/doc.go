/*
Package sandbox evaluates small JavaScript expressions against a caller
supplied set of variables without giving them access to globals, timers,
the network or the DOM.

# Overview

Evaluation runs in three steps:

 1. Parse: the expression is parsed by goja's parser, wrapped in
    parentheses exactly as it will later run.
 2. Check: the tree is walked twice. The first pass rejects references to
    denied identifiers (window, globalThis, self, document, Function, eval,
    setTimeout, setInterval, fetch), including member access and calls
    rooted at them. The second pass rejects denied syntax kinds anywhere in
    the tree: function and arrow literals, new, import(), meta properties,
    ++/--, with, yield, await, this and super.
 3. Evaluate: a fresh goja runtime compiles a strict-mode function whose
    parameters are the context keys and whose body returns the expression,
    then calls it with the context values.

# Errors

Each step has its own error type: *ParseError, *UnsafeExpressionError and
*RuntimeError. Kind maps any of them to a short label for logs and metrics.

# Limits

The denylist is the security boundary. It does not follow property chains
past their root, so a context value whose methods reach a forbidden
capability is not defended against. Evaluation time is unbounded unless
Config.Timeout is set.

# Usage Example

	ev := sandbox.New(sandbox.DefaultConfig())
	v, err := ev.Evaluate("user.name.toUpperCase()", sandbox.Context{
		"user": map[string]interface{}{"name": "ada"},
	})
*/
package sandbox
