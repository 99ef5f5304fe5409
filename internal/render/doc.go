// Package render fills HTML templates from a variable context.
//
// Two marker forms are recognised:
//
//	{{{ expression }}}  value inserted as-is
//	{{ expression }}    value HTML-escaped before insertion
//
// Expressions are evaluated by the sandbox package. null and undefined
// render as the empty string; every other value goes through JavaScript
// String() coercion. Raw markers are processed first and their values are
// inert: a raw value that itself looks like a marker is copied to the output
// verbatim. Substitution is one-shot and never recursive.
//
// Usage:
//
//	r := render.New(sandbox.New(sandbox.DefaultConfig()))
//	html, err := r.Render("<p>{{ user.name }}</p>", sandbox.Context{
//		"user": map[string]interface{}{"name": "Ada"},
//	})
package render
