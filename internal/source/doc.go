// Package source loads templates and variable contexts from disk or over
// HTTP.
//
// Templates must be text. Their encoding is taken from the Content-Type
// charset when a server reports one, otherwise detected, and the result is
// always UTF-8. Contexts are JSON, YAML or TOML mappings.
package source
