// Package cli implements the htmlx command line.
//
//	htmlx eval 'user.name.toUpperCase()' -c user.json
//	htmlx render page.html -c data.yaml
//	htmlx render templates --glob '**/*.html' --out dist -c data.toml
//	htmlx mount index.html --template card --target '#main' -c data.json
//	htmlx serve --port 8080
//
// Templates, documents and contexts may be local paths or http(s) URLs.
package cli
