/*
Package http holds the JSON handlers for the rendering service.

	GET  /           service name and version
	GET  /health     liveness
	GET  /v1/stats   running totals
	POST /v1/render   {template, context}            -> {html}
	POST /v1/evaluate {expression, context}          -> {value}
	POST /v1/escape   {value}                        -> {escaped}
	POST /v1/mount    {document, template, target, context} -> {html, target}

Expression failures answer 422 with {"error", "kind"} where kind is parse,
unsafe or runtime. Malformed bodies answer 400 and oversized templates 413.
Mount answers 404 when the template or target cannot be found.
*/
package http
