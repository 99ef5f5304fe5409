/*
Package tracing gives each HTTP request a span and logs it when it finishes.

Trace and span IDs are ULIDs. A client may continue an existing trace by
sending X-Trace-ID and X-Span-ID; the response always carries the IDs of the
span that served it. Handlers open child spans with StartSpan on the request
context:

	span, ctx := tracer.StartSpan(c.Request.Context(), "render")
	defer func() { span.Finish(); tracer.Submit(span) }()

Completed spans are written through zap at debug level, or at warn level
when the span recorded an error.
*/
package tracing
