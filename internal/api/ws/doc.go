// Package ws serves live render sessions over WebSocket.
//
// A client binds a template once and then sends contexts; each context is
// answered with freshly rendered HTML. Binding a document, template id and
// target mounts into that document on every render, so the reply is the
// target's new inner HTML.
//
// Client frames:
//   - bind: {template} or {document, template, target}
//   - render: {context}
//   - ping
//
// Server frames: ready, bound, rendered {html}, pong, error {message, kind}.
//
//	handler := ws.NewHandler(renderer, mounter, origins, 1<<20, logger)
//	router.GET("/v1/live", handler.HandleConnection)
package ws
