/*
Package server assembles the htmlx HTTP service.

NewServer builds the sandbox, renderer and mounter from configuration and
mounts them behind gin with recovery, request IDs, tracing, Prometheus
metrics, access logging, CORS and optional per-client rate limiting.
Responses are gzip-compressed when the client accepts it.

	srv, err := server.NewServer(cfg, logger)
	if err != nil {
		return err
	}
	defer srv.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return srv.Run(ctx)
*/
package server
