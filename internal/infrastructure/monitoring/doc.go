/*
Package monitoring provides Prometheus metrics for the htmlx service.

# Overview

Metrics are registered on a registry owned by each Metrics value rather than
the global default registry. The service exposes that registry on /metrics.

# Collected

- HTTP request count, latency and sizes, labelled by route pattern
- Expression evaluations by outcome: ok, parse, unsafe, runtime
- Template renders by outcome and render latency
- Uptime, Go runtime and process collectors

# Usage

	metrics := monitoring.NewMetrics()
	router.Use(monitoring.Middleware(metrics))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	evaluator := sandbox.New(cfg).WithMetrics(metrics)
	renderer := render.New(evaluator).WithMetrics(metrics)
*/
package monitoring
