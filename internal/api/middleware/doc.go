// Package middleware provides the HTTP middleware stack of the htmlx
// service.
//
// Middleware stack includes:
//   - Recovery: panic recovery with a JSON 500 response
//   - RequestID: X-Request-ID propagation
//   - Logger: zap access log
//   - CORS: cross-origin resource sharing with configurable origins
//   - RateLimit: per-IP token bucket rate limiting with idle eviction
//
// Example Usage:
//
//	router.Use(middleware.Recovery(logger), middleware.RequestID(), middleware.Logger(logger))
//	router.Use(middleware.CORS(middleware.CORSConfigFor(cfg.Server.CORSOrigins)))
//	router.Use(middleware.RateLimit(middleware.DefaultRateLimitConfig()))
package middleware
