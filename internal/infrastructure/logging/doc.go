// Package logging provides structured logging using uber/zap.
//
// Two modes are available:
//   - Production: JSON lines for machine parsing
//   - Development: colored console output for humans
//
// The CLI logs to stderr in development mode; the HTTP service logs JSON to
// stdout unless LOG_DEV is set.
//
// Example Usage:
//
//	logger := logging.NewDefault()
//	defer logger.Sync()
//	logger.Info("Server starting", zap.String("port", "8000"))
package logging
