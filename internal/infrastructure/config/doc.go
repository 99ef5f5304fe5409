// Package config provides 12-factor configuration for the htmlx service
// and CLI.
//
// Configuration is loaded from environment variables with defaults. CLI
// flags override individual values.
//
// Environment Variables:
//   - PORT, HOST, SHUTDOWN_TIMEOUT, CORS_ORIGINS
//   - LOG_LEVEL, LOG_DEV
//   - SANDBOX_TIMEOUT, SANDBOX_MAX_CALL_STACK
//   - RENDER_MAX_TEMPLATE_BYTES, RENDER_SANITIZE
//   - RATE_LIMIT_RPS, RATE_LIMIT_BURST, RATE_LIMIT_ENABLED
//   - FETCH_RETRIES, FETCH_TIMEOUT
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	fmt.Printf("Listening on %s\n", cfg.Server.Address())
package config
