package source

import (
	"errors"
	"fmt"
	"time"
)

const (
	// DefaultMaxBytes limits template and context documents to 10MB.
	DefaultMaxBytes = 10 * 1024 * 1024

	// DefaultTimeout bounds a single HTTP attempt.
	DefaultTimeout = 30 * time.Second
)

var (
	ErrNotText           = errors.New("not a text document")
	ErrTooLarge          = errors.New("document too large")
	ErrUnsupportedFormat = errors.New("unsupported context format")
)

// Config controls how documents are read and fetched.
type Config struct {
	MaxBytes          int64
	Retries           int
	RetryWaitMin      time.Duration
	RetryWaitMax      time.Duration
	Timeout           time.Duration
	RequestsPerSecond float64
}

// DefaultConfig returns the loader defaults.
func DefaultConfig() Config {
	return Config{
		MaxBytes:     DefaultMaxBytes,
		Retries:      3,
		RetryWaitMin: 1 * time.Second,
		RetryWaitMax: 30 * time.Second,
		Timeout:      DefaultTimeout,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.MaxBytes <= 0 {
		c.MaxBytes = d.MaxBytes
	}
	if c.Retries < 0 {
		c.Retries = 0
	}
	if c.RetryWaitMin <= 0 {
		c.RetryWaitMin = d.RetryWaitMin
	}
	if c.RetryWaitMax < c.RetryWaitMin {
		c.RetryWaitMax = c.RetryWaitMin
	}
	if c.Timeout <= 0 {
		c.Timeout = d.Timeout
	}
	return c
}

// StatusError is returned for HTTP responses with a 4xx or 5xx status.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.StatusCode)
}
