package sandbox

import (
	"sort"
	"time"
)

// Context maps variable names to the values an expression may reference.
// It is read, never written, and nothing derived from it outlives the call.
type Context map[string]interface{}

// Config defines evaluation limits. The zero value evaluates without limits.
type Config struct {
	Timeout          time.Duration // Interrupt evaluation after this long; 0 disables
	MaxCallStackSize int           // Maximum JS call depth; 0 keeps the engine default
}

// Metrics receives one observation per evaluation. outcome is "ok" or one of
// the error kinds returned by Kind.
type Metrics interface {
	RecordEvaluation(outcome string, duration time.Duration)
}

// DefaultConfig returns the configuration used when none is supplied.
func DefaultConfig() Config {
	return Config{}
}

// names returns the context keys in a stable order so parameter names and
// argument values stay positionally aligned.
func (c Context) names() []string {
	return keys(map[string]interface{}(c))
}

func keys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
