package tracing

import (
	"crypto/rand"
	"io"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// IDGenerator issues ULIDs for traces and spans. ULIDs sort by creation
// time, so span IDs in a log read in start order.
type IDGenerator struct {
	mu      sync.Mutex
	entropy io.Reader
}

// NewIDGenerator creates a generator reading from crypto/rand.
func NewIDGenerator() *IDGenerator {
	return NewIDGeneratorWithEntropy(rand.Reader)
}

// NewIDGeneratorWithEntropy creates a generator with a custom entropy
// source, used by tests that need deterministic IDs.
func NewIDGeneratorWithEntropy(entropy io.Reader) *IDGenerator {
	return &IDGenerator{entropy: entropy}
}

// Next returns a fresh ULID string.
func (g *IDGenerator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy).String()
}

// ValidID reports whether s is a well-formed ULID. Incoming trace headers
// that fail this check are ignored.
func ValidID(s string) bool {
	_, err := ulid.ParseStrict(s)
	return err == nil
}
