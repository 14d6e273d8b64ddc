// Package util provides identifier and time helpers shared across kldash.
package util

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// IDGenerator hands out time-ordered UUIDv7 trace identifiers.
type IDGenerator struct {
	mu sync.Mutex
}

// NewIDGenerator creates a new ID generator.
func NewIDGenerator() *IDGenerator {
	return &IDGenerator{}
}

// NewID generates a new UUIDv7 identifier. It falls back to a random
// UUIDv4 if the clock-based generator fails.
func (g *IDGenerator) NewID() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}

var generator = NewIDGenerator()

// NewID generates a new UUIDv7 identifier from the package generator.
func NewID() string {
	return generator.NewID()
}

// ParseID validates and normalizes a UUID string.
func ParseID(s string) (string, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return "", fmt.Errorf("invalid ID format: %w", err)
	}
	return id.String(), nil
}

// RunIDGenerator issues simulation run identifiers of the form
// SIM-<unix millis>. Runs in the same millisecond get the next free value
// so identifiers stay unique within a process.
type RunIDGenerator struct {
	mu   sync.Mutex
	last int64
}

// NewRunIDGenerator creates a new run identifier generator.
func NewRunIDGenerator() *RunIDGenerator {
	return &RunIDGenerator{}
}

// Next returns the identifier for a run executed at t.
func (r *RunIDGenerator) Next(t time.Time) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	ms := t.UnixMilli()
	if ms <= r.last {
		ms = r.last + 1
	}
	r.last = ms
	return fmt.Sprintf("SIM-%d", ms)
}
