package testutil

import (
	"fmt"
	"sync"
)

// FixedRunIDGenerator returns predictable run IDs for tests.
//
// The first call returns the prefix with suffix 1, then 2, and so on:
//
//	gen := NewFixedRunIDGenerator("run")
//	gen.Generate() // "run-1"
//	gen.Generate() // "run-2"
//
// Thread-safety: FixedRunIDGenerator is safe for concurrent use via internal mutex.
type FixedRunIDGenerator struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewFixedRunIDGenerator creates a generator. An empty prefix defaults to "test-run".
func NewFixedRunIDGenerator(prefix string) *FixedRunIDGenerator {
	if prefix == "" {
		prefix = "test-run"
	}
	return &FixedRunIDGenerator{prefix: prefix}
}

// Generate returns the next run ID.
//
// Implements harness.RunIDGenerator.
func (g *FixedRunIDGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%d", g.prefix, g.n)
}
