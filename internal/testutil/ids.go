package testutil

import (
	"fmt"
	"sync"
)

// FixedIDGenerator returns the same id every time.
//
// If id is empty, Generate returns "test-session".
type FixedIDGenerator struct {
	id string
}

// NewFixedIDGenerator creates a generator that always returns id.
func NewFixedIDGenerator(id string) *FixedIDGenerator {
	if id == "" {
		id = "test-session"
	}
	return &FixedIDGenerator{id: id}
}

// Generate returns the fixed id.
func (g *FixedIDGenerator) Generate() string {
	return g.id
}

// SequenceIDGenerator returns prefix-1, prefix-2, ... and is safe for
// concurrent use.
type SequenceIDGenerator struct {
	mu     sync.Mutex
	prefix string
	seq    int64
}

// NewSequenceIDGenerator creates a generator starting at prefix-1.
func NewSequenceIDGenerator(prefix string) *SequenceIDGenerator {
	if prefix == "" {
		prefix = "session"
	}
	return &SequenceIDGenerator{prefix: prefix}
}

// Generate returns the next id in the sequence.
func (g *SequenceIDGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	return fmt.Sprintf("%s-%d", g.prefix, g.seq)
}

// Reset restarts the sequence so the next id is prefix-1.
func (g *SequenceIDGenerator) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq = 0
}
