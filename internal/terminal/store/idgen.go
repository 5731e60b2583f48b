package store

import (
	"sync"
	"time"
)

// IDGenerator hands out terminal-local identifiers without server
// coordination. Ids are derived from the wall clock in milliseconds, so two
// terminals provisioned independently do not issue the same id for different
// records. The generator only moves forward: it is seeded with the greatest
// identifier ever observed locally (including ids pulled from the server),
// and rapid calls within one millisecond fall back to last+1.
type IDGenerator struct {
	mu   sync.Mutex
	last int64
}

// NewIDGenerator returns a generator that will issue ids greater than seed.
func NewIDGenerator(seed int64) *IDGenerator {
	return &IDGenerator{last: seed}
}

// Next returns the next unused identifier.
func (g *IDGenerator) Next() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	id := time.Now().UnixMilli()
	if id <= g.last {
		id = g.last + 1
	}
	g.last = id
	return id
}

// Observe records an identifier seen in incoming data. Future Next calls
// return values strictly greater than anything observed.
func (g *IDGenerator) Observe(id int64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if id > g.last {
		g.last = id
	}
}
