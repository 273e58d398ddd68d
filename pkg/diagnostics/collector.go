// Package diagnostics holds the state shared between the ingestion pipeline
// and its observers: collected parse failures and pipeline counters.
package diagnostics

import (
	"slices"
	"sync"

	"github.com/papercomputeco/arenatapes/pkg/arena"
)

// DefaultMaxErrors bounds the failures retained by a Collector.
const DefaultMaxErrors = 1000

// Collector is an append-only, bounded list of parse failures. It is safe for
// concurrent use.
type Collector struct {
	mu       sync.Mutex
	limit    int
	failures []arena.ParseFailure
	total    int
}

// CollectorOption configures a Collector.
type CollectorOption func(*Collector)

// WithLimit sets how many failures are retained. Values below one disable the bound.
func WithLimit(n int) CollectorOption {
	return func(c *Collector) {
		c.limit = n
	}
}

// NewCollector returns an empty Collector.
func NewCollector(opts ...CollectorOption) *Collector {
	c := &Collector{limit: DefaultMaxErrors}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Add appends f, evicting the oldest retained failure when at the limit.
func (c *Collector) Add(f arena.ParseFailure) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.total++
	if c.limit > 0 && len(c.failures) >= c.limit {
		c.failures = slices.Delete(c.failures, 0, len(c.failures)-c.limit+1)
	}
	c.failures = append(c.failures, f)
}

// Snapshot copies the retained failures, oldest first.
func (c *Collector) Snapshot() []arena.ParseFailure {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.failures)
}

// Latest copies up to n of the most recent failures, oldest first.
func (c *Collector) Latest(n int) []arena.ParseFailure {
	c.mu.Lock()
	defer c.mu.Unlock()

	if n <= 0 || n >= len(c.failures) {
		return slices.Clone(c.failures)
	}
	return slices.Clone(c.failures[len(c.failures)-n:])
}

// Len is the number of retained failures.
func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.failures)
}

// Total is the number of failures ever added, including evicted ones.
func (c *Collector) Total() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.total
}
