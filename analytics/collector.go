// Package analytics aggregates statistics about the entries flowing through a logger.
package analytics

import (
	"context"
	"fmt"
	"maps"
	"sync"
	"time"

	"github.com/gaborage/logbricks/logger"
)

// Snapshot is a point-in-time copy of a Collector's counters.
type Snapshot struct {
	Total       uint64            `json:"total"`
	ByLevel     map[string]uint64 `json:"by_level"`
	BySDK       map[string]uint64 `json:"by_sdk"`
	ByTag       map[string]uint64 `json:"by_tag"`
	ByErrorType map[string]uint64 `json:"by_error_type"`
	Since       time.Time         `json:"since"`
	LastEntry   time.Time         `json:"last_entry,omitzero"`
}

// Collector counts entries by level, SDK identity, tag and error type. It is safe for
// concurrent use.
type Collector struct {
	mu          sync.Mutex
	total       uint64
	byLevel     map[string]uint64
	bySDK       map[string]uint64
	byTag       map[string]uint64
	byErrorType map[string]uint64
	since       time.Time
	lastEntry   time.Time
}

func NewCollector() *Collector {
	c := &Collector{}
	c.Reset()
	return c
}

// Record counts e.
func (c *Collector) Record(e logger.Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.total++
	c.byLevel[e.Level.String()]++
	c.bySDK[e.SDKName+"@"+e.SDKVersion]++
	c.byTag[e.Tag]++
	if e.Err != nil {
		c.byErrorType[fmt.Sprintf("%T", e.Err)]++
	}
	if e.Timestamp.After(c.lastEntry) {
		c.lastEntry = e.Timestamp
	}
}

// Snapshot returns a copy of the counters.
func (c *Collector) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		Total:       c.total,
		ByLevel:     maps.Clone(c.byLevel),
		BySDK:       maps.Clone(c.bySDK),
		ByTag:       maps.Clone(c.byTag),
		ByErrorType: maps.Clone(c.byErrorType),
		Since:       c.since,
		LastEntry:   c.lastEntry,
	}
}

// Reset zeroes every counter.
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.total = 0
	c.byLevel = make(map[string]uint64)
	c.bySDK = make(map[string]uint64)
	c.byTag = make(map[string]uint64)
	c.byErrorType = make(map[string]uint64)
	c.since = time.Now()
	c.lastEntry = time.Time{}
}

// Destination feeds a Collector from a logger.
type Destination struct {
	c *Collector
}

// NewDestination adapts c to logger.Destination.
func NewDestination(c *Collector) *Destination {
	return &Destination{c: c}
}

func (d *Destination) Name() string { return "analytics" }

func (d *Destination) Write(_ context.Context, e logger.Entry) error {
	d.c.Record(e)
	return nil
}

func (d *Destination) Flush(context.Context) error { return nil }

func (d *Destination) Close(context.Context) error { return nil }

// Collector returns the collector fed by d.
func (d *Destination) Collector() *Collector { return d.c }
