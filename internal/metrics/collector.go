// Package metrics collects per-capability request statistics in memory.
package metrics

import (
	"sync"
	"time"
)

// Operation names for the collector.
const (
	OpExtract   = "extract"
	OpTranslate = "translate"
	OpAnswer    = "answer"
	OpHistory   = "history"
)

// opStats accumulates the calls of one operation.
type opStats struct {
	count     int64
	errors    int64
	total     time.Duration
	min       time.Duration
	max       time.Duration
	lastError string
	lastCall  time.Time
}

func (s *opStats) observe(d time.Duration, err error, at time.Time) {
	if s.count == 0 || d < s.min {
		s.min = d
	}
	s.max = max(s.max, d)
	s.count++
	s.total += d
	s.lastCall = at
	if err != nil {
		s.errors++
		s.lastError = err.Error()
	}
}

func (s *opStats) snapshot() *OperationSnapshot {
	return &OperationSnapshot{
		Count:       s.count,
		Errors:      s.errors,
		ErrorRate:   float64(s.errors) / float64(s.count),
		TotalTimeMs: s.total.Milliseconds(),
		AvgTimeMs:   float64(s.total.Milliseconds()) / float64(s.count),
		MinTimeMs:   s.min.Milliseconds(),
		MaxTimeMs:   s.max.Milliseconds(),
		LastError:   s.lastError,
		LastCall:    s.lastCall,
	}
}

// OperationSnapshot is the computed view of one operation's calls.
type OperationSnapshot struct {
	Count       int64     `json:"count"`
	Errors      int64     `json:"errors"`
	ErrorRate   float64   `json:"error_rate"`
	TotalTimeMs int64     `json:"total_time_ms"`
	AvgTimeMs   float64   `json:"avg_time_ms"`
	MinTimeMs   int64     `json:"min_time_ms"`
	MaxTimeMs   int64     `json:"max_time_ms"`
	LastError   string    `json:"last_error,omitempty"`
	LastCall    time.Time `json:"last_call"`
}

// Snapshot is the gateway's statistics at a point in time.
// Operations with no recorded calls are omitted.
type Snapshot struct {
	UptimeSeconds float64                       `json:"uptime_seconds"`
	Operations    map[string]*OperationSnapshot `json:"operations"`
}

// Collector aggregates runtime statistics. It is safe for concurrent use.
type Collector struct {
	mu      sync.RWMutex
	started time.Time
	ops     map[string]*opStats
	now     func() time.Time
}

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	return &Collector{
		started: time.Now(),
		ops:     make(map[string]*opStats),
		now:     time.Now,
	}
}

// RecordTiming records one call of op. A non-nil err counts as a failure.
func (c *Collector) RecordTiming(op string, duration time.Duration, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, ok := c.ops[op]
	if !ok {
		s = &opStats{}
		c.ops[op] = s
	}
	s.observe(duration, err, c.now())
}

// Time runs fn and records its duration and outcome under op.
func (c *Collector) Time(op string, fn func() error) error {
	start := time.Now()
	err := fn()
	c.RecordTiming(op, time.Since(start), err)
	return err
}

// Snapshot returns a copy of the current statistics.
func (c *Collector) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	snap := Snapshot{
		UptimeSeconds: time.Since(c.started).Seconds(),
		Operations:    make(map[string]*OperationSnapshot, len(c.ops)),
	}
	for op, s := range c.ops {
		if s.count > 0 {
			snap.Operations[op] = s.snapshot()
		}
	}
	return snap
}
