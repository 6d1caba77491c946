// Package metrics keeps in-process timing and counters for the engine.
// Nothing is exported to external systems; the stats tool and CLI read
// a Snapshot.
package metrics

import (
	"sync"
	"time"
)

// Op names a timed operation.
type Op string

const (
	OpExecutionSuccess Op = "execution_success"
	OpExecutionError   Op = "execution_error"
	OpSchedulerPass    Op = "scheduler_pass"
	OpStoreQuery       Op = "store_query"
	OpStoreWrite       Op = "store_write"
)

// Counter names a monotonically increasing count.
type Counter string

const (
	CountEntities     Counter = "entities"
	CountCorrelations Counter = "correlations"
)

// OperationSnapshot summarizes the timings recorded for one Op.
type OperationSnapshot struct {
	Count       int64   `json:"count"`
	TotalTimeMs int64   `json:"total_time_ms"`
	AvgTimeMs   float64 `json:"avg_time_ms"`
	MinTimeMs   int64   `json:"min_time_ms"`
	MaxTimeMs   int64   `json:"max_time_ms"`
}

// Snapshot is the collector state at one instant.
type Snapshot struct {
	UptimeSeconds    float64            `json:"uptime_seconds"`
	ExecutionSuccess *OperationSnapshot `json:"execution_success,omitempty"`
	ExecutionError   *OperationSnapshot `json:"execution_error,omitempty"`
	SchedulerPass    *OperationSnapshot `json:"scheduler_pass,omitempty"`
	StoreQuery       *OperationSnapshot `json:"store_query,omitempty"`
	StoreWrite       *OperationSnapshot `json:"store_write,omitempty"`

	EntitiesTagged    int64 `json:"entities_tagged"`
	CorrelationsFound int64 `json:"correlations_found"`
}

type timing struct {
	count    int64
	total    time.Duration
	min, max time.Duration
}

func (t *timing) observe(d time.Duration) {
	if t.count == 0 || d < t.min {
		t.min = d
	}
	if d > t.max {
		t.max = d
	}
	t.count++
	t.total += d
}

func (t *timing) snapshot() *OperationSnapshot {
	if t == nil || t.count == 0 {
		return nil
	}
	total := t.total.Milliseconds()
	return &OperationSnapshot{
		Count:       t.count,
		TotalTimeMs: total,
		AvgTimeMs:   float64(total) / float64(t.count),
		MinTimeMs:   t.min.Milliseconds(),
		MaxTimeMs:   t.max.Milliseconds(),
	}
}

// Collector is safe for concurrent use. A nil *Collector discards
// everything, so components can run without one.
type Collector struct {
	started time.Time

	mu       sync.RWMutex
	timings  map[Op]*timing
	counters map[Counter]int64
}

func NewCollector() *Collector {
	return &Collector{
		started:  time.Now(),
		timings:  make(map[Op]*timing),
		counters: make(map[Counter]int64),
	}
}

// RecordTiming adds one observation of op.
func (c *Collector) RecordTiming(op Op, d time.Duration) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	t, ok := c.timings[op]
	if !ok {
		t = &timing{}
		c.timings[op] = t
	}
	t.observe(d)
}

// Since records the time elapsed since start. Meant for defer.
func (c *Collector) Since(op Op, start time.Time) {
	c.RecordTiming(op, time.Since(start))
}

// Add increments counter by n.
func (c *Collector) Add(counter Counter, n int) {
	if c == nil || n == 0 {
		return
	}
	c.mu.Lock()
	c.counters[counter] += int64(n)
	c.mu.Unlock()
}

func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	return Snapshot{
		UptimeSeconds:     time.Since(c.started).Seconds(),
		ExecutionSuccess:  c.timings[OpExecutionSuccess].snapshot(),
		ExecutionError:    c.timings[OpExecutionError].snapshot(),
		SchedulerPass:     c.timings[OpSchedulerPass].snapshot(),
		StoreQuery:        c.timings[OpStoreQuery].snapshot(),
		StoreWrite:        c.timings[OpStoreWrite].snapshot(),
		EntitiesTagged:    c.counters[CountEntities],
		CorrelationsFound: c.counters[CountCorrelations],
	}
}
