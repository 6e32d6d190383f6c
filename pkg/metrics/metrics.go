// Package metrics collects engine-level performance counters and exposes
// them in Prometheus text exposition format, covering the operations
// this store actually performs: get, set, delete, flush, compact.
package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Collector collects real-time performance metrics for the store.
type Collector struct {
	getsExecuted    uint64
	getsFailed      uint64
	totalGetTime    uint64 // nanoseconds

	setsExecuted    uint64
	setsFailed      uint64
	totalSetTime    uint64

	deletesExecuted uint64
	deletesFailed   uint64
	totalDeleteTime uint64

	flushesExecuted    uint64
	flushesFailed      uint64
	totalFlushTime     uint64

	compactionsExecuted uint64
	compactionsFailed   uint64
	totalCompactionTime uint64

	getTimings   *TimingHistogram
	setTimings   *TimingHistogram
	flushTimings *TimingHistogram

	startTime time.Time
}

// TimingHistogram stores timing data in buckets for histogram generation.
type TimingHistogram struct {
	bucket0_1ms      uint64
	bucket1_10ms     uint64
	bucket10_100ms   uint64
	bucket100_1000ms uint64
	bucket1000ms     uint64

	mu               sync.Mutex
	recentTimings    []time.Duration
	maxRecentTimings int
}

// NewCollector creates a new metrics collector.
func NewCollector() *Collector {
	return &Collector{
		getTimings:   NewTimingHistogram(1000),
		setTimings:   NewTimingHistogram(1000),
		flushTimings: NewTimingHistogram(1000),
		startTime:    time.Now(),
	}
}

// NewTimingHistogram creates a new timing histogram.
func NewTimingHistogram(maxRecent int) *TimingHistogram {
	return &TimingHistogram{
		recentTimings:    make([]time.Duration, 0, maxRecent),
		maxRecentTimings: maxRecent,
	}
}

// RecordGet records a Get call.
func (c *Collector) RecordGet(d time.Duration, success bool) {
	atomic.AddUint64(&c.getsExecuted, 1)
	if !success {
		atomic.AddUint64(&c.getsFailed, 1)
	}
	atomic.AddUint64(&c.totalGetTime, uint64(d.Nanoseconds()))
	c.getTimings.Record(d)
}

// RecordSet records a Set call (Delete is a Set under the hood, and is
// counted separately by RecordDelete at the façade call site).
func (c *Collector) RecordSet(d time.Duration, success bool) {
	atomic.AddUint64(&c.setsExecuted, 1)
	if !success {
		atomic.AddUint64(&c.setsFailed, 1)
	}
	atomic.AddUint64(&c.totalSetTime, uint64(d.Nanoseconds()))
	c.setTimings.Record(d)
}

// RecordDelete records a Delete call.
func (c *Collector) RecordDelete(d time.Duration, success bool) {
	atomic.AddUint64(&c.deletesExecuted, 1)
	if !success {
		atomic.AddUint64(&c.deletesFailed, 1)
	}
	atomic.AddUint64(&c.totalDeleteTime, uint64(d.Nanoseconds()))
}

// RecordFlush records a completed (or failed) background flush.
func (c *Collector) RecordFlush(d time.Duration, success bool) {
	atomic.AddUint64(&c.flushesExecuted, 1)
	if !success {
		atomic.AddUint64(&c.flushesFailed, 1)
	}
	atomic.AddUint64(&c.totalFlushTime, uint64(d.Nanoseconds()))
	c.flushTimings.Record(d)
}

// RecordCompaction records a completed (or failed) compaction.
func (c *Collector) RecordCompaction(d time.Duration, success bool) {
	atomic.AddUint64(&c.compactionsExecuted, 1)
	if !success {
		atomic.AddUint64(&c.compactionsFailed, 1)
	}
	atomic.AddUint64(&c.totalCompactionTime, uint64(d.Nanoseconds()))
}

// Record adds a timing to the histogram.
func (th *TimingHistogram) Record(d time.Duration) {
	ms := d.Milliseconds()
	switch {
	case ms < 1:
		atomic.AddUint64(&th.bucket0_1ms, 1)
	case ms < 10:
		atomic.AddUint64(&th.bucket1_10ms, 1)
	case ms < 100:
		atomic.AddUint64(&th.bucket10_100ms, 1)
	case ms < 1000:
		atomic.AddUint64(&th.bucket100_1000ms, 1)
	default:
		atomic.AddUint64(&th.bucket1000ms, 1)
	}

	th.mu.Lock()
	defer th.mu.Unlock()
	if len(th.recentTimings) >= th.maxRecentTimings {
		th.recentTimings = th.recentTimings[1:]
	}
	th.recentTimings = append(th.recentTimings, d)
}

// GetBuckets returns the histogram bucket counts.
func (th *TimingHistogram) GetBuckets() map[string]uint64 {
	return map[string]uint64{
		"0-1ms":      atomic.LoadUint64(&th.bucket0_1ms),
		"1-10ms":     atomic.LoadUint64(&th.bucket1_10ms),
		"10-100ms":   atomic.LoadUint64(&th.bucket10_100ms),
		"100-1000ms": atomic.LoadUint64(&th.bucket100_1000ms),
		">1000ms":    atomic.LoadUint64(&th.bucket1000ms),
	}
}

// GetPercentiles calculates P50, P95, P99 from recent timings.
func (th *TimingHistogram) GetPercentiles() map[string]time.Duration {
	th.mu.Lock()
	defer th.mu.Unlock()

	if len(th.recentTimings) == 0 {
		return map[string]time.Duration{"p50": 0, "p95": 0, "p99": 0}
	}

	sorted := make([]time.Duration, len(th.recentTimings))
	copy(sorted, th.recentTimings)
	for i := 1; i < len(sorted); i++ {
		key := sorted[i]
		j := i - 1
		for j >= 0 && sorted[j] > key {
			sorted[j+1] = sorted[j]
			j--
		}
		sorted[j+1] = key
	}

	return map[string]time.Duration{
		"p50": sorted[len(sorted)*50/100],
		"p95": sorted[len(sorted)*95/100],
		"p99": sorted[len(sorted)*99/100],
	}
}

// Snapshot returns a point-in-time view of all counters, suitable for the
// admin stats endpoint.
func (c *Collector) Snapshot() map[string]interface{} {
	return map[string]interface{}{
		"uptime_seconds":       time.Since(c.startTime).Seconds(),
		"gets_executed":        atomic.LoadUint64(&c.getsExecuted),
		"gets_failed":          atomic.LoadUint64(&c.getsFailed),
		"sets_executed":        atomic.LoadUint64(&c.setsExecuted),
		"sets_failed":          atomic.LoadUint64(&c.setsFailed),
		"deletes_executed":     atomic.LoadUint64(&c.deletesExecuted),
		"deletes_failed":       atomic.LoadUint64(&c.deletesFailed),
		"flushes_executed":     atomic.LoadUint64(&c.flushesExecuted),
		"flushes_failed":       atomic.LoadUint64(&c.flushesFailed),
		"compactions_executed": atomic.LoadUint64(&c.compactionsExecuted),
		"compactions_failed":   atomic.LoadUint64(&c.compactionsFailed),
	}
}
