package logging

import "sync/atomic"

// ProgressMeter suppresses repetitive per-file progress logs while keeping a
// live total. Workers call Tick concurrently; a log line is due whenever the
// new count crosses an interval boundary, so at least one line is emitted per
// interval processed files.
type ProgressMeter struct {
	interval int64
	count    atomic.Int64
}

// NewProgressMeter constructs a meter that reports every interval ticks
// (default 1000 when interval is not positive).
func NewProgressMeter(interval int) *ProgressMeter {
	if interval <= 0 {
		interval = 1000
	}
	return &ProgressMeter{interval: int64(interval)}
}

// Tick records one processed entry and reports whether a progress line is due.
func (m *ProgressMeter) Tick() (int64, bool) {
	if m == nil {
		return 0, false
	}
	n := m.count.Add(1)
	return n, n%m.interval == 0
}

// Total returns the number of entries recorded so far.
func (m *ProgressMeter) Total() int64 {
	if m == nil {
		return 0
	}
	return m.count.Load()
}
