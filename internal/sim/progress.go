package sim

import (
	"sync"
	"time"
)

// DefaultProgressInterval throttles progress callbacks to about 20 per second.
const DefaultProgressInterval = 50 * time.Millisecond

// progressReporter forwards the completed fraction of an ensemble to a
// callback. Values never decrease and the final call always reports 1.
type progressReporter struct {
	mu       sync.Mutex
	fn       func(float64)
	interval time.Duration
	total    int
	done     int
	last     time.Time
	reported float64
	now      func() time.Time
}

func newProgressReporter(fn func(float64), total int, interval time.Duration) *progressReporter {
	if interval <= 0 {
		interval = DefaultProgressInterval
	}
	return &progressReporter{fn: fn, interval: interval, total: total, reported: -1, now: time.Now}
}

// completed marks one more run as finished.
func (r *progressReporter) completed() {
	if r == nil || r.fn == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.done++
	now := r.now()
	if r.done < r.total && now.Sub(r.last) < r.interval {
		return
	}
	r.emit(float64(r.done)/float64(r.total), now)
}

// finish reports completion if the last call did not already.
func (r *progressReporter) finish() {
	if r == nil || r.fn == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.reported < 1 {
		r.emit(1, r.now())
	}
}

func (r *progressReporter) emit(v float64, now time.Time) {
	if v > 1 {
		v = 1
	}
	if v <= r.reported {
		return
	}
	r.reported = v
	r.last = now
	r.fn(v)
}
