package host

import "sync/atomic"

// Sequencer hands out logical clock values. Every account creation and
// every call consumes exactly one value.
type Sequencer interface {
	Next() int64
}

// Clock is a monotonic logical clock for ledger ordering.
//
// All ledger rows are stamped with a strictly increasing seq from this
// clock, never with wall-clock time, so the log order is deterministic.
//
// Thread-safety: Clock is safe for concurrent use (atomic operations).
type Clock struct {
	seq atomic.Int64
}

// NewClockAt creates a clock whose next value is start+1.
// The runtime resumes from the ledger's last seq on open.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next returns the next sequence number and increments the clock.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Observe raises the clock to at least seq. Values below the current one
// are ignored.
func (c *Clock) Observe(seq int64) {
	for {
		cur := c.seq.Load()
		if seq <= cur || c.seq.CompareAndSwap(cur, seq) {
			return
		}
	}
}

// Current returns the current sequence number without incrementing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
