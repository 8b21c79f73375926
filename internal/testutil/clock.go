package testutil

import "sync"

// DeterministicClock is a host sequencer for tests. It starts from a fixed
// value and remembers every seq it handed out, so a test can check which
// ledger operations consumed the clock.
type DeterministicClock struct {
	mu     sync.Mutex
	start  int64
	issued []int64
}

// NewDeterministicClock returns a clock whose first value is 1.
func NewDeterministicClock() *DeterministicClock {
	return NewDeterministicClockFrom(0)
}

// NewDeterministicClockFrom returns a clock whose first value is start+1.
func NewDeterministicClockFrom(start int64) *DeterministicClock {
	return &DeterministicClock{start: start}
}

// Next hands out the next seq.
func (c *DeterministicClock) Next() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	seq := c.start + int64(len(c.issued)) + 1
	c.issued = append(c.issued, seq)
	return seq
}

// Last returns the most recent seq, or the start value if none was issued.
func (c *DeterministicClock) Last() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.start + int64(len(c.issued))
}

// Issued returns a copy of every seq handed out, in order.
func (c *DeterministicClock) Issued() []int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]int64(nil), c.issued...)
}

// Reset forgets all issued values. The next seq is start+1 again.
func (c *DeterministicClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.issued = nil
}
