// internal/wake/credit.go
package wake

import (
	"context"
	"sync/atomic"
)

// Credit is a binary semaphore bridging interrupt context to a task.
//
// Give never blocks and takes no lock, so it is safe to call from an
// interrupt handler. A Give while the credit is already present is
// absorbed. Take blocks until the credit is present and clears it.
// A Give that lands between a waiter's last check and its block is
// not lost: the credit stays in the channel slot until taken.
type Credit struct {
	ch      chan struct{}
	waiters atomic.Int32
}

// NewCredit returns a credit in the absent state.
func NewCredit() *Credit {
	return &Credit{ch: make(chan struct{}, 1)}
}

// Give sets the credit to present.
// It reports whether a blocked task may have been made runnable.
func (c *Credit) Give() (woken bool) {
	select {
	case c.ch <- struct{}{}:
		return c.waiters.Load() > 0
	default:
		// already present: coalesced
		return false
	}
}

// Take blocks until the credit is present, then clears it.
func (c *Credit) Take(ctx context.Context) error {
	c.waiters.Add(1)
	defer c.waiters.Add(-1)

	select {
	case <-c.ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TryTake clears the credit without blocking. Reports whether it was present.
func (c *Credit) TryTake() bool {
	select {
	case <-c.ch:
		return true
	default:
		return false
	}
}

// Present reports the current state. Only meaningful when quiescent.
func (c *Credit) Present() bool {
	return len(c.ch) == 1
}
