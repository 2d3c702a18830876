// internal/irq/irq.go
package irq

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
)

// Handler runs in interrupt context with the latched status word.
// It must not block. Returning true requests a reschedule on exit,
// which is how a handler reports that it woke a waiting task.
type Handler func(status uint32) (yield bool)

var ErrLineBusy = errors.New("irq: line already has a handler")

// RegisterError is returned when a handler cannot be installed.
type RegisterError struct {
	Line int
	Mask uint32
	Err  error
}

func (e *RegisterError) Error() string {
	return fmt.Sprintf("irq: register line=%d mask=0x%08x: %v", e.Line, e.Mask, e.Err)
}

func (e *RegisterError) Unwrap() error { return e.Err }

type line struct {
	handler Handler
	enabled uint32 // unmasked status bits
	status  uint32 // latched raw status bits
}

// Controller is a hosted interrupt controller.
//
// Raise latches status bits on a line. If any latched bit is unmasked the
// line's handler runs synchronously on the raising goroutine, which stands
// in for interrupt context. Deliveries are serialized across all lines,
// like a single interrupt priority level.
type Controller struct {
	mu    sync.Mutex // guards lines
	isr   sync.Mutex // one handler at a time
	lines map[int]*line

	delivered uint64
}

func NewController() *Controller {
	return &Controller{lines: make(map[int]*line)}
}

func (c *Controller) get(n int) *line {
	l := c.lines[n]
	if l == nil {
		l = &line{}
		c.lines[n] = l
	}
	return l
}

// Register installs h on the line and unmasks the bits in mask.
// Status already latched under mask is delivered immediately.
func (c *Controller) Register(n int, mask uint32, h Handler) error {
	if h == nil {
		return &RegisterError{Line: n, Mask: mask, Err: errors.New("irq: nil handler")}
	}
	if mask == 0 {
		return &RegisterError{Line: n, Mask: mask, Err: errors.New("irq: empty mask")}
	}

	c.mu.Lock()
	l := c.get(n)
	if l.handler != nil {
		c.mu.Unlock()
		return &RegisterError{Line: n, Mask: mask, Err: ErrLineBusy}
	}
	l.handler = h
	l.enabled = mask
	c.mu.Unlock()

	c.dispatch(n)
	return nil
}

// Raise latches bits on the line and dispatches if unmasked.
func (c *Controller) Raise(n int, bits uint32) {
	c.mu.Lock()
	c.get(n).status |= bits
	c.mu.Unlock()

	c.dispatch(n)
}

// Pending returns the latched, not yet acknowledged, status bits.
func (c *Controller) Pending(n int) uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if l := c.lines[n]; l != nil {
		return l.status
	}
	return 0
}

// Delivered counts handler invocations.
func (c *Controller) Delivered() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.delivered
}

func (c *Controller) dispatch(n int) {
	c.isr.Lock()
	defer c.isr.Unlock()

	c.mu.Lock()
	l := c.lines[n]
	if l == nil || l.handler == nil || l.status&l.enabled == 0 {
		c.mu.Unlock()
		return
	}
	// read-and-acknowledge: handled bits are cleared before the handler runs
	status := l.status & l.enabled
	l.status &^= status
	h := l.handler
	c.delivered++
	c.mu.Unlock()

	if h(status) {
		runtime.Gosched()
	}
}
