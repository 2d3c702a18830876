// internal/sink/ring.go
package sink

import (
	"sync"

	"github.com/tamzrod/ulp-supervisor/internal/reader"
	"github.com/tamzrod/ulp-supervisor/internal/wake"
)

// Ring keeps the most recent frames for introspection.
type Ring struct {
	mu     sync.Mutex
	frames []reader.Frame
	next   int
	full   bool
}

func NewRing(size int) *Ring {
	if size <= 0 {
		size = 32
	}
	return &Ring{frames: make([]reader.Frame, size)}
}

func (r *Ring) Frame(f reader.Frame) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames[r.next] = f
	r.next = (r.next + 1) % len(r.frames)
	if r.next == 0 {
		r.full = true
	}
}

func (r *Ring) Wake(wake.Event) {}

// Recent returns the held frames, oldest first.
func (r *Ring) Recent() []reader.Frame {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.full {
		out := make([]reader.Frame, r.next)
		copy(out, r.frames[:r.next])
		return out
	}
	out := make([]reader.Frame, 0, len(r.frames))
	out = append(out, r.frames[r.next:]...)
	out = append(out, r.frames[:r.next]...)
	return out
}
