// internal/coproc/link.go
package coproc

import (
	"sync"
	"time"
)

// Link is an in-memory serial line: the simulator writes, the frame
// reader reads. Reads wait at most Timeout for data. Bytes beyond
// capacity are dropped, like a full UART FIFO.
type Link struct {
	Timeout time.Duration

	mu      sync.Mutex
	buf     []byte
	cap     int
	dropped uint64
	ready   chan struct{}
}

// NewLink returns a link buffering at most capacity bytes.
func NewLink(capacity int, timeout time.Duration) *Link {
	if capacity <= 0 {
		capacity = 2048
	}
	return &Link{
		Timeout: timeout,
		cap:     capacity,
		ready:   make(chan struct{}, 1),
	}
}

func (l *Link) Write(p []byte) (int, error) {
	l.mu.Lock()
	room := l.cap - len(l.buf)
	n := len(p)
	if n > room {
		l.dropped += uint64(n - room)
		n = room
	}
	l.buf = append(l.buf, p[:n]...)
	l.mu.Unlock()

	select {
	case l.ready <- struct{}{}:
	default:
	}
	return len(p), nil
}

// Read returns buffered bytes, waiting up to Timeout.
// A timeout is reported as (0, nil).
func (l *Link) Read(p []byte) (int, error) {
	if n := l.take(p); n > 0 {
		return n, nil
	}

	t := time.NewTimer(l.Timeout)
	defer t.Stop()
	for {
		select {
		case <-l.ready:
			if n := l.take(p); n > 0 {
				return n, nil
			}
		case <-t.C:
			return l.take(p), nil
		}
	}
}

// Dropped counts bytes lost to overflow.
func (l *Link) Dropped() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.dropped
}

func (l *Link) Close() error { return nil }

func (l *Link) take(p []byte) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := copy(p, l.buf)
	l.buf = l.buf[n:]
	return n
}
