// internal/reader/reader.go
package reader

import (
	"errors"
	"sync"
	"time"
)

// DefaultBufferSize is the byte stream buffer capacity, sentinel included.
const DefaultBufferSize = 1024

// Config is the minimal runtime config the reader needs.
type Config struct {
	BufferSize int

	// CarryPartial keeps an unterminated trailing segment and prepends it
	// to the next poll. Off by default: a frame split across polls loses
	// its head and only the tail is emitted.
	CarryPartial bool
}

// Reader drains a Transceiver and splits the stream into frames.
// The buffer is allocated once and owned by the goroutine calling PollOnce.
type Reader struct {
	cfg Config
	tr  Transceiver

	buf     []byte
	pending int // carried bytes at buf[:pending]

	mu    sync.Mutex
	stats Stats
}

// New creates a reader with its buffer arena.
func New(cfg Config, tr Transceiver) (*Reader, error) {
	if tr == nil {
		return nil, errors.New("reader: transceiver required")
	}
	if cfg.BufferSize == 0 {
		cfg.BufferSize = DefaultBufferSize
	}
	if cfg.BufferSize < 2 {
		return nil, errors.New("reader: buffer size must be >= 2")
	}
	return &Reader{
		cfg: cfg,
		tr:  tr,
		buf: make([]byte, cfg.BufferSize),
	}, nil
}

// PollOnce performs exactly one read and emits every complete frame in it,
// in arrival order. A failed read emits nothing.
func (r *Reader) PollOnce(emit func(Frame)) PollResult {
	now := time.Now()
	res := PollResult{At: now}

	if r.cfg.CarryPartial && r.pending >= len(r.buf)-1 {
		// no room left to read: flush the carried bytes as they are
		emit(Frame{Text: string(r.buf[:r.pending]), At: now, Truncated: true})
		res.Frames++
		r.pending = 0
	}

	// one byte is reserved for the sentinel
	n, err := r.tr.Read(r.buf[r.pending : len(r.buf)-1])
	if err != nil {
		res.Err = &TransportError{Err: err}
		r.record(res)
		return res
	}
	res.Bytes = n

	end := r.pending + n
	if n == 0 {
		r.record(res)
		return res
	}

	tail := Split(r.buf, end, func(seg []byte) {
		emit(Frame{Text: string(seg), At: now})
		res.Frames++
	})

	if r.cfg.CarryPartial {
		r.pending = copy(r.buf, r.buf[tail:end])
	} else {
		r.pending = 0
	}

	r.record(res)
	return res
}

// Split scans buf[:n], with buf[n] set to a null sentinel, and calls emit
// for every non-empty segment terminated by a null byte before the
// sentinel. Empty segments are skipped. The returned index is the start
// of the unterminated trailing segment (n when there is none).
//
// buf must have len(buf) > n. Segments passed to emit alias buf.
func Split(buf []byte, n int, emit func([]byte)) int {
	buf[n] = 0
	start := 0
	for i := 0; i < n; i++ {
		if buf[i] != 0 {
			continue
		}
		if i > start {
			emit(buf[start:i])
		}
		start = i + 1
	}
	return start
}

// Stats returns a copy of the cumulative counters.
func (r *Reader) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}

func (r *Reader) record(res PollResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stats.Polls++
	r.stats.Bytes += uint64(res.Bytes)
	r.stats.Frames += uint64(res.Frames)
	if res.Frames > 0 {
		r.stats.LastFrameAt = res.At
	}
	if res.Err != nil {
		r.stats.TransportErrors++
		r.stats.LastErr = res.Err
	} else {
		r.stats.LastErr = nil
	}
}
