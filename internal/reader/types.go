// internal/reader/types.go
package reader

import (
	"fmt"
	"time"
)

// Transceiver is the serial byte source.
// Read must return within a bounded wait; "no data yet" is (0, nil).
type Transceiver interface {
	Read(p []byte) (int, error)
}

// Frame is one non-empty null-delimited segment.
type Frame struct {
	Text string
	At   time.Time

	// Truncated is set when a carried partial frame had to be flushed
	// because it filled the buffer.
	Truncated bool
}

// PollResult describes one poll cycle.
type PollResult struct {
	At     time.Time
	Bytes  int // bytes read this cycle
	Frames int // frames emitted this cycle
	Err    error
}

// TransportError wraps a failed read. Transient by contract.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("reader: transport: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Stats are cumulative counters.
type Stats struct {
	Polls           uint64
	Bytes           uint64
	Frames          uint64
	TransportErrors uint64
	LastFrameAt     time.Time
	LastErr         error
}
