// internal/sink/sink.go
package sink

import (
	"github.com/tamzrod/ulp-supervisor/internal/reader"
	"github.com/tamzrod/ulp-supervisor/internal/wake"
)

// Sink observes frames and wake events, one call per occurrence.
// Calls come from the reader and wake tasks and must not block for long.
type Sink interface {
	Frame(f reader.Frame)
	Wake(ev wake.Event)
}

// Multi fans every event out to each sink in order.
type Multi []Sink

func (m Multi) Frame(f reader.Frame) {
	for _, s := range m {
		s.Frame(f)
	}
}

func (m Multi) Wake(ev wake.Event) {
	for _, s := range m {
		s.Wake(ev)
	}
}
