// internal/sink/log.go
package sink

import (
	log "github.com/sirupsen/logrus"

	"github.com/tamzrod/ulp-supervisor/internal/reader"
	"github.com/tamzrod/ulp-supervisor/internal/wake"
)

// Log writes one line per frame and per wake.
type Log struct {
	log *log.Entry
}

func NewLog(l *log.Entry) *Log {
	if l == nil {
		l = log.WithField("component", "ulp")
	}
	return &Log{log: l}
}

func (s *Log) Frame(f reader.Frame) {
	e := s.log.WithField("len", len(f.Text))
	if f.Truncated {
		e = e.WithField("truncated", true)
	}
	e.Info(f.Text)
}

func (s *Log) Wake(ev wake.Event) {
	s.log.WithField("seq", ev.Seq).WithField("raised", ev.Raised).Info("wake")
}
