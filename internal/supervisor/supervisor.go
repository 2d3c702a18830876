// internal/supervisor/supervisor.go
package supervisor

import (
	"context"
	"errors"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/tamzrod/ulp-supervisor/internal/coproc"
	"github.com/tamzrod/ulp-supervisor/internal/image"
	"github.com/tamzrod/ulp-supervisor/internal/reader"
	"github.com/tamzrod/ulp-supervisor/internal/sink"
	"github.com/tamzrod/ulp-supervisor/internal/status"
	"github.com/tamzrod/ulp-supervisor/internal/wake"
	"github.com/tamzrod/ulp-supervisor/internal/writer"
)

// Options are the startup parameters.
type Options struct {
	CadenceUs    uint32 // 0 => wake-once
	WakeRequired bool
}

// Deps are the collaborators the supervisor drives. Status may be nil.
type Deps struct {
	Coprocessor *coproc.Coprocessor
	Image       *image.Image
	IRQ         wake.Registrar
	Bridge      *wake.Bridge
	Reader      *reader.Reader
	Sink        sink.Sink
	Status      writer.StatusWriter
}

// Supervisor owns the coprocessor handle and the runtime tasks.
type Supervisor struct {
	opts Options
	d    Deps
	log  *log.Entry
	mon  *monitor

	mu      sync.Mutex
	started bool
	wakeOK  bool
}

// New checks that every required collaborator is present.
func New(opts Options, d Deps, logger *log.Entry) (*Supervisor, error) {
	switch {
	case d.Coprocessor == nil:
		return nil, errors.New("supervisor: coprocessor required")
	case d.Image == nil:
		return nil, errors.New("supervisor: image required")
	case d.Bridge == nil || d.IRQ == nil:
		return nil, errors.New("supervisor: wake bridge and interrupt controller required")
	case d.Reader == nil:
		return nil, errors.New("supervisor: reader required")
	}
	if d.Sink == nil {
		d.Sink = sink.NewLog(nil)
	}
	if logger == nil {
		logger = log.WithField("component", "supervisor")
	}
	s := &Supervisor{opts: opts, d: d, log: logger}
	s.mon = newMonitor(d.Coprocessor, d.Reader, d.Bridge, d.Status, logger.WithField("task", "monitor"))
	return s, nil
}

// Start runs the synchronous startup sequence:
//
//	load -> configure cadence (optional) -> register wake -> start
//
// The first failure aborts the rest and is returned.
func (s *Supervisor) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return errors.New("supervisor: already started")
	}

	cp := s.d.Coprocessor
	if err := cp.Load(s.d.Image); err != nil {
		return err
	}

	if s.opts.CadenceUs > 0 {
		if err := cp.ConfigureCadence(s.opts.CadenceUs); err != nil {
			return err
		}
	} else {
		s.log.Info("no cadence configured, coprocessor runs once")
	}

	if err := s.d.Bridge.Register(s.d.IRQ); err != nil {
		if s.opts.WakeRequired {
			return err
		}
		s.log.WithError(err).Warn("wake notifications unavailable")
	} else {
		s.wakeOK = true
	}

	if err := cp.Start(s.d.Image.Entry); err != nil {
		return err
	}

	s.started = true
	s.mon.markStarted()
	return nil
}

// Run launches the wake consumer, the frame reader and the status monitor,
// and blocks until ctx is done. Start must have succeeded.
func (s *Supervisor) Run(ctx context.Context) error {
	s.mu.Lock()
	started, wakeOK := s.started, s.wakeOK
	s.mu.Unlock()
	if !started {
		return errors.New("supervisor: not started")
	}

	var wg sync.WaitGroup

	if wakeOK {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.d.Bridge.Run(ctx, s.d.Sink.Wake)
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = s.d.Reader.Run(ctx, s.d.Sink.Frame, s.log.WithField("task", "reader"))
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		s.mon.run(ctx)
	}()

	<-ctx.Done()
	wg.Wait()
	return nil
}

// Snapshot returns the latest status snapshot.
func (s *Supervisor) Snapshot() status.Snapshot {
	return s.mon.snapshot()
}

// LastError returns the most recent transport error, nil when healthy.
func (s *Supervisor) LastError() error {
	return s.d.Reader.Stats().LastErr
}
