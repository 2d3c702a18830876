// internal/supervisor/monitor.go
package supervisor

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/tamzrod/ulp-supervisor/internal/coproc"
	"github.com/tamzrod/ulp-supervisor/internal/reader"
	"github.com/tamzrod/ulp-supervisor/internal/status"
	"github.com/tamzrod/ulp-supervisor/internal/wake"
	"github.com/tamzrod/ulp-supervisor/internal/writer"
)

// StaleAfter is how long a running coprocessor may stay silent before
// health turns stale.
const StaleAfter = 60 * time.Second

// monitor owns the status snapshot. It folds reader and wake counters
// into it on a 1 Hz ticker and delivers it to the status writer.
type monitor struct {
	cp     *coproc.Coprocessor
	rd     *reader.Reader
	bridge *wake.Bridge
	sw     writer.StatusWriter
	log    *log.Entry

	mu        sync.Mutex
	snap      status.Snapshot
	startedAt time.Time
	written   bool
}

func newMonitor(cp *coproc.Coprocessor, rd *reader.Reader, b *wake.Bridge, sw writer.StatusWriter, l *log.Entry) *monitor {
	if l == nil {
		l = log.WithField("component", "monitor")
	}
	return &monitor{
		cp:     cp,
		rd:     rd,
		bridge: b,
		sw:     sw,
		log:    l,
		snap:   status.Snapshot{Health: status.HealthUnknown},
	}
}

func (m *monitor) markStarted() {
	m.mu.Lock()
	m.startedAt = time.Now()
	m.mu.Unlock()
}

func (m *monitor) snapshot() status.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snap
}

func (m *monitor) run(ctx context.Context) {
	// Full block write on start (identity re-assert).
	m.tick(time.Now())

	t := time.NewTicker(time.Second)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			m.tick(now)
		}
	}
}

// tick recomputes the snapshot and delivers it when it changed.
func (m *monitor) tick(now time.Time) {
	m.mu.Lock()
	prev := m.snap
	next := m.compute(prev, now)
	m.snap = next
	first := !m.written
	m.written = true
	m.mu.Unlock()

	if m.sw == nil || (!first && next == prev) {
		return
	}
	if err := m.sw.WriteStatus(next); err != nil {
		m.log.WithError(err).Warn("status write failed")
	}
}

func (m *monitor) compute(prev status.Snapshot, now time.Time) status.Snapshot {
	st := m.rd.Stats()

	next := status.Snapshot{
		Lifecycle:       lifecycleCode(m.cp.State()),
		Health:          prev.Health,
		LastErrorCode:   prev.LastErrorCode,
		SecondsInError:  prev.SecondsInError,
		Wakes:           uint32(m.bridge.Wakes()),
		Frames:          uint32(st.Frames),
		TransportErrors: saturate16(st.TransportErrors),
	}

	switch {
	case st.Polls == 0:
		// nothing observed yet
	case st.LastErr != nil:
		next.Health = status.HealthError
		next.LastErrorCode = status.ErrorTransport
	case m.stale(st, now):
		next.Health = status.HealthStale
	default:
		next.Health = status.HealthOK
		next.LastErrorCode = status.ErrorNone
	}

	switch next.Health {
	case status.HealthOK, status.HealthUnknown:
		next.SecondsInError = 0
	default:
		// counted per tick; never wraps
		if next.SecondsInError < 65535 {
			next.SecondsInError++
		}
	}
	return next
}

func (m *monitor) stale(st reader.Stats, now time.Time) bool {
	if m.cp.State() != coproc.StateRunning || m.startedAt.IsZero() {
		return false
	}
	last := st.LastFrameAt
	if last.Before(m.startedAt) {
		last = m.startedAt
	}
	return now.Sub(last) > StaleAfter
}

func lifecycleCode(s coproc.State) uint16 {
	switch s {
	case coproc.StateLoaded:
		return status.LifecycleLoaded
	case coproc.StateCadenceConfigured:
		return status.LifecycleCadenceConfigured
	case coproc.StateRunning:
		return status.LifecycleRunning
	default:
		return status.LifecycleUnloaded
	}
}

func saturate16(v uint64) uint16 {
	if v > 65535 {
		return 65535
	}
	return uint16(v)
}
