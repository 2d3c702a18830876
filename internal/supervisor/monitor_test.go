// internal/supervisor/monitor_test.go
package supervisor

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/tamzrod/ulp-supervisor/internal/coproc"
	"github.com/tamzrod/ulp-supervisor/internal/image"
	"github.com/tamzrod/ulp-supervisor/internal/reader"
	"github.com/tamzrod/ulp-supervisor/internal/status"
	"github.com/tamzrod/ulp-supervisor/internal/wake"
)

// ---- fakes ----

type nopHAL struct{}

func (nopHAL) LoadBinary(int, []byte, int) error      { return nil }
func (nopHAL) SetWakeupPeriod(int, int, uint32) error { return nil }
func (nopHAL) Run(int, uint32) error                  { return nil }

// scriptTransceiver returns the scripted reads in order, then (0, nil).
type scriptTransceiver struct {
	reads []scriptRead
}

type scriptRead struct {
	data string
	err  error
}

func (s *scriptTransceiver) Read(p []byte) (int, error) {
	if len(s.reads) == 0 {
		return 0, nil
	}
	r := s.reads[0]
	s.reads = s.reads[1:]
	if r.err != nil {
		return 0, r.err
	}
	return copy(p, r.data), nil
}

type fakeStatusWriter struct {
	mu     sync.Mutex
	writes []status.Snapshot
	err    error
}

func (w *fakeStatusWriter) WriteStatus(s status.Snapshot) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.writes = append(w.writes, s)
	return w.err
}

func newTestMonitor(t *testing.T, tr reader.Transceiver, sw *fakeStatusWriter) (*monitor, *coproc.Coprocessor, *reader.Reader) {
	t.Helper()
	cp := coproc.New(0, nopHAL{})
	rd, err := reader.New(reader.Config{}, tr)
	if err != nil {
		t.Fatalf("reader: %v", err)
	}
	b := wake.New(wake.Config{}, nil)
	m := newMonitor(cp, rd, b, nil, nil)
	if sw != nil {
		m.sw = sw
	}
	return m, cp, rd
}

func startCoprocessor(t *testing.T, cp *coproc.Coprocessor) {
	t.Helper()
	img, err := image.Default()
	if err != nil {
		t.Fatalf("image: %v", err)
	}
	if err := cp.Load(img); err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := cp.Start(0); err != nil {
		t.Fatalf("start: %v", err)
	}
}

// ---- tests ----

func TestMonitor_UnknownBeforeFirstPoll(t *testing.T) {
	m, _, _ := newTestMonitor(t, &scriptTransceiver{}, nil)

	m.tick(time.Now())
	s := m.snapshot()
	if s.Health != status.HealthUnknown {
		t.Fatalf("health = %d, want unknown", s.Health)
	}
	if s.Lifecycle != status.LifecycleUnloaded {
		t.Fatalf("lifecycle = %d, want unloaded", s.Lifecycle)
	}
	if s.SecondsInError != 0 {
		t.Fatalf("seconds in error = %d", s.SecondsInError)
	}
}

func TestMonitor_HealthFollowsTransport(t *testing.T) {
	boom := errors.New("boom")
	tr := &scriptTransceiver{reads: []scriptRead{
		{err: boom},
		{err: boom},
		{data: "ok\x00"},
	}}
	m, cp, rd := newTestMonitor(t, tr, nil)
	startCoprocessor(t, cp)
	m.markStarted()

	now := time.Now()
	emit := func(reader.Frame) {}

	rd.PollOnce(emit)
	m.tick(now)
	s := m.snapshot()
	if s.Health != status.HealthError || s.LastErrorCode != status.ErrorTransport {
		t.Fatalf("after error: %+v", s)
	}
	if s.SecondsInError != 1 || s.TransportErrors != 1 {
		t.Fatalf("after error: %+v", s)
	}

	rd.PollOnce(emit)
	m.tick(now.Add(time.Second))
	s = m.snapshot()
	if s.SecondsInError != 2 || s.TransportErrors != 2 {
		t.Fatalf("after second error: %+v", s)
	}

	rd.PollOnce(emit)
	m.tick(now.Add(2 * time.Second))
	s = m.snapshot()
	if s.Health != status.HealthOK || s.LastErrorCode != status.ErrorNone || s.SecondsInError != 0 {
		t.Fatalf("after recovery: %+v", s)
	}
	if s.Frames != 1 || s.Lifecycle != status.LifecycleRunning {
		t.Fatalf("after recovery: %+v", s)
	}
	// counter survives recovery
	if s.TransportErrors != 2 {
		t.Fatalf("transport errors = %d, want 2", s.TransportErrors)
	}
}

func TestMonitor_StaleWhenSilent(t *testing.T) {
	tr := &scriptTransceiver{reads: []scriptRead{{data: "hello\x00"}}}
	m, cp, rd := newTestMonitor(t, tr, nil)
	startCoprocessor(t, cp)
	m.markStarted()

	rd.PollOnce(func(reader.Frame) {})
	rd.PollOnce(func(reader.Frame) {}) // quiet poll

	m.tick(time.Now())
	if h := m.snapshot().Health; h != status.HealthOK {
		t.Fatalf("health = %d, want ok", h)
	}

	m.tick(time.Now().Add(StaleAfter + time.Second))
	s := m.snapshot()
	if s.Health != status.HealthStale {
		t.Fatalf("health = %d, want stale", s.Health)
	}
	if s.SecondsInError != 1 {
		t.Fatalf("seconds in error = %d, want 1", s.SecondsInError)
	}
}

func TestMonitor_NotStaleUnlessRunning(t *testing.T) {
	m, _, rd := newTestMonitor(t, &scriptTransceiver{}, nil)
	rd.PollOnce(func(reader.Frame) {})

	m.tick(time.Now().Add(10 * StaleAfter))
	if h := m.snapshot().Health; h != status.HealthOK {
		t.Fatalf("health = %d, want ok", h)
	}
}

func TestMonitor_WritesFirstAndOnChangeOnly(t *testing.T) {
	sw := &fakeStatusWriter{}
	tr := &scriptTransceiver{reads: []scriptRead{{data: "a\x00"}}}
	m, _, rd := newTestMonitor(t, tr, sw)

	now := time.Now()
	m.tick(now) // first: always written
	m.tick(now) // unchanged
	if len(sw.writes) != 1 {
		t.Fatalf("writes = %d, want 1", len(sw.writes))
	}

	rd.PollOnce(func(reader.Frame) {})
	m.tick(now)
	if len(sw.writes) != 2 {
		t.Fatalf("writes = %d, want 2", len(sw.writes))
	}
	if sw.writes[1].Frames != 1 {
		t.Fatalf("frames = %d, want 1", sw.writes[1].Frames)
	}
}

func TestMonitor_WriteFailureDoesNotStop(t *testing.T) {
	sw := &fakeStatusWriter{err: errors.New("endpoint down")}
	m, _, _ := newTestMonitor(t, &scriptTransceiver{}, sw)

	m.tick(time.Now())
	if len(sw.writes) != 1 {
		t.Fatalf("writes = %d, want 1", len(sw.writes))
	}
}

func TestSaturate16(t *testing.T) {
	if saturate16(70000) != 65535 || saturate16(12) != 12 {
		t.Fatal("saturate16")
	}
}
