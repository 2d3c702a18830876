// internal/sink/sink_test.go
package sink

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"github.com/tamzrod/ulp-supervisor/internal/reader"
	"github.com/tamzrod/ulp-supervisor/internal/wake"
)

type recorder struct {
	frames []string
	wakes  []uint64
}

func (r *recorder) Frame(f reader.Frame) { r.frames = append(r.frames, f.Text) }
func (r *recorder) Wake(ev wake.Event)   { r.wakes = append(r.wakes, ev.Seq) }

func TestMulti_FansOut(t *testing.T) {
	a, b := &recorder{}, &recorder{}
	m := Multi{a, b}

	m.Frame(reader.Frame{Text: "ab"})
	m.Wake(wake.Event{Seq: 1})

	require.Equal(t, []string{"ab"}, a.frames)
	require.Equal(t, []string{"ab"}, b.frames)
	require.Equal(t, []uint64{1}, b.wakes)
}

func TestLog_OneLinePerEvent(t *testing.T) {
	logger, hook := test.NewNullLogger()
	s := NewLog(log.NewEntry(logger))

	s.Frame(reader.Frame{Text: "temp=21"})
	s.Frame(reader.Frame{Text: "cut", Truncated: true})
	s.Wake(wake.Event{Seq: 4, Raised: 9})

	entries := hook.AllEntries()
	require.Len(t, entries, 3)
	require.Equal(t, "temp=21", entries[0].Message)
	require.Equal(t, 7, entries[0].Data["len"])
	require.Equal(t, true, entries[1].Data["truncated"])
	require.Equal(t, "wake", entries[2].Message)
	require.Equal(t, uint64(4), entries[2].Data["seq"])
	require.Equal(t, log.InfoLevel, entries[2].Level)
}

func TestRing_KeepsNewestInOrder(t *testing.T) {
	r := NewRing(3)
	require.Empty(t, r.Recent())

	for _, s := range []string{"a", "b"} {
		r.Frame(reader.Frame{Text: s})
	}
	require.Equal(t, []string{"a", "b"}, texts(r.Recent()))

	for _, s := range []string{"c", "d", "e"} {
		r.Frame(reader.Frame{Text: s})
	}
	require.Equal(t, []string{"c", "d", "e"}, texts(r.Recent()))
}

func texts(fs []reader.Frame) []string {
	out := make([]string, 0, len(fs))
	for _, f := range fs {
		out = append(out, f.Text)
	}
	return out
}

type published struct {
	mu   sync.Mutex
	msgs map[string][][]byte
}

func (p *published) publish(topic string, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs[topic] = append(p.msgs[topic], payload)
	return nil
}

func (p *published) count(topic string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.msgs[topic])
}

func TestMQTT_PublishesToTopics(t *testing.T) {
	p := &published{msgs: map[string][][]byte{}}
	s := newMQTT("ulp/0", p.publish, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	s.Frame(reader.Frame{Text: "hello"})
	s.Wake(wake.Event{Seq: 2, Raised: 5, Status: 1 << 5})

	require.Eventually(t, func() bool {
		return p.count("ulp/0/frame") == 1 && p.count("ulp/0/wake") == 1
	}, time.Second, time.Millisecond)
	cancel()
	require.ErrorIs(t, <-done, context.Canceled)

	var fp framePayload
	require.NoError(t, json.Unmarshal(p.msgs["ulp/0/frame"][0], &fp))
	require.Equal(t, "hello", fp.Text)

	var wp wakePayload
	require.NoError(t, json.Unmarshal(p.msgs["ulp/0/wake"][0], &wp))
	require.Equal(t, uint64(2), wp.Seq)
	require.Equal(t, uint64(5), wp.Raised)
}

func TestMQTT_DropsWhenQueueFull(t *testing.T) {
	s := newMQTT("", func(string, []byte) error { return nil }, nil)
	for i := 0; i < mqttQueueDepth+10; i++ {
		s.Frame(reader.Frame{Text: "x"})
	}
	require.Equal(t, uint64(10), s.Dropped())
}

func TestMQTT_PublishErrorsAreAbsorbed(t *testing.T) {
	var calls sync.WaitGroup
	calls.Add(2)
	s := newMQTT("", func(string, []byte) error {
		calls.Done()
		return errors.New("broker gone")
	}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = s.Run(ctx) }()

	s.Frame(reader.Frame{Text: "a"})
	s.Frame(reader.Frame{Text: "b"})
	calls.Wait()
}

func TestMQTT_CloseDisconnectsOnce(t *testing.T) {
	s := newMQTT("", func(string, []byte) error { return nil }, nil)
	disconnects := 0
	s.closeFn = func() { disconnects++ }

	// never ran: Close alone releases the connection
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	require.Equal(t, 1, disconnects)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, s.Run(ctx), context.Canceled)
	require.Equal(t, 1, disconnects)
}

func TestDefaultClientID(t *testing.T) {
	require.Contains(t, DefaultClientID(), "ulp-supervisor-")
}
