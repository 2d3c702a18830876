// internal/sink/mqtt.go
package sink

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/denisbrodbeck/machineid"
	paho "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"

	cfg "github.com/tamzrod/ulp-supervisor/internal/config"
	"github.com/tamzrod/ulp-supervisor/internal/reader"
	"github.com/tamzrod/ulp-supervisor/internal/wake"
)

const (
	mqttQueueDepth     = 256
	mqttConnectTimeout = 5 * time.Second
	mqttPublishTimeout = 2 * time.Second
)

type message struct {
	topic   string
	payload []byte
}

type framePayload struct {
	Text      string    `json:"text"`
	At        time.Time `json:"at"`
	Truncated bool      `json:"truncated,omitempty"`
}

type wakePayload struct {
	Seq    uint64    `json:"seq"`
	Raised uint64    `json:"raised"`
	Status uint32    `json:"status"`
	At     time.Time `json:"at"`
}

// MQTT publishes frames to <prefix>/frame and wakes to <prefix>/wake.
// Events are queued and published by Run; when the queue is full the
// event is dropped and counted.
type MQTT struct {
	prefix  string
	publish func(topic string, payload []byte) error
	closeFn func()
	closed  sync.Once
	queue   chan message
	dropped atomic.Uint64
	log     *log.Entry
}

// DialMQTT connects to the broker. The connection is attempted once.
func DialMQTT(mc cfg.MQTTConfig, logger *log.Entry) (*MQTT, error) {
	if mc.Broker == "" {
		return nil, errors.New("mqtt sink: broker required")
	}
	id := mc.ClientID
	if id == "" {
		id = DefaultClientID()
	}

	opts := paho.NewClientOptions()
	opts.AddBroker(mc.Broker)
	opts.SetClientID(id)
	opts.SetAutoReconnect(true)

	c := paho.NewClient(opts)
	token := c.Connect()
	if !token.WaitTimeout(mqttConnectTimeout) {
		return nil, fmt.Errorf("mqtt sink: connect %s: timeout", mc.Broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt sink: connect %s: %w", mc.Broker, err)
	}

	qos := mc.QoS
	pub := func(topic string, payload []byte) error {
		t := c.Publish(topic, qos, false, payload)
		if !t.WaitTimeout(mqttPublishTimeout) {
			return errors.New("publish timeout")
		}
		return t.Error()
	}
	s := newMQTT(mc.TopicPrefix, pub, logger)
	s.closeFn = func() { c.Disconnect(250) }
	return s, nil
}

func newMQTT(prefix string, publish func(string, []byte) error, logger *log.Entry) *MQTT {
	if logger == nil {
		logger = log.WithField("component", "mqtt")
	}
	if prefix == "" {
		prefix = cfg.DefaultMQTTTopicPrefix
	}
	return &MQTT{
		prefix:  prefix,
		publish: publish,
		queue:   make(chan message, mqttQueueDepth),
		log:     logger,
	}
}

// DefaultClientID derives a stable client id from the machine id.
func DefaultClientID() string {
	id, err := machineid.ProtectedID("ulp-supervisor")
	if err != nil || len(id) < 12 {
		host, _ := os.Hostname()
		return "ulp-supervisor-" + host
	}
	return "ulp-supervisor-" + id[:12]
}

func (s *MQTT) Frame(f reader.Frame) {
	s.enqueue("frame", framePayload{Text: f.Text, At: f.At, Truncated: f.Truncated})
}

func (s *MQTT) Wake(ev wake.Event) {
	s.enqueue("wake", wakePayload{Seq: ev.Seq, Raised: ev.Raised, Status: ev.Status, At: ev.At})
}

// Dropped counts events lost to a full queue.
func (s *MQTT) Dropped() uint64 { return s.dropped.Load() }

func (s *MQTT) enqueue(kind string, v interface{}) {
	b, err := json.Marshal(v)
	if err != nil {
		s.log.WithError(err).Warn("encode failed")
		return
	}
	select {
	case s.queue <- message{topic: s.prefix + "/" + kind, payload: b}:
	default:
		s.dropped.Add(1)
	}
}

// Close disconnects from the broker. Safe to call more than once.
func (s *MQTT) Close() error {
	s.closed.Do(func() {
		if s.closeFn != nil {
			s.closeFn()
		}
	})
	return nil
}

// Run publishes queued events until ctx is done, then disconnects.
func (s *MQTT) Run(ctx context.Context) error {
	defer s.Close()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case m := <-s.queue:
			if err := s.publish(m.topic, m.payload); err != nil {
				s.log.WithError(err).WithField("topic", m.topic).Warn("publish failed")
			}
		}
	}
}
