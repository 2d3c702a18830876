// internal/supervisor/builder.go
package supervisor

import (
	"time"

	log "github.com/sirupsen/logrus"

	cfg "github.com/tamzrod/ulp-supervisor/internal/config"
	"github.com/tamzrod/ulp-supervisor/internal/coproc"
	"github.com/tamzrod/ulp-supervisor/internal/image"
	"github.com/tamzrod/ulp-supervisor/internal/irq"
	"github.com/tamzrod/ulp-supervisor/internal/reader"
	"github.com/tamzrod/ulp-supervisor/internal/sink"
	"github.com/tamzrod/ulp-supervisor/internal/wake"
	"github.com/tamzrod/ulp-supervisor/internal/writer"
)

// RecentFrames is the size of the in-memory frame ring served over HTTP.
const RecentFrames = 32

// Runtime is everything Build wires together. Close releases it in
// reverse order of construction.
type Runtime struct {
	Supervisor *Supervisor
	Ring       *sink.Ring
	MQTT       *sink.MQTT // nil when not configured
	Sim        *coproc.Sim

	closers []func() error
}

// Close releases every resource Build acquired.
func (rt *Runtime) Close() error {
	var first error
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	rt.closers = nil
	return first
}

// Build turns a validated, normalized config into a ready-to-start
// supervisor. The coprocessor is driven through the hosted simulator;
// with coprocessor.simulate set, its output is looped back to the frame
// reader instead of opening the serial device.
func Build(c *cfg.Config, logger *log.Entry) (*Runtime, error) {
	if logger == nil {
		logger = log.NewEntry(log.StandardLogger())
	}
	sc := c.Supervisor
	rt := &Runtime{}

	img, err := image.Select(sc.Coprocessor.Image, sc.Coprocessor.EntryOffset)
	if err != nil {
		return nil, err
	}
	logger.WithFields(log.Fields{
		"source": img.Source,
		"bytes":  len(img.Bytes),
		"entry":  img.Entry,
	}).Info("program image selected")

	ctl := irq.NewController()

	var link *coproc.Link
	simCfg := coproc.SimConfig{
		Units:        []int{sc.Coprocessor.ID},
		ReserveBytes: sc.Coprocessor.ReserveBytes,
		IRQ:          ctl,
		Line:         sc.Wake.Line,
		StatusBit:    sc.Wake.StatusBit,
		Logger:       logger.WithField("component", "sim"),
	}
	if sc.Coprocessor.Simulate {
		link = coproc.NewLink(2*sc.Serial.BufferSize, time.Duration(sc.Serial.TimeoutMs)*time.Millisecond)
		simCfg.Out = link
	}
	sim := coproc.NewSim(simCfg)
	rt.Sim = sim
	rt.closers = append(rt.closers, sim.Close)

	var tr reader.Transceiver
	if link != nil {
		tr = link
	}
	rd, closeReader, err := reader.Build(sc.Serial, tr)
	if err != nil {
		_ = rt.Close()
		return nil, err
	}
	rt.closers = append(rt.closers, closeReader)

	rt.Ring = sink.NewRing(RecentFrames)
	sinks := sink.Multi{sink.NewLog(logger.WithField("component", "sink")), rt.Ring}

	if sc.MQTT != nil {
		m, err := sink.DialMQTT(*sc.MQTT, logger.WithField("component", "mqtt"))
		if err != nil {
			_ = rt.Close()
			return nil, err
		}
		rt.MQTT = m
		rt.closers = append(rt.closers, m.Close)
		sinks = append(sinks, m)
	}

	var sw writer.StatusWriter
	if sc.StatusMemory != nil {
		w, closeWriter, err := writer.Build(*sc.StatusMemory)
		if err != nil {
			_ = rt.Close()
			return nil, err
		}
		sw = w
		rt.closers = append(rt.closers, closeWriter)
	}

	cp := coproc.New(sc.Coprocessor.ID, sim,
		coproc.WithReserve(sc.Coprocessor.ReserveBytes),
		coproc.WithLogger(logger.WithField("component", "coproc")),
	)

	bridge := wake.New(wake.Config{Line: sc.Wake.Line, StatusBit: sc.Wake.StatusBit},
		logger.WithField("component", "wake"))

	sup, err := New(Options{
		CadenceUs:    sc.Coprocessor.CadenceUs,
		WakeRequired: sc.Wake.WakeRequired(),
	}, Deps{
		Coprocessor: cp,
		Image:       img,
		IRQ:         ctl,
		Bridge:      bridge,
		Reader:      rd,
		Sink:        sinks,
		Status:      sw,
	}, logger.WithField("component", "supervisor"))
	if err != nil {
		_ = rt.Close()
		return nil, err
	}
	rt.Supervisor = sup
	return rt, nil
}
