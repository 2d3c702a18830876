// internal/coproc/coproc.go
package coproc

import (
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/tamzrod/ulp-supervisor/internal/image"
)

// State is the host-side lifecycle of one coprocessor.
type State int

const (
	StateUnloaded State = iota
	StateLoaded
	StateCadenceConfigured
	StateRunning
)

func (s State) String() string {
	switch s {
	case StateUnloaded:
		return "unloaded"
	case StateLoaded:
		return "loaded"
	case StateCadenceConfigured:
		return "cadence-configured"
	case StateRunning:
		return "running"
	default:
		return "unknown"
	}
}

// DefaultReserveBytes is the control memory available to programs.
const DefaultReserveBytes = 8176

// Coprocessor is the handle owned by the startup routine.
//
//	Unloaded -> Loaded -> (CadenceConfigured) -> Running
//
// There is no transition out of Running.
type Coprocessor struct {
	id      int
	hal     HAL
	reserve int
	log     *log.Entry

	mu       sync.Mutex
	state    State
	img      *image.Image
	periodUs uint32
}

// Option configures a Coprocessor.
type Option func(*Coprocessor)

// WithReserve sets the control memory size in bytes.
func WithReserve(bytes int) Option {
	return func(c *Coprocessor) {
		if bytes > 0 {
			c.reserve = bytes
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *log.Entry) Option {
	return func(c *Coprocessor) {
		if l != nil {
			c.log = l
		}
	}
}

// New returns a handle in StateUnloaded.
func New(id int, hal HAL, opts ...Option) *Coprocessor {
	if hal == nil {
		panic("coproc: hal cannot be nil")
	}
	c := &Coprocessor{
		id:      id,
		hal:     hal,
		reserve: DefaultReserveBytes,
		log:     log.WithField("component", "coproc"),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.WithField("id", id)
	return c
}

func (c *Coprocessor) ID() int { return c.id }

func (c *Coprocessor) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Image returns the resident image, nil before a successful Load.
func (c *Coprocessor) Image() *image.Image {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.img
}

// CadenceUs returns the configured period, 0 in wake-once mode.
func (c *Coprocessor) CadenceUs() uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.periodUs
}

// Load copies img into control memory. The coprocessor stays halted.
// Loading the same image again is safe. Loading while running is rejected.
func (c *Coprocessor) Load(img *image.Image) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateRunning {
		return &LoadError{ID: c.id, Op: "state", Err: stateError(c.state, "load")}
	}
	if img == nil || len(img.Bytes) == 0 {
		return &LoadError{ID: c.id, Op: "validate", Err: ErrImageSize}
	}
	if len(img.Bytes)%image.WordSize != 0 {
		return &LoadError{ID: c.id, Op: "validate", Err: ErrImageAlign}
	}
	// the header is not copied; the HAL checks the exact footprint
	if len(img.Bytes) > c.reserve+image.HeaderSize {
		return &LoadError{ID: c.id, Op: "validate", Err: ErrImageSize}
	}

	words := img.WordCount()
	if err := c.hal.LoadBinary(c.id, img.Bytes, words); err != nil {
		return &LoadError{ID: c.id, Op: "copy", Err: err}
	}

	c.img = img
	if c.state == StateUnloaded {
		c.state = StateLoaded
	}
	c.log.WithField("source", img.Source).WithField("words", words).Info("image loaded")
	return nil
}

// ConfigureCadence sets the autonomous wake period. Optional; must
// precede Start.
func (c *Coprocessor) ConfigureCadence(periodUs uint32) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case StateLoaded, StateCadenceConfigured:
	default:
		return &ConfigError{ID: c.id, PeriodUs: periodUs, Err: stateError(c.state, "configure cadence")}
	}
	if periodUs == 0 {
		return &ConfigError{ID: c.id, PeriodUs: periodUs, Err: ErrCadence}
	}
	if err := c.hal.SetWakeupPeriod(c.id, 0, periodUs); err != nil {
		return &ConfigError{ID: c.id, PeriodUs: periodUs, Err: err}
	}

	c.periodUs = periodUs
	c.state = StateCadenceConfigured
	c.log.WithField("period_us", periodUs).Debug("cadence configured")
	return nil
}

// Start runs the resident program from entry (in words).
func (c *Coprocessor) Start(entry uint32) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case StateLoaded, StateCadenceConfigured:
	default:
		return &StartError{ID: c.id, Entry: entry, Err: stateError(c.state, "start")}
	}
	if int(entry) >= c.reserve/image.WordSize {
		return &StartError{ID: c.id, Entry: entry, Err: ErrEntryRange}
	}
	if err := c.hal.Run(c.id, entry); err != nil {
		return &StartError{ID: c.id, Entry: entry, Err: err}
	}

	c.state = StateRunning
	c.log.WithField("entry", entry).Info("coprocessor running")
	return nil
}
