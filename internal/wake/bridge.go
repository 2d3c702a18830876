// internal/wake/bridge.go
package wake

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/tamzrod/ulp-supervisor/internal/irq"
)

// Registrar installs an interrupt handler and unmasks its bits.
type Registrar interface {
	Register(line int, mask uint32, h irq.Handler) error
}

// Event is one observed wake, as seen by the consumer task.
type Event struct {
	Seq    uint64    // consumer-side count, starting at 1
	Status uint32    // status word of the most recent occurrence
	Raised uint64    // handler deliveries seen so far
	At     time.Time // when the consumer woke
}

// Config selects the interrupt source.
type Config struct {
	Line      int
	StatusBit uint8
}

// Bridge forwards coprocessor wake interrupts to a consumer task.
// At most one wake is ever pending; bursts collapse into one.
type Bridge struct {
	cfg    Config
	credit *Credit
	log    *log.Entry

	registered atomic.Bool
	raised     atomic.Uint64
	wakes      atomic.Uint64
	lastStatus atomic.Uint32
}

// New creates an unregistered bridge.
func New(cfg Config, logger *log.Entry) *Bridge {
	if logger == nil {
		logger = log.WithField("component", "wake")
	}
	return &Bridge{
		cfg:    cfg,
		credit: NewCredit(),
		log:    logger,
	}
}

func (b *Bridge) mask() uint32 {
	return 1 << b.cfg.StatusBit
}

// Register installs the interrupt handler and unmasks the status bit.
// A conflict on the line is returned as *irq.RegisterError.
func (b *Bridge) Register(r Registrar) error {
	if r == nil {
		return errors.New("wake: nil registrar")
	}
	if err := r.Register(b.cfg.Line, b.mask(), b.handle); err != nil {
		return err
	}
	b.registered.Store(true)
	b.log.WithField("line", b.cfg.Line).WithField("bit", b.cfg.StatusBit).Debug("wake interrupt registered")
	return nil
}

// handle runs in interrupt context: no blocking, no locks, no logging.
func (b *Bridge) handle(status uint32) bool {
	if status&b.mask() == 0 {
		return false
	}
	b.raised.Add(1)
	b.lastStatus.Store(status)
	return b.credit.Give()
}

// Run is the consumer task. It blocks until a wake is pending, clears it
// and calls notify. Returns only when ctx is done.
func (b *Bridge) Run(ctx context.Context, notify func(Event)) error {
	if !b.registered.Load() {
		return errors.New("wake: bridge not registered")
	}
	for {
		if err := b.credit.Take(ctx); err != nil {
			return err
		}
		ev := Event{
			Seq:    b.wakes.Add(1),
			Status: b.lastStatus.Load(),
			Raised: b.raised.Load(),
			At:     time.Now(),
		}
		if notify != nil {
			notify(ev)
		}
	}
}

// Raised is the number of handler deliveries. Occurrences latched
// together before a dispatch count once.
func (b *Bridge) Raised() uint64 { return b.raised.Load() }

// Wakes is the number of wakes the consumer has observed.
func (b *Bridge) Wakes() uint64 { return b.wakes.Load() }
