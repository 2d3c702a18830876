// internal/coproc/sim.go
package coproc

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/tamzrod/ulp-supervisor/internal/image"
)

// PeriodRegisters is the number of wake timer period registers per unit.
const PeriodRegisters = 5

var (
	ErrSimRunning   = errors.New("sim: coprocessor is running")
	ErrSimNotLoaded = errors.New("sim: no program loaded")
	ErrPeriodIndex  = errors.New("sim: period register index out of range")
)

// Raiser latches interrupt status bits on a line.
type Raiser interface {
	Raise(line int, bits uint32)
}

// SimConfig describes the simulated hardware.
type SimConfig struct {
	Units        []int // instance ids; empty => {0}
	ReserveBytes int

	// Wake interrupt wiring.
	IRQ       Raiser
	Line      int
	StatusBit uint8

	// Out receives the status text the program emits, one
	// null-terminated frame per execution. May be nil.
	Out io.Writer

	Logger *log.Entry
}

type simUnit struct {
	mem     []byte
	loaded  bool
	header  image.Header
	period  [PeriodRegisters]uint32
	running bool
	runs    uint64
}

// Sim is a hosted HAL. Once running, a unit executes on its own goroutine:
// every wake period (or once, with no period set) it writes a status frame
// to Out and raises the wake status bit.
type Sim struct {
	cfg SimConfig
	log *log.Entry

	mu    sync.Mutex
	units map[int]*simUnit

	stop chan struct{}
	wg   sync.WaitGroup
	once sync.Once
}

// NewSim returns a simulator with every unit halted and memory zeroed.
func NewSim(cfg SimConfig) *Sim {
	if cfg.ReserveBytes <= 0 {
		cfg.ReserveBytes = DefaultReserveBytes
	}
	if len(cfg.Units) == 0 {
		cfg.Units = []int{0}
	}
	if cfg.Logger == nil {
		cfg.Logger = log.WithField("component", "sim")
	}
	s := &Sim{
		cfg:   cfg,
		log:   cfg.Logger,
		units: make(map[int]*simUnit, len(cfg.Units)),
		stop:  make(chan struct{}),
	}
	for _, id := range cfg.Units {
		s.units[id] = &simUnit{mem: make([]byte, cfg.ReserveBytes)}
	}
	return s
}

func (s *Sim) unit(id int) (*simUnit, error) {
	u := s.units[id]
	if u == nil {
		return nil, fmt.Errorf("%w: %d", ErrNoSuchUnit, id)
	}
	return u, nil
}

// LoadBinary validates the toolchain header, copies text and data to the
// start of control memory and zeroes bss.
func (s *Sim) LoadBinary(id int, program []byte, words int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, err := s.unit(id)
	if err != nil {
		return err
	}
	if u.running {
		return ErrSimRunning
	}

	size := words * image.WordSize
	if size > len(program) || size < image.HeaderSize {
		return ErrImageSize
	}
	h, err := image.ParseHeader(program[:size])
	if errors.Is(err, image.ErrBadMagic) {
		return ErrBadMagic
	}
	if err != nil {
		return ErrImageSize
	}
	if h.Footprint() > len(u.mem) {
		return ErrImageSize
	}
	if int(h.TextOffset)+h.LoadSize() > size {
		return ErrImageSize
	}

	n := copy(u.mem, program[h.TextOffset:int(h.TextOffset)+h.LoadSize()])
	for i := n; i < n+int(h.BSSSize); i++ {
		u.mem[i] = 0
	}
	u.header = h
	u.loaded = true
	return nil
}

// SetWakeupPeriod programs a period register.
func (s *Sim) SetWakeupPeriod(id int, index int, periodUs uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, err := s.unit(id)
	if err != nil {
		return err
	}
	if index < 0 || index >= PeriodRegisters {
		return ErrPeriodIndex
	}
	if periodUs == 0 {
		return ErrCadence
	}
	u.period[index] = periodUs
	return nil
}

// Run starts the unit at entry.
func (s *Sim) Run(id int, entry uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, err := s.unit(id)
	if err != nil {
		return err
	}
	if !u.loaded {
		return ErrSimNotLoaded
	}
	if u.running {
		return ErrSimRunning
	}
	if int(entry)*image.WordSize >= u.header.LoadSize() {
		return ErrEntryRange
	}

	u.running = true
	period := time.Duration(u.period[0]) * time.Microsecond

	s.wg.Add(1)
	go s.execute(id, u, period)
	return nil
}

// Memory returns a copy of a unit's control memory.
func (s *Sim) Memory(id int) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, err := s.unit(id)
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(u.mem))
	copy(out, u.mem)
	return out, nil
}

// Runs reports how many times a unit has executed.
func (s *Sim) Runs(id int) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u := s.units[id]; u != nil {
		return u.runs
	}
	return 0
}

// Close halts every unit. Only used to tear the simulation down.
func (s *Sim) Close() error {
	s.once.Do(func() { close(s.stop) })
	s.wg.Wait()
	return nil
}

func (s *Sim) execute(id int, u *simUnit, period time.Duration) {
	defer s.wg.Done()

	s.step(id, u)
	if period <= 0 {
		// wake-once
		return
	}

	t := time.NewTicker(period)
	defer t.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-t.C:
			s.step(id, u)
		}
	}
}

func (s *Sim) step(id int, u *simUnit) {
	s.mu.Lock()
	u.runs++
	n := u.runs
	s.mu.Unlock()

	if s.cfg.Out != nil {
		frame := fmt.Sprintf("ulp%d wake %d\x00", id, n)
		if _, err := io.WriteString(s.cfg.Out, frame); err != nil {
			s.log.WithError(err).Debug("status write dropped")
		}
	}
	if s.cfg.IRQ != nil {
		s.cfg.IRQ.Raise(s.cfg.Line, 1<<s.cfg.StatusBit)
	}
}
