// internal/coproc/errors.go
package coproc

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidState is returned for calls made out of lifecycle order.
	ErrInvalidState = errors.New("invalid state")

	ErrImageAlign = errors.New("image length is not word aligned")
	ErrImageSize  = errors.New("image does not fit control memory")
	ErrBadMagic   = errors.New("image header magic mismatch")
	ErrEntryRange = errors.New("entry offset out of range")
	ErrCadence    = errors.New("invalid cadence")
	ErrNoSuchUnit = errors.New("no such coprocessor")
)

// LoadError is returned by Load.
type LoadError struct {
	ID  int
	Op  string
	Err error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("coproc %d: load (%s): %v", e.ID, e.Op, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// ConfigError is returned by ConfigureCadence.
type ConfigError struct {
	ID       int
	PeriodUs uint32
	Err      error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("coproc %d: configure cadence %dus: %v", e.ID, e.PeriodUs, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// StartError is returned by Start.
type StartError struct {
	ID    int
	Entry uint32
	Err   error
}

func (e *StartError) Error() string {
	return fmt.Sprintf("coproc %d: start at word %d: %v", e.ID, e.Entry, e.Err)
}

func (e *StartError) Unwrap() error { return e.Err }

// stateError wraps ErrInvalidState with the offending transition.
func stateError(have State, op string) error {
	return fmt.Errorf("%w: %s while %s", ErrInvalidState, op, have)
}
