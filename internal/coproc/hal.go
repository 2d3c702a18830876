// internal/coproc/hal.go
package coproc

// HAL is the hardware abstraction the coprocessor handle drives.
// Calls are synchronous and not cancellable.
type HAL interface {
	// LoadBinary copies words*4 bytes of program into control memory.
	LoadBinary(id int, program []byte, words int) error

	// SetWakeupPeriod programs one of the wake timer period registers.
	SetWakeupPeriod(id int, index int, periodUs uint32) error

	// Run starts execution at entry (in words).
	Run(id int, entry uint32) error
}
