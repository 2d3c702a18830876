// internal/writer/types.go
package writer

import "github.com/tamzrod/ulp-supervisor/internal/status"

// StatusPlan is where the status block lives.
type StatusPlan struct {
	Endpoint   string
	UnitID     uint8
	BaseSlot   uint16 // block index; address = BaseSlot * SlotsPerDevice
	DeviceName string
}

// StatusWriter is the delivery-only contract for supervisor status.
// It receives a snapshot and writes it verbatim.
type StatusWriter interface {
	WriteStatus(s status.Snapshot) error
}

// endpointClient is the exact contract the status writer uses.
type endpointClient interface {
	WriteRegisters(unitID uint8, addr uint16, regs []uint16) error
}
