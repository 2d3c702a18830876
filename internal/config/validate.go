// internal/config/validate.go
package config

import (
	"fmt"
	"strings"
)

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config: nil")
	}
	s := cfg.Supervisor

	// ------------------------------------------------------------
	// COPROCESSOR
	// ------------------------------------------------------------

	c := s.Coprocessor
	if c.ID < 0 {
		return fmt.Errorf("coprocessor.id: must be >= 0, got %d", c.ID)
	}
	if c.ReserveBytes < 0 {
		return fmt.Errorf("coprocessor.reserve_bytes: must be >= 0, got %d", c.ReserveBytes)
	}
	if c.ReserveBytes%4 != 0 {
		return fmt.Errorf("coprocessor.reserve_bytes: must be a multiple of 4, got %d", c.ReserveBytes)
	}

	// ------------------------------------------------------------
	// SERIAL
	// ------------------------------------------------------------

	sr := s.Serial
	if sr.Device == "" && !c.Simulate {
		return fmt.Errorf("serial.device: required unless coprocessor.simulate is set")
	}
	if sr.Baud < 0 {
		return fmt.Errorf("serial.baud: must be >= 0, got %d", sr.Baud)
	}
	switch sr.DataBits {
	case 0, 5, 6, 7, 8:
	default:
		return fmt.Errorf("serial.data_bits: must be 5..8, got %d", sr.DataBits)
	}
	switch sr.StopBits {
	case 0, 1, 2:
	default:
		return fmt.Errorf("serial.stop_bits: must be 1 or 2, got %d", sr.StopBits)
	}
	switch strings.ToUpper(sr.Parity) {
	case "", "N", "E", "O":
	default:
		return fmt.Errorf("serial.parity: must be N, E or O, got %q", sr.Parity)
	}
	if sr.TimeoutMs < 0 {
		return fmt.Errorf("serial.timeout_ms: must be >= 0, got %d", sr.TimeoutMs)
	}
	// one byte is reserved for the sentinel
	if sr.BufferSize != 0 && sr.BufferSize < 2 {
		return fmt.Errorf("serial.buffer_size: must be >= 2, got %d", sr.BufferSize)
	}

	// ------------------------------------------------------------
	// WAKE
	// ------------------------------------------------------------

	if s.Wake.Line < 0 {
		return fmt.Errorf("wake.line: must be >= 0, got %d", s.Wake.Line)
	}
	if s.Wake.StatusBit > 31 {
		return fmt.Errorf("wake.status_bit: must be 0..31, got %d", s.Wake.StatusBit)
	}

	// ------------------------------------------------------------
	// STATUS MEMORY (OPT-IN)
	// ------------------------------------------------------------

	if sm := s.StatusMemory; sm != nil {
		if sm.Endpoint == "" {
			return fmt.Errorf("status_memory.endpoint: required")
		}
		for i := 0; i < len(sm.DeviceName); i++ {
			if sm.DeviceName[i] > 0x7F {
				return fmt.Errorf("status_memory.device_name: must contain ASCII characters only")
			}
		}
		if sm.TimeoutMs < 0 {
			return fmt.Errorf("status_memory.timeout_ms: must be >= 0, got %d", sm.TimeoutMs)
		}
	}

	// ------------------------------------------------------------
	// MQTT (OPT-IN)
	// ------------------------------------------------------------

	if m := s.MQTT; m != nil {
		if m.Broker == "" {
			return fmt.Errorf("mqtt.broker: required")
		}
		if m.QoS > 2 {
			return fmt.Errorf("mqtt.qos: must be 0..2, got %d", m.QoS)
		}
	}

	// ------------------------------------------------------------
	// HTTP (OPT-IN)
	// ------------------------------------------------------------

	if h := s.HTTP; h != nil && h.Listen == "" {
		return fmt.Errorf("http.listen: required")
	}

	return nil
}
