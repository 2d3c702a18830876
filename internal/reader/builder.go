// internal/reader/builder.go
package reader

import (
	"time"

	cfg "github.com/tamzrod/ulp-supervisor/internal/config"
	rserial "github.com/tamzrod/ulp-supervisor/internal/reader/serial"
)

// Build constructs a Reader from config.
// When link is non-nil it is used as the transceiver (simulation);
// otherwise the serial device is opened, once, failing fast.
func Build(sc cfg.SerialConfig, link Transceiver) (*Reader, func() error, error) {
	rc := Config{
		BufferSize:   sc.BufferSize,
		CarryPartial: sc.CarryPartial,
	}

	if link != nil {
		r, err := New(rc, link)
		if err != nil {
			return nil, nil, err
		}
		return r, func() error { return nil }, nil
	}

	port, err := rserial.New(rserial.Config{
		Device:   sc.Device,
		Baud:     sc.Baud,
		DataBits: sc.DataBits,
		StopBits: sc.StopBits,
		Parity:   sc.Parity,
		Timeout:  time.Duration(sc.TimeoutMs) * time.Millisecond,
	})
	if err != nil {
		return nil, nil, err
	}

	r, err := New(rc, port)
	if err != nil {
		_ = port.Close()
		return nil, nil, err
	}
	return r, port.Close, nil
}
