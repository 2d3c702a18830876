// internal/reader/serial/client.go
package serial

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/goburrow/serial"
)

// Client implements reader.Transceiver over a UART.
// A read timeout is reported as zero bytes, not as an error.
type Client struct {
	port io.ReadWriteCloser
}

// Config is minimal transport config.
type Config struct {
	Device   string
	Baud     int
	DataBits int
	StopBits int
	Parity   string // N, E or O
	Timeout  time.Duration
}

// New opens the serial device.
func New(cfg Config) (*Client, error) {
	if cfg.Device == "" {
		return nil, errors.New("serial client: device required")
	}

	p, err := serial.Open(&serial.Config{
		Address:  cfg.Device,
		BaudRate: cfg.Baud,
		DataBits: cfg.DataBits,
		StopBits: cfg.StopBits,
		Parity:   cfg.Parity,
		Timeout:  cfg.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("serial client: open %s: %w", cfg.Device, err)
	}
	return &Client{port: p}, nil
}

// Read reads at most len(p) bytes, waiting at most the configured timeout.
func (c *Client) Read(p []byte) (int, error) {
	if c == nil || c.port == nil {
		return 0, errors.New("serial client: not open")
	}
	n, err := c.port.Read(p)
	if errors.Is(err, serial.ErrTimeout) {
		return n, nil
	}
	return n, err
}

// Close closes the port.
func (c *Client) Close() error {
	if c == nil || c.port == nil {
		return nil
	}
	return c.port.Close()
}
