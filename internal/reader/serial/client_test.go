// internal/reader/serial/client_test.go
package serial

import (
	"errors"
	"testing"

	"github.com/goburrow/serial"
	"github.com/stretchr/testify/require"
)

type fakePort struct {
	n      int
	err    error
	closed bool
}

func (f *fakePort) Read(p []byte) (int, error)  { return f.n, f.err }
func (f *fakePort) Write(p []byte) (int, error) { return len(p), nil }
func (f *fakePort) Close() error                { f.closed = true; return nil }

func TestRead_TimeoutIsZeroBytes(t *testing.T) {
	c := &Client{port: &fakePort{err: serial.ErrTimeout}}
	n, err := c.Read(make([]byte, 8))
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestRead_OtherErrorsPropagate(t *testing.T) {
	boom := errors.New("io error")
	c := &Client{port: &fakePort{err: boom}}
	_, err := c.Read(make([]byte, 8))
	require.ErrorIs(t, err, boom)
}

func TestNew_RequiresDevice(t *testing.T) {
	_, err := New(Config{})
	require.Error(t, err)
}

func TestClose(t *testing.T) {
	p := &fakePort{}
	c := &Client{port: p}
	require.NoError(t, c.Close())
	require.True(t, p.closed)

	var nilClient *Client
	require.NoError(t, nilClient.Close())
	_, err := nilClient.Read(nil)
	require.Error(t, err)
}
