// internal/supervisor/builder_test.go
package supervisor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	cfg "github.com/tamzrod/ulp-supervisor/internal/config"
	"github.com/tamzrod/ulp-supervisor/internal/status"
)

func simulatedConfig() *cfg.Config {
	c := &cfg.Config{
		Supervisor: cfg.SupervisorConfig{
			Coprocessor: cfg.CoprocessorConfig{ID: 1, CadenceUs: 5000, Simulate: true},
			Wake:        cfg.WakeConfig{Line: 1, StatusBit: 3},
		},
	}
	cfg.Normalize(c)
	return c
}

func TestBuild_SimulatedLoopback(t *testing.T) {
	rt, err := Build(simulatedConfig(), nil)
	require.NoError(t, err)
	defer rt.Close()

	require.Nil(t, rt.MQTT)
	require.NoError(t, rt.Supervisor.Start())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- rt.Supervisor.Run(ctx) }()

	require.Eventually(t, func() bool {
		return len(rt.Ring.Recent()) >= 2
	}, 2*time.Second, 5*time.Millisecond)
	require.Regexp(t, `^ulp1 wake \d+$`, rt.Ring.Recent()[0].Text)

	require.Eventually(t, func() bool {
		return rt.Supervisor.Snapshot().Lifecycle == status.LifecycleRunning
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
	require.Greater(t, rt.Sim.Runs(1), uint64(0))
}

func TestBuild_BadImagePath(t *testing.T) {
	c := simulatedConfig()
	c.Supervisor.Coprocessor.Image = "/nonexistent/ulp.bin"

	_, err := Build(c, nil)
	require.Error(t, err)
}

func TestBuild_SerialDeviceMissing(t *testing.T) {
	c := simulatedConfig()
	c.Supervisor.Coprocessor.Simulate = false
	c.Supervisor.Serial.Device = "/nonexistent/tty"

	_, err := Build(c, nil)
	require.Error(t, err)
}

func TestRuntime_CloseReleasesInReverse(t *testing.T) {
	var order []string
	rt := &Runtime{closers: []func() error{
		func() error { order = append(order, "sim"); return nil },
		func() error { order = append(order, "reader"); return nil },
		func() error { order = append(order, "mqtt"); return errors.New("broker gone") },
	}}

	require.EqualError(t, rt.Close(), "broker gone")
	require.Equal(t, []string{"mqtt", "reader", "sim"}, order)

	// second close is a no-op
	require.NoError(t, rt.Close())
	require.Len(t, order, 3)
}
