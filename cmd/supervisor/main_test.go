// cmd/supervisor/main_test.go
package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tamzrod/ulp-supervisor/internal/config"
	"github.com/tamzrod/ulp-supervisor/internal/coproc"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestImage_Embedded(t *testing.T) {
	out, err := execute(t, "image")
	require.NoError(t, err)
	require.Contains(t, out, "source:    embedded")
	require.Contains(t, out, "ok")
}

func TestImage_TooLargeForReserve(t *testing.T) {
	_, err := execute(t, "image", "--reserved", "16")
	require.ErrorIs(t, err, coproc.ErrImageSize)
}

func TestImage_BadMagic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.bin")
	require.NoError(t, os.WriteFile(path, make([]byte, 16), 0o600))

	_, err := execute(t, "image", path)
	require.Error(t, err)
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	require.Contains(t, out, buildVersion)
}

func TestRun_RequiresConfig(t *testing.T) {
	_, err := execute(t, "run")
	require.Error(t, err)
}

func TestRun_SimulatedUntilCancelled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "supervisor.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
supervisor:
  coprocessor:
    cadence_us: 5000
  wake:
    line: 1
    status_bit: 3
`), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	cfg.Supervisor.Coprocessor.Simulate = true
	require.NoError(t, config.Validate(cfg))
	config.Normalize(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	require.NoError(t, run(ctx, cfg))
}
