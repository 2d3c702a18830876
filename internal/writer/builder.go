// internal/writer/builder.go
package writer

import (
	"errors"
	"time"

	cfg "github.com/tamzrod/ulp-supervisor/internal/config"
	wmodbus "github.com/tamzrod/ulp-supervisor/internal/writer/modbus"
)

// BuildPlan converts the status memory config into a plan.
// Assumes config has already passed validation and normalization.
func BuildPlan(sm cfg.StatusMemoryConfig) (StatusPlan, error) {
	if sm.Endpoint == "" {
		return StatusPlan{}, errors.New("writer: status_memory.endpoint required")
	}
	return StatusPlan{
		Endpoint:   sm.Endpoint,
		UnitID:     sm.UnitID,
		BaseSlot:   sm.BaseSlot,
		DeviceName: sm.DeviceName,
	}, nil
}

// Build creates the Modbus endpoint client and the status writer.
// The connection is attempted once; failure is returned to the caller.
func Build(sm cfg.StatusMemoryConfig) (StatusWriter, func() error, error) {
	plan, err := BuildPlan(sm)
	if err != nil {
		return nil, nil, err
	}

	cli, err := wmodbus.NewEndpointClient(wmodbus.Config{
		Endpoint: sm.Endpoint,
		Timeout:  time.Duration(sm.TimeoutMs) * time.Millisecond,
	})
	if err != nil {
		return nil, nil, err
	}

	sw, err := NewStatusWriter(plan, cli)
	if err != nil {
		_ = cli.Close()
		return nil, nil, err
	}
	return sw, cli.Close, nil
}
