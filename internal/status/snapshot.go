// internal/status/snapshot.go
package status

// Snapshot represents exactly what the writer is allowed to deliver.
// It contains no logic and no memory of the past beyond current state.
type Snapshot struct {
	Lifecycle       uint16 `json:"lifecycle"`
	Health          uint16 `json:"health"`
	LastErrorCode   uint16 `json:"last_error_code"`
	SecondsInError  uint16 `json:"seconds_in_error"`
	Wakes           uint32 `json:"wakes"`
	Frames          uint32 `json:"frames"`
	TransportErrors uint16 `json:"transport_errors"`
}

// HealthName is the human-readable health code.
func HealthName(h uint16) string {
	switch h {
	case HealthUnknown:
		return "unknown"
	case HealthOK:
		return "ok"
	case HealthError:
		return "error"
	case HealthStale:
		return "stale"
	default:
		return "invalid"
	}
}

// LifecycleName is the human-readable lifecycle code.
func LifecycleName(l uint16) string {
	switch l {
	case LifecycleUnloaded:
		return "unloaded"
	case LifecycleLoaded:
		return "loaded"
	case LifecycleCadenceConfigured:
		return "cadence-configured"
	case LifecycleRunning:
		return "running"
	default:
		return "invalid"
	}
}
