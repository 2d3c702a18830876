// internal/config/normalize.go
package config

import (
	"strconv"
	"strings"
)

const (
	DefaultReserveBytes    = 8176
	DefaultBaud            = 9600
	DefaultSerialTimeoutMs = 20
	DefaultBufferSize      = 1024
	DefaultStatusTimeoutMs = 1000
	DefaultMQTTTopicPrefix = "ulp"
	DeviceNameMaxChars     = 16
)

// Normalize applies post-validation defaults.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}
	s := &cfg.Supervisor

	if s.Coprocessor.ReserveBytes == 0 {
		s.Coprocessor.ReserveBytes = DefaultReserveBytes
	}

	sr := &s.Serial
	if sr.Baud == 0 {
		sr.Baud = DefaultBaud
	}
	if sr.DataBits == 0 {
		sr.DataBits = 8
	}
	if sr.StopBits == 0 {
		sr.StopBits = 1
	}
	if sr.Parity == "" {
		sr.Parity = "N"
	}
	sr.Parity = strings.ToUpper(sr.Parity)
	if sr.TimeoutMs == 0 {
		sr.TimeoutMs = DefaultSerialTimeoutMs
	}
	if sr.BufferSize == 0 {
		sr.BufferSize = DefaultBufferSize
	}

	if sm := s.StatusMemory; sm != nil {
		if sm.TimeoutMs == 0 {
			sm.TimeoutMs = DefaultStatusTimeoutMs
		}
		if sm.DeviceName == "" {
			sm.DeviceName = "ulp" + strconv.Itoa(s.Coprocessor.ID)
		}
		if len(sm.DeviceName) > DeviceNameMaxChars {
			sm.DeviceName = sm.DeviceName[:DeviceNameMaxChars]
		}
	}

	if m := s.MQTT; m != nil && m.TopicPrefix == "" {
		m.TopicPrefix = DefaultMQTTTopicPrefix
	}
}
