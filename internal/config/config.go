// internal/config/config.go
package config

type Config struct {
	Supervisor SupervisorConfig `yaml:"supervisor"`
}

type SupervisorConfig struct {
	Coprocessor  CoprocessorConfig   `yaml:"coprocessor"`
	Serial       SerialConfig        `yaml:"serial"`
	Wake         WakeConfig          `yaml:"wake"`
	StatusMemory *StatusMemoryConfig `yaml:"status_memory"`
	MQTT         *MQTTConfig         `yaml:"mqtt"`
	HTTP         *HTTPConfig         `yaml:"http"`
}

// ---- COPROCESSOR ----

type CoprocessorConfig struct {
	ID    int    `yaml:"id"`
	Image string `yaml:"image"` // empty => embedded default image

	// EntryOffset is in words. nil => build-time entry symbol.
	EntryOffset *uint32 `yaml:"entry_offset"`

	// CadenceUs == 0 runs the coprocessor in wake-once mode.
	CadenceUs    uint32 `yaml:"cadence_us"`
	ReserveBytes int    `yaml:"reserve_bytes"`
	Simulate     bool   `yaml:"simulate"`
}

// ---- SERIAL ----

type SerialConfig struct {
	Device       string `yaml:"device"`
	Baud         int    `yaml:"baud"`
	DataBits     int    `yaml:"data_bits"`
	StopBits     int    `yaml:"stop_bits"`
	Parity       string `yaml:"parity"`
	TimeoutMs    int    `yaml:"timeout_ms"`
	BufferSize   int    `yaml:"buffer_size"`
	CarryPartial bool   `yaml:"carry_partial"`
}

// ---- WAKE ----

type WakeConfig struct {
	Line      int   `yaml:"line"`
	StatusBit uint8 `yaml:"status_bit"`

	// Required makes a registration failure fatal. nil => true.
	Required *bool `yaml:"required"`
}

// ---- STATUS MEMORY (optional) ----

type StatusMemoryConfig struct {
	Endpoint   string `yaml:"endpoint"`
	UnitID     uint8  `yaml:"unit_id"`
	BaseSlot   uint16 `yaml:"base_slot"`
	DeviceName string `yaml:"device_name"`
	TimeoutMs  int    `yaml:"timeout_ms"`
}

// ---- MQTT (optional) ----

type MQTTConfig struct {
	Broker      string `yaml:"broker"`
	ClientID    string `yaml:"client_id"`
	TopicPrefix string `yaml:"topic_prefix"`
	QoS         byte   `yaml:"qos"`
}

// ---- HTTP (optional) ----

type HTTPConfig struct {
	Listen string `yaml:"listen"`
}

// WakeRequired reports whether a wake registration failure aborts startup.
func (w WakeConfig) WakeRequired() bool {
	if w.Required == nil {
		return true
	}
	return *w.Required
}
