// internal/status/constants.go
package status

// Supervisor Status Block layout constants.
// These values define the protocol and MUST NOT be configurable.

// ---- BLOCK GEOMETRY ----

// SlotsPerDevice is the fixed number of register slots per coprocessor.
const SlotsPerDevice = 20

// ---- SLOT INDICES ----

// SlotLifecycle holds the coprocessor lifecycle state.
const SlotLifecycle = 0

// SlotHealthCode holds the supervisor health state.
const SlotHealthCode = 1

// SlotLastErrorCode holds the last error code.
const SlotLastErrorCode = 2

// SlotSecondsInError holds the duration (in seconds) spent not OK.
const SlotSecondsInError = 3

// SlotWakesHi/Lo hold the observed wake count, big-endian across two slots.
const (
	SlotWakesHi = 4
	SlotWakesLo = 5
)

// SlotFramesHi/Lo hold the emitted frame count, big-endian across two slots.
const (
	SlotFramesHi = 6
	SlotFramesLo = 7
)

// SlotTransportErrors holds the serial read failure count (saturating).
const SlotTransportErrors = 8

// ---- RESERVED RANGE ----

// Slots 9–10 are reserved for future use.
const SlotReservedStart = 9
const SlotReservedEnd = 10

// ---- DEVICE NAME ----

// SlotDeviceNameStart is the first slot used for the device name.
const SlotDeviceNameStart = 11

// SlotDeviceNameSlots is the number of slots reserved for the device name.
const SlotDeviceNameSlots = 8

// SlotDeviceNameEnd is the last slot used for the device name (inclusive).
const SlotDeviceNameEnd = SlotDeviceNameStart + SlotDeviceNameSlots - 1

// ---- LIMITS ----

// DeviceNameMaxChars is the maximum number of ASCII characters stored for device name.
const DeviceNameMaxChars = 16

// ---- LIFECYCLE CODES ----

const (
	LifecycleUnloaded          uint16 = 0
	LifecycleLoaded            uint16 = 1
	LifecycleCadenceConfigured uint16 = 2
	LifecycleRunning           uint16 = 3
)

// ---- HEALTH CODES ----

// HealthUnknown represents boot state, before the first poll.
const HealthUnknown uint16 = 0

// HealthOK represents a running coprocessor with a working serial link.
const HealthOK uint16 = 1

// HealthError represents a failing serial link.
const HealthError uint16 = 2

// HealthStale represents a running coprocessor that has gone quiet.
const HealthStale uint16 = 3

// ---- ERROR CODES ----

const (
	ErrorNone      uint16 = 0
	ErrorGeneric   uint16 = 1
	ErrorTransport uint16 = 2
)
