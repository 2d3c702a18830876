// internal/status/encode.go
package status

// Encode converts a Snapshot into the live slots of a status block.
// The device name slots are left zero; see EncodeDeviceName.
// Layout is protocol-locked.
// No IO. No side effects.
func Encode(s Snapshot) []uint16 {
	regs := make([]uint16, SlotsPerDevice)

	regs[SlotLifecycle] = s.Lifecycle
	regs[SlotHealthCode] = s.Health
	regs[SlotLastErrorCode] = s.LastErrorCode
	regs[SlotSecondsInError] = s.SecondsInError
	regs[SlotWakesHi] = uint16(s.Wakes >> 16)
	regs[SlotWakesLo] = uint16(s.Wakes)
	regs[SlotFramesHi] = uint16(s.Frames >> 16)
	regs[SlotFramesLo] = uint16(s.Frames)
	regs[SlotTransportErrors] = s.TransportErrors

	return regs
}

// EncodeDeviceName packs up to 16 ASCII characters into 8 registers.
// Each register stores two bytes in big-endian order; non-printable
// bytes become '?'.
func EncodeDeviceName(name string) []uint16 {
	out := make([]uint16, SlotDeviceNameSlots)

	b := []byte(name)
	if len(b) > DeviceNameMaxChars {
		b = b[:DeviceNameMaxChars]
	}

	for i := 0; i < len(b); i++ {
		if b[i] < 0x20 || b[i] > 0x7E {
			b[i] = '?'
		}
	}

	for i := 0; i < DeviceNameMaxChars; i += 2 {
		var hi, lo byte
		if i < len(b) {
			hi = b[i]
		}
		if i+1 < len(b) {
			lo = b[i+1]
		}
		out[i/2] = uint16(hi)<<8 | uint16(lo)
	}

	return out
}
