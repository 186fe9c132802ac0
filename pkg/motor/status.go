package motor

import "strings"

// Status bits of the 0x3A response.
const (
	StatusEnabled            byte = 1 << 0
	StatusReached            byte = 1 << 1
	StatusRotationDetected   byte = 1 << 2
	StatusRotationProtection byte = 1 << 3
	StatusLeftLimit          byte = 1 << 4
	StatusRightLimit         byte = 1 << 5
	// bit 6 is reserved.
	StatusPowerLoss byte = 1 << 7
)

// Status is a decoded status byte.
type Status struct {
	Enabled            bool `json:"enabled"`
	Reached            bool `json:"reached"`
	RotationDetected   bool `json:"rotation_detected"`
	RotationProtection bool `json:"rotation_protection"`
	LeftLimit          bool `json:"left_limit"`
	RightLimit         bool `json:"right_limit"`
	// PowerLoss is set after a reset until cleared.
	PowerLoss bool `json:"power_loss"`
	Raw       byte `json:"raw"`
}

// StatusFromByte decodes a status byte.
func StatusFromByte(b byte) Status {
	return Status{
		Enabled:            b&StatusEnabled != 0,
		Reached:            b&StatusReached != 0,
		RotationDetected:   b&StatusRotationDetected != 0,
		RotationProtection: b&StatusRotationProtection != 0,
		LeftLimit:          b&StatusLeftLimit != 0,
		RightLimit:         b&StatusRightLimit != 0,
		PowerLoss:          b&StatusPowerLoss != 0,
		Raw:                b,
	}
}

// String lists the flags set.
func (s Status) String() string {
	var flags []string
	for _, f := range []struct {
		on   bool
		name string
	}{
		{s.Enabled, "enabled"},
		{s.Reached, "reached"},
		{s.RotationDetected, "rotation-detected"},
		{s.RotationProtection, "rotation-protection"},
		{s.LeftLimit, "left-limit"},
		{s.RightLimit, "right-limit"},
		{s.PowerLoss, "power-loss"},
	} {
		if f.on {
			flags = append(flags, f.name)
		}
	}
	if len(flags) == 0 {
		return "none"
	}
	return strings.Join(flags, ",")
}
