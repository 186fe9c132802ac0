package motor

import (
	"fmt"
	"math"
	"strings"

	"github.com/robotalks/cablebot/pkg/l0/comm"
	"github.com/robotalks/cablebot/pkg/motion"
)

// Move modes carried in the position move frame.
const (
	ModeRelative byte = 0x00
	ModeAbsolute byte = 0x01
)

// Limits are the soft limits applied to every move before encoding.
type Limits struct {
	MaxSpeedRPM    float64 `yaml:"max_speed_rpm"`
	MaxAccelRPMS   float64 `yaml:"max_accel_rpms"`
	MinPositionDeg float64 `yaml:"min_position_deg"`
	MaxPositionDeg float64 `yaml:"max_position_deg"`
}

// Default soft limits.
const (
	DefaultMaxSpeedRPM    = 1500.0
	DefaultMaxAccelRPMS   = 150.0
	DefaultMinPositionDeg = 0.0
	DefaultMaxPositionDeg = 180000.0
)

// DefaultLimits returns the limits used for the 70:1 winch drums.
// A negative MinPositionDeg allows reverse travel.
func DefaultLimits() Limits {
	return Limits{
		MaxSpeedRPM:    DefaultMaxSpeedRPM,
		MaxAccelRPMS:   DefaultMaxAccelRPMS,
		MinPositionDeg: DefaultMinPositionDeg,
		MaxPositionDeg: DefaultMaxPositionDeg,
	}
}

// Validate checks the limits are ordered and encodable.
func (l Limits) Validate() error {
	switch {
	case !(l.MaxSpeedRPM > 0) || l.MaxSpeedRPM*10 > math.MaxUint16:
		return fmt.Errorf("max speed %v RPM out of range (0, 6553.5]", l.MaxSpeedRPM)
	case !(l.MaxAccelRPMS > 0) || l.MaxAccelRPMS > math.MaxUint16:
		return fmt.Errorf("max acceleration %v RPM/s out of range (0, 65535]", l.MaxAccelRPMS)
	case !(l.MinPositionDeg <= l.MaxPositionDeg):
		return fmt.Errorf("position range [%v, %v] is empty", l.MinPositionDeg, l.MaxPositionDeg)
	case math.Max(math.Abs(l.MinPositionDeg), math.Abs(l.MaxPositionDeg))*10 > math.MaxUint32:
		return fmt.Errorf("position range [%v, %v] not encodable", l.MinPositionDeg, l.MaxPositionDeg)
	}
	return nil
}

// Profile is the speed/acceleration cap as a motion profile.
func (l Limits) Profile() motion.Profile {
	return motion.Profile{SpeedRPM: l.MaxSpeedRPM, AccelRPMS: l.MaxAccelRPMS}
}

// ClampFlags tells which fields of a Target were clamped.
type ClampFlags uint8

// Clamp flags.
const (
	ClampedPosition ClampFlags = 1 << iota
	ClampedSpeed
	ClampedAccel
)

// String implements fmt.Stringer.
func (f ClampFlags) String() string {
	var names []string
	if f&ClampedPosition != 0 {
		names = append(names, "position")
	}
	if f&ClampedSpeed != 0 {
		names = append(names, "speed")
	}
	if f&ClampedAccel != 0 {
		names = append(names, "accel")
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, ",")
}

// Target is an absolute move after soft limits are applied.
type Target struct {
	PositionDeg float64
	SpeedRPM    float64
	AccelRPMS   float64
	Clamped     ClampFlags
}

// Target clamps a requested move into the limits.
func (l Limits) Target(positionDeg, speedRPM, accelRPMS float64) Target {
	t := Target{
		PositionDeg: motion.Clamp(positionDeg, l.MinPositionDeg, l.MaxPositionDeg),
		SpeedRPM:    motion.Clamp(speedRPM, 0, l.MaxSpeedRPM),
		AccelRPMS:   motion.Clamp(accelRPMS, 0, l.MaxAccelRPMS),
	}
	if t.PositionDeg != positionDeg {
		t.Clamped |= ClampedPosition
	}
	if t.SpeedRPM != speedRPM {
		t.Clamped |= ClampedSpeed
	}
	if t.AccelRPMS != accelRPMS {
		t.Clamped |= ClampedAccel
	}
	return t
}

// Frame encodes the target as an immediate absolute move.
// Direction comes from the sign of the position; the magnitude is sent in
// 0.1° units, speed in 0.1 RPM and acceleration in RPM/s for both ramps.
func (t Target) Frame(addr byte) *comm.Frame {
	var dir byte
	if t.PositionDeg < 0 {
		dir = 1
	}
	acc := uint16(math.Round(t.AccelRPMS))
	return comm.NewFrame(addr, comm.CmdPositionMove).
		Byte(dir).
		Uint16(acc).
		Uint16(acc).
		Uint16(uint16(math.Round(t.SpeedRPM * 10))).
		Uint32(uint32(math.Round(math.Abs(t.PositionDeg) * 10))).
		Byte(ModeAbsolute, 0)
}

// MoveRequest is a decoded position move frame.
type MoveRequest struct {
	Target
	DecelRPMS float64
	Mode      byte
	Sync      bool
}

// DecodeMove decodes a position move frame.
func DecodeMove(f *comm.Frame) (MoveRequest, error) {
	var req MoveRequest
	if f.Code != comm.CmdPositionMove || len(f.Payload) != 13 {
		return req, fmt.Errorf("not a position move frame: [% x]", f.Bytes())
	}
	acc, _ := f.Uint16At(1)
	dec, _ := f.Uint16At(3)
	speed, _ := f.Uint16At(5)
	pos, _ := f.Uint32At(7)
	req.AccelRPMS = float64(acc)
	req.DecelRPMS = float64(dec)
	req.SpeedRPM = float64(speed) / 10
	req.PositionDeg = float64(pos) / 10
	if f.Payload[0] != 0 {
		req.PositionDeg = -req.PositionDeg
	}
	req.Mode = f.Payload[11]
	req.Sync = f.Payload[12] != 0
	return req, nil
}
