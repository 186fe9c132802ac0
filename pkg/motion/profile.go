package motion

import "math"

// Profile is a speed/acceleration pair in device units.
// Acceleration and deceleration are symmetric.
type Profile struct {
	SpeedRPM  float64 `json:"speed_rpm" yaml:"speed_rpm"`
	AccelRPMS float64 `json:"accel_rpms" yaml:"accel_rpms"`
}

// IsZero reports a no-op profile.
func (p Profile) IsZero() bool {
	return p.SpeedRPM == 0 && p.AccelRPMS == 0
}

// Min takes the smaller speed and acceleration of both profiles.
func (p Profile) Min(o Profile) Profile {
	return Profile{
		SpeedRPM:  math.Min(p.SpeedRPM, o.SpeedRPM),
		AccelRPMS: math.Min(p.AccelRPMS, o.AccelRPMS),
	}
}

// TrapezoidTime is the duration of a symmetric trapezoidal move over
// distanceDeg. If the distance is too short to reach vmax the profile
// degrades to a triangle.
// A non-zero distance with no speed or acceleration never completes and
// yields +Inf.
func TrapezoidTime(distanceDeg, vmaxRPM, accRPMS float64) float64 {
	d := math.Abs(distanceDeg)
	if d == 0 {
		return 0
	}
	v := RPMToDegPerSec(vmaxRPM)
	a := RPMPerSecToDegPerSec2(accRPMS)
	if v <= 0 || a <= 0 {
		return math.Inf(1)
	}
	tAcc := v / a
	dAccDec := v * v / a
	if d >= dAccDec {
		return 2*tAcc + (d-dAccDec)/v
	}
	return 2 * math.Sqrt(d/a)
}

// TrapezoidDistance is the distance covered t seconds into a symmetric
// trapezoidal move over distanceDeg; it saturates at distanceDeg.
// A move which never completes stays at 0.
func TrapezoidDistance(distanceDeg, vmaxRPM, accRPMS, t float64) float64 {
	d := math.Abs(distanceDeg)
	total := TrapezoidTime(d, vmaxRPM, accRPMS)
	if t <= 0 || d == 0 || math.IsInf(total, 1) {
		return 0
	}
	if t >= total {
		return d
	}
	v := RPMToDegPerSec(vmaxRPM)
	a := RPMPerSecToDegPerSec2(accRPMS)
	// peak is v for a trapezoid, lower for a triangle.
	peak := math.Min(v, math.Sqrt(d*a))
	tAcc := peak / a
	switch {
	case t <= tAcc:
		return a * t * t / 2
	case t <= total-tAcc:
		return peak*tAcc/2 + peak*(t-tAcc)
	default:
		rem := total - t
		return d - a*rem*rem/2
	}
}
