// Package motion provides unit conversions and trapezoidal profile math
// for winch axes. Everything here is pure; nothing touches the bus.
package motion

import "math"

// Clamp limits x to [lo, hi].
func Clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}

// MMToMotorDeg converts cable length at the drum into motor shaft degrees.
func MMToMotorDeg(mm, drumCircumferenceMM, gearboxRatio float64) float64 {
	return (mm / drumCircumferenceMM) * 360 * gearboxRatio
}

// MotorDegToMM converts motor shaft degrees into cable length at the drum.
func MotorDegToMM(deg, drumCircumferenceMM, gearboxRatio float64) float64 {
	return (deg / (360 * gearboxRatio)) * drumCircumferenceMM
}

// RPMToDegPerSec converts revolutions per minute to degrees per second.
func RPMToDegPerSec(rpm float64) float64 {
	return rpm * 360 / 60
}

// DegPerSecToRPM converts degrees per second to revolutions per minute.
func DegPerSecToRPM(degps float64) float64 {
	return degps * 60 / 360
}

// RPMPerSecToDegPerSec2 converts RPM/s to degrees per second squared.
func RPMPerSecToDegPerSec2(rpms float64) float64 {
	return rpms * 360 / 60
}

// DegPerSec2ToRPMPerSec converts degrees per second squared to RPM/s.
func DegPerSec2ToRPMPerSec(degps2 float64) float64 {
	return degps2 * 60 / 360
}
