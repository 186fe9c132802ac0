package motion

import "math"

// Plan is the outcome of SolveSync.
type Plan struct {
	// Duration is the nominal completion time T* in seconds.
	Duration float64
	// Axes holds one profile per input distance, in input order.
	Axes []Profile
}

// SolveSync computes per-axis profiles so axes with different travel
// distances finish at the same time.
//
// The fast profile is first capped by limit. T* comes from the longest
// distance run as a trapezoid with the capped fast profile, and the longest
// axes keep that profile. Every other non-zero axis gets the triangular
// profile spanning its distance in exactly T*: a = 4d/T*², v = a·T*/2, then
// clamped to the same caps. Zero distances get a zero profile.
//
// Clamping is not followed by a re-solve, so an axis whose triangular peak
// exceeds the caps finishes late. Use Plan.MaxSkew to detect it.
func SolveSync(distancesDeg []float64, fast, limit Profile) Plan {
	plan := Plan{Axes: make([]Profile, len(distancesDeg))}
	var dMax float64
	for _, d := range distancesDeg {
		dMax = math.Max(dMax, math.Abs(d))
	}
	if dMax == 0 {
		return plan
	}
	caps := limit.Min(fast)
	plan.Duration = TrapezoidTime(dMax, caps.SpeedRPM, caps.AccelRPMS)
	if math.IsInf(plan.Duration, 0) {
		return plan
	}
	tt := plan.Duration * plan.Duration
	for n, d := range distancesDeg {
		switch d = math.Abs(d); d {
		case 0:
			continue
		case dMax:
			plan.Axes[n] = caps
			continue
		}
		a := 4 * d / tt
		v := a * plan.Duration / 2
		plan.Axes[n] = Profile{
			SpeedRPM:  Clamp(DegPerSecToRPM(v), 0, caps.SpeedRPM),
			AccelRPMS: Clamp(DegPerSec2ToRPMPerSec(a), 0, caps.AccelRPMS),
		}
	}
	return plan
}

// FinishTimes predicts when each axis completes with its planned profile.
func (p Plan) FinishTimes(distancesDeg []float64) []float64 {
	times := make([]float64, len(distancesDeg))
	for n, d := range distancesDeg {
		if n < len(p.Axes) {
			times[n] = TrapezoidTime(d, p.Axes[n].SpeedRPM, p.Axes[n].AccelRPMS)
		}
	}
	return times
}

// MaxSkew is the largest difference between an axis finish time and T*.
// Axes not moving are ignored.
func (p Plan) MaxSkew(distancesDeg []float64) float64 {
	var skew float64
	for n, t := range p.FinishTimes(distancesDeg) {
		if distancesDeg[n] == 0 {
			continue
		}
		skew = math.Max(skew, math.Abs(t-p.Duration))
	}
	return skew
}
