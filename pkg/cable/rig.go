// Package cable coordinates the winches of a cable robot.
//
// A Rig maps named axes to motor addresses on one bus and converts cable
// length to motor degrees through the drum and gearbox. All calls are
// sequential on the bus; a Rig must have a single owner.
package cable

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/golang/glog"

	fx "github.com/robotalks/cablebot/pkg/framework"
	"github.com/robotalks/cablebot/pkg/motion"
	"github.com/robotalks/cablebot/pkg/motor"
)

// Errors
var (
	ErrTargetCount = errors.New("number of targets does not match axes")
	ErrNoAxes      = errors.New("no axes")
)

// SkewTolerance is the predicted finish time difference, in seconds,
// above which a sync move is logged as out of sync.
const SkewTolerance = 0.05

// Axis is a winch on the bus.
type Axis struct {
	Name string `json:"name"`
	Addr byte   `json:"addr"`
}

// String implements fmt.Stringer.
func (a Axis) String() string {
	return fmt.Sprintf("%s@%d", a.Name, a.Addr)
}

// Rig drives a set of axes.
type Rig struct {
	Driver              *motor.Driver
	Axes                []Axis
	DrumCircumferenceMM float64
	GearboxRatio        float64
	// TravelMM bounds targets to [0, TravelMM]; 0 disables the check.
	TravelMM     float64
	Fast         motion.Profile
	PollInterval time.Duration
}

// New creates a Rig from config.
func New(d *motor.Driver, conf *Config) *Rig {
	r := &Rig{
		Driver:              d,
		DrumCircumferenceMM: conf.DrumCircumferenceMM,
		GearboxRatio:        conf.GearboxRatio,
		TravelMM:            conf.TravelMM,
		Fast:                conf.Fast,
		PollInterval:        conf.PollInterval,
	}
	for _, axis := range conf.Axes {
		r.Axes = append(r.Axes, Axis{Name: axis.Name, Addr: axis.Addr})
	}
	if conf.Limits != nil {
		d.Limits = *conf.Limits
	}
	return r
}

// WithAxes returns a Rig sharing everything but the axes.
func (r *Rig) WithAxes(axes []Axis) *Rig {
	sub := *r
	sub.Axes = axes
	return &sub
}

// Axis finds an axis by name or bus address.
func (r *Rig) Axis(nameOrAddr string) (Axis, bool) {
	for _, axis := range r.Axes {
		if axis.Name == nameOrAddr {
			return axis, true
		}
	}
	if n, err := strconv.ParseUint(nameOrAddr, 0, 8); err == nil {
		for _, axis := range r.Axes {
			if axis.Addr == byte(n) {
				return axis, true
			}
		}
	}
	return Axis{}, false
}

// ToDeg converts cable length to motor degrees.
func (r *Rig) ToDeg(mm float64) float64 {
	return motion.MMToMotorDeg(mm, r.DrumCircumferenceMM, r.GearboxRatio)
}

// ToMM converts motor degrees to cable length.
func (r *Rig) ToMM(deg float64) float64 {
	return motion.MotorDegToMM(deg, r.DrumCircumferenceMM, r.GearboxRatio)
}

// Online probes all axes and returns the responsive ones.
func (r *Rig) Online() []Axis {
	var online []Axis
	for _, axis := range r.Axes {
		if r.Driver.Probe(axis.Addr) {
			online = append(online, axis)
		}
	}
	return online
}

// AxisState is a polled axis.
type AxisState struct {
	Axis
	PositionDeg float64
	PositionMM  float64
	Status      motor.Status
	Err         error
}

// Arrived reports the axis is at its target.
func (s *AxisState) Arrived() bool {
	return s.Err == nil && s.Status.Reached
}

// Poll reads position and status of every axis. Failed axes carry Err
// and are also reported in the aggregated error.
func (r *Rig) Poll() ([]AxisState, error) {
	var errs fx.AggregatedError
	states := make([]AxisState, len(r.Axes))
	for n, axis := range r.Axes {
		state := &states[n]
		state.Axis = axis
		if state.PositionDeg, state.Err = r.Driver.ReadPosition(axis.Addr); state.Err == nil {
			state.PositionMM = r.ToMM(state.PositionDeg)
			state.Status, state.Err = r.Driver.ReadStatus(axis.Addr)
		}
		if state.Err != nil {
			errs.Add(fmt.Errorf("axis %s: %w", axis, state.Err))
		}
	}
	return states, errs.Aggregate()
}

// Positions reads the position of every axis in degrees.
func (r *Rig) Positions() ([]float64, error) {
	var errs fx.AggregatedError
	positions := make([]float64, len(r.Axes))
	for n, axis := range r.Axes {
		pos, err := r.Driver.ReadPosition(axis.Addr)
		if err != nil {
			errs.Add(fmt.Errorf("axis %s: %w", axis, err))
			continue
		}
		positions[n] = pos
	}
	return positions, errs.Aggregate()
}

func (r *Rig) checkTravel(axis Axis, mm float64) error {
	if math.IsNaN(mm) || r.TravelMM > 0 && (mm < 0 || mm > r.TravelMM) {
		return fmt.Errorf("axis %s: target %vmm out of travel [0, %v]", axis, mm, r.TravelMM)
	}
	return nil
}

// SyncMove moves every axis to its target cable length so that all axes
// finish together. targetsMM is ordered as Axes.
//
// Current positions are read first; nothing is sent if any read fails or
// a target is out of travel. Axes already at their target are not
// commanded. Per-axis command failures are aggregated and do not stop
// the remaining axes.
func (r *Rig) SyncMove(targetsMM []float64, fast motion.Profile) (motion.Plan, error) {
	if len(r.Axes) == 0 {
		return motion.Plan{}, ErrNoAxes
	}
	if len(targetsMM) != len(r.Axes) {
		return motion.Plan{}, ErrTargetCount
	}
	var errs fx.AggregatedError
	for n, axis := range r.Axes {
		errs.Add(r.checkTravel(axis, targetsMM[n]))
	}
	if err := errs.Aggregate(); err != nil {
		return motion.Plan{}, err
	}
	current, err := r.Positions()
	if err != nil {
		return motion.Plan{}, err
	}
	targets := make([]float64, len(r.Axes))
	distances := make([]float64, len(r.Axes))
	for n := range r.Axes {
		targets[n] = r.ToDeg(targetsMM[n])
		distances[n] = math.Abs(targets[n] - current[n])
	}
	plan := motion.SolveSync(distances, fast, r.Driver.Limits.Profile())
	if skew := plan.MaxSkew(distances); skew > SkewTolerance {
		glog.Warningf("sync move: axes predicted to finish up to %.2fs apart from T*=%.2fs", skew, plan.Duration)
	}
	glog.V(1).Infof("sync move T*=%.2fs targets=%v profiles=%v", plan.Duration, targets, plan.Axes)
	for n, axis := range r.Axes {
		if distances[n] == 0 {
			continue
		}
		outcome, err := r.Driver.SetTarget(axis.Addr, targets[n], plan.Axes[n].SpeedRPM, plan.Axes[n].AccelRPMS)
		if err != nil {
			errs.Add(fmt.Errorf("axis %s: %w", axis, err))
			continue
		}
		if outcome == motor.Unconfirmed {
			glog.Warningf("axis %s: move unconfirmed", axis)
		}
	}
	return plan, errs.Aggregate()
}

// Move moves a single axis to a cable length.
func (r *Rig) Move(axis Axis, mm float64, fast motion.Profile) (motor.Outcome, error) {
	if err := r.checkTravel(axis, mm); err != nil {
		return motor.Failed, err
	}
	return r.Driver.SetTarget(axis.Addr, r.ToDeg(mm), fast.SpeedRPM, fast.AccelRPMS)
}

// WaitArrived polls all axes until every one has arrived or ctx is done.
// progress, if not nil, receives every poll. Read errors count as not
// arrived and polling continues.
func (r *Rig) WaitArrived(ctx context.Context, interval time.Duration, progress func([]AxisState)) error {
	if interval <= 0 {
		interval = r.PollInterval
	}
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		states, err := r.Poll()
		if err != nil {
			glog.Warningf("poll: %v", err)
		}
		if progress != nil {
			progress(states)
		}
		arrived := true
		for n := range states {
			arrived = arrived && states[n].Arrived()
		}
		if arrived {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Enable locks or releases all axes. Unconfirmed axes are only logged.
func (r *Rig) Enable(on bool) error {
	var errs fx.AggregatedError
	for _, axis := range r.Axes {
		outcome, err := r.Driver.SetEnable(axis.Addr, on)
		if err != nil {
			errs.Add(fmt.Errorf("axis %s: %w", axis, err))
		} else if outcome != motor.Confirmed {
			glog.Warningf("axis %s: enable=%v %s", axis, on, outcome)
		}
	}
	return errs.Aggregate()
}

// Zero makes the current position of every axis 0°.
func (r *Rig) Zero() error {
	var errs fx.AggregatedError
	for _, axis := range r.Axes {
		outcome, err := r.Driver.ClearPosition(axis.Addr)
		if err == nil && outcome != motor.Confirmed {
			err = errors.New("clear position failed")
		}
		if err != nil {
			errs.Add(fmt.Errorf("axis %s: %w", axis, err))
		}
	}
	return errs.Aggregate()
}
