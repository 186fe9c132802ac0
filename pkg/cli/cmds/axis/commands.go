package axis

import (
	"fmt"
	"strings"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/cablebot/pkg/cable"
	"github.com/robotalks/cablebot/pkg/cli/sh"
	"github.com/robotalks/cablebot/pkg/motor"
)

type axisResult struct {
	cable.Axis
	Outcome string   `json:"outcome,omitempty"`
	Degrees *float64 `json:"position_deg,omitempty"`
	MM      *float64 `json:"position_mm,omitempty"`
	Status  string   `json:"status,omitempty"`
	Volts   *float64 `json:"volts,omitempty"`
	Error   string   `json:"error,omitempty"`
}

func (r *axisResult) String() string {
	var w strings.Builder
	fmt.Fprintf(&w, "%s:", r.Axis)
	if r.Error != "" {
		fmt.Fprintf(&w, " error: %s", r.Error)
		return w.String()
	}
	if r.Outcome != "" {
		fmt.Fprintf(&w, " %s", r.Outcome)
	}
	if r.Degrees != nil {
		fmt.Fprintf(&w, " %.1f° (%.1f mm)", *r.Degrees, *r.MM)
	}
	if r.Status != "" {
		fmt.Fprintf(&w, " %s", r.Status)
	}
	if r.Volts != nil {
		fmt.Fprintf(&w, " %.2fV", *r.Volts)
	}
	return w.String()
}

// forAxes runs fn on axes selected by args and prints the results.
func forAxes(fn func(r *cable.Rig, res *axisResult) error) func(c *ishell.Context) {
	return sh.WithRig(func(c *ishell.Context, r *cable.Rig) {
		axes, err := sh.ParseAxes(r, c.Args)
		if err != nil {
			c.Err(err)
			return
		}
		results := make([]*axisResult, len(axes))
		lines := make([]string, len(axes))
		for n, axis := range axes {
			res := &axisResult{Axis: axis}
			if err := fn(r, res); err != nil {
				res.Error = err.Error()
			}
			results[n], lines[n] = res, res.String()
		}
		sh.Output(c, results, strings.Join(lines, "\n"))
	})
}

func outcome(res *axisResult, o motor.Outcome, err error) error {
	res.Outcome = o.String()
	return err
}

var (
	// ProbeCmd checks which motors answer.
	ProbeCmd = ishell.Cmd{
		Name:    "probe",
		Aliases: []string{"p"},
		Help:    "[AXIS...] check motors answer status queries",
		Func: forAxes(func(r *cable.Rig, res *axisResult) error {
			res.Outcome = "offline"
			if r.Driver.Probe(res.Addr) {
				res.Outcome = "online"
			}
			return nil
		}),
	}

	// EnableCmd locks motor shafts.
	EnableCmd = ishell.Cmd{
		Name: "enable",
		Help: "[AXIS...] lock motor shafts",
		Func: forAxes(func(r *cable.Rig, res *axisResult) error {
			o, err := r.Driver.SetEnable(res.Addr, true)
			return outcome(res, o, err)
		}),
	}

	// DisableCmd releases motor shafts.
	DisableCmd = ishell.Cmd{
		Name: "disable",
		Help: "[AXIS...] release motor shafts",
		Func: forAxes(func(r *cable.Rig, res *axisResult) error {
			o, err := r.Driver.SetEnable(res.Addr, false)
			return outcome(res, o, err)
		}),
	}

	// PositionCmd reads positions.
	PositionCmd = ishell.Cmd{
		Name:    "pos",
		Aliases: []string{"position"},
		Help:    "[AXIS...] read positions",
		Func: forAxes(func(r *cable.Rig, res *axisResult) error {
			deg, err := r.Driver.ReadPosition(res.Addr)
			if err != nil {
				return err
			}
			mm := r.ToMM(deg)
			res.Degrees, res.MM = &deg, &mm
			return nil
		}),
	}

	// StatusCmd reads status flags.
	StatusCmd = ishell.Cmd{
		Name:    "status",
		Aliases: []string{"st"},
		Help:    "[AXIS...] read status flags",
		Func: forAxes(func(r *cable.Rig, res *axisResult) error {
			s, err := r.Driver.ReadStatus(res.Addr)
			if err == nil {
				res.Status = s.String()
			}
			return err
		}),
	}

	// BusVoltageCmd reads supply voltage.
	BusVoltageCmd = ishell.Cmd{
		Name: "vbus",
		Help: "[AXIS...] read bus voltage",
		Func: forAxes(func(r *cable.Rig, res *axisResult) error {
			v, err := r.Driver.ReadBusVoltage(res.Addr)
			if err == nil {
				res.Volts = &v
			}
			return err
		}),
	}

	// ClearCmd zeroes positions.
	ClearCmd = ishell.Cmd{
		Name: "clear",
		Help: "[AXIS...] make current positions 0°",
		Func: forAxes(func(r *cable.Rig, res *axisResult) error {
			o, err := r.Driver.ClearPosition(res.Addr)
			return outcome(res, o, err)
		}),
	}

	// MoveCmd moves a motor in degrees.
	MoveCmd = ishell.Cmd{
		Name:    "move",
		Aliases: []string{"mv"},
		Help:    "AXIS DEGREES [SPEED(RPM) [ACCEL(RPM/s)]] absolute move in motor degrees",
		Func: sh.WithRig(func(c *ishell.Context, r *cable.Rig) {
			if len(c.Args) < 2 {
				c.Err(fmt.Errorf("AXIS and DEGREES required"))
				return
			}
			axes, err := sh.ParseAxes(r, c.Args[:1])
			if err != nil {
				c.Err(err)
				return
			}
			vals, err := sh.ParseFloats(c.Args[1:], "DEGREES", "SPEED", "ACCEL")
			if err != nil {
				c.Err(err)
				return
			}
			speed, accel := r.Fast.SpeedRPM, r.Fast.AccelRPMS
			if len(vals) > 1 {
				speed = vals[1]
			}
			if len(vals) > 2 {
				accel = vals[2]
			}
			res := &axisResult{Axis: axes[0]}
			o, err := r.Driver.SetTarget(res.Addr, vals[0], speed, accel)
			if err = outcome(res, o, err); err != nil {
				res.Error = err.Error()
			}
			sh.Output(c, res, res.String())
		}),
	}
)

func init() {
	sh.AddCmds(
		&ProbeCmd,
		&EnableCmd,
		&DisableCmd,
		&PositionCmd,
		&StatusCmd,
		&BusVoltageCmd,
		&ClearCmd,
		&MoveCmd,
	)
}
