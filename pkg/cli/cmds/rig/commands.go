package rig

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/cablebot/pkg/cable"
	"github.com/robotalks/cablebot/pkg/cli/sh"
	"github.com/robotalks/cablebot/pkg/motion"
)

// DefaultWaitTimeout bounds the wait command.
const DefaultWaitTimeout = 5 * time.Minute

type syncResult struct {
	Axes     []cable.Axis     `json:"axes"`
	Targets  []float64        `json:"targets_mm"`
	Duration float64          `json:"duration"`
	Profiles []motion.Profile `json:"profiles"`
	Error    string           `json:"error,omitempty"`
}

// CycleTargets repeats targets to cover n axes.
func CycleTargets(targets []float64, n int) []float64 {
	if len(targets) == 0 {
		return nil
	}
	cycled := make([]float64, n)
	for i := range cycled {
		cycled[i] = targets[i%len(targets)]
	}
	return cycled
}

func wait(c *ishell.Context, r *cable.Rig, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	interactive := !sh.ShellFrom(c).OutputJSON
	var last int
	err := r.WaitArrived(ctx, 0, func(states []cable.AxisState) {
		if interactive {
			line := sh.FormatStates(states)
			pad := ""
			if last > len(line) {
				pad = strings.Repeat(" ", last-len(line))
			}
			c.Printf("\r%s%s", line, pad)
			last = len(line)
		}
	})
	if interactive {
		c.Println()
	}
	return err
}

func profileArgs(r *cable.Rig, vals []float64) motion.Profile {
	fast := r.Fast
	if len(vals) > 0 {
		fast.SpeedRPM = vals[0]
	}
	if len(vals) > 1 {
		fast.AccelRPMS = vals[1]
	}
	return fast
}

var (
	// OnlineCmd lists responsive axes.
	OnlineCmd = ishell.Cmd{
		Name: "online",
		Help: "list axes answering on the bus",
		Func: sh.WithRig(func(c *ishell.Context, r *cable.Rig) {
			online := r.Online()
			names := make([]string, len(online))
			for n, axis := range online {
				names[n] = axis.String()
			}
			if len(online) == 0 {
				online = []cable.Axis{}
			}
			sh.Output(c, online, "Online: "+strings.Join(names, " "))
		}),
	}

	// StateCmd polls all axes.
	StateCmd = ishell.Cmd{
		Name:    "state",
		Aliases: []string{"s"},
		Help:    "poll position and arrival of all axes",
		Func: sh.WithRig(func(c *ishell.Context, r *cable.Rig) {
			states, err := r.Poll()
			sh.Output(c, states, sh.FormatStates(states))
			if err != nil {
				c.Err(err)
			}
		}),
	}

	// FastCmd shows or sets the profile of the longest axis.
	FastCmd = ishell.Cmd{
		Name: "fast",
		Help: "[SPEED(RPM) [ACCEL(RPM/s)]] show or set the default profile",
		Func: sh.WithRig(func(c *ishell.Context, r *cable.Rig) {
			vals, err := sh.ParseFloats(c.Args, "SPEED", "ACCEL")
			if err != nil {
				c.Err(err)
				return
			}
			r.Fast = profileArgs(r, vals)
			sh.Output(c, r.Fast, fmt.Sprintf("%.1f RPM %.1f RPM/s", r.Fast.SpeedRPM, r.Fast.AccelRPMS))
		}),
	}

	// MoveMMCmd moves one axis to a cable length and waits.
	MoveMMCmd = ishell.Cmd{
		Name:    "movemm",
		Aliases: []string{"mm"},
		Help:    "AXIS MM [SPEED(RPM) [ACCEL(RPM/s)]] move an axis to a cable length and wait",
		Func: sh.WithRig(func(c *ishell.Context, r *cable.Rig) {
			if len(c.Args) < 2 {
				c.Err(fmt.Errorf("AXIS and MM required"))
				return
			}
			axes, err := sh.ParseAxes(r, c.Args[:1])
			if err != nil {
				c.Err(err)
				return
			}
			vals, err := sh.ParseFloats(c.Args[1:], "MM", "SPEED", "ACCEL")
			if err != nil {
				c.Err(err)
				return
			}
			if _, err := r.Move(axes[0], vals[0], profileArgs(r, vals[1:])); err != nil {
				c.Err(err)
				return
			}
			if err := wait(c, r.WithAxes(axes), DefaultWaitTimeout); err != nil {
				c.Err(err)
			}
		}),
	}

	// SyncCmd moves all online axes together.
	SyncCmd = ishell.Cmd{
		Name: "sync",
		Help: "MM... synchronized move of online axes, targets repeat to cover all axes",
		Func: sh.WithRig(func(c *ishell.Context, r *cable.Rig) {
			targets, err := sh.ParseFloats(c.Args, "MM")
			if err != nil {
				c.Err(err)
				return
			}
			if len(targets) == 0 {
				c.Err(fmt.Errorf("MM required"))
				return
			}
			online := r.WithAxes(r.Online())
			if len(online.Axes) == 0 {
				c.Err(fmt.Errorf("no motors online"))
				return
			}
			res := &syncResult{Axes: online.Axes, Targets: CycleTargets(targets, len(online.Axes))}
			plan, err := online.SyncMove(res.Targets, r.Fast)
			res.Duration, res.Profiles = plan.Duration, plan.Axes
			if err != nil {
				res.Error = err.Error()
			}
			sh.Output(c, res, fmt.Sprintf("Sync %v mm, T* ≈ %.2fs", res.Targets, plan.Duration))
			if err != nil {
				c.Err(err)
				if len(plan.Axes) == 0 {
					return
				}
			}
			if err := wait(c, online, DefaultWaitTimeout); err != nil {
				c.Err(err)
			}
		}),
	}

	// WaitCmd waits until all axes arrive.
	WaitCmd = ishell.Cmd{
		Name: "wait",
		Help: "[TIMEOUT] wait until all axes stop",
		Func: sh.WithRig(func(c *ishell.Context, r *cable.Rig) {
			timeout := DefaultWaitTimeout
			if len(c.Args) > 0 {
				var err error
				if timeout, err = time.ParseDuration(c.Args[0]); err != nil {
					c.Err(err)
					return
				}
			}
			if err := wait(c, r, timeout); err != nil {
				c.Err(err)
			}
		}),
	}

	// ZeroCmd zeroes all axes.
	ZeroCmd = ishell.Cmd{
		Name: "zero",
		Help: "make current positions of all axes 0",
		Func: sh.WithRig(func(c *ishell.Context, r *cable.Rig) {
			if err := r.Zero(); err != nil {
				c.Err(err)
				return
			}
			sh.Output(c, map[string]bool{"zeroed": true}, "OK")
		}),
	}
)

func init() {
	sh.AddCmds(
		&OnlineCmd,
		&StateCmd,
		&FastCmd,
		&MoveMMCmd,
		&SyncCmd,
		&WaitCmd,
		&ZeroCmd,
	)
}
