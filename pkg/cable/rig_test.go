package cable

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	fx "github.com/robotalks/cablebot/pkg/framework"
	"github.com/robotalks/cablebot/pkg/l0/comm"
	"github.com/robotalks/cablebot/pkg/motion"
	"github.com/robotalks/cablebot/pkg/motor"
	"github.com/robotalks/cablebot/pkg/sim"
)

func newTestRig(t *testing.T) (*Rig, *sim.Bus, *sim.ManualClock) {
	clock := sim.NewManualClock(time.Unix(1000, 0))
	bus := sim.NewBus(1, 2, 3, 4)
	bus.Clock = clock
	d := motor.NewDriver(bus, motor.DefaultLimits())
	d.Conn.Turnaround = 0
	r := New(d, DefaultConfig())
	r.PollInterval = time.Millisecond
	require.NoError(t, r.Enable(true))
	return r, bus, clock
}

// advance returns a progress func moving the clock forward on every poll.
func advance(clock *sim.ManualClock, d time.Duration) func([]AxisState) {
	return func([]AxisState) { clock.Advance(d) }
}

func TestRigAxis(t *testing.T) {
	r, _, _ := newTestRig(t)
	testCases := []struct {
		key    string
		expect Axis
		found  bool
	}{
		{"m2", Axis{Name: "m2", Addr: 2}, true},
		{"3", Axis{Name: "m3", Addr: 3}, true},
		{"0x04", Axis{Name: "m4", Addr: 4}, true},
		{"5", Axis{}, false},
		{"m9", Axis{}, false},
	}
	for _, tc := range testCases {
		t.Run(tc.key, func(t *testing.T) {
			axis, found := r.Axis(tc.key)
			require.Equal(t, tc.found, found)
			require.Equal(t, tc.expect, axis)
		})
	}
	require.Equal(t, "m2@2", Axis{Name: "m2", Addr: 2}.String())
}

func TestRigUnits(t *testing.T) {
	r, _, _ := newTestRig(t)
	require.InDelta(t, 25200, r.ToDeg(769.5), 1e-9)
	require.InDelta(t, 1000, r.ToMM(r.ToDeg(1000)), 1e-9)
}

func TestRigOnline(t *testing.T) {
	r, bus, _ := newTestRig(t)
	bus.Remove(3)
	require.Equal(t, []Axis{{"m1", 1}, {"m2", 2}, {"m4", 4}}, r.Online())
}

func TestRigSyncMove(t *testing.T) {
	r, bus, clock := newTestRig(t)
	targets := []float64{1000, 500, 0, 250}
	plan, err := r.SyncMove(targets, motion.Profile{SpeedRPM: 800, AccelRPMS: 100})
	require.NoError(t, err)
	require.Len(t, plan.Axes, 4)
	require.Equal(t, motion.Profile{}, plan.Axes[2])
	// 1000mm never reaches 800 RPM: triangle over 32748.5°.
	require.InDelta(t, 2*math.Sqrt(r.ToDeg(1000)/600), plan.Duration, 1e-9)

	due := time.Duration(plan.Duration * float64(time.Second))
	clock.Advance(due - 100*time.Millisecond)
	for _, addr := range []byte{1, 2, 4} {
		state, _ := bus.State(addr)
		require.False(t, state.Arrived, "motor %d", addr)
	}
	clock.Advance(200 * time.Millisecond)
	for _, addr := range []byte{1, 2, 3, 4} {
		state, _ := bus.State(addr)
		require.True(t, state.Arrived, "motor %d", addr)
	}

	var polls int
	require.NoError(t, r.WaitArrived(context.Background(), 0, func(states []AxisState) {
		polls++
		for n, state := range states {
			require.InDelta(t, targets[n], state.PositionMM, 0.01)
		}
	}))
	require.Equal(t, 1, polls)
}

func TestRigSyncMoveFromCurrent(t *testing.T) {
	r, _, clock := newTestRig(t)
	_, err := r.SyncMove([]float64{1000, 1000, 1000, 1000}, r.Fast)
	require.NoError(t, err)
	require.NoError(t, r.WaitArrived(context.Background(), 0, advance(clock, time.Second)))

	plan, err := r.SyncMove([]float64{1000, 500, 1000, 0}, r.Fast)
	require.NoError(t, err)
	require.Equal(t, motion.Profile{}, plan.Axes[0])
	require.Equal(t, motion.Profile{}, plan.Axes[2])
	require.Equal(t, r.Fast, plan.Axes[3])
	require.NoError(t, r.WaitArrived(context.Background(), 0, advance(clock, time.Second)))

	states, err := r.Poll()
	require.NoError(t, err)
	for n, expect := range []float64{1000, 500, 1000, 0} {
		require.InDelta(t, expect, states[n].PositionMM, 0.01)
		require.True(t, states[n].Arrived())
	}
}

func TestRigSyncMoveRejected(t *testing.T) {
	testCases := []struct {
		name    string
		targets []float64
		expect  error
	}{
		{"count", []float64{1, 2}, ErrTargetCount},
		{"negative", []float64{1, -2, 3, 4}, nil},
		{"too far", []float64{1, 2, 6000, 4}, nil},
		{"nan", []float64{math.NaN(), 2, 3, 4}, nil},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r, bus, clock := newTestRig(t)
			_, err := r.SyncMove(tc.targets, r.Fast)
			require.Error(t, err)
			if tc.expect != nil {
				require.Equal(t, tc.expect, err)
			}
			clock.Advance(time.Minute)
			for _, addr := range bus.Addrs() {
				state, _ := bus.State(addr)
				require.Equal(t, 0.0, state.PositionDeg)
			}
		})
	}
	_, err := (&Rig{}).SyncMove(nil, motion.Profile{})
	require.Equal(t, ErrNoAxes, err)
}

func TestRigSyncMoveOfflineAxis(t *testing.T) {
	r, bus, clock := newTestRig(t)
	bus.Remove(2)
	_, err := r.SyncMove([]float64{100, 100, 100, 100}, r.Fast)
	require.Error(t, err)
	require.Contains(t, err.Error(), "axis m2@2")
	var timeout *comm.TimeoutError
	require.True(t, err.(*fx.AggregatedError).Find(&timeout))
	clock.Advance(time.Minute)
	state, _ := bus.State(1)
	require.Equal(t, 0.0, state.PositionDeg)

	// the online subset still moves.
	sub := r.WithAxes(r.Online())
	require.Len(t, sub.Axes, 3)
	_, err = sub.SyncMove([]float64{100, 100, 100}, r.Fast)
	require.NoError(t, err)
	require.NoError(t, sub.WaitArrived(context.Background(), 0, advance(clock, time.Second)))
}

func TestRigMove(t *testing.T) {
	r, bus, clock := newTestRig(t)
	axis, _ := r.Axis("m3")
	outcome, err := r.Move(axis, 200, motion.Profile{SpeedRPM: 1000, AccelRPMS: 100})
	require.NoError(t, err)
	require.Equal(t, motor.Confirmed, outcome)
	clock.Advance(time.Minute)
	state, _ := bus.State(3)
	require.InDelta(t, r.ToDeg(200), state.PositionDeg, 0.05)

	outcome, err = r.Move(axis, -1, r.Fast)
	require.Error(t, err)
	require.Equal(t, motor.Failed, outcome)
}

func TestRigWaitArrivedCanceled(t *testing.T) {
	r, bus, _ := newTestRig(t)
	bus.Update(1, func(m *sim.Motor) { m.MoveTo(time.Unix(1000, 0), 100, 0, 100) })
	ctx, cancel := context.WithCancel(context.Background())
	var polls int
	err := r.WaitArrived(ctx, time.Millisecond, func(states []AxisState) {
		require.False(t, states[0].Arrived())
		if polls++; polls == 2 {
			cancel()
		}
	})
	require.Equal(t, context.Canceled, err)
	require.Equal(t, 2, polls)
}

func TestRigPollErrors(t *testing.T) {
	r, bus, _ := newTestRig(t)
	bus.Update(4, func(m *sim.Motor) { m.Offline = true })
	states, err := r.Poll()
	require.Error(t, err)
	require.Len(t, states, 4)
	require.NoError(t, states[0].Err)
	require.True(t, comm.IsTimeout(states[3].Err))
	require.False(t, states[3].Arrived())
}

func TestRigEnable(t *testing.T) {
	r, bus, _ := newTestRig(t)
	bus.Remove(2)
	require.NoError(t, r.Enable(false))
	state, _ := bus.State(1)
	require.False(t, state.Enabled)
	require.NoError(t, r.Enable(true))
	state, _ = bus.State(4)
	require.True(t, state.Enabled)
}

func TestRigZero(t *testing.T) {
	r, bus, clock := newTestRig(t)
	_, err := r.SyncMove([]float64{10, 20, 30, 40}, r.Fast)
	require.NoError(t, err)
	clock.Advance(time.Minute)
	require.NoError(t, r.Zero())
	positions, err := r.Positions()
	require.NoError(t, err)
	require.Equal(t, []float64{0, 0, 0, 0}, positions)

	bus.Update(2, func(m *sim.Motor) { m.ClearCode = comm.CodeRejected })
	err = r.Zero()
	require.Error(t, err)
	require.Contains(t, err.Error(), "axis m2@2: clear position failed")
}
