package motion

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

var testLimit = Profile{SpeedRPM: 1500, AccelRPMS: 150}

func TestSolveSync(t *testing.T) {
	fast := Profile{SpeedRPM: 1000, AccelRPMS: 100}
	plan := SolveSync([]float64{100, 50, 0}, fast, testLimit)

	require.InDelta(t, TrapezoidTime(100, 1000, 100), plan.Duration, 1e-12)
	require.Len(t, plan.Axes, 3)
	require.Equal(t, fast, plan.Axes[0])
	require.True(t, plan.Axes[1].SpeedRPM <= plan.Axes[0].SpeedRPM)
	require.InDelta(t, 50.0, plan.Axes[1].AccelRPMS, 1e-9)
	require.InDelta(t, DegPerSecToRPM(2*50/plan.Duration), plan.Axes[1].SpeedRPM, 1e-9)
	require.Equal(t, Profile{}, plan.Axes[2])
	require.InDelta(t, 0, plan.MaxSkew([]float64{100, 50, 0}), 1e-9)
}

func TestSolveSyncTrapezoid(t *testing.T) {
	dists := []float64{100000, -30000, 0}
	plan := SolveSync(dists, Profile{SpeedRPM: 1000, AccelRPMS: 100}, testLimit)
	require.InDelta(t, 80.0/3, plan.Duration, 1e-9)
	require.InDelta(t, 375.0, plan.Axes[1].SpeedRPM, 1e-9)
	require.InDelta(t, 28.125, plan.Axes[1].AccelRPMS, 1e-9)
	for n, ft := range plan.FinishTimes(dists) {
		if dists[n] != 0 {
			require.InDelta(t, plan.Duration, ft, 1e-9)
		}
	}
}

func TestSolveSyncCapsFastProfile(t *testing.T) {
	plan := SolveSync([]float64{100000, 1000}, Profile{SpeedRPM: 5000, AccelRPMS: 1000}, testLimit)
	require.Equal(t, testLimit, plan.Axes[0])
	require.InDelta(t, TrapezoidTime(100000, 1500, 150), plan.Duration, 1e-9)
	require.True(t, plan.Axes[1].SpeedRPM <= testLimit.SpeedRPM)
	require.True(t, plan.Axes[1].AccelRPMS <= testLimit.AccelRPMS)
}

func TestSolveSyncClampedAxisFinishesLate(t *testing.T) {
	// the triangular peak for 90000° needs 1125 RPM, above the 1000 budget.
	dists := []float64{100000, 90000}
	plan := SolveSync(dists, Profile{SpeedRPM: 1000, AccelRPMS: 100}, testLimit)
	require.Equal(t, 1000.0, plan.Axes[1].SpeedRPM)
	require.True(t, plan.MaxSkew(dists) > 0.1)
	require.True(t, plan.FinishTimes(dists)[1] > plan.Duration)
}

func TestSolveSyncDegenerate(t *testing.T) {
	plan := SolveSync(nil, Profile{SpeedRPM: 1000, AccelRPMS: 100}, testLimit)
	require.Equal(t, 0.0, plan.Duration)
	require.Empty(t, plan.Axes)

	plan = SolveSync([]float64{0, 0}, Profile{SpeedRPM: 1000, AccelRPMS: 100}, testLimit)
	require.Equal(t, 0.0, plan.Duration)
	require.Equal(t, []Profile{{}, {}}, plan.Axes)

	plan = SolveSync([]float64{10, 5}, Profile{SpeedRPM: 1000}, testLimit)
	require.True(t, math.IsInf(plan.Duration, 1))
	require.Equal(t, []Profile{{}, {}}, plan.Axes)
}
