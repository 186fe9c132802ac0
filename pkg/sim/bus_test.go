package sim

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/cablebot/pkg/l0/comm"
	"github.com/robotalks/cablebot/pkg/motor"
)

func newTestBus(addrs ...byte) (*Bus, *ManualClock, *motor.Driver) {
	clock := NewManualClock(time.Unix(1000, 0))
	bus := NewBus(addrs...)
	bus.Clock = clock
	limits := motor.DefaultLimits()
	limits.MinPositionDeg = -limits.MaxPositionDeg
	d := motor.NewDriver(bus, limits)
	d.Conn.Turnaround = 0
	return bus, clock, d
}

func TestBusProbe(t *testing.T) {
	bus, _, d := newTestBus(1, 2)
	require.Equal(t, []byte{1, 2}, bus.Addrs())
	require.True(t, d.Probe(1))
	require.True(t, d.Probe(2))
	require.False(t, d.Probe(3))

	bus.Update(2, func(m *Motor) { m.Offline = true })
	require.False(t, d.Probe(2))
	bus.Remove(1)
	require.False(t, d.Probe(1))
}

func TestBusMove(t *testing.T) {
	bus, clock, d := newTestBus(1)
	outcome, err := d.SetEnable(1, true)
	require.NoError(t, err)
	require.Equal(t, motor.Confirmed, outcome)

	outcome, err = d.SetTarget(1, 3600, 1000, 100)
	require.NoError(t, err)
	require.Equal(t, motor.Confirmed, outcome)

	arrived, err := d.ReadArrived(1)
	require.NoError(t, err)
	require.False(t, arrived)

	// triangle profile: 2*sqrt(3600/600) seconds, halfway at sqrt(6).
	clock.Advance(time.Duration(math.Sqrt(6) * float64(time.Second)))
	pos, err := d.ReadPosition(1)
	require.NoError(t, err)
	require.InDelta(t, 1800, pos, 0.1)
	s, err := d.ReadStatus(1)
	require.NoError(t, err)
	require.True(t, s.Enabled)
	require.True(t, s.RotationDetected)
	require.False(t, s.Reached)

	clock.Advance(3 * time.Second)
	pos, err = d.ReadPosition(1)
	require.NoError(t, err)
	require.Equal(t, 3600.0, pos)
	arrived, err = d.ReadArrived(1)
	require.NoError(t, err)
	require.True(t, arrived)

	state, ok := bus.State(1)
	require.True(t, ok)
	require.Equal(t, 3600.0, state.TargetDeg)
}

func TestBusMoveReverse(t *testing.T) {
	bus, clock, d := newTestBus(1)
	bus.Update(1, func(m *Motor) { m.Enabled = true })
	_, err := d.SetTarget(1, -500, 1000, 100)
	require.NoError(t, err)
	clock.Advance(time.Minute)
	pos, err := d.ReadPosition(1)
	require.NoError(t, err)
	require.Equal(t, -500.0, pos)
}

func TestBusMoveRejected(t *testing.T) {
	bus, clock, d := newTestBus(1)
	outcome, err := d.SetTarget(1, 3600, 1000, 100)
	require.NoError(t, err)
	require.Equal(t, motor.Unconfirmed, outcome)
	clock.Advance(time.Minute)
	state, _ := bus.State(1)
	require.Equal(t, 0.0, state.PositionDeg)
}

func TestBusDropAcks(t *testing.T) {
	bus, clock, d := newTestBus(1)
	bus.Update(1, func(m *Motor) {
		m.Enabled = true
		m.DropAcks = 1
	})
	outcome, err := d.SetTarget(1, 100, 1000, 100)
	require.NoError(t, err)
	require.Equal(t, motor.Unconfirmed, outcome)
	clock.Advance(time.Minute)
	pos, err := d.ReadPosition(1)
	require.NoError(t, err)
	require.Equal(t, 100.0, pos)

	outcome, err = d.SetTarget(1, 200, 1000, 100)
	require.NoError(t, err)
	require.Equal(t, motor.Confirmed, outcome)
}

func TestBusOffline(t *testing.T) {
	bus, _, d := newTestBus(1)
	bus.Update(1, func(m *Motor) { m.Offline = true })
	outcome, err := d.SetTarget(1, 100, 1000, 100)
	require.Equal(t, motor.Failed, outcome)
	require.True(t, motor.IsUnresponsive(err))
	_, err = d.ReadPosition(1)
	require.True(t, comm.IsTimeout(err))
}

func TestBusDisableStops(t *testing.T) {
	bus, clock, d := newTestBus(1)
	bus.Update(1, func(m *Motor) { m.Enabled = true })
	_, err := d.SetTarget(1, 3600, 1000, 100)
	require.NoError(t, err)
	clock.Advance(time.Second)
	_, err = d.SetEnable(1, false)
	require.NoError(t, err)
	clock.Advance(time.Minute)
	state, _ := bus.State(1)
	require.False(t, state.Enabled)
	require.True(t, state.Arrived)
	require.InDelta(t, 300, state.PositionDeg, 1e-6)
}

func TestBusVoltageAndStatus(t *testing.T) {
	bus, _, d := newTestBus(1)
	v, err := d.ReadBusVoltage(1)
	require.NoError(t, err)
	require.Equal(t, 24.0, v)

	bus.Update(1, func(m *Motor) {
		m.VoltageMV = 12500
		m.PowerLoss = true
		m.Flags = motor.StatusLeftLimit
	})
	v, err = d.ReadBusVoltage(1)
	require.NoError(t, err)
	require.Equal(t, 12.5, v)
	s, err := d.ReadStatus(1)
	require.NoError(t, err)
	require.True(t, s.PowerLoss)
	require.True(t, s.LeftLimit)
	require.True(t, s.Reached)

	_, err = d.SetEnable(1, true)
	require.NoError(t, err)
	s, err = d.ReadStatus(1)
	require.NoError(t, err)
	require.False(t, s.PowerLoss)
}

func TestBusClearPosition(t *testing.T) {
	bus, clock, d := newTestBus(1)
	bus.Update(1, func(m *Motor) { m.Enabled = true })
	_, err := d.SetTarget(1, 100, 1000, 100)
	require.NoError(t, err)
	clock.Advance(time.Minute)

	outcome, err := d.ClearPosition(1)
	require.NoError(t, err)
	require.Equal(t, motor.Confirmed, outcome)
	pos, err := d.ReadPosition(1)
	require.NoError(t, err)
	require.Equal(t, 0.0, pos)

	bus.Update(1, func(m *Motor) { m.ClearCode = comm.CodeRejected })
	outcome, err = d.ClearPosition(1)
	require.NoError(t, err)
	require.Equal(t, motor.Failed, outcome)
}

func TestBusClearWhileMoving(t *testing.T) {
	bus, clock, d := newTestBus(1)
	bus.Update(1, func(m *Motor) {
		m.Enabled = true
		m.RejectWhileMoving = true
	})
	_, err := d.SetTarget(1, 3600, 1000, 100)
	require.NoError(t, err)
	outcome, err := d.ClearPosition(1)
	require.NoError(t, err)
	require.Equal(t, motor.Failed, outcome)
	clock.Advance(time.Minute)
	outcome, err = d.ClearPosition(1)
	require.NoError(t, err)
	require.Equal(t, motor.Confirmed, outcome)
}

func TestBusRelativeMove(t *testing.T) {
	bus, clock, _ := newTestBus(1)
	bus.Update(1, func(m *Motor) {
		m.Enabled = true
		m.MoveTo(clock.Now(), 100, 1000, 100)
	})
	clock.Advance(time.Minute)
	req := comm.NewFrame(1, comm.CmdPositionMove).
		Byte(1).Uint16(100).Uint16(100).Uint16(10000).Uint32(400).
		Byte(motor.ModeRelative, 0)
	_, err := req.WriteTo(bus)
	require.NoError(t, err)
	clock.Advance(time.Minute)
	state, _ := bus.State(1)
	require.Equal(t, 60.0, state.PositionDeg)
}

func TestBusFraming(t *testing.T) {
	bus, _, _ := newTestBus(1)
	buf := make([]byte, 16)

	_, err := bus.Write([]byte{0x01, 0x3a})
	require.NoError(t, err)
	n, _ := bus.Read(buf)
	require.Zero(t, n)
	_, err = bus.Write([]byte{0x6b, 0x01, 0x24, 0x6b})
	require.NoError(t, err)
	n, err = bus.Read(buf)
	require.NoError(t, err)
	require.Equal(t, []byte{0x01, 0x3a, 0x02, 0x6b, 0x01, 0x24, 0x5d, 0xc0, 0x6b}, buf[:n])

	// unknown command and bad checksum are dropped.
	_, err = bus.Write([]byte{0x01, 0x99, 0x6b})
	require.NoError(t, err)
	_, err = bus.Write([]byte{0x01, 0x3a, 0x00})
	require.NoError(t, err)
	n, _ = bus.Read(buf)
	require.Zero(t, n)

	require.NoError(t, bus.Close())
	_, err = bus.Write([]byte{0x01, 0x3a, 0x6b})
	require.Error(t, err)
}
