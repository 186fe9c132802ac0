// Package motor drives ZDT closed-loop stepper motors over the L0 bus.
//
// Every method is one synchronous request/response exchange. The driver
// keeps no motor state; status is re-read from the device on each call.
// A Driver is not safe for concurrent use: all calls for a bus must be
// serialized by its single owner.
package motor

import (
	"io"
	"math"

	"github.com/golang/glog"

	"github.com/robotalks/cablebot/pkg/l0/comm"
)

// Driver issues commands to motors sharing one bus.
type Driver struct {
	Conn   *comm.Conn
	Limits Limits
	// OnClamp, if set, is called whenever soft limits changed a move.
	OnClamp func(addr byte, requested, sent Target)

	closer io.Closer
}

// NewDriver creates a Driver on an open bus. If rw is an io.Closer it is
// closed by Driver.Close.
func NewDriver(rw io.ReadWriter, limits Limits) *Driver {
	d := &Driver{
		Conn:   comm.NewConn(rw),
		Limits: limits,
	}
	if c, ok := rw.(io.Closer); ok {
		d.closer = c
	}
	return d
}

// Close releases the bus.
func (d *Driver) Close() error {
	if d.closer != nil {
		err := d.closer.Close()
		d.closer = nil
		return err
	}
	return nil
}

// exchange sends f and reads the fixed-size response to its command.
func (d *Driver) exchange(f *comm.Frame) (*comm.Frame, error) {
	return d.Conn.Exchange(f, comm.ResponseLen(f.Code))
}

// Probe checks whether a motor answers a status query.
// It never fails; any error means the motor is considered offline.
func (d *Driver) Probe(addr byte) bool {
	if _, err := d.exchange(comm.NewFrame(addr, comm.CmdReadStatus)); err != nil {
		glog.V(1).Infof("probe motor %d: %v", addr, err)
		return false
	}
	return true
}

// SetTarget moves a motor to an absolute position with the given peak
// speed and symmetric acceleration, after applying soft limits.
//
// A missing acknowledgment is followed by a probe: if the motor still
// answers, the move is reported Unconfirmed without error, otherwise it
// fails with UnresponsiveError.
func (d *Driver) SetTarget(addr byte, positionDeg, speedRPM, accelRPMS float64) (Outcome, error) {
	if math.IsNaN(positionDeg) || math.IsNaN(speedRPM) || math.IsNaN(accelRPMS) {
		return Failed, ErrInvalidTarget
	}
	target := d.Limits.Target(positionDeg, speedRPM, accelRPMS)
	if target.Clamped != 0 {
		glog.Warningf("motor %d: %s clamped: requested %.1f° %.1fRPM %.1fRPM/s, sending %.1f° %.1fRPM %.1fRPM/s",
			addr, target.Clamped, positionDeg, speedRPM, accelRPMS,
			target.PositionDeg, target.SpeedRPM, target.AccelRPMS)
		if fn := d.OnClamp; fn != nil {
			fn(addr, Target{PositionDeg: positionDeg, SpeedRPM: speedRPM, AccelRPMS: accelRPMS}, target)
		}
	}
	if err := d.Conn.Send(target.Frame(addr)); err != nil {
		return Failed, err
	}
	ack, code, err := d.Conn.TryReceiveAck(addr, comm.CmdPositionMove)
	if err != nil {
		return Failed, err
	}
	if ack == comm.Acked {
		if code != comm.CodeOK {
			glog.Warningf("motor %d: move acked with code 0x%02X", addr, code)
		}
		return Confirmed, nil
	}
	glog.Warningf("motor %d: move %s, probing", addr, ack)
	if !d.Probe(addr) {
		return Failed, &UnresponsiveError{Addr: addr, Code: comm.CmdPositionMove}
	}
	return Unconfirmed, nil
}

// SetEnable locks (enabled) or releases the motor shaft.
// A missing acknowledgment is only logged.
func (d *Driver) SetEnable(addr byte, enabled bool) (Outcome, error) {
	var state byte
	if enabled {
		state = 1
	}
	if err := d.Conn.Send(comm.NewFrame(addr, comm.CmdEnable).Byte(comm.SubEnable, state, 0)); err != nil {
		return Failed, err
	}
	ack, _, err := d.Conn.TryReceiveAck(addr, comm.CmdEnable)
	if err != nil {
		return Failed, err
	}
	if ack != comm.Acked {
		glog.Warningf("motor %d did not ACK enable command (%s)", addr, ack)
		return Unconfirmed, nil
	}
	return Confirmed, nil
}

// ReadPosition reads the absolute position in degrees.
// The sign is inverted from the firmware's so cable payout is positive.
func (d *Driver) ReadPosition(addr byte) (float64, error) {
	f, err := d.exchange(comm.NewFrame(addr, comm.CmdReadPosition))
	if err != nil {
		return 0, err
	}
	return DecodePosition(f)
}

// DecodePosition decodes a read-position response.
func DecodePosition(f *comm.Frame) (float64, error) {
	sign, err := f.ByteAt(0)
	if err != nil {
		return 0, err
	}
	raw, err := f.Uint32At(1)
	if err != nil {
		return 0, err
	}
	pos := float64(raw) / 10
	if sign != 0 {
		pos = -pos
	}
	return pos, nil
}

// ReadStatus reads the status flags.
func (d *Driver) ReadStatus(addr byte) (Status, error) {
	f, err := d.exchange(comm.NewFrame(addr, comm.CmdReadStatus))
	if err != nil {
		return Status{}, err
	}
	return StatusFromByte(f.Payload[0]), nil
}

// ReadArrived reports whether the motor has reached its target position.
func (d *Driver) ReadArrived(addr byte) (bool, error) {
	s, err := d.ReadStatus(addr)
	if err != nil {
		return false, err
	}
	return s.Reached, nil
}

// ReadBusVoltage reads the supply voltage in volts.
func (d *Driver) ReadBusVoltage(addr byte) (float64, error) {
	f, err := d.exchange(comm.NewFrame(addr, comm.CmdReadBusVoltage))
	if err != nil {
		return 0, err
	}
	mv, err := f.Uint16At(0)
	if err != nil {
		return 0, err
	}
	return float64(mv) / 1000, nil
}

// ClearPosition makes the current position 0°.
// Any device code other than success is reported as Failed; the position
// may or may not have been cleared.
func (d *Driver) ClearPosition(addr byte) (Outcome, error) {
	f, err := d.exchange(comm.NewFrame(addr, comm.CmdClearPosition).Byte(comm.SubClearPosition))
	if err != nil {
		return Failed, err
	}
	if code := f.Payload[0]; code != comm.CodeOK {
		glog.Warningf("motor %d: clear position returned code 0x%02X", addr, code)
		return Failed, nil
	}
	return Confirmed, nil
}
