package sim

import (
	"math"
	"time"

	"github.com/robotalks/cablebot/pkg/l0/comm"
	"github.com/robotalks/cablebot/pkg/motion"
)

// DefaultBusVoltageMV is the supply voltage reported by new motors.
const DefaultBusVoltageMV = 24000

// Motor is the state of one simulated drive. Positions use the host
// convention: positive is cable payout.
type Motor struct {
	Addr    byte
	Enabled bool
	// VoltageMV is reported by the bus voltage query.
	VoltageMV uint16
	// Flags are OR'ed into the status byte, e.g. limit switches.
	Flags byte
	// PowerLoss is reported until the motor is enabled.
	PowerLoss bool
	// Offline motors ignore all frames.
	Offline bool
	// DropAcks swallows the next N acknowledgments. The commands
	// still take effect.
	DropAcks int
	// ClearCode overrides the code returned for clear position.
	ClearCode byte
	// RejectWhileMoving rejects clear position until the move ends.
	RejectWhileMoving bool

	origin float64
	target float64
	speed  float64
	accel  float64
	start  time.Time
	moving bool
}

// NewMotor creates an idle disabled motor at 0°.
func NewMotor(addr byte) *Motor {
	return &Motor{Addr: addr, VoltageMV: DefaultBusVoltageMV}
}

// Position estimates the position at now.
func (m *Motor) Position(now time.Time) float64 {
	if !m.moving {
		return m.origin
	}
	dist := m.target - m.origin
	moved := motion.TrapezoidDistance(dist, m.speed, m.accel, now.Sub(m.start).Seconds())
	if dist < 0 {
		return m.origin - moved
	}
	return m.origin + moved
}

// Arrived reports whether the last move has completed at now.
func (m *Motor) Arrived(now time.Time) bool {
	if !m.moving {
		return true
	}
	return now.Sub(m.start).Seconds() >= motion.TrapezoidTime(m.target-m.origin, m.speed, m.accel)
}

// Target is the destination of the current or last move.
func (m *Motor) Target() float64 {
	if !m.moving {
		return m.origin
	}
	return m.target
}

// settle folds a completed or interrupted move into the origin.
func (m *Motor) settle(now time.Time) {
	if m.moving {
		m.origin = m.Position(now)
		m.moving = false
	}
}

// MoveTo starts an absolute move from the current position.
func (m *Motor) MoveTo(now time.Time, target, speedRPM, accelRPMS float64) {
	m.settle(now)
	m.target, m.speed, m.accel, m.start = target, speedRPM, accelRPMS, now
	m.moving = target != m.origin
}

// Status encodes the status byte at now.
func (m *Motor) Status(now time.Time) byte {
	status := m.Flags
	if m.Enabled {
		status |= 1 << 0
	}
	if m.Arrived(now) {
		status |= 1 << 1
	} else {
		status |= 1 << 2
	}
	if m.PowerLoss {
		status |= 1 << 7
	}
	return status
}

func (m *Motor) handle(now time.Time, req *comm.Frame) *comm.Frame {
	switch req.Code {
	case comm.CmdReadStatus:
		return comm.NewFrame(m.Addr, req.Code).Byte(m.Status(now))
	case comm.CmdReadPosition:
		pos := m.Position(now)
		var sign byte
		if pos < 0 {
			sign = 1
		}
		return comm.NewFrame(m.Addr, req.Code).
			Byte(sign).
			Uint32(uint32(math.Round(math.Abs(pos) * 10)))
	case comm.CmdReadBusVoltage:
		return comm.NewFrame(m.Addr, req.Code).Uint16(m.VoltageMV)
	case comm.CmdEnable:
		if req.Payload[0] != comm.SubEnable {
			return m.ack(req.Code, comm.CodeError)
		}
		if m.Enabled = req.Payload[1] != 0; m.Enabled {
			m.PowerLoss = false
		} else {
			m.settle(now)
		}
		return m.ack(req.Code, comm.CodeOK)
	case comm.CmdPositionMove:
		return m.move(now, req)
	case comm.CmdClearPosition:
		if req.Payload[0] != comm.SubClearPosition {
			return comm.NewFrame(m.Addr, req.Code).Byte(comm.CodeError)
		}
		if m.ClearCode != 0 && m.ClearCode != comm.CodeOK {
			return comm.NewFrame(m.Addr, req.Code).Byte(m.ClearCode)
		}
		if m.RejectWhileMoving && !m.Arrived(now) {
			return comm.NewFrame(m.Addr, req.Code).Byte(comm.CodeRejected)
		}
		m.settle(now)
		m.origin = 0
		return comm.NewFrame(m.Addr, req.Code).Byte(comm.CodeOK)
	}
	return nil
}

func (m *Motor) move(now time.Time, req *comm.Frame) *comm.Frame {
	if !m.Enabled {
		return m.ack(req.Code, comm.CodeRejected)
	}
	acc, _ := req.Uint16At(1)
	speed, _ := req.Uint16At(5)
	raw, _ := req.Uint32At(7)
	pos := float64(raw) / 10
	if req.Payload[0] != 0 {
		pos = -pos
	}
	if req.Payload[11] == 0 {
		pos += m.Position(now)
	}
	m.MoveTo(now, pos, float64(speed)/10, float64(acc))
	return m.ack(req.Code, comm.CodeOK)
}

func (m *Motor) ack(code, status byte) *comm.Frame {
	if m.DropAcks > 0 {
		m.DropAcks--
		return nil
	}
	return comm.NewFrame(m.Addr, code).Byte(status)
}
