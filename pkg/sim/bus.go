// Package sim simulates ZDT motors sharing an RS-485 bus.
//
// A Bus is used in place of a serial port: frames written to it are
// decoded and answered by the simulated motor at the addressed slot, and
// motion is integrated lazily against a Clock on every query.
package sim

import (
	"bytes"
	"io"
	"sort"
	"sync"

	"github.com/golang/glog"

	"github.com/robotalks/cablebot/pkg/l0/comm"
)

// Bus hosts simulated motors.
type Bus struct {
	Clock Clock

	motors map[byte]*Motor
	in     []byte
	out    bytes.Buffer
	closed bool
	lock   sync.Mutex
}

// NewBus creates a Bus with a disabled motor at each address.
func NewBus(addrs ...byte) *Bus {
	b := &Bus{Clock: WallClock, motors: make(map[byte]*Motor)}
	for _, addr := range addrs {
		b.motors[addr] = NewMotor(addr)
	}
	return b
}

// Addrs lists the hosted motor addresses.
func (b *Bus) Addrs() []byte {
	b.lock.Lock()
	defer b.lock.Unlock()
	addrs := make([]byte, 0, len(b.motors))
	for addr := range b.motors {
		addrs = append(addrs, addr)
	}
	sort.Slice(addrs, func(i, j int) bool { return addrs[i] < addrs[j] })
	return addrs
}

// Update runs fn on the motor at addr while holding the bus, adding a
// motor if the slot is empty.
func (b *Bus) Update(addr byte, fn func(m *Motor)) {
	b.lock.Lock()
	defer b.lock.Unlock()
	m := b.motors[addr]
	if m == nil {
		m = NewMotor(addr)
		b.motors[addr] = m
	}
	fn(m)
}

// Remove unplugs the motor at addr.
func (b *Bus) Remove(addr byte) {
	b.lock.Lock()
	delete(b.motors, addr)
	b.lock.Unlock()
}

// MotorState is a point-in-time view of a simulated motor.
type MotorState struct {
	Addr        byte
	Enabled     bool
	PositionDeg float64
	TargetDeg   float64
	Arrived     bool
	Status      byte
}

// State snapshots the motor at addr.
func (b *Bus) State(addr byte) (MotorState, bool) {
	b.lock.Lock()
	defer b.lock.Unlock()
	m := b.motors[addr]
	if m == nil {
		return MotorState{}, false
	}
	now := b.Clock.Now()
	return MotorState{
		Addr:        addr,
		Enabled:     m.Enabled,
		PositionDeg: m.Position(now),
		TargetDeg:   m.Target(),
		Arrived:     m.Arrived(now),
		Status:      m.Status(now),
	}, true
}

// Read implements io.Reader. An empty reply queue reads as io.EOF, the
// way a serial port with a read timeout looks on a silent bus.
func (b *Bus) Read(p []byte) (int, error) {
	b.lock.Lock()
	defer b.lock.Unlock()
	if b.closed {
		return 0, io.ErrClosedPipe
	}
	return b.out.Read(p)
}

// Write implements io.Writer. Complete frames are dispatched as soon as
// they are received; partial frames are kept until the rest arrives.
func (b *Bus) Write(p []byte) (int, error) {
	b.lock.Lock()
	defer b.lock.Unlock()
	if b.closed {
		return 0, io.ErrClosedPipe
	}
	b.in = append(b.in, p...)
	for len(b.in) >= 2 {
		n := comm.RequestLen(b.in[1])
		if n == 0 {
			glog.Warningf("sim: unknown command 0x%02x, dropping [% x]", b.in[1], b.in)
			b.in = b.in[:0]
			break
		}
		if len(b.in) < n {
			break
		}
		raw := b.in[:n]
		b.in = append([]byte(nil), b.in[n:]...)
		b.dispatch(raw)
	}
	return len(p), nil
}

func (b *Bus) dispatch(raw []byte) {
	f, err := comm.ParseFrame(raw, raw[0], raw[1])
	if err != nil {
		glog.Warningf("sim: %v", err)
		return
	}
	m := b.motors[f.Addr]
	if m == nil || m.Offline {
		return
	}
	if reply := m.handle(b.Clock.Now(), f); reply != nil {
		b.out.Write(reply.Bytes())
	}
}

// Close implements io.Closer.
func (b *Bus) Close() error {
	b.lock.Lock()
	b.closed = true
	b.lock.Unlock()
	return nil
}
