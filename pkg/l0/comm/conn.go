package comm

import (
	"io"
	"os"
	"time"

	"github.com/golang/glog"
)

// DefaultTurnaround is the pause after each write before the bus is read.
// Half-duplex USB/RS-485 dongles need it to switch the driver off.
const DefaultTurnaround = 3 * time.Millisecond

// Flusher is implemented by ports which buffer writes.
type Flusher interface {
	Flush() error
}

// Conn exchanges frames over a half-duplex bus.
// The ReadWriter is expected to time out reads on its own (e.g. a serial
// port opened with a read timeout); a read returning no data ends the
// current receive with a TimeoutError.
type Conn struct {
	ReadWriter io.ReadWriter
	Turnaround time.Duration
	// Baud, if set, adds the time to shift a frame out to Turnaround,
	// as ports do not drain their output on Write.
	Baud int

	sleep func(time.Duration)
}

// NewConn creates a Conn.
func NewConn(rw io.ReadWriter) *Conn {
	return &Conn{
		ReadWriter: rw,
		Turnaround: DefaultTurnaround,
		sleep:      time.Sleep,
	}
}

// Send writes a frame and waits for the bus turnaround.
func (c *Conn) Send(f *Frame) error {
	if glog.V(2) {
		glog.Infof("TX [% x]", f.Bytes())
	}
	if _, err := f.WriteTo(c.ReadWriter); err != nil {
		return err
	}
	if fl, ok := c.ReadWriter.(Flusher); ok {
		if err := fl.Flush(); err != nil {
			return err
		}
	}
	if delay := c.Turnaround + Airtime(f.Len(), c.Baud); delay > 0 {
		sleep := c.sleep
		if sleep == nil {
			sleep = time.Sleep
		}
		sleep(delay)
	}
	return nil
}

// Airtime is the time to transmit n bytes at 8N1, 10 bits per byte.
// It is 0 if baud is unknown.
func Airtime(n, baud int) time.Duration {
	if baud <= 0 {
		return 0
	}
	return time.Duration(n*10) * time.Second / time.Duration(baud)
}

// ReceiveExact reads exactly n bytes. Partial data is reported as
// TimeoutError and never returned.
func (c *Conn) ReceiveExact(n int) ([]byte, error) {
	buf := make([]byte, n)
	got := 0
	for got < n {
		r, err := c.ReadWriter.Read(buf[got:])
		got += r
		if err != nil {
			if got >= n {
				break
			}
			if err == io.EOF || os.IsTimeout(err) {
				return nil, &TimeoutError{Expected: n, Actual: got}
			}
			return nil, err
		}
		if r == 0 {
			return nil, &TimeoutError{Expected: n, Actual: got}
		}
	}
	if glog.V(2) {
		glog.Infof("RX [% x]", buf)
	}
	return buf, nil
}

// Exchange sends a request and reads a response of n bytes, validating
// the address, command echo and checksum.
func (c *Conn) Exchange(f *Frame, n int) (*Frame, error) {
	if err := c.Send(f); err != nil {
		return nil, err
	}
	raw, err := c.ReceiveExact(n)
	if err != nil {
		return nil, err
	}
	return ParseFrame(raw, f.Addr, f.Code)
}
