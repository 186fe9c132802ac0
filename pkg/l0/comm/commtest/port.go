// Package commtest provides a scripted bus port for tests.
package commtest

import (
	"bytes"
	"sync"
)

// Port records written frames and serves injected reply bytes. Once the
// injected bytes are drained Read reports io.EOF, which is how a serial
// port with a read timeout looks on a silent bus.
type Port struct {
	lock    sync.Mutex
	written [][]byte
	replies bytes.Buffer
	onWrite func(frame []byte) []byte
	closed  bool
}

// New creates a Port.
func New() *Port {
	return &Port{}
}

// Inject queues bytes to be read.
func (p *Port) Inject(bs ...byte) *Port {
	p.lock.Lock()
	p.replies.Write(bs)
	p.lock.Unlock()
	return p
}

// Respond installs a responder called for every written frame; the
// returned bytes are queued for reading.
func (p *Port) Respond(fn func(frame []byte) []byte) *Port {
	p.lock.Lock()
	p.onWrite = fn
	p.lock.Unlock()
	return p
}

// Read implements io.Reader.
func (p *Port) Read(b []byte) (int, error) {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.replies.Read(b)
}

// Write implements io.Writer. Each call is recorded as one frame.
func (p *Port) Write(b []byte) (int, error) {
	p.lock.Lock()
	defer p.lock.Unlock()
	frame := append([]byte(nil), b...)
	p.written = append(p.written, frame)
	if p.onWrite != nil {
		p.replies.Write(p.onWrite(frame))
	}
	return len(b), nil
}

// Close implements io.Closer.
func (p *Port) Close() error {
	p.lock.Lock()
	p.closed = true
	p.lock.Unlock()
	return nil
}

// Closed reports whether Close was called.
func (p *Port) Closed() bool {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.closed
}

// Written returns all frames written so far.
func (p *Port) Written() [][]byte {
	p.lock.Lock()
	defer p.lock.Unlock()
	return append([][]byte(nil), p.written...)
}

// Last returns the last written frame.
func (p *Port) Last() []byte {
	p.lock.Lock()
	defer p.lock.Unlock()
	if len(p.written) == 0 {
		return nil
	}
	return p.written[len(p.written)-1]
}
