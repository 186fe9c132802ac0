// Package serial opens RS-485 adapters for the L0 bus.
package serial

import (
	"fmt"
	"io"
	"time"

	"github.com/tarm/serial"
)

// Port is an open bus adapter.
type Port interface {
	io.ReadWriteCloser
}

// Config holds serial port configuration.
type Config struct {
	// Device path, e.g. /dev/ttyUSB0 or COM3.
	Device string
	// Baud rate, 115200 for ZDT drivers in free protocol mode.
	Baud int
	// ReadTimeout bounds each read; 0 blocks forever.
	// Linux rounds it to tenths of a second.
	ReadTimeout time.Duration
}

// Defaults
const (
	DefaultBaud        = 115200
	DefaultReadTimeout = 200 * time.Millisecond
)

// DefaultConfig returns the 115200 8N1 configuration with a 200ms timeout.
func DefaultConfig(device string) *Config {
	return &Config{
		Device:      device,
		Baud:        DefaultBaud,
		ReadTimeout: DefaultReadTimeout,
	}
}

// Open opens the port as 8 data bits, no parity, 1 stop bit.
func Open(cfg *Config) (Port, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if cfg.Device == "" {
		return nil, fmt.Errorf("serial device must be specified")
	}
	baud := cfg.Baud
	if baud == 0 {
		baud = DefaultBaud
	}
	port, err := serial.OpenPort(&serial.Config{
		Name:        cfg.Device,
		Baud:        baud,
		ReadTimeout: cfg.ReadTimeout,
		Size:        8,
		Parity:      serial.ParityNone,
		StopBits:    serial.Stop1,
	})
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", cfg.Device, err)
	}
	return &nativePort{port: port}, nil
}

// nativePort hides tarm's Flush, which discards unsent output instead of
// draining it.
type nativePort struct {
	port *serial.Port
}

func (p *nativePort) Read(b []byte) (int, error) {
	return p.port.Read(b)
}

func (p *nativePort) Write(b []byte) (int, error) {
	return p.port.Write(b)
}

func (p *nativePort) Close() error {
	return p.port.Close()
}
