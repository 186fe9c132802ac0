package motor

import (
	"flag"
	"log"
	"os"
	"time"

	"github.com/robotalks/cablebot/pkg/l0/comm"
	"github.com/robotalks/cablebot/pkg/l0/serial"
)

// Config provides options to open a Driver on a serial bus.
type Config struct {
	Device      string
	Baud        int
	ReadTimeout time.Duration
	Turnaround  time.Duration
	Limits      Limits
}

var defaultConfig = Config{
	Device:      "/dev/ttyUSB0",
	Baud:        serial.DefaultBaud,
	ReadTimeout: serial.DefaultReadTimeout,
	Turnaround:  comm.DefaultTurnaround,
	Limits:      DefaultLimits(),
}

func init() {
	if val := os.Getenv("CABLEBOT_PORT"); val != "" {
		defaultConfig.Device = val
	}
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.Device, "port", defaultConfig.Device, "Serial device of the RS-485 adapter.")
	flag.IntVar(&defaultConfig.Baud, "baud", defaultConfig.Baud, "Baud rate.")
	flag.DurationVar(&defaultConfig.ReadTimeout, "read-timeout", defaultConfig.ReadTimeout, "Read timeout for every response.")
	flag.DurationVar(&defaultConfig.Turnaround, "turnaround", defaultConfig.Turnaround, "Delay after each write before reading.")
	flag.Float64Var(&defaultConfig.Limits.MaxSpeedRPM, "max-speed", defaultConfig.Limits.MaxSpeedRPM, "Speed soft limit (RPM).")
	flag.Float64Var(&defaultConfig.Limits.MaxAccelRPMS, "max-accel", defaultConfig.Limits.MaxAccelRPMS, "Acceleration soft limit (RPM/s).")
	flag.Float64Var(&defaultConfig.Limits.MinPositionDeg, "min-pos", defaultConfig.Limits.MinPositionDeg, "Lower position soft limit (degrees), negative allows reverse travel.")
	flag.Float64Var(&defaultConfig.Limits.MaxPositionDeg, "max-pos", defaultConfig.Limits.MaxPositionDeg, "Upper position soft limit (degrees).")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// SerialConfig is the port configuration.
func (c *Config) SerialConfig() *serial.Config {
	return &serial.Config{
		Device:      c.Device,
		Baud:        c.Baud,
		ReadTimeout: c.ReadTimeout,
	}
}

// Open opens the serial port and creates a Driver owning it.
func (c *Config) Open() (*Driver, error) {
	if err := c.Limits.Validate(); err != nil {
		return nil, err
	}
	port, err := serial.Open(c.SerialConfig())
	if err != nil {
		return nil, err
	}
	d := NewDriver(port, c.Limits)
	d.Conn.Turnaround = c.Turnaround
	d.Conn.Baud = c.Baud
	return d, nil
}

// MustOpen opens a Driver and fails on error.
func (c *Config) MustOpen() *Driver {
	d, err := c.Open()
	if err != nil {
		log.Fatalln(err)
	}
	return d
}
