package telemetry

import (
	"flag"
	"os"
	"time"
)

// Config is the telemetry configuration.
type Config struct {
	BrokerURL string
	RigID     string
	Interval  time.Duration
	Encoding  string
}

var defaultConfig = Config{
	Interval: DefaultInterval,
	Encoding: "json",
}

func init() {
	if val := os.Getenv("CABLEBOT_MQTT"); val != "" {
		defaultConfig.BrokerURL = val
	}
	if val := os.Getenv("CABLEBOT_RIG_ID"); val != "" {
		defaultConfig.RigID = val
	}
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.BrokerURL, "mqtt", defaultConfig.BrokerURL, "MQTT broker URL, e.g. mqtt://host:1883/prefix/.")
	flag.StringVar(&defaultConfig.RigID, "rig-id", defaultConfig.RigID, "Rig ID used in topics, defaults to a machine ID.")
	flag.DurationVar(&defaultConfig.Interval, "publish-interval", defaultConfig.Interval, "State publish interval while idle.")
	flag.StringVar(&defaultConfig.Encoding, "encoding", defaultConfig.Encoding, "Payload encoding: json or proto.")
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// ID returns RigID or the machine rig ID.
func (c *Config) ID() string {
	if c.RigID != "" {
		return c.RigID
	}
	return MachineRigID()
}
