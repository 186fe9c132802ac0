package cable

import (
	"flag"
	"fmt"
	"io/ioutil"
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/robotalks/cablebot/pkg/motion"
	"github.com/robotalks/cablebot/pkg/motor"
)

// AxisConfig names a winch on the bus.
type AxisConfig struct {
	Name string `yaml:"name"`
	Addr byte   `yaml:"addr"`
}

// Config describes the rig geometry and motion defaults.
type Config struct {
	Axes                []AxisConfig   `yaml:"axes"`
	DrumCircumferenceMM float64        `yaml:"drum_circumference_mm"`
	GearboxRatio        float64        `yaml:"gearbox_ratio"`
	TravelMM            float64        `yaml:"travel_mm"`
	Fast                motion.Profile `yaml:"fast"`
	PollInterval        time.Duration  `yaml:"poll_interval"`

	// Limits, if set, replace the soft limits of the driver.
	Limits *motor.Limits `yaml:"limits"`
}

// Rig defaults.
const (
	DefaultDrumCircumferenceMM = 769.5
	DefaultGearboxRatio        = 70
	DefaultTravelMM            = 5496
	DefaultPollInterval        = 50 * time.Millisecond
)

// DefaultConfig is the four winch rig.
func DefaultConfig() *Config {
	return &Config{
		Axes: []AxisConfig{
			{Name: "m1", Addr: 1},
			{Name: "m2", Addr: 2},
			{Name: "m3", Addr: 3},
			{Name: "m4", Addr: 4},
		},
		DrumCircumferenceMM: DefaultDrumCircumferenceMM,
		GearboxRatio:        DefaultGearboxRatio,
		TravelMM:            DefaultTravelMM,
		Fast:                motion.Profile{SpeedRPM: 800, AccelRPMS: 100},
		PollInterval:        DefaultPollInterval,
	}
}

var configFile = os.Getenv("CABLEBOT_RIG")

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&configFile, "rig", configFile, "Rig config file (YAML).")
}

// ParseConfig decodes YAML over the defaults. A limits block only
// overrides the default soft limits it names.
func ParseConfig(data []byte) (*Config, error) {
	var keys map[string]interface{}
	if err := yaml.Unmarshal(data, &keys); err != nil {
		return nil, fmt.Errorf("parse rig config: %w", err)
	}
	conf := DefaultConfig()
	if _, ok := keys["limits"]; ok {
		limits := motor.DefaultLimits()
		conf.Limits = &limits
	}
	if err := yaml.Unmarshal(data, conf); err != nil {
		return nil, fmt.Errorf("parse rig config: %w", err)
	}
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

// LoadConfig loads the rig config from a YAML file.
func LoadConfig(fn string) (*Config, error) {
	data, err := ioutil.ReadFile(fn)
	if err != nil {
		return nil, err
	}
	return ParseConfig(data)
}

// LoadDefault loads the file given by -rig or CABLEBOT_RIG, or returns
// DefaultConfig if none.
func LoadDefault() (*Config, error) {
	if configFile == "" {
		return DefaultConfig(), nil
	}
	return LoadConfig(configFile)
}

// MustLoad is LoadDefault which fails on error.
func MustLoad() *Config {
	conf, err := LoadDefault()
	if err != nil {
		log.Fatalln(err)
	}
	return conf
}

// Validate checks the config.
func (c *Config) Validate() error {
	if len(c.Axes) == 0 {
		return fmt.Errorf("rig has no axes")
	}
	names := make(map[string]bool)
	addrs := make(map[byte]bool)
	for _, axis := range c.Axes {
		switch {
		case axis.Name == "":
			return fmt.Errorf("axis at address %d has no name", axis.Addr)
		case axis.Addr == 0:
			return fmt.Errorf("axis %s: address 0 is broadcast", axis.Name)
		case names[axis.Name]:
			return fmt.Errorf("duplicated axis %s", axis.Name)
		case addrs[axis.Addr]:
			return fmt.Errorf("duplicated address %d", axis.Addr)
		}
		names[axis.Name], addrs[axis.Addr] = true, true
	}
	if !(c.DrumCircumferenceMM > 0) || !(c.GearboxRatio > 0) {
		return fmt.Errorf("invalid drum %vmm / gearbox %v", c.DrumCircumferenceMM, c.GearboxRatio)
	}
	if c.TravelMM < 0 {
		return fmt.Errorf("invalid travel %vmm", c.TravelMM)
	}
	if c.Limits != nil {
		return c.Limits.Validate()
	}
	return nil
}
