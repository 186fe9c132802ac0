package cable

import (
	"io/ioutil"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/cablebot/pkg/motion"
	"github.com/robotalks/cablebot/pkg/motor"
)

const testConfig = `
axes:
  - name: left
    addr: 1
  - name: right
    addr: 2
gearbox_ratio: 50
fast:
  speed_rpm: 600
  accel_rpms: 80
poll_interval: 20ms
limits:
  max_speed_rpm: 1000
  max_accel_rpms: 100
  min_position_deg: -3600
  max_position_deg: 90000
`

func TestParseConfig(t *testing.T) {
	conf, err := ParseConfig([]byte(testConfig))
	require.NoError(t, err)
	require.Equal(t, []AxisConfig{{Name: "left", Addr: 1}, {Name: "right", Addr: 2}}, conf.Axes)
	require.Equal(t, DefaultDrumCircumferenceMM, conf.DrumCircumferenceMM)
	require.Equal(t, 50.0, conf.GearboxRatio)
	require.Equal(t, float64(DefaultTravelMM), conf.TravelMM)
	require.Equal(t, motion.Profile{SpeedRPM: 600, AccelRPMS: 80}, conf.Fast)
	require.Equal(t, 20*time.Millisecond, conf.PollInterval)
	require.Equal(t, &motor.Limits{
		MaxSpeedRPM:    1000,
		MaxAccelRPMS:   100,
		MinPositionDeg: -3600,
		MaxPositionDeg: 90000,
	}, conf.Limits)

	d := motor.NewDriver(nil, motor.DefaultLimits())
	r := New(d, conf)
	require.Equal(t, *conf.Limits, d.Limits)
	require.Equal(t, []Axis{{Name: "left", Addr: 1}, {Name: "right", Addr: 2}}, r.Axes)
	require.Equal(t, 20*time.Millisecond, r.PollInterval)
}

func TestParseConfigPartialLimits(t *testing.T) {
	testCases := []struct {
		name   string
		yaml   string
		expect *motor.Limits
	}{
		{"absent", "gearbox_ratio: 50\n", nil},
		{"speed only", "limits: {max_speed_rpm: 1000}\n", &motor.Limits{
			MaxSpeedRPM:    1000,
			MaxAccelRPMS:   motor.DefaultMaxAccelRPMS,
			MinPositionDeg: motor.DefaultMinPositionDeg,
			MaxPositionDeg: motor.DefaultMaxPositionDeg,
		}},
		{"reverse travel", "limits:\n  min_position_deg: -3600\n", &motor.Limits{
			MaxSpeedRPM:    motor.DefaultMaxSpeedRPM,
			MaxAccelRPMS:   motor.DefaultMaxAccelRPMS,
			MinPositionDeg: -3600,
			MaxPositionDeg: motor.DefaultMaxPositionDeg,
		}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			conf, err := ParseConfig([]byte(tc.yaml))
			require.NoError(t, err)
			require.Equal(t, tc.expect, conf.Limits)
		})
	}
}

func TestParseConfigInvalid(t *testing.T) {
	testCases := []struct {
		name string
		yaml string
	}{
		{"syntax", "axes: [\n"},
		{"no axes", "axes: []\n"},
		{"broadcast", "axes: [{name: a, addr: 0}]\n"},
		{"unnamed", "axes: [{addr: 1}]\n"},
		{"duplicated name", "axes: [{name: a, addr: 1}, {name: a, addr: 2}]\n"},
		{"duplicated addr", "axes: [{name: a, addr: 1}, {name: b, addr: 1}]\n"},
		{"address overflow", "axes: [{name: a, addr: 256}]\n"},
		{"drum", "drum_circumference_mm: 0\n"},
		{"travel", "travel_mm: -1\n"},
		{"limits", "limits: {max_speed_rpm: 0}\n"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseConfig([]byte(tc.yaml))
			require.Error(t, err)
		})
	}
}

func TestLoadConfig(t *testing.T) {
	f, err := ioutil.TempFile("", "rig-*.yaml")
	require.NoError(t, err)
	defer os.Remove(f.Name())
	_, err = f.WriteString(testConfig)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	conf, err := LoadConfig(f.Name())
	require.NoError(t, err)
	require.Len(t, conf.Axes, 2)

	_, err = LoadConfig(f.Name() + ".missing")
	require.Error(t, err)

	configFile = f.Name()
	defer func() { configFile = "" }()
	conf, err = LoadDefault()
	require.NoError(t, err)
	require.Equal(t, "left", conf.Axes[0].Name)
}

func TestDefaultConfig(t *testing.T) {
	conf := DefaultConfig()
	require.NoError(t, conf.Validate())
	require.Len(t, conf.Axes, 4)
	require.Nil(t, conf.Limits)
}
