package sh

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/cablebot/pkg/cable"
	"github.com/robotalks/cablebot/pkg/motor"
	"github.com/robotalks/cablebot/pkg/sim"
)

// Shell provides ishell backed interactive shell.
type Shell struct {
	Interactive bool
	OutputJSON  bool
	Simulate    bool

	Shell       *ishell.Shell
	MotorConfig *motor.Config
	RigConfig   *cable.Config
	Rig         *cable.Rig
}

const (
	shellKey     = "$shell"
	closedPrompt = "[closed] > "
)

var (
	// flags

	evalOnly   bool
	outputJSON bool
	simulate   bool

	// commands
	commands = []*ishell.Cmd{
		&OpenCmd,
		&CloseCmd,
	}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
	flag.BoolVar(&simulate, "sim", simulate, "Use simulated motors instead of the serial port.")
}

// AddCmds is used by other commands providers during init func.
func AddCmds(cmds ...*ishell.Cmd) {
	commands = append(commands, cmds...)
}

// New creates a new shell.
func New(motorConf *motor.Config, rigConf *cable.Config) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,
		Simulate:    simulate,

		Shell:       ishell.New(),
		MotorConfig: motorConf,
		RigConfig:   rigConf,
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(closedPrompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// Open opens the bus, or a simulated one.
func (s *Shell) Open() error {
	if s.Rig != nil {
		return nil
	}
	var d *motor.Driver
	if s.Simulate {
		addrs := make([]byte, len(s.RigConfig.Axes))
		for n, axis := range s.RigConfig.Axes {
			addrs[n] = axis.Addr
		}
		d = motor.NewDriver(sim.NewBus(addrs...), s.MotorConfig.Limits)
		d.Conn.Turnaround = 0
	} else {
		var err error
		if d, err = s.MotorConfig.Open(); err != nil {
			return err
		}
	}
	s.Rig = cable.New(d, s.RigConfig)
	if s.Simulate {
		s.Shell.SetPrompt("[sim] > ")
	} else {
		s.Shell.SetPrompt(fmt.Sprintf("[%s] > ", s.MotorConfig.Device))
	}
	return nil
}

// Close releases the bus.
func (s *Shell) Close() error {
	if s.Rig == nil {
		return nil
	}
	err := s.Rig.Driver.Close()
	s.Rig = nil
	s.Shell.SetPrompt(closedPrompt)
	return err
}

// WithRig wraps command func requiring an open bus; the bus is opened
// on demand.
func WithRig(fn func(c *ishell.Context, r *cable.Rig)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		s := ShellFrom(c)
		if err := s.Open(); err != nil {
			c.Err(err)
			return
		}
		fn(c, s.Rig)
	}
}

// Output prints v as JSON in JSON mode, otherwise text.
func Output(c *ishell.Context, v interface{}, text string) {
	if ShellFrom(c).OutputJSON {
		out, err := json.Marshal(v)
		if err != nil {
			c.Err(err)
			return
		}
		c.Println(string(out))
		return
	}
	c.Println(text)
}

// ParseAxes resolves axis arguments by name or address. No arguments or
// "all" selects every configured axis. Addresses not in the config are
// accepted with the address as name.
func ParseAxes(r *cable.Rig, args []string) ([]cable.Axis, error) {
	if len(args) == 0 || len(args) == 1 && args[0] == "all" {
		return r.Axes, nil
	}
	axes := make([]cable.Axis, 0, len(args))
	for _, arg := range args {
		if axis, ok := r.Axis(arg); ok {
			axes = append(axes, axis)
			continue
		}
		addr, err := strconv.ParseUint(arg, 0, 8)
		if err != nil || addr == 0 {
			return nil, fmt.Errorf("unknown axis %q", arg)
		}
		axes = append(axes, cable.Axis{Name: arg, Addr: byte(addr)})
	}
	return axes, nil
}

// ParseFloats parses all arguments as numbers; names label errors.
func ParseFloats(args []string, names ...string) ([]float64, error) {
	vals := make([]float64, len(args))
	for n, arg := range args {
		val, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			name := "value"
			if n < len(names) {
				name = names[n]
			}
			return nil, fmt.Errorf("invalid %s %q", name, arg)
		}
		vals[n] = val
	}
	return vals, nil
}

// FormatStates renders polled axes on one line.
func FormatStates(states []cable.AxisState) string {
	parts := make([]string, len(states))
	for n, st := range states {
		switch {
		case st.Err != nil:
			parts[n] = fmt.Sprintf("%s=offline", st.Name)
		case st.Arrived():
			parts[n] = fmt.Sprintf("%s=%8.1f stopped", st.Name, st.PositionMM)
		default:
			parts[n] = fmt.Sprintf("%s=%8.1f moving", st.Name, st.PositionMM)
		}
	}
	return strings.Join(parts, " | ")
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	defer s.Close()
	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			log.Fatalln(err)
		}
		return
	}
	if s.Interactive {
		s.Shell.Run()
		return
	}
	log.Fatalln("command expected")
}

var (
	// OpenCmd opens the bus.
	OpenCmd = ishell.Cmd{
		Name:    "open",
		Aliases: []string{"o"},
		Help:    "open the serial port",
		Func: func(c *ishell.Context) {
			if err := ShellFrom(c).Open(); err != nil {
				c.Err(err)
			}
		},
	}

	// CloseCmd releases the bus.
	CloseCmd = ishell.Cmd{
		Name: "close",
		Help: "release the serial port",
		Func: func(c *ishell.Context) {
			if err := ShellFrom(c).Close(); err != nil {
				c.Err(err)
			}
		},
	}
)

// Main is a helper to provide a single call in main.
func Main() {
	flag.Parse()
	New(motor.Default(), cable.MustLoad()).Run(flag.Args()...)
}
