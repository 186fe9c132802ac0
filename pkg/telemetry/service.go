package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/cablebot/pkg/cable"
	fx "github.com/robotalks/cablebot/pkg/framework"
)

// Transport publishes and subscribes topics, e.g. mqtt.Queue.
type Transport interface {
	Publish(topic string, payload []byte, retain bool) error
	Subscribe(pattern string, handler func(topic string, payload []byte)) (func() error, error)
}

// Topic names under the rig ID.
const (
	TopicState   = "state"
	TopicEvent   = "event"
	TopicCommand = "cmd"
)

// SyncCommand moves all axes to cable lengths in config order, finishing
// together. Zero speed or acceleration uses the rig defaults.
type SyncCommand struct {
	TargetsMM []float64 `json:"targets_mm"`
	SpeedRPM  float64   `json:"speed_rpm,omitempty"`
	AccelRPMS float64   `json:"accel_rpms,omitempty"`
}

// EnableCommand locks or releases all axes.
type EnableCommand struct {
	On bool `json:"on"`
}

// ZeroCommand clears the position of all axes.
type ZeroCommand struct{}

// DecodeCommand decodes the payload of cmd/<name>.
func DecodeCommand(name string, payload []byte) (fx.Message, error) {
	var cmd fx.Message
	switch name {
	case "sync":
		cmd = &SyncCommand{}
	case "enable":
		cmd = &EnableCommand{}
	case "zero":
		return &ZeroCommand{}, nil
	default:
		return nil, fmt.Errorf("unknown command %q", name)
	}
	if err := json.Unmarshal(payload, cmd); err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}
	return cmd, nil
}

// Service polls the rig from the control loop, publishes its state and
// executes commands received from the transport. Only the loop goroutine
// touches the rig.
type Service struct {
	Rig       *cable.Rig
	Transport Transport
	Encoder   Encoder
	RigID     string
	// Interval between state publications while idle. Moving rigs are
	// polled on every iteration.
	Interval time.Duration

	loop     fx.LoopControl
	lastPoll time.Time
	moving   bool
	state    *RigState
}

// DefaultInterval is the idle publish interval.
const DefaultInterval = time.Second

// AddToLoop implements LoopAdder.
func (s *Service) AddToLoop(l *fx.Loop) {
	s.loop = l
	l.AddController(fx.PrLvSense, fx.ControlFunc(s.Poll))
	l.AddController(fx.PrLvControl, fx.ControlFunc(s.HandleCommands))
	l.AddController(fx.PrLvPostProc, fx.ControlFunc(s.PublishState))
	l.AddRunnable(fx.NamedRun("telemetry", fx.RunFunc(s.Run)))
}

func (s *Service) topic(elem ...string) string {
	return path.Join(append([]string{s.RigID}, elem...)...)
}

func (s *Service) encoder() Encoder {
	if s.Encoder != nil {
		return s.Encoder
	}
	return JSONEncoder{}
}

// Run subscribes commands until ctx is done.
func (s *Service) Run(ctx context.Context) error {
	unsub, err := s.Transport.Subscribe(s.topic(TopicCommand, "+"), s.receive)
	if err != nil {
		return err
	}
	<-ctx.Done()
	unsub()
	return ctx.Err()
}

func (s *Service) receive(topic string, payload []byte) {
	cmd, err := DecodeCommand(path.Base(topic), payload)
	if err != nil {
		glog.Warningf("command %s: %v", topic, err)
		s.publishEvent(time.Now(), &Event{Event: EventRejected, Error: err.Error()})
		return
	}
	s.loop.PostMessage(cmd)
	s.loop.TriggerNext()
}

// Poll reads the rig when due.
func (s *Service) Poll(cc fx.ControlContext) error {
	interval := s.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	now := cc.Time()
	if !s.moving && now.Sub(s.lastPoll) < interval {
		return nil
	}
	s.lastPoll = now
	states, err := s.Rig.Poll()
	if err != nil {
		glog.V(1).Infof("poll: %v", err)
	}
	s.state = Snapshot(s.RigID, now, states)
	if !s.moving {
		return nil
	}
	// an axis failing to read may still be moving.
	if !allArrived(states) {
		s.state.Moving = true
		return nil
	}
	s.moving = false
	s.publishEvent(now, &Event{Event: EventArrived})
	return nil
}

func allArrived(states []cable.AxisState) bool {
	for n := range states {
		if !states[n].Arrived() {
			return false
		}
	}
	return true
}

// HandleCommands executes commands posted to the loop.
func (s *Service) HandleCommands(cc fx.ControlContext) error {
	cc.ProcessMessages(func(msg fx.Message) bool {
		switch cmd := msg.(type) {
		case *SyncCommand:
			s.sync(cc, cmd)
		case *EnableCommand:
			ev := &Event{Event: EventDisabled}
			if cmd.On {
				ev.Event = EventEnabled
			}
			s.done(cc, ev, s.Rig.Enable(cmd.On))
		case *ZeroCommand:
			s.done(cc, &Event{Event: EventZeroed}, s.Rig.Zero())
		default:
			return false
		}
		return true
	})
	return nil
}

func (s *Service) sync(cc fx.ControlContext, cmd *SyncCommand) {
	fast := s.Rig.Fast
	if cmd.SpeedRPM > 0 {
		fast.SpeedRPM = cmd.SpeedRPM
	}
	if cmd.AccelRPMS > 0 {
		fast.AccelRPMS = cmd.AccelRPMS
	}
	plan, err := s.Rig.SyncMove(cmd.TargetsMM, fast)
	if len(plan.Axes) > 0 {
		s.moving = true
		cc.TriggerNext()
	}
	s.done(cc, &Event{Event: EventSyncStarted, Duration: plan.Duration}, err)
}

func (s *Service) done(cc fx.ControlContext, ev *Event, err error) {
	if err != nil {
		glog.Errorf("%s: %v", ev.Event, err)
		ev.Error = err.Error()
	}
	s.publishEvent(cc.Time(), ev)
}

func (s *Service) publishEvent(now time.Time, ev *Event) {
	ev.Rig, ev.Time = s.RigID, now.UTC()
	s.publish(s.topic(TopicEvent), ev, false)
}

// PublishState publishes the latest polled state.
func (s *Service) PublishState(cc fx.ControlContext) error {
	if st := s.state; st != nil {
		s.state = nil
		return s.publish(s.topic(TopicState), st, true)
	}
	return nil
}

func (s *Service) publish(topic string, v interface{}, retain bool) error {
	payload, err := s.encoder().Encode(v)
	if err == nil {
		err = s.Transport.Publish(topic, payload, retain)
	}
	if err != nil {
		glog.Errorf("publish %s: %v", topic, err)
	}
	return err
}
