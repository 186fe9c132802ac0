package main

//go-build: CGO_ENABLED=0

import (
	"flag"

	"github.com/golang/glog"

	"github.com/robotalks/cablebot/pkg/cable"
	fx "github.com/robotalks/cablebot/pkg/framework"
	"github.com/robotalks/cablebot/pkg/motor"
	"github.com/robotalks/cablebot/pkg/sim"
	"github.com/robotalks/cablebot/pkg/telemetry"
	"github.com/robotalks/cablebot/pkg/telemetry/mqtt"
)

var simulate bool

func init() {
	motor.SetupFlags()
	cable.SetupFlags()
	telemetry.SetupFlags()
	flag.BoolVar(&simulate, "sim", simulate, "Use simulated motors instead of the serial port.")
}

func openDriver(conf *cable.Config) *motor.Driver {
	motorConf := motor.NewConfig()
	if !simulate {
		return motorConf.MustOpen()
	}
	addrs := make([]byte, len(conf.Axes))
	for n, axis := range conf.Axes {
		addrs[n] = axis.Addr
	}
	d := motor.NewDriver(sim.NewBus(addrs...), motorConf.Limits)
	d.Conn.Turnaround = 0
	return d
}

func main() {
	flag.Parse()
	defer glog.Flush()

	conf := telemetry.NewConfig()
	if conf.BrokerURL == "" {
		glog.Exit("MQTT broker URL is required, use -mqtt or CABLEBOT_MQTT")
	}
	encoder, err := telemetry.EncoderByName(conf.Encoding)
	if err != nil {
		glog.Exit(err)
	}
	queue, err := mqtt.NewQueueFromURL(conf.BrokerURL)
	if err != nil {
		glog.Exit(err)
	}

	rigConf := cable.MustLoad()
	rig := cable.New(openDriver(rigConf), rigConf)
	defer rig.Driver.Close()
	if err := rig.Enable(true); err != nil {
		glog.Warningf("enable: %v", err)
	}

	svc := &telemetry.Service{
		Rig:       rig,
		Transport: queue,
		Encoder:   encoder,
		RigID:     conf.ID(),
		Interval:  conf.Interval,
	}
	glog.Infof("rig %s publishing to %s", svc.RigID, conf.BrokerURL)
	loop := fx.NewLoop().
		Add(svc).
		AddRunnable(fx.NamedRun("mqtt", fx.RunFunc(queue.Run)))
	if err := fx.NewRunner().HandleSignals().Go(fx.NamedRun("loop", loop)).Wait(); err != nil {
		glog.Error(err)
	}
}
