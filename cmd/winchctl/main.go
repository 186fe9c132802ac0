package main

import (
	"github.com/robotalks/cablebot/pkg/cable"
	"github.com/robotalks/cablebot/pkg/cli/sh"
	"github.com/robotalks/cablebot/pkg/motor"

	_ "github.com/robotalks/cablebot/pkg/cli/cmds/all"
)

//go-build: CGO_ENABLED=0

func init() {
	motor.SetupFlags()
	cable.SetupFlags()
}

func main() {
	sh.Main()
}
