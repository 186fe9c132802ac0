// Package all registers all shell commands.
package all

import (
	// commands
	_ "github.com/robotalks/cablebot/pkg/cli/cmds/axis"
	_ "github.com/robotalks/cablebot/pkg/cli/cmds/rig"
)
