package telemetry

import (
	"os"

	"github.com/denisbrodbeck/machineid"
	"github.com/golang/glog"
)

const rigIDLen = 12

// MachineRigID derives a stable rig ID from the machine ID, hashed for
// this application so the raw ID is never published. It falls back to
// the host name.
func MachineRigID() string {
	id, err := machineid.ProtectedID("cablebot")
	if err != nil {
		glog.Warningf("machine id: %v", err)
		host, _ := os.Hostname()
		if host == "" {
			return "cablebot"
		}
		return host
	}
	if len(id) > rigIDLen {
		id = id[:rigIDLen]
	}
	return id
}
