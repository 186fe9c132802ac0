// Package telemetry publishes rig state and accepts rig commands over a
// message transport.
package telemetry

import (
	"time"

	"github.com/robotalks/cablebot/pkg/cable"
	"github.com/robotalks/cablebot/pkg/motor"
)

// AxisState is the published state of one axis.
type AxisState struct {
	Name        string        `json:"name"`
	Addr        byte          `json:"addr"`
	Online      bool          `json:"online"`
	PositionDeg float64       `json:"position_deg"`
	PositionMM  float64       `json:"position_mm"`
	Arrived     bool          `json:"arrived"`
	Status      *motor.Status `json:"status,omitempty"`
	Error       string        `json:"error,omitempty"`
}

// RigState is a snapshot of all axes.
type RigState struct {
	Rig    string      `json:"rig"`
	Time   time.Time   `json:"time"`
	Moving bool        `json:"moving"`
	Axes   []AxisState `json:"axes"`
}

// Snapshot converts polled axes.
func Snapshot(rig string, now time.Time, states []cable.AxisState) *RigState {
	s := &RigState{Rig: rig, Time: now.UTC(), Axes: make([]AxisState, len(states))}
	for n := range states {
		src, dst := &states[n], &s.Axes[n]
		dst.Name, dst.Addr = src.Name, src.Addr
		if src.Err != nil {
			dst.Error = src.Err.Error()
			continue
		}
		status := src.Status
		dst.Online = true
		dst.PositionDeg = src.PositionDeg
		dst.PositionMM = src.PositionMM
		dst.Arrived = src.Arrived()
		dst.Status = &status
		s.Moving = s.Moving || !dst.Arrived
	}
	return s
}

// Event reports the result of a command or a completed move.
type Event struct {
	Rig      string    `json:"rig"`
	Time     time.Time `json:"time"`
	Event    string    `json:"event"`
	Duration float64   `json:"duration,omitempty"`
	Error    string    `json:"error,omitempty"`
}

// Event names.
const (
	EventSyncStarted = "sync-started"
	EventArrived     = "arrived"
	EventEnabled     = "enabled"
	EventDisabled    = "disabled"
	EventZeroed      = "zeroed"
	EventRejected    = "rejected"
)
