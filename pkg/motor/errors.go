package motor

import (
	"errors"
	"fmt"
)

// ErrInvalidTarget is returned for moves with NaN fields.
var ErrInvalidTarget = errors.New("invalid target")

// Outcome is the result of a command whose acknowledgment is optional.
type Outcome int

const (
	// Failed means the command did not take effect.
	Failed Outcome = iota
	// Unconfirmed means the device is alive but the command was not
	// acknowledged; it may or may not have been applied.
	Unconfirmed
	// Confirmed means the device acknowledged the command.
	Confirmed
)

// String implements fmt.Stringer.
func (o Outcome) String() string {
	switch o {
	case Confirmed:
		return "confirmed"
	case Unconfirmed:
		return "unconfirmed"
	}
	return "failed"
}

// UnresponsiveError means a command was not acknowledged and the motor
// did not answer a status probe either.
type UnresponsiveError struct {
	Addr byte
	Code byte
}

// Error implements error.
func (e *UnresponsiveError) Error() string {
	return fmt.Sprintf("motor %d did not ack command 0x%02x and is not responding to status; check wiring/power", e.Addr, e.Code)
}

// IsUnresponsive reports whether err is an UnresponsiveError.
func IsUnresponsive(err error) bool {
	var ue *UnresponsiveError
	return errors.As(err, &ue)
}
