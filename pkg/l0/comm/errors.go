package comm

import (
	"errors"
	"fmt"
)

var (
	// ErrPayloadRange indicates a field read beyond the frame payload.
	ErrPayloadRange = errors.New("payload field out of range")
)

// TimeoutError is returned when the read deadline passes before a full
// response is received.
type TimeoutError struct {
	Expected int
	Actual   int
}

// Error implements error.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("read timeout: expected %d bytes, got %d", e.Expected, e.Actual)
}

// Timeout reports true so os.IsTimeout recognizes the error.
func (e *TimeoutError) Timeout() bool {
	return true
}

// MalformedError reports a response whose address, command echo or
// checksum does not match the request.
type MalformedError struct {
	Addr byte
	Code byte
	Raw  []byte
}

// Error implements error.
func (e *MalformedError) Error() string {
	return fmt.Sprintf("malformed response to 0x%02x from motor %d: [% x]", e.Code, e.Addr, e.Raw)
}

// IsTimeout reports whether err is a read timeout from Conn.
func IsTimeout(err error) bool {
	var te *TimeoutError
	return errors.As(err, &te)
}

// IsMalformed reports whether err is a malformed response.
func IsMalformed(err error) bool {
	var me *MalformedError
	return errors.As(err, &me)
}
