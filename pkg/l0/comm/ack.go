package comm

// AckResult classifies an acknowledgment read.
type AckResult int

const (
	// NotAcked means no acknowledgment arrived before the read timeout, or
	// the device answered with a code other than success.
	NotAcked AckResult = iota
	// Acked means a well-formed acknowledgment with a success code.
	Acked
	// AckMalformed means bytes arrived but did not form a valid
	// acknowledgment for the request.
	AckMalformed
)

// String implements fmt.Stringer.
func (r AckResult) String() string {
	switch r {
	case Acked:
		return "acked"
	case AckMalformed:
		return "malformed"
	}
	return "not-acked"
}

// IsAckCode reports whether a status code confirms the command.
// CodeCondition is a warning from the firmware but still an acknowledgment.
func IsAckCode(code byte) bool {
	return code == CodeOK || code == CodeCondition
}

// TryReceiveAck reads a 4-byte acknowledgment for addr/code. Timeouts are
// expected outcomes and only reported through AckResult; err is set only
// for transport failures. The status code is returned when a frame was
// decoded.
func (c *Conn) TryReceiveAck(addr, code byte) (AckResult, byte, error) {
	raw, err := c.ReceiveExact(4)
	if err != nil {
		if IsTimeout(err) {
			return NotAcked, 0, nil
		}
		return NotAcked, 0, err
	}
	f, err := ParseFrame(raw, addr, code)
	if err != nil {
		return AckMalformed, 0, nil
	}
	status := f.Payload[0]
	if IsAckCode(status) {
		return Acked, status, nil
	}
	return NotAcked, status, nil
}
