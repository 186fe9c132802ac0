package comm

// ParseFrame validates a raw response against the request it answers
// and splits it into a Frame.
func ParseFrame(raw []byte, addr, code byte) (*Frame, error) {
	if len(raw) < 3 {
		return nil, &MalformedError{Addr: addr, Code: code, Raw: raw}
	}
	if raw[0] != addr || raw[1] != code || raw[len(raw)-1] != Checksum {
		return nil, &MalformedError{Addr: addr, Code: code, Raw: raw}
	}
	payload := make([]byte, len(raw)-3)
	copy(payload, raw[2:len(raw)-1])
	return &Frame{Addr: addr, Code: code, Payload: payload}, nil
}

// ResponseLen returns the fixed response length for a command code, or
// 0 if the command has no fixed-size response.
func ResponseLen(code byte) int {
	switch code {
	case CmdReadPosition:
		return 8
	case CmdReadBusVoltage:
		return 5
	case CmdReadStatus, CmdClearPosition, CmdEnable, CmdPositionMove:
		return 4
	}
	return 0
}

// RequestLen returns the fixed request length for a command code, or 0
// for unknown codes.
func RequestLen(code byte) int {
	switch code {
	case CmdReadStatus, CmdReadPosition, CmdReadBusVoltage:
		return 3
	case CmdClearPosition:
		return 4
	case CmdEnable:
		return 6
	case CmdPositionMove:
		return 16
	}
	return 0
}
