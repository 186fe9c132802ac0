package comm

import (
	"encoding/binary"
	"io"
)

// Checksum is the fixed trailing byte of every frame.
const Checksum byte = 0x6B

// Command codes.
const (
	CmdClearPosition  byte = 0x0A
	CmdReadBusVoltage byte = 0x24
	CmdReadPosition   byte = 0x36
	CmdReadStatus     byte = 0x3A
	CmdEnable         byte = 0xF3
	CmdPositionMove   byte = 0xFD
)

// Sub-codes carried as the first payload byte.
const (
	SubEnable        byte = 0xAB
	SubClearPosition byte = 0x6D
)

// Status codes returned in acknowledgments.
const (
	CodeOK        byte = 0x02
	CodeCondition byte = 0x9F
	CodeRejected  byte = 0xE2
	CodeError     byte = 0xEE
)

// Frame contains the information of a request or response.
type Frame struct {
	Addr    byte
	Code    byte
	Payload []byte
}

// NewFrame creates a frame with an empty payload.
func NewFrame(addr, code byte) *Frame {
	return &Frame{Addr: addr, Code: code}
}

// Byte appends raw bytes to the payload.
func (f *Frame) Byte(bs ...byte) *Frame {
	f.Payload = append(f.Payload, bs...)
	return f
}

// Uint16 appends a big-endian 16-bit field.
func (f *Frame) Uint16(v uint16) *Frame {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	f.Payload = append(f.Payload, b[:]...)
	return f
}

// Uint32 appends a big-endian 32-bit field.
func (f *Frame) Uint32(v uint32) *Frame {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	f.Payload = append(f.Payload, b[:]...)
	return f
}

// Len is the encoded length.
func (f *Frame) Len() int {
	return len(f.Payload) + 3
}

// Bytes returns encoded bytes for sending.
func (f *Frame) Bytes() []byte {
	b := make([]byte, f.Len())
	b[0], b[1] = f.Addr, f.Code
	copy(b[2:], f.Payload)
	b[len(b)-1] = Checksum
	return b
}

// WriteTo writes encoded bytes in a single Write call.
func (f *Frame) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(f.Bytes())
	return int64(n), err
}

// ByteAt reads a payload byte.
func (f *Frame) ByteAt(off int) (byte, error) {
	if off < 0 || off >= len(f.Payload) {
		return 0, ErrPayloadRange
	}
	return f.Payload[off], nil
}

// Uint16At reads a big-endian 16-bit payload field.
func (f *Frame) Uint16At(off int) (uint16, error) {
	if off < 0 || off+2 > len(f.Payload) {
		return 0, ErrPayloadRange
	}
	return binary.BigEndian.Uint16(f.Payload[off:]), nil
}

// Uint32At reads a big-endian 32-bit payload field.
func (f *Frame) Uint32At(off int) (uint32, error) {
	if off < 0 || off+4 > len(f.Payload) {
		return 0, ErrPayloadRange
	}
	return binary.BigEndian.Uint32(f.Payload[off:]), nil
}
