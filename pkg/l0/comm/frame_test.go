package comm

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFrame(t *testing.T) {
	testCases := []struct {
		name   string
		frame  *Frame
		expect []byte
	}{
		{"status query", NewFrame(1, CmdReadStatus), []byte{1, 0x3a, 0x6b}},
		{"read position", NewFrame(0xff, CmdReadPosition), []byte{0xff, 0x36, 0x6b}},
		{"clear position", NewFrame(2, CmdClearPosition).Byte(SubClearPosition), []byte{2, 0x0a, 0x6d, 0x6b}},
		{"enable", NewFrame(3, CmdEnable).Byte(SubEnable, 1, 0), []byte{3, 0xf3, 0xab, 1, 0, 0x6b}},
		{
			"move",
			NewFrame(1, CmdPositionMove).Byte(0).Uint16(100).Uint16(100).Uint16(10000).Uint32(36000).Byte(1, 0),
			[]byte{1, 0xfd, 0, 0, 0x64, 0, 0x64, 0x27, 0x10, 0, 0, 0x8c, 0xa0, 1, 0, 0x6b},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			b := tc.frame.Bytes()
			require.Equal(t, tc.expect, b)
			require.Equal(t, len(tc.expect), tc.frame.Len())
			require.Equal(t, Checksum, b[len(b)-1])
			require.Equal(t, tc.frame.Addr, b[0])
			require.Equal(t, tc.frame.Code, b[1])

			var buf bytes.Buffer
			n, err := tc.frame.WriteTo(&buf)
			require.NoError(t, err)
			require.Equal(t, tc.expect, buf.Bytes())
			require.Equal(t, int64(len(tc.expect)), n)

			parsed, err := ParseFrame(b, tc.frame.Addr, tc.frame.Code)
			require.NoError(t, err)
			require.Equal(t, tc.frame.Addr, parsed.Addr)
			require.Equal(t, tc.frame.Code, parsed.Code)
			if len(tc.frame.Payload) == 0 {
				require.Empty(t, parsed.Payload)
			} else {
				require.Equal(t, tc.frame.Payload, parsed.Payload)
			}
		})
	}
}

func TestFrameFields(t *testing.T) {
	f := NewFrame(1, CmdPositionMove).Byte(1).Uint16(0xbeef).Uint32(0x01020304)
	b, err := f.ByteAt(0)
	require.NoError(t, err)
	require.Equal(t, byte(1), b)
	u16, err := f.Uint16At(1)
	require.NoError(t, err)
	require.Equal(t, uint16(0xbeef), u16)
	u32, err := f.Uint32At(3)
	require.NoError(t, err)
	require.Equal(t, uint32(0x01020304), u32)

	_, err = f.ByteAt(7)
	require.Equal(t, ErrPayloadRange, err)
	_, err = f.Uint16At(6)
	require.Equal(t, ErrPayloadRange, err)
	_, err = f.Uint32At(4)
	require.Equal(t, ErrPayloadRange, err)
	_, err = f.Uint32At(-1)
	require.Equal(t, ErrPayloadRange, err)
}
