package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBitCodecRoundTrip(t *testing.T) {
	buf32 := make([]byte, 4)
	PutUint32(buf32, 0x01020304)
	assert.Equal(t, []byte{0x01, 0x02, 0x03, 0x04}, buf32)
	assert.Equal(t, uint32(0x01020304), Uint32(buf32))

	buf64 := make([]byte, 8)
	PutUint64(buf64, 0x0102030405060708)
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 8}, buf64)
	assert.Equal(t, uint64(0x0102030405060708), Uint64(buf64))
}

func TestFrameBufferPrimitiveRoundTrip(t *testing.T) {
	fb := NewFrameBuffer(64)
	require.NoError(t, fb.WriteUint8(7))
	require.NoError(t, fb.WriteUint16(300))
	require.NoError(t, fb.WriteUint32(70000))
	require.NoError(t, fb.WriteUint64(1 << 40))
	require.NoError(t, fb.WriteBool(true))

	u8, err := fb.ReadUint8()
	require.NoError(t, err)
	assert.EqualValues(t, 7, u8)

	u16, err := fb.ReadUint16()
	require.NoError(t, err)
	assert.EqualValues(t, 300, u16)

	u32, err := fb.ReadUint32()
	require.NoError(t, err)
	assert.EqualValues(t, 70000, u32)

	u64, err := fb.ReadUint64()
	require.NoError(t, err)
	assert.EqualValues(t, 1<<40, u64)

	b, err := fb.ReadBool()
	require.NoError(t, err)
	assert.True(t, b)
}

func TestFrameBufferString8RoundTrip(t *testing.T) {
	fb := NewFrameBuffer(32)
	require.NoError(t, fb.WriteString8("hello"))
	s, err := fb.ReadString8()
	require.NoError(t, err)
	assert.Equal(t, "hello", s)
}

func TestFrameBufferString8RewindsOnShortRead(t *testing.T) {
	fb := FrameBufferFromBytes([]byte{5, 'h', 'i'}) // declares 5 bytes, only 2 present
	before := fb.ReadCursor()
	_, err := fb.ReadString8()
	assert.Error(t, err)
	assert.Equal(t, before, fb.ReadCursor())
}

func TestFrameBufferNeverReallocates(t *testing.T) {
	fb := NewFrameBuffer(4)
	require.NoError(t, fb.WriteRaw([]byte{1, 2, 3, 4}))
	err := fb.WriteUint8(5)
	assert.Error(t, err)
	assert.Equal(t, 4, fb.Capacity())
}

func TestFrameBufferCursorInvariant(t *testing.T) {
	fb := NewFrameBuffer(16)
	require.NoError(t, fb.WriteRaw([]byte{1, 2, 3, 4}))
	fb.SetReadCursor(2)
	assert.Equal(t, 2, fb.ReadCursor())
	fb.SetReadCursor(1000) // clamps to Len()
	assert.Equal(t, fb.Len(), fb.ReadCursor())
	fb.SetWriteCursor(1000) // clamps to capacity
	assert.Equal(t, fb.Capacity(), fb.Len())
}

func TestPacketRoundTrip(t *testing.T) {
	payload := []byte("ABCDEFGHIJ")
	encoded := EncodePacket(OpTransmitFileChunk, payload)

	hdr, err := DecodeHeader(encoded[:HeaderSize])
	require.NoError(t, err)
	assert.Equal(t, OpTransmitFileChunk, hdr.Opcode)
	assert.EqualValues(t, len(payload), hdr.PayloadSize)
	assert.Equal(t, payload, encoded[HeaderSize:])
}

func TestOpcodeValidity(t *testing.T) {
	assert.True(t, OpGetFileList.Valid())
	assert.True(t, OpTransmitFileChunkResult.Valid())
	assert.False(t, Opcode(6).Valid())
	assert.False(t, Opcode(255).Valid())
}
