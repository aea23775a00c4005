package wire

import "fmt"

// Opcode is one of the six wire opcodes of the UFT protocol. Any other
// value is a fatal protocol error.
type Opcode uint8

const (
	OpGetFileList Opcode = iota
	OpGetFileListResult
	OpTransmitFile
	OpTransmitFileHash
	OpTransmitFileChunk
	OpTransmitFileChunkResult
)

func (op Opcode) String() string {
	switch op {
	case OpGetFileList:
		return "GetFileList"
	case OpGetFileListResult:
		return "GetFileListResult"
	case OpTransmitFile:
		return "TransmitFile"
	case OpTransmitFileHash:
		return "TransmitFileHash"
	case OpTransmitFileChunk:
		return "TransmitFileChunk"
	case OpTransmitFileChunkResult:
		return "TransmitFileChunkResult"
	default:
		return fmt.Sprintf("Opcode(%d)", uint8(op))
	}
}

// Valid reports whether op is one of the six opcodes in the closed set.
func (op Opcode) Valid() bool {
	return op <= OpTransmitFileChunkResult
}

// HeaderSize is the fixed on-wire size of a packet header: one opcode byte
// plus an 8-byte big-endian payload length.
const HeaderSize = 1 + 8

// Header is the fixed header of every UFT packet.
type Header struct {
	Opcode      Opcode
	PayloadSize uint64
}

// EncodeHeader writes h to a HeaderSize-byte slice in wire order.
func EncodeHeader(h Header) []byte {
	buf := make([]byte, HeaderSize)
	PutUint8(buf[0:], uint8(h.Opcode))
	PutUint64(buf[1:], h.PayloadSize)
	return buf
}

// DecodeHeader parses a HeaderSize-byte slice into a Header. It does not
// validate the opcode; callers that require a closed-set opcode should
// check Header.Opcode.Valid().
func DecodeHeader(buf []byte) (Header, error) {
	if len(buf) < HeaderSize {
		return Header{}, fmt.Errorf("wire: short header: %d bytes", len(buf))
	}
	return Header{
		Opcode:      Opcode(Uint8(buf[0:])),
		PayloadSize: Uint64(buf[1:]),
	}, nil
}

// EncodePacket serializes a full frame: header followed by payload, ready
// to be written to the transport in one ordered burst.
func EncodePacket(op Opcode, payload []byte) []byte {
	out := make([]byte, HeaderSize+len(payload))
	PutUint8(out[0:], uint8(op))
	PutUint64(out[1:], uint64(len(payload)))
	copy(out[HeaderSize:], payload)
	return out
}
