// Package wire implements the UFT wire codec: host/network byte order
// conversion, the length-delimited FrameBuffer, and packet framing.
package wire

import "encoding/binary"

// PutUint8 through PutUint64 write x to buf in network (big-endian) byte
// order. They exist alongside encoding/binary's helpers so the width is
// always explicit at the call site, matching the fixed-width fields of the
// UFT packet header and payloads.

func PutUint8(buf []byte, x uint8) {
	buf[0] = x
}

func PutUint16(buf []byte, x uint16) {
	binary.BigEndian.PutUint16(buf, x)
}

func PutUint32(buf []byte, x uint32) {
	binary.BigEndian.PutUint32(buf, x)
}

func PutUint64(buf []byte, x uint64) {
	binary.BigEndian.PutUint64(buf, x)
}

func Uint8(buf []byte) uint8 {
	return buf[0]
}

func Uint16(buf []byte) uint16 {
	return binary.BigEndian.Uint16(buf)
}

func Uint32(buf []byte) uint32 {
	return binary.BigEndian.Uint32(buf)
}

func Uint64(buf []byte) uint64 {
	return binary.BigEndian.Uint64(buf)
}
