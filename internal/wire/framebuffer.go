package wire

import "fmt"

// FrameBuffer is a fixed-capacity byte buffer with independent read and
// write cursors. It never reallocates: capacity must be sized up front to
// fit the frame being built or parsed. This mirrors the ByteBuffer type in
// the original UFT reference (original_source/UFT/ByteBuffer.hpp) and the
// teacher's header+payload byte slices, generalized into a single typed
// primitive so opcode handlers never hand-roll offset arithmetic.
type FrameBuffer struct {
	buf   []byte
	wrote int
	read  int
}

// NewFrameBuffer allocates a buffer with the given byte capacity. Both
// cursors start at zero.
func NewFrameBuffer(capacity int) *FrameBuffer {
	return &FrameBuffer{buf: make([]byte, capacity)}
}

// FrameBufferFromBytes wraps an existing byte slice for reading: the write
// cursor is placed at the end (the buffer is fully "written"), the read
// cursor at the start.
func FrameBufferFromBytes(b []byte) *FrameBuffer {
	return &FrameBuffer{buf: b, wrote: len(b)}
}

func (f *FrameBuffer) Capacity() int { return len(f.buf) }

// Len returns the number of bytes written so far (the readable extent).
func (f *FrameBuffer) Len() int { return f.wrote }

// Bytes returns the written extent of the buffer.
func (f *FrameBuffer) Bytes() []byte { return f.buf[:f.wrote] }

// SetWriteCursor clamps n to [0, capacity] and moves the write cursor there.
func (f *FrameBuffer) SetWriteCursor(n int) {
	if n < 0 {
		n = 0
	}
	if n > len(f.buf) {
		n = len(f.buf)
	}
	f.wrote = n
}

// SetReadCursor clamps n to [0, Len()] and moves the read cursor there.
func (f *FrameBuffer) SetReadCursor(n int) {
	if n < 0 {
		n = 0
	}
	if n > f.wrote {
		n = f.wrote
	}
	f.read = n
}

func (f *FrameBuffer) ReadCursor() int { return f.read }

var errOverflow = fmt.Errorf("wire: frame buffer write would exceed capacity")
var errShortRead = fmt.Errorf("wire: frame buffer read past written extent")

func (f *FrameBuffer) ensureWriteRoom(n int) error {
	if f.wrote+n > len(f.buf) {
		return errOverflow
	}
	return nil
}

// WriteRaw appends n raw bytes, failing if it would exceed capacity.
func (f *FrameBuffer) WriteRaw(p []byte) error {
	if err := f.ensureWriteRoom(len(p)); err != nil {
		return err
	}
	copy(f.buf[f.wrote:], p)
	f.wrote += len(p)
	return nil
}

// ReadRaw reads exactly len(dst) bytes into dst, leaving the read cursor
// undisturbed on short read.
func (f *FrameBuffer) ReadRaw(dst []byte) error {
	if f.read+len(dst) > f.wrote {
		return errShortRead
	}
	copy(dst, f.buf[f.read:f.read+len(dst)])
	f.read += len(dst)
	return nil
}

func (f *FrameBuffer) WriteUint8(x uint8) error {
	if err := f.ensureWriteRoom(1); err != nil {
		return err
	}
	PutUint8(f.buf[f.wrote:], x)
	f.wrote++
	return nil
}

func (f *FrameBuffer) WriteUint16(x uint16) error {
	if err := f.ensureWriteRoom(2); err != nil {
		return err
	}
	PutUint16(f.buf[f.wrote:], x)
	f.wrote += 2
	return nil
}

func (f *FrameBuffer) WriteUint32(x uint32) error {
	if err := f.ensureWriteRoom(4); err != nil {
		return err
	}
	PutUint32(f.buf[f.wrote:], x)
	f.wrote += 4
	return nil
}

func (f *FrameBuffer) WriteUint64(x uint64) error {
	if err := f.ensureWriteRoom(8); err != nil {
		return err
	}
	PutUint64(f.buf[f.wrote:], x)
	f.wrote += 8
	return nil
}

func (f *FrameBuffer) WriteBool(b bool) error {
	if b {
		return f.WriteUint8(1)
	}
	return f.WriteUint8(0)
}

func (f *FrameBuffer) ReadUint8() (uint8, error) {
	if f.read+1 > f.wrote {
		return 0, errShortRead
	}
	x := Uint8(f.buf[f.read:])
	f.read++
	return x, nil
}

func (f *FrameBuffer) ReadUint16() (uint16, error) {
	if f.read+2 > f.wrote {
		return 0, errShortRead
	}
	x := Uint16(f.buf[f.read:])
	f.read += 2
	return x, nil
}

func (f *FrameBuffer) ReadUint32() (uint32, error) {
	if f.read+4 > f.wrote {
		return 0, errShortRead
	}
	x := Uint32(f.buf[f.read:])
	f.read += 4
	return x, nil
}

func (f *FrameBuffer) ReadUint64() (uint64, error) {
	if f.read+8 > f.wrote {
		return 0, errShortRead
	}
	x := Uint64(f.buf[f.read:])
	f.read += 8
	return x, nil
}

// ReadBool accepts any non-zero byte as true, per spec.
func (f *FrameBuffer) ReadBool() (bool, error) {
	x, err := f.ReadUint8()
	if err != nil {
		return false, err
	}
	return x != 0, nil
}

// WriteString8 writes a single-byte length prefix followed by the raw
// bytes of s. s must be at most 255 bytes; callers are expected to reject
// longer paths before calling (spec.md §9, "Path length").
func (f *FrameBuffer) WriteString8(s string) error {
	if len(s) > 0xFF {
		return fmt.Errorf("wire: string of length %d exceeds String8 limit of 255", len(s))
	}
	mark := f.wrote
	if err := f.WriteUint8(uint8(len(s))); err != nil {
		return err
	}
	if err := f.WriteRaw([]byte(s)); err != nil {
		f.wrote = mark
		return err
	}
	return nil
}

// ReadString8 reads a single-byte length prefix followed by that many raw
// bytes. On short read it rewinds the read cursor back to where it started.
func (f *FrameBuffer) ReadString8() (string, error) {
	mark := f.read
	n, err := f.ReadUint8()
	if err != nil {
		f.read = mark
		return "", err
	}
	buf := make([]byte, n)
	if err := f.ReadRaw(buf); err != nil {
		f.read = mark
		return "", err
	}
	return string(buf), nil
}
