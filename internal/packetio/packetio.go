// Package packetio wraps a transport.Conn with the UFT packet framing and
// the single I/O mutex that original_source/UFT/UFTSocket.cpp
// (UFTSocket_IOLockGuard) holds for the duration of one high-level
// operation, so a send and its matching receive can never interleave with
// another goroutine's traffic on the same connection.
package packetio

import (
	"fmt"
	"sync"

	"github.com/snajudev/uft/internal/transport"
	"github.com/snajudev/uft/internal/wire"
)

// MaxPayloadSize bounds PayloadSize on an incoming header. It exists so a
// corrupted or hostile header cannot make ReceiveNextPacket allocate an
// unbounded buffer; it is sized well above the largest legitimate payload
// (a compressed chunk of up to 2x chunkcodec.ChunkSize plus its envelope).
const MaxPayloadSize = 32 * 1024 * 1024

// ErrProtocol is returned for any framing violation: an unknown opcode, an
// oversized payload, or (from ReceiveExpectedPacket) an opcode mismatch.
// Per spec.md §7 this is always fatal to the connection.
type ErrProtocol struct {
	Reason string
}

func (e *ErrProtocol) Error() string { return "packetio: protocol error: " + e.Reason }

// PacketIO sends and receives whole packets over a transport.Conn.
type PacketIO struct {
	conn transport.Conn
	mu   sync.Mutex
}

// New wraps conn. conn is not dialed or accepted by PacketIO; callers
// supply an already-connected transport.Conn.
func New(conn transport.Conn) *PacketIO {
	return &PacketIO{conn: conn}
}

// Lock acquires the I/O mutex for the duration of one high-level Session
// operation (e.g. the whole of SendFile), matching the scope of the
// original's IOLockGuard. Callers must call Unlock when the operation
// completes.
func (p *PacketIO) Lock()   { p.mu.Lock() }
func (p *PacketIO) Unlock() { p.mu.Unlock() }

// SendPacket writes a full packet: header followed by payload. Caller must
// hold the I/O lock.
func (p *PacketIO) SendPacket(op wire.Opcode, payload []byte) error {
	return p.conn.SendAll(wire.EncodePacket(op, payload))
}

// ReceiveNextPacket reads one complete packet. If block is false it uses
// the transport's TryReceiveAll semantics on the header: if no header byte
// has arrived at all, it returns transport.ErrWouldBlock without having
// consumed anything; once the header starts arriving it blocks to
// completion for the header and the full payload. Caller must hold the
// I/O lock.
func (p *PacketIO) ReceiveNextPacket(block bool) (wire.Header, []byte, error) {
	hdrBuf := make([]byte, wire.HeaderSize)
	var err error
	if block {
		err = p.conn.ReceiveAll(hdrBuf)
	} else {
		err = p.conn.TryReceiveAll(hdrBuf)
	}
	if err != nil {
		return wire.Header{}, nil, err
	}

	hdr, err := wire.DecodeHeader(hdrBuf)
	if err != nil {
		return wire.Header{}, nil, &ErrProtocol{Reason: err.Error()}
	}
	if !hdr.Opcode.Valid() {
		return wire.Header{}, nil, &ErrProtocol{Reason: fmt.Sprintf("unknown opcode %d", hdr.Opcode)}
	}
	if hdr.PayloadSize > MaxPayloadSize {
		return wire.Header{}, nil, &ErrProtocol{Reason: fmt.Sprintf("payload size %d exceeds limit %d", hdr.PayloadSize, MaxPayloadSize)}
	}

	payload := make([]byte, hdr.PayloadSize)
	if err := p.conn.ReceiveAll(payload); err != nil {
		return wire.Header{}, nil, err
	}
	return hdr, payload, nil
}

// ReceiveExpectedPacket reads one packet and requires its opcode to equal
// want, enforcing the strict request/response alternation of the Session
// state machine (spec.md §5). A mismatch is a protocol error, not a
// recoverable condition: the caller should disconnect.
func (p *PacketIO) ReceiveExpectedPacket(want wire.Opcode, block bool) ([]byte, error) {
	hdr, payload, err := p.ReceiveNextPacket(block)
	if err != nil {
		return nil, err
	}
	if hdr.Opcode != want {
		return nil, &ErrProtocol{Reason: fmt.Sprintf("expected opcode %s, got %s", want, hdr.Opcode)}
	}
	return payload, nil
}
