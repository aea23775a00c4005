// Package session implements the UFT protocol engine: the six-opcode
// request/response state machine, directory enumeration, and (in
// transfer.go) chunked file transfer in either direction. It is grounded
// in original_source/UFT/UFTSession.hpp, translated from its boolean/raw-
// pointer C++ discipline into Go's explicit error returns and closures.
package session

import (
	"fmt"
	"log/slog"
	"net"
	"sync"

	"github.com/snajudev/uft/internal/fs"
	"github.com/snajudev/uft/internal/packetio"
	"github.com/snajudev/uft/internal/transport"
	"github.com/snajudev/uft/internal/wire"
)

// Session is one stateful endpoint of a UFT conversation. It owns exactly
// one transport.Conn; callers never reach through to the transport
// directly once a Session has been constructed.
type Session struct {
	log *slog.Logger
	cfg Config
	fs  fs.FileSystem

	mu    sync.Mutex // protects state and conn/pio pointers, not I/O itself
	state State
	conn  transport.Conn
	pio   *packetio.PacketIO

	remoteAddr net.Addr
}

// New wraps an already-connected transport.Conn as a Session in
// Connected.Idle state. Used by both Client (after Dial) and Listener
// (after Accept) — the two differ only in who called Dial.
func New(conn transport.Conn, filesystem fs.FileSystem, cfg Config, log *slog.Logger) *Session {
	if log == nil {
		log = slog.Default()
	}
	conn.SetTimeout(cfg.Timeout)
	s := &Session{
		log:        log,
		cfg:        cfg,
		fs:         filesystem,
		conn:       conn,
		pio:        packetio.New(conn),
		state:      Idle,
		remoteAddr: conn.RemoteAddr(),
	}
	s.log.Info("session connected", "remote", s.remoteAddr)
	return s
}

// Connected reports whether the session still has a live transport
// connection.
func (s *Session) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state != Disconnected
}

// RemoteAddr reports the peer address captured at connect/accept time,
// even after disconnection.
func (s *Session) RemoteAddr() net.Addr { return s.remoteAddr }

// Disconnect closes the underlying transport and transitions the session
// to Disconnected. Safe to call more than once.
func (s *Session) Disconnect() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.disconnectLocked(nil)
}

// disconnectLocked performs the state transition and closes the
// transport. cause is logged, not returned; callers build their own
// *Error to return to their own caller.
func (s *Session) disconnectLocked(cause error) error {
	if s.state == Disconnected {
		return nil
	}
	s.state = Disconnected
	if cause != nil {
		s.log.Warn("session disconnecting", "remote", s.remoteAddr, "cause", cause)
	} else {
		s.log.Info("session disconnecting", "remote", s.remoteAddr)
	}
	return s.conn.Close()
}

// beginExchange acquires the I/O lock and the state-machine transition for
// one high-level operation, matching the original's IOLockGuard scope
// (original_source/UFT/UFTSocket.cpp). It returns a finish function that
// must be deferred; finish always restores Idle unless the exchange itself
// disconnected the session.
func (s *Session) beginExchange() (finish func(), err error) {
	s.mu.Lock()
	if s.state == Disconnected {
		s.mu.Unlock()
		return nil, ErrNetworkNotConnected
	}
	s.state = InExchange
	s.mu.Unlock()

	s.pio.Lock()
	return func() {
		s.pio.Unlock()
		s.mu.Lock()
		if s.state != Disconnected {
			s.state = Idle
		}
		s.mu.Unlock()
	}, nil
}

// fail disconnects the session and wraps cause as an *Error of code.
func (s *Session) fail(code ErrorCode, cause error) *Error {
	s.mu.Lock()
	s.disconnectLocked(cause)
	s.mu.Unlock()
	return newError(code, cause)
}

// failTransport maps a transport-layer error onto the session's network
// error taxonomy and disconnects, per spec.md §7.
func (s *Session) failTransport(err error) *Error {
	switch err {
	case transport.ErrConnectionLost:
		return s.fail(NetworkConnectionLost, err)
	case transport.ErrNotConnected:
		return s.fail(NetworkNotConnected, err)
	default:
		if _, ok := err.(*packetio.ErrProtocol); ok {
			return s.fail(NetworkApiError, err)
		}
		return s.fail(NetworkConnectionLost, err)
	}
}

// GetFileList enumerates the regular files directly inside path on the
// remote side (spec.md §4.5).
func (s *Session) GetFileList(path string) (FileListing, error) {
	finish, err := s.beginExchange()
	if err != nil {
		return nil, err
	}
	defer finish()

	reqBuf := wire.NewFrameBuffer(1 + len(path))
	if err := reqBuf.WriteString8(path); err != nil {
		return nil, s.fail(NetworkApiError, err)
	}
	if err := s.pio.SendPacket(wire.OpGetFileList, reqBuf.Bytes()); err != nil {
		return nil, s.failTransport(err)
	}

	payload, err := s.pio.ReceiveExpectedPacket(wire.OpGetFileListResult, true)
	if err != nil {
		return nil, s.failTransport(err)
	}

	respBuf := wire.FrameBufferFromBytes(payload)
	ok, err := respBuf.ReadBool()
	if err != nil {
		return nil, s.fail(NetworkApiError, err)
	}
	if !ok {
		return nil, ErrRemoteError
	}

	count, err := respBuf.ReadUint32()
	if err != nil {
		return nil, s.fail(NetworkApiError, err)
	}
	listing := make(FileListing, 0, count)
	for i := uint32(0); i < count; i++ {
		name, err := respBuf.ReadString8()
		if err != nil {
			return nil, s.fail(NetworkApiError, err)
		}
		size, err := respBuf.ReadUint64()
		if err != nil {
			return nil, s.fail(NetworkApiError, err)
		}
		ts, err := respBuf.ReadUint32()
		if err != nil {
			return nil, s.fail(NetworkApiError, err)
		}
		listing = append(listing, FileInfo{Path: name, Size: size, Timestamp: ts, Exists: true})
	}
	return listing, nil
}

// serveGetFileList is the passive side of GetFileList, invoked from
// Update when an unsolicited GetFileList arrives.
func (s *Session) serveGetFileList(payload []byte) error {
	reqBuf := wire.FrameBufferFromBytes(payload)
	path, err := reqBuf.ReadString8()
	if err != nil {
		return &packetio.ErrProtocol{Reason: "malformed GetFileList payload"}
	}

	entries, err := s.fs.List(path)
	if err != nil {
		respBuf := wire.NewFrameBuffer(1)
		respBuf.WriteBool(false)
		return s.pio.SendPacket(wire.OpGetFileListResult, respBuf.Bytes())
	}

	size := 1 + 4
	for _, e := range entries {
		size += 1 + len(e.Name) + 8 + 4
	}
	respBuf := wire.NewFrameBuffer(size)
	respBuf.WriteBool(true)
	respBuf.WriteUint32(uint32(len(entries)))
	for _, e := range entries {
		if err := respBuf.WriteString8(e.Name); err != nil {
			return &packetio.ErrProtocol{Reason: fmt.Sprintf("entry name too long: %s", e.Name)}
		}
		respBuf.WriteUint64(e.Size)
		respBuf.WriteUint32(uint32(e.ModTime.Unix()))
	}
	return s.pio.SendPacket(wire.OpGetFileListResult, respBuf.Bytes())
}

// Update drives the passive side of the protocol: while a whole packet is
// available without blocking, receive and dispatch it. WouldBlock is
// folded into a nil return, matching spec.md §4.5.
func (s *Session) Update() error {
	finish, err := s.beginExchange()
	if err != nil {
		return err
	}
	defer finish()

	for {
		hdr, payload, err := s.pio.ReceiveNextPacket(false)
		if err == transport.ErrWouldBlock {
			return nil
		}
		if err != nil {
			return s.failTransport(err)
		}

		switch hdr.Opcode {
		case wire.OpGetFileList:
			if err := s.serveGetFileList(payload); err != nil {
				return s.failTransport(err)
			}
		case wire.OpTransmitFile:
			if err := s.serveTransmitFile(payload); err != nil {
				if se, ok := err.(*Error); ok {
					// A business-level failure (missing source, failed
					// open) is not fatal to the session; log it and keep
					// draining whatever else is pending.
					s.log.Warn("serve TransmitFile failed", "code", se.Code, "err", se.Err)
					continue
				}
				return s.failTransport(err)
			}
		default:
			return s.fail(NetworkApiError, &packetio.ErrProtocol{
				Reason: fmt.Sprintf("unsolicited opcode %s", hdr.Opcode),
			})
		}
	}
}
