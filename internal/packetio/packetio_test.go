package packetio

import (
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snajudev/uft/internal/transport"
	"github.com/snajudev/uft/internal/wire"
)

// pipeConn adapts a net.Conn (from net.Pipe) to transport.Conn for tests,
// without needing a real socket.
type pipeConn struct {
	net.Conn
}

func (p pipeConn) SendAll(b []byte) error {
	_, err := p.Conn.Write(b)
	return err
}

func (p pipeConn) ReceiveAll(b []byte) error {
	_, err := io.ReadFull(p.Conn, b)
	return err
}

func (p pipeConn) TryReceiveAll(b []byte) error {
	p.Conn.SetReadDeadline(time.Now().Add(time.Millisecond))
	defer p.Conn.SetReadDeadline(time.Time{})
	_, err := io.ReadFull(p.Conn, b)
	if ne, ok := err.(net.Error); ok && ne.Timeout() {
		return transport.ErrWouldBlock
	}
	return err
}

func (p pipeConn) SetTimeout(d time.Duration) error {
	if d <= 0 {
		return p.Conn.SetDeadline(time.Time{})
	}
	return p.Conn.SetDeadline(time.Now().Add(d))
}

func (p pipeConn) RemoteAddr() net.Addr { return p.Conn.RemoteAddr() }

func newPipe() (transport.Conn, transport.Conn) {
	a, b := net.Pipe()
	return pipeConn{a}, pipeConn{b}
}

func TestSendAndReceivePacketRoundTrip(t *testing.T) {
	client, server := newPipe()
	defer client.Close()
	defer server.Close()

	cio := New(client)
	sio := New(server)

	go func() {
		cio.Lock()
		defer cio.Unlock()
		cio.SendPacket(wire.OpGetFileList, []byte("root/"))
	}()

	sio.Lock()
	defer sio.Unlock()
	hdr, payload, err := sio.ReceiveNextPacket(true)
	require.NoError(t, err)
	assert.Equal(t, wire.OpGetFileList, hdr.Opcode)
	assert.Equal(t, "root/", string(payload))
}

func TestReceiveExpectedPacketMismatchIsProtocolError(t *testing.T) {
	client, server := newPipe()
	defer client.Close()
	defer server.Close()

	cio := New(client)
	sio := New(server)

	go func() {
		cio.Lock()
		defer cio.Unlock()
		cio.SendPacket(wire.OpTransmitFile, []byte("x"))
	}()

	sio.Lock()
	defer sio.Unlock()
	_, err := sio.ReceiveExpectedPacket(wire.OpGetFileList, true)
	require.Error(t, err)
	var protoErr *ErrProtocol
	assert.ErrorAs(t, err, &protoErr)
}

func TestReceiveNextPacketRejectsOversizedPayload(t *testing.T) {
	client, server := newPipe()
	defer client.Close()
	defer server.Close()

	cio := New(client)
	sio := New(server)

	go func() {
		hdr := wire.Header{Opcode: wire.OpTransmitFileChunk, PayloadSize: MaxPayloadSize + 1}
		cio.Lock()
		defer cio.Unlock()
		client.SendAll(wire.EncodeHeader(hdr))
	}()

	sio.Lock()
	defer sio.Unlock()
	_, _, err := sio.ReceiveNextPacket(true)
	require.Error(t, err)
	var protoErr *ErrProtocol
	assert.ErrorAs(t, err, &protoErr)
}
