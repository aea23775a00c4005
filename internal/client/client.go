// Package client implements the active side of connection setup
// (spec.md §4.7): dial out and wrap the connection as a Session.
package client

import (
	"fmt"
	"log/slog"

	"github.com/snajudev/uft/internal/fs"
	"github.com/snajudev/uft/internal/session"
	"github.com/snajudev/uft/internal/transport"
)

// Dial connects to host:port and returns a connected Session. Per
// spec.md §4.7, the returned Session can be driven either with blocking
// one-shot calls (GetFileList, SendFile, ReceiveFile) or with the
// cooperative Update loop — Update already polls non-blockingly
// internally, so no separate transport-level mode switch is needed on the
// client side.
func Dial(host string, port int, filesystem fs.FileSystem, cfg session.Config, log *slog.Logger) (*session.Session, error) {
	if log == nil {
		log = slog.Default()
	}
	dialer := transport.TCPDialer{}
	conn, err := dialer.Dial(host, port, cfg.Timeout)
	if err != nil {
		return nil, fmt.Errorf("client: dial %s:%d: %w", host, port, err)
	}
	return session.New(conn, filesystem, cfg, log), nil
}
