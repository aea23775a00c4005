// Package listener implements the passive side of connection setup
// (spec.md §4.6): bind, accept, and hand each accepted connection off as a
// new Session.
package listener

import (
	"fmt"
	"log/slog"
	"net"

	"golang.org/x/net/netutil"

	"github.com/snajudev/uft/internal/fs"
	"github.com/snajudev/uft/internal/session"
	"github.com/snajudev/uft/internal/transport"
)

// Listener owns one listening Transport and produces connected Sessions.
type Listener struct {
	raw net.Listener
	ln  *transport.TCPListener
	fs  fs.FileSystem
	cfg session.Config
	log *slog.Logger
}

// Listen binds host:port and wraps it with netutil.LimitListener so no
// more than backlog connections are accepted concurrently, standing in
// for the listen(2) backlog knob spec.md §6 documents (range 1..10).
func Listen(host string, port, backlog int, filesystem fs.FileSystem, cfg session.Config, log *slog.Logger) (*Listener, error) {
	if log == nil {
		log = slog.Default()
	}
	raw, err := net.Listen("tcp", fmt.Sprintf("%s:%d", host, port))
	if err != nil {
		return nil, fmt.Errorf("listener: listen: %w", err)
	}
	limited := netutil.LimitListener(raw, backlog)
	log.Info("listening", "addr", raw.Addr())
	return &Listener{
		raw: raw,
		ln:  &transport.TCPListener{Listener: limited},
		fs:  filesystem,
		cfg: cfg,
		log: log,
	}, nil
}

// Accept blocks until a connection arrives, then wraps it as a new Session
// in the listener's blocking mode.
func (l *Listener) Accept() (*session.Session, error) {
	conn, err := l.ln.Accept()
	if err != nil {
		return nil, fmt.Errorf("listener: accept: %w", err)
	}
	return session.New(conn, l.fs, l.cfg, l.log), nil
}

// Addr reports the bound local address.
func (l *Listener) Addr() net.Addr { return l.raw.Addr() }

// Close releases the listening transport.
func (l *Listener) Close() error { return l.ln.Close() }
