package serverdriver

import (
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/snajudev/uft/internal/client"
	"github.com/snajudev/uft/internal/fs"
	"github.com/snajudev/uft/internal/listener"
	"github.com/snajudev/uft/internal/session"
)

func TestDriverServicesAcceptedSessions(t *testing.T) {
	root := t.TempDir()
	serverFS := fs.NewOSFileSystem(root)
	cfg := session.DefaultConfig()

	ln, err := listener.Listen("127.0.0.1", 0, 4, serverFS, cfg, nil)
	require.NoError(t, err)
	defer ln.Close()

	d := New(ln, 4, 5*time.Millisecond, nil)
	go d.Run()
	defer d.Stop()

	_, portStr, err := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	clientFS := fs.NewOSFileSystem(t.TempDir())
	c, err := client.Dial("127.0.0.1", port, clientFS, cfg, nil)
	require.NoError(t, err)
	defer c.Disconnect()

	listing, err := c.GetFileList(".")
	require.NoError(t, err)
	require.Empty(t, listing)
}
