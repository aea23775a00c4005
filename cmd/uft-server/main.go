// Command uft-server runs the passive side of a UFT conversation: it
// listens for inbound connections and services each one's Update loop
// until the process is stopped. CLI flags override internal/config's
// environment-sourced defaults, matching the precedence the teacher's CLI
// establishes for its own flag set.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/snajudev/uft/internal/config"
	"github.com/snajudev/uft/internal/fs"
	"github.com/snajudev/uft/internal/listener"
	"github.com/snajudev/uft/internal/serverdriver"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "uft-server: config:", err)
		return -1
	}

	host := flag.String("local-host", cfg.Host, "address to listen on")
	port := flag.Int("local-port", cfg.Port, "port to listen on")
	timeoutMS := flag.Int("timeout", cfg.TimeoutMS, "per-operation timeout in milliseconds")
	root := flag.String("root", ".", "filesystem root served to peers")
	maxSessions := flag.Int64("max-sessions", 64, "maximum concurrently serviced sessions")
	flag.Parse()

	cfg.TimeoutMS = *timeoutMS
	sessionCfg := cfg.SessionConfig()
	sessionCfg.Timeout = time.Duration(*timeoutMS) * time.Millisecond

	log := slog.Default()
	filesystem := fs.NewOSFileSystem(*root)

	ln, err := listener.Listen(*host, *port, cfg.Backlog, filesystem, sessionCfg, log)
	if err != nil {
		fmt.Fprintln(os.Stderr, "uft-server: listen:", err)
		return -2
	}

	d := serverdriver.New(ln, *maxSessions, 10*time.Millisecond, log)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		log.Info("shutting down")
		d.Stop()
	}()

	d.Run()
	return 0
}
