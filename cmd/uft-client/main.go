// Command uft-client drives one blocking operation against a uft-server:
// get_file_list, send_file, or receive_file, matching the representative
// CLI surface of spec.md §6.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/snajudev/uft/internal/client"
	"github.com/snajudev/uft/internal/config"
	"github.com/snajudev/uft/internal/fs"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "uft-client: config:", err)
		return -1
	}

	host := flag.String("remote-host", "127.0.0.1", "server address")
	port := flag.Int("remote-port", cfg.Port, "server port")
	timeoutMS := flag.Int("timeout", cfg.TimeoutMS, "per-operation timeout in milliseconds")
	command := flag.String("command", "", "get_file_list|send_file|receive_file")
	path := flag.String("path", "", "remote path for get_file_list")
	source := flag.String("source", "", "source path for send_file/receive_file")
	destination := flag.String("destination", "", "destination path for send_file/receive_file")
	root := flag.String("root", ".", "local filesystem root")
	flag.Parse()

	sessionCfg := cfg.SessionConfig()
	sessionCfg.Timeout = time.Duration(*timeoutMS) * time.Millisecond

	log := slog.Default()
	filesystem := fs.NewOSFileSystem(*root)

	sess, err := client.Dial(*host, *port, filesystem, sessionCfg, log)
	if err != nil {
		fmt.Fprintln(os.Stderr, "uft-client: dial:", err)
		return -2
	}
	defer sess.Disconnect()

	switch *command {
	case "get_file_list":
		listing, err := sess.GetFileList(*path)
		if err != nil {
			fmt.Fprintln(os.Stderr, "uft-client: get_file_list:", err)
			return -3
		}
		for _, entry := range listing {
			fmt.Printf("%s\t%d\t%d\n", entry.Path, entry.Size, entry.Timestamp)
		}
		return 0

	case "send_file":
		if *source == "" || *destination == "" {
			fmt.Fprintln(os.Stderr, "uft-client: send_file requires --source and --destination")
			return -4
		}
		if err := sess.SendFile(*source, *destination, progressPrinter(*source)); err != nil {
			fmt.Fprintln(os.Stderr, "uft-client: send_file:", err)
			return -5
		}
		return 0

	case "receive_file":
		if *source == "" || *destination == "" {
			fmt.Fprintln(os.Stderr, "uft-client: receive_file requires --source and --destination")
			return -4
		}
		if err := sess.ReceiveFile(*source, *destination, progressPrinter(*destination)); err != nil {
			fmt.Fprintln(os.Stderr, "uft-client: receive_file:", err)
			return -5
		}
		return 0

	default:
		fmt.Fprintln(os.Stderr, "uft-client: unknown --command:", *command)
		return -6
	}
}

func progressPrinter(label string) func(uint64, uint64) {
	return func(done, total uint64) {
		fmt.Printf("%s: %d/%d bytes\n", label, done, total)
	}
}
