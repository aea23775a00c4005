package session

import (
	"time"

	"github.com/snajudev/uft/internal/chunkcodec"
)

// FileInfo is a local filesystem observation of one regular file, mirrored
// onto the wire by TransmitFile and GetFileListResult entries. Exists is
// never serialized; an absent file is represented on the wire by
// Size == 0 and Timestamp == 0, per spec.md §3.
type FileInfo struct {
	Path      string
	Size      uint64
	Timestamp uint32
	Exists    bool
}

// FileListing is an ordered, non-recursive directory enumeration.
type FileListing []FileInfo

// TransferDirection names which side of a Transmit call is the sender.
type TransferDirection uint8

const (
	// Up means the initiator is the sender: SendFile.
	Up TransferDirection = iota
	// Down means the initiator is the receiver: ReceiveFile.
	Down
)

func (d TransferDirection) String() string {
	if d == Up {
		return "Up"
	}
	return "Down"
}

// TransferMode selects how send_file_chunks/receive_file_chunks decide
// between a full stream transfer and a hash-compared delta transfer. The
// original reference hardcodes the always-full path (spec.md §9, "Dead
// code path"); this implementation keeps the delta path reachable and
// lets Auto pick per spec.md's stated default.
type TransferMode string

const (
	// TransferModeAuto defaults to delta when 0 < remote_size <= local_size
	// on the sending side (symmetrically on the receiving side), full
	// otherwise.
	TransferModeAuto TransferMode = "auto"
	// TransferModeFull always streams every chunk.
	TransferModeFull TransferMode = "full"
	// TransferModeDelta exchanges hashes for every chunk that lies wholly
	// within the bytes both sides already have, whatever the sizes; chunks
	// past that range (all of them when the remote side has no existing
	// file) are streamed in full.
	TransferModeDelta TransferMode = "delta"
)

// Config carries the per-Session tunables sourced from internal/config.
type Config struct {
	// Timeout bounds every individual transport send/receive.
	Timeout time.Duration
	// ChunkSize is the nominal chunk size transfers are split into.
	ChunkSize int
	// TransferMode overrides the full-vs-delta decision; see TransferMode.
	TransferMode TransferMode
}

// DefaultConfig matches the defaults stated in spec.md §6.
func DefaultConfig() Config {
	return Config{
		Timeout:      15 * time.Second,
		ChunkSize:    chunkcodec.ChunkSize,
		TransferMode: TransferModeAuto,
	}
}

// ProgressFunc is invoked after each chunk is sent or applied, with the
// cumulative bytes processed and the transfer's total size.
type ProgressFunc func(bytesDone, total uint64)

// State is the Session's position in the lifecycle state machine
// (spec.md §4.5, "State machine").
type State int

const (
	Disconnected State = iota
	Idle
	InExchange
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "Disconnected"
	case Idle:
		return "Idle"
	case InExchange:
		return "InExchange"
	default:
		return "Unknown"
	}
}
