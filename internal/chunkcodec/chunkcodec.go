// Package chunkcodec implements ChunkCodec: the 64-bit content hash and the
// per-chunk DEFLATE compression used by the delta-resync transfer path.
package chunkcodec

import (
	"bytes"
	"hash/fnv"
	"io"

	"github.com/klauspost/compress/flate"
)

// ChunkSize is the nominal chunk size: 10 MiB. The last chunk of a file may
// be shorter.
const ChunkSize = 10 * 1024 * 1024

// CompressionLevel is Z_BEST_SPEED from the original reference
// (original_source/UFT/UFTSession.hpp, FILE_COMPRESSION_LEVEL), favoring
// speed over ratio since compression runs per-chunk on the hot transfer
// path.
const CompressionLevel = flate.BestSpeed

// Hash returns the 64-bit FNV-1a hash of b, using the offset basis
// 0xCBF29CE484222325 and prime 0x100000001B3 specified in spec.md §3.
// hash/fnv.New64a implements exactly this algorithm and these constants, so
// no hand-rolled hash loop is needed here; the empty input hashes to the
// offset basis itself, as required.
func Hash(b []byte) uint64 {
	h := fnv.New64a()
	h.Write(b) //nolint:errcheck // hash.Hash.Write never fails
	return h.Sum64()
}

// Compress deflates src at CompressionLevel. The returned slice is sized to
// exactly the compressed length; callers that need headroom guarantees for
// a worst-case incompressible chunk should size their own buffers to
// 2*ChunkSize before calling, mirroring the original's pre-sized chunk
// buffers.
func Compress(src []byte) ([]byte, error) {
	var out bytes.Buffer
	out.Grow(len(src))
	w, err := flate.NewWriter(&out, CompressionLevel)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(src); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// Decompress inflates src into a buffer of at most dstCap bytes. It must
// tolerate any compressed payload produced by a compressor at any DEFLATE
// level, not only CompressionLevel, since the wire format carries no level
// indicator.
func Decompress(src []byte, dstCap int) ([]byte, error) {
	r := flate.NewReader(bytes.NewReader(src))
	defer r.Close()
	dst := make([]byte, dstCap)
	n, err := io.ReadFull(r, dst)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, err
	}
	return dst[:n], nil
}
