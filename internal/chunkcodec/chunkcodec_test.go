package chunkcodec

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashEmptyInputIsOffsetBasis(t *testing.T) {
	assert.Equal(t, uint64(0xCBF29CE484222325), Hash(nil))
	assert.Equal(t, uint64(0xCBF29CE484222325), Hash([]byte{}))
}

func TestHashIsStableAndSensitiveToContent(t *testing.T) {
	a := Hash([]byte("hello world"))
	b := Hash([]byte("hello world"))
	c := Hash([]byte("hello worle"))
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestHashKnownVector(t *testing.T) {
	// FNV-1a 64 of "a" is a well known test vector.
	assert.Equal(t, uint64(0xaf63dc4c8601ec8c), Hash([]byte("a")))
}

func TestCompressDecompressRoundTrip(t *testing.T) {
	src := bytes.Repeat([]byte("the quick brown fox jumps over the lazy dog "), 1000)

	compressed, err := Compress(src)
	require.NoError(t, err)
	assert.Less(t, len(compressed), len(src), "repetitive input should shrink under deflate")

	decompressed, err := Decompress(compressed, len(src))
	require.NoError(t, err)
	assert.Equal(t, src, decompressed)
}

func TestCompressDecompressEmptyChunk(t *testing.T) {
	compressed, err := Compress(nil)
	require.NoError(t, err)

	decompressed, err := Decompress(compressed, 0)
	require.NoError(t, err)
	assert.Empty(t, decompressed)
}

func TestCompressDecompressIncompressibleInput(t *testing.T) {
	// Pseudo-random-looking bytes that will not shrink; the decoder must
	// still round-trip regardless of compressed/expanded size.
	src := make([]byte, 4096)
	x := uint32(13)
	for i := range src {
		x = x*1664525 + 1013904223
		src[i] = byte(x >> 24)
	}

	compressed, err := Compress(src)
	require.NoError(t, err)

	decompressed, err := Decompress(compressed, len(src))
	require.NoError(t, err)
	assert.Equal(t, src, decompressed)
}

func TestDecompressRespectsDestinationCap(t *testing.T) {
	src := bytes.Repeat([]byte("x"), ChunkSize/100)
	compressed, err := Compress(src)
	require.NoError(t, err)

	decompressed, err := Decompress(compressed, len(src))
	require.NoError(t, err)
	assert.Len(t, decompressed, len(src))
}
