package fs

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFS(t *testing.T) *OSFileSystem {
	t.Helper()
	return NewOSFileSystem(t.TempDir())
}

func TestStatMissingFileIsNotAnError(t *testing.T) {
	f := newTestFS(t)
	info, err := f.Stat("does-not-exist.bin")
	require.NoError(t, err)
	assert.False(t, info.Exists)
}

func TestStatExistingFile(t *testing.T) {
	f := newTestFS(t)
	require.NoError(t, os.WriteFile(filepath.Join(f.Root, "present.bin"), []byte("hello"), 0o644))

	info, err := f.Stat("present.bin")
	require.NoError(t, err)
	assert.True(t, info.Exists)
	assert.EqualValues(t, 5, info.Size)
}

func TestResolveRejectsPathEscape(t *testing.T) {
	f := newTestFS(t)
	_, err := f.Stat("../../etc/passwd")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrOutsideRoot))
}

func TestListSkipsDirectoriesAndSortsByName(t *testing.T) {
	f := newTestFS(t)
	require.NoError(t, os.WriteFile(filepath.Join(f.Root, "b.txt"), []byte("b"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(f.Root, "a.txt"), []byte("a"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(f.Root, "subdir"), 0o755))

	entries, err := f.List(".")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "a.txt", entries[0].Name)
	assert.Equal(t, "b.txt", entries[1].Name)
}

func TestListEmptyDirectory(t *testing.T) {
	f := newTestFS(t)
	entries, err := f.List(".")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestOpenWriteCreatesParentDirsAndTruncates(t *testing.T) {
	f := newTestFS(t)

	w, err := f.OpenWrite("nested/dir/file.bin")
	require.NoError(t, err)
	_, err = w.WriteAt([]byte("0123456789"), 0)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	w2, err := f.OpenWrite("nested/dir/file.bin")
	require.NoError(t, err)
	_, err = w2.WriteAt([]byte("ab"), 0)
	require.NoError(t, err)
	require.NoError(t, w2.Close())

	info, err := f.Stat("nested/dir/file.bin")
	require.NoError(t, err)
	assert.EqualValues(t, 2, info.Size)
}

func TestOpenReadPositional(t *testing.T) {
	f := newTestFS(t)
	require.NoError(t, os.WriteFile(filepath.Join(f.Root, "data.bin"), []byte("0123456789"), 0o644))

	r, err := f.OpenRead("data.bin")
	require.NoError(t, err)
	defer r.Close()

	buf := make([]byte, 4)
	n, err := r.ReadAt(buf, 3)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, "3456", string(buf))
}

func TestOpenReadWriteDoesNotTruncateExistingContent(t *testing.T) {
	f := newTestFS(t)
	require.NoError(t, os.WriteFile(filepath.Join(f.Root, "data.bin"), []byte("0123456789"), 0o644))

	rw, err := f.OpenReadWrite("data.bin")
	require.NoError(t, err)
	defer rw.Close()

	readBuf := make([]byte, 4)
	_, err = rw.ReadAt(readBuf, 0)
	require.NoError(t, err)
	assert.Equal(t, "0123", string(readBuf))

	_, err = rw.WriteAt([]byte("XY"), 2)
	require.NoError(t, err)

	info, err := f.Stat("data.bin")
	require.NoError(t, err)
	assert.EqualValues(t, 10, info.Size, "overwrite in place must not change file length")

	full, err := os.ReadFile(filepath.Join(f.Root, "data.bin"))
	require.NoError(t, err)
	assert.Equal(t, "01XY456789", string(full))
}

func TestOpenReadWriteCreatesMissingFile(t *testing.T) {
	f := newTestFS(t)
	rw, err := f.OpenReadWrite("new/nested.bin")
	require.NoError(t, err)
	defer rw.Close()

	_, err = rw.WriteAt([]byte("hi"), 0)
	require.NoError(t, err)

	info, err := f.Stat("new/nested.bin")
	require.NoError(t, err)
	assert.EqualValues(t, 2, info.Size)
}
