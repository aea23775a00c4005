// Package fs provides the filesystem abstraction Session operations read
// and write through: directory listing, stat, and positional file access.
// It is grounded in the three-way stat result of the original reference's
// GetFileInfo (original_source/UFT/UFTSession.hpp): found, not-found, and
// hard I/O error are distinct outcomes, not folded into a single error.
package fs

import (
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Info describes one file as the protocol reports it: a name relative to
// the session's root and a size and modification time. A file that does
// not exist is reported as Exists == false rather than as an error.
type Info struct {
	Name    string
	Size    uint64
	ModTime time.Time
	Exists  bool
}

// FileSystem is the storage backend a Session reads and writes through.
// Implementations must treat paths as relative to an implementation-chosen
// root and must reject any path that escapes it.
type FileSystem interface {
	// Stat reports Info for name. A missing file is not an error: it comes
	// back as Info{Exists: false}. Only a genuine I/O failure (permission
	// denied, broken mount, ...) returns a non-nil error.
	Stat(name string) (Info, error)

	// List returns Info for every regular file directly inside dir,
	// non-recursively. Subdirectories are skipped, not descended into.
	List(dir string) ([]Info, error)

	// OpenRead opens name for positional reads.
	OpenRead(name string) (ReaderAt, error)

	// OpenWrite opens name for positional writes, creating it (and its
	// parent directories) if necessary and truncating any existing
	// content.
	OpenWrite(name string) (WriterAt, error)

	// OpenReadWrite opens name for positional reads and writes without
	// truncating, creating it (and its parent directories) if it does not
	// already exist. Used by the delta-receive path, which must read a
	// chunk's existing bytes before deciding whether to overwrite them.
	OpenReadWrite(name string) (ReadWriterAt, error)
}

// ReaderAt is a positional, closable reader.
type ReaderAt interface {
	io.ReaderAt
	io.Closer
}

// WriterAt is a positional, closable writer.
type WriterAt interface {
	io.WriterAt
	io.Closer
}

// ReadWriterAt is a positional, closable reader and writer.
type ReadWriterAt interface {
	io.ReaderAt
	io.WriterAt
	io.Closer
}

// OSFileSystem is a FileSystem rooted at a directory on the local disk.
type OSFileSystem struct {
	Root string
}

// NewOSFileSystem roots a FileSystem at root. root must already exist.
func NewOSFileSystem(root string) *OSFileSystem {
	return &OSFileSystem{Root: root}
}

func (o *OSFileSystem) resolve(name string) (string, error) {
	full := filepath.Join(o.Root, name)
	rel, err := filepath.Rel(o.Root, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", &PathError{Op: "resolve", Path: name, Err: ErrOutsideRoot}
	}
	return full, nil
}

func (o *OSFileSystem) Stat(name string) (Info, error) {
	full, err := o.resolve(name)
	if err != nil {
		return Info{}, err
	}
	st, err := os.Stat(full)
	if os.IsNotExist(err) {
		return Info{Name: name, Exists: false}, nil
	}
	if err != nil {
		return Info{}, &PathError{Op: "stat", Path: name, Err: err}
	}
	return Info{
		Name:    name,
		Size:    uint64(st.Size()),
		ModTime: st.ModTime(),
		Exists:  true,
	}, nil
}

func (o *OSFileSystem) List(dir string) ([]Info, error) {
	full, err := o.resolve(dir)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(full)
	if err != nil {
		return nil, &PathError{Op: "readdir", Path: dir, Err: err}
	}
	var out []Info
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		fi, err := e.Info()
		if err != nil {
			continue
		}
		if !fi.Mode().IsRegular() {
			continue
		}
		out = append(out, Info{
			Name:    e.Name(),
			Size:    uint64(fi.Size()),
			ModTime: fi.ModTime(),
			Exists:  true,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (o *OSFileSystem) OpenRead(name string) (ReaderAt, error) {
	full, err := o.resolve(name)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(full)
	if err != nil {
		return nil, &PathError{Op: "open", Path: name, Err: err}
	}
	return f, nil
}

func (o *OSFileSystem) OpenWrite(name string) (WriterAt, error) {
	full, err := o.resolve(name)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return nil, &PathError{Op: "mkdir", Path: name, Err: err}
	}
	f, err := os.OpenFile(full, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, &PathError{Op: "create", Path: name, Err: err}
	}
	return f, nil
}

func (o *OSFileSystem) OpenReadWrite(name string) (ReadWriterAt, error) {
	full, err := o.resolve(name)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return nil, &PathError{Op: "mkdir", Path: name, Err: err}
	}
	f, err := os.OpenFile(full, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, &PathError{Op: "open", Path: name, Err: err}
	}
	return f, nil
}
