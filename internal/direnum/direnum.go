// Package direnum implements a lazy, pull-based directory enumerator: it
// iterates one directory's immediate entries on demand, retrying transient
// resource exhaustion transparently and never surfacing "." or "..". The
// caller controls recursion by calling Next() on nested directories itself.
package direnum

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rgrossmann/dupescan/internal/ioresil"
)

// Construction errors.
var (
	ErrInvalidArgument = errors.New("direnum: empty path")
	ErrNotADirectory   = errors.New("direnum: not a directory")
	ErrNotFound        = errors.New("direnum: path does not exist")
)

// Enumerator iterates one directory's entries. It is not safe for
// concurrent use; the scanner gives each walked directory its own instance.
type Enumerator struct {
	path string
	dir  *os.File
	done bool
}

// New validates path (must be non-empty, existing, a directory) and returns
// an Enumerator that opens the directory lazily on the first Next call.
func New(path string) (*Enumerator, error) {
	if path == "" {
		return nil, ErrInvalidArgument
	}
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, ErrNotADirectory
	}
	return &Enumerator{path: path}, nil
}

// Next returns the absolute path of the next entry, io.EOF once the
// directory is exhausted, or a fatal error. Transient resource-exhaustion
// errors on open/readdir are retried internally after a bounded sleep and
// never surface to the caller.
func (e *Enumerator) Next() (string, error) {
	if e.done {
		return "", io.EOF
	}

	if e.dir == nil {
		f, err := ioresil.Retry(func() (*os.File, error) { return os.Open(e.path) })
		if err != nil {
			e.done = true
			return "", fmt.Errorf("direnum: open %s: %w", e.path, err)
		}
		e.dir = f
	}

	for {
		entries, err := ioresil.Retry(func() ([]os.DirEntry, error) { return e.dir.ReadDir(1) })
		if len(entries) == 0 {
			if err != nil && err != io.EOF {
				e.close()
				return "", fmt.Errorf("direnum: readdir %s: %w", e.path, err)
			}
			e.close()
			return "", io.EOF
		}

		name := entries[0].Name()
		if name == "." || name == ".." {
			continue
		}
		return filepath.Join(e.path, name), nil
	}
}

// close releases the underlying directory handle, idempotently.
func (e *Enumerator) close() {
	e.done = true
	if e.dir != nil {
		_ = e.dir.Close()
		e.dir = nil
	}
}
