// Package testfs builds small filesystem fixtures for the scanner tests: a
// declarative tree of files (by literal content or by streamed
// pattern chunks for large-file scenarios), hardlinks, and symlinks, rooted
// under a single directory such as t.TempDir().
package testfs

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
)

// Chunk fills a region of a file with a repeated byte. Size is parsed with
// go-humanize so large regions ("100MiB") can be expressed without
// allocating the content inline.
type Chunk struct {
	Pattern byte
	Size    string
}

// File describes one file, optionally with hardlinked aliases. Set exactly
// one of Content or Chunks; Chunks is for sizes Content would make the test
// source unwieldy to write out.
type File struct {
	// Path is relative to the tree's root. Additional entries are
	// hardlinked to Path[0].
	Path    []string
	Content string
	Chunks  []Chunk
}

// Symlink describes a symbolic link relative to the tree's root. Target is
// used verbatim as the link's target (relative or absolute).
type Symlink struct {
	Path   string
	Target string
}

// Tree is a declarative filesystem fixture.
type Tree struct {
	Files    []File
	Symlinks []Symlink
}

// Build materializes tree under root, creating parent directories as
// needed.
func Build(root string, tree Tree) error {
	for _, f := range tree.Files {
		if err := buildFile(root, f); err != nil {
			return err
		}
	}
	for _, s := range tree.Symlinks {
		if err := buildSymlink(root, s); err != nil {
			return err
		}
	}
	return nil
}

func buildFile(root string, f File) error {
	if len(f.Path) == 0 {
		return nil
	}

	first := filepath.Join(root, f.Path[0])
	if err := os.MkdirAll(filepath.Dir(first), 0o755); err != nil {
		return err
	}

	if f.Chunks != nil {
		if err := writeChunkedFile(first, f.Chunks); err != nil {
			return fmt.Errorf("testfs: write %s: %w", first, err)
		}
	} else if err := os.WriteFile(first, []byte(f.Content), 0o644); err != nil {
		return fmt.Errorf("testfs: write %s: %w", first, err)
	}

	for _, p := range f.Path[1:] {
		link := filepath.Join(root, p)
		if err := os.MkdirAll(filepath.Dir(link), 0o755); err != nil {
			return err
		}
		if err := os.Link(first, link); err != nil {
			return fmt.Errorf("testfs: hardlink %s -> %s: %w", link, first, err)
		}
	}
	return nil
}

func buildSymlink(root string, s Symlink) error {
	link := filepath.Join(root, s.Path)
	if err := os.MkdirAll(filepath.Dir(link), 0o755); err != nil {
		return err
	}
	if err := os.Symlink(s.Target, link); err != nil {
		return fmt.Errorf("testfs: symlink %s -> %s: %w", link, s.Target, err)
	}
	return nil
}

// writeChunkedFile streams pattern-filled regions to disk without holding
// the whole file in memory, so multi-hundred-megabyte fixtures stay cheap.
func writeChunkedFile(path string, chunks []Chunk) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	const maxBufSize = 1 << 20 // 1 MiB
	for _, c := range chunks {
		size, err := humanize.ParseBytes(c.Size)
		if err != nil {
			return fmt.Errorf("parse chunk size %q: %w", c.Size, err)
		}

		bufSize := int(size)
		if bufSize > maxBufSize {
			bufSize = maxBufSize
		}
		buf := bytes.Repeat([]byte{c.Pattern}, bufSize)

		remaining := int64(size)
		for remaining > 0 {
			n := int64(len(buf))
			if remaining < n {
				n = remaining
			}
			if _, err := f.Write(buf[:n]); err != nil {
				return err
			}
			remaining -= n
		}
	}
	return nil
}
