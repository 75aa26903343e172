// Package digest computes the content key (size, hex digest) for a single
// regular file: a streaming 512-bit hash, with a short-file shortcut that
// substitutes the raw bytes for a digest when the file is no larger than
// the digest itself.
package digest

import (
	"crypto/sha512"
	"encoding/hex"
	"io"
	"os"
	"strings"

	"github.com/rgrossmann/dupescan/internal/ioresil"
)

// Length is the digest length in bytes (512 bits).
const Length = sha512.Size // 64

// streamBufferCap bounds the streaming read buffer regardless of file size,
// so the digester never allocates unbounded memory for huge files.
const streamBufferCap = 10 << 20 // 10 MiB

// Key is a file's size paired with the uppercase hex encoding of its digest
// (or, for short files, of its raw bytes).
type Key struct {
	Size int64
	Hex  string
}

// Less orders keys ascending by (Size, Hex), the order the duplicate-set
// index iterates in.
func (k Key) Less(other Key) bool {
	if k.Size != other.Size {
		return k.Size < other.Size
	}
	return k.Hex < other.Hex
}

// Of computes the content key for the regular file at path, whose size was
// already obtained by the caller under a single stat call. File opens retry
// the same transient-errno set as the directory enumerator.
func Of(path string, size int64) (Key, error) {
	if size <= Length {
		return shortFileKey(path, size)
	}
	return streamedKey(path, size)
}

// shortFileKey implements the short-file branch: the file's raw bytes,
// hex-encoded as-is (exactly 2*size hex characters, no padding), stand in
// for a digest.
func shortFileKey(path string, size int64) (Key, error) {
	f, err := ioresil.Retry(func() (*os.File, error) { return os.Open(path) })
	if err != nil {
		return Key{}, err
	}
	defer func() { _ = f.Close() }()

	buf := make([]byte, size)
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return Key{}, err
	}
	if int64(n) != size {
		return Key{}, io.ErrUnexpectedEOF
	}

	return Key{Size: size, Hex: strings.ToUpper(hex.EncodeToString(buf))}, nil
}

// streamedKey streams the file through SHA-512 in chunks bounded by
// streamBufferCap, regardless of file size.
func streamedKey(path string, size int64) (Key, error) {
	f, err := ioresil.Retry(func() (*os.File, error) { return os.Open(path) })
	if err != nil {
		return Key{}, err
	}
	defer func() { _ = f.Close() }()

	bufSize := size
	if bufSize > streamBufferCap {
		bufSize = streamBufferCap
	}
	buf := make([]byte, bufSize)

	h := sha512.New()
	for {
		n, rerr := f.Read(buf)
		if n == 0 && rerr == nil {
			// A zero-byte read before EOF is a fatal read error.
			return Key{}, io.ErrNoProgress
		}
		if n > 0 {
			if _, werr := h.Write(buf[:n]); werr != nil {
				return Key{}, werr
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return Key{}, rerr
		}
	}

	return Key{Size: size, Hex: strings.ToUpper(hex.EncodeToString(h.Sum(nil)))}, nil
}
