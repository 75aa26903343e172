// Package pathpolicy implements the per-entry classification rules shared by
// the scanner: hidden-file detection and extension-set normalization (with
// the jpg/jpeg, tif/tiff, htm/html synonym pairs). Symlink handling is not
// here; the scanner applies it itself while classifying entries.
package pathpolicy

import (
	"path/filepath"
	"strings"
)

// synonyms groups extensions that should be treated interchangeably when
// added to an extension filter set.
var synonyms = [][2]string{
	{".jpg", ".jpeg"},
	{".tif", ".tiff"},
	{".htm", ".html"},
}

// IsHidden reports whether name (a base filename, not a path) is a dotfile.
func IsHidden(name string) bool {
	return strings.HasPrefix(name, ".") && name != "." && name != ".."
}

// ExtensionSet is a normalized set of lowercase extensions (including the
// leading dot). An empty set means "accept any extension".
type ExtensionSet struct {
	set map[string]struct{}
}

// NewExtensionSet builds an ExtensionSet from raw extension strings, applying
// normalization and synonym expansion to each.
func NewExtensionSet(exts ...string) *ExtensionSet {
	s := &ExtensionSet{set: make(map[string]struct{})}
	for _, e := range exts {
		s.Add(e)
	}
	return s
}

// Add normalizes ext (lowercase, leading dot prepended if missing) and inserts
// it along with any synonym partner into the set.
func (s *ExtensionSet) Add(ext string) {
	norm := normalizeExt(ext)
	s.set[norm] = struct{}{}
	for _, pair := range synonyms {
		if norm == pair[0] {
			s.set[pair[1]] = struct{}{}
		} else if norm == pair[1] {
			s.set[pair[0]] = struct{}{}
		}
	}
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(ext)
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// Empty reports whether no extensions were added (meaning "accept any").
func (s *ExtensionSet) Empty() bool {
	return s == nil || len(s.set) == 0
}

// Matches reports whether path's extension is accepted by the set. An empty
// set accepts everything.
func (s *ExtensionSet) Matches(path string) bool {
	if s.Empty() {
		return true
	}
	ext := strings.ToLower(filepath.Ext(path))
	_, ok := s.set[ext]
	return ok
}
