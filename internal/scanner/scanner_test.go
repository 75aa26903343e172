//go:build unix

package scanner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rgrossmann/dupescan/internal/digest"
	"github.com/rgrossmann/dupescan/internal/dupeset"
	"github.com/rgrossmann/dupescan/internal/pathpolicy"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}

// onlySet returns the single set in idx, failing the test if there isn't
// exactly one.
func onlySet(t *testing.T, idx *dupeset.Index) *dupeset.Set {
	t.Helper()
	var found *dupeset.Set
	n := 0
	idx.Each(func(_ digest.Key, s *dupeset.Set) {
		found = s
		n++
	})
	if n != 1 {
		t.Fatalf("index has %d sets, want 1", n)
	}
	return found
}

func TestScanFindsDuplicateSet(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), "hello")
	writeFile(t, filepath.Join(dir, "b.txt"), "hello")
	writeFile(t, filepath.Join(dir, "c.txt"), "bye")

	s := New(Config{Workers: 2, RemoveSingletons: true})
	if err := s.Scan(dir, true); err != nil {
		t.Fatalf("Scan: %v", err)
	}

	if got := s.Index().Len(); got != 1 {
		t.Fatalf("Len() = %d, want 1", got)
	}
	if got := onlySet(t, s.Index()).Len(); got != 2 {
		t.Fatalf("set.Len() = %d, want 2", got)
	}
}

func TestScanSingletonNotReported(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "only.txt"), "unique content")

	s := New(Config{RemoveSingletons: true})
	if err := s.Scan(dir, true); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if got := s.Index().Len(); got != 0 {
		t.Fatalf("Len() = %d, want 0 (singletons never form a reported set)", got)
	}
}

func TestScanSkipHidden(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "visible.txt"), "dup")
	writeFile(t, filepath.Join(dir, ".hidden.txt"), "dup")

	s := New(Config{SkipHidden: true, RemoveSingletons: true})
	if err := s.Scan(dir, true); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if got := s.Index().Len(); got != 0 {
		t.Fatalf("Len() = %d, want 0 (hidden twin excluded, leaving a singleton)", got)
	}
}

func TestScanExtensionFilterAndSynonym(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "photo.jpg"), "same bytes")
	writeFile(t, filepath.Join(dir, "photo2.jpeg"), "same bytes")
	writeFile(t, filepath.Join(dir, "note.txt"), "same bytes")

	cfg := Config{Extensions: pathpolicy.NewExtensionSet("jpg")}
	s := New(cfg)
	if err := s.Scan(dir, true); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if got := s.Index().Len(); got != 1 {
		t.Fatalf("Len() = %d, want 1 (jpg/jpeg synonym pairs, txt excluded)", got)
	}
	if got := onlySet(t, s.Index()).Len(); got != 2 {
		t.Fatalf("set.Len() = %d, want 2", got)
	}
}

func TestScanSizeWindow(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "small1.bin"), "x")
	writeFile(t, filepath.Join(dir, "small2.bin"), "x")
	writeFile(t, filepath.Join(dir, "big1.bin"), "xxxxxxxxxx")
	writeFile(t, filepath.Join(dir, "big2.bin"), "xxxxxxxxxx")

	s := New(Config{MinSize: 5})
	if err := s.Scan(dir, true); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if got := s.Index().Len(); got != 1 {
		t.Fatalf("Len() = %d, want 1 (only the big pair clears MinSize)", got)
	}
}

func TestScanSymlinkNotFollowedByDefault(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), "hello")
	writeFile(t, filepath.Join(dir, "b.txt"), "hello")
	if err := os.Symlink(filepath.Join(dir, "a.txt"), filepath.Join(dir, "link.txt")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	s := New(Config{})
	if err := s.Scan(dir, true); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if got := onlySet(t, s.Index()).Len(); got != 2 {
		t.Fatalf("set.Len() = %d, want 2 (symlink not admitted)", got)
	}
}

func TestScanSymlinkFollowed(t *testing.T) {
	sub := t.TempDir()
	writeFile(t, filepath.Join(sub, "a.txt"), "hello")

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "b.txt"), "hello")
	if err := os.Symlink(sub, filepath.Join(root, "linkdir")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	s := New(Config{FollowSymlinks: true})
	if err := s.Scan(root, true); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if got := s.Index().Len(); got != 1 {
		t.Fatalf("Len() = %d, want 1 (resolved symlinked directory scanned)", got)
	}
}

func TestScanNonRecursiveIgnoresSubdirs(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), "hello")
	sub := filepath.Join(dir, "sub")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(sub, "b.txt"), "hello")

	s := New(Config{RemoveSingletons: true})
	if err := s.Scan(dir, false); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if got := s.Index().Len(); got != 0 {
		t.Fatalf("Len() = %d, want 0 (non-recursive scan never enters sub/)", got)
	}
}

func TestScanHardlinksAreSelfDuplicates(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.txt")
	writeFile(t, a, "hello")
	if err := os.Link(a, filepath.Join(dir, "hard.txt")); err != nil {
		t.Skipf("hardlinks unsupported: %v", err)
	}
	writeFile(t, filepath.Join(dir, "b.txt"), "hello")

	s := New(Config{})
	if err := s.Scan(dir, true); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if got := onlySet(t, s.Index()).Len(); got != 2 {
		t.Fatalf("set.Len() = %d, want 2 (hardlink twin collapses to one identity)", got)
	}
}

func TestScanCallbacks(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), "hello")
	writeFile(t, filepath.Join(dir, "b.txt"), "hello")

	var started bool
	var completedFiles, completedSets int64
	s := New(Config{})
	s.OnStarted(func(root string) { started = true })
	s.OnCompleted(func(root string, filesEncountered, fileCount, setsFound, spaceOccupied int64) {
		completedFiles = filesEncountered
		completedSets = setsFound
	})

	if err := s.Scan(dir, true); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if !started {
		t.Error("OnStarted never fired")
	}
	if completedFiles != 2 {
		t.Errorf("filesEncountered = %d, want 2", completedFiles)
	}
	if completedSets != 1 {
		t.Errorf("setsFound = %d, want 1", completedSets)
	}
}

func TestScanRemoveSingletonsPrunesIndex(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "alone.txt"), "lonely")
	writeFile(t, filepath.Join(dir, "a.txt"), "hello")
	writeFile(t, filepath.Join(dir, "b.txt"), "hello")

	s := New(Config{RemoveSingletons: true})
	if err := s.Scan(dir, true); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if got := s.Index().Len(); got != 1 {
		t.Fatalf("Len() = %d, want 1", got)
	}
}

func TestScanRootNotADirectory(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "plain.txt")
	writeFile(t, file, "x")

	s := New(Config{})
	if err := s.Scan(file, true); err == nil {
		t.Fatal("expected an error scanning a non-directory root")
	}
}
