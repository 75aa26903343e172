// Package scanner orchestrates a duplicate-file scan over one directory
// tree: directory traversal, path filtering, content hashing, and index
// insertion, reported through a small set of callbacks.
//
// # Concurrency Model
//
// Directory traversal fans out: each directory gets its own goroutine,
// spawning one child goroutine per subdirectory it finds, bounded by a
// semaphore so only a fixed number of directories are being read at once.
// A directory's regular files are handed off to a second, independently
// bounded pool of hashing goroutines, which compute each file's content key
// and insert it into the index under the index's own lock. Traversal and
// hashing therefore overlap freely; the two WaitGroups (one per pool) are
// the only synchronization between them, and Scan blocks on both before
// computing final statistics.
package scanner

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/rgrossmann/dupescan/internal/digest"
	"github.com/rgrossmann/dupescan/internal/direnum"
	"github.com/rgrossmann/dupescan/internal/dupeset"
	"github.com/rgrossmann/dupescan/internal/pathpolicy"
	"github.com/rgrossmann/dupescan/internal/scanstats"
)

// Scanner runs duplicate-file scans against a reusable index: calling Scan
// more than once accumulates into the same index and statistics unless a
// fresh Scanner is constructed.
type Scanner struct {
	cfg Config

	onStarted   OnStarted
	onProgress  OnProgress
	onCompleted OnCompleted
	onError     OnError

	root  string
	index *dupeset.Index
	stats *scanstats.Stats

	walkerWg sync.WaitGroup
	dirSem   chan struct{}

	hashWg  sync.WaitGroup
	hashSem chan struct{}

	visitedMu sync.Mutex
	visited   map[string]bool
}

// New returns a Scanner configured with cfg, filling in defaults for any
// zero-valued field that can't sensibly stay zero.
func New(cfg Config) *Scanner {
	if cfg.Extensions == nil {
		cfg.Extensions = pathpolicy.NewExtensionSet()
	}
	if cfg.MaxSize == 0 {
		cfg.MaxSize = math.MaxInt64
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	return &Scanner{
		cfg:   cfg,
		index: dupeset.New(nil),
		stats: scanstats.New(),
	}
}

// Filter and policy setters.

func (s *Scanner) SetFollowSymlinks(v bool)   { s.cfg.FollowSymlinks = v }
func (s *Scanner) SetSkipHidden(v bool)       { s.cfg.SkipHidden = v }
func (s *Scanner) SetMinSize(n int64)         { s.cfg.MinSize = n }
func (s *Scanner) SetMaxSize(n int64)         { s.cfg.MaxSize = n }
func (s *Scanner) SetRemoveSingletons(v bool) { s.cfg.RemoveSingletons = v }

// SetWorkers bounds both the directory-reading pool and the hashing pool.
// n<=0 is ignored.
func (s *Scanner) SetWorkers(n int) {
	if n > 0 {
		s.cfg.Workers = n
	}
}

// AddExtensionFilter admits one more extension (and its recognized
// synonyms) into the scan's extension allow-list.
func (s *Scanner) AddExtensionFilter(ext string) { s.cfg.Extensions.Add(ext) }

// Callback setters.

func (s *Scanner) OnStarted(fn OnStarted)     { s.onStarted = fn }
func (s *Scanner) OnProgress(fn OnProgress)   { s.onProgress = fn }
func (s *Scanner) OnCompleted(fn OnCompleted) { s.onCompleted = fn }
func (s *Scanner) OnError(fn OnError)         { s.onError = fn }

// Index returns the duplicate-set index being populated by this Scanner.
func (s *Scanner) Index() *dupeset.Index { return s.index }

// Stats returns the running counters for this Scanner's scans.
func (s *Scanner) Stats() *scanstats.Stats { return s.stats }

// Scan walks root (recursing into subdirectories when recursive is true),
// filtering and hashing regular files and inserting their content keys into
// the index. It returns an error only when root itself cannot be opened as
// a directory; every other failure is reported through OnError and the
// walk continues.
func (s *Scanner) Scan(root string, recursive bool) error {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("scanner: %w", err)
	}
	absRoot = filepath.Clean(absRoot)

	info, err := os.Stat(absRoot)
	if err != nil {
		return fmt.Errorf("scanner: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("scanner: %s is not a directory", absRoot)
	}

	f, err := os.Open(absRoot)
	if err != nil {
		return fmt.Errorf("scanner: opening root: %w", err)
	}
	_ = f.Close()

	s.root = absRoot
	s.visited = map[string]bool{absRoot: true}
	s.dirSem = make(chan struct{}, s.cfg.Workers)
	s.hashSem = make(chan struct{}, s.cfg.Workers)

	s.fireStarted()

	s.walkerWg.Add(1)
	go s.walkDirectory(absRoot, recursive)

	s.walkerWg.Wait()
	s.hashWg.Wait()

	return s.finish()
}

// walkDirectory enumerates dir's immediate entries and dispatches each one,
// recursing into subdirectories (as further goroutines) when recurse is
// true. Enumeration failures here are non-fatal; they're reported and the
// walk moves on.
func (s *Scanner) walkDirectory(dir string, recurse bool) {
	defer s.walkerWg.Done()

	s.dirSem <- struct{}{}
	defer func() { <-s.dirSem }()

	enum, err := direnum.New(dir)
	if err != nil {
		s.fireError(dir, err)
		return
	}

	for {
		entry, err := enum.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			s.fireError(dir, err)
			break
		}
		s.processEntry(entry, recurse)
	}
}

// processEntry classifies one directory entry and either recurses into it,
// hands it to the hashing pool, or discards it per the active filters.
func (s *Scanner) processEntry(entryPath string, recurse bool) {
	name := filepath.Base(entryPath)
	if s.cfg.SkipHidden && pathpolicy.IsHidden(name) {
		return
	}

	lst, err := os.Lstat(entryPath)
	if err != nil {
		s.fireError(entryPath, err)
		return
	}

	if lst.Mode()&os.ModeSymlink != 0 {
		if !s.cfg.FollowSymlinks {
			return
		}
		resolved, err := filepath.EvalSymlinks(entryPath)
		if err != nil {
			s.fireError(entryPath, err)
			return
		}
		entryPath = resolved
	}

	info, err := os.Stat(entryPath)
	if err != nil {
		s.fireError(entryPath, err)
		return
	}

	if info.IsDir() {
		if !recurse || !s.markVisited(entryPath) {
			return
		}
		s.walkerWg.Add(1)
		go s.walkDirectory(entryPath, recurse)
		return
	}

	if !info.Mode().IsRegular() {
		return
	}
	if !s.cfg.Extensions.Matches(entryPath) {
		return
	}

	size := info.Size()
	if size < s.cfg.MinSize || size > s.cfg.MaxSize {
		return
	}

	s.stats.FilesEncountered.Add(1)

	s.hashWg.Add(1)
	s.hashSem <- struct{}{}
	go func(path string, info os.FileInfo) {
		defer s.hashWg.Done()
		defer func() { <-s.hashSem }()
		s.hashAndInsert(path, info)
	}(entryPath, info)
}

// hashAndInsert computes path's content key and inserts it into the index.
func (s *Scanner) hashAndInsert(path string, info os.FileInfo) {
	key, err := digest.Of(path, info.Size())
	if err != nil {
		s.fireError(path, err)
		return
	}

	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		s.fireError(path, fmt.Errorf("scanner: no stat_t for %s", path))
		return
	}
	id := dupeset.Identity{Dev: uint64(st.Dev), Ino: st.Ino} //nolint:unconvert // platform-dependent type

	s.index.Insert(key, path, id)
	s.fireProgress()
}

// markVisited records dir as walked and reports whether it hadn't been
// seen before, so a directory reachable through more than one symlink (or
// a symlink cycle) is only ever descended into once.
func (s *Scanner) markVisited(dir string) bool {
	s.visitedMu.Lock()
	defer s.visitedMu.Unlock()
	if s.visited[dir] {
		return false
	}
	s.visited[dir] = true
	return true
}

// finish tallies final statistics over the index, prunes singleton sets if
// configured to, and fires OnCompleted.
func (s *Scanner) finish() error {
	var fileCount, spaceOccupied int64

	s.index.Each(func(key digest.Key, set *dupeset.Set) {
		n := int64(set.Len())
		if n <= 1 {
			if s.cfg.RemoveSingletons {
				return
			}
			fileCount++
			spaceOccupied += key.Size
			return
		}
		// file_count counts every member of a retained set; space_occupied
		// counts only the duplicates beyond the first (the principal).
		fileCount += n
		spaceOccupied += key.Size * (n - 1)
	})

	if s.cfg.RemoveSingletons {
		s.index.PruneSingletons()
	}

	s.fireCompleted(fileCount, int64(s.index.Len()), spaceOccupied)
	return nil
}

func (s *Scanner) fireStarted() {
	if s.onStarted != nil {
		s.onStarted(s.root)
	}
}

func (s *Scanner) fireProgress() {
	s.stats.SetsFound.Store(int64(s.index.SetsFound()))
	if s.onProgress != nil {
		s.onProgress(s.root, s.stats.FilesEncountered.Load(), s.stats.SetsFound.Load())
	}
}

func (s *Scanner) fireCompleted(fileCount, setsFound, spaceOccupied int64) {
	s.stats.FileCount.Store(fileCount)
	s.stats.SetsFound.Store(setsFound)
	s.stats.SpaceOccupied.Store(spaceOccupied)
	if s.onCompleted != nil {
		s.onCompleted(s.root, s.stats.FilesEncountered.Load(), fileCount, setsFound, spaceOccupied)
	}
}

func (s *Scanner) fireError(path string, err error) {
	if s.onError != nil {
		s.onError(s.root, path, err)
	}
}
