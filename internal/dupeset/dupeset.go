// Package dupeset implements the duplicate-set index: a thread-safe keyed
// map from content key to an ordered set of paths, with singleton pruning
// and deterministic bidirectional iteration. A path is rejected outright if
// its device+inode identity was already indexed under any key, so no set
// ever holds two paths referring to the same on-disk object.
package dupeset

import (
	"sort"
	"sync"

	"github.com/rgrossmann/dupescan/internal/digest"
	"github.com/rgrossmann/dupescan/internal/order"
)

// Identity identifies an on-disk object by device and inode.
type Identity struct {
	Dev uint64
	Ino uint64
}

// Set is an ordered collection of paths that share a content key, plus the
// principal: the first path inserted, used as the unique-files
// representative regardless of sort order.
type Set struct {
	principal string
	paths     []string
	orderer   *order.Orderer
}

func newSet(first string, o *order.Orderer) *Set {
	return &Set{principal: first, paths: []string{first}, orderer: o}
}

// insert places path into the set's sorted position. Exact duplicate
// canonical paths are no-ops.
func (s *Set) insert(path string) {
	i := sort.Search(len(s.paths), func(i int) bool {
		return !s.orderer.Less(s.paths[i], path)
	})
	if i < len(s.paths) && s.paths[i] == path {
		return
	}
	s.paths = append(s.paths, "")
	copy(s.paths[i+1:], s.paths[i:])
	s.paths[i] = path
}

// Len returns the number of distinct paths in the set.
func (s *Set) Len() int { return len(s.paths) }

// Paths returns the set's paths in filename order.
func (s *Set) Paths() []string {
	out := make([]string, len(s.paths))
	copy(out, s.paths)
	return out
}

// Principal returns the first path inserted into the set.
func (s *Set) Principal() string { return s.principal }

// Index is the thread-safe keyed grouping of paths by content key.
type Index struct {
	mu        sync.Mutex
	sets      map[digest.Key]*Set
	seen      map[Identity]bool
	setsFound int
	orderer   *order.Orderer
}

// New creates an empty Index using orderer for within-set path ordering.
// A nil orderer uses order.New().
func New(orderer *order.Orderer) *Index {
	if orderer == nil {
		orderer = order.New()
	}
	return &Index{
		sets:    make(map[digest.Key]*Set),
		seen:    make(map[Identity]bool),
		orderer: orderer,
	}
}

// Insert looks up key under the index's single mutex; if absent, creates a
// new set with path as its principal. If present, inserts path into the
// existing set. A path whose device+inode identity was already indexed
// under any key is rejected outright.
//
// Returns true the moment a set first reaches size 2 (sets_found increments
// exactly once, under the same lock as the insert that caused it).
func (x *Index) Insert(key digest.Key, path string, id Identity) bool {
	x.mu.Lock()
	defer x.mu.Unlock()

	if x.seen[id] {
		return false
	}
	x.seen[id] = true

	s, ok := x.sets[key]
	if !ok {
		x.sets[key] = newSet(path, x.orderer)
		return false
	}

	wasSingle := s.Len() == 1
	s.insert(path)
	if wasSingle && s.Len() >= 2 {
		x.setsFound++
		return true
	}
	return false
}

// SetsFound returns the number of keys that have reached size >= 2.
func (x *Index) SetsFound() int {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.setsFound
}

// PruneSingletons removes every key whose set has size 1.
func (x *Index) PruneSingletons() {
	x.mu.Lock()
	defer x.mu.Unlock()
	for k, s := range x.sets {
		if s.Len() < 2 {
			delete(x.sets, k)
		}
	}
}

// Len returns the number of retained sets.
func (x *Index) Len() int {
	x.mu.Lock()
	defer x.mu.Unlock()
	return len(x.sets)
}

// Get returns the set for key, if present.
func (x *Index) Get(key digest.Key) (*Set, bool) {
	x.mu.Lock()
	defer x.mu.Unlock()
	s, ok := x.sets[key]
	return s, ok
}

// sortedKeys returns all keys ascending by (Size, Hex).
func (x *Index) sortedKeys() []digest.Key {
	keys := make([]digest.Key, 0, len(x.sets))
	for k := range x.sets {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
	return keys
}

// Each calls fn for every retained set, in ascending (Size, Hex) key order.
func (x *Index) Each(fn func(key digest.Key, set *Set)) {
	x.mu.Lock()
	keys := x.sortedKeys()
	sets := make(map[digest.Key]*Set, len(keys))
	for _, k := range keys {
		sets[k] = x.sets[k]
	}
	x.mu.Unlock()

	for _, k := range keys {
		fn(k, sets[k])
	}
}

// Cursor provides bidirectional traversal over a point-in-time snapshot of
// the index's keys, in ascending (Size, Hex) order.
type Cursor struct {
	keys []digest.Key
	sets []*Set
	pos  int // index of the "current" element; -1 before the first Next()
}

// Cursor takes a snapshot of the index and returns a Cursor positioned
// before the first element.
func (x *Index) Cursor() *Cursor {
	x.mu.Lock()
	defer x.mu.Unlock()
	keys := x.sortedKeys()
	sets := make([]*Set, len(keys))
	for i, k := range keys {
		sets[i] = x.sets[k]
	}
	return &Cursor{keys: keys, sets: sets, pos: -1}
}

// Next advances the cursor and returns the next (key, set) pair, or
// ok=false if the cursor is exhausted.
func (c *Cursor) Next() (digest.Key, *Set, bool) {
	if c.pos+1 >= len(c.keys) {
		return digest.Key{}, nil, false
	}
	c.pos++
	return c.keys[c.pos], c.sets[c.pos], true
}

// Prev moves the cursor backward and returns the previous (key, set) pair,
// or ok=false if already at the start.
func (c *Cursor) Prev() (digest.Key, *Set, bool) {
	if c.pos <= 0 {
		c.pos = -1
		return digest.Key{}, nil, false
	}
	c.pos--
	return c.keys[c.pos], c.sets[c.pos], true
}
