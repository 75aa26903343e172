package scanner

import (
	"github.com/rgrossmann/dupescan/internal/pathpolicy"
)

// OnStarted fires once, before the root directory is first enumerated.
type OnStarted func(root string)

// OnProgress fires after every regular file whose content key was computed
// and offered to the index; a file whose digest fails fires OnError instead.
type OnProgress func(root string, filesEncountered, setsFound int64)

// OnCompleted fires once, after traversal and all pending hashing finish.
type OnCompleted func(root string, filesEncountered, fileCount, setsFound, spaceOccupied int64)

// OnError reports a per-item or per-directory error; the scan continues.
type OnError func(root, path string, err error)

// Config holds a scan's tuning: which files are visited, and what happens
// to duplicate sets that turn out to have only one member.
type Config struct {
	FollowSymlinks   bool
	SkipHidden       bool
	MinSize          int64
	MaxSize          int64
	Extensions       *pathpolicy.ExtensionSet
	RemoveSingletons bool
	Workers          int
}
