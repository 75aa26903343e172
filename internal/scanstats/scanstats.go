// Package scanstats accumulates the running counters for a scan:
// files encountered, the files/sets/bytes occupied by duplicates, and
// elapsed time, using atomic counters so walker and worker goroutines can
// update them without lock contention.
package scanstats

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
)

// Stats tracks scan progress and final results using atomic counters so
// walker and worker goroutines can update them without lock contention.
type Stats struct {
	FilesEncountered atomic.Int64
	FileCount        atomic.Int64
	SetsFound        atomic.Int64
	SpaceOccupied    atomic.Int64
	StartTime        time.Time
}

// New returns a Stats with StartTime set to now.
func New() *Stats {
	return &Stats{StartTime: time.Now()}
}

// String renders a human-readable progress line.
func (s *Stats) String() string {
	return fmt.Sprintf("Encountered %d files, %d sets found, %s occupied by duplicates, in %.1fs",
		s.FilesEncountered.Load(), s.SetsFound.Load(),
		humanize.IBytes(uint64(s.SpaceOccupied.Load())),
		time.Since(s.StartTime).Seconds())
}
