package main

import (
	"fmt"
	"math"
	"os"
	"runtime"

	"github.com/dustin/go-humanize"

	"github.com/rgrossmann/dupescan/internal/pathpolicy"
	"github.com/rgrossmann/dupescan/internal/scanner"
)

// scanOptions holds the CLI flags shared by scan and unique.
type scanOptions struct {
	recursive       bool
	followSymlinks  bool
	skipHidden      bool
	minSizeStr      string
	maxSizeStr      string
	extensions      []string
	keepSingletons  bool
	workers         int
	noProgress      bool
	jsonOutput      bool
}

func defaultScanOptions() *scanOptions {
	return &scanOptions{
		recursive:  true,
		minSizeStr: "0",
		maxSizeStr: "",
		workers:    runtime.NumCPU(),
	}
}

// parseSize parses a human-readable size string ("100", "1K", "1MiB") into
// bytes. An empty string means "no bound" and is the caller's job to map
// onto the right sentinel.
func parseSize(s string) (int64, error) {
	if s == "" {
		return 0, nil
	}
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, err
	}
	return int64(n), nil
}

// newScannerConfig builds a scanner.Config from parsed CLI options.
func newScannerConfig(opts *scanOptions) (scanner.Config, error) {
	minSize, err := parseSize(opts.minSizeStr)
	if err != nil {
		return scanner.Config{}, fmt.Errorf("invalid --min-size: %w", err)
	}

	var maxSize int64 = math.MaxInt64
	if opts.maxSizeStr != "" {
		maxSize, err = parseSize(opts.maxSizeStr)
		if err != nil {
			return scanner.Config{}, fmt.Errorf("invalid --max-size: %w", err)
		}
	}

	exts := pathpolicy.NewExtensionSet(opts.extensions...)

	return scanner.Config{
		FollowSymlinks:   opts.followSymlinks,
		SkipHidden:       opts.skipHidden,
		MinSize:          minSize,
		MaxSize:          maxSize,
		Extensions:       exts,
		RemoveSingletons: !opts.keepSingletons,
		Workers:          opts.workers,
	}, nil
}

// drainErrors consumes errors from a channel and writes them to stderr.
// Clears the progress bar line before printing to avoid visual collision.
func drainErrors(errs <-chan error) {
	for err := range errs {
		fmt.Fprintf(os.Stderr, "\r\033[Kerror: %v\n", err)
	}
}
