package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rgrossmann/dupescan/internal/digest"
	"github.com/rgrossmann/dupescan/internal/dupeset"
	"github.com/rgrossmann/dupescan/internal/progress"
	"github.com/rgrossmann/dupescan/internal/scanner"
)

func addCommonFlags(cmd *cobra.Command, opts *scanOptions) {
	cmd.Flags().BoolVarP(&opts.recursive, "recursive", "r", opts.recursive, "Descend into subdirectories")
	cmd.Flags().BoolVar(&opts.followSymlinks, "follow-symlinks", false, "Follow symbolic links")
	cmd.Flags().BoolVar(&opts.skipHidden, "skip-hidden", false, "Skip dotfiles and dot-directories")
	cmd.Flags().StringVar(&opts.minSizeStr, "min-size", opts.minSizeStr, "Minimum file size (e.g., 100, 1K, 10M, 1G)")
	cmd.Flags().StringVar(&opts.maxSizeStr, "max-size", opts.maxSizeStr, "Maximum file size (empty means unbounded)")
	cmd.Flags().StringSliceVar(&opts.extensions, "ext", nil, "Restrict the scan to these extensions (repeatable)")
	cmd.Flags().IntVarP(&opts.workers, "workers", "w", opts.workers, "Number of concurrent hashing workers")
	cmd.Flags().BoolVar(&opts.noProgress, "no-progress", false, "Disable the progress spinner")
}

func newScanCmd() *cobra.Command {
	opts := defaultScanOptions()

	cmd := &cobra.Command{
		Use:   "scan <root>",
		Short: "Report duplicate-file sets under root",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runScan(args[0], opts)
		},
	}

	addCommonFlags(cmd, opts)
	cmd.Flags().BoolVar(&opts.keepSingletons, "keep-singletons", false, "Retain files with no duplicate in the final report")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Print duplicate sets as a JSON array instead of plain text")

	return cmd
}

func runScan(root string, opts *scanOptions) error {
	cfg, err := newScannerConfig(opts)
	if err != nil {
		return err
	}

	s := scanner.New(cfg)

	errs := make(chan error, 100)
	go drainErrors(errs)
	defer close(errs)

	bar := progress.New(!opts.noProgress, -1)
	s.OnStarted(func(root string) {
		bar.Describe(s.Stats())
	})
	s.OnProgress(func(root string, filesEncountered, setsFound int64) {
		bar.Describe(s.Stats())
	})
	s.OnError(func(root, path string, err error) {
		errs <- fmt.Errorf("%s: %w", path, err)
	})

	if err := s.Scan(root, opts.recursive); err != nil {
		return err
	}
	bar.Finish(s.Stats())

	if opts.jsonOutput {
		return printSetsJSON(s.Index())
	}
	printSets(s.Index())
	return nil
}

// printSets writes one duplicate set per blank-line-separated block, paths
// in filename order, to stdout.
func printSets(idx *dupeset.Index) {
	idx.Each(func(_ digest.Key, set *dupeset.Set) {
		if set.Len() < 2 {
			return
		}
		for _, p := range set.Paths() {
			fmt.Println(p)
		}
		fmt.Println()
	})
}

// duplicateSet is the JSON shape of one reported set.
type duplicateSet struct {
	Size  int64    `json:"size"`
	Paths []string `json:"paths"`
}

// printSetsJSON writes every multi-member set as a single JSON array to
// stdout.
func printSetsJSON(idx *dupeset.Index) error {
	sets := []duplicateSet{}
	idx.Each(func(key digest.Key, set *dupeset.Set) {
		if set.Len() < 2 {
			return
		}
		sets = append(sets, duplicateSet{Size: key.Size, Paths: set.Paths()})
	})

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(sets)
}
