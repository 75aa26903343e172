package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rgrossmann/dupescan/internal/progress"
	"github.com/rgrossmann/dupescan/internal/scanner"
	"github.com/rgrossmann/dupescan/internal/unique"
)

func newUniqueCmd() *cobra.Command {
	opts := defaultScanOptions()

	cmd := &cobra.Command{
		Use:   "unique <root>",
		Short: "List one representative path per distinct file content under root",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runUnique(args[0], opts)
		},
	}

	addCommonFlags(cmd, opts)

	return cmd
}

func runUnique(root string, opts *scanOptions) error {
	opts.keepSingletons = true // a singleton's own path is itself the representative

	cfg, err := newScannerConfig(opts)
	if err != nil {
		return err
	}

	s := scanner.New(cfg)

	errs := make(chan error, 100)
	go drainErrors(errs)
	defer close(errs)

	bar := progress.New(!opts.noProgress, -1)
	s.OnStarted(func(root string) { bar.Describe(s.Stats()) })
	s.OnProgress(func(root string, filesEncountered, setsFound int64) { bar.Describe(s.Stats()) })
	s.OnError(func(root, path string, err error) { errs <- fmt.Errorf("%s: %w", path, err) })

	if err := s.Scan(root, opts.recursive); err != nil {
		return err
	}
	bar.Finish(s.Stats())

	for _, p := range unique.Of(s.Index()) {
		fmt.Println(p)
	}
	return nil
}
