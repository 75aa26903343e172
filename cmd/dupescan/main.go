package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	os.Exit(run())
}

func run() int {
	root := &cobra.Command{
		Use:     "dupescan",
		Short:   "Find byte-identical files under a directory tree",
		Version: version + " (" + commit + ")",
	}

	root.AddCommand(newScanCmd())
	root.AddCommand(newUniqueCmd())

	if err := root.Execute(); err != nil {
		return 1
	}
	return 0
}
