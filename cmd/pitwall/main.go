package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	root := &cobra.Command{
		Use:     "pitwall",
		Short:   "Pitwall — immutability-aware caching proxy for motorsport timing data",
		Version: version,
	}

	root.AddCommand(
		newServeCmd(),
		newSweepCmd(),
		newStatsCmd(),
		newCacheCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
