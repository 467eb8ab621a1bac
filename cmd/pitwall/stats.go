package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/trackside/pitwall/pkg/config"
	"github.com/trackside/pitwall/pkg/store/sqlite"
)

func newStatsCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show cache totals and the 7-day per-entity rollup",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			store, err := sqlite.New(cfg.DBPath)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			st, err := store.Stats(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Printf("Entries:         %d\n", st.Entries)
			fmt.Printf("Total size:      %d bytes\n", st.TotalSizeBytes)
			fmt.Printf("Total hits:      %d\n", st.TotalHits)
			fmt.Printf("Expired pending: %d\n", st.ExpiredPending)

			if len(st.PerEntity) == 0 {
				return nil
			}
			fmt.Println("\nLast 7 days by entity type:")
			fmt.Printf("%-16s %10s %8s %8s %8s %10s\n", "ENTITY", "REQUESTS", "HITS", "MISSES", "ERRORS", "AVG MS")
			for _, ea := range st.PerEntity {
				fmt.Printf("%-16s %10d %8d %8d %8d %10.1f\n",
					ea.EntityType, ea.TotalRequests, ea.CacheHits, ea.CacheMisses, ea.Errors, ea.AvgResponseTimeMS)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "pitwall.yaml", "path to config file")
	return cmd
}
