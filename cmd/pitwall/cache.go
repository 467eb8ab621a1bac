package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/trackside/pitwall/pkg/config"
	"github.com/trackside/pitwall/pkg/store/sqlite"
)

func newCacheCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the durable cache",
	}

	var expiredOnly bool
	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Clear cache entries",
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

			if expiredOnly {
				n, err := store.SweepExpired(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Printf("Cleared %d expired entries.\n", n)
				return nil
			}
			if err := store.Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Println("All cache entries cleared.")
			return nil
		},
	}
	clearCmd.Flags().BoolVar(&expiredOnly, "expired", false, "only clear expired entries")

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "pitwall.yaml", "path to config file")
	cmd.AddCommand(clearCmd)
	return cmd
}
