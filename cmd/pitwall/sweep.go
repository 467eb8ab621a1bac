package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/trackside/pitwall/pkg/config"
	"github.com/trackside/pitwall/pkg/store/sqlite"
)

func newSweepCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Delete expired cache entries once and exit",
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

			n, err := store.SweepExpired(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("Deleted %d expired entries.\n", n)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "pitwall.yaml", "path to config file")
	return cmd
}
