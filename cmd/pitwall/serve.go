package main

import (
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/trackside/pitwall/pkg/cache/local"
	"github.com/trackside/pitwall/pkg/config"
	"github.com/trackside/pitwall/pkg/maintenance"
	"github.com/trackside/pitwall/pkg/orchestrator"
	"github.com/trackside/pitwall/pkg/origin"
	"github.com/trackside/pitwall/pkg/policy"
	"github.com/trackside/pitwall/pkg/resolver"
	"github.com/trackside/pitwall/pkg/server"
	"github.com/trackside/pitwall/pkg/store/sqlite"
)

func newServeCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the caching proxy server",
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

			loc, closeLocal, err := buildLocal(cfg.Cache.Local)
			if err != nil {
				return err
			}
			defer closeLocal()

			pol := policy.New(nil)
			orch := orchestrator.New(
				pol,
				loc,
				store,
				origin.New(cfg.Origin.BaseURL, cfg.Origin.Timeout),
				orchestrator.WithMetrics(orchestrator.NewMetrics(nil)),
				orchestrator.WithDiagnosticLogging(cfg.Cache.DiagnosticLogging),
			)

			sweeper := maintenance.New(store, cfg.Sweep.Interval)
			sweeper.Start()
			defer sweeper.Stop()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			srv := server.New(cfg.Listen, orch, resolver.New(orch, pol), store)
			if err := srv.ListenAndServe(ctx); err != nil {
				return err
			}
			if err := orch.Wait(); err != nil {
				log.Printf("draining write-backs: %v", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "pitwall.yaml", "path to config file")
	return cmd
}

// buildLocal constructs the configured local cache tier.
func buildLocal(cfg config.LocalConfig) (local.Cache, func(), error) {
	switch cfg.Backend {
	case "redis":
		r := local.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		return r, func() { _ = r.Close() }, nil
	case "memory":
		m, err := local.NewMemory(cfg.MaxBytes)
		if err != nil {
			return nil, nil, fmt.Errorf("init local cache: %w", err)
		}
		return m, m.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown local cache backend %q", cfg.Backend)
	}
}
