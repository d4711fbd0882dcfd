package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/leadbook/internal/application"
	"github.com/JonMunkholm/leadbook/internal/config"
	"github.com/JonMunkholm/leadbook/internal/database"
)

func newMigrateCmd(envFile *string) *cobra.Command {
	var printOnly bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		Long:  "Apply the embedded schema to DATABASE_URL. Every statement is idempotent, so running it twice is safe.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if printOnly {
				_, err := fmt.Fprint(cmd.OutOrStdout(), database.Schema())
				return err
			}

			cfg, err := loadConfig(*envFile)
			if err != nil {
				return err
			}
			if cfg.Store != config.StorePostgres {
				return withCode(exitUsage, fmt.Errorf("migrate needs STORE=%s, got %q", config.StorePostgres, cfg.Store))
			}

			ctx := cmd.Context()
			pool, err := database.Connect(ctx, cfg.Database.URL, application.PoolOptions(cfg.Database))
			if err != nil {
				return withCode(exitRuntime, err)
			}
			defer pool.Close()

			if err := database.Migrate(ctx, pool); err != nil {
				return withCode(exitRuntime, err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schema applied")
			return nil
		},
	}
	cmd.Flags().BoolVar(&printOnly, "print", false, "Print the schema instead of applying it")
	return cmd
}
