package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/UnknownOlympus/anvesh/internal/apikey"
	"github.com/UnknownOlympus/anvesh/internal/config"
	"github.com/UnknownOlympus/anvesh/internal/export"
	"github.com/UnknownOlympus/anvesh/internal/repository"
	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg := config.MustLoad()
			return repository.Migrate(repository.DSN(cfg.Database), setupLogger(cfg.Env))
		},
	}
}

func keysCmd() *cobra.Command {
	keys := &cobra.Command{Use: "keys", Short: "Manage API keys"}

	var tier string
	var expiresInDays int
	create := &cobra.Command{
		Use:   "create <name>",
		Short: "Create an API key and print it once",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.MustLoad()
			logger := setupLogger(cfg.Env)
			pool, err := repository.NewDatabase(cmd.Context(), cfg.Database, logger)
			if err != nil {
				return err
			}
			defer pool.Close()

			svc := apikey.NewService(repository.NewRepository(pool, logger), cfg.APIKeyPrefix, logger)
			created, err := svc.Create(cmd.Context(), args[0], tier, expiresInDays)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Created API key %d (%s, tier %s)\n", created.ID, created.Name, created.Tier)
			fmt.Fprintf(out, "Key: %s\n", created.Key)
			fmt.Fprintln(out, "Store it now, it cannot be shown again.")
			return nil
		},
	}
	create.Flags().StringVar(&tier, "tier", "free", "key tier: free, pro or enterprise")
	create.Flags().IntVar(&expiresInDays, "expires-in-days", 0, "days until the key expires, 0 for never")

	list := &cobra.Command{
		Use:   "list",
		Short: "List API keys",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.MustLoad()
			logger := setupLogger(cfg.Env)
			pool, err := repository.NewDatabase(cmd.Context(), cfg.Database, logger)
			if err != nil {
				return err
			}
			defer pool.Close()

			all, err := apikey.NewService(repository.NewRepository(pool, logger), cfg.APIKeyPrefix, logger).
				List(cmd.Context())
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tPREFIX\tTIER\tLIMIT\tACTIVE\tCREATED")
			for _, key := range all {
				fmt.Fprintf(tw, "%d\t%s\t%s...\t%s\t%d\t%t\t%s\n", key.ID, key.Name, key.KeyPrefix, key.Tier,
					key.MonthlyLimit, key.IsActive, key.CreatedAt.Format(time.DateOnly))
			}
			return tw.Flush()
		},
	}

	keys.AddCommand(create, list)
	return keys
}

func exportCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export all stored leads to a CSV file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.MustLoad()
			logger := setupLogger(cfg.Env)
			pool, err := repository.NewDatabase(cmd.Context(), cfg.Database, logger)
			if err != nil {
				return err
			}
			defer pool.Close()

			leads, err := repository.NewRepository(pool, logger).ListLeads(cmd.Context())
			if err != nil {
				return err
			}
			if err = export.WriteFile(out, leads); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d leads to %s\n", len(leads), out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "leads_export.csv", "output file")
	return cmd
}
