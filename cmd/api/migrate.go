package main

import (
	"errors"
	"fmt"

	"taskflow/internal/migrations"

	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back database migrations",
	}
	cmd.AddCommand(migrateStepCmd("up", "Apply all pending migrations", migrations.Up))
	cmd.AddCommand(migrateStepCmd("down", "Roll back all migrations", migrations.Down))
	return cmd
}

func migrateStepCmd(use, short string, run func(databaseURL string) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cfg.Database.URL == "" {
				return errors.New("database url is not configured")
			}
			if err := run(cfg.Database.URL); err != nil {
				return fmt.Errorf("migrate %s: %w", use, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "migrate %s: done\n", use)
			return nil
		},
	}
}
