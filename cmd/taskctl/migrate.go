package main

import (
	"fmt"

	"github.com/lucasvital/todocomplete/internal/migrations"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/spf13/cobra"
)

// dbConfig is the part of the API config migrations need.
type dbConfig struct {
	DSN string `env:"PG_DSN" env-required:"true"`
}

func loadDSN() (string, error) {
	var cfg dbConfig
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return "", fmt.Errorf("read env: %w", err)
	}
	return cfg.DSN, nil
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or inspect database migrations",
		Long: `Apply pending migrations to the database in PG_DSN.

Examples:
  taskctl migrate
  taskctl migrate --status`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dsn, err := loadDSN()
			if err != nil {
				return err
			}
			if status, _ := cmd.Flags().GetBool("status"); status {
				return migrations.Status(dsn)
			}
			if err := migrations.Up(dsn); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}
	cmd.Flags().Bool("status", false, "print migration status instead of applying")
	return cmd
}
