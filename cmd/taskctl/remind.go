package main

import (
	"fmt"

	"github.com/lucasvital/todocomplete/internal/app"
	"github.com/lucasvital/todocomplete/internal/config"
	"github.com/lucasvital/todocomplete/internal/reminder"
	"github.com/lucasvital/todocomplete/internal/repo"
	"github.com/lucasvital/todocomplete/internal/service"

	"github.com/spf13/cobra"
)

func remindCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remind",
		Short: "Send due reminders once and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			db, rdb, err := app.Connect(cfg)
			if err != nil {
				return err
			}
			defer db.Close()
			defer rdb.Close()

			users := service.NewUserService(repo.NewPGUserRepo(db))
			n, err := reminder.NewDispatcher(app.NewRemote(cfg, db, rdb), users).Run(cmd.Context())
			fmt.Fprintf(cmd.OutOrStdout(), "sent %d reminder(s)\n", n)
			return err
		},
	}
}
