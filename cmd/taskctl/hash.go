package main

import (
	"fmt"

	"github.com/lucasvital/todocomplete/internal/service"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
)

func hashCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hash [password]",
		Short: "Print the bcrypt hash stored for a password",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			password := "admin"
			if len(args) > 0 {
				password = args[0]
			}
			cost, _ := cmd.Flags().GetInt("cost")
			h, err := service.HashPassword(password, cost)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), h)
			return nil
		},
	}
	cmd.Flags().Int("cost", bcrypt.DefaultCost, "bcrypt cost")
	return cmd
}
