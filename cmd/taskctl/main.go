// Command taskctl is the operator CLI: password hashes, migrations,
// one-off reminder runs and a live terminal view of a user's todos.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var Version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:     "taskctl",
		Short:   "taskctl - operate the todo backend",
		Version: Version,
	}

	rootCmd.AddCommand(hashCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(remindCmd())
	rootCmd.AddCommand(watchCmd())

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
