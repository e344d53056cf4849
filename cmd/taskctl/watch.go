package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/lucasvital/todocomplete/internal/app"
	"github.com/lucasvital/todocomplete/internal/config"
	"github.com/lucasvital/todocomplete/internal/domain"
	"github.com/lucasvital/todocomplete/internal/feed"
	"github.com/lucasvital/todocomplete/internal/repo"
	"github.com/lucasvital/todocomplete/internal/store"
	"github.com/lucasvital/todocomplete/internal/utils"
	"github.com/lucasvital/todocomplete/internal/view"

	"github.com/spf13/cobra"
)

func watchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [email]",
		Short: "Print a user's todos every time they change",
		Long: `Bind a store to the given user and print the filtered todo view on
every snapshot until interrupted.

Examples:
  taskctl watch alice@example.com
  taskctl watch alice@example.com --status active --sort priority`,
		Args: cobra.ExactArgs(1),
		RunE: runWatch,
	}
	cmd.Flags().StringP("query", "q", "", "search text")
	cmd.Flags().String("status", "all", "all, active or completed")
	cmd.Flags().String("sort", string(view.SortCreatedAt), "createdAt, priority, dueDate or text")
	cmd.Flags().String("list", "", "only todos of this list ID")
	return cmd
}

func runWatch(cmd *cobra.Command, args []string) error {
	query, _ := cmd.Flags().GetString("query")
	status, _ := cmd.Flags().GetString("status")
	sortBy, _ := cmd.Flags().GetString("sort")
	listID, _ := cmd.Flags().GetString("list")
	f := view.Filter{
		Query:  query,
		Status: view.Status(strings.ToUpper(status)),
		SortBy: view.SortKey(sortBy),
		ListID: listID,
	}

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

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	user, err := repo.NewPGUserRepo(db).GetByEmail(ctx, utils.NormalizeEmail(args[0]))
	if err != nil {
		return fmt.Errorf("user %s: %w", args[0], err)
	}

	s := store.New(app.NewRemote(cfg, db, rdb))
	s.Bind(ctx, user.Identity())
	defer s.Close()

	var seen uint64
	for {
		updates := s.Updates()
		st := s.State(feed.KindTodos)
		switch {
		case st.Status == store.StatusFailed:
			return st.Err
		case st.Status == store.StatusReady && st.Version != seen:
			seen = st.Version
			printTodos(cmd.OutOrStdout(), view.Todos(s.Todos(), f))
		}
		select {
		case <-ctx.Done():
			return nil
		case <-updates:
		}
	}
}

func printTodos(w io.Writer, todos []domain.Todo) {
	fmt.Fprintf(w, "-- %s, %d todo(s)\n", time.Now().Format(time.TimeOnly), len(todos))
	for _, t := range todos {
		mark := " "
		if t.Completed {
			mark = "x"
		}
		due := ""
		if t.DueDate != nil {
			due = " due " + t.DueDate.Format(time.DateOnly)
		}
		fmt.Fprintf(w, "[%s] %-6s %s%s\n", mark, t.Priority, t.Text, due)
	}
}
