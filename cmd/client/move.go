package main

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/astromechza/ordered-todos/pkg/render"
	"github.com/astromechza/ordered-todos/pkg/todo"
)

var moveCmd = &cobra.Command{
	Use:   "move <ref> <position>",
	Short: "Move an item to a 1-based position in the list",
	Long: `Move an item and renumber the whole list densely on the server. Items changed by someone
else since the list was loaded are reported and left as the server has them.

Examples:
  todos move 5 1
  todos move 3f2a 2`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := getSession(cmd.Context())
		if err != nil {
			return err
		}
		item, err := s.Resolve(args[0])
		if err != nil {
			return err
		}
		pos, err := strconv.Atoi(args[1])
		if err != nil || pos < 1 {
			return fmt.Errorf("position must be a positive integer, got %q", args[1])
		}
		results, err := s.Move(cmd.Context(), s.IndexOf(item.ID), pos-1)
		if err != nil {
			return err
		}
		failed := 0
		for _, r := range results {
			if r.Status != todo.ReorderOK {
				failed++
				slog.Warn("item not reordered", "id", r.ID, "status", r.Status)
			}
		}
		if failed > 0 {
			fmt.Fprintf(cmd.ErrOrStderr(), "%d item(s) changed on the server, showing the server's order\n", failed)
			if err := s.Sync(cmd.Context()); err != nil {
				return err
			}
		}
		return render.Items(cmd.OutOrStdout(), s.Items(), output)
	},
}

func init() {
	rootCmd.AddCommand(moveCmd)
}
