package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/astromechza/ordered-todos/pkg/render"
	"github.com/astromechza/ordered-todos/pkg/todo"
)

var addOrder int64

var addCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Add an item to the end of the list",
	Long: `Add an item. Without --order the server places it after every existing item.

Examples:
  todos add "buy milk"
  todos add call the bank --order 0`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		title := strings.TrimSpace(strings.Join(args, " "))
		if title == "" {
			return fmt.Errorf("title cannot be empty")
		}
		var (
			item todo.Item
			err  error
		)
		if cmd.Flags().Changed("order") {
			c, cerr := newClient()
			if cerr != nil {
				return cerr
			}
			item, err = c.Create(cmd.Context(), title, &addOrder)
		} else {
			s, serr := getSession(cmd.Context())
			if serr != nil {
				return serr
			}
			item, err = s.Add(cmd.Context(), title)
		}
		if err != nil {
			return fmt.Errorf("failed to add item: %w", err)
		}
		return render.Item(cmd.OutOrStdout(), item, output)
	},
}

func init() {
	rootCmd.AddCommand(addCmd)
	addCmd.Flags().Int64Var(&addOrder, "order", 0, "explicit order key")
}
