package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/astromechza/ordered-todos/pkg/client"
	"github.com/astromechza/ordered-todos/pkg/render"
	"github.com/astromechza/ordered-todos/pkg/todo"
)

var editCmd = &cobra.Command{
	Use:   "edit <ref> <title>",
	Short: "Change the title of an item",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := getSession(cmd.Context())
		if err != nil {
			return err
		}
		item, err := s.Resolve(args[0])
		if err != nil {
			return err
		}
		updated, err := s.Rename(cmd.Context(), item.ID, strings.Join(args[1:], " "))
		if err != nil {
			return err
		}
		return render.Item(cmd.OutOrStdout(), updated, output)
	},
}

func completionCmd(use, short string, completed bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <ref>...",
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := getSession(cmd.Context())
			if err != nil {
				return err
			}
			// refs are positions in the list as loaded, so resolve all of them before writing
			items, err := resolveAll(s, args)
			if err != nil {
				return err
			}
			for _, item := range items {
				if _, err := s.SetCompleted(cmd.Context(), item.ID, completed); err != nil {
					return err
				}
			}
			return render.Items(cmd.OutOrStdout(), s.Items(), output)
		},
	}
}

var removeCmd = &cobra.Command{
	Use:     "rm <ref>...",
	Aliases: []string{"delete"},
	Short:   "Delete items",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := getSession(cmd.Context())
		if err != nil {
			return err
		}
		items, err := resolveAll(s, args)
		if err != nil {
			return err
		}
		for _, item := range items {
			if err := s.Remove(cmd.Context(), item.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Deleted %q\n", item.Title)
		}
		return nil
	},
}

func resolveAll(s *client.Session, refs []string) ([]todo.Item, error) {
	items := make([]todo.Item, 0, len(refs))
	for _, ref := range refs {
		item, err := s.Resolve(ref)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func init() {
	rootCmd.AddCommand(
		editCmd,
		completionCmd("done", "Mark items completed", true),
		completionCmd("undone", "Mark items not completed", false),
		removeCmd,
	)
}
