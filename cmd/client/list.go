package main

import (
	"github.com/spf13/cobra"

	"github.com/astromechza/ordered-todos/pkg/render"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List items in order",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := getSession(cmd.Context())
		if err != nil {
			return err
		}
		return render.Items(cmd.OutOrStdout(), s.Items(), output)
	},
}

var showCmd = &cobra.Command{
	Use:   "show <ref>",
	Short: "Show a single item",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := getSession(cmd.Context())
		if err != nil {
			return err
		}
		item, err := s.Resolve(args[0])
		if err != nil {
			return err
		}
		return render.Item(cmd.OutOrStdout(), item, output)
	},
}

func init() {
	rootCmd.AddCommand(listCmd, showCmd)
}
