package main

import (
	"github.com/spf13/cobra"

	"github.com/astromechza/ordered-todos/pkg/client"
	"github.com/astromechza/ordered-todos/pkg/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Open the interactive list",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		return tui.Run(cmd.Context(), client.NewSession(c))
	},
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}
