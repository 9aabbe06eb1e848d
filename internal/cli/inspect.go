package cli

import (
	"github.com/spf13/cobra"

	"github.com/railzwaylabs/sagalog/internal/app"
)

func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <event-id>",
		Short: "Print a stored transition event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Inspect(cmd.Context(), args[0], cmd.OutOrStdout())
		},
	}
}
