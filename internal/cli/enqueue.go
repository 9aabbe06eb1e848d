package cli

import (
	"github.com/spf13/cobra"

	"github.com/railzwaylabs/sagalog/internal/app"
)

func newEnqueueCmd() *cobra.Command {
	var transactionID string

	cmd := &cobra.Command{
		Use:   "enqueue <transition> [args...]",
		Short: "Record a new transition event for the pipeline",
		Long: "Record a new transition event for the pipeline. Arguments that parse as JSON " +
			"are stored as JSON values, anything else as a string.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Enqueue(cmd.Context(), transactionID, args[0], args[1:], cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&transactionID, "tx", "", "Transaction ID (generated when empty)")

	return cmd
}
