package cli

import (
	"github.com/railzwaylabs/sagalog/internal/app"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var migrateFirst bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API, the pipeline processor and the recoverer",
		Long: "Start the HTTP API, the pipeline processor and the recoverer.\n\n" +
			"This binary registers no transition handlers. Handlers are application code: an " +
			"embedding program passes them to app.RunServer, e.g. " +
			"app.RunServer(fx.Invoke(func(r *transition.Registry) { r.MustRegister(...) })). " +
			"Without them every event fails as UnknownTransition until it reaches " +
			"PIPELINE_MAX_ATTEMPTS; the server logs a warning at startup.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if migrateFirst {
				if err := app.RunMigrations("up"); err != nil {
					return err
				}
			}

			app.RunServer()
			return nil
		},
	}

	cmd.Flags().BoolVar(&migrateFirst, "migrate", false, "Apply pending schema migrations before starting")

	return cmd
}
