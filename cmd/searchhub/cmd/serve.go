package cmd

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/seiforesti/searchhub/internal/server"
)

// newServeCmd creates the serve command.
func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP search API",
		Long: `Serve exposes the engine to the console over HTTP:

  POST /api/search    run a federated query
  GET  /api/suggest   query suggestions for a prefix
  POST /api/click     record result engagement
  GET  /api/sources   list sources visible to the caller
  GET  /api/metrics   local search telemetry
  GET  /health        liveness probe`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, cleanup, err := buildApp()
			if err != nil {
				return err
			}
			defer cleanup()

			if addr != "" {
				app.cfg.Server.Addr = addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			srv := server.New(app.cfg.Server, app.sessions, app.engine,
				app.suggest, app.history, app.metrics)
			return srv.Run(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides config)")

	return cmd
}
