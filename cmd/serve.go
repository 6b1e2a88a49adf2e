package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/victornm/quizconv/internal/errors"
	"github.com/victornm/quizconv/internal/server"
)

func (a *app) serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve conversions over HTTP and gRPC",
		Long: `Serve conversions over HTTP and gRPC.

The server reads its configuration from --config or $CONFIG_PATH. Every key
can be overridden from the environment with the QUIZCONV_ prefix, for example
QUIZCONV_HTTP_PORT=9090.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGTERM, os.Interrupt)
			defer stop()

			s, err := server.Init(a.config)
			if err != nil {
				return errors.Internal(err)
			}

			done := make(chan error, 1)
			go func() {
				done <- s.Start()
			}()

			select {
			case <-ctx.Done():
				slog.InfoContext(ctx, "server: shutting down")
				s.Shutdown()
				return nil
			case err := <-done:
				s.Shutdown()
				if err != nil {
					return errors.Internal(err)
				}
				return nil
			}
		},
	}
}
