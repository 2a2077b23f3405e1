package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/parley-dev/parley/internal/chat"
	"github.com/parley-dev/parley/internal/config"
	"github.com/parley-dev/parley/internal/negotiation"
	"github.com/parley-dev/parley/internal/summary"
	"github.com/parley-dev/parley/internal/webapi"
	"github.com/parley-dev/parley/internal/webserver"
)

func newServeCommand() *cobra.Command {
	var (
		port        int
		corsOrigins []string
		noPacing    bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the negotiation HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			creds := config.FromEnv()
			if !creds.HasCredentials() {
				slog.Warn("no API keys configured; negotiation requests will fail",
					"env", config.EnvPrimaryKey)
			}

			engineOpts := []negotiation.Option{}
			if noPacing {
				engineOpts = append(engineOpts, negotiation.WithPacing(0, 0))
			}

			handlers := webapi.NewHandlers(
				creds,
				chat.NewGeminiProvider(),
				negotiation.New(engineOpts...),
				summary.New(chat.NewGeminiCompleter(creds.PrimaryKey, summary.Model)),
				nil,
			)

			srv := webserver.New(webserver.Config{
				Addr:           fmt.Sprintf(":%d", port),
				AllowedOrigins: corsOrigins,
			}, handlers)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return srv.ListenAndServe(ctx)
		},
	}

	cmd.Flags().IntVar(&port, "port", 8080, "Port to listen on")
	cmd.Flags().StringSliceVar(&corsOrigins, "cors-origin", nil, "Origins allowed to call the API (repeatable)")
	cmd.Flags().BoolVar(&noPacing, "no-pacing", false, "Disable the pause between turns")

	return cmd
}
