package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/recall/internal/adapters/driving/httpapi"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Start the JSON HTTP API under /v1. Prometheus metrics are served at
/metrics and a health check at /healthz.

The listen address defaults to server.addr from the configuration.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var serveAddr string

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	addr := serveAddr
	if addr == "" && settingsService != nil {
		if settings, err := settingsService.Get(); err == nil {
			addr = settings.Server.Addr
		}
	}
	if addr == "" {
		return errors.New("no listen address: pass --addr or set server.addr")
	}

	server, err := httpapi.NewServer(&httpapi.Ports{
		Indexer:   indexerService,
		Retriever: retrieverService,
		Document:  documentService,
	}, metricsHandler)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd.PrintErrf("Listening on http://%s\n", addr)
	if err := server.Run(ctx, addr); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
