package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"council/internal/council"
	"council/internal/server"
	"council/internal/storage"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the council HTTP API",
	Long: `Serve exposes conversations and deliberations over HTTP, including
a server-sent-events endpoint that streams each stage of a deliberation
to the client as it happens.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides server.addr)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}

	logger, err := buildLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Close()

	store, err := storage.NewStore(cfg.Storage.DataDir)
	if err != nil {
		return err
	}

	orch := newOrchestrator(cfg, logger)
	client := newClient(cfg, logger)
	title := func(ctx context.Context, query string) string {
		return council.GenerateTitle(ctx, client, cfg.Council.TitleModel, query)
	}

	return server.New(cfg, store, orch, title, logger).Run(cfg.Server.Addr)
}
