package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/raphaelgruber/crawlkit/internal/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP crawl service",
	Long: `Run the HTTP service exposing the crawl pipeline.

Endpoints:
  POST   /api/crawl          start a crawl, returns a task id
  GET    /api/crawl/{id}     poll crawl progress
  GET    /api/crawl/{id}/ws  stream crawl progress over a websocket
  DELETE /api/crawl/{id}     cancel a running crawl
  GET    /api/sources        list crawled sources
  DELETE /api/sources/{id}   delete a source and its chunks
  GET    /api/stats          operation timing statistics
  GET    /health             liveness check`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from CRAWLKIT_LISTEN_ADDR)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	orch, registry, err := buildOrchestrator(ctx)
	if err != nil {
		return err
	}

	addr := serveAddr
	if addr == "" {
		addr = cfg.ListenAddr
	}

	srv := server.New(orch, registry, dbClient, logger)
	return srv.ListenAndServe(ctx, addr)
}
