package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/triadlabs/triad/internal/api"
	"github.com/triadlabs/triad/internal/api/handlers"
	"github.com/triadlabs/triad/pkg/config"
	"github.com/triadlabs/triad/pkg/logger"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Starts the REST API server.

Endpoints:
  GET  /health     - Health check
  POST /api/run    - Execute a consensus run
  GET  /api/runs   - List persisted runs

Example:
  go run ./cmd/triad serve
  go run ./cmd/triad serve --port 8091`,
	RunE: runServer,
}

var servePort string

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&servePort, "port", "", "API server port (default from PORT)")
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if servePort != "" {
		cfg.Port = servePort
	}
	log := logger.New(cfg)

	rt, err := buildRuntime(cfg, log)
	if err != nil {
		return err
	}
	defer rt.close()

	var lister handlers.RunLister
	if rt.store != nil {
		lister = rt.store
	}
	runHandler := handlers.NewRunHandler(rt.service, lister, defaultTickers, log)
	router := api.NewRouter(runHandler, log)
	server := api.New(cfg, log, router)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		log.WithField("signal", sig.String()).Info("Shutdown signal received")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return server.Shutdown(ctx)
}
