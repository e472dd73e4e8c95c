package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/ppiankov/estatuto/internal/server"
)

var listenAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the pipeline stages over HTTP",
	Long: `Serve exposes every stage as a JSON endpoint under /v1:

  POST /v1/normalize        {"raw", "url", "content_type"}
  POST /v1/segment          {"text"}
  POST /v1/ementa           {"html", "label", "elements"}
  POST /v1/validate         {"elements"}
  POST /v1/validate/stream  {"elements"}  (text/event-stream)
  POST /v1/correct          {"elements", "verdicts", "raw"}
  POST /v1/acts             {"html", "base_url", "act_type"}
  POST /v1/process          {"raw" | "url", "content_type", "ementa"}

Example:
  estatuto serve --listen :8080 --database-url postgres://localhost/estatuto`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&listenAddr, "listen", "", "listen address (default: config server.listen)")
	addFetchFlags(serveCmd)
	addPipelineFlags(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := configFor(cmd)
	if err != nil {
		return err
	}
	if listenAddr != "" {
		cfg.Server.Listen = listenAddr
	}

	p, closeStore, err := buildPipeline(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	srv := server.New(p, cfg.Server)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Listen()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
