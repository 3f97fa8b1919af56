package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/pkarpov/verity/internal/api"
	"github.com/pkarpov/verity/internal/media"
	"github.com/pkarpov/verity/internal/queue"
)

var serveAddr string

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the claim intake HTTP API",
	Long: `Serve runs the intake service: claim submission, verification
retrieval, and per-user history.

Normal-priority claims are handed to Kafka for background workers;
high-priority claims are verified inline. If no brokers are configured
the service processes everything inline.

Example:
  verity serve
  verity serve --addr :9090`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}
	logger := newLogger(cfg)

	st, err := buildStore(cfg)
	if err != nil {
		return fmt.Errorf("build store: %w", err)
	}
	defer func() { _ = st.Close() }()

	orchestrator, err := buildOrchestrator(cfg, st, logger)
	if err != nil {
		return err
	}

	var publisher queue.Publisher
	if len(cfg.Queue.Brokers) > 0 {
		publisher, err = queue.NewKafkaPublisher(cfg.Queue)
		if err != nil {
			logger.Warn("kafka unavailable, all claims will process inline", "error", err)
			publisher = nil
		} else {
			defer func() { _ = publisher.Close() }()
		}
	}

	var uploader media.Uploader = media.NoopUploader{}
	if cfg.Media.Bucket != "" {
		uploader, err = media.NewS3Uploader(context.Background(), cfg.Media)
		if err != nil {
			return fmt.Errorf("build image storage: %w", err)
		}
	}

	server := api.NewServer(api.ServerOptions{
		Store:          st,
		Publisher:      publisher,
		Uploader:       uploader,
		Processor:      orchestrator,
		Logger:         logger,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	})

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("intake API listening", "addr", cfg.Server.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case sig := <-stop:
		logger.Info("shutting down", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
