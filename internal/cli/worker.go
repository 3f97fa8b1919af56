package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pkarpov/verity/internal/pipeline"
	"github.com/pkarpov/verity/internal/queue"
)

// workerCmd represents the worker command
var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run a background verification worker",
	Long: `Worker consumes queued claims from Kafka and runs each through the
verification pipeline. Delivery is at-least-once; the pipeline is
idempotent, so redeliveries of completed claims are no-ops. A claim whose
failure could not be recorded is redelivered and retries from the top;
recorded failures are terminal and visible through the claim status.

Run as many workers as the topic has partitions.

Example:
  verity worker
  verity worker --verbose`,
	RunE: runWorker,
}

func init() {
	rootCmd.AddCommand(workerCmd)
}

// claimHandler adapts the orchestrator to the queue consumer. Failures the
// pipeline recorded on the claim are terminal, so their offsets commit; only
// errors the store never saw propagate, leaving the offset uncommitted for
// redelivery.
type claimHandler struct {
	orchestrator *pipeline.Orchestrator
}

func (h *claimHandler) HandleClaim(ctx context.Context, msg queue.Message) error {
	err := h.orchestrator.Process(ctx, msg.ClaimID)
	if errors.Is(err, pipeline.ErrClaimFailed) {
		return nil
	}
	return err
}

func runWorker(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	if len(cfg.Queue.Brokers) == 0 {
		return fmt.Errorf("no kafka brokers configured; set queue.brokers")
	}

	st, err := buildStore(cfg)
	if err != nil {
		return fmt.Errorf("build store: %w", err)
	}
	defer func() { _ = st.Close() }()

	orchestrator, err := buildOrchestrator(cfg, st, logger)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	consumer, err := queue.NewKafkaConsumer(cfg.Queue, &claimHandler{orchestrator: orchestrator}, logger)
	if err != nil {
		return fmt.Errorf("build consumer: %w", err)
	}
	defer func() { _ = consumer.Close() }()

	if err := consumer.Start(ctx); err != nil {
		return fmt.Errorf("start consumer: %w", err)
	}
	logger.Info("worker consuming", "topic", cfg.Queue.Topic, "group", cfg.Queue.GroupID)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	sig := <-stop
	logger.Info("shutting down", "signal", sig.String())

	cancel()
	return nil
}
