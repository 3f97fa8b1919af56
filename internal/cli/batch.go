package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/pkarpov/verity/internal/model"
	"github.com/pkarpov/verity/internal/pipeline"
	"github.com/pkarpov/verity/internal/store"
	"github.com/pkarpov/verity/internal/worker"
)

var (
	batchConcurrency int
	batchOutputDir   string
	batchTimeout     time.Duration
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Verify multiple claims from a file in parallel",
	Long: `Batch verifies claims concurrently:
- Read claims from input file (one per line, # comments skipped)
- Verify claims in parallel with configurable worker count
- Write one JSON result file per claim

Example:
  verity batch claims.txt
  verity batch claims.txt --concurrency 8 --output-dir ./results
  verity batch claims.txt --timeout 15m`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&batchConcurrency, "concurrency", runtime.NumCPU(), "number of concurrent workers")
	batchCmd.Flags().StringVar(&batchOutputDir, "output-dir", "./verity-results", "output directory for result files")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 10*time.Minute, "total timeout for batch processing")
}

// inlineVerifier adapts the orchestrator to the batch Verifier interface:
// each text becomes a transient claim in the shared in-memory store.
type inlineVerifier struct {
	store        store.Store
	orchestrator *pipeline.Orchestrator
}

func (v *inlineVerifier) VerifyText(ctx context.Context, text string) (*model.VerificationResult, error) {
	claim := &model.Claim{
		ID:          uuid.NewString(),
		Text:        text,
		Language:    "auto",
		Priority:    model.PriorityNormal,
		Status:      model.StatusSubmitted,
		SubmittedAt: time.Now(),
		UpdatedAt:   time.Now(),
	}
	if err := v.store.SaveClaim(ctx, claim); err != nil {
		return nil, fmt.Errorf("save claim: %w", err)
	}
	if err := v.orchestrator.Process(ctx, claim.ID); err != nil {
		return nil, err
	}
	return v.store.GetVerification(ctx, claim.ID)
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	st := store.NewMemoryStore()
	orchestrator, err := buildOrchestrator(cfg, st, logger)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(batchOutputDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	verifier := &inlineVerifier{store: st, orchestrator: orchestrator}
	processor := worker.NewBatchProcessor(verifier, batchConcurrency)

	started := time.Now()
	outcomes, err := processor.ProcessFile(ctx, args[0])
	if err != nil {
		return err
	}

	succeeded := 0
	for i, outcome := range outcomes {
		if outcome.Error != nil {
			fmt.Fprintf(os.Stderr, "FAILED  %q: %v\n", outcome.Text, outcome.Error)
			continue
		}
		succeeded++

		path := filepath.Join(batchOutputDir, fmt.Sprintf("claim-%03d.json", i+1))
		if err := writeResultFile(path, outcome.Result); err != nil {
			return err
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "%-12s %q -> %s\n", outcome.Result.Verdict, outcome.Text, path)
		}
	}

	fmt.Fprintf(os.Stderr, "\nVerified %d/%d claims in %v (results in %s)\n",
		succeeded, len(outcomes), time.Since(started).Round(time.Millisecond), batchOutputDir)
	if succeeded < len(outcomes) {
		return fmt.Errorf("%d of %d claims failed", len(outcomes)-succeeded, len(outcomes))
	}
	return nil
}

func writeResultFile(path string, result *model.VerificationResult) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write result: %w", err)
	}
	return nil
}
