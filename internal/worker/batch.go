package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/pkarpov/verity/internal/model"
)

// Verifier runs the verification pipeline over a single claim text
type Verifier interface {
	VerifyText(ctx context.Context, text string) (*model.VerificationResult, error)
}

// VerifyJob verifies one claim text
type VerifyJob struct {
	Text     string
	Verifier Verifier
}

// Execute runs the verification and wraps the outcome
func (j *VerifyJob) Execute(ctx context.Context) Result {
	result, err := j.Verifier.VerifyText(ctx, j.Text)
	return &VerifyOutcome{
		Text:   j.Text,
		Result: result,
		Error:  err,
	}
}

// VerifyOutcome is the result of verifying one claim text
type VerifyOutcome struct {
	Text   string
	Result *model.VerificationResult
	Error  error
}

// GetError returns the error from the outcome
func (o *VerifyOutcome) GetError() error {
	return o.Error
}

// BatchProcessor verifies many claim texts concurrently
type BatchProcessor struct {
	verifier    Verifier
	concurrency int
}

// NewBatchProcessor creates a batch processor with the given concurrency
func NewBatchProcessor(verifier Verifier, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		verifier:    verifier,
		concurrency: concurrency,
	}
}

// ProcessTexts verifies claim texts concurrently. Outcomes arrive in
// completion order, one per input.
func (b *BatchProcessor) ProcessTexts(ctx context.Context, texts []string) []*VerifyOutcome {
	if len(texts) == 0 {
		return []*VerifyOutcome{}
	}

	pool := NewPool(b.concurrency)
	pool.Start()

	// Submit from a separate goroutine: the pool's channels are bounded,
	// so a batch larger than the buffers would block Submit before Wait
	// ever got to drain.
	go func() {
		for _, text := range texts {
			pool.Submit(&VerifyJob{
				Text:     text,
				Verifier: b.verifier,
			})
		}
		pool.Close()
	}()

	results := pool.Wait()

	outcomes := make([]*VerifyOutcome, len(results))
	for i, result := range results {
		outcomes[i] = result.(*VerifyOutcome)
	}
	return outcomes
}

// ProcessFile reads claim texts from a file and verifies them concurrently
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*VerifyOutcome, error) {
	texts, err := ReadClaimsFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read claims: %w", err)
	}
	return b.ProcessTexts(ctx, texts), nil
}

// ReadClaimsFromFile reads claim texts from a file, one per line. Blank
// lines and #-comments are skipped; duplicate lines are kept once.
func ReadClaimsFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var texts []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !seen[line] {
			seen[line] = true
			texts = append(texts, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return texts, nil
}
