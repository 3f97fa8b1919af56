package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/pkarpov/verity/internal/model"
	"github.com/pkarpov/verity/internal/store"
)

var (
	checkTimeout  time.Duration
	checkLanguage string
	checkJSON     bool
)

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check <claim text>",
	Short: "Verify a single claim from the command line",
	Long: `Check runs one claim through the full verification pipeline and
prints the verdict, harm classification, and explanation.

The claim is processed in memory; nothing is persisted. Without an
OpenAI key and a knowledge-base URL configured, verification runs in
offline mode against whatever evidence is available.

Example:
  verity check "Drinking bleach cures covid"
  verity check --json "The Eiffel Tower is in Berlin"
  verity check --language es "La tierra es plana"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().DurationVar(&checkTimeout, "timeout", 2*time.Minute, "overall verification timeout")
	checkCmd.Flags().StringVar(&checkLanguage, "language", "en", "claim language (ISO 639-1)")
	checkCmd.Flags().BoolVar(&checkJSON, "json", false, "print the full result as JSON")
}

func runCheck(cmd *cobra.Command, args []string) error {
	text := strings.TrimSpace(strings.Join(args, " "))
	if text == "" {
		return fmt.Errorf("claim text is required")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), checkTimeout)
	defer cancel()

	st := store.NewMemoryStore()
	orchestrator, err := buildOrchestrator(cfg, st, logger)
	if err != nil {
		return err
	}

	claim := &model.Claim{
		ID:          uuid.NewString(),
		Text:        text,
		Language:    checkLanguage,
		Priority:    model.PriorityHigh,
		Status:      model.StatusSubmitted,
		SubmittedAt: time.Now(),
		UpdatedAt:   time.Now(),
	}
	if err := st.SaveClaim(ctx, claim); err != nil {
		return fmt.Errorf("save claim: %w", err)
	}
	if err := orchestrator.Process(ctx, claim.ID); err != nil {
		return fmt.Errorf("verification failed: %w", err)
	}

	result, err := st.GetVerification(ctx, claim.ID)
	if err != nil {
		return fmt.Errorf("load result: %w", err)
	}

	if checkJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	printResult(result)
	return nil
}

// printResult renders a verification result for terminal reading
func printResult(result *model.VerificationResult) {
	fmt.Printf("Claim:      %s\n", result.OriginalClaim)
	if result.TranslatedClaim != "" {
		fmt.Printf("Translated: %s\n", result.TranslatedClaim)
	}
	fmt.Printf("Verdict:    %s (%.0f%% confidence)\n", result.Verdict, result.Confidence*100)
	fmt.Printf("Harm:       %s (severity %.2f)\n", result.Harm.Level, result.Harm.SeverityScore)
	if result.Harm.EscalationRequired {
		fmt.Printf("Escalation: required\n")
	}
	fmt.Println()

	fmt.Println(result.Explanation)

	if len(result.ReasoningChain) > 0 {
		fmt.Println("\nReasoning:")
		for _, reason := range result.ReasoningChain {
			fmt.Printf("  - %s\n", reason)
		}
	}
	if len(result.Harm.RiskFactors) > 0 {
		fmt.Println("\nRisk factors:")
		for _, factor := range result.Harm.RiskFactors {
			fmt.Printf("  - %s\n", factor)
		}
	}
	if len(result.SuggestedActions) > 0 {
		fmt.Println("\nSuggested actions:")
		for _, action := range result.SuggestedActions {
			fmt.Printf("  - %s\n", action)
		}
	}
	if len(result.Citations) > 0 {
		fmt.Println("\nSources:")
		for _, citation := range result.Citations {
			fmt.Printf("  - %s (%s, credibility %.2f)\n", citation.Title, citation.Domain, citation.CredibilityScore)
			fmt.Printf("    %s\n", citation.URL)
		}
	}
	fmt.Printf("\nProcessed in %.1fs across %d steps\n", result.ProcessingTime, len(result.Steps))
}
