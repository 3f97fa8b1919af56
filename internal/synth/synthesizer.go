package synth

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkarpov/verity/internal/model"
)

// Synthesizer defines the interface for verdict synthesis backends. One
// backend serves all three language tasks of the pipeline: claim detection,
// verification against evidence, and explanation generation.
type Synthesizer interface {
	// Name returns the backend name
	Name() string

	// DetectClaims extracts atomic, verifiable claims from free text.
	// Implementations must never return an empty slice without an error.
	DetectClaims(ctx context.Context, text string) ([]string, error)

	// Verify assesses a single claim against ranked evidence
	Verify(ctx context.Context, claim string, evidence []model.SearchResult) (*VerifyResult, error)

	// Explain generates a reader-facing explanation of a verdict
	Explain(ctx context.Context, req ExplainRequest) (*Explanation, error)

	// IsAvailable checks if the backend is properly configured and reachable
	IsAvailable(ctx context.Context) bool
}

// VerifyResult is a verdict with its supporting rationale
type VerifyResult struct {
	// Verdict is one of the closed verdict set
	Verdict model.Verdict

	// Confidence in [0,1]
	Confidence float64

	// Reasoning is the ordered chain of evidence points behind the verdict
	Reasoning []string

	// PrimaryEvidence names the sources the verdict rests on
	PrimaryEvidence []string

	// CounterEvidence names sources that contradict the claim, if any
	CounterEvidence []string
}

// ExplainRequest carries everything the explanation stage needs
type ExplainRequest struct {
	Claim      string
	Verdict    model.Verdict
	Confidence float64
	Reasoning  []string
	Citations  []model.Citation
}

// Explanation is the reader-facing output of the explanation stage
type Explanation struct {
	Text             string
	KeyPoints        []string
	ReadabilityScore float64

	// CitationsUsed holds the IDs of the citations referenced (top 3)
	CitationsUsed []string
}

// keyPoints filters a reasoning chain down to substantive points
func keyPoints(reasoning []string) []string {
	var points []string
	for _, reason := range reasoning {
		if len(reason) > 10 {
			points = append(points, reason)
		}
	}
	return points
}

// readabilityScore estimates accessibility from average sentence length.
// Fifteen words per sentence scores 1.0 and the score decays toward 0.1
// as sentences grow.
func readabilityScore(text string) float64 {
	words := len(strings.Fields(text))
	sentences := strings.Count(text, ".") + strings.Count(text, "!") + strings.Count(text, "?")
	if sentences == 0 {
		sentences = 1
	}
	score := 1.0 - (float64(words)/float64(sentences)-15)/20
	if score > 1.0 {
		score = 1.0
	}
	if score < 0.1 {
		score = 0.1
	}
	return score
}

// citationIDs returns the IDs of the top citations, capped at three
func citationIDs(citations []model.Citation) []string {
	var ids []string
	for i, c := range citations {
		if i >= 3 {
			break
		}
		ids = append(ids, c.ID)
	}
	return ids
}

// FallbackExplanation produces a minimal explanation when generation fails
func FallbackExplanation(verdict model.Verdict, confidence float64) *Explanation {
	text := fmt.Sprintf(
		"Based on our analysis, this claim appears to be %s. "+
			"Our system evaluated available evidence sources and reached this conclusion with %.0f%% confidence.",
		verdict, confidence*100)
	return &Explanation{
		Text:             text,
		KeyPoints:        []string{fmt.Sprintf("Claim classified as %s", verdict)},
		ReadabilityScore: 0.8,
	}
}
