package synth

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/pkarpov/verity/internal/model"
)

// OfflineSynthesizer is a deterministic, network-free backend. It detects
// claims by sentence splitting and verifies them by fact-check ratings and
// lexical overlap with ranked evidence. It exists so the service degrades
// to predictable behavior when no LLM is configured, and so tests and the
// one-shot CLI never need credentials.
type OfflineSynthesizer struct{}

// NewOfflineSynthesizer creates the deterministic backend
func NewOfflineSynthesizer() *OfflineSynthesizer {
	return &OfflineSynthesizer{}
}

// Name returns the backend name
func (s *OfflineSynthesizer) Name() string {
	return "offline"
}

// IsAvailable always reports true: the backend has no external dependency
func (s *OfflineSynthesizer) IsAvailable(ctx context.Context) bool {
	return true
}

// DetectClaims splits text into declarative sentences. Questions and very
// short fragments are dropped; if nothing qualifies, the whole text is
// returned as a single claim.
func (s *OfflineSynthesizer) DetectClaims(ctx context.Context, text string) ([]string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("empty text")
	}

	var claims []string
	for _, sentence := range splitSentences(text) {
		if strings.HasSuffix(sentence, "?") {
			continue
		}
		if len(strings.Fields(sentence)) < 4 {
			continue
		}
		claims = append(claims, sentence)
	}
	if len(claims) == 0 {
		claims = []string{text}
	}
	return claims, nil
}

// Verify ranks evidence by combined score and derives the verdict from
// fact-check ratings when present, falling back to lexical overlap between
// the claim and the top sources.
func (s *OfflineSynthesizer) Verify(ctx context.Context, claim string, evidence []model.SearchResult) (*VerifyResult, error) {
	if len(evidence) == 0 {
		return &VerifyResult{
			Verdict:    model.VerdictUnverified,
			Confidence: 0.3,
			Reasoning:  []string{"No evidence sources were available for this claim"},
		}, nil
	}

	ranked := make([]model.SearchResult, len(evidence))
	copy(ranked, evidence)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].CombinedScore() > ranked[j].CombinedScore()
	})

	// Fact-check ratings from credible sources are the strongest signal
	for _, src := range ranked {
		if src.FactCheckRating == "" || src.CredibilityScore < 0.6 {
			continue
		}
		if verdict, ok := verdictFromRating(src.FactCheckRating); ok {
			return &VerifyResult{
				Verdict:    verdict,
				Confidence: clamp(0.6+0.3*src.CredibilityScore, 0, 0.95),
				Reasoning: []string{
					fmt.Sprintf("Fact-checker %s rates this claim %q", src.Domain, src.FactCheckRating),
					fmt.Sprintf("Source credibility %.2f, relevance %.2f", src.CredibilityScore, src.RelevanceScore),
				},
				PrimaryEvidence: []string{src.Domain},
			}, nil
		}
	}

	// Otherwise estimate support from lexical overlap with the top sources
	terms := contentTerms(claim)
	var support, weight float64
	var primary []string
	for i, src := range ranked {
		if i >= 3 {
			break
		}
		overlap := termOverlap(terms, src.Title+" "+src.Content)
		support += overlap * src.CredibilityScore
		weight += src.CredibilityScore
		primary = append(primary, src.Domain)
	}
	if weight == 0 {
		return &VerifyResult{
			Verdict:    model.VerdictUnverified,
			Confidence: 0.3,
			Reasoning:  []string{"Evidence sources lacked credibility scores"},
		}, nil
	}
	score := support / weight

	result := &VerifyResult{
		PrimaryEvidence: primary,
		Reasoning: []string{
			fmt.Sprintf("Lexical agreement with the top %d sources is %.2f", len(primary), score),
		},
	}
	switch {
	case score >= 0.6:
		result.Verdict = model.VerdictTrue
		result.Confidence = clamp(0.5+score/2, 0, 0.9)
		result.Reasoning = append(result.Reasoning, "Claim vocabulary is strongly represented in credible sources")
	case score >= 0.3:
		result.Verdict = model.VerdictUnverified
		result.Confidence = 0.5
		result.Reasoning = append(result.Reasoning, "Partial overlap with credible sources is insufficient for a verdict")
	default:
		result.Verdict = model.VerdictUnverified
		result.Confidence = 0.4
		result.Reasoning = append(result.Reasoning, "Available sources do not address the claim directly")
	}
	return result, nil
}

// Explain renders a templated explanation from the verdict and reasoning
func (s *OfflineSynthesizer) Explain(ctx context.Context, req ExplainRequest) (*Explanation, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "This claim has been assessed as %s with %.0f%% confidence. ", req.Verdict, req.Confidence*100)
	switch req.Verdict {
	case model.VerdictTrue:
		b.WriteString("The available evidence supports the claim. ")
	case model.VerdictFalse:
		b.WriteString("The available evidence contradicts the claim. ")
	case model.VerdictMisleading:
		b.WriteString("The claim contains elements of truth but creates a misleading impression overall. ")
	default:
		b.WriteString("The available evidence is insufficient to confirm or refute the claim. ")
	}
	for _, reason := range req.Reasoning {
		fmt.Fprintf(&b, "%s. ", strings.TrimSuffix(reason, "."))
	}
	if len(req.Citations) > 0 {
		fmt.Fprintf(&b, "See the cited sources, led by %s, for details.", req.Citations[0].Domain)
	}

	text := strings.TrimSpace(b.String())
	return &Explanation{
		Text:             text,
		KeyPoints:        keyPoints(req.Reasoning),
		ReadabilityScore: readabilityScore(text),
		CitationsUsed:    citationIDs(req.Citations),
	}, nil
}

// verdictFromRating maps common fact-checker rating vocabularies onto the
// closed verdict set.
func verdictFromRating(rating string) (model.Verdict, bool) {
	r := strings.ToLower(strings.TrimSpace(rating))
	switch {
	case r == "true" || r == "correct" || r == "accurate":
		return model.VerdictTrue, true
	case r == "false" || r == "pants-fire" || r == "pants on fire" || r == "incorrect" || r == "fake":
		return model.VerdictFalse, true
	case strings.Contains(r, "misleading") || strings.Contains(r, "mixture") ||
		strings.Contains(r, "half") || strings.Contains(r, "mostly false"):
		return model.VerdictMisleading, true
	case strings.Contains(r, "mostly true"):
		return model.VerdictTrue, true
	case strings.Contains(r, "unproven") || strings.Contains(r, "unverified"):
		return model.VerdictUnverified, true
	}
	return "", false
}

// splitSentences breaks text at terminal punctuation, keeping the terminator
func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder
	for _, r := range text {
		current.WriteRune(r)
		if r == '.' || r == '!' || r == '?' {
			if s := strings.TrimSpace(current.String()); s != "" {
				sentences = append(sentences, s)
			}
			current.Reset()
		}
	}
	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

// contentTerms lowercases and filters out short stopword-like tokens
func contentTerms(text string) map[string]bool {
	terms := make(map[string]bool)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		word = strings.Trim(word, ".,;:!?\"'()")
		if len(word) > 3 {
			terms[word] = true
		}
	}
	return terms
}

// termOverlap is the fraction of claim terms present in the source text
func termOverlap(terms map[string]bool, source string) float64 {
	if len(terms) == 0 {
		return 0
	}
	lower := strings.ToLower(source)
	hits := 0
	for term := range terms {
		if strings.Contains(lower, term) {
			hits++
		}
	}
	return float64(hits) / float64(len(terms))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
