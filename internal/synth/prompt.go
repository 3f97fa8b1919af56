package synth

import (
	"fmt"
	"strings"

	"github.com/pkarpov/verity/internal/model"
)

// buildDetectPrompt constructs the claim extraction prompt. The backend is
// asked for one claim per line; numbering is stripped during parsing.
func buildDetectPrompt(text string) string {
	return fmt.Sprintf(`Analyze the following text and extract all verifiable factual claims.
A verifiable claim is a statement that can be proven true or false with evidence.

Text: %q

Instructions:
- Extract only factual claims, not opinions or subjective statements
- Each claim should be atomic (one fact per claim)
- Include numerical claims, dates, names, and events
- Exclude rhetorical questions and hypothetical statements
- Return each claim on a new line

Verifiable Claims:`, text)
}

// buildVerifyPrompt constructs the verification prompt with the evidence
// block inlined. The response contract is strict JSON with a closed verdict
// set; anything outside the set is normalized to unverified downstream.
func buildVerifyPrompt(claim string, evidence []model.SearchResult) string {
	return fmt.Sprintf(`You are an expert fact-checker. Analyze the following claim against the provided evidence.

CLAIM TO VERIFY: %q

AVAILABLE EVIDENCE:
%s

TASK:
1. Determine the claim's veracity based on the evidence
2. Assign a confidence score (0.0 to 1.0)
3. Provide reasoning for your assessment

RESPONSE FORMAT (JSON):
{
    "verdict": "true|false|misleading|unverified",
    "confidence": 0.85,
    "reasoning": ["Key evidence point 1", "Key evidence point 2"],
    "primary_evidence_used": ["source1", "source2"],
    "contradictory_evidence": ["source3"]
}

GUIDELINES:
- "true": Claim is supported by reliable evidence
- "false": Claim is contradicted by reliable evidence
- "misleading": Claim contains some truth but misleads overall
- "unverified": Insufficient evidence to make determination

Respond only with valid JSON:`, claim, formatEvidence(evidence))
}

// buildExplainPrompt constructs the explanation prompt
func buildExplainPrompt(req ExplainRequest) string {
	var reasoning strings.Builder
	for _, r := range req.Reasoning {
		fmt.Fprintf(&reasoning, "- %s\n", r)
	}

	return fmt.Sprintf(`Create a clear, educational explanation for why this claim verification reached its conclusion.

CLAIM: %q
VERDICT: %s
CONFIDENCE: %.2f

SUPPORTING EVIDENCE:
%s

REASONING CHAIN:
%s

TASK: Write a comprehensive but accessible explanation that:
1. States the verdict clearly
2. Explains the key evidence considered
3. Describes why this conclusion was reached
4. Uses language appropriate for general audiences
5. Maintains neutral, factual tone

EXPLANATION:`, req.Claim, req.Verdict, req.Confidence, formatCitations(req.Citations), reasoning.String())
}

// formatEvidence renders the top evidence sources for the verification
// prompt. Capped at five sources with truncated excerpts to bound tokens.
func formatEvidence(evidence []model.SearchResult) string {
	if len(evidence) == 0 {
		return "(No evidence sources available)"
	}
	var b strings.Builder
	for i, src := range evidence {
		if i >= 5 {
			break
		}
		excerpt := src.Content
		if len(excerpt) > 200 {
			excerpt = excerpt[:200] + "..."
		}
		fmt.Fprintf(&b, "%d. %s (%s)\n   Credibility: %.2f, Relevance: %.2f\n   Content: %s\n   URL: %s\n",
			i+1, src.Title, src.Domain, src.CredibilityScore, src.RelevanceScore, excerpt, src.URL)
	}
	return b.String()
}

// formatCitations renders the top citations for the explanation prompt
func formatCitations(citations []model.Citation) string {
	if len(citations) == 0 {
		return "(No citations available)"
	}
	var b strings.Builder
	for i, c := range citations {
		if i >= 3 {
			break
		}
		fmt.Fprintf(&b, "%d. %s\n   Source: %s (Credibility: %.2f)\n   Excerpt: %s\n",
			i+1, c.Title, c.Domain, c.CredibilityScore, c.Excerpt)
	}
	return b.String()
}

// parseClaimLines extracts one claim per line from a detection response,
// stripping list numbering and bullet markers.
func parseClaimLines(text string) []string {
	var claims []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "Verifiable Claims:") {
			continue
		}
		line = strings.TrimLeft(line, "-*• ")
		if idx := strings.Index(line, ". "); idx > 0 && isDigits(line[:idx]) {
			line = line[idx+2:]
		}
		if line != "" {
			claims = append(claims, line)
		}
	}
	return claims
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
