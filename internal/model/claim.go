package model

import "time"

// ClaimStatus tracks the claim lifecycle
type ClaimStatus string

const (
	StatusSubmitted  ClaimStatus = "submitted"  // Persisted, not yet picked up
	StatusProcessing ClaimStatus = "processing" // Pipeline run in progress
	StatusCompleted  ClaimStatus = "completed"  // Terminal: verification result exists
	StatusFailed     ClaimStatus = "failed"     // Terminal: error message set
)

// Priority selects the processing path at intake
type Priority string

const (
	PriorityNormal Priority = "normal" // Queued for background processing
	PriorityHigh   Priority = "high"   // Processed inline by the submitting request
)

// ParsePriority normalizes a priority string, defaulting to normal
func ParsePriority(s string) Priority {
	if s == string(PriorityHigh) {
		return PriorityHigh
	}
	return PriorityNormal
}

// Claim is the mutable claim record. Created by intake, mutated only by the
// pipeline during processing, immutable once completed.
type Claim struct {
	ID          string      `json:"claim_id"`
	Text        string      `json:"text,omitempty"`         // Submitted text, if any
	ImageRef    string      `json:"image_ref,omitempty"`    // Stored image reference, if any
	SourceURL   string      `json:"source_url,omitempty"`   // Where the claim was found
	Language    string      `json:"language"`               // Declared language (ISO 639-1)
	Priority    Priority    `json:"priority"`
	UserID      string      `json:"user_id,omitempty"`      // Empty for anonymous submissions
	Status      ClaimStatus `json:"status"`
	SubmittedAt time.Time   `json:"submitted_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
	Error       string      `json:"error,omitempty"` // Set when status is failed

	// Denormalized summary fields, set at completion for history listings
	Verdict    Verdict   `json:"verdict,omitempty"`
	Confidence float64   `json:"confidence_score,omitempty"`
	HarmLevel  HarmLevel `json:"harm_level,omitempty"`
}

// ClaimSummary is the history-listing projection of a claim
type ClaimSummary struct {
	ID          string      `json:"claim_id"`
	TextPreview string      `json:"text,omitempty"` // First 100 chars of the claim text
	Status      ClaimStatus `json:"status"`
	SubmittedAt time.Time   `json:"submitted_at"`
	Verdict     Verdict     `json:"verdict,omitempty"`
	Confidence  float64     `json:"confidence_score,omitempty"`
	HarmLevel   HarmLevel   `json:"harm_level,omitempty"`
}

const previewLength = 100

// Summary builds the history projection of the claim
func (c *Claim) Summary() ClaimSummary {
	preview := c.Text
	if len(preview) > previewLength {
		preview = preview[:previewLength] + "..."
	}
	return ClaimSummary{
		ID:          c.ID,
		TextPreview: preview,
		Status:      c.Status,
		SubmittedAt: c.SubmittedAt,
		Verdict:     c.Verdict,
		Confidence:  c.Confidence,
		HarmLevel:   c.HarmLevel,
	}
}

// Verdict classifies a claim's truthfulness. The set is closed: anything a
// synthesizer returns outside it is normalized to unverified.
type Verdict string

const (
	VerdictTrue       Verdict = "true"
	VerdictFalse      Verdict = "false"
	VerdictMisleading Verdict = "misleading"
	VerdictUnverified Verdict = "unverified"
)

// NormalizeVerdict maps free-form synthesizer output onto the closed verdict
// set, defaulting to unverified
func NormalizeVerdict(s string) Verdict {
	switch Verdict(s) {
	case VerdictTrue, VerdictFalse, VerdictMisleading, VerdictUnverified:
		return Verdict(s)
	default:
		return VerdictUnverified
	}
}

// ClampScore restricts a score to [0, 1]
func ClampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
