package model

// HarmLevel is the severity tier of potential real-world damage from a
// claim's spread
type HarmLevel string

const (
	HarmHarmless    HarmLevel = "harmless"
	HarmBasic       HarmLevel = "basic"
	HarmVeryHarmful HarmLevel = "very_harmful"
)

// HarmClassification is the output of the harm engine. Computed once per
// claim from (claim text, verdict); embedded in the verification result.
type HarmClassification struct {
	Level              HarmLevel `json:"level"`
	Confidence         float64   `json:"confidence"`          // [0,1]
	SeverityScore      float64   `json:"severity_score"`      // Verdict-adjusted, [0,1]
	RiskFactors        []string  `json:"risk_factors"`        // Human-readable, capped at 5
	SuggestedActions   []string  `json:"suggested_actions"`   // Tiered by level, capped at 4
	EscalationRequired bool      `json:"escalation_required"`
	Reasoning          string    `json:"reasoning"`
}
