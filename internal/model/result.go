package model

import "time"

// StepKind discriminates the processing step variants
type StepKind string

const (
	StepOCR			StepKind = "ocr"
	StepTranslation		StepKind = "translation"
	StepDetection		StepKind = "claim_detection"
	StepRetrieval		StepKind = "knowledge_retrieval"
	StepVerification	StepKind = "verification"
	StepHarm		StepKind = "harm_classification"
	StepExplanation		StepKind = "explanation"
)

// StepStatus is the terminal state of a single pipeline step
type StepStatus string

const (
	StepCompleted	StepStatus = "completed"
	StepDegraded	StepStatus = "degraded" // Completed with a caveat, original input carried forward
	StepFailed	StepStatus = "failed"
)

// ProcessingStep is one record in a claim's processing trail. Exactly one of
// the detail fields is set, matching Kind.
type ProcessingStep struct {
	Kind        StepKind   `json:"step"`
	Status      StepStatus `json:"status"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt time.Time  `json:"completed_at"`
	Confidence  *float64   `json:"confidence,omitempty"`
	Error       string     `json:"error_message,omitempty"`

	OCR          *OCRStepDetail          `json:"ocr,omitempty"`
	Translation  *TranslationStepDetail  `json:"translation,omitempty"`
	Detection    *DetectionStepDetail    `json:"detection,omitempty"`
	Retrieval    *RetrievalStepDetail    `json:"retrieval,omitempty"`
	Verification *VerificationStepDetail `json:"verification,omitempty"`
	Harm         *HarmStepDetail         `json:"harm,omitempty"`
	Explanation  *ExplanationStepDetail  `json:"explanation,omitempty"`
}

// OCRStepDetail records text extraction from a submitted image
type OCRStepDetail struct {
	ExtractedLength  int    `json:"extracted_text_length"`
	DetectedLanguage string `json:"detected_language,omitempty"`
	BlockCount       int    `json:"block_count,omitempty"`
}

// TranslationStepDetail records translation into the working language
type TranslationStepDetail struct {
	SourceLanguage   string `json:"source_language"`
	TargetLanguage   string `json:"target_language"`
	TranslatedLength int    `json:"translated_length"`
	Caveat           string `json:"caveat,omitempty"` // Set when translation degraded
}

// DetectionStepDetail records atomic claim extraction
type DetectionStepDetail struct {
	ClaimsFound int      `json:"claims_found"`
	Claims      []string `json:"claims,omitempty"`
	Fallback    bool     `json:"fallback,omitempty"` // Whole text treated as one claim
}

// RetrievalStepDetail records knowledge-base search
type RetrievalStepDetail struct {
	SourcesFound int `json:"sources_found"`
}

// VerificationStepDetail records verdict synthesis
type VerificationStepDetail struct {
	Verdict Verdict `json:"verdict"`
}

// HarmStepDetail records harm classification
type HarmStepDetail struct {
	Level HarmLevel `json:"harm_level"`
}

// ExplanationStepDetail records explanation generation
type ExplanationStepDetail struct {
	Length    int    `json:"explanation_length"`
	KeyPoints int    `json:"key_points"`
	Caveat    string `json:"caveat,omitempty"`
}

// Citation is a supporting evidence unit with source scoring
type Citation struct {
	ID               string     `json:"id"`
	Title            string     `json:"title"`
	URL              string     `json:"url"`
	Domain           string     `json:"domain"`
	CredibilityScore float64    `json:"credibility_score"` // [0,1]
	RelevanceScore   float64    `json:"relevance_score"`   // [0,1]
	Excerpt          string     `json:"excerpt"`
	FactCheckRating  string     `json:"fact_check_rating,omitempty"`
	PublishedAt      *time.Time `json:"published_date,omitempty"`
}

// VerificationResult is the terminal artifact of the pipeline. Created
// exactly once per claim, at completion; immutable afterwards.
type VerificationResult struct {
	ClaimID         string   `json:"claim_id"`
	OriginalClaim   string   `json:"original_claim"`
	TranslatedClaim string   `json:"translated_claim,omitempty"`
	Verdict         Verdict  `json:"verdict"`
	Confidence      float64  `json:"confidence_score"` // [0,1]

	Harm HarmClassification `json:"harm"`

	Explanation    string     `json:"explanation"`
	ReasoningChain []string   `json:"reasoning_chain"`
	Citations      []Citation `json:"citations"`                  // At most 3
	CounterEvidence []Citation `json:"counter_evidence,omitempty"`

	SuggestedActions   []string `json:"suggested_actions"`
	EscalationTriggers []string `json:"escalation_triggers,omitempty"`

	Steps          []ProcessingStep `json:"processing_steps"`
	ProcessingTime float64          `json:"processing_time_seconds"`
	ProcessedAt    time.Time        `json:"processed_at"`
}
