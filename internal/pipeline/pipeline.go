package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/pkarpov/verity/internal/evidence"
	"github.com/pkarpov/verity/internal/harm"
	"github.com/pkarpov/verity/internal/model"
	"github.com/pkarpov/verity/internal/store"
	"github.com/pkarpov/verity/internal/synth"
)

/// ErrNoTextFound marks a claim that yielded no verifiable text: nothing was
// submitted, or OCR came back empty.
var ErrNoTextFound = errors.New("no text found in submission")

// ErrClaimFailed marks a pipeline failure that was durably recorded on the
// claim. Queue consumers treat these as terminal and commit the offset: the
// failure is already visible through the claim status, and re-running would
// fail the same way. Errors not wrapping ErrClaimFailed mean the failure
// could not be recorded, so redelivery is the retry.
var ErrClaimFailed = errors.New("claim failed")

// TextExtractor pulls text out of a stored claim image
type TextExtractor interface {
	ExtractText(ctx context.Context, imageRef string) (*model.OCRResult, error)
}

// Translator converts text into the pipeline's working language. On failure
// it returns the original text along with the error.
type Translator interface {
	Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error)
}

// Searcher retrieves ranked evidence for a claim
type Searcher interface {
	Search(ctx context.Context, query string) ([]model.SearchResult, error)
}

// Enricher fills in evidence excerpts that the search backend omitted
type Enricher interface {
	Enrich(ctx context.Context, claim string, results []model.SearchResult) []model.SearchResult
}

// Orchestrator drives a claim through the verification stages in order,
// persisting the step trail and the terminal result. Collaborators are
// injected; the orchestrator owns only sequencing, state transitions, and
// failure policy.
type Orchestrator struct {
	store       store.Store
	extractor   TextExtractor
	translator  Translator
	searcher    Searcher
	enricher    Enricher
	synthesizer synth.Synthesizer
	classifier  *harm.Classifier
	logger      *slog.Logger

	workingLanguage string
	stageTimeout    time.Duration

	inflight *keyedMutex
}

// Options configures an Orchestrator
type Options struct {
	Store       store.Store
	Extractor   TextExtractor
	Translator  Translator
	Searcher    Searcher
	Enricher    Enricher
	Synthesizer synth.Synthesizer
	Classifier  *harm.Classifier
	Logger      *slog.Logger

	WorkingLanguage string
	StageTimeout    time.Duration
}

// NewOrchestrator wires an orchestrator from its collaborators
func NewOrchestrator(opts Options) *Orchestrator {
	if opts.WorkingLanguage == "" {
		opts.WorkingLanguage = "en"
	}
	if opts.StageTimeout <= 0 {
		opts.StageTimeout = 45 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Classifier == nil {
		opts.Classifier = harm.NewClassifier(nil)
	}

	return &Orchestrator{
		store:           opts.Store,
		extractor:       opts.Extractor,
		translator:      opts.Translator,
		searcher:        opts.Searcher,
		enricher:        opts.Enricher,
		synthesizer:     opts.Synthesizer,
		classifier:      opts.Classifier,
		logger:          opts.Logger,
		workingLanguage: opts.WorkingLanguage,
		stageTimeout:    opts.StageTimeout,
		inflight:        newKeyedMutex(),
	}
}

// Process runs the full verification pipeline for one claim. It is safe
// under at-least-once queue redelivery: a completed claim is a no-op, a
// redelivery of an in-flight claim waits for the running instance, and a
// stuck or failed claim re-runs from the top, recomputing the step trail.
func (o *Orchestrator) Process(ctx context.Context, claimID string) error {
	o.inflight.Lock(claimID)
	defer o.inflight.Unlock(claimID)

	claim, err := o.store.GetClaim(ctx, claimID)
	if err != nil {
		return fmt.Errorf("load claim %s: %w", claimID, err)
	}
	if claim.Status == model.StatusCompleted {
		o.logger.Info("claim already completed, skipping", "claim_id", claimID)
		return nil
	}

	claim.Status = model.StatusProcessing
	claim.Error = ""
	claim.UpdatedAt = time.Now()
	if err := o.store.UpdateClaim(ctx, claim); err != nil {
		return fmt.Errorf("mark claim processing: %w", err)
	}

	result, runErr := o.run(ctx, claim)
	if runErr != nil {
		o.logger.Error("pipeline failed", "claim_id", claimID, "error", runErr)
		claim.Status = model.StatusFailed
		claim.Error = runErr.Error()
		claim.UpdatedAt = time.Now()
		if err := o.store.UpdateClaim(ctx, claim); err != nil {
			return fmt.Errorf("mark claim failed: %w", err)
		}
		return errors.Join(ErrClaimFailed, runErr)
	}

	if err := o.finalize(ctx, claim, result); err != nil {
		return err
	}

	o.logger.Info("claim verified",
		"claim_id", claimID,
		"verdict", result.Verdict,
		"harm_level", result.Harm.Level,
		"duration_seconds", result.ProcessingTime)
	return nil
}

// run executes the stage sequence and assembles the verification result.
// Degradable stages record a caveat and continue; essential stages return
// an error that fails the claim.
func (o *Orchestrator) run(ctx context.Context, claim *model.Claim) (*model.VerificationResult, error) {
	started := time.Now()
	var steps []model.ProcessingStep

	// Stage 1: text acquisition
	text, language, ocrStep, err := o.acquireText(ctx, claim)
	if ocrStep != nil {
		steps = append(steps, *ocrStep)
	}
	if err != nil {
		return nil, err
	}

	// Stage 2: translation (degrades to the original text)
	workingText, translationStep := o.translate(ctx, text, language)
	if translationStep != nil {
		steps = append(steps, *translationStep)
	}

	// Stage 3: claim detection (degrades to the whole text as one claim)
	claims, detectionStep := o.detectClaims(ctx, workingText)
	steps = append(steps, detectionStep)
	primaryClaim := claims[0]

	// Stage 4: evidence retrieval
	sources, retrievalStep, err := o.retrieveEvidence(ctx, primaryClaim)
	steps = append(steps, retrievalStep)
	if err != nil {
		return nil, err
	}

	// Stage 5: verdict synthesis
	verification, verificationStep, err := o.verify(ctx, primaryClaim, sources)
	steps = append(steps, verificationStep)
	if err != nil {
		return nil, err
	}

	// Stage 6: harm classification (never fails)
	harmStart := time.Now()
	classification := o.classifier.Classify(workingText, verification.Verdict)
	steps = append(steps, model.ProcessingStep{
		Kind:        model.StepHarm,
		Status:      model.StepCompleted,
		StartedAt:   harmStart,
		CompletedAt: time.Now(),
		Confidence:  &classification.Confidence,
		Harm:        &model.HarmStepDetail{Level: classification.Level},
	})

	// Stage 7: explanation (degrades to a templated explanation)
	citations := topCitations(sources)
	explanation, explanationStep := o.explain(ctx, primaryClaim, verification, citations)
	steps = append(steps, explanationStep)

	// Stage 8: assemble the terminal artifact
	result := &model.VerificationResult{
		ClaimID:            claim.ID,
		OriginalClaim:      text,
		Verdict:            verification.Verdict,
		Confidence:         model.ClampScore(verification.Confidence),
		Harm:               classification,
		Explanation:        explanation.Text,
		ReasoningChain:     verification.Reasoning,
		Citations:          citations,
		CounterEvidence:    counterCitations(sources, verification.CounterEvidence),
		SuggestedActions:   classification.SuggestedActions,
		EscalationTriggers: escalationTriggers(classification),
		Steps:              steps,
		ProcessingTime:     time.Since(started).Seconds(),
		ProcessedAt:        time.Now(),
	}
	if workingText != text {
		result.TranslatedClaim = workingText
	}

	return result, nil
}

// finalize persists the write-once result and flips the claim to completed.
// A concurrent run that lost the race finds the result already stored and
// converges on the winner's outcome.
func (o *Orchestrator) finalize(ctx context.Context, claim *model.Claim, result *model.VerificationResult) error {
	err := o.store.SaveVerification(ctx, result)
	if errors.Is(err, store.ErrAlreadyExists) {
		existing, getErr := o.store.GetVerification(ctx, claim.ID)
		if getErr != nil {
			return fmt.Errorf("load existing verification: %w", getErr)
		}
		result = existing
	} else if err != nil {
		return fmt.Errorf("persist verification: %w", err)
	}

	claim.Status = model.StatusCompleted
	claim.Verdict = result.Verdict
	claim.Confidence = result.Confidence
	claim.HarmLevel = result.Harm.Level
	claim.UpdatedAt = time.Now()
	if err := o.store.UpdateClaim(ctx, claim); err != nil {
		return fmt.Errorf("mark claim completed: %w", err)
	}
	return nil
}

// acquireText resolves the claim's text, running OCR when only an image was
// submitted. Returns the text, its language, and the OCR step if one ran.
func (o *Orchestrator) acquireText(ctx context.Context, claim *model.Claim) (string, string, *model.ProcessingStep, error) {
	text := strings.TrimSpace(claim.Text)
	language := claim.Language
	if text != "" {
		return text, language, nil, nil
	}
	if claim.ImageRef == "" {
		return "", "", nil, ErrNoTextFound
	}

	stepStart := time.Now()
	stageCtx, cancel := context.WithTimeout(ctx, o.stageTimeout)
	ocr, err := o.extractor.ExtractText(stageCtx, claim.ImageRef)
	cancel()

	if err != nil {
		step := failedStep(model.StepOCR, stepStart, err)
		return "", "", &step, fmt.Errorf("text acquisition: %w", err)
	}
	if strings.TrimSpace(ocr.Text) == "" {
		step := failedStep(model.StepOCR, stepStart, ErrNoTextFound)
		return "", "", &step, ErrNoTextFound
	}

	step := model.ProcessingStep{
		Kind:        model.StepOCR,
		Status:      model.StepCompleted,
		StartedAt:   stepStart,
		CompletedAt: time.Now(),
		Confidence:  &ocr.Confidence,
		OCR: &model.OCRStepDetail{
			ExtractedLength:  len(ocr.Text),
			DetectedLanguage: ocr.DetectedLanguage,
			BlockCount:       ocr.BlockCount,
		},
	}

	if language == "" || language == "auto" {
		language = ocr.DetectedLanguage
	}
	return strings.TrimSpace(ocr.Text), language, &step, nil
}

// translate normalizes text into the working language. Failure degrades:
// the original text carries forward and the step records a caveat.
func (o *Orchestrator) translate(ctx context.Context, text, language string) (string, *model.ProcessingStep) {
	if language == "" || strings.EqualFold(language, o.workingLanguage) || o.translator == nil {
		return text, nil
	}

	stepStart := time.Now()
	stageCtx, cancel := context.WithTimeout(ctx, o.stageTimeout)
	translated, err := o.translator.Translate(stageCtx, text, language, o.workingLanguage)
	cancel()

	detail := &model.TranslationStepDetail{
		SourceLanguage:   language,
		TargetLanguage:   o.workingLanguage,
		TranslatedLength: len(translated),
	}
	step := model.ProcessingStep{
		Kind:        model.StepTranslation,
		Status:      model.StepCompleted,
		StartedAt:   stepStart,
		CompletedAt: time.Now(),
		Translation: detail,
	}
	if err != nil {
		o.logger.Warn("translation degraded", "error", err)
		step.Status = model.StepDegraded
		detail.Caveat = "translation unavailable, original text used"
		return text, &step
	}
	return translated, &step
}

// detectClaims extracts atomic claims, falling back to the whole text
func (o *Orchestrator) detectClaims(ctx context.Context, text string) ([]string, model.ProcessingStep) {
	stepStart := time.Now()
	stageCtx, cancel := context.WithTimeout(ctx, o.stageTimeout)
	claims, err := o.synthesizer.DetectClaims(stageCtx, text)
	cancel()

	fallback := false
	if err != nil || len(claims) == 0 {
		if err != nil {
			o.logger.Warn("claim detection degraded", "error", err)
		}
		claims = []string{text}
		fallback = true
	}

	status := model.StepCompleted
	if fallback {
		status = model.StepDegraded
	}
	return claims, model.ProcessingStep{
		Kind:        model.StepDetection,
		Status:      status,
		StartedAt:   stepStart,
		CompletedAt: time.Now(),
		Detection: &model.DetectionStepDetail{
			ClaimsFound: len(claims),
			Claims:      claims,
			Fallback:    fallback,
		},
	}
}

// retrieveEvidence searches the knowledge base for the primary claim.
// Search errors abort the run; a deliberately disabled backend degrades to
// zero sources so offline setups still produce unverified verdicts.
func (o *Orchestrator) retrieveEvidence(ctx context.Context, claim string) ([]model.SearchResult, model.ProcessingStep, error) {
	stepStart := time.Now()

	stageCtx, cancel := context.WithTimeout(ctx, o.stageTimeout)
	sources, err := o.searcher.Search(stageCtx, claim)
	cancel()

	if errors.Is(err, evidence.ErrSearchDisabled) {
		return nil, model.ProcessingStep{
			Kind:        model.StepRetrieval,
			Status:      model.StepDegraded,
			StartedAt:   stepStart,
			CompletedAt: time.Now(),
			Retrieval:   &model.RetrievalStepDetail{SourcesFound: 0},
		}, nil
	}
	if err != nil {
		return nil, failedStep(model.StepRetrieval, stepStart, err), fmt.Errorf("evidence retrieval: %w", err)
	}

	if o.enricher != nil {
		stageCtx, cancel := context.WithTimeout(ctx, o.stageTimeout)
		sources = o.enricher.Enrich(stageCtx, claim, sources)
		cancel()
	}

	return sources, model.ProcessingStep{
		Kind:        model.StepRetrieval,
		Status:      model.StepCompleted,
		StartedAt:   stepStart,
		CompletedAt: time.Now(),
		Retrieval:   &model.RetrievalStepDetail{SourcesFound: len(sources)},
	}, nil
}

// verify synthesizes the verdict. Failure aborts the claim: a fabricated
// verdict is worse than an honest failure.
func (o *Orchestrator) verify(ctx context.Context, claim string, sources []model.SearchResult) (*synth.VerifyResult, model.ProcessingStep, error) {
	stepStart := time.Now()
	stageCtx, cancel := context.WithTimeout(ctx, o.stageTimeout)
	verification, err := o.synthesizer.Verify(stageCtx, claim, sources)
	cancel()

	if err != nil {
		return nil, failedStep(model.StepVerification, stepStart, err), fmt.Errorf("verdict synthesis: %w", err)
	}

	verification.Confidence = model.ClampScore(verification.Confidence)
	return verification, model.ProcessingStep{
		Kind:         model.StepVerification,
		Status:       model.StepCompleted,
		StartedAt:    stepStart,
		CompletedAt:  time.Now(),
		Confidence:   &verification.Confidence,
		Verification: &model.VerificationStepDetail{Verdict: verification.Verdict},
	}, nil
}

// explain generates the reader-facing explanation, degrading to a template
func (o *Orchestrator) explain(ctx context.Context, claim string, verification *synth.VerifyResult, citations []model.Citation) (*synth.Explanation, model.ProcessingStep) {
	stepStart := time.Now()
	stageCtx, cancel := context.WithTimeout(ctx, o.stageTimeout)
	explanation, err := o.synthesizer.Explain(stageCtx, synth.ExplainRequest{
		Claim:      claim,
		Verdict:    verification.Verdict,
		Confidence: verification.Confidence,
		Reasoning:  verification.Reasoning,
		Citations:  citations,
	})
	cancel()

	step := model.ProcessingStep{
		Kind:        model.StepExplanation,
		Status:      model.StepCompleted,
		StartedAt:   stepStart,
		CompletedAt: time.Now(),
	}
	if err != nil || explanation == nil || explanation.Text == "" {
		if err != nil {
			o.logger.Warn("explanation degraded", "error", err)
		}
		explanation = synth.FallbackExplanation(verification.Verdict, verification.Confidence)
		step.Status = model.StepDegraded
		step.Explanation = &model.ExplanationStepDetail{
			Length:    len(explanation.Text),
			KeyPoints: len(explanation.KeyPoints),
			Caveat:    "generation unavailable, templated explanation used",
		}
		return explanation, step
	}

	step.Explanation = &model.ExplanationStepDetail{
		Length:    len(explanation.Text),
		KeyPoints: len(explanation.KeyPoints),
	}
	return explanation, step
}

// topCitations converts the best-scored sources into at most 3 citations
func topCitations(sources []model.SearchResult) []model.Citation {
	citations := make([]model.Citation, 0, 3)
	for i, src := range sources {
		if i >= 3 {
			break
		}
		citations = append(citations, src.Citation())
	}
	return citations
}

// counterCitations surfaces sources the synthesizer named as contradictory
func counterCitations(sources []model.SearchResult, counterDomains []string) []model.Citation {
	if len(counterDomains) == 0 {
		return nil
	}
	named := make(map[string]bool, len(counterDomains))
	for _, d := range counterDomains {
		named[strings.ToLower(d)] = true
	}

	var citations []model.Citation
	for _, src := range sources {
		if named[strings.ToLower(src.Domain)] || named[strings.ToLower(src.ID)] {
			citations = append(citations, src.Citation())
		}
	}
	return citations
}

// escalationTriggers lists why a claim needs escalation, empty when none
func escalationTriggers(classification model.HarmClassification) []string {
	if !classification.EscalationRequired {
		return nil
	}
	var triggers []string
	if classification.Level == model.HarmVeryHarmful {
		triggers = append(triggers, "severity threshold exceeded")
	}
	for _, factor := range classification.RiskFactors {
		switch factor {
		case "Violence Incitement", "Health Misinformation", "Discriminatory Content":
			triggers = append(triggers, "high-stakes category: "+factor)
		}
	}
	return triggers
}

// failedStep records a stage that aborted the run
func failedStep(kind model.StepKind, startedAt time.Time, err error) model.ProcessingStep {
	return model.ProcessingStep{
		Kind:        kind,
		Status:      model.StepFailed,
		StartedAt:   startedAt,
		CompletedAt: time.Now(),
		Error:       err.Error(),
	}
}
