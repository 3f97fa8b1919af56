package synth

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/pkarpov/verity/internal/model"
)

// OpenAISynthesizer implements the Synthesizer interface on OpenAI's Chat
// Completions API (or any compatible endpoint via BaseURL).
type OpenAISynthesizer struct {
	client *openai.Client
	config model.LLMConfig
}

// NewOpenAISynthesizer creates a new OpenAI-backed synthesizer
func NewOpenAISynthesizer(config model.LLMConfig) (*OpenAISynthesizer, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}

	return &OpenAISynthesizer{
		client: openai.NewClientWithConfig(clientConfig),
		config: config,
	}, nil
}

// Name returns the backend name
func (s *OpenAISynthesizer) Name() string {
	return "openai"
}

// IsAvailable checks if the backend is properly configured and reachable
func (s *OpenAISynthesizer) IsAvailable(ctx context.Context) bool {
	_, err := s.client.ListModels(ctx)
	return err == nil
}

// DetectClaims extracts atomic verifiable claims from text. On any backend
// failure the whole text is returned as a single claim so the pipeline can
// continue in degraded mode.
func (s *OpenAISynthesizer) DetectClaims(ctx context.Context, text string) ([]string, error) {
	content, err := s.complete(ctx, buildDetectPrompt(text), 0.1)
	if err != nil {
		return []string{text}, fmt.Errorf("claim detection: %w", err)
	}

	claims := parseClaimLines(content)
	if len(claims) == 0 {
		return []string{text}, nil
	}
	return claims, nil
}

// verifyPayload mirrors the JSON contract of the verification prompt
type verifyPayload struct {
	Verdict             string          `json:"verdict"`
	Confidence          json.Number     `json:"confidence"`
	Reasoning           []string        `json:"reasoning"`
	PrimaryEvidenceUsed []string        `json:"primary_evidence_used"`
	ContradictoryItems  json.RawMessage `json:"contradictory_evidence"`
}

// Verify assesses a claim against evidence via the chat API
func (s *OpenAISynthesizer) Verify(ctx context.Context, claim string, evidence []model.SearchResult) (*VerifyResult, error) {
	content, err := s.complete(ctx, buildVerifyPrompt(claim, evidence), 0.2)
	if err != nil {
		return nil, fmt.Errorf("verify claim: %w", err)
	}

	raw, err := extractJSON(content)
	if err != nil {
		return nil, fmt.Errorf("verify claim: %w", err)
	}

	var payload verifyPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, fmt.Errorf("verify claim: decode response: %w", err)
	}

	result := &VerifyResult{
		Verdict:         model.NormalizeVerdict(payload.Verdict),
		Confidence:      0.5,
		Reasoning:       payload.Reasoning,
		PrimaryEvidence: payload.PrimaryEvidenceUsed,
	}
	if conf, err := payload.Confidence.Float64(); err == nil && conf >= 0 && conf <= 1 {
		result.Confidence = conf
	}
	if len(result.Reasoning) == 0 {
		result.Reasoning = []string{"Analysis completed with available evidence"}
	}
	// contradictory_evidence may arrive as a list or JSON null
	if len(payload.ContradictoryItems) > 0 && string(payload.ContradictoryItems) != "null" {
		var counter []string
		if err := json.Unmarshal(payload.ContradictoryItems, &counter); err == nil {
			result.CounterEvidence = counter
		}
	}

	return result, nil
}

// Explain generates a reader-facing explanation of the verdict. Backend
// failure falls back to a templated explanation rather than an error: the
// pipeline treats explanation as a degradable stage.
func (s *OpenAISynthesizer) Explain(ctx context.Context, req ExplainRequest) (*Explanation, error) {
	content, err := s.complete(ctx, buildExplainPrompt(req), 0.3)
	if err != nil {
		return FallbackExplanation(req.Verdict, req.Confidence), nil
	}

	text := strings.TrimSpace(content)
	if text == "" {
		return FallbackExplanation(req.Verdict, req.Confidence), nil
	}

	return &Explanation{
		Text:             text,
		KeyPoints:        keyPoints(req.Reasoning),
		ReadabilityScore: readabilityScore(text),
		CitationsUsed:    citationIDs(req.Citations),
	}, nil
}

// complete issues a single-turn chat completion with a bounded timeout
func (s *OpenAISynthesizer) complete(ctx context.Context, prompt string, temperature float32) (string, error) {
	chatModel := s.config.Model
	if chatModel == "" {
		chatModel = openai.GPT4oMini
	}
	maxTokens := s.config.MaxTokens
	if maxTokens == 0 {
		maxTokens = 800
	}
	timeout := time.Duration(s.config.Timeout) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: chatModel,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You are a careful fact-checking assistant. Follow the response format exactly.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		MaxTokens:   maxTokens,
		Temperature: temperature,
	})
	if err != nil {
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from OpenAI")
	}

	return resp.Choices[0].Message.Content, nil
}

// extractJSON pulls the first JSON object out of a response that may wrap
// it in prose or markdown fences.
func extractJSON(text string) (string, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end < start {
		return "", fmt.Errorf("no JSON object in response")
	}
	return text[start : end+1], nil
}
