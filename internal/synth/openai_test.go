package synth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sashabaranov/go-openai"

	"github.com/pkarpov/verity/internal/model"
)

func chatServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("Expected path /chat/completions, got %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("Expected Authorization header Bearer test-key, got %s", r.Header.Get("Authorization"))
		}
		resp := openai.ChatCompletionResponse{
			ID:     "chatcmpl-123",
			Object: "chat.completion",
			Model:  "gpt-4o-mini",
			Choices: []openai.ChatCompletionChoice{
				{
					Message: openai.ChatCompletionMessage{
						Role:    "assistant",
						Content: content,
					},
					FinishReason: "stop",
				},
			},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func newTestSynthesizer(t *testing.T, baseURL string) *OpenAISynthesizer {
	t.Helper()
	s, err := NewOpenAISynthesizer(model.LLMConfig{
		APIKey:  "test-key",
		BaseURL: baseURL,
		Model:   "gpt-4o-mini",
		Timeout: 5,
	})
	if err != nil {
		t.Fatalf("Failed to create synthesizer: %v", err)
	}
	return s
}

func TestOpenAISynthesizer_Verify_Success(t *testing.T) {
	server := chatServer(t, `Here is my assessment:
{
  "verdict": "false",
  "confidence": 0.85,
  "reasoning": ["Multiple fact-checkers have debunked this claim", "Primary sources contradict it"],
  "primary_evidence_used": ["snopes.com"],
  "contradictory_evidence": null
}`)
	defer server.Close()

	s := newTestSynthesizer(t, server.URL)
	result, err := s.Verify(context.Background(), "The moon landing was staged", nil)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}

	if result.Verdict != model.VerdictFalse {
		t.Errorf("verdict = %s, want false", result.Verdict)
	}
	if result.Confidence != 0.85 {
		t.Errorf("confidence = %v, want 0.85", result.Confidence)
	}
	if len(result.Reasoning) != 2 {
		t.Errorf("reasoning = %v", result.Reasoning)
	}
	if len(result.CounterEvidence) != 0 {
		t.Errorf("expected no counter evidence, got %v", result.CounterEvidence)
	}
}

func TestOpenAISynthesizer_Verify_NormalizesBadPayload(t *testing.T) {
	server := chatServer(t, `{"verdict": "probably-fake", "confidence": 7, "reasoning": []}`)
	defer server.Close()

	s := newTestSynthesizer(t, server.URL)
	result, err := s.Verify(context.Background(), "some claim", nil)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}

	if result.Verdict != model.VerdictUnverified {
		t.Errorf("out-of-set verdict should normalize to unverified, got %s", result.Verdict)
	}
	if result.Confidence != 0.5 {
		t.Errorf("out-of-range confidence should default to 0.5, got %v", result.Confidence)
	}
	if len(result.Reasoning) == 0 {
		t.Error("empty reasoning should default to a placeholder")
	}
}

func TestOpenAISynthesizer_Verify_NoJSON(t *testing.T) {
	server := chatServer(t, "I cannot help with that.")
	defer server.Close()

	s := newTestSynthesizer(t, server.URL)
	if _, err := s.Verify(context.Background(), "some claim", nil); err == nil {
		t.Fatal("Expected error for non-JSON response, got nil")
	}
}

func TestOpenAISynthesizer_Verify_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error": {"message": "Internal Server Error", "type": "server_error"}}`))
	}))
	defer server.Close()

	s := newTestSynthesizer(t, server.URL)
	if _, err := s.Verify(context.Background(), "some claim", nil); err == nil {
		t.Fatal("Expected error, got nil")
	}
}

func TestOpenAISynthesizer_DetectClaims(t *testing.T) {
	server := chatServer(t, "1. The Earth orbits the Sun\n2. Water boils at 100C at sea level\n")
	defer server.Close()

	s := newTestSynthesizer(t, server.URL)
	claims, err := s.DetectClaims(context.Background(), "some long text")
	if err != nil {
		t.Fatalf("DetectClaims failed: %v", err)
	}

	want := []string{"The Earth orbits the Sun", "Water boils at 100C at sea level"}
	if len(claims) != len(want) {
		t.Fatalf("claims = %v, want %v", claims, want)
	}
	for i := range want {
		if claims[i] != want[i] {
			t.Errorf("claims[%d] = %q, want %q", i, claims[i], want[i])
		}
	}
}

func TestOpenAISynthesizer_DetectClaims_FallsBackToWholeText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	s := newTestSynthesizer(t, server.URL)
	claims, err := s.DetectClaims(context.Background(), "original text")
	if err == nil {
		t.Fatal("Expected error from failing backend")
	}
	if len(claims) != 1 || claims[0] != "original text" {
		t.Errorf("failed detection should return the whole text as one claim, got %v", claims)
	}
}

func TestOpenAISynthesizer_Explain_FallsBackOnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	s := newTestSynthesizer(t, server.URL)
	exp, err := s.Explain(context.Background(), ExplainRequest{
		Claim:      "some claim",
		Verdict:    model.VerdictMisleading,
		Confidence: 0.7,
	})
	if err != nil {
		t.Fatalf("Explain should degrade, not fail: %v", err)
	}
	if exp.Text == "" {
		t.Error("fallback explanation must have text")
	}
	if exp.ReadabilityScore != 0.8 {
		t.Errorf("fallback readability = %v, want 0.8", exp.ReadabilityScore)
	}
}

func TestNewOpenAISynthesizer_RequiresKey(t *testing.T) {
	if _, err := NewOpenAISynthesizer(model.LLMConfig{}); err == nil {
		t.Fatal("Expected error for missing API key")
	}
}

func TestExtractJSON(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{`{"a":1}`, `{"a":1}`, false},
		{"```json\n{\"a\":1}\n```", `{"a":1}`, false},
		{"prefix {\"a\": {\"b\": 2}} suffix", `{"a": {"b": 2}}`, false},
		{"no json here", "", true},
	}
	for _, tc := range cases {
		got, err := extractJSON(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("extractJSON(%q): expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("extractJSON(%q): %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("extractJSON(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
