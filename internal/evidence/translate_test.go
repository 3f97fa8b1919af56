package evidence

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sashabaranov/go-openai"

	"github.com/pkarpov/verity/internal/model"
)

func TestTranslator_Passthrough(t *testing.T) {
	translator := NewTranslator(model.LLMConfig{Provider: "offline"})

	got, err := translator.Translate(context.Background(), "hola mundo", "es", "en")
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if got != "hola mundo" {
		t.Errorf("passthrough translator must return input unchanged, got %q", got)
	}
}

func TestTranslator_SameLanguageSkipsBackend(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("backend must not be called for same-language input")
	}))
	defer server.Close()

	translator := NewTranslator(model.LLMConfig{
		Provider: "openai",
		APIKey:   "test-key",
		BaseURL:  server.URL,
	})

	got, err := translator.Translate(context.Background(), "already english", "en-US", "en")
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if got != "already english" {
		t.Errorf("got %q", got)
	}
}

func TestTranslator_Translates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := openai.ChatCompletionResponse{
			Choices: []openai.ChatCompletionChoice{
				{Message: openai.ChatCompletionMessage{Content: "hello world"}},
			},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	translator := NewTranslator(model.LLMConfig{
		Provider: "openai",
		APIKey:   "test-key",
		BaseURL:  server.URL,
		Timeout:  5,
	})

	got, err := translator.Translate(context.Background(), "hola mundo", "es", "en")
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if got != "hello world" {
		t.Errorf("got %q, want %q", got, "hello world")
	}
}

func TestTranslator_ReturnsOriginalOnFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	translator := NewTranslator(model.LLMConfig{
		Provider: "openai",
		APIKey:   "test-key",
		BaseURL:  server.URL,
		Timeout:  5,
	})

	got, err := translator.Translate(context.Background(), "hola mundo", "es", "en")
	if err == nil {
		t.Fatal("expected error from failing backend")
	}
	if got != "hola mundo" {
		t.Errorf("failed translation must return the original text, got %q", got)
	}
}

func TestSameLanguage(t *testing.T) {
	cases := []struct {
		a, b string
		want bool
	}{
		{"en", "en", true},
		{"en-US", "en", true},
		{"en_GB", "en", true},
		{"es", "en", false},
		{"auto", "en", false},
		{"unknown", "en", false},
		{"", "en", false},
	}
	for _, tc := range cases {
		if got := sameLanguage(tc.a, tc.b); got != tc.want {
			t.Errorf("sameLanguage(%q, %q) = %v, want %v", tc.a, tc.b, got, tc.want)
		}
	}
}
