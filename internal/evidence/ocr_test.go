package evidence

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestOCRClient_ExtractText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		var req ocrRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.ImageRef != "claims/abc/image.png" {
			t.Errorf("image ref = %q", req.ImageRef)
		}
		_, _ = w.Write([]byte(`{
			"text": "BREAKING: miracle cure found",
			"confidence": 0.92,
			"language": "en",
			"blocks": [{"text": "BREAKING:"}, {"text": "miracle cure found"}]
		}`))
	}))
	defer server.Close()

	client := NewOCRClient(server.URL, "", 5*time.Second)
	result, err := client.ExtractText(context.Background(), "claims/abc/image.png")
	if err != nil {
		t.Fatalf("ExtractText: %v", err)
	}

	if result.Text != "BREAKING: miracle cure found" {
		t.Errorf("text = %q", result.Text)
	}
	if result.Confidence != 0.92 {
		t.Errorf("confidence = %v", result.Confidence)
	}
	if result.DetectedLanguage != "en" {
		t.Errorf("language = %q", result.DetectedLanguage)
	}
	if result.BlockCount != 2 {
		t.Errorf("block count = %d", result.BlockCount)
	}
}

func TestOCRClient_ExtractText_Disabled(t *testing.T) {
	client := NewOCRClient("", "", time.Second)

	if _, err := client.ExtractText(context.Background(), "ref"); err != ErrOCRDisabled {
		t.Errorf("err = %v, want ErrOCRDisabled", err)
	}
}

func TestOCRClient_ExtractText_BackendError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("vision backend down"))
	}))
	defer server.Close()

	client := NewOCRClient(server.URL, "", time.Second)
	if _, err := client.ExtractText(context.Background(), "ref"); err == nil {
		t.Fatal("expected error for 500 response")
	}
}

func TestOCRClient_ExtractText_UnknownLanguage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"text": "", "confidence": 0}`))
	}))
	defer server.Close()

	client := NewOCRClient(server.URL, "", time.Second)
	result, err := client.ExtractText(context.Background(), "ref")
	if err != nil {
		t.Fatal(err)
	}
	if result.DetectedLanguage != "unknown" {
		t.Errorf("language = %q, want unknown", result.DetectedLanguage)
	}
}
