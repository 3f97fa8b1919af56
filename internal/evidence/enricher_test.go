package evidence

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/pkarpov/verity/internal/model"
	"github.com/pkarpov/verity/internal/worker"
)

func TestEnricher_Enrich(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`<html><body>
			<p>The vaccine is safe and effective according to extensive clinical trials worldwide.</p>
		</body></html>`))
	}))
	defer server.Close()

	fetcher := NewFetcher(5*time.Second, "Verity/0.1", 1<<20, "", "", "")
	enricher := NewEnricher(fetcher, nil, worker.NewLimiter(100, 10), 2)

	results := []model.SearchResult{
		{URL: server.URL + "/article", Content: ""},
		{URL: server.URL + "/other", Content: "already has an excerpt"},
	}

	enriched := enricher.Enrich(context.Background(), "the vaccine is safe", results)

	if !strings.Contains(enriched[0].Content, "clinical trials") {
		t.Errorf("first result should gain an excerpt, got %q", enriched[0].Content)
	}
	if enriched[1].Content != "already has an excerpt" {
		t.Errorf("existing content must not be overwritten, got %q", enriched[1].Content)
	}
	// Input slice must not be mutated
	if results[0].Content != "" {
		t.Error("Enrich must not mutate its input")
	}
}

func TestEnricher_FetchFailureLeavesResultIntact(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	fetcher := NewFetcher(time.Second, "Verity/0.1", 1<<20, "", "", "")
	enricher := NewEnricher(fetcher, nil, nil, 2)

	results := []model.SearchResult{{URL: server.URL + "/gone", Title: "t"}}
	enriched := enricher.Enrich(context.Background(), "claim", results)

	if enriched[0].Content != "" {
		t.Errorf("failed fetch should leave content empty, got %q", enriched[0].Content)
	}
	if enriched[0].Title != "t" {
		t.Error("other fields must survive enrichment failure")
	}
}
