package evidence

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"golang.org/x/time/rate"

	"github.com/pkarpov/verity/internal/cache"
	"github.com/pkarpov/verity/internal/model"
)

// ErrSearchDisabled is returned when no search backend is configured
var ErrSearchDisabled = fmt.Errorf("knowledge search backend not configured")

// KnowledgeClient queries the knowledge-base search backend and returns
// evidence ranked by relevance weighted by source credibility. Responses
// are cached and requests are rate limited.
type KnowledgeClient struct {
	httpClient  *http.Client
	searchURL   string
	apiKey      string
	maxResults  int
	cacheTTL    time.Duration
	store       cache.Cache
	limiter     *rate.Limiter
	credibility *CredibilityClassifier
}

// NewKnowledgeClient creates a search client. An empty searchURL disables
// retrieval; Search then returns ErrSearchDisabled. A nil cache disables
// caching.
func NewKnowledgeClient(cfg model.KnowledgeConfig, classifier *CredibilityClassifier, store cache.Cache, timeout time.Duration) *KnowledgeClient {
	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 10
	}
	perSecond := cfg.RatePerSecond
	if perSecond <= 0 {
		perSecond = 5
	}
	burst := cfg.RateBurst
	if burst <= 0 {
		burst = 5
	}
	ttl := cfg.CacheTTL
	if ttl == 0 {
		ttl = 15 * time.Minute
	}
	if classifier == nil {
		classifier = NewCredibilityClassifier(nil)
	}

	return &KnowledgeClient{
		httpClient:  &http.Client{Timeout: timeout},
		searchURL:   cfg.SearchURL,
		apiKey:      cfg.APIKey,
		maxResults:  maxResults,
		cacheTTL:    ttl,
		store:       store,
		limiter:     rate.NewLimiter(rate.Limit(perSecond), burst),
		credibility: classifier,
	}
}

type searchResponse struct {
	Results []struct {
		ID              string     `json:"id"`
		Title           string     `json:"title"`
		URL             string     `json:"url"`
		Content         string     `json:"content"`
		RelevanceScore  float64    `json:"relevance_score"`
		FactCheckRating string     `json:"fact_check_rating"`
		PublishedAt     *time.Time `json:"date_published"`
	} `json:"results"`
}

// Search retrieves ranked evidence for a claim
func (k *KnowledgeClient) Search(ctx context.Context, query string) ([]model.SearchResult, error) {
	if k.searchURL == "" {
		return nil, ErrSearchDisabled
	}

	cacheKey := cache.CacheKey(k.searchURL + "?q=" + query)
	if k.store != nil {
		if data, ok := k.store.Get(cacheKey); ok {
			var cached []model.SearchResult
			if err := json.Unmarshal(data, &cached); err == nil {
				return cached, nil
			}
		}
	}

	if err := k.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("search rate limit: %w", err)
	}

	reqURL, err := url.Parse(k.searchURL)
	if err != nil {
		return nil, fmt.Errorf("parse search url: %w", err)
	}
	q := reqURL.Query()
	q.Set("q", query)
	q.Set("limit", fmt.Sprintf("%d", k.maxResults))
	reqURL.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create search request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if k.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+k.apiKey)
	}

	resp, err := k.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("search backend returned %d: %s", resp.StatusCode, body)
	}

	var decoded searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	results := make([]model.SearchResult, 0, len(decoded.Results))
	for _, r := range decoded.Results {
		if r.URL == "" {
			continue
		}
		results = append(results, model.SearchResult{
			ID:               r.ID,
			Title:            r.Title,
			URL:              r.URL,
			Domain:           hostOf(r.URL),
			Content:          r.Content,
			CredibilityScore: k.credibility.Credibility(r.URL),
			RelevanceScore:   model.ClampScore(r.RelevanceScore),
			FactCheckRating:  r.FactCheckRating,
			PublishedAt:      r.PublishedAt,
		})
	}

	// Rank by relevance weighted by credibility
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].CombinedScore() > results[j].CombinedScore()
	})
	if len(results) > k.maxResults {
		results = results[:k.maxResults]
	}

	if k.store != nil {
		if data, err := json.Marshal(results); err == nil {
			_ = k.store.Set(cacheKey, data, k.cacheTTL)
		}
	}

	return results, nil
}

func hostOf(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return parsed.Host
}
