package evidence

import (
	"testing"

	"github.com/pkarpov/verity/internal/model"
)

func TestCredibilityClassifier_Classify(t *testing.T) {
	classifier := NewCredibilityClassifier(&model.AuthorityConfig{
		PrimaryDomains:   []string{"who.int", "snopes.com"},
		SecondaryDomains: []string{"reuters.com"},
		DomainMap:        map[string]string{"example.org": "secondary"},
	})

	cases := []struct {
		url  string
		want model.AuthorityTier
	}{
		{"https://www.who.int/news/item/some-report", model.TierPrimary},
		{"https://apps.who.int/iris", model.TierPrimary}, // Subdomain of a primary
		{"https://snopes.com/fact-check/x", model.TierPrimary},
		{"https://reuters.com/article", model.TierSecondary},
		{"https://example.org/page", model.TierSecondary}, // DomainMap override
		{"https://cdc.gov/measles", model.TierPrimary},    // .gov TLD
		{"https://mit.edu/research", model.TierPrimary},   // .edu TLD
		{"https://ox.ac.uk/study", model.TierPrimary},
		{"https://randomblog.example/post", model.TierTertiary},
		{"://bad-url", model.TierTertiary},
	}

	for _, tc := range cases {
		if got := classifier.Classify(tc.url); got != tc.want {
			t.Errorf("Classify(%s) = %s, want %s", tc.url, got, tc.want)
		}
	}
}

func TestCredibilityClassifier_Credibility(t *testing.T) {
	classifier := NewCredibilityClassifier(nil)

	// Built-in defaults include established fact-checkers as primary
	if got := classifier.Credibility("https://www.snopes.com/fact-check/x"); got != 0.9 {
		t.Errorf("Credibility(snopes) = %v, want 0.9", got)
	}
	if got := classifier.Credibility("https://someblog.example/x"); got != 0.4 {
		t.Errorf("Credibility(blog) = %v, want 0.4", got)
	}
}

func TestMatchesDomain_NoSuffixConfusion(t *testing.T) {
	domains := map[string]bool{"who.int": true}

	if matchesDomain("notwho.int", domains) {
		t.Error("notwho.int must not match who.int")
	}
	if !matchesDomain("data.who.int", domains) {
		t.Error("data.who.int must match who.int")
	}
}
