package evidence

import (
	"net/url"
	"strings"

	"github.com/pkarpov/verity/internal/model"
)

// CredibilityClassifier maps source URLs onto authority tiers, which in
// turn carry the credibility scores used for evidence ranking.
type CredibilityClassifier struct {
	config       *model.AuthorityConfig
	primaryMap   map[string]bool
	secondaryMap map[string]bool
}

// NewCredibilityClassifier creates a classifier from configuration. A nil
// config falls back to the built-in domain lists.
func NewCredibilityClassifier(config *model.AuthorityConfig) *CredibilityClassifier {
	if config == nil {
		defaults := model.DefaultConfig().Authority
		config = &defaults
	}

	classifier := &CredibilityClassifier{
		config:       config,
		primaryMap:   make(map[string]bool),
		secondaryMap: make(map[string]bool),
	}
	for _, domain := range config.PrimaryDomains {
		classifier.primaryMap[domain] = true
	}
	for _, domain := range config.SecondaryDomains {
		classifier.secondaryMap[domain] = true
	}

	return classifier
}

// Classify assigns an authority tier to a URL
func (c *CredibilityClassifier) Classify(rawURL string) model.AuthorityTier {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return model.TierTertiary
	}

	host := parsed.Host
	if idx := strings.Index(host, ":"); idx > 0 {
		host = host[:idx]
	}
	host = strings.TrimPrefix(strings.ToLower(host), "www.")

	// Explicit per-host overrides win
	if c.config.DomainMap != nil {
		if tierStr, ok := c.config.DomainMap[host]; ok {
			return parseTierString(tierStr)
		}
	}

	if matchesDomain(host, c.primaryMap) {
		return model.TierPrimary
	}
	if matchesDomain(host, c.secondaryMap) {
		return model.TierSecondary
	}

	// Government and academic TLDs are authoritative even when unlisted
	if strings.HasSuffix(host, ".gov") || strings.HasSuffix(host, ".edu") || strings.HasSuffix(host, ".ac.uk") {
		return model.TierPrimary
	}

	return model.TierTertiary
}

// Credibility returns the [0,1] credibility score for a URL
func (c *CredibilityClassifier) Credibility(rawURL string) float64 {
	return c.Classify(rawURL).Credibility()
}

// matchesDomain reports whether host equals a listed domain or is a
// subdomain of one (foo.who.int matches who.int).
func matchesDomain(host string, domains map[string]bool) bool {
	if domains[host] {
		return true
	}
	for domain := range domains {
		if strings.HasSuffix(host, "."+domain) {
			return true
		}
	}
	return false
}

// parseTierString converts a configured tier name to an AuthorityTier
func parseTierString(tier string) model.AuthorityTier {
	switch strings.ToLower(tier) {
	case "primary", "1":
		return model.TierPrimary
	case "secondary", "2":
		return model.TierSecondary
	default:
		return model.TierTertiary
	}
}
