package model

import "time"

// SearchResult is a ranked knowledge-base hit for a claim
type SearchResult struct {
	ID              string     `json:"document_id"`
	Title           string     `json:"title"`
	URL             string     `json:"url"`
	Domain          string     `json:"domain"`
	Content         string     `json:"content"`                     // Relevant excerpt
	CredibilityScore float64   `json:"credibility_score"`           // [0,1], from source tier
	RelevanceScore  float64    `json:"relevance_score"`             // [0,1], from the search backend
	FactCheckRating string     `json:"fact_check_rating,omitempty"` // e.g. "false", "pants-on-fire"
	PublishedAt     *time.Time `json:"date_published,omitempty"`
}

// CombinedScore ranks a result by relevance weighted by credibility
func (r SearchResult) CombinedScore() float64 {
	return r.RelevanceScore * r.CredibilityScore
}

// Citation converts a search result into a result citation
func (r SearchResult) Citation() Citation {
	return Citation{
		ID:               r.ID,
		Title:            r.Title,
		URL:              r.URL,
		Domain:           r.Domain,
		CredibilityScore: r.CredibilityScore,
		RelevanceScore:   r.RelevanceScore,
		Excerpt:          r.Content,
		FactCheckRating:  r.FactCheckRating,
		PublishedAt:      r.PublishedAt,
	}
}

// AuthorityTier classifies source authority, which maps onto credibility
type AuthorityTier int

const (
	TierUnknown   AuthorityTier = 0 // Not yet classified
	TierPrimary   AuthorityTier = 1 // Government, academic, established fact-checkers
	TierSecondary AuthorityTier = 2 // Encyclopedias, major publishers, reputable media
	TierTertiary  AuthorityTier = 3 // Blogs, personal websites, aggregators
)

func (t AuthorityTier) String() string {
	switch t {
	case TierPrimary:
		return "primary"
	case TierSecondary:
		return "secondary"
	case TierTertiary:
		return "tertiary"
	default:
		return "unknown"
	}
}

// Credibility maps the tier onto a [0,1] credibility score
func (t AuthorityTier) Credibility() float64 {
	switch t {
	case TierPrimary:
		return 0.9
	case TierSecondary:
		return 0.7
	case TierTertiary:
		return 0.4
	default:
		return 0.5
	}
}

// OCRResult is the output of image text extraction
type OCRResult struct {
	Text             string  `json:"text"`
	Confidence       float64 `json:"confidence"` // [0,1]
	DetectedLanguage string  `json:"language"`
	BlockCount       int     `json:"block_count,omitempty"`
}
