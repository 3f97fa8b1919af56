package harm

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Category names the harm-indicator categories the engine scores
type Category string

const (
	CategoryHealth         Category = "health_misinformation"
	CategoryViolence       Category = "violence_incitement"
	CategoryFinancial      Category = "financial_fraud"
	CategoryConspiracy     Category = "conspiracy_theories"
	CategoryDiscrimination Category = "discriminatory_content"
	CategoryUrgency        Category = "urgency_manipulation"
	CategoryAuthority      Category = "authority_impersonation"
	CategoryEmotional      Category = "emotional_manipulation"
)

// PatternRule is a regex detector with the severity it contributes per hit
type PatternRule struct {
	Pattern  string  `yaml:"pattern"`
	Severity float64 `yaml:"severity"`
}

// CategoryLexicon holds the detection tables for one harm category.
// Severity accumulates additively across pattern hits and keyword hits,
// capped at 1.0.
type CategoryLexicon struct {
	Name     Category      `yaml:"name"`
	Domain   string        `yaml:"domain"` // Weight-table key (prefix domain)
	Patterns []PatternRule `yaml:"patterns"`

	// Keyword matching: each hit adds KeywordSeverity, capped at KeywordCap
	Keywords        []string `yaml:"keywords,omitempty"`
	KeywordSeverity float64  `yaml:"keyword_severity,omitempty"`
	KeywordCap      float64  `yaml:"keyword_cap,omitempty"`

	// MaxFragments caps how many matched fragments are surfaced
	MaxFragments int `yaml:"max_fragments"`

	// DetectOnKeywords marks the category detected when only keywords hit
	// (no pattern match). Used by conspiracy, where keyword density alone
	// is a signal.
	DetectOnKeywords bool `yaml:"detect_on_keywords,omitempty"`
}

// Lexicon is the complete, swappable detection configuration. The default
// tables are English; per-language tuning replaces this data, not code.
type Lexicon struct {
	Categories []CategoryLexicon `yaml:"categories"`

	// Weights maps harm domains to aggregation weights; domains absent
	// from the map use DefaultWeight.
	Weights       map[string]float64 `yaml:"weights"`
	DefaultWeight float64            `yaml:"default_weight"`

	// Structural risk signals
	ViralPattern      string `yaml:"viral_pattern"`
	LongFormThreshold int    `yaml:"long_form_threshold"`
}

// LoadLexicon reads a lexicon from a YAML file
func LoadLexicon(path string) (*Lexicon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read lexicon: %w", err)
	}
	var lex Lexicon
	if err := yaml.Unmarshal(data, &lex); err != nil {
		return nil, fmt.Errorf("parse lexicon: %w", err)
	}
	if len(lex.Categories) == 0 {
		return nil, fmt.Errorf("lexicon %s defines no categories", path)
	}
	if lex.DefaultWeight == 0 {
		lex.DefaultWeight = 0.5
	}
	return &lex, nil
}

// DefaultLexicon returns the built-in English detection tables
func DefaultLexicon() *Lexicon {
	return &Lexicon{
		Weights: map[string]float64{
			"health":     0.9,
			"violence":   0.95,
			"financial":  0.7,
			"political":  0.6,
			"social":     0.5,
			"conspiracy": 0.4,
		},
		DefaultWeight:     0.5,
		ViralPattern:      `\b(?:share|spread|tell\s+everyone)\b`,
		LongFormThreshold: 500,
		Categories: []CategoryLexicon{
			{
				Name:   CategoryHealth,
				Domain: "health",
				Patterns: []PatternRule{
					{Pattern: `\b(cure|treat|prevent)\s+(?:cancer|diabetes|covid|coronavirus|aids)\b`, Severity: 0.3},
					{Pattern: `\b(?:vaccine|vaccination)\s+(?:dangerous|harmful|toxic|poison)\b`, Severity: 0.3},
					{Pattern: `\b(?:doctors|medical)\s+(?:hiding|conspiracy|cover-up)\b`, Severity: 0.3},
					{Pattern: `\bmiracle\s+(?:cure|treatment|remedy)\b`, Severity: 0.3},
					{Pattern: `\b(?:natural|herbal)\s+(?:cure|alternative)\s+to\s+(?:medicine|drugs)\b`, Severity: 0.3},
				},
				Keywords: []string{
					"vaccine", "covid", "coronavirus", "medicine", "treatment", "cure",
					"doctor", "hospital", "symptoms", "disease", "virus", "bacteria",
					"immunity", "antibiotics", "prescription", "dosage", "side effects",
				},
				KeywordSeverity: 0.1,
				KeywordCap:      0.4,
				MaxFragments:    5,
			},
			{
				Name:   CategoryViolence,
				Domain: "violence",
				Patterns: []PatternRule{
					{Pattern: `\b(?:kill|murder|assassinate|eliminate)\s+(?:them|those|the)\b`, Severity: 0.4},
					{Pattern: `\b(?:fight|attack|destroy|harm)\s+(?:back|them|those)\b`, Severity: 0.4},
					{Pattern: `\btake\s+(?:action|revenge|justice)\s+into\s+(?:your|our)\s+hands\b`, Severity: 0.4},
					{Pattern: `\b(?:uprising|revolution|revolt|riot)\s+(?:now|today|time)\b`, Severity: 0.4},
					{Pattern: `\b(?:they|government|media)\s+(?:deserve|need)\s+to\s+(?:pay|suffer)\b`, Severity: 0.4},
				},
				MaxFragments: 3,
			},
			{
				Name:   CategoryFinancial,
				Domain: "financial",
				Patterns: []PatternRule{
					{Pattern: `\b(?:guaranteed|instant|easy)\s+(?:money|profit|returns)\b`, Severity: 0.25},
					{Pattern: `\b(?:investment|trading)\s+(?:secret|system|strategy)\b`, Severity: 0.25},
					{Pattern: `\bmake\s+\$?\d+(?:k|,\d+)?\s+(?:per|a)\s+(?:day|week|month)\b`, Severity: 0.25},
					{Pattern: `\b(?:crypto|bitcoin|forex)\s+(?:scam|ponzi|pyramid)\b`, Severity: 0.25},
					{Pattern: `\bget\s+rich\s+quick\b`, Severity: 0.25},
					{Pattern: `\bno\s+(?:risk|investment|experience)\s+required\b`, Severity: 0.25},
				},
				MaxFragments: 3,
			},
			{
				Name:   CategoryConspiracy,
				Domain: "conspiracy",
				Patterns: []PatternRule{
					{Pattern: `\b(?:government|media|big pharma)\s+(?:conspiracy|cover-up|lies)\b`, Severity: 0.15},
					{Pattern: `\bthey\s+(?:don't\s+want|are\s+hiding|control)\b`, Severity: 0.15},
					{Pattern: `\b(?:wake\s+up|open\s+your\s+eyes|sheep|sheeple)\b`, Severity: 0.15},
					{Pattern: `\b(?:mainstream|fake)\s+media\b`, Severity: 0.15},
				},
				Keywords: []string{
					"deep state", "illuminati", "new world order", "agenda 21",
					"false flag", "cover-up", "mainstream media lies", "wake up",
					"they don't want you to know", "hidden truth", "secret society",
				},
				KeywordSeverity:  0.1,
				KeywordCap:       0.3,
				MaxFragments:     3,
				DetectOnKeywords: true,
			},
			{
				Name:   CategoryDiscrimination,
				Domain: "discriminatory",
				Patterns: []PatternRule{
					{Pattern: `\b(?:all|most|these)\s+(?:immigrants|foreigners|minorities)\s+are\b`, Severity: 0.3},
					{Pattern: `\b(?:race|religion|gender)\s+(?:superior|inferior)\b`, Severity: 0.3},
					{Pattern: `\bthose\s+people\s+(?:are|always|never)\b`, Severity: 0.3},
				},
				MaxFragments: 2,
			},
			{
				Name:   CategoryUrgency,
				Domain: "urgency",
				Patterns: []PatternRule{
					{Pattern: `\b(?:urgent|emergency|immediate|act\s+now|time\s+running\s+out)\b`, Severity: 0.1},
					{Pattern: `\b(?:limited\s+time|expires\s+soon|act\s+fast|don't\s+wait)\b`, Severity: 0.1},
					{Pattern: `\b(?:before\s+it's\s+too\s+late|last\s+chance|final\s+warning)\b`, Severity: 0.1},
				},
				MaxFragments: 3,
			},
			{
				Name:   CategoryAuthority,
				Domain: "authority",
				Patterns: []PatternRule{
					{Pattern: `\b(?:doctor|scientist|expert|professor)\s+(?:says|claims|warns)\b`, Severity: 0.15},
					{Pattern: `\b(?:studies\s+show|research\s+proves|scientists\s+agree)\b`, Severity: 0.15},
					{Pattern: `\b(?:top\s+secret|classified|insider)\s+(?:information|knowledge)\b`, Severity: 0.15},
				},
				MaxFragments: 3,
			},
			{
				Name:   CategoryEmotional,
				Domain: "emotional",
				Patterns: []PatternRule{
					{Pattern: `\b(?:terrifying|shocking|outrageous|disgusting)\b`, Severity: 0.1},
					{Pattern: `\b(?:your\s+children|our\s+children)\s+(?:are\s+in\s+danger|at\s+risk)\b`, Severity: 0.1},
					{Pattern: `\b(?:they\s+want\s+to|trying\s+to)\s+(?:control|manipulate|deceive)\s+you\b`, Severity: 0.1},
				},
				MaxFragments: 3,
			},
		},
	}
}
