package harm

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/pkarpov/verity/internal/model"
)

// Thresholds on verdict-adjusted severity. Lower bounds are inclusive.
const (
	veryHarmfulThreshold = 0.7
	basicThreshold       = 0.3
)

// riskFactorThreshold is the per-category severity above which the category
// surfaces as a named risk factor
const riskFactorThreshold = 0.3

const maxRiskFactors = 5
const maxActions = 4

// Classifier scores claim text against the lexicon. It is deterministic,
// makes no external calls, and is safe for unsynchronized concurrent use
// (the compiled tables are read-only after construction).
type Classifier struct {
	lexicon   *Lexicon
	detectors []detector
	viralRe   *regexp.Regexp
}

type detector struct {
	category CategoryLexicon
	patterns []compiledRule
}

type compiledRule struct {
	re       *regexp.Regexp
	severity float64
}

// signal is the per-category detection outcome
type signal struct {
	category  Category
	domain    string
	detected  bool
	severity  float64
	fragments []string
}

// NewClassifier compiles the lexicon. Patterns that fail to compile degrade
// to no-ops for their category rather than failing construction: the engine
// must never raise past its boundary.
func NewClassifier(lexicon *Lexicon) *Classifier {
	if lexicon == nil {
		lexicon = DefaultLexicon()
	}

	c := &Classifier{lexicon: lexicon}
	for _, cat := range lexicon.Categories {
		d := detector{category: cat}
		for _, rule := range cat.Patterns {
			re, err := regexp.Compile("(?i)" + rule.Pattern)
			if err != nil {
				continue
			}
			d.patterns = append(d.patterns, compiledRule{re: re, severity: rule.Severity})
		}
		c.detectors = append(c.detectors, d)
	}

	if lexicon.ViralPattern != "" {
		c.viralRe, _ = regexp.Compile("(?i)" + lexicon.ViralPattern)
	}

	return c
}

// Classify scores the claim text for potential harm, adjusted by the
// verification verdict. Identical inputs always yield identical results.
func (c *Classifier) Classify(claimText string, verdict model.Verdict) (result model.HarmClassification) {
	defer func() {
		if r := recover(); r != nil {
			result = fallbackClassification()
		}
	}()

	signals := c.analyze(claimText)

	baseSeverity := c.baseSeverity(signals)
	adjusted := baseSeverity * verdictMultiplier(verdict)
	level := levelForSeverity(adjusted)

	riskFactors := c.riskFactors(claimText, signals)
	actions := suggestedActions(level, riskFactors, verdict)
	escalation := requiresEscalation(level, riskFactors)

	return model.HarmClassification{
		Level:              level,
		Confidence:         c.confidence(signals, adjusted),
		SeverityScore:      adjusted,
		RiskFactors:        riskFactors,
		SuggestedActions:   actions,
		EscalationRequired: escalation,
		Reasoning:          reasoning(level, riskFactors, adjusted, verdict),
	}
}

// analyze runs every category detector over the text
func (c *Classifier) analyze(text string) []signal {
	lower := strings.ToLower(text)

	signals := make([]signal, 0, len(c.detectors))
	for _, d := range c.detectors {
		signals = append(signals, d.run(text, lower))
	}
	return signals
}

// run evaluates one category. Severity accumulates per pattern hit plus a
// capped keyword contribution, capped at 1.0 overall.
func (d detector) run(text, lower string) signal {
	s := signal{category: d.category.Name, domain: d.category.Domain}

	for _, rule := range d.patterns {
		matches := rule.re.FindAllString(text, -1)
		if len(matches) > 0 {
			s.fragments = append(s.fragments, matches...)
			s.severity += rule.severity
		}
	}
	patternHit := len(s.fragments) > 0

	if len(d.category.Keywords) > 0 {
		hits := 0
		for _, kw := range d.category.Keywords {
			if strings.Contains(lower, strings.ToLower(kw)) {
				hits++
			}
		}
		kwSeverity := float64(hits) * d.category.KeywordSeverity
		if kwSeverity > d.category.KeywordCap {
			kwSeverity = d.category.KeywordCap
		}
		s.severity += kwSeverity
	}

	if s.severity > 1.0 {
		s.severity = 1.0
	}
	if max := d.category.MaxFragments; max > 0 && len(s.fragments) > max {
		s.fragments = s.fragments[:max]
	}

	if d.category.DetectOnKeywords {
		s.detected = s.severity > 0
	} else {
		s.detected = patternHit
	}
	return s
}

// baseSeverity is the weighted sum over detected categories, capped at 1.0
func (c *Classifier) baseSeverity(signals []signal) float64 {
	severity := 0.0
	for _, s := range signals {
		if !s.detected {
			continue
		}
		weight, ok := c.lexicon.Weights[s.domain]
		if !ok {
			weight = c.lexicon.DefaultWeight
		}
		severity += s.severity * weight
	}
	if severity > 1.0 {
		severity = 1.0
	}
	return severity
}

// verdictMultiplier scales severity by how the claim verified. A true claim
// cannot be harmful misinformation regardless of its phrasing.
func verdictMultiplier(verdict model.Verdict) float64 {
	switch verdict {
	case model.VerdictFalse:
		return 1.0
	case model.VerdictMisleading:
		return 0.8
	case model.VerdictUnverified:
		return 0.6
	case model.VerdictTrue:
		return 0.2
	default:
		return 0.5
	}
}

// levelForSeverity is a total step function of adjusted severity
func levelForSeverity(severity float64) model.HarmLevel {
	switch {
	case severity >= veryHarmfulThreshold:
		return model.HarmVeryHarmful
	case severity >= basicThreshold:
		return model.HarmBasic
	default:
		return model.HarmHarmless
	}
}

// riskFactors surfaces detected categories above the severity threshold plus
// structural signals, capped at maxRiskFactors
func (c *Classifier) riskFactors(text string, signals []signal) []string {
	factors := []string{}
	for _, s := range signals {
		if s.detected && s.severity > riskFactorThreshold {
			factors = append(factors, riskFactorName(s.category))
		}
	}

	if utf8.RuneCountInString(text) > c.lexicon.LongFormThreshold {
		factors = append(factors, "Long-form content")
	}
	if c.viralRe != nil && c.viralRe.MatchString(text) {
		factors = append(factors, "Viral spread potential")
	}

	if len(factors) > maxRiskFactors {
		factors = factors[:maxRiskFactors]
	}
	return factors
}

// riskFactorName title-cases the category for human-readable output,
// e.g. health_misinformation -> "Health Misinformation"
func riskFactorName(cat Category) string {
	words := strings.Split(string(cat), "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// suggestedActions builds the tiered action list, capped at maxActions
func suggestedActions(level model.HarmLevel, riskFactors []string, verdict model.Verdict) []string {
	var actions []string

	switch level {
	case model.HarmVeryHarmful:
		actions = append(actions,
			"Do not share this content",
			"Report to platform moderators",
			"Consider reporting to relevant authorities",
		)
		if containsFactor(riskFactors, "Health Misinformation") {
			actions = append(actions, "Consult healthcare professionals for medical advice")
		}
		if containsFactor(riskFactors, "Violence Incitement") {
			actions = append(actions, "Report to law enforcement if threats are credible")
		}
	case model.HarmBasic:
		actions = append(actions,
			"Share with caution and provide context",
			"Include fact-check explanation when sharing",
			"Encourage others to verify information",
		)
	default:
		actions = append(actions,
			"Safe to share with fact-check context",
			"Use as educational example of misinformation",
		)
	}

	switch verdict {
	case model.VerdictFalse:
		actions = append(actions, "Share correct information instead")
	case model.VerdictMisleading:
		actions = append(actions, "Provide complete context and missing information")
	}

	if len(actions) > maxActions {
		actions = actions[:maxActions]
	}
	return actions
}

// escalationTriggers are the high-stakes categories that escalate even at
// basic level
var escalationTriggers = []string{
	"Violence Incitement",
	"Health Misinformation",
	"Discriminatory Content",
}

func requiresEscalation(level model.HarmLevel, riskFactors []string) bool {
	if level == model.HarmVeryHarmful {
		return true
	}
	for _, trigger := range escalationTriggers {
		if containsFactor(riskFactors, trigger) {
			return true
		}
	}
	return false
}

func containsFactor(factors []string, want string) bool {
	for _, f := range factors {
		if f == want {
			return true
		}
	}
	return false
}

// confidence grows with detected category count and adjusted severity. Zero
// detections means a confident harmless call.
func (c *Classifier) confidence(signals []signal, adjustedSeverity float64) float64 {
	detected := 0
	for _, s := range signals {
		if s.detected {
			detected++
		}
	}
	if detected == 0 {
		return 0.9
	}

	confidence := 0.6 + float64(detected)*0.1 + adjustedSeverity*0.3
	if confidence > 0.95 {
		confidence = 0.95
	}
	return confidence
}

func reasoning(level model.HarmLevel, riskFactors []string, severity float64, verdict model.Verdict) string {
	parts := []string{
		fmt.Sprintf("Content classified as '%s' based on severity score of %.2f.", level, severity),
	}

	if len(riskFactors) > 0 {
		top := riskFactors
		if len(top) > 3 {
			top = top[:3]
		}
		parts = append(parts, fmt.Sprintf("Key risk factors identified: %s.", strings.Join(top, ", ")))
	}

	parts = append(parts, fmt.Sprintf("Verification verdict of '%s' was considered in the assessment.", verdict))

	switch level {
	case model.HarmVeryHarmful:
		parts = append(parts, "Content poses significant potential harm if shared widely.")
	case model.HarmBasic:
		parts = append(parts, "Content has moderate potential for harm but can be shared with context.")
	default:
		parts = append(parts, "Content poses minimal harm risk.")
	}

	return strings.Join(parts, " ")
}

// fallbackClassification is the safe result when analysis itself fails
func fallbackClassification() model.HarmClassification {
	return model.HarmClassification{
		Level:         model.HarmBasic,
		Confidence:    0.3,
		SeverityScore: 0.5,
		RiskFactors:   []string{"Analysis unavailable"},
		SuggestedActions: []string{
			"Verify information before sharing",
			"Consult multiple reliable sources",
		},
		EscalationRequired: false,
		Reasoning:          "Unable to perform detailed harm analysis. Exercise caution when sharing.",
	}
}

// Categories lists the lexicon's category names in a stable order, used by
// diagnostics and tests
func (c *Classifier) Categories() []Category {
	names := make([]Category, 0, len(c.detectors))
	for _, d := range c.detectors {
		names = append(names, d.category.Name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}
