package synth

import (
	"context"
	"math"
	"testing"

	"github.com/pkarpov/verity/internal/model"
)

func TestOfflineSynthesizer_DetectClaims(t *testing.T) {
	s := NewOfflineSynthesizer()

	claims, err := s.DetectClaims(context.Background(),
		"The Great Wall is visible from space. Is that really true? Yes. It was built over many centuries.")
	if err != nil {
		t.Fatalf("DetectClaims: %v", err)
	}

	want := []string{
		"The Great Wall is visible from space.",
		"It was built over many centuries.",
	}
	if len(claims) != len(want) {
		t.Fatalf("claims = %v, want %v", claims, want)
	}
	for i := range want {
		if claims[i] != want[i] {
			t.Errorf("claims[%d] = %q, want %q", i, claims[i], want[i])
		}
	}
}

func TestOfflineSynthesizer_DetectClaims_WholeTextFallback(t *testing.T) {
	s := NewOfflineSynthesizer()

	claims, err := s.DetectClaims(context.Background(), "Too short?")
	if err != nil {
		t.Fatalf("DetectClaims: %v", err)
	}
	if len(claims) != 1 || claims[0] != "Too short?" {
		t.Errorf("expected whole text as single claim, got %v", claims)
	}

	if _, err := s.DetectClaims(context.Background(), "   "); err == nil {
		t.Error("expected error for empty text")
	}
}

func TestOfflineSynthesizer_Verify_NoEvidence(t *testing.T) {
	s := NewOfflineSynthesizer()

	result, err := s.Verify(context.Background(), "anything at all", nil)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if result.Verdict != model.VerdictUnverified {
		t.Errorf("verdict = %s, want unverified", result.Verdict)
	}
	if result.Confidence != 0.3 {
		t.Errorf("confidence = %v, want 0.3", result.Confidence)
	}
}

func TestOfflineSynthesizer_Verify_FactCheckRating(t *testing.T) {
	s := NewOfflineSynthesizer()
	evidence := []model.SearchResult{
		{
			Domain:           "randomblog.example",
			FactCheckRating:  "true",
			CredibilityScore: 0.4, // Below the credibility floor; must be ignored
			RelevanceScore:   0.9,
		},
		{
			Domain:           "snopes.com",
			FactCheckRating:  "false",
			CredibilityScore: 0.9,
			RelevanceScore:   0.8,
		},
	}

	result, err := s.Verify(context.Background(), "vaccines contain microchips", evidence)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if result.Verdict != model.VerdictFalse {
		t.Errorf("verdict = %s, want false", result.Verdict)
	}
	if len(result.PrimaryEvidence) != 1 || result.PrimaryEvidence[0] != "snopes.com" {
		t.Errorf("primary evidence = %v", result.PrimaryEvidence)
	}
}

func TestOfflineSynthesizer_Verify_LexicalOverlap(t *testing.T) {
	s := NewOfflineSynthesizer()
	evidence := []model.SearchResult{
		{
			Domain:           "who.int",
			Title:            "Water boils at 100 degrees celsius at sea level",
			Content:          "Standard atmospheric pressure puts the boiling point of water at 100 degrees celsius.",
			CredibilityScore: 0.9,
			RelevanceScore:   0.9,
		},
	}

	result, err := s.Verify(context.Background(), "Water boils at 100 degrees celsius", evidence)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if result.Verdict != model.VerdictTrue {
		t.Errorf("verdict = %s, want true (reasoning %v)", result.Verdict, result.Reasoning)
	}
	if result.Confidence <= 0.5 || result.Confidence > 0.9 {
		t.Errorf("confidence = %v, want in (0.5, 0.9]", result.Confidence)
	}
}

func TestOfflineSynthesizer_Verify_Deterministic(t *testing.T) {
	s := NewOfflineSynthesizer()
	evidence := []model.SearchResult{
		{Domain: "a.example", Title: "about cats", Content: "cats are mammals", CredibilityScore: 0.7, RelevanceScore: 0.6},
		{Domain: "b.example", Title: "about dogs", Content: "dogs are mammals", CredibilityScore: 0.7, RelevanceScore: 0.6},
	}

	first, err := s.Verify(context.Background(), "cats and dogs are mammals", evidence)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		again, err := s.Verify(context.Background(), "cats and dogs are mammals", evidence)
		if err != nil {
			t.Fatal(err)
		}
		if again.Verdict != first.Verdict || again.Confidence != first.Confidence {
			t.Fatalf("verify not deterministic: %v vs %v", again, first)
		}
	}
}

func TestOfflineSynthesizer_Explain(t *testing.T) {
	s := NewOfflineSynthesizer()
	req := ExplainRequest{
		Claim:      "the claim",
		Verdict:    model.VerdictFalse,
		Confidence: 0.85,
		Reasoning:  []string{"Contradicted by primary sources", "ok"},
		Citations: []model.Citation{
			{ID: "c1", Domain: "reuters.com"},
			{ID: "c2", Domain: "apnews.com"},
			{ID: "c3", Domain: "bbc.com"},
			{ID: "c4", Domain: "extra.example"},
		},
	}

	exp, err := s.Explain(context.Background(), req)
	if err != nil {
		t.Fatalf("Explain: %v", err)
	}
	if exp.Text == "" {
		t.Fatal("empty explanation")
	}
	if len(exp.KeyPoints) != 1 {
		t.Errorf("key points should drop short reasoning entries, got %v", exp.KeyPoints)
	}
	if len(exp.CitationsUsed) != 3 {
		t.Errorf("citations used should cap at 3, got %v", exp.CitationsUsed)
	}
	if exp.ReadabilityScore < 0.1 || exp.ReadabilityScore > 1.0 {
		t.Errorf("readability = %v out of [0.1, 1.0]", exp.ReadabilityScore)
	}
}

func TestReadabilityScore(t *testing.T) {
	// 15 words per sentence scores exactly 1.0
	fifteen := "one two three four five six seven eight nine ten eleven twelve thirteen fourteen fifteen."
	if got := readabilityScore(fifteen); math.Abs(got-1.0) > 1e-9 {
		t.Errorf("readability(15 wps) = %v, want 1.0", got)
	}

	// Very long sentences floor at 0.1
	long := ""
	for i := 0; i < 60; i++ {
		long += "word "
	}
	long += "."
	if got := readabilityScore(long); got != 0.1 {
		t.Errorf("readability(long) = %v, want 0.1", got)
	}
}

func TestVerdictFromRating(t *testing.T) {
	cases := []struct {
		rating string
		want   model.Verdict
		ok     bool
	}{
		{"True", model.VerdictTrue, true},
		{"pants-fire", model.VerdictFalse, true},
		{"Mostly True", model.VerdictTrue, true},
		{"Half True", model.VerdictMisleading, true},
		{"mixture", model.VerdictMisleading, true},
		{"Unproven", model.VerdictUnverified, true},
		{"five-stars", "", false},
	}
	for _, tc := range cases {
		got, ok := verdictFromRating(tc.rating)
		if ok != tc.ok || got != tc.want {
			t.Errorf("verdictFromRating(%q) = (%v, %v), want (%v, %v)", tc.rating, got, ok, tc.want, tc.ok)
		}
	}
}
