package harm

import (
	"os"
	"path/filepath"
	"regexp"
	"testing"
)

func TestDefaultLexicon_Complete(t *testing.T) {
	lex := DefaultLexicon()

	wantCategories := []Category{
		CategoryHealth, CategoryViolence, CategoryFinancial, CategoryConspiracy,
		CategoryDiscrimination, CategoryUrgency, CategoryAuthority, CategoryEmotional,
	}

	seen := map[Category]bool{}
	for _, cat := range lex.Categories {
		seen[cat.Name] = true
	}
	for _, want := range wantCategories {
		if !seen[want] {
			t.Errorf("default lexicon missing category %s", want)
		}
	}
	if len(lex.Categories) != len(wantCategories) {
		t.Errorf("expected %d categories, got %d", len(wantCategories), len(lex.Categories))
	}
}

func TestDefaultLexicon_PatternsCompile(t *testing.T) {
	lex := DefaultLexicon()

	for _, cat := range lex.Categories {
		for _, rule := range cat.Patterns {
			if _, err := regexp.Compile("(?i)" + rule.Pattern); err != nil {
				t.Errorf("category %s pattern %q does not compile: %v", cat.Name, rule.Pattern, err)
			}
			if rule.Severity <= 0 || rule.Severity > 1 {
				t.Errorf("category %s pattern %q has severity %v out of (0,1]", cat.Name, rule.Pattern, rule.Severity)
			}
		}
		if len(cat.Keywords) > 0 && cat.KeywordSeverity <= 0 {
			t.Errorf("category %s has keywords but no keyword severity", cat.Name)
		}
	}

	if _, err := regexp.Compile("(?i)" + lex.ViralPattern); err != nil {
		t.Errorf("viral pattern does not compile: %v", err)
	}
}

func TestDefaultLexicon_Weights(t *testing.T) {
	lex := DefaultLexicon()

	for domain, weight := range lex.Weights {
		if weight <= 0 || weight > 1 {
			t.Errorf("domain %s has weight %v out of (0,1]", domain, weight)
		}
	}
	if lex.Weights["violence"] <= lex.Weights["health"] {
		t.Error("violence must outweigh health")
	}
	if lex.DefaultWeight != 0.5 {
		t.Errorf("default weight = %v, want 0.5", lex.DefaultWeight)
	}

	// Every category's domain must resolve to a weight or the default
	for _, cat := range lex.Categories {
		if cat.Domain == "" {
			t.Errorf("category %s has empty domain", cat.Name)
		}
	}
}

func TestLoadLexicon(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lexicon.yaml")
	content := `
categories:
  - name: health_misinformation
    domain: health
    max_fragments: 3
    patterns:
      - pattern: '\bmiracle\s+cure\b'
        severity: 0.4
weights:
  health: 0.9
viral_pattern: '\bshare\b'
long_form_threshold: 400
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	lex, err := LoadLexicon(path)
	if err != nil {
		t.Fatalf("LoadLexicon: %v", err)
	}
	if len(lex.Categories) != 1 {
		t.Fatalf("expected 1 category, got %d", len(lex.Categories))
	}
	if lex.Categories[0].Name != CategoryHealth {
		t.Errorf("category name = %s", lex.Categories[0].Name)
	}
	if lex.DefaultWeight != 0.5 {
		t.Errorf("missing default weight should fall back to 0.5, got %v", lex.DefaultWeight)
	}
	if lex.LongFormThreshold != 400 {
		t.Errorf("long form threshold = %d, want 400", lex.LongFormThreshold)
	}
}

func TestLoadLexicon_Errors(t *testing.T) {
	if _, err := LoadLexicon(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}

	empty := filepath.Join(t.TempDir(), "empty.yaml")
	if err := os.WriteFile(empty, []byte("weights: {}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadLexicon(empty); err == nil {
		t.Error("expected error for lexicon with no categories")
	}
}
