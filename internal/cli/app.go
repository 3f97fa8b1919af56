package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/viper"

	"github.com/pkarpov/verity/internal/cache"
	"github.com/pkarpov/verity/internal/evidence"
	"github.com/pkarpov/verity/internal/harm"
	"github.com/pkarpov/verity/internal/model"
	"github.com/pkarpov/verity/internal/pipeline"
	"github.com/pkarpov/verity/internal/store"
	"github.com/pkarpov/verity/internal/synth"
	"github.com/pkarpov/verity/internal/util"
	"github.com/pkarpov/verity/internal/worker"
)

// loadConfig merges defaults, the config file, and the environment into
// the effective configuration
func loadConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parse configuration: %w", err)
	}

	// API keys usually arrive via the environment rather than the file
	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.Knowledge.APIKey == "" {
		cfg.Knowledge.APIKey = os.Getenv("VERITY_KNOWLEDGE_API_KEY")
	}
	if verbose {
		cfg.Output.Verbose = true
	}
	return cfg, nil
}

// newLogger builds the process logger
func newLogger(cfg *model.Config) *slog.Logger {
	level := slog.LevelInfo
	if cfg.Output.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// buildStore selects the claim/result store backend
func buildStore(cfg *model.Config) (store.Store, error) {
	switch cfg.Store.Backend {
	case "memory":
		return store.NewMemoryStore(), nil
	case "redis", "":
		return store.NewRedisStore(cfg.Store)
	default:
		return nil, fmt.Errorf("unknown store backend: %q", cfg.Store.Backend)
	}
}

// buildSearchCache selects the cache layering for knowledge-base results
func buildSearchCache(cfg *model.Config) cache.Cache {
	if !cfg.Cache.Enabled {
		return nil
	}
	ttl := cfg.Knowledge.CacheTTL
	if cfg.Cache.Dir != "" {
		return cache.NewLayeredCache(ttl, cfg.Cache.Dir, ttl*4)
	}
	return cache.NewMemoryCache(ttl, ttl)
}

// buildOrchestrator wires the full verification pipeline from configuration
func buildOrchestrator(cfg *model.Config, st store.Store, logger *slog.Logger) (*pipeline.Orchestrator, error) {
	synthesizer, err := synth.NewSynthesizer(cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("build synthesizer: %w", err)
	}

	var lexicon *harm.Lexicon
	if cfg.Harm.LexiconPath != "" {
		lexicon, err = harm.LoadLexicon(cfg.Harm.LexiconPath)
		if err != nil {
			return nil, fmt.Errorf("load harm lexicon: %w", err)
		}
	}

	credibility := evidence.NewCredibilityClassifier(&cfg.Authority)
	knowledge := evidence.NewKnowledgeClient(cfg.Knowledge, credibility, buildSearchCache(cfg), cfg.HTTP.Timeout)

	var enricher pipeline.Enricher
	if cfg.Knowledge.FetchExcerpts {
		fetcher := evidence.NewFetcher(
			cfg.HTTP.Timeout, cfg.HTTP.UserAgent, cfg.HTTP.MaxBodyBytes,
			cfg.HTTP.HTTPProxy, cfg.HTTP.HTTPSProxy, cfg.HTTP.NoProxy,
		)
		robots := util.NewRobotsChecker(cfg.HTTP.UserAgent, cfg.HTTP.Timeout)
		limiter := worker.NewLimiter(cfg.Knowledge.RatePerSecond, cfg.Knowledge.RateBurst)
		enricher = evidence.NewEnricher(fetcher, robots, limiter, cfg.Concurrency.ExcerptWorkers)
	}

	return pipeline.NewOrchestrator(pipeline.Options{
		Store:           st,
		Extractor:       evidence.NewOCRClient(cfg.Knowledge.OCRURL, cfg.Knowledge.APIKey, cfg.HTTP.Timeout),
		Translator:      evidence.NewTranslator(cfg.LLM),
		Searcher:        knowledge,
		Enricher:        enricher,
		Synthesizer:     synthesizer,
		Classifier:      harm.NewClassifier(lexicon),
		Logger:          logger,
		WorkingLanguage: cfg.Pipeline.WorkingLanguage,
		StageTimeout:    cfg.Pipeline.StageTimeout,
	}), nil
}
