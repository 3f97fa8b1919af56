package model

import "time"

// Config is the complete runtime configuration
type Config struct {
	Server      ServerConfig      `yaml:"server" mapstructure:"server"`
	HTTP        HTTPConfig        `yaml:"http" mapstructure:"http"`
	Store       StoreConfig       `yaml:"store" mapstructure:"store"`
	Queue       QueueConfig       `yaml:"queue" mapstructure:"queue"`
	Media       MediaConfig       `yaml:"media" mapstructure:"media"`
	LLM         LLMConfig         `yaml:"llm" mapstructure:"llm"`
	Knowledge   KnowledgeConfig   `yaml:"knowledge" mapstructure:"knowledge"`
	Authority   AuthorityConfig   `yaml:"authority" mapstructure:"authority"`
	Harm        HarmConfig        `yaml:"harm" mapstructure:"harm"`
	Pipeline    PipelineConfig    `yaml:"pipeline" mapstructure:"pipeline"`
	Cache       CacheConfig       `yaml:"cache" mapstructure:"cache"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	Output      OutputConfig      `yaml:"output" mapstructure:"output"`
}

// ServerConfig configures the intake HTTP API
type ServerConfig struct {
	Addr           string   `yaml:"addr" mapstructure:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// HTTPConfig configures outbound HTTP (evidence fetching, OCR)
type HTTPConfig struct {
	Timeout      time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent    string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	InsecureTLS  bool          `yaml:"insecure_tls" mapstructure:"insecure_tls"`
	HTTPProxy    string        `yaml:"http_proxy" mapstructure:"http_proxy"`
	HTTPSProxy   string        `yaml:"https_proxy" mapstructure:"https_proxy"`
	NoProxy      string        `yaml:"no_proxy" mapstructure:"no_proxy"`
}

// StoreConfig configures the durable claim/result store
type StoreConfig struct {
	Backend  string `yaml:"backend" mapstructure:"backend"` // "redis" or "memory"
	Addr     string `yaml:"addr" mapstructure:"addr"`
	Password string `yaml:"password" mapstructure:"password"`
	DB       int    `yaml:"db" mapstructure:"db"`
}

// QueueConfig configures the Kafka handoff between intake and workers
type QueueConfig struct {
	Brokers []string `yaml:"brokers" mapstructure:"brokers"`
	Topic   string   `yaml:"topic" mapstructure:"topic"`
	GroupID string   `yaml:"group_id" mapstructure:"group_id"`
}

// MediaConfig configures S3 storage for submitted claim images
type MediaConfig struct {
	Bucket       string `yaml:"bucket" mapstructure:"bucket"`
	Region       string `yaml:"region" mapstructure:"region"`
	Profile      string `yaml:"profile" mapstructure:"profile"`
	Prefix       string `yaml:"prefix" mapstructure:"prefix"`
	UsePathStyle bool   `yaml:"use_path_style" mapstructure:"use_path_style"`
}

// LLMConfig configures the verdict synthesizer backend
type LLMConfig struct {
	Provider  string `yaml:"provider" mapstructure:"provider"` // "openai", "offline"
	Model     string `yaml:"model" mapstructure:"model"`
	APIKey    string `yaml:"api_key" mapstructure:"api_key"`
	BaseURL   string `yaml:"base_url" mapstructure:"base_url"`
	Timeout   int    `yaml:"timeout" mapstructure:"timeout"` // seconds
	MaxTokens int    `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// KnowledgeConfig configures the knowledge-base search backend
type KnowledgeConfig struct {
	SearchURL      string        `yaml:"search_url" mapstructure:"search_url"` // Empty disables retrieval
	APIKey         string        `yaml:"api_key" mapstructure:"api_key"`
	MaxResults     int           `yaml:"max_results" mapstructure:"max_results"`
	FetchExcerpts  bool          `yaml:"fetch_excerpts" mapstructure:"fetch_excerpts"`
	OCRURL         string        `yaml:"ocr_url" mapstructure:"ocr_url"` // Empty disables OCR
	RatePerSecond  float64       `yaml:"rate_per_second" mapstructure:"rate_per_second"`
	RateBurst      int           `yaml:"rate_burst" mapstructure:"rate_burst"`
	CacheTTL       time.Duration `yaml:"cache_ttl" mapstructure:"cache_ttl"`
}

// AuthorityConfig configures domain credibility classification
type AuthorityConfig struct {
	PrimaryDomains   []string          `yaml:"primary_domains" mapstructure:"primary_domains"`
	SecondaryDomains []string          `yaml:"secondary_domains" mapstructure:"secondary_domains"`
	DomainMap        map[string]string `yaml:"domain_map" mapstructure:"domain_map"` // host -> tier override
}

// HarmConfig configures the harm classification engine
type HarmConfig struct {
	LexiconPath string `yaml:"lexicon_path" mapstructure:"lexicon_path"` // Empty uses the built-in lexicon
}

// PipelineConfig configures the orchestrator
type PipelineConfig struct {
	WorkingLanguage string        `yaml:"working_language" mapstructure:"working_language"`
	StageTimeout    time.Duration `yaml:"stage_timeout" mapstructure:"stage_timeout"` // Per external call
}

// CacheConfig configures search-result caching
type CacheConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Dir     string `yaml:"dir" mapstructure:"dir"` // Disk layer location; empty = memory only
}

// ConcurrencyConfig bounds parallel work
type ConcurrencyConfig struct {
	Workers        int `yaml:"workers" mapstructure:"workers"`                 // Batch verification workers
	ExcerptWorkers int `yaml:"excerpt_workers" mapstructure:"excerpt_workers"` // Concurrent excerpt fetches
}

// OutputConfig controls CLI rendering
type OutputConfig struct {
	Verbose bool `yaml:"verbose" mapstructure:"verbose"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr: ":8080",
		},
		HTTP: HTTPConfig{
			Timeout:      30 * time.Second,
			UserAgent:    "Verity/0.1 (+https://github.com/pkarpov/verity)",
			MaxBodyBytes: 2_000_000,
		},
		Store: StoreConfig{
			Backend: "redis",
			Addr:    "localhost:6379",
		},
		Queue: QueueConfig{
			Brokers: []string{"localhost:9092"},
			Topic:   "claim-processing",
			GroupID: "verity-workers",
		},
		LLM: LLMConfig{
			Provider:  "offline",
			Timeout:   30,
			MaxTokens: 1000,
		},
		Knowledge: KnowledgeConfig{
			MaxResults:    10,
			RatePerSecond: 2,
			RateBurst:     5,
			CacheTTL:      time.Hour,
		},
		Authority: AuthorityConfig{
			PrimaryDomains: []string{
				"who.int", "cdc.gov", "nih.gov", "europa.eu",
				"snopes.com", "politifact.com", "factcheck.org", "fullfact.org",
			},
			SecondaryDomains: []string{
				"reuters.com", "apnews.com", "bbc.com", "britannica.com",
				"nature.com", "sciencedirect.com",
			},
		},
		Pipeline: PipelineConfig{
			WorkingLanguage: "en",
			StageTimeout:    45 * time.Second,
		},
		Cache: CacheConfig{
			Enabled: true,
		},
		Concurrency: ConcurrencyConfig{
			Workers:        4,
			ExcerptWorkers: 10,
		},
	}
}
