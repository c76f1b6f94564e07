package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

//go:generate go run ../../cmd/schema/main.go schema.json

// Config holds the application configuration
type Config struct {
	Server struct {
		Listen  string        `yaml:"listen" json:"listen" jsonschema:"default=:8080,description=HTTP server listen address"`
		Timeout time.Duration `yaml:"timeout" json:"timeout" jsonschema:"default=30s,description=HTTP server timeout"`
	} `yaml:"server" json:"server" jsonschema:"description=Server configuration"`

	Database struct {
		DSN             string `yaml:"dsn" json:"dsn" jsonschema:"default=file:vidscope.db?cache=shared&mode=rwc,description=Database connection string"`
		MaxOpenConns    int    `yaml:"max_open_conns" json:"max_open_conns" jsonschema:"default=10,description=Maximum number of open connections"`
		MaxIdleConns    int    `yaml:"max_idle_conns" json:"max_idle_conns" jsonschema:"default=5,description=Maximum number of idle connections"`
		ConnMaxLifetime int    `yaml:"conn_max_lifetime" json:"conn_max_lifetime" jsonschema:"default=3600,description=Connection maximum lifetime in seconds"`
	} `yaml:"database" json:"database" jsonschema:"description=Database configuration"`

	Schedule struct {
		CurateInterval int `yaml:"curate_interval" json:"curate_interval" jsonschema:"default=60,description=Curation run interval in minutes"`
	} `yaml:"schedule" json:"schedule" jsonschema:"description=Scheduler configuration"`

	Sources struct {
		Feeds     []string      `yaml:"feeds" json:"feeds" jsonschema:"description=Channel feed URLs to pull candidate videos from"`
		Timeout   time.Duration `yaml:"timeout" json:"timeout" jsonschema:"default=30s,description=Fetch timeout per feed"`
		UserAgent string        `yaml:"user_agent" json:"user_agent" jsonschema:"default=Vidscope/1.0,description=User agent for feed requests"`
		MaxItems  int           `yaml:"max_items" json:"max_items" jsonschema:"default=100,description=Maximum candidate items per run"`
	} `yaml:"sources" json:"sources" jsonschema:"description=Content source configuration"`

	LLM LLMConfig `yaml:"llm" json:"llm" jsonschema:"description=LLM configuration for content scoring"`

	Pipeline PipelineConfig `yaml:"pipeline" json:"pipeline" jsonschema:"description=Curation pipeline thresholds and weights"`
}

// LLMConfig holds settings for the external scoring client
type LLMConfig struct {
	Endpoint      string             `yaml:"endpoint" json:"endpoint" jsonschema:"required,description=OpenAI-compatible API endpoint"`
	APIKey        string             `yaml:"api_key" json:"api_key" jsonschema:"description=API key (can use environment variable)"`
	Model         string             `yaml:"model" json:"model" jsonschema:"required,description=Primary model name"`
	FallbackModel string             `yaml:"fallback_model" json:"fallback_model" jsonschema:"description=Model tried once when the primary fails"`
	Temperature   float64            `yaml:"temperature" json:"temperature" jsonschema:"default=0.3,description=Temperature for response generation"`
	MaxTokens     int                `yaml:"max_tokens" json:"max_tokens" jsonschema:"default=500,description=Maximum tokens in response"`
	Timeout       time.Duration      `yaml:"timeout" json:"timeout" jsonschema:"default=30s,description=Request timeout"`
	RequestDelay  time.Duration      `yaml:"request_delay" json:"request_delay" jsonschema:"default=2s,description=Delay between successive batch requests"`
	Rates         map[string]float64 `yaml:"rates" json:"rates" jsonschema:"description=Per-token cost overrides keyed by model name"`
}

// PipelineConfig holds all tunables of the multi-stage analysis pipeline
type PipelineConfig struct {
	MinTitleLength       int     `yaml:"min_title_length" json:"min_title_length" jsonschema:"default=10,description=Minimum title length for admission"`
	MinDescriptionLength int     `yaml:"min_description_length" json:"min_description_length" jsonschema:"default=50,description=Minimum description length unless title is exempt"`
	MaxDescriptionLength int     `yaml:"max_description_length" json:"max_description_length" jsonschema:"default=5000,description=Maximum description length"`
	MinDurationSeconds   int     `yaml:"min_duration_seconds" json:"min_duration_seconds" jsonschema:"default=60,description=Shortest admissible video"`
	MaxDurationSeconds   int     `yaml:"max_duration_seconds" json:"max_duration_seconds" jsonschema:"default=10800,description=Longest admissible video"`
	HighEngagementViews  int64   `yaml:"high_engagement_views" json:"high_engagement_views" jsonschema:"default=50000,description=View count that satisfies the engagement rule by itself"`
	KeywordMatchMin      int     `yaml:"keyword_match_min" json:"keyword_match_min" jsonschema:"default=2,minimum=1,description=Minimum interest matches before a keyword score counts"`
	MinRelevance         float64 `yaml:"min_relevance" json:"min_relevance" jsonschema:"default=0.3,minimum=0,maximum=1,description=Final relevance cutoff"`
	QualityWeight        float64 `yaml:"quality_weight" json:"quality_weight" jsonschema:"default=0.4,description=Weight of quality score in the combined blend"`
	RelevanceWeight      float64 `yaml:"relevance_weight" json:"relevance_weight" jsonschema:"default=0.4,description=Weight of keyword relevance in the combined blend"`
	AlignmentWeight      float64 `yaml:"alignment_weight" json:"alignment_weight" jsonschema:"default=0.2,description=Weight of interest alignment in the combined blend"`
	OptimalDurationMin   int     `yaml:"optimal_duration_min" json:"optimal_duration_min" jsonschema:"default=300,description=Lower bound of the duration sweet spot"`
	OptimalDurationMax   int     `yaml:"optimal_duration_max" json:"optimal_duration_max" jsonschema:"default=1800,description=Upper bound of the duration sweet spot"`
	QuickBatchSize       int     `yaml:"quick_batch_size" json:"quick_batch_size" jsonschema:"default=5,minimum=1,description=Items per quick-analysis request"`
	QuickResponseTokens  int     `yaml:"quick_response_tokens" json:"quick_response_tokens" jsonschema:"default=200,description=Response token budget per quick-analysis batch"`
	DeepResponseTokens   int     `yaml:"deep_response_tokens" json:"deep_response_tokens" jsonschema:"default=500,description=Response token budget per deep-analysis item"`
	DeepThreshold        float64 `yaml:"deep_threshold" json:"deep_threshold" jsonschema:"default=0.75,minimum=0,maximum=1,description=Minimum score to qualify for deep analysis"`
	MaxDeepItems         int     `yaml:"max_deep_items" json:"max_deep_items" jsonschema:"default=8,minimum=1,description=Deep analysis cap per run"`
}

// Load reads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // file path comes from CLI flag
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	// expand environment variables
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.setDefaults()

	// validate configuration
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	// verify against embedded schema
	if err := VerifyAgainstEmbeddedSchema(&cfg); err != nil {
		// log warning but don't fail - schema validation is supplementary
		fmt.Printf("warning: schema validation failed: %v\n", err)
	}

	return &cfg, nil
}

// setDefaults fills zero values with documented defaults
func (c *Config) setDefaults() {
	if c.Server.Listen == "" {
		c.Server.Listen = ":8080"
	}
	if c.Server.Timeout == 0 {
		c.Server.Timeout = 30 * time.Second
	}

	if c.Database.DSN == "" {
		c.Database.DSN = "file:vidscope.db?cache=shared&mode=rwc&_txlock=immediate"
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = 10
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = 5
	}
	if c.Database.ConnMaxLifetime == 0 {
		c.Database.ConnMaxLifetime = 3600
	}

	if c.Schedule.CurateInterval == 0 {
		c.Schedule.CurateInterval = 60
	}

	if c.Sources.Timeout == 0 {
		c.Sources.Timeout = 30 * time.Second
	}
	if c.Sources.UserAgent == "" {
		c.Sources.UserAgent = "Vidscope/1.0"
	}
	if c.Sources.MaxItems == 0 {
		c.Sources.MaxItems = 100
	}

	if c.LLM.Temperature == 0 {
		c.LLM.Temperature = 0.3
	}
	if c.LLM.MaxTokens == 0 {
		c.LLM.MaxTokens = 500
	}
	if c.LLM.Timeout == 0 {
		c.LLM.Timeout = 30 * time.Second
	}
	if c.LLM.RequestDelay == 0 {
		c.LLM.RequestDelay = 2 * time.Second
	}

	p := &c.Pipeline
	if p.MinTitleLength == 0 {
		p.MinTitleLength = 10
	}
	if p.MinDescriptionLength == 0 {
		p.MinDescriptionLength = 50
	}
	if p.MaxDescriptionLength == 0 {
		p.MaxDescriptionLength = 5000
	}
	if p.MinDurationSeconds == 0 {
		p.MinDurationSeconds = 60
	}
	if p.MaxDurationSeconds == 0 {
		p.MaxDurationSeconds = 10800
	}
	if p.HighEngagementViews == 0 {
		p.HighEngagementViews = 50000
	}
	if p.KeywordMatchMin == 0 {
		p.KeywordMatchMin = 2
	}
	if p.MinRelevance == 0 {
		p.MinRelevance = 0.3
	}
	if p.QualityWeight == 0 && p.RelevanceWeight == 0 && p.AlignmentWeight == 0 {
		p.QualityWeight, p.RelevanceWeight, p.AlignmentWeight = 0.4, 0.4, 0.2
	}
	if p.OptimalDurationMin == 0 {
		p.OptimalDurationMin = 300
	}
	if p.OptimalDurationMax == 0 {
		p.OptimalDurationMax = 1800
	}
	if p.QuickBatchSize == 0 {
		p.QuickBatchSize = 5
	}
	if p.QuickResponseTokens == 0 {
		p.QuickResponseTokens = 200
	}
	if p.DeepResponseTokens == 0 {
		p.DeepResponseTokens = 500
	}
	if p.DeepThreshold == 0 {
		p.DeepThreshold = 0.75
	}
	if p.MaxDeepItems == 0 {
		p.MaxDeepItems = 8
	}
}

// validate checks configuration for correctness
func validate(cfg *Config) error {
	// validate LLM config
	if cfg.LLM.Endpoint == "" {
		return fmt.Errorf("llm.endpoint is required")
	}
	if cfg.LLM.Model == "" {
		return fmt.Errorf("llm.model is required")
	}
	if cfg.LLM.Temperature < 0 || cfg.LLM.Temperature > 2 {
		return fmt.Errorf("llm.temperature must be between 0 and 2")
	}

	// validate pipeline config
	p := cfg.Pipeline
	if p.MinRelevance < 0 || p.MinRelevance > 1 {
		return fmt.Errorf("pipeline.min_relevance must be between 0 and 1")
	}
	if p.DeepThreshold < 0 || p.DeepThreshold > 1 {
		return fmt.Errorf("pipeline.deep_threshold must be between 0 and 1")
	}
	if p.QuickBatchSize < 1 {
		return fmt.Errorf("pipeline.quick_batch_size must be at least 1")
	}
	if p.MaxDeepItems < 1 {
		return fmt.Errorf("pipeline.max_deep_items must be at least 1")
	}
	if sum := p.QualityWeight + p.RelevanceWeight + p.AlignmentWeight; sum < 0.999 || sum > 1.001 {
		return fmt.Errorf("pipeline blend weights must sum to 1, got %.3f", sum)
	}
	if p.MinDurationSeconds > p.MaxDurationSeconds {
		return fmt.Errorf("pipeline.min_duration_seconds exceeds max_duration_seconds")
	}

	// validate server config
	if cfg.Server.Timeout < time.Second {
		return fmt.Errorf("server timeout must be at least 1 second")
	}

	return nil
}

// GetServerConfig returns server configuration
func (c *Config) GetServerConfig() (listen string, timeout time.Duration) {
	return c.Server.Listen, c.Server.Timeout
}

// GetLLMConfig returns the scoring client configuration
func (c *Config) GetLLMConfig() LLMConfig {
	return c.LLM
}

// GetPipelineConfig returns pipeline thresholds and weights
func (c *Config) GetPipelineConfig() PipelineConfig {
	return c.Pipeline
}
