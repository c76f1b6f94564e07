package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, `
llm:
  endpoint: http://localhost:11434/v1
  model: gpt-4o-mini
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Listen)
	assert.Equal(t, 30*time.Second, cfg.Server.Timeout)
	assert.Equal(t, 10, cfg.Database.MaxOpenConns)
	assert.Equal(t, 60, cfg.Schedule.CurateInterval)
	assert.Equal(t, "Vidscope/1.0", cfg.Sources.UserAgent)

	assert.InDelta(t, 0.3, cfg.LLM.Temperature, 0.0001)
	assert.Equal(t, 500, cfg.LLM.MaxTokens)
	assert.Equal(t, 2*time.Second, cfg.LLM.RequestDelay)

	p := cfg.Pipeline
	assert.Equal(t, 10, p.MinTitleLength)
	assert.Equal(t, 50, p.MinDescriptionLength)
	assert.Equal(t, 5000, p.MaxDescriptionLength)
	assert.Equal(t, 2, p.KeywordMatchMin)
	assert.InDelta(t, 0.3, p.MinRelevance, 0.0001)
	assert.InDelta(t, 0.4, p.QualityWeight, 0.0001)
	assert.InDelta(t, 0.4, p.RelevanceWeight, 0.0001)
	assert.InDelta(t, 0.2, p.AlignmentWeight, 0.0001)
	assert.Equal(t, 5, p.QuickBatchSize)
	assert.InDelta(t, 0.75, p.DeepThreshold, 0.0001)
	assert.Equal(t, 8, p.MaxDeepItems)
}

func TestLoad_Overrides(t *testing.T) {
	path := writeConfig(t, `
server:
  listen: ":9090"
  timeout: 10s
llm:
  endpoint: https://api.openai.com/v1
  model: gpt-4o
  fallback_model: gpt-4o-mini
  request_delay: 500ms
pipeline:
  quick_batch_size: 3
  deep_threshold: 0.8
  max_deep_items: 5
  quality_weight: 0.5
  relevance_weight: 0.3
  alignment_weight: 0.2
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Listen)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.FallbackModel)
	assert.Equal(t, 500*time.Millisecond, cfg.LLM.RequestDelay)
	assert.Equal(t, 3, cfg.Pipeline.QuickBatchSize)
	assert.InDelta(t, 0.8, cfg.Pipeline.DeepThreshold, 0.0001)
	assert.Equal(t, 5, cfg.Pipeline.MaxDeepItems)
	assert.InDelta(t, 0.5, cfg.Pipeline.QualityWeight, 0.0001)
}

func TestLoad_EnvExpansion(t *testing.T) {
	t.Setenv("TEST_API_KEY", "secret-key")

	path := writeConfig(t, `
llm:
  endpoint: http://localhost/v1
  model: test-model
  api_key: ${TEST_API_KEY}
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "secret-key", cfg.LLM.APIKey)
}

func TestLoad_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		errMsg  string
	}{
		{"missing endpoint", "llm:\n  model: m\n", "llm.endpoint is required"},
		{"missing model", "llm:\n  endpoint: http://x/v1\n", "llm.model is required"},
		{
			"bad weights",
			"llm:\n  endpoint: http://x/v1\n  model: m\npipeline:\n  quality_weight: 0.9\n  relevance_weight: 0.9\n  alignment_weight: 0.9\n",
			"blend weights must sum to 1",
		},
		{
			"bad relevance",
			"llm:\n  endpoint: http://x/v1\n  model: m\npipeline:\n  min_relevance: 1.5\n",
			"min_relevance must be between 0 and 1",
		},
		{
			"duration window inverted",
			"llm:\n  endpoint: http://x/v1\n  model: m\npipeline:\n  min_duration_seconds: 600\n  max_duration_seconds: 60\n",
			"min_duration_seconds exceeds max_duration_seconds",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yml")
	assert.Error(t, err)
}

func TestVerifyAgainstEmbeddedSchema(t *testing.T) {
	cfg, err := Load(writeConfig(t, "llm:\n  endpoint: http://x/v1\n  model: m\n"))
	require.NoError(t, err)
	assert.NoError(t, VerifyAgainstEmbeddedSchema(cfg))

	cfg.LLM.Model = ""
	assert.Error(t, VerifyAgainstEmbeddedSchema(cfg))
}
