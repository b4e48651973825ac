package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"OPENAI_API_KEY", "TAVILY_API_KEY", "BRAVE_API_KEY",
		"REFLEXION_LLM_PROVIDER", "REFLEXION_LLM_API_KEY", "REFLEXION_LLM_MODEL",
		"REFLEXION_SEARCH_PROVIDER", "REFLEXION_SEARCH_API_KEY",
		"REFLEXION_LOOP_MAX_ITERATIONS", "REFLEXION_SEARCH_TIMEOUT",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("TAVILY_API_KEY", "tvly-test")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "gpt-4.1-mini", cfg.LLM.Model)
	assert.Equal(t, "sk-test", cfg.LLM.APIKey)
	assert.Equal(t, 60*time.Second, cfg.LLM.Timeout)

	assert.Equal(t, "tavily", cfg.Search.Provider)
	assert.Equal(t, "tvly-test", cfg.Search.APIKey)
	assert.Equal(t, 5, cfg.Search.MaxResults)
	assert.Equal(t, 3, cfg.Search.Concurrency)

	assert.Equal(t, 3, cfg.Loop.MaxIterations)
	assert.Equal(t, 250, cfg.Loop.AnswerWords)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 500, cfg.Server.MaxRuns)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("REFLEXION_LLM_PROVIDER", "mock")
	t.Setenv("REFLEXION_SEARCH_PROVIDER", "static")
	t.Setenv("REFLEXION_LOOP_MAX_ITERATIONS", "5")
	t.Setenv("REFLEXION_SEARCH_TIMEOUT", "30s")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "mock", cfg.LLM.Provider)
	assert.Equal(t, "static", cfg.Search.Provider)
	assert.Equal(t, 5, cfg.Loop.MaxIterations)
	assert.Equal(t, 30*time.Second, cfg.Search.Timeout)
}

func TestLoad_File(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
llm:
  provider: deepseek
  model: deepseek-chat
  api_key: ds-key
  base_url: https://api.deepseek.com/v1
search:
  provider: brave
  api_key: brave-key
  rate_per_second: 1
loop:
  max_iterations: 2
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "deepseek", cfg.LLM.Provider)
	assert.Equal(t, "https://api.deepseek.com/v1", cfg.LLM.BaseURL)
	assert.Equal(t, "brave", cfg.Search.Provider)
	assert.Equal(t, "brave-key", cfg.Search.APIKey)
	assert.InDelta(t, 1.0, cfg.Search.RatePerSecond, 1e-9)
	assert.Equal(t, 2, cfg.Loop.MaxIterations)
	assert.Equal(t, 250, cfg.Loop.AnswerWords)
}

func TestLoad_MissingFile(t *testing.T) {
	clearEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorContains(t, err, "read config")
}

func TestLoad_MissingKeys(t *testing.T) {
	clearEnv(t)
	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Config.LLM.APIKey")
	assert.Contains(t, err.Error(), "Config.Search.APIKey")
}

func TestValidate(t *testing.T) {
	valid := Config{
		LLM:    LLMConfig{Provider: "mock"},
		Search: SearchConfig{Provider: "static", MaxResults: 5},
		Loop:   LoopConfig{MaxIterations: 3, AnswerWords: 250},
		Log:    LogConfig{Level: "info"},
	}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"unknown llm", func(c *Config) { c.LLM.Provider = "claude" }, "Config.LLM.Provider"},
		{"bad base url", func(c *Config) { c.LLM.BaseURL = "not a url" }, "Config.LLM.BaseURL"},
		{"zero iterations", func(c *Config) { c.Loop.MaxIterations = 0 }, "Config.Loop.MaxIterations"},
		{"too many results", func(c *Config) { c.Search.MaxResults = 50 }, "Config.Search.MaxResults"},
		{"bad depth", func(c *Config) { c.Search.Depth = "deep" }, "Config.Search.Depth"},
		{"negative max runs", func(c *Config) { c.Server.MaxRuns = -1 }, "Config.Server.MaxRuns"},
		{"bad log level", func(c *Config) { c.Log.Level = "trace" }, "Config.Log.Level"},
		{"openai without key", func(c *Config) { c.LLM.Provider = "openai"; c.LLM.Model = "gpt-4.1-mini" }, "Config.LLM.APIKey"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}
