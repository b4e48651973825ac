package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config is the full runtime configuration.
type Config struct {
	LLM    LLMConfig    `mapstructure:"llm"`
	Search SearchConfig `mapstructure:"search"`
	Loop   LoopConfig   `mapstructure:"loop"`
	Server ServerConfig `mapstructure:"server"`
	Log    LogConfig    `mapstructure:"log"`
}

type LLMConfig struct {
	Provider string        `mapstructure:"provider" validate:"oneof=openai deepseek mock"`
	Model    string        `mapstructure:"model" validate:"required_unless=Provider mock"`
	APIKey   string        `mapstructure:"api_key" validate:"required_unless=Provider mock"`
	BaseURL  string        `mapstructure:"base_url" validate:"omitempty,url"`
	Timeout  time.Duration `mapstructure:"timeout" validate:"gte=0"`
}

type SearchConfig struct {
	Provider      string        `mapstructure:"provider" validate:"oneof=tavily brave static"`
	APIKey        string        `mapstructure:"api_key" validate:"required_unless=Provider static"`
	Depth         string        `mapstructure:"depth" validate:"omitempty,oneof=basic advanced"`
	MaxResults    int           `mapstructure:"max_results" validate:"gte=1,lte=20"`
	Timeout       time.Duration `mapstructure:"timeout" validate:"gte=0"`
	Concurrency   int           `mapstructure:"concurrency" validate:"gte=0"`
	RatePerSecond float64       `mapstructure:"rate_per_second" validate:"gte=0"`
}

type LoopConfig struct {
	MaxIterations int `mapstructure:"max_iterations" validate:"gte=1"`
	AnswerWords   int `mapstructure:"answer_words" validate:"gte=50"`
}

type ServerConfig struct {
	Addr       string        `mapstructure:"addr"`
	RunTimeout time.Duration `mapstructure:"run_timeout" validate:"gte=0"`
	MaxRuns    int           `mapstructure:"max_runs" validate:"gte=0"`
}

type LogConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
}

var validate = validator.New()

// Load reads an optional config file (YAML or JSON), then REFLEXION_* env
// vars, on top of defaults. Well-known provider keys (OPENAI_API_KEY,
// TAVILY_API_KEY, BRAVE_API_KEY) are honoured too.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("reflexion")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("llm.api_key", "REFLEXION_LLM_API_KEY", "OPENAI_API_KEY")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if cfg.Search.APIKey == "" {
		cfg.Search.APIKey = searchKeyFromEnv(v, cfg.Search.Provider)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks field constraints.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.model", "gpt-4.1-mini")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.timeout", 60*time.Second)

	v.SetDefault("search.provider", "tavily")
	v.SetDefault("search.api_key", "")
	v.SetDefault("search.depth", "basic")
	v.SetDefault("search.max_results", 5)
	v.SetDefault("search.timeout", 15*time.Second)
	v.SetDefault("search.concurrency", 3)
	v.SetDefault("search.rate_per_second", 0)

	v.SetDefault("loop.max_iterations", 3)
	v.SetDefault("loop.answer_words", 250)

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.run_timeout", 5*time.Minute)
	v.SetDefault("server.max_runs", 500)

	v.SetDefault("log.level", "info")
}

func searchKeyFromEnv(v *viper.Viper, provider string) string {
	switch provider {
	case "tavily":
		_ = v.BindEnv("tavily_api_key", "TAVILY_API_KEY")
		return v.GetString("tavily_api_key")
	case "brave":
		_ = v.BindEnv("brave_api_key", "BRAVE_API_KEY")
		return v.GetString("brave_api_key")
	}
	return ""
}
