package main

import (
	"fmt"
	"net/http"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"reflexion_agent/agent"
	"reflexion_agent/config"
	"reflexion_agent/generator"
	"reflexion_agent/search"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLogger(level string, verbose bool) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if verbose {
		zc = zap.NewDevelopmentConfig()
		level = "debug"
	}
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	zc.Level = zap.NewAtomicLevelAt(lvl)
	return zc.Build()
}

func buildLoop(cfg config.Config, logger *zap.Logger) (*agent.Loop, error) {
	llm, err := buildLLM(cfg.LLM)
	if err != nil {
		return nil, err
	}
	gen, err := generator.NewAgent(llm,
		generator.WithAnswerWords(cfg.Loop.AnswerWords),
		generator.WithTimeout(cfg.LLM.Timeout),
		generator.WithLogger(logger.Named("generator")),
	)
	if err != nil {
		return nil, err
	}
	provider, err := buildSearcher(cfg.Search)
	if err != nil {
		return nil, err
	}
	disp, err := search.NewDispatcher(provider,
		search.WithMaxResults(cfg.Search.MaxResults),
		search.WithConcurrency(cfg.Search.Concurrency),
		search.WithQueryTimeout(cfg.Search.Timeout),
		search.WithLogger(logger.Named("search")),
	)
	if err != nil {
		return nil, err
	}
	return agent.New(gen, disp,
		agent.WithMaxIterations(cfg.Loop.MaxIterations),
		agent.WithLogger(logger.Named("agent")),
	)
}

func buildLLM(cfg config.LLMConfig) (generator.LLMClient, error) {
	switch cfg.Provider {
	case "openai":
		return generator.NewOpenAILLMFromConfig(&generator.LLMSettings{
			Provider: cfg.Provider,
			Model:    cfg.Model,
			APIKey:   cfg.APIKey,
			BaseURL:  cfg.BaseURL,
		})
	case "deepseek":
		// DeepSeek 提供 OpenAI 兼容接口，需填写 base_url（例如官方/网关地址）。
		if cfg.BaseURL == "" {
			return nil, fmt.Errorf("llm provider deepseek requires base_url (OpenAI-compatible endpoint)")
		}
		return generator.NewOpenAILLMFromConfig(&generator.LLMSettings{
			Provider: cfg.Provider,
			Model:    cfg.Model,
			APIKey:   cfg.APIKey,
			BaseURL:  cfg.BaseURL,
		})
	case "mock":
		return generator.MockLLM{}, nil
	default:
		return nil, fmt.Errorf("llm provider %s not supported", cfg.Provider)
	}
}

func buildSearcher(cfg config.SearchConfig) (search.Provider, error) {
	client := &http.Client{Timeout: cfg.Timeout}
	switch strings.ToLower(cfg.Provider) {
	case "tavily":
		return search.NewTavily(cfg.APIKey, cfg.Depth, cfg.MaxResults, cfg.RatePerSecond, client), nil
	case "brave":
		return search.NewBrave(cfg.APIKey, cfg.MaxResults, cfg.RatePerSecond, client), nil
	case "static":
		return search.Static{}, nil
	default:
		return nil, fmt.Errorf("search provider %s not supported", cfg.Provider)
	}
}
