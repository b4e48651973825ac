package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reflexion_agent/config"
	"reflexion_agent/generator"
	"reflexion_agent/search"
)

func TestBuildLLM(t *testing.T) {
	llm, err := buildLLM(config.LLMConfig{Provider: "mock"})
	require.NoError(t, err)
	assert.IsType(t, generator.MockLLM{}, llm)

	_, err = buildLLM(config.LLMConfig{Provider: "deepseek", Model: "deepseek-chat", APIKey: "k"})
	assert.ErrorContains(t, err, "base_url")

	llm, err = buildLLM(config.LLMConfig{Provider: "openai", Model: "gpt-4.1-mini", APIKey: "k"})
	require.NoError(t, err)
	assert.IsType(t, &generator.OpenAILLM{}, llm)

	_, err = buildLLM(config.LLMConfig{Provider: "other"})
	assert.Error(t, err)
}

func TestBuildSearcher(t *testing.T) {
	p, err := buildSearcher(config.SearchConfig{Provider: "Brave", APIKey: "k"})
	require.NoError(t, err)
	assert.IsType(t, &search.Brave{}, p)

	p, err = buildSearcher(config.SearchConfig{Provider: "static"})
	require.NoError(t, err)
	assert.IsType(t, search.Static{}, p)

	_, err = buildSearcher(config.SearchConfig{Provider: "bing"})
	assert.Error(t, err)
}

func TestSchemaCmd(t *testing.T) {
	var out bytes.Buffer
	cmd := newSchemaCmd()
	cmd.SetOut(&out)
	require.NoError(t, cmd.Execute())

	var tools []generator.ToolSpec
	require.NoError(t, json.Unmarshal(out.Bytes(), &tools))
	require.Len(t, tools, 2)
	assert.Equal(t, "AnswerQuestion", tools[0].Name)
	assert.Equal(t, "ReviseAnswer", tools[1].Name)
}

func TestAskCmd_Offline(t *testing.T) {
	t.Setenv("REFLEXION_LLM_PROVIDER", "mock")
	t.Setenv("REFLEXION_SEARCH_PROVIDER", "static")
	t.Setenv("REFLEXION_LOOP_MAX_ITERATIONS", "1")

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"ask", "What", "is", "Go?"})
	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "What is Go?")
	assert.Contains(t, out.String(), "References:")
}
