package generator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// MockLLM 一个离线占位实现，便于本地调试，不调用外部模型；
// 按请求的 shape 返回格式正确的工具调用。
type MockLLM struct{}

func (m MockLLM) Invoke(_ context.Context, prompt Prompt, shape Shape) (RawResponse, error) {
	var question string
	var refs []string
	rounds := 0
	for _, h := range prompt.History {
		switch h.Role {
		case RoleUser:
			if question == "" {
				question = h.Content
			}
		case RoleTool:
			rounds++
			var entries []struct {
				Snippets []struct {
					URL string `json:"url"`
				} `json:"snippets"`
			}
			if err := json.Unmarshal([]byte(h.Content), &entries); err != nil {
				continue
			}
			// 引用按工具消息中的顺序编号。
			for _, e := range entries {
				for _, s := range e.Snippets {
					refs = append(refs, s.URL)
				}
			}
		}
	}
	question = strings.TrimSpace(question)

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## %s\n\n", question))
	sb.WriteString("This is an offline answer produced without a language model.")
	for i := range refs {
		sb.WriteString(fmt.Sprintf(" [%d]", i+1))
	}
	if len(refs) > 0 {
		sb.WriteString("\n\nReferences:\n")
		for i, r := range refs {
			sb.WriteString(fmt.Sprintf("- [%d] %s\n", i+1, r))
		}
	}

	payload := map[string]any{
		"answer": sb.String(),
		"reflection": map[string]string{
			"missing":     "Concrete examples and sources.",
			"superfluous": "",
		},
		"search_queries": []string{question, fmt.Sprintf("%s examples %d", question, rounds+1)},
	}
	if shape == ShapeRevision {
		if refs == nil {
			refs = []string{}
		}
		payload["reference"] = refs
	}
	args, err := json.Marshal(payload)
	if err != nil {
		return RawResponse{}, err
	}
	return RawResponse{ToolCalls: []ToolCall{{
		ID:        fmt.Sprintf("call_mock_%d", len(prompt.History)),
		Name:      ToolFor(shape).Name,
		Arguments: string(args),
	}}}, nil
}
