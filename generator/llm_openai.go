package generator

import (
	"context"
	"errors"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAILLM implements LLMClient using the official openai-go SDK (chat
// completions with a forced named tool).
type OpenAILLM struct {
	Model  string
	client openai.Client
}

func NewOpenAILLMFromConfig(cfg *LLMSettings) (*OpenAILLM, error) {
	if cfg == nil {
		return nil, errors.New("llm config is nil")
	}
	if cfg.APIKey == "" {
		return nil, errors.New("openai api key missing; provide llm.api_key or OPENAI_API_KEY")
	}
	if cfg.Model == "" {
		return nil, errors.New("llm model is required")
	}
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &OpenAILLM{Model: cfg.Model, client: openai.NewClient(opts...)}, nil
}

func (o *OpenAILLM) Invoke(ctx context.Context, prompt Prompt, shape Shape) (RawResponse, error) {
	tool := ToolFor(shape)

	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(o.Model),
		Messages: chatMessages(prompt),
		Tools: []openai.ChatCompletionToolParam{{
			Function: openai.FunctionDefinitionParam{
				Name:        tool.Name,
				Description: openai.String(tool.Description),
				Parameters:  openai.FunctionParameters(tool.Parameters),
			},
		}},
		ToolChoice: openai.ChatCompletionToolChoiceOptionUnionParam{
			OfChatCompletionNamedToolChoice: &openai.ChatCompletionNamedToolChoiceParam{
				Function: openai.ChatCompletionNamedToolChoiceFunctionParam{Name: tool.Name},
			},
		},
	})
	if err != nil {
		return RawResponse{}, err
	}
	if len(resp.Choices) == 0 {
		return RawResponse{}, errors.New("openai: empty choices")
	}
	msg := resp.Choices[0].Message
	raw := RawResponse{Content: msg.Content}
	for _, tc := range msg.ToolCalls {
		raw.ToolCalls = append(raw.ToolCalls, ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}
	return raw, nil
}

func chatMessages(prompt Prompt) []openai.ChatCompletionMessageParamUnion {
	msgs := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(prompt.System),
	}
	for _, h := range prompt.History {
		switch h.Role {
		case RoleAssistant:
			if h.ToolCall == nil {
				msgs = append(msgs, openai.ChatCompletionMessageParamOfAssistant(h.Content))
				continue
			}
			msgs = append(msgs, openai.ChatCompletionMessageParamUnion{
				OfAssistant: &openai.ChatCompletionAssistantMessageParam{
					ToolCalls: []openai.ChatCompletionMessageToolCallParam{{
						ID: h.ToolCall.ID,
						Function: openai.ChatCompletionMessageToolCallFunctionParam{
							Name:      h.ToolCall.Name,
							Arguments: h.ToolCall.Arguments,
						},
					}},
				},
			})
		case RoleTool:
			msgs = append(msgs, openai.ToolMessage(h.Content, h.ToolCallID))
		default:
			msgs = append(msgs, openai.UserMessage(h.Content))
		}
	}
	if prompt.Reminder != "" {
		msgs = append(msgs, openai.SystemMessage(prompt.Reminder))
	}
	return msgs
}
