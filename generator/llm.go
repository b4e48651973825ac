package generator

import "context"

// LLMClient 抽象大模型客户端，便于替换/Mock。Invoke 必须强制模型调用 shape 对应的工具。
type LLMClient interface {
	Invoke(ctx context.Context, prompt Prompt, shape Shape) (RawResponse, error)
}

// LLMSettings 提供给具体实现的基础配置。
type LLMSettings struct {
	Provider string
	Model    string
	APIKey   string
	BaseURL  string
}
