package generator

import "time"

// MaxSearchQueries bounds the follow-up queries kept from one generation.
const MaxSearchQueries = 3

// Shape selects which structured output the model is forced into.
type Shape int

const (
	ShapeDraft Shape = iota
	ShapeRevision
)

func (s Shape) String() string {
	switch s {
	case ShapeDraft:
		return "draft"
	case ShapeRevision:
		return "revision"
	default:
		return "unknown"
	}
}

// Reflection is the model's critique of its own answer.
type Reflection struct {
	Missing     string `json:"missing" jsonschema_description:"Critique of what is missing."`
	Superfluous string `json:"superfluous" jsonschema_description:"Critique of what is superfluous."`
}

// Draft is the模型产出的首稿。
type Draft struct {
	Answer        string     `json:"answer" jsonschema_description:"~250 word detailed answer to the question."`
	Reflection    Reflection `json:"reflection" jsonschema_description:"Your reflection on the initial answer."`
	SearchQueries []string   `json:"search_queries" jsonschema:"minItems=1,maxItems=3" jsonschema_description:"1-3 search queries for researching improvements to address the critique of your current answer."`
}

// Revision is an improved answer that cites its sources.
type Revision struct {
	Answer        string     `json:"answer" jsonschema_description:"~250 word detailed answer to the question."`
	Reflection    Reflection `json:"reflection" jsonschema_description:"Your reflection on the revised answer."`
	SearchQueries []string   `json:"search_queries" jsonschema:"minItems=1,maxItems=3" jsonschema_description:"1-3 search queries for researching improvements to address the critique of your current answer."`
	Reference     []string   `json:"reference" jsonschema_description:"Citations motivating your updated answer."`
}

// ToolCall is one function call returned by the model.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// RawResponse is the unparsed output of a generation call.
type RawResponse struct {
	Content   string
	ToolCalls []ToolCall
}

// Role of a history message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message 记录一条对话历史：assistant 消息携带其工具调用，tool 消息按 ID 回复该调用。
type Message struct {
	Role       Role      `json:"role"`
	Content    string    `json:"content,omitempty"`
	ToolCall   *ToolCall `json:"tool_call,omitempty"`
	ToolCallID string    `json:"tool_call_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
