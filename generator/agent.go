package generator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

const (
	defaultAnswerWords = 250
	defaultTimeout     = 60 * time.Second
)

// Agent 负责生成首稿或修订稿，调用之间不保存状态，上下文全部来自 PromptContext。
type Agent struct {
	llm     LLMClient
	words   int
	timeout time.Duration
	now     func() time.Time
	logger  *zap.Logger
}

// AgentOption configures an Agent.
type AgentOption func(*Agent)

// WithAnswerWords sets the word bound requested from the model.
func WithAnswerWords(n int) AgentOption {
	return func(a *Agent) {
		if n > 0 {
			a.words = n
		}
	}
}

// WithTimeout bounds each generation call. Zero disables the bound.
func WithTimeout(d time.Duration) AgentOption {
	return func(a *Agent) { a.timeout = d }
}

// WithClock overrides the time stamped into prompts.
func WithClock(now func() time.Time) AgentOption {
	return func(a *Agent) { a.now = now }
}

func WithLogger(l *zap.Logger) AgentOption {
	return func(a *Agent) {
		if l != nil {
			a.logger = l
		}
	}
}

func NewAgent(llm LLMClient, opts ...AgentOption) (*Agent, error) {
	if llm == nil {
		return nil, errors.New("llm client is required")
	}
	a := &Agent{
		llm:     llm,
		words:   defaultAnswerWords,
		timeout: defaultTimeout,
		now:     time.Now,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Generate 根据 mode 决定首稿或修订流程。History 为空时才使用 Question。
func (a *Agent) Generate(ctx context.Context, mode Shape, pc PromptContext) (RawResponse, error) {
	instruction := pc.Instruction
	if instruction == "" {
		if mode == ShapeRevision {
			instruction = RevisionInstruction(a.words)
		} else {
			instruction = DraftInstruction(a.words)
		}
	}
	history := pc.History
	if len(history) == 0 {
		history = []Message{{Role: RoleUser, Content: pc.Question, CreatedAt: a.now()}}
	}
	prompt := BuildPrompt(instruction, history, a.now())

	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	start := time.Now()
	raw, err := a.llm.Invoke(ctx, prompt, mode)
	if err != nil {
		return RawResponse{}, fmt.Errorf("%w: %s: %w", ErrGeneration, mode, err)
	}
	a.logger.Debug("generation done",
		zap.Stringer("shape", mode),
		zap.Int("history", len(history)),
		zap.Int("tool_calls", len(raw.ToolCalls)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return raw, nil
}
