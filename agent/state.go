package agent

import (
	"fmt"
	"time"

	"reflexion_agent/generator"
	"reflexion_agent/search"
)

// State is the mutable record of one run. Only the loop goroutine touches it.
type State struct {
	Question      string
	History       []generator.Message
	Invocations   []search.Invocation
	Results       [][]search.Result
	DispatchCount int
}

func newState(question string, now time.Time) *State {
	return &State{
		Question: question,
		History:  []generator.Message{{Role: generator.RoleUser, Content: question, CreatedAt: now}},
	}
}

// nextPhase tags the upcoming dispatch round.
func (s *State) nextPhase() search.Phase {
	if s.DispatchCount == 0 {
		return search.PhaseInitial
	}
	return search.PhaseRevision
}

func (s *State) appendCall(p generator.Parsed, now time.Time) {
	call := p.Call
	s.History = append(s.History, generator.Message{
		Role:      generator.RoleAssistant,
		ToolCall:  &call,
		CreatedAt: now,
	})
}

// recordDispatch appends a completed round as the tool reply to callID and
// counts it. It is the only place DispatchCount changes.
func (s *State) recordDispatch(inv search.Invocation, results []search.Result, callID string, now time.Time) error {
	payload, err := search.Payload(results)
	if err != nil {
		return fmt.Errorf("encode tool results: %w", err)
	}
	s.Invocations = append(s.Invocations, inv)
	s.Results = append(s.Results, results)
	s.History = append(s.History, generator.Message{
		Role:       generator.RoleTool,
		Content:    payload,
		ToolCallID: callID,
		CreatedAt:  now,
	})
	s.DispatchCount++
	return nil
}
