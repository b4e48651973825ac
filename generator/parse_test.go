package generator

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func call(name, args string) RawResponse {
	return RawResponse{ToolCalls: []ToolCall{{ID: "call_1", Name: name, Arguments: args}}}
}

func TestParse_DraftStrict(t *testing.T) {
	raw := call("AnswerQuestion", `{
		"answer": "X is a thing.",
		"reflection": {"missing": "examples", "superfluous": ""},
		"search_queries": ["X example 1", "X example 2"]
	}`)

	p, err := Parse(raw, ShapeDraft)
	require.NoError(t, err)
	require.NotNil(t, p.Draft)
	assert.Nil(t, p.Revision)
	assert.Nil(t, p.Drift)
	assert.Equal(t, "X is a thing.", p.Draft.Answer)
	assert.Equal(t, Reflection{Missing: "examples", Superfluous: ""}, p.Draft.Reflection)
	assert.Equal(t, []string{"X example 1", "X example 2"}, p.SearchQueries())
	assert.Equal(t, "call_1", p.Call.ID)
	assert.Equal(t, "AnswerQuestion", p.Call.Name)
}

func TestParse_RevisionStrict(t *testing.T) {
	raw := call("ReviseAnswer", `{
		"answer": "X is a thing [1].",
		"reflection": {"missing": "none", "superfluous": "history"},
		"search_queries": ["X 2024"],
		"reference": ["https://example.com/x"]
	}`)

	p, err := Parse(raw, ShapeRevision)
	require.NoError(t, err)
	require.NotNil(t, p.Revision)
	assert.Nil(t, p.Drift)
	assert.Equal(t, []string{"https://example.com/x"}, p.Revision.Reference)
	assert.Equal(t, "X is a thing [1].", p.Answer())
}

func TestParse_RevisionMissingReference(t *testing.T) {
	raw := call("ReviseAnswer", `{
		"answer": "Still an answer.",
		"reflection": {"missing": "a", "superfluous": "b"},
		"search_queries": ["q"]
	}`)

	p, err := Parse(raw, ShapeRevision)
	require.NoError(t, err)
	require.NotNil(t, p.Revision)
	assert.Equal(t, "Still an answer.", p.Revision.Answer)
	assert.NotNil(t, p.Revision.Reference)
	assert.Empty(t, p.Revision.Reference)
}

func TestParse_FallbackCases(t *testing.T) {
	tests := []struct {
		name        string
		shape       Shape
		raw         RawResponse
		wantAnswer  string
		wantQueries []string
		wantRefs    []string
	}{
		{
			name:        "missing answer uses sentinel",
			shape:       ShapeDraft,
			raw:         call("AnswerQuestion", `{"reflection": {"missing": "a", "superfluous": "b"}, "search_queries": ["q1"]}`),
			wantAnswer:  MissingAnswer,
			wantQueries: []string{"q1"},
		},
		{
			name:        "missing reflection",
			shape:       ShapeRevision,
			raw:         call("ReviseAnswer", `{"answer": "ans", "search_queries": ["q1"], "reference": ["https://a"]}`),
			wantAnswer:  "ans",
			wantQueries: []string{"q1"},
			wantRefs:    []string{"https://a"},
		},
		{
			name:        "wrong tool for shape",
			shape:       ShapeRevision,
			raw:         call("AnswerQuestion", `{"answer": "ans", "reflection": {"missing": "", "superfluous": ""}, "search_queries": ["q1"]}`),
			wantAnswer:  "ans",
			wantQueries: []string{"q1"},
			wantRefs:    []string{},
		},
		{
			name:       "citations under another key",
			shape:      ShapeRevision,
			raw:        call("ReviseAnswer", `{"answer": "ans", "citations": ["https://c1", " ", "https://c2"]}`),
			wantAnswer: "ans",
			wantRefs:   []string{"https://c1", "https://c2"},
		},
		{
			name:        "empty query list",
			shape:       ShapeDraft,
			raw:         call("AnswerQuestion", `{"answer": "ans", "reflection": {"missing": "", "superfluous": ""}, "search_queries": []}`),
			wantAnswer:  "ans",
			wantQueries: nil,
		},
		{
			name:        "single query as string",
			shape:       ShapeDraft,
			raw:         call("AnswerQuestion", `{"answer": "ans", "search_queries": "only one"}`),
			wantAnswer:  "ans",
			wantQueries: []string{"only one"},
		},
		{
			name:       "arguments not json",
			shape:      ShapeRevision,
			raw:        call("ReviseAnswer", `this is not json`),
			wantAnswer: MissingAnswer,
			wantRefs:   []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Parse(tt.raw, tt.shape)
			require.NoError(t, err)
			require.NotNil(t, p.Drift)
			assert.Equal(t, tt.shape, p.Drift.Shape)
			assert.Equal(t, tt.shape, p.Shape)
			assert.Equal(t, tt.wantAnswer, p.Answer())
			assert.Equal(t, tt.wantQueries, p.SearchQueries())
			if tt.shape == ShapeRevision {
				require.NotNil(t, p.Revision)
				assert.Equal(t, tt.wantRefs, p.Revision.Reference)
			} else {
				require.NotNil(t, p.Draft)
			}
		})
	}
}

func TestParse_NoToolCallIsFatal(t *testing.T) {
	_, err := Parse(RawResponse{Content: "I think the answer is 42."}, ShapeDraft)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnparsableResponse))

	_, err = Parse(RawResponse{}, ShapeRevision)
	assert.ErrorIs(t, err, ErrUnparsableResponse)
}

func TestParse_CapsQueries(t *testing.T) {
	raw := call("AnswerQuestion", `{
		"answer": "a",
		"reflection": {"missing": "", "superfluous": ""},
		"search_queries": ["q1", "q2", "q3", "q4", "q5"]
	}`)
	p, err := Parse(raw, ShapeDraft)
	require.NoError(t, err)
	assert.Nil(t, p.Drift)
	assert.Equal(t, []string{"q1", "q2", "q3"}, p.SearchQueries())
}

func TestParse_PrefersCallMatchingShape(t *testing.T) {
	raw := RawResponse{ToolCalls: []ToolCall{
		{ID: "a", Name: "Other", Arguments: `{}`},
		{ID: "b", Name: "ReviseAnswer", Arguments: `{"answer": "ok", "reflection": {"missing": "", "superfluous": ""}, "search_queries": ["q"], "reference": []}`},
	}}
	p, err := Parse(raw, ShapeRevision)
	require.NoError(t, err)
	assert.Nil(t, p.Drift)
	assert.Equal(t, "b", p.Call.ID)
}

func TestParse_NormalizesDriftedCall(t *testing.T) {
	raw := RawResponse{ToolCalls: []ToolCall{{Name: "AnswerQuestion", Arguments: `{"answer": "ans"}`}}}
	p, err := Parse(raw, ShapeRevision)
	require.NoError(t, err)

	assert.NotEmpty(t, p.Call.ID)
	assert.Equal(t, "ReviseAnswer", p.Call.Name)

	var rev Revision
	require.NoError(t, json.Unmarshal([]byte(p.Call.Arguments), &rev))
	assert.Equal(t, "ans", rev.Answer)
	assert.NotNil(t, rev.Reference)
}
