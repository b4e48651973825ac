package search

import (
	"context"
	"encoding/json"
)

// Phase records which step of the loop asked for a search.
type Phase string

const (
	PhaseInitial  Phase = "INITIAL"
	PhaseRevision Phase = "REVISION"
)

// Snippet is a single ranked hit.
type Snippet struct {
	URL     string `json:"url"`
	Content string `json:"content"`
}

// Provider executes one query against a retrieval backend.
type Provider interface {
	Search(ctx context.Context, query string) ([]Snippet, error)
}

// Invocation is a batch of queries tagged with the phase that produced them.
type Invocation struct {
	Phase   Phase
	Queries []string
}

// Result answers one query of an Invocation. A failed query has no snippets
// and Err set.
type Result struct {
	Query    string    `json:"query"`
	Phase    Phase     `json:"phase"`
	Snippets []Snippet `json:"snippets"`
	Err      error     `json:"-"`
}

// toolEntry is one query's slot in a tool message.
type toolEntry struct {
	Query    string    `json:"query"`
	Snippets []Snippet `json:"snippets"`
}

// Payload renders results the way tool messages carry them: an ordered list
// with one {query, snippets} entry per Result. Failed queries keep their slot
// with an empty snippet list.
func Payload(results []Result) (string, error) {
	entries := make([]toolEntry, 0, len(results))
	for _, r := range results {
		snippets := r.Snippets
		if snippets == nil {
			snippets = []Snippet{}
		}
		entries = append(entries, toolEntry{Query: r.Query, Snippets: snippets})
	}
	b, err := json.Marshal(entries)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
