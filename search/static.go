package search

import (
	"context"
	"fmt"
	"net/url"
)

// Static returns canned snippets for every query. It backs offline runs.
type Static struct {
	Snippets []Snippet
}

func (s Static) Search(_ context.Context, query string) ([]Snippet, error) {
	if len(s.Snippets) > 0 {
		out := make([]Snippet, len(s.Snippets))
		copy(out, s.Snippets)
		return out, nil
	}
	return []Snippet{{
		URL:     "https://example.com/search?q=" + url.QueryEscape(query),
		Content: fmt.Sprintf("Offline placeholder result for %q.", query),
	}}, nil
}
