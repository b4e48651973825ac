package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinkCitations(t *testing.T) {
	refs := []string{"https://a.example", "https://b.example", "not-a-url"}

	tests := []struct {
		name   string
		answer string
		want   string
	}{
		{
			name:   "single marker",
			answer: "Go has goroutines [1].",
			want:   "Go has goroutines [\\[1\\]](https://a.example).",
		},
		{
			name:   "adjacent markers",
			answer: "Both agree [1][2].",
			want:   "Both agree [\\[1\\]](https://a.example)[\\[2\\]](https://b.example).",
		},
		{
			name:   "out of range",
			answer: "Unknown source [9].",
			want:   "Unknown source [9].",
		},
		{
			name:   "non http reference",
			answer: "Odd source [3].",
			want:   "Odd source [3].",
		},
		{
			name:   "existing link",
			answer: "See [1](https://a.example).",
			want:   "See [1](https://a.example).",
		},
		{
			name:   "reference definition",
			answer: "[1]: https://a.example",
			want:   "[1]: https://a.example",
		},
		{
			name:   "references section kept",
			answer: "Fact [2].\n\nReferences:\n- [1] https://a.example\n- [2] https://b.example",
			want:   "Fact [\\[2\\]](https://b.example).\n\nReferences:\n- [1] https://a.example\n- [2] https://b.example",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LinkCitations(tt.answer, refs))
		})
	}
}

func TestLinkCitations_NoRefs(t *testing.T) {
	assert.Equal(t, "Claim [1].", LinkCitations("Claim [1].", nil))
}

func TestHTML(t *testing.T) {
	out, err := HTML("## Title\n\n| a | b |\n|---|---|\n| 1 | 2 |\n\nSee [\\[1\\]](https://a.example).")
	require.NoError(t, err)
	assert.Contains(t, out, "<h2>Title</h2>")
	assert.Contains(t, out, "<table>")
	assert.Contains(t, out, `<a href="https://a.example">[1]</a>`)
}

func TestTerminal(t *testing.T) {
	out, err := Terminal("# Heading\n\nSome *text*.", 0)
	require.NoError(t, err)
	assert.Contains(t, out, "Heading")
	assert.Contains(t, out, "text")
}
