package render

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var md = goldmark.New(goldmark.WithExtensions(extension.GFM))

var (
	citationRe = regexp.MustCompile(`\[(\d{1,3})\]`)
	// "- [1] https://..." lines of a References section
	refLineRe = regexp.MustCompile(`^\s*(?:[-*]\s*)?\[\d{1,3}\]\s*\S+://`)
)

// HTML converts a markdown answer to HTML.
func HTML(answer string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(answer), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Terminal renders markdown for a terminal of the given width.
func Terminal(answer string, width int) (string, error) {
	if width <= 0 {
		width = 80
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", err
	}
	return r.Render(answer)
}

// LinkCitations turns [n] markers into links to the n-th reference. Markers
// without an http(s) reference, existing links and the lines of a References
// section are left as is.
func LinkCitations(answer string, refs []string) string {
	if len(refs) == 0 {
		return answer
	}
	lines := strings.Split(answer, "\n")
	for i, line := range lines {
		if refLineRe.MatchString(line) {
			continue
		}
		lines[i] = linkLine(line, refs)
	}
	return strings.Join(lines, "\n")
}

func linkLine(line string, refs []string) string {
	var b strings.Builder
	last := 0
	for _, m := range citationRe.FindAllStringSubmatchIndex(line, -1) {
		start, end := m[0], m[1]
		if end < len(line) && (line[end] == '(' || line[end] == ':') {
			continue
		}
		if start > 0 && line[start-1] == '[' {
			continue
		}
		n, err := strconv.Atoi(line[m[2]:m[3]])
		if err != nil || n < 1 || n > len(refs) {
			continue
		}
		ref := strings.TrimSpace(refs[n-1])
		if !strings.HasPrefix(ref, "http://") && !strings.HasPrefix(ref, "https://") {
			continue
		}
		b.WriteString(line[last:start])
		fmt.Fprintf(&b, "[\\[%d\\]](%s)", n, ref)
		last = end
	}
	b.WriteString(line[last:])
	return b.String()
}
