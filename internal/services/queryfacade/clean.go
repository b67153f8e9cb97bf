package queryfacade

import (
	"regexp"
	"strings"

	"github.com/ternarybob/sitecorpus/internal/interfaces"
)

var (
	runOfNewlines = regexp.MustCompile(`\n{3,}`)
	runOfSpaces   = regexp.MustCompile(`[ \t]{3,}`)
	urlToken      = regexp.MustCompile(`https?://[^\s<>"')\]]+`)
	urlFragment   = regexp.MustCompile(`#.*$`)
	trailingPunct = regexp.MustCompile(`[.,;:!?'")\]]+$`)
)

// cleanAnswer collapses long runs of newlines/spaces the search store
// sometimes emits around grounded passages, trims each line, and trims the
// whole answer.
func cleanAnswer(answer string) string {
	answer = runOfNewlines.ReplaceAllString(answer, "\n\n")
	answer = runOfSpaces.ReplaceAllString(answer, " ")

	lines := strings.Split(answer, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// extractCitations maps grounding chunks to citations. When a chunk carries
// no URI, the first https?:// token in its cited text is used instead, with
// any trailing #fragment and trailing punctuation stripped.
func extractCitations(chunks []interfaces.GroundingChunk) []Citation {
	citations := make([]Citation, 0, len(chunks))
	for _, c := range chunks {
		uri := c.URI
		if uri == "" {
			uri = firstURLToken(c.Text)
		}
		if uri == "" {
			continue
		}
		citations = append(citations, Citation{
			URL:     uri,
			Title:   c.Title,
			Snippet: c.Text,
		})
	}
	return citations
}

func firstURLToken(text string) string {
	match := urlToken.FindString(text)
	if match == "" {
		return ""
	}
	match = urlFragment.ReplaceAllString(match, "")
	return trailingPunct.ReplaceAllString(match, "")
}
