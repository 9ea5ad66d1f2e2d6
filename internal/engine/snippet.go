package engine

import (
	"strings"

	"github.com/gcbaptista/pubsearch/internal/tokenizer"
)

// snippet builds a highlighted excerpt of text centered on the first word
// whose normalized form is one of the query tokens. Matching words in the
// window are wrapped in <mark> tags; a leading or trailing "..." marks
// truncation. When nothing matches, the first window words are returned with
// a trailing ellipsis. Empty text yields an empty snippet.
func snippet(text string, queryTokens map[string]struct{}, window int) string {
	if text == "" {
		return ""
	}
	words := strings.Fields(text)

	matchIdx := -1
	for i, word := range words {
		if matchesQuery(word, queryTokens) {
			matchIdx = i
			break
		}
	}

	if matchIdx == -1 {
		limit := window
		if limit > len(words) {
			limit = len(words)
		}
		return strings.Join(words[:limit], " ") + "..."
	}

	start := matchIdx - window/2
	if start < 0 {
		start = 0
	}
	end := start + window
	if end > len(words) {
		end = len(words)
	}

	highlighted := make([]string, 0, end-start)
	for _, word := range words[start:end] {
		if matchesQuery(word, queryTokens) {
			highlighted = append(highlighted, "<mark>"+word+"</mark>")
		} else {
			highlighted = append(highlighted, word)
		}
	}

	out := strings.Join(highlighted, " ")
	if start > 0 {
		out = "..." + out
	}
	if end < len(words) {
		out += "..."
	}
	return out
}

// matchesQuery normalizes a display word through the shared tokenizer and
// checks it against the query token set. Words that normalize to nothing
// (stop words, bare punctuation) never match.
func matchesQuery(word string, queryTokens map[string]struct{}) bool {
	tokens := tokenizer.Tokenize(word)
	if len(tokens) == 0 {
		return false
	}
	_, ok := queryTokens[tokens[0]]
	return ok
}
