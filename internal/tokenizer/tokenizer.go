// Package tokenizer normalizes text for indexing and querying. The pipeline
// is: lowercase, mask URLs and email addresses, strip ASCII punctuation,
// split on whitespace, drop stop words and single-character tokens, then
// lemmatize with a suffix-based normalizer. Indexing, query processing and
// snippet highlighting all go through the same pipeline, so a term always
// normalizes to the same token.
package tokenizer

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// urlPattern matches http/https URLs. Masking runs after lowercasing, so the
// uppercase [URL] replacement survives as a literal "URL" token.
var urlPattern = regexp.MustCompile(`https?://(?:[a-zA-Z0-9$-_@.&+!*(),\\]|%[0-9a-fA-F]{2})+`)

// emailPattern matches email addresses.
var emailPattern = regexp.MustCompile(`\b[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}\b`)

// asciiPunct is the set of characters replaced by spaces before splitting.
const asciiPunct = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

// Step is one stage of the normalization trace returned by Steps.
type Step struct {
	Step   string `json:"step"`
	Result string `json:"result"`
}

// Tokenize converts text into normalized index tokens. It always returns a
// non-nil slice; empty or all-stop-word input yields an empty slice.
func Tokenize(text string) []string {
	tokens := make([]string, 0)
	if text == "" {
		return tokens
	}

	words := splitWords(maskEntities(strings.ToLower(text)))
	for _, word := range words {
		if _, stop := stopWords[word]; stop {
			continue
		}
		if utf8.RuneCountInString(word) < 2 {
			continue
		}
		tokens = append(tokens, lemmatize(word))
	}
	return tokens
}

// Steps traces the pipeline stage by stage for the same input, for the
// tokenization transparency endpoint.
func Steps(text string) []Step {
	steps := []Step{{Step: "Original Text", Result: text}}

	lower := strings.ToLower(text)
	steps = append(steps, Step{Step: "Lowercase Conversion", Result: lower})

	masked := maskEntities(lower)
	steps = append(steps, Step{Step: "Entity Masking", Result: masked})

	words := splitWords(masked)
	steps = append(steps, Step{Step: "Tokenization", Result: strings.Join(words, " | ")})

	steps = append(steps, Step{
		Step:   "Lemmatization & Stopword Removal",
		Result: strings.Join(Tokenize(text), " | "),
	})
	return steps
}

func maskEntities(text string) string {
	text = urlPattern.ReplaceAllString(text, "[URL]")
	return emailPattern.ReplaceAllString(text, "[EMAIL]")
}

func splitWords(text string) []string {
	cleaned := strings.Map(func(r rune) rune {
		if r < utf8.RuneSelf && strings.ContainsRune(asciiPunct, r) {
			return ' '
		}
		return r
	}, text)
	return strings.Fields(cleaned)
}

// lemmatize reduces plural and inflected noun forms with ordered suffix
// rules. -ss, -us and -is endings are left alone (class, corpus, analysis).
func lemmatize(word string) string {
	if len(word) < 3 {
		return word
	}
	switch {
	case strings.HasSuffix(word, "sses"):
		return word[:len(word)-2]
	case strings.HasSuffix(word, "ies") && len(word) > 4:
		return word[:len(word)-3] + "y"
	case strings.HasSuffix(word, "xes"),
		strings.HasSuffix(word, "ches"),
		strings.HasSuffix(word, "shes"),
		strings.HasSuffix(word, "zes"):
		return word[:len(word)-2]
	case strings.HasSuffix(word, "ss"),
		strings.HasSuffix(word, "us"),
		strings.HasSuffix(word, "is"):
		return word
	case strings.HasSuffix(word, "s"):
		return word[:len(word)-1]
	}
	return word
}
