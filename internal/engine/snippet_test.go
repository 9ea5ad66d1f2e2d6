package engine

import "testing"

func tokenSet(tokens ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(tokens))
	for _, tok := range tokens {
		set[tok] = struct{}{}
	}
	return set
}

func TestSnippet(t *testing.T) {
	cases := []struct {
		name   string
		text   string
		tokens []string
		window int
		want   string
	}{
		{
			name:   "centers window on first match",
			text:   "the quick brown fox jumps",
			tokens: []string{"fox"},
			window: 4,
			want:   "...quick brown <mark>fox</mark> jumps",
		},
		{
			name:   "match at start anchors window at zero",
			text:   "solar panels convert sunlight into electricity for homes",
			tokens: []string{"solar"},
			window: 4,
			want:   "<mark>solar</mark> panels convert sunlight...",
		},
		{
			name:   "no match falls back to leading words",
			text:   "alpha beta gamma delta epsilon zeta",
			tokens: []string{"omega"},
			window: 3,
			want:   "alpha beta gamma...",
		},
		{
			name:   "no match on short text keeps everything",
			text:   "alpha beta",
			tokens: []string{"omega"},
			window: 5,
			want:   "alpha beta...",
		},
		{
			name:   "empty text",
			text:   "",
			tokens: []string{"fox"},
			window: 4,
			want:   "",
		},
		{
			name:   "whitespace only text",
			text:   "   ",
			tokens: []string{"fox"},
			window: 4,
			want:   "...",
		},
		{
			name:   "highlights every match in the window",
			text:   "fox meets fox near the den",
			tokens: []string{"fox"},
			window: 4,
			want:   "<mark>fox</mark> meets <mark>fox</mark> near...",
		},
		{
			name:   "plural surface form matches lemmatized token",
			text:   "wireless networks carry traffic",
			tokens: []string{"network"},
			window: 4,
			want:   "wireless <mark>networks</mark> carry traffic",
		},
		{
			name:   "punctuation on surface words does not block matching",
			text:   "results improve accuracy, speed and recall",
			tokens: []string{"accuracy"},
			window: 3,
			want:   "...improve <mark>accuracy,</mark> speed...",
		},
		{
			name:   "stop words never match",
			text:   "the and of gathering",
			tokens: []string{"the", "and", "of"},
			window: 4,
			want:   "the and of gathering...",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := snippet(tc.text, tokenSet(tc.tokens...), tc.window)
			if got != tc.want {
				t.Errorf("snippet(%q, %v, %d) = %q, want %q", tc.text, tc.tokens, tc.window, got, tc.want)
			}
		})
	}
}

func TestSnippetWindowLargerThanText(t *testing.T) {
	got := snippet("fox den", tokenSet("fox"), 20)
	if want := "<mark>fox</mark> den"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
