package engine

import (
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/gcbaptista/pubsearch/model"
)

func TestSearchTitleVsAbstractRanking(t *testing.T) {
	eng := NewEngine(0)
	eng.AddDocument(model.Document{
		"title":    model.String("Neural Networks"),
		"abstract": model.String("A broad look at optimization methods."),
	}, "pub_a", false)
	eng.AddDocument(model.Document{
		"title":    model.String("Image Segmentation"),
		"abstract": model.String("Neural networks applied to medical imaging."),
	}, "pub_b", false)

	results := eng.Search("neural networks", 10)
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].DocID != "pub_a" {
		t.Errorf("title match ranked %s first, want pub_a", results[0].DocID)
	}
	if results[0].Score <= 0 || results[1].Score <= 0 {
		t.Errorf("both matches should score positive, got %v and %v", results[0].Score, results[1].Score)
	}

	// both query tokens appear once in each document; the only difference is
	// field weight, so the scores differ by exactly weight(title)/weight(abstract)
	idf := math.Log(2.0/3.0) + 1
	wantA := round4(2 * 3.0 * idf)
	wantB := round4(2 * 1.0 * idf)
	if !almostEqual(results[0].Score, wantA) {
		t.Errorf("pub_a score = %v, want %v", results[0].Score, wantA)
	}
	if !almostEqual(results[1].Score, wantB) {
		t.Errorf("pub_b score = %v, want %v", results[1].Score, wantB)
	}

	if got := results[0].Contribution["title"]; !almostEqual(got, 100.0) {
		t.Errorf("pub_a title contribution = %v, want 100.0", got)
	}
	if got := results[1].Contribution["abstract"]; !almostEqual(got, 100.0) {
		t.Errorf("pub_b abstract contribution = %v, want 100.0", got)
	}
}

func TestSearchEmptyAndStopwordQueries(t *testing.T) {
	eng := NewEngine(0)
	eng.AddDocument(makeDoc("some content", "more content"), "pub_1", false)

	for _, query := range []string{"", "   ", "the of and", "a"} {
		results := eng.Search(query, 10)
		if len(results) != 0 {
			t.Errorf("Search(%q) returned %d results, want 0", query, len(results))
		}
	}
}

func TestSearchUnknownToken(t *testing.T) {
	eng := NewEngine(0)
	eng.AddDocument(makeDoc("known content", ""), "pub_1", false)

	if results := eng.Search("zyzzyva", 10); len(results) != 0 {
		t.Errorf("unknown token returned %d results, want 0", len(results))
	}
}

func TestSearchTopKTruncation(t *testing.T) {
	eng := NewEngine(0)
	// score grows with the number of title occurrences
	for i := 1; i <= 5; i++ {
		title := strings.TrimSpace(strings.Repeat("fusion ", i))
		eng.AddDocument(makeDoc(title, ""), fmt.Sprintf("pub_%d", i), false)
	}

	results := eng.Search("fusion", 2)
	if len(results) != 2 {
		t.Fatalf("topK=2 returned %d results", len(results))
	}
	if results[0].DocID != "pub_5" || results[1].DocID != "pub_4" {
		t.Errorf("top results = %s, %s; want pub_5, pub_4", results[0].DocID, results[1].DocID)
	}

	if got := eng.Search("fusion", 0); len(got) != 0 {
		t.Errorf("topK=0 returned %d results, want 0", len(got))
	}
	if got := eng.Search("fusion", -1); len(got) != 0 {
		t.Errorf("negative topK returned %d results, want 0", len(got))
	}
	if got := eng.Search("fusion", 50); len(got) != 5 {
		t.Errorf("topK beyond matches returned %d results, want 5", len(got))
	}
}

func TestSearchTieBreaksByDocID(t *testing.T) {
	eng := NewEngine(0)
	// identical content means identical scores; order must fall back to ID
	eng.AddDocument(makeDoc("tied content", ""), "pub_b", false)
	eng.AddDocument(makeDoc("tied content", ""), "pub_a", false)

	results := eng.Search("tied", 10)
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].DocID != "pub_a" || results[1].DocID != "pub_b" {
		t.Errorf("tie order = %s, %s; want pub_a, pub_b", results[0].DocID, results[1].DocID)
	}
	if !almostEqual(results[0].Score, results[1].Score) {
		t.Errorf("scores should tie, got %v and %v", results[0].Score, results[1].Score)
	}
}

func TestSearchDeferredDocumentScoresZero(t *testing.T) {
	eng := NewEngine(0)
	eng.AddDocument(makeDoc("solar power", ""), "pub_1", false)
	// indexed but not yet folded into the vectors
	eng.AddDocument(makeDoc("solar cells", ""), "pub_2", true)

	results := eng.Search("solar", 10)
	if len(results) != 2 {
		t.Fatalf("got %d results, want both the scored and the pending document", len(results))
	}
	if results[0].DocID != "pub_1" || results[0].Score <= 0 {
		t.Errorf("scored document should rank first with positive score, got %s/%v", results[0].DocID, results[0].Score)
	}
	if results[1].DocID != "pub_2" || results[1].Score != 0 {
		t.Errorf("pending document should appear with score 0, got %s/%v", results[1].DocID, results[1].Score)
	}
	if len(results[1].Contribution) != 0 {
		t.Errorf("pending document should have no contributions, got %v", results[1].Contribution)
	}

	eng.RebuildVectors()
	results = eng.Search("solar", 10)
	for _, r := range results {
		if r.Score <= 0 {
			t.Errorf("after rebuild %s still scores %v", r.DocID, r.Score)
		}
	}
}

func TestSearchContributionPercentages(t *testing.T) {
	eng := NewEngine(0)
	eng.AddDocument(model.Document{
		"title":    model.String("solar power"),
		"abstract": model.String("power grids"),
	}, "pub_1", false)

	results := eng.Search("power", 10)
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}

	// title contributes 3.0 x idf, abstract 1.0 x idf: a 75/25 split
	contribution := results[0].Contribution
	if got := contribution["title"]; !almostEqual(got, 75.0) {
		t.Errorf("title contribution = %v, want 75.0", got)
	}
	if got := contribution["abstract"]; !almostEqual(got, 25.0) {
		t.Errorf("abstract contribution = %v, want 25.0", got)
	}

	var total float64
	for _, pct := range contribution {
		total += pct
	}
	if math.Abs(total-100.0) > 0.2 {
		t.Errorf("contributions sum to %v, want ~100", total)
	}
}

func TestSearchQueryTermRepetition(t *testing.T) {
	eng := NewEngine(0)
	eng.AddDocument(makeDoc("wind turbines", "wind farm output"), "pub_1", false)
	eng.AddDocument(makeDoc("tidal energy", "estuary flows"), "pub_2", false)

	single := eng.Search("wind", 10)
	repeated := eng.Search("wind wind wind", 10)
	if len(single) != len(repeated) {
		t.Fatalf("result counts differ: %d vs %d", len(single), len(repeated))
	}
	for i := range single {
		if !almostEqual(single[i].Score, repeated[i].Score) {
			t.Errorf("repeating a query term changed the score: %v vs %v", single[i].Score, repeated[i].Score)
		}
	}
}

func TestSearchResultPayload(t *testing.T) {
	eng := NewEngine(4)
	eng.AddDocument(model.Document{
		"title":    model.String("Fox Behavior"),
		"abstract": model.String("the quick brown fox jumps"),
	}, "pub_1", false)

	results := eng.Search("fox", 10)
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	r := results[0]
	if r.Data.Field("title") != "Fox Behavior" {
		t.Errorf("result data title = %q", r.Data.Field("title"))
	}
	if want := "...quick brown <mark>fox</mark> jumps"; r.Snippet != want {
		t.Errorf("snippet = %q, want %q", r.Snippet, want)
	}
}

func TestSearchLemmatizedQueryMatches(t *testing.T) {
	eng := NewEngine(0)
	eng.AddDocument(makeDoc("Distributed Systems", "consensus protocols"), "pub_1", false)

	// singular and plural forms normalize to the same token
	for _, query := range []string{"system", "systems", "protocol", "protocols"} {
		if results := eng.Search(query, 10); len(results) != 1 {
			t.Errorf("Search(%q) returned %d results, want 1", query, len(results))
		}
	}
}

func TestRoundingHelpers(t *testing.T) {
	cases := []struct {
		in    float64
		want4 float64
	}{
		{1.23456789, 1.2346},
		{1.23454, 1.2345},
		{0.0, 0.0},
		{2.5, 2.5},
	}
	for _, tc := range cases {
		if got := round4(tc.in); got != tc.want4 {
			t.Errorf("round4(%v) = %v, want %v", tc.in, got, tc.want4)
		}
	}
	if got := round1(33.333333); got != 33.3 {
		t.Errorf("round1(33.333333) = %v, want 33.3", got)
	}
}
