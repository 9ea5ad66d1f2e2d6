package engine

import (
	"fmt"
	"math"
	"testing"

	"github.com/gcbaptista/pubsearch/model"
)

const floatTolerance = 1e-9

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) <= floatTolerance
}

func makeDoc(title, abstract string) model.Document {
	return model.Document{
		"title":    model.String(title),
		"abstract": model.String(abstract),
	}
}

func TestAddDocumentWeightedFrequencies(t *testing.T) {
	eng := NewEngine(0)
	eng.AddDocument(model.Document{
		"title":    model.String("neural networks for neural computation"),
		"abstract": model.String("neural models"),
	}, "pub_1", false)

	// "neural" appears twice in the title: w_freq = 2 x 3.0
	var titleFreq, abstractFreq float64
	for _, p := range eng.index["neural"] {
		switch p.Field {
		case "title":
			titleFreq = p.WeightedFreq
		case "abstract":
			abstractFreq = p.WeightedFreq
		}
	}
	if !almostEqual(titleFreq, 6.0) {
		t.Errorf("title w_freq = %v, want 6.0 (count 2 x weight 3.0)", titleFreq)
	}
	// one occurrence in the abstract: 1 x 1.0
	if !almostEqual(abstractFreq, 1.0) {
		t.Errorf("abstract w_freq = %v, want 1.0", abstractFreq)
	}

	// separate postings per field for the same (token, document)
	if got := len(eng.index["neural"]); got != 2 {
		t.Errorf("postings for 'neural' = %d, want 2 (title + abstract)", got)
	}
}

func TestAddDocumentListAndYearFields(t *testing.T) {
	eng := NewEngine(0)
	eng.AddDocument(model.Document{
		"title":    model.String("Graph Models"),
		"authors":  model.List("Jane Smith", "Ada Smith"),
		"keywords": model.List("graphs", "learning"),
		"year":     model.String("2021"),
	}, "pub_1", false)

	// authors list flattens with spaces: "smith" twice, weight 2.5
	var smithFreq float64
	for _, p := range eng.index["smith"] {
		if p.Field == "authors" {
			smithFreq = p.WeightedFreq
		}
	}
	if !almostEqual(smithFreq, 5.0) {
		t.Errorf("authors w_freq for 'smith' = %v, want 5.0 (count 2 x weight 2.5)", smithFreq)
	}

	var keywordFreq float64
	for _, p := range eng.index["graph"] {
		if p.Field == "keywords" {
			keywordFreq = p.WeightedFreq
		}
	}
	if !almostEqual(keywordFreq, 2.0) {
		t.Errorf("keywords w_freq for 'graph' = %v, want 2.0", keywordFreq)
	}

	var yearFreq float64
	for _, p := range eng.index["2021"] {
		if p.Field == "year" {
			yearFreq = p.WeightedFreq
		}
	}
	if !almostEqual(yearFreq, 1.5) {
		t.Errorf("year w_freq = %v, want 1.5", yearFreq)
	}
}

func TestAddDocumentMissingFields(t *testing.T) {
	eng := NewEngine(0)
	// only a title; every other weighted field is absent
	eng.AddDocument(model.Document{"title": model.String("sparse record")}, "pub_1", false)

	if got := eng.DocumentCount(); got != 1 {
		t.Fatalf("DocumentCount() = %d, want 1", got)
	}
	for token, postings := range eng.index {
		for _, p := range postings {
			if p.Field != "title" {
				t.Errorf("unexpected posting for field %q (token %q)", p.Field, token)
			}
		}
	}
}

func TestDuplicateDocIDReplacement(t *testing.T) {
	eng := NewEngine(0)
	eng.AddDocument(makeDoc("quantum computing", "qubits everywhere"), "pub_1", false)
	eng.AddDocument(makeDoc("classical algorithms", "sorting things"), "pub_1", false)

	if got := eng.DocumentCount(); got != 1 {
		t.Fatalf("DocumentCount() = %d, want 1 after replacement", got)
	}

	// old tokens must be fully gone, not just superseded
	for _, old := range []string{"quantum", "computing", "qubit"} {
		if postings, exists := eng.index[old]; exists {
			t.Errorf("token %q still has postings after replacement: %v", old, postings)
		}
	}

	results := eng.Search("quantum", 10)
	if len(results) != 0 {
		t.Errorf("search for replaced content returned %d results, want 0", len(results))
	}
	results = eng.Search("classical algorithms", 10)
	if len(results) != 1 {
		t.Errorf("search for new content returned %d results, want 1", len(results))
	}
}

func TestReplacementKeepsSharedTokens(t *testing.T) {
	eng := NewEngine(0)
	eng.AddDocument(makeDoc("shared topic", ""), "pub_1", false)
	eng.AddDocument(makeDoc("shared topic", ""), "pub_2", false)

	// replacing pub_1 must not disturb pub_2's postings
	eng.AddDocument(makeDoc("different things", ""), "pub_1", false)

	postings := eng.index["shared"]
	if len(postings) != 1 || postings[0].DocID != "pub_2" {
		t.Errorf("postings for 'shared' = %v, want only pub_2", postings)
	}
}

func TestIDFFormula(t *testing.T) {
	eng := NewEngine(0)
	// token "grid" in 3 of 10 documents
	for i := 1; i <= 10; i++ {
		title := fmt.Sprintf("filler%d content", i)
		if i <= 3 {
			title = fmt.Sprintf("grid study number%d", i)
		}
		eng.AddDocument(makeDoc(title, ""), fmt.Sprintf("pub_%d", i), true)
	}
	eng.RebuildVectors()

	wantIDF := math.Log(10.0/4.0) + 1 // ln(N/(df+1)) + 1
	vec, ok := eng.docVectors["pub_1"]
	if !ok {
		t.Fatal("pub_1 has no vector after rebuild")
	}
	// single title occurrence: w_freq 3.0, vector entry = 3.0 x idf
	if got, want := vec["grid"], 3.0*wantIDF; !almostEqual(got, want) {
		t.Errorf("vector[pub_1][grid] = %v, want %v", got, want)
	}
}

func TestRebuildVectorsEmptyCorpus(t *testing.T) {
	eng := NewEngine(0)
	eng.RebuildVectors()
	if len(eng.docVectors) != 0 {
		t.Errorf("empty corpus rebuilt %d vectors, want 0", len(eng.docVectors))
	}
}

func TestVectorsSumAcrossFields(t *testing.T) {
	eng := NewEngine(0)
	eng.AddDocument(model.Document{
		"title":    model.String("energy systems"),
		"abstract": model.String("energy storage for energy grids"),
	}, "pub_1", false)

	// N=1, df=1 -> idf = ln(1/2)+1
	wantIDF := math.Log(1.0/2.0) + 1
	// title: 1 x 3.0, abstract: 2 x 1.0 -> summed entry (3.0 + 2.0) x idf
	want := 5.0 * wantIDF
	if got := eng.docVectors["pub_1"]["energy"]; !almostEqual(got, want) {
		t.Errorf("vector entry = %v, want %v (field contributions summed)", got, want)
	}
}

func TestDeferredRebuildBatchEquivalence(t *testing.T) {
	docs := []model.Document{
		makeDoc("deep learning survey", "networks and gradients"),
		makeDoc("graph theory", "vertices edges and networks"),
		makeDoc("reinforcement learning", "agents explore environments"),
	}

	incremental := NewEngine(0)
	for i, doc := range docs {
		incremental.AddDocument(doc, fmt.Sprintf("pub_%d", i+1), false)
	}

	batched := NewEngine(0)
	for i, doc := range docs {
		batched.AddDocument(doc, fmt.Sprintf("pub_%d", i+1), true)
	}
	batched.RebuildVectors()

	if len(incremental.docVectors) != len(batched.docVectors) {
		t.Fatalf("vector counts differ: %d vs %d", len(incremental.docVectors), len(batched.docVectors))
	}
	for docID, vec := range incremental.docVectors {
		for token, weight := range vec {
			if got := batched.docVectors[docID][token]; !almostEqual(got, weight) {
				t.Errorf("vector[%s][%s]: incremental %v, batched %v", docID, token, weight, got)
			}
		}
	}

	a := incremental.Search("learning networks", 10)
	b := batched.Search("learning networks", 10)
	if len(a) != len(b) {
		t.Fatalf("result counts differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i].DocID != b[i].DocID || !almostEqual(a[i].Score, b[i].Score) {
			t.Errorf("result %d differs: %s/%v vs %s/%v", i, a[i].DocID, a[i].Score, b[i].DocID, b[i].Score)
		}
	}
}

func TestDocumentAndVocabularyCounts(t *testing.T) {
	eng := NewEngine(0)
	if eng.DocumentCount() != 0 || eng.VocabularySize() != 0 {
		t.Fatal("fresh engine should be empty")
	}

	eng.AddDocument(makeDoc("alpha beta", ""), "pub_1", false)
	eng.AddDocument(makeDoc("beta gamma", ""), "pub_2", false)

	if got := eng.DocumentCount(); got != 2 {
		t.Errorf("DocumentCount() = %d, want 2", got)
	}
	if got := eng.VocabularySize(); got != 3 {
		t.Errorf("VocabularySize() = %d, want 3 (alpha, beta, gamma)", got)
	}

	eng.Clear()
	if eng.DocumentCount() != 0 || eng.VocabularySize() != 0 {
		t.Error("Clear() should empty the engine")
	}
}

func TestGetDocument(t *testing.T) {
	eng := NewEngine(0)
	doc := makeDoc("retrievable", "some text")
	eng.AddDocument(doc, "pub_1", false)

	got, ok := eng.GetDocument("pub_1")
	if !ok {
		t.Fatal("GetDocument(pub_1) reported missing")
	}
	if got.Field("title") != "retrievable" {
		t.Errorf("stored title = %q", got.Field("title"))
	}
	if _, ok := eng.GetDocument("pub_404"); ok {
		t.Error("GetDocument should report missing for unknown IDs")
	}
}
