// Package engine implements the publication search core: a weighted
// field-based inverted index with TF-IDF document vectors and linear
// combination scoring. One Engine owns all index state behind a single
// RWMutex; writers (AddDocument, RebuildVectors, Load, Clear) take the write
// lock, readers (Search, Save, counts) take the read lock.
package engine

import (
	"math"
	"sync"

	"github.com/gcbaptista/pubsearch/config"
	"github.com/gcbaptista/pubsearch/index"
	"github.com/gcbaptista/pubsearch/internal/tokenizer"
	"github.com/gcbaptista/pubsearch/model"
)

const defaultSnippetWindow = 20

// weightedFields fixes the indexing order of the scored fields so posting
// lists are built deterministically.
var weightedFields = []string{"title", "authors", "keywords", "year", "abstract"}

// Engine holds the document map, the inverted index and the TF-IDF document
// vectors. Vectors are only valid as of the last RebuildVectors call; adding
// documents with deferRebuild leaves them stale until the next rebuild.
type Engine struct {
	mu            sync.RWMutex
	weights       map[string]float64
	snippetWindow int

	documents  map[string]model.Document
	index      index.InvertedIndex
	docVectors map[string]map[string]float64
}

// NewEngine creates an empty engine using the fixed field weight table.
// snippetWindow <= 0 selects the default of 20 words.
func NewEngine(snippetWindow int) *Engine {
	if snippetWindow <= 0 {
		snippetWindow = defaultSnippetWindow
	}
	return &Engine{
		weights:       config.FieldWeights(),
		snippetWindow: snippetWindow,
		documents:     make(map[string]model.Document),
		index:         make(index.InvertedIndex),
		docVectors:    make(map[string]map[string]float64),
	}
}

// AddDocument stores doc under docID and indexes its weighted fields. Adding
// an existing docID replaces the old document: its postings are removed
// before the new content is indexed, so no orphaned postings survive an
// overwrite.
//
// With deferRebuild the document vectors are left stale; bulk loaders should
// defer every add and call RebuildVectors once at the end. AddDocument never
// fails: missing or empty fields simply contribute no postings.
func (e *Engine) AddDocument(doc model.Document, docID string, deferRebuild bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if old, exists := e.documents[docID]; exists {
		e.removeDocumentLocked(docID, old)
	}
	e.documents[docID] = doc

	for _, field := range weightedFields {
		weight := e.weights[field]
		tokens := tokenizer.Tokenize(doc.Field(field))
		if len(tokens) == 0 {
			continue
		}
		counts := make(map[string]int, len(tokens))
		for _, token := range tokens {
			counts[token]++
		}
		for token, count := range counts {
			e.index.Add(token, docID, field, float64(count)*weight)
		}
	}

	if !deferRebuild {
		e.rebuildVectorsLocked()
	}
}

// removeDocumentLocked strips every posting of the given document from the
// index. The caller must hold the write lock.
func (e *Engine) removeDocumentLocked(docID string, doc model.Document) {
	unique := make(map[string]struct{})
	for _, field := range weightedFields {
		for _, token := range tokenizer.Tokenize(doc.Field(field)) {
			unique[token] = struct{}{}
		}
	}
	tokens := make([]string, 0, len(unique))
	for token := range unique {
		tokens = append(tokens, token)
	}
	e.index.RemoveDocument(docID, tokens)
}

// RebuildVectors recomputes every document vector from the current posting
// lists: vector[doc][token] accumulates weighted_freq x idf across fields,
// with idf = ln(N/(df+1)) + 1 over the current document count N.
func (e *Engine) RebuildVectors() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rebuildVectorsLocked()
}

func (e *Engine) rebuildVectorsLocked() {
	e.docVectors = make(map[string]map[string]float64, len(e.documents))
	n := len(e.documents)
	if n == 0 {
		return
	}

	for token, postings := range e.index {
		tokenIDF := idf(n, postings.DocFrequency())
		for _, p := range postings {
			vec, ok := e.docVectors[p.DocID]
			if !ok {
				vec = make(map[string]float64)
				e.docVectors[p.DocID] = vec
			}
			vec[token] += p.WeightedFreq * tokenIDF
		}
	}
}

// Clear removes every document, posting and vector.
func (e *Engine) Clear() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.documents = make(map[string]model.Document)
	e.index = make(index.InvertedIndex)
	e.docVectors = make(map[string]map[string]float64)
}

// DocumentCount returns the number of stored documents.
func (e *Engine) DocumentCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.documents)
}

// VocabularySize returns the number of distinct tokens in the index.
func (e *Engine) VocabularySize() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.index)
}

// GetDocument returns the stored document for docID.
func (e *Engine) GetDocument(docID string) (model.Document, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	doc, ok := e.documents[docID]
	return doc, ok
}

// idf is the inverse document frequency: ln(N/(df+1)) + 1. The +1 in the
// denominator keeps the formula finite for every stored token, at the cost
// of a slightly negative log term when df is close to N.
func idf(totalDocs, docFreq int) float64 {
	return math.Log(float64(totalDocs)/float64(docFreq+1)) + 1
}
