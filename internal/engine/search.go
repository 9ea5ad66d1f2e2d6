package engine

import (
	"math"
	"sort"

	"github.com/gcbaptista/pubsearch/internal/tokenizer"
	"github.com/gcbaptista/pubsearch/services"
)

// Search runs a ranked query and returns at most topK results, ordered by
// score descending with document ID as tiebreak. The score is an
// unnormalized weighted linear combination: for every query token present in
// a candidate's vector, each of the candidate's postings for that token
// contributes weighted_freq x token_idf, where token_idf is the query
// vector weight divided by the token's in-query count.
//
// Every candidate is returned (subject to topK), including zero scorers:
// documents indexed with a deferred rebuild have no vector entries yet, so
// their tokens fail the vector check until RebuildVectors runs. Empty
// queries and queries with no indexable tokens return an empty slice, never
// an error.
func (e *Engine) Search(query string, topK int) []services.ScoredResult {
	e.mu.RLock()
	defer e.mu.RUnlock()

	results := make([]services.ScoredResult, 0)
	if topK <= 0 {
		return results
	}

	queryTokens := tokenizer.Tokenize(query)
	if len(queryTokens) == 0 {
		return results
	}

	// Count query tokens, keeping first-appearance order so floating point
	// accumulation is reproducible across runs.
	queryCounts := make(map[string]int, len(queryTokens))
	orderedTokens := make([]string, 0, len(queryTokens))
	tokenSet := make(map[string]struct{}, len(queryTokens))
	for _, token := range queryTokens {
		if _, seen := queryCounts[token]; !seen {
			orderedTokens = append(orderedTokens, token)
		}
		queryCounts[token]++
		tokenSet[token] = struct{}{}
	}

	// Build the query vector (tf x idf per known token) and collect every
	// document appearing in a query token's postings.
	n := len(e.documents)
	queryVector := make(map[string]float64, len(orderedTokens))
	matchedTokens := make([]string, 0, len(orderedTokens))
	candidateSet := make(map[string]struct{})
	candidates := make([]string, 0)
	for _, token := range orderedTokens {
		postings, ok := e.index[token]
		if !ok {
			continue
		}
		queryVector[token] = float64(queryCounts[token]) * idf(n, postings.DocFrequency())
		matchedTokens = append(matchedTokens, token)
		for _, p := range postings {
			if _, seen := candidateSet[p.DocID]; !seen {
				candidateSet[p.DocID] = struct{}{}
				candidates = append(candidates, p.DocID)
			}
		}
	}

	for _, docID := range candidates {
		docVector := e.docVectors[docID]

		fieldScores := make(map[string]float64)
		totalScore := 0.0
		for _, token := range matchedTokens {
			if _, inVector := docVector[token]; !inVector {
				continue
			}
			tokenIDF := queryVector[token] / float64(queryCounts[token])
			for _, p := range e.index[token] {
				if p.DocID != docID {
					continue
				}
				contribution := p.WeightedFreq * tokenIDF
				totalScore += contribution
				fieldScores[p.Field] += contribution
			}
		}

		doc := e.documents[docID]
		results = append(results, services.ScoredResult{
			DocID:        docID,
			Data:         doc,
			Score:        round4(totalScore),
			Contribution: contributionPercentages(fieldScores),
			Snippet:      snippet(doc.Field("abstract"), tokenSet, e.snippetWindow),
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].DocID < results[j].DocID
	})

	if len(results) > topK {
		results = results[:topK]
	}
	return results
}

// contributionPercentages converts per-field score sums into percentage
// shares rounded to one decimal. The denominator is floored at 1.0 so an
// all-zero breakdown divides cleanly.
func contributionPercentages(fieldScores map[string]float64) map[string]float64 {
	total := 0.0
	for _, s := range fieldScores {
		total += s
	}
	if total == 0 {
		total = 1.0
	}
	percentages := make(map[string]float64, len(fieldScores))
	for field, s := range fieldScores {
		percentages[field] = round1(s / total * 100)
	}
	return percentages
}

func round4(x float64) float64 {
	return math.Round(x*10000) / 10000
}

func round1(x float64) float64 {
	return math.Round(x*10) / 10
}
