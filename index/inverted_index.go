package index

// InvertedIndex maps a token to the posting list of every document and field
// it appears in. The map carries no locking of its own; the engine owning it
// serializes access.
type InvertedIndex map[string]PostingList

// Add appends a posting for token.
func (ii InvertedIndex) Add(token, docID, field string, weightedFreq float64) {
	ii[token] = append(ii[token], Posting{
		DocID:        docID,
		WeightedFreq: weightedFreq,
		Field:        field,
	})
}

// DocFrequency returns the distinct-document count for token, 0 for unknown
// tokens.
func (ii InvertedIndex) DocFrequency(token string) int {
	return ii[token].DocFrequency()
}

// RemoveDocument strips every posting referencing docID from the given
// tokens' lists. Tokens whose lists empty out are deleted so they no longer
// count toward the vocabulary.
func (ii InvertedIndex) RemoveDocument(docID string, tokens []string) {
	for _, token := range tokens {
		postings, ok := ii[token]
		if !ok {
			continue
		}
		kept := postings[:0]
		for _, p := range postings {
			if p.DocID != docID {
				kept = append(kept, p)
			}
		}
		if len(kept) == 0 {
			delete(ii, token)
			continue
		}
		ii[token] = kept
	}
}
