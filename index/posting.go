package index

// Posting records the occurrences of a token within one field of one
// document. WeightedFreq is the raw in-field count multiplied by the field's
// weight, so posting lists already carry field importance. The JSON tags are
// the persisted index format.
type Posting struct {
	DocID        string  `json:"id"`
	WeightedFreq float64 `json:"w_freq"`
	Field        string  `json:"field"`
}

// PostingList holds every posting for one token. A document appears at most
// once per field, but may appear in several fields.
type PostingList []Posting

// DocFrequency returns the number of distinct documents in the list.
func (pl PostingList) DocFrequency() int {
	seen := make(map[string]struct{}, len(pl))
	for _, p := range pl {
		seen[p.DocID] = struct{}{}
	}
	return len(seen)
}
