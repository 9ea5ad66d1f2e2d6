package engine

import (
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/gcbaptista/pubsearch/index"
	internalErrors "github.com/gcbaptista/pubsearch/internal/errors"
	"github.com/gcbaptista/pubsearch/internal/persistence"
	"github.com/gcbaptista/pubsearch/model"
)

// indexFile is the persisted layout. The three top-level keys are the index
// format contract; changing them breaks every existing index file.
type indexFile struct {
	Documents  map[string]model.Document     `json:"documents"`
	Index      index.InvertedIndex           `json:"index"`
	DocVectors map[string]map[string]float64 `json:"doc_vectors"`
}

// Save writes documents, postings and vectors to a single JSON file. The
// write is atomic, so a crash mid-save leaves the previous file usable.
func (e *Engine) Save(path string) error {
	e.mu.RLock()
	defer e.mu.RUnlock()

	data := indexFile{
		Documents:  e.documents,
		Index:      e.index,
		DocVectors: e.docVectors,
	}
	if err := persistence.SaveJSON(path, data); err != nil {
		return fmt.Errorf("failed to save index to %s: %w", path, err)
	}
	log.Printf("Index saved to %s (%d documents, %d tokens)", path, len(e.documents), len(e.index))
	return nil
}

// Load replaces the engine state with the contents of a persisted index
// file. It returns (false, nil) when the file does not exist, so callers
// can rebuild from the publication store, and (false, error) when the
// file exists but cannot be decoded. Vectors are restored as saved, not
// recomputed.
func (e *Engine) Load(path string) (bool, error) {
	var data indexFile
	if err := persistence.LoadJSON(path, &data); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, internalErrors.NewCorruptIndexError(path, err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.documents = data.Documents
	e.index = data.Index
	e.docVectors = data.DocVectors
	// A file written from an empty engine can decode to nil maps.
	if e.documents == nil {
		e.documents = make(map[string]model.Document)
	}
	if e.index == nil {
		e.index = make(index.InvertedIndex)
	}
	if e.docVectors == nil {
		e.docVectors = make(map[string]map[string]float64)
	}

	log.Printf("Index loaded from %s (%d documents, %d tokens)", path, len(e.documents), len(e.index))
	return true, nil
}
