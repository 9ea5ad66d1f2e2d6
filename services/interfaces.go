package services

import (
	"context"

	"github.com/gcbaptista/pubsearch/model"
)

// ScoredResult is a single ranked hit. Contribution maps each matched field
// to its percentage share of the total score; Snippet is a highlighted
// excerpt of the abstract. Field names match the engine's result shape.
type ScoredResult struct {
	DocID        string             `json:"id"`
	Data         model.Document     `json:"data"`
	Score        float64            `json:"score"`
	Contribution map[string]float64 `json:"contribution"`
	Snippet      string             `json:"snippet"`
}

// SearchResult wraps one query's ranked hits.
type SearchResult struct {
	Query        string         `json:"query"`
	Results      []ScoredResult `json:"results"`
	TotalResults int            `json:"total_results"`
	Took         int64          `json:"took"`     // milliseconds
	QueryID      string         `json:"query_id"` // unique UUID for this search query
}

// Indexer defines operations for adding documents to the index.
// Bulk loads should pass deferRebuild=true for each document and call
// RebuildVectors once at the end. Clear drops all documents, postings,
// and vectors; reindex jobs use it before reloading from the store.
type Indexer interface {
	AddDocument(doc model.Document, docID string, deferRebuild bool)
	RebuildVectors()
	Clear()
}

// Searcher defines ranked query operations.
type Searcher interface {
	Search(query string, topK int) []ScoredResult
}

// Persister saves and loads the index file. Load reports (false, nil) when
// the file does not exist and (false, err) when it exists but cannot be
// decoded.
type Persister interface {
	Save(path string) error
	Load(path string) (bool, error)
}

// Engine is the full search engine surface wired into the API and jobs.
type Engine interface {
	Indexer
	Searcher
	Persister
	DocumentCount() int
	VocabularySize() int
	GetDocument(docID string) (model.Document, bool)
}

// PublicationStore is the primary record store backing the index.
type PublicationStore interface {
	UpsertPublication(ctx context.Context, pub *model.Publication) (created bool, err error)
	GetPublication(ctx context.Context, id int64) (*model.Publication, error)
	HasPublicationLink(ctx context.Context, link string) (bool, error)
	ListPublications(ctx context.Context, offset, limit int) ([]model.Publication, error)
	AllPublications(ctx context.Context) ([]model.Publication, error)
	RecentPublications(ctx context.Context, limit int) ([]model.Publication, error)
	CountPublications(ctx context.Context) (int, error)
	YearDistribution(ctx context.Context, limit int) ([]model.YearCount, error)
	CreateCrawlLog(ctx context.Context) (*model.CrawlLog, error)
	FinishCrawlLog(ctx context.Context, log *model.CrawlLog) error
	RecentCrawlLogs(ctx context.Context, limit int) ([]model.CrawlLog, error)
	Close() error
}

// JobManager launches and tracks background jobs. StartCrawl and
// StartReindex return the new job's ID, or an in-progress error when a job
// of the same type is already running. LatestJob returns the most recently
// created job of the given type.
type JobManager interface {
	StartCrawl() (string, error)
	StartReindex() (string, error)
	GetJob(jobID string) (*model.Job, error)
	LatestJob(jobType model.JobType) (*model.Job, error)
}
