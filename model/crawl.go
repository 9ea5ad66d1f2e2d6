package model

import "time"

// CrawlStatus is the lifecycle state of a crawl_logs row.
type CrawlStatus string

const (
	CrawlStatusRunning   CrawlStatus = "running"
	CrawlStatusCompleted CrawlStatus = "completed"
	CrawlStatusFailed    CrawlStatus = "failed"
)

// CrawlLog records one crawl run in the store.
type CrawlLog struct {
	ID              int64       `json:"id"`
	Status          CrawlStatus `json:"status"`
	StartedAt       time.Time   `json:"started_at"`
	EndedAt         *time.Time  `json:"ended_at,omitempty"`
	DocumentsAdded  int         `json:"documents_added"`
	ProfilesCrawled int         `json:"profiles_crawled"`
	ErrorMessage    string      `json:"error_message,omitempty"`
}

// Duration returns how long the run took, or zero while it is still running.
func (l *CrawlLog) Duration() time.Duration {
	if l.EndedAt == nil {
		return 0
	}
	return l.EndedAt.Sub(l.StartedAt)
}
