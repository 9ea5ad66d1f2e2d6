// Package jobs runs the crawl and reindex background jobs and tracks their
// lifecycle. At most one job of each type runs at a time; starting a second
// one returns a conflict error carrying the active job's ID.
package jobs

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gcbaptista/pubsearch/config"
	"github.com/gcbaptista/pubsearch/internal/crawler"
	internalErrors "github.com/gcbaptista/pubsearch/internal/errors"
	"github.com/gcbaptista/pubsearch/internal/metrics"
	"github.com/gcbaptista/pubsearch/model"
	"github.com/gcbaptista/pubsearch/services"
)

const (
	// maxJobLogLines bounds the per-job log ring; older lines are dropped.
	maxJobLogLines = 100

	cleanupInterval = 1 * time.Hour
	jobRetention    = 24 * time.Hour

	// finishTimeout bounds the final crawl_logs write, which must go
	// through even when the job's own context is already canceled.
	finishTimeout = 10 * time.Second
)

// crawlFunc runs one crawl. Swapped out in tests.
type crawlFunc func(ctx context.Context, cfg config.CrawlerConfig, store crawler.LinkChecker, progress crawler.ProgressFunc) ([]crawler.Publication, int, error)

func defaultCrawl(ctx context.Context, cfg config.CrawlerConfig, store crawler.LinkChecker, progress crawler.ProgressFunc) ([]crawler.Publication, int, error) {
	return crawler.New(cfg, store, progress).Crawl(ctx)
}

// Manager tracks background jobs, enforcing a single running job per type.
type Manager struct {
	mu     sync.RWMutex
	jobs   map[string]*model.Job
	active map[model.JobType]string // job currently holding the type's slot
	latest map[model.JobType]string // most recently created job per type

	engine  services.Engine
	store   services.PublicationStore
	cfg     *config.Config
	metrics *metrics.Metrics
	crawl   crawlFunc

	baseCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// Ensure Manager implements the job manager surface used by the API.
var _ services.JobManager = (*Manager)(nil)

// NewManager wires the job manager to the engine, the publication store and
// the application config. met may be nil, which disables metric updates.
func NewManager(engine services.Engine, store services.PublicationStore, cfg *config.Config, met *metrics.Metrics) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		jobs:    make(map[string]*model.Job),
		active:  make(map[model.JobType]string),
		latest:  make(map[model.JobType]string),
		engine:  engine,
		store:   store,
		cfg:     cfg,
		metrics: met,
		crawl:   defaultCrawl,
		baseCtx: ctx,
		cancel:  cancel,
	}
}

// Start launches the background cleanup routine.
func (m *Manager) Start() {
	m.wg.Add(1)
	go m.cleanupRoutine()
}

// Stop cancels running jobs and blocks until they have finished.
func (m *Manager) Stop() {
	m.cancel()
	m.wg.Wait()
}

// StartCrawl launches a crawl job and returns its ID. Returns a
// CrawlInProgressError when a crawl job is already pending or running.
func (m *Manager) StartCrawl() (string, error) {
	job, err := m.createJob(model.JobTypeCrawl)
	if err != nil {
		return "", err
	}
	m.wg.Add(1)
	go m.runCrawl(job.ID)
	return job.ID, nil
}

// StartReindex launches a reindex job that rebuilds the whole index from the
// publication store. Returns a ReindexInProgressError when one is already
// pending or running.
func (m *Manager) StartReindex() (string, error) {
	job, err := m.createJob(model.JobTypeReindex)
	if err != nil {
		return "", err
	}
	m.wg.Add(1)
	go m.runReindex(job.ID)
	return job.ID, nil
}

// GetJob returns a copy of the job's current state.
func (m *Manager) GetJob(jobID string) (*model.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	job, exists := m.jobs[jobID]
	if !exists {
		return nil, internalErrors.NewJobNotFoundError(jobID)
	}
	return copyJob(job), nil
}

// LatestJob returns a copy of the most recently created job of the given
// type, or a JobNotFoundError when none has run since startup.
func (m *Manager) LatestJob(jobType model.JobType) (*model.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.latest[jobType]
	if !ok {
		return nil, internalErrors.NewJobNotFoundError(string(jobType))
	}
	job, exists := m.jobs[id]
	if !exists {
		return nil, internalErrors.NewJobNotFoundError(id)
	}
	return copyJob(job), nil
}

// UpdateJobProgress replaces the job's progress snapshot.
func (m *Manager) UpdateJobProgress(jobID string, current, total int, message string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, exists := m.jobs[jobID]
	if !exists {
		return
	}
	job.Progress = &model.JobProgress{Current: current, Total: total, Message: message}
}

// CleanupOldJobs removes finished jobs older than maxAge and reports how
// many were dropped.
func (m *Manager) CleanupOldJobs(maxAge time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for id, job := range m.jobs {
		if job.Status != model.JobStatusCompleted && job.Status != model.JobStatusFailed {
			continue
		}
		if job.CompletedAt != nil && job.CompletedAt.Before(cutoff) {
			delete(m.jobs, id)
			removed++
		}
	}
	if removed > 0 {
		log.Printf("jobs: cleaned up %d finished jobs older than %v", removed, maxAge)
	}
	return removed
}

func (m *Manager) cleanupRoutine() {
	defer m.wg.Done()

	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			m.CleanupOldJobs(jobRetention)
		case <-m.baseCtx.Done():
			return
		}
	}
}

// createJob registers a pending job and claims the type's single-flight slot.
func (m *Manager) createJob(jobType model.JobType) (*model.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if id, running := m.active[jobType]; running {
		if jobType == model.JobTypeCrawl {
			return nil, internalErrors.NewCrawlInProgressError(id)
		}
		return nil, internalErrors.NewReindexInProgressError(id)
	}

	job := &model.Job{
		ID:        uuid.New().String(),
		Type:      jobType,
		Status:    model.JobStatusPending,
		CreatedAt: time.Now(),
	}
	m.jobs[job.ID] = job
	m.active[jobType] = job.ID
	m.latest[jobType] = job.ID

	log.Printf("jobs: created %s job %s", jobType, job.ID)
	return job, nil
}

func (m *Manager) markRunning(jobID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if job, exists := m.jobs[jobID]; exists {
		now := time.Now()
		job.Status = model.JobStatusRunning
		job.StartedAt = &now
	}
}

// finishJob records the terminal status, releases the type's slot and emits
// the job metrics.
func (m *Manager) finishJob(jobID string, runErr error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, exists := m.jobs[jobID]
	if !exists {
		return
	}
	now := time.Now()
	job.CompletedAt = &now
	if runErr != nil {
		job.Status = model.JobStatusFailed
		job.Error = runErr.Error()
	} else {
		job.Status = model.JobStatusCompleted
	}
	if m.active[job.Type] == jobID {
		delete(m.active, job.Type)
	}

	var took time.Duration
	if job.StartedAt != nil {
		took = now.Sub(*job.StartedAt)
	}
	log.Printf("jobs: %s job %s %s in %v", job.Type, jobID, job.Status, took.Round(time.Millisecond))
	if m.metrics != nil {
		m.metrics.JobsTotal.WithLabelValues(string(job.Type), string(job.Status)).Inc()
		m.metrics.JobDuration.WithLabelValues(string(job.Type)).Observe(took.Seconds())
	}
}

func (m *Manager) completeJob(jobID string) {
	m.finishJob(jobID, nil)
}

func (m *Manager) failJob(jobID string, err error) {
	m.appendLog(jobID, "error: "+err.Error())
	m.finishJob(jobID, err)
}

// appendLog pushes a timestamped line onto the job's log ring.
func (m *Manager) appendLog(jobID, message string) {
	line := fmt.Sprintf("[%s] %s", time.Now().Format("15:04:05"), message)

	m.mu.Lock()
	defer m.mu.Unlock()

	job, exists := m.jobs[jobID]
	if !exists {
		return
	}
	job.Logs = append(job.Logs, line)
	if len(job.Logs) > maxJobLogLines {
		job.Logs = job.Logs[len(job.Logs)-maxJobLogLines:]
	}
}

// runCrawl walks the portal, upserts every publication into the store,
// indexes it and persists the updated index. The run is recorded in the
// crawl_logs table whatever the outcome.
func (m *Manager) runCrawl(jobID string) {
	defer m.wg.Done()

	ctx := m.baseCtx
	m.markRunning(jobID)
	m.appendLog(jobID, "crawl started")

	crawlLog, err := m.store.CreateCrawlLog(ctx)
	if err != nil {
		m.failJob(jobID, fmt.Errorf("creating crawl log: %w", err))
		return
	}

	pubs, visited, err := m.crawl(ctx, m.cfg.Crawler, m.store, func(msg string) {
		m.appendLog(jobID, msg)
	})
	if err != nil {
		m.finishCrawlLog(crawlLog, 0, visited, err)
		m.failJob(jobID, err)
		return
	}
	m.appendLog(jobID, fmt.Sprintf("crawl finished: %d publications from %d profiles", len(pubs), visited))
	if m.metrics != nil {
		m.metrics.PublicationsCrawled.Add(float64(len(pubs)))
	}

	added := 0
	for i := range pubs {
		rec := pubs[i].ToModel()
		if _, err := m.store.UpsertPublication(ctx, rec); err != nil {
			err = fmt.Errorf("storing publication %q: %w", rec.Title, err)
			m.finishCrawlLog(crawlLog, added, visited, err)
			m.failJob(jobID, err)
			return
		}
		m.engine.AddDocument(pubs[i].Document(), rec.DocID(), true)
		added++
		m.UpdateJobProgress(jobID, added, len(pubs), "indexing publications")
	}
	m.engine.RebuildVectors()

	if err := m.engine.Save(m.cfg.Index.Path); err != nil {
		err = fmt.Errorf("saving index: %w", err)
		m.finishCrawlLog(crawlLog, added, visited, err)
		m.failJob(jobID, err)
		return
	}

	if m.metrics != nil {
		m.metrics.DocumentsIndexed.Add(float64(added))
		m.metrics.ObserveIndexSize(m.engine.DocumentCount(), m.engine.VocabularySize())
	}
	m.finishCrawlLog(crawlLog, added, visited, nil)
	m.appendLog(jobID, fmt.Sprintf("indexed %d documents", added))
	m.completeJob(jobID)
}

// finishCrawlLog closes the crawl_logs row. It uses its own context so the
// row is finalized even when the job's context is already canceled.
func (m *Manager) finishCrawlLog(crawlLog *model.CrawlLog, added, visited int, runErr error) {
	ctx, cancel := context.WithTimeout(context.Background(), finishTimeout)
	defer cancel()

	now := time.Now().UTC()
	crawlLog.EndedAt = &now
	crawlLog.DocumentsAdded = added
	crawlLog.ProfilesCrawled = visited
	if runErr != nil {
		crawlLog.Status = model.CrawlStatusFailed
		crawlLog.ErrorMessage = runErr.Error()
	} else {
		crawlLog.Status = model.CrawlStatusCompleted
	}
	if err := m.store.FinishCrawlLog(ctx, crawlLog); err != nil {
		log.Printf("jobs: finishing crawl log %d: %v", crawlLog.ID, err)
	}
	if m.metrics != nil {
		m.metrics.CrawlsTotal.WithLabelValues(string(crawlLog.Status)).Inc()
	}
}

// runReindex rebuilds the whole index from the publication store. The rows
// are loaded before the engine is cleared so a store failure leaves the
// live index intact.
func (m *Manager) runReindex(jobID string) {
	defer m.wg.Done()

	ctx := m.baseCtx
	m.markRunning(jobID)
	m.appendLog(jobID, "reindex started")

	pubs, err := m.store.AllPublications(ctx)
	if err != nil {
		m.failJob(jobID, fmt.Errorf("loading publications: %w", err))
		return
	}

	m.engine.Clear()
	for i := range pubs {
		m.engine.AddDocument(pubs[i].Document(), pubs[i].DocID(), true)
		m.UpdateJobProgress(jobID, i+1, len(pubs), "rebuilding index")
	}
	m.engine.RebuildVectors()

	if err := m.engine.Save(m.cfg.Index.Path); err != nil {
		m.failJob(jobID, fmt.Errorf("saving index: %w", err))
		return
	}

	if m.metrics != nil {
		m.metrics.ObserveIndexSize(m.engine.DocumentCount(), m.engine.VocabularySize())
	}
	m.appendLog(jobID, fmt.Sprintf("reindexed %d publications", len(pubs)))
	m.completeJob(jobID)
}

func copyJob(job *model.Job) *model.Job {
	jobCopy := *job
	if job.Progress != nil {
		progressCopy := *job.Progress
		jobCopy.Progress = &progressCopy
	}
	if len(job.Logs) > 0 {
		jobCopy.Logs = append([]string(nil), job.Logs...)
	}
	return &jobCopy
}
