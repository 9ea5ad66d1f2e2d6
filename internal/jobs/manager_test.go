package jobs

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gcbaptista/pubsearch/config"
	"github.com/gcbaptista/pubsearch/internal/crawler"
	"github.com/gcbaptista/pubsearch/internal/engine"
	internalErrors "github.com/gcbaptista/pubsearch/internal/errors"
	testutil "github.com/gcbaptista/pubsearch/internal/testing"
	"github.com/gcbaptista/pubsearch/model"
	"github.com/gcbaptista/pubsearch/store"
)

// newTestManager wires a manager to a real engine and an in-memory store.
// Only the crawl function is swapped out by individual tests.
func newTestManager(t *testing.T) (*Manager, *engine.Engine, *store.Store) {
	t.Helper()

	st, err := store.Open(store.DriverSQLite, ":memory:")
	if err != nil {
		t.Fatalf("opening test store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("loading default config: %v", err)
	}
	cfg.Index.Path = filepath.Join(t.TempDir(), "index.json")

	eng := engine.NewEngine(cfg.Index.SnippetWindow)
	m := NewManager(eng, st, cfg, nil)
	t.Cleanup(m.Stop)
	return m, eng, st
}

func crawlResult(pubs ...crawler.Publication) crawlFunc {
	return func(ctx context.Context, cfg config.CrawlerConfig, store crawler.LinkChecker, progress crawler.ProgressFunc) ([]crawler.Publication, int, error) {
		if progress != nil {
			progress("visited seed page")
		}
		return pubs, 1, nil
	}
}

func samplePortalPublications() []crawler.Publication {
	return []crawler.Publication{
		{
			Title:           "Neural Ranking Models",
			Authors:         []string{"Ana Silva", "Wei Chen"},
			Year:            "2021",
			Abstract:        "Ranking models for publication search.",
			Keywords:        []string{"ranking", "neural"},
			PublicationLink: "https://portal.example.edu/pub/1",
			ProfileLink:     "https://portal.example.edu/profile/ana-silva",
		},
		{
			Title:           "Index Compression Revisited",
			Authors:         []string{"Wei Chen"},
			Year:            "2019",
			Abstract:        "Compression for inverted indexes.",
			Keywords:        []string{"compression"},
			PublicationLink: "https://portal.example.edu/pub/2",
		},
	}
}

func TestStartCrawl(t *testing.T) {
	m, eng, st := newTestManager(t)
	m.crawl = crawlResult(samplePortalPublications()...)

	jobID, err := m.StartCrawl()
	if err != nil {
		t.Fatalf("StartCrawl() error = %v", err)
	}

	job := testutil.WaitForJob(t, m, jobID, testutil.DefaultJobPollingOptions())
	testutil.AssertJobCompleted(t, job, model.JobTypeCrawl)

	if got := eng.DocumentCount(); got != 2 {
		t.Errorf("DocumentCount() = %d, want 2", got)
	}

	count, err := st.CountPublications(context.Background())
	if err != nil {
		t.Fatalf("CountPublications() error = %v", err)
	}
	if count != 2 {
		t.Errorf("CountPublications() = %d, want 2", count)
	}

	if _, err := os.Stat(m.cfg.Index.Path); err != nil {
		t.Errorf("index file not persisted: %v", err)
	}

	logs, err := st.RecentCrawlLogs(context.Background(), 5)
	if err != nil {
		t.Fatalf("RecentCrawlLogs() error = %v", err)
	}
	if len(logs) != 1 {
		t.Fatalf("got %d crawl logs, want 1", len(logs))
	}
	if logs[0].Status != model.CrawlStatusCompleted {
		t.Errorf("crawl log status = %s, want %s", logs[0].Status, model.CrawlStatusCompleted)
	}
	if logs[0].DocumentsAdded != 2 {
		t.Errorf("crawl log documents_added = %d, want 2", logs[0].DocumentsAdded)
	}
	if logs[0].ProfilesCrawled != 1 {
		t.Errorf("crawl log profiles_crawled = %d, want 1", logs[0].ProfilesCrawled)
	}
}

func TestStartCrawlSingleFlight(t *testing.T) {
	m, _, _ := newTestManager(t)

	release := make(chan struct{})
	started := make(chan struct{})
	m.crawl = func(ctx context.Context, cfg config.CrawlerConfig, store crawler.LinkChecker, progress crawler.ProgressFunc) ([]crawler.Publication, int, error) {
		close(started)
		<-release
		return nil, 0, nil
	}

	jobID, err := m.StartCrawl()
	if err != nil {
		t.Fatalf("StartCrawl() error = %v", err)
	}
	<-started

	if _, err := m.StartCrawl(); !errors.Is(err, internalErrors.ErrCrawlInProgress) {
		t.Errorf("second StartCrawl() error = %v, want ErrCrawlInProgress", err)
	}

	// A running crawl must not block reindex jobs.
	reindexID, err := m.StartReindex()
	if err != nil {
		t.Fatalf("StartReindex() during crawl error = %v", err)
	}
	testutil.WaitForJob(t, m, reindexID, testutil.DefaultJobPollingOptions())

	close(release)
	job := testutil.WaitForJob(t, m, jobID, testutil.DefaultJobPollingOptions())
	testutil.AssertJobCompleted(t, job, model.JobTypeCrawl)

	// The slot is released; a new crawl may start.
	m.crawl = crawlResult()
	if _, err := m.StartCrawl(); err != nil {
		t.Errorf("StartCrawl() after completion error = %v", err)
	}
}

func TestStartCrawlFailure(t *testing.T) {
	m, _, st := newTestManager(t)

	crawlErr := errors.New("portal unreachable")
	m.crawl = func(ctx context.Context, cfg config.CrawlerConfig, store crawler.LinkChecker, progress crawler.ProgressFunc) ([]crawler.Publication, int, error) {
		return nil, 3, crawlErr
	}

	jobID, err := m.StartCrawl()
	if err != nil {
		t.Fatalf("StartCrawl() error = %v", err)
	}

	job := testutil.WaitForJob(t, m, jobID, testutil.DefaultJobPollingOptions())
	if job.Status != model.JobStatusFailed {
		t.Fatalf("job status = %s, want %s", job.Status, model.JobStatusFailed)
	}
	if job.Error == "" {
		t.Error("failed job should carry an error message")
	}

	logs, err := st.RecentCrawlLogs(context.Background(), 5)
	if err != nil {
		t.Fatalf("RecentCrawlLogs() error = %v", err)
	}
	if len(logs) != 1 {
		t.Fatalf("got %d crawl logs, want 1", len(logs))
	}
	if logs[0].Status != model.CrawlStatusFailed {
		t.Errorf("crawl log status = %s, want %s", logs[0].Status, model.CrawlStatusFailed)
	}
	if logs[0].ErrorMessage == "" {
		t.Error("failed crawl log should carry an error message")
	}
	if logs[0].ProfilesCrawled != 3 {
		t.Errorf("crawl log profiles_crawled = %d, want 3", logs[0].ProfilesCrawled)
	}
}

func TestStartReindex(t *testing.T) {
	m, eng, st := newTestManager(t)

	ctx := context.Background()
	for _, pub := range testutil.SamplePublications() {
		p := pub
		if _, err := st.UpsertPublication(ctx, &p); err != nil {
			t.Fatalf("UpsertPublication() error = %v", err)
		}
	}

	// Seed the engine with a document that no longer exists in the store;
	// the reindex must drop it.
	eng.AddDocument(model.Document{"title": model.String("stale")}, "pub_999", false)

	jobID, err := m.StartReindex()
	if err != nil {
		t.Fatalf("StartReindex() error = %v", err)
	}

	job := testutil.WaitForJob(t, m, jobID, testutil.DefaultJobPollingOptions())
	testutil.AssertJobCompleted(t, job, model.JobTypeReindex)

	if got := eng.DocumentCount(); got != 3 {
		t.Errorf("DocumentCount() = %d, want 3", got)
	}
	if _, ok := eng.GetDocument("pub_999"); ok {
		t.Error("stale document survived the reindex")
	}
	if _, err := os.Stat(m.cfg.Index.Path); err != nil {
		t.Errorf("index file not persisted: %v", err)
	}
}

func TestGetJobNotFound(t *testing.T) {
	m, _, _ := newTestManager(t)

	if _, err := m.GetJob("missing"); !errors.Is(err, internalErrors.ErrJobNotFound) {
		t.Errorf("GetJob() error = %v, want ErrJobNotFound", err)
	}
}

func TestLatestJob(t *testing.T) {
	m, _, _ := newTestManager(t)
	m.crawl = crawlResult()

	if _, err := m.LatestJob(model.JobTypeCrawl); !errors.Is(err, internalErrors.ErrJobNotFound) {
		t.Fatalf("LatestJob() before any run error = %v, want ErrJobNotFound", err)
	}

	jobID, err := m.StartCrawl()
	if err != nil {
		t.Fatalf("StartCrawl() error = %v", err)
	}
	testutil.WaitForJob(t, m, jobID, testutil.DefaultJobPollingOptions())

	latest, err := m.LatestJob(model.JobTypeCrawl)
	if err != nil {
		t.Fatalf("LatestJob() error = %v", err)
	}
	if latest.ID != jobID {
		t.Errorf("LatestJob() ID = %s, want %s", latest.ID, jobID)
	}

	if _, err := m.LatestJob(model.JobTypeReindex); !errors.Is(err, internalErrors.ErrJobNotFound) {
		t.Errorf("LatestJob(reindex) error = %v, want ErrJobNotFound", err)
	}
}

func TestJobLogsAreCapped(t *testing.T) {
	m, _, _ := newTestManager(t)
	m.crawl = func(ctx context.Context, cfg config.CrawlerConfig, store crawler.LinkChecker, progress crawler.ProgressFunc) ([]crawler.Publication, int, error) {
		for i := 0; i < maxJobLogLines+50; i++ {
			progress("visiting profile")
		}
		return nil, 0, nil
	}

	jobID, err := m.StartCrawl()
	if err != nil {
		t.Fatalf("StartCrawl() error = %v", err)
	}
	job := testutil.WaitForJob(t, m, jobID, testutil.DefaultJobPollingOptions())

	if len(job.Logs) > maxJobLogLines {
		t.Errorf("job log has %d lines, cap is %d", len(job.Logs), maxJobLogLines)
	}
}

func TestCleanupOldJobs(t *testing.T) {
	m, _, _ := newTestManager(t)
	m.crawl = crawlResult()

	jobID, err := m.StartCrawl()
	if err != nil {
		t.Fatalf("StartCrawl() error = %v", err)
	}
	testutil.WaitForJob(t, m, jobID, testutil.DefaultJobPollingOptions())

	// A negative age makes every finished job eligible.
	if removed := m.CleanupOldJobs(-time.Second); removed != 1 {
		t.Fatalf("CleanupOldJobs() = %d, want 1", removed)
	}
	if _, err := m.GetJob(jobID); !errors.Is(err, internalErrors.ErrJobNotFound) {
		t.Errorf("GetJob() after cleanup error = %v, want ErrJobNotFound", err)
	}
}

func TestUpdateJobProgress(t *testing.T) {
	m, _, _ := newTestManager(t)

	release := make(chan struct{})
	started := make(chan struct{})
	m.crawl = func(ctx context.Context, cfg config.CrawlerConfig, store crawler.LinkChecker, progress crawler.ProgressFunc) ([]crawler.Publication, int, error) {
		close(started)
		<-release
		return nil, 0, nil
	}

	jobID, err := m.StartCrawl()
	if err != nil {
		t.Fatalf("StartCrawl() error = %v", err)
	}
	<-started

	m.UpdateJobProgress(jobID, 5, 10, "halfway")
	job, err := m.GetJob(jobID)
	if err != nil {
		t.Fatalf("GetJob() error = %v", err)
	}
	if job.Progress == nil {
		t.Fatal("expected progress to be set")
	}
	if job.Progress.Current != 5 || job.Progress.Total != 10 {
		t.Errorf("progress = %d/%d, want 5/10", job.Progress.Current, job.Progress.Total)
	}
	if pct := job.Progress.GetProgressPercentage(); pct != 50 {
		t.Errorf("GetProgressPercentage() = %v, want 50", pct)
	}

	close(release)
	testutil.WaitForJob(t, m, jobID, testutil.DefaultJobPollingOptions())
}
