// Package scheduler triggers the weekly portal crawl. A lock file keeps the
// run a singleton across processes; the in-process job manager already
// enforces one crawl at a time within the process.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gcbaptista/pubsearch/config"
	"github.com/gcbaptista/pubsearch/model"
)

// CrawlRunner starts crawl jobs and reports their state.
type CrawlRunner interface {
	StartCrawl() (string, error)
	GetJob(jobID string) (*model.Job, error)
}

// Scheduler fires a crawl at the configured weekday and time.
type Scheduler struct {
	cfg          config.SchedulerConfig
	jobs         CrawlRunner
	weekday      time.Weekday
	pollInterval time.Duration
}

// New builds a scheduler from the config. An unknown weekday name falls
// back to Monday.
func New(cfg config.SchedulerConfig, jobs CrawlRunner) *Scheduler {
	weekday, err := parseWeekday(cfg.Weekday)
	if err != nil {
		log.Printf("Warning: %v, defaulting to Monday", err)
		weekday = time.Monday
	}
	return &Scheduler{
		cfg:          cfg,
		jobs:         jobs,
		weekday:      weekday,
		pollInterval: 5 * time.Second,
	}
}

// Start runs the scheduler loop until the context is canceled.
func (s *Scheduler) Start(ctx context.Context) {
	log.Printf("scheduler: weekly crawl every %s at %02d:%02d", s.weekday, s.cfg.Hour, s.cfg.Minute)
	for {
		next := s.nextRun(time.Now())
		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			s.runOnce(ctx)
		}
	}
}

// nextRun returns the first occurrence of the configured weekday and time
// strictly after now.
func (s *Scheduler) nextRun(now time.Time) time.Time {
	target := time.Date(now.Year(), now.Month(), now.Day(), s.cfg.Hour, s.cfg.Minute, 0, 0, now.Location())
	days := (int(s.weekday) - int(now.Weekday()) + 7) % 7
	target = target.AddDate(0, 0, days)
	if !target.After(now) {
		target = target.AddDate(0, 0, 7)
	}
	return target
}

// runOnce starts a crawl and holds the lock file until the job finishes.
// A held lock means another process is crawling, so the run is skipped; the
// foreign lock is left in place.
func (s *Scheduler) runOnce(ctx context.Context) {
	release, err := s.acquireLock()
	if err != nil {
		log.Printf("scheduler: lock file held, skipping run: %v", err)
		return
	}
	defer release()

	jobID, err := s.jobs.StartCrawl()
	if err != nil {
		log.Printf("scheduler: starting crawl: %v", err)
		return
	}
	log.Printf("scheduler: started crawl job %s", jobID)
	s.waitForJob(ctx, jobID)
}

// acquireLock creates the lock file exclusively and writes this process's
// pid into it. The returned function removes the lock.
func (s *Scheduler) acquireLock() (func(), error) {
	if dir := filepath.Dir(s.cfg.LockFile); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("creating lock directory: %w", err)
		}
	}
	f, err := os.OpenFile(s.cfg.LockFile, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(f, "%d", os.Getpid())
	f.Close()

	return func() {
		if err := os.Remove(s.cfg.LockFile); err != nil {
			log.Printf("scheduler: removing lock file: %v", err)
		}
	}, nil
}

func (s *Scheduler) waitForJob(ctx context.Context, jobID string) {
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			job, err := s.jobs.GetJob(jobID)
			if err != nil {
				log.Printf("scheduler: polling crawl job %s: %v", jobID, err)
				return
			}
			if job.Status == model.JobStatusCompleted || job.Status == model.JobStatusFailed {
				log.Printf("scheduler: crawl job %s finished with status %s", jobID, job.Status)
				return
			}
		}
	}
}

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

func parseWeekday(name string) (time.Weekday, error) {
	if d, ok := weekdays[strings.ToLower(strings.TrimSpace(name))]; ok {
		return d, nil
	}
	return 0, fmt.Errorf("unknown weekday %q", name)
}
