// Package testing provides shared fixtures and helpers for tests that
// exercise the engine, the job manager and the HTTP API together.
package testing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gcbaptista/pubsearch/model"
	"github.com/gcbaptista/pubsearch/services"
)

// SamplePublications returns a small corpus with list-shaped fields,
// overlapping authors and distinct years.
func SamplePublications() []model.Publication {
	return []model.Publication{
		{
			Title:           "Deep Learning for Publication Ranking",
			Authors:         "Ana Silva, Wei Chen",
			Year:            "2021",
			Abstract:        "We study neural ranking models applied to academic publication search.",
			Keywords:        "deep learning, ranking",
			PublicationLink: "https://portal.example.edu/pub/1",
			ProfileLink:     "https://portal.example.edu/profile/ana-silva",
		},
		{
			Title:           "A Survey of Inverted Index Compression",
			Authors:         "Wei Chen",
			Year:            "2019",
			Abstract:        "Compression techniques for inverted indexes are surveyed and compared.",
			Keywords:        "inverted index, compression",
			PublicationLink: "https://portal.example.edu/pub/2",
			ProfileLink:     "https://portal.example.edu/profile/wei-chen",
		},
		{
			Title:           "Crawling Academic Portals at Scale",
			Authors:         "Maria Santos, Ana Silva",
			Year:            "2023",
			Abstract:        "We describe a polite breadth-first crawler for researcher profile portals.",
			Keywords:        "crawling, portals",
			PublicationLink: "https://portal.example.edu/pub/3",
			ProfileLink:     "https://portal.example.edu/profile/maria-santos",
		},
	}
}

// JobPollingOptions configures job polling behavior
type JobPollingOptions struct {
	Timeout      time.Duration
	PollInterval time.Duration
}

// DefaultJobPollingOptions returns sensible defaults for job polling
func DefaultJobPollingOptions() JobPollingOptions {
	return JobPollingOptions{
		Timeout:      5 * time.Second,
		PollInterval: 10 * time.Millisecond,
	}
}

// WaitForJob polls a job until it reaches a terminal status or the timeout
// expires. The terminal job is returned whether it completed or failed so
// callers can assert either outcome.
func WaitForJob(t *testing.T, jobs services.JobManager, jobID string, opts JobPollingOptions) *model.Job {
	t.Helper()

	deadline := time.After(opts.Timeout)
	ticker := time.NewTicker(opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-deadline:
			t.Fatalf("Job %s did not finish within %v", jobID, opts.Timeout)
			return nil
		case <-ticker.C:
			job, err := jobs.GetJob(jobID)
			require.NoError(t, err, "Failed to get job status")
			if job.Status == model.JobStatusCompleted || job.Status == model.JobStatusFailed {
				return job
			}
		}
	}
}

// AssertJobCompleted verifies that a job finished successfully.
func AssertJobCompleted(t *testing.T, job *model.Job, expectedType model.JobType) {
	t.Helper()

	assert.Equal(t, model.JobStatusCompleted, job.Status, "Job should be completed")
	assert.Equal(t, expectedType, job.Type, "Job type should match")
	assert.NotNil(t, job.CompletedAt, "Job should have a completion timestamp")
	assert.Empty(t, job.Error, "Job should not carry an error")
}
