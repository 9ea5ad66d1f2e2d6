package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common error conditions
var (
	// ErrPublicationNotFound is returned when a publication is not found in the store
	ErrPublicationNotFound = errors.New("publication not found")

	// ErrJobNotFound is returned when a job is not found
	ErrJobNotFound = errors.New("job not found")

	// ErrCrawlInProgress is returned when a crawl is started while one is already running
	ErrCrawlInProgress = errors.New("crawl already in progress")

	// ErrReindexInProgress is returned when a reindex is started while one is already running
	ErrReindexInProgress = errors.New("reindex already in progress")

	// ErrCorruptIndex is returned when a persisted index file exists but cannot be decoded
	ErrCorruptIndex = errors.New("corrupt index file")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")
)

// PublicationNotFoundError represents a publication not found error with context
type PublicationNotFoundError struct {
	DocumentID string
}

func (e *PublicationNotFoundError) Error() string {
	return fmt.Sprintf("publication with ID '%s' not found", e.DocumentID)
}

func (e *PublicationNotFoundError) Is(target error) bool {
	return target == ErrPublicationNotFound
}

// NewPublicationNotFoundError creates a new PublicationNotFoundError
func NewPublicationNotFoundError(documentID string) *PublicationNotFoundError {
	return &PublicationNotFoundError{DocumentID: documentID}
}

// JobNotFoundError represents a job not found error with context
type JobNotFoundError struct {
	JobID string
}

func (e *JobNotFoundError) Error() string {
	return fmt.Sprintf("job with ID '%s' not found", e.JobID)
}

func (e *JobNotFoundError) Is(target error) bool {
	return target == ErrJobNotFound
}

// NewJobNotFoundError creates a new JobNotFoundError
func NewJobNotFoundError(jobID string) *JobNotFoundError {
	return &JobNotFoundError{JobID: jobID}
}

// CrawlInProgressError reports the job currently holding the crawl slot
type CrawlInProgressError struct {
	JobID string
}

func (e *CrawlInProgressError) Error() string {
	return fmt.Sprintf("crawl already in progress (job '%s')", e.JobID)
}

func (e *CrawlInProgressError) Is(target error) bool {
	return target == ErrCrawlInProgress
}

// NewCrawlInProgressError creates a new CrawlInProgressError
func NewCrawlInProgressError(jobID string) *CrawlInProgressError {
	return &CrawlInProgressError{JobID: jobID}
}

// ReindexInProgressError reports the job currently holding the reindex slot
type ReindexInProgressError struct {
	JobID string
}

func (e *ReindexInProgressError) Error() string {
	return fmt.Sprintf("reindex already in progress (job '%s')", e.JobID)
}

func (e *ReindexInProgressError) Is(target error) bool {
	return target == ErrReindexInProgress
}

// NewReindexInProgressError creates a new ReindexInProgressError
func NewReindexInProgressError(jobID string) *ReindexInProgressError {
	return &ReindexInProgressError{JobID: jobID}
}

// CorruptIndexError represents an index file that exists but cannot be decoded
type CorruptIndexError struct {
	Path   string
	Reason error
}

func (e *CorruptIndexError) Error() string {
	return fmt.Sprintf("corrupt index file '%s': %v", e.Path, e.Reason)
}

func (e *CorruptIndexError) Is(target error) bool {
	return target == ErrCorruptIndex
}

func (e *CorruptIndexError) Unwrap() error {
	return e.Reason
}

// NewCorruptIndexError creates a new CorruptIndexError
func NewCorruptIndexError(path string, reason error) *CorruptIndexError {
	return &CorruptIndexError{Path: path, Reason: reason}
}

// ValidationError represents an input validation error with context
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}
