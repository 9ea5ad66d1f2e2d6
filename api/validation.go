// Package api provides the HTTP handlers, routing and request validation
// for the publication search service.
package api

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gcbaptista/pubsearch/model"
)

// ValidationError represents a validation error with field context
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationResult holds the result of validation operations
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// AddError adds a validation error to the result
func (vr *ValidationResult) AddError(field, message string) {
	vr.Valid = false
	vr.Errors = append(vr.Errors, ValidationError{
		Field:   field,
		Message: message,
	})
}

// HasErrors returns true if there are validation errors
func (vr *ValidationResult) HasErrors() bool {
	return len(vr.Errors) > 0
}

// PublicationPayload is the ingestion shape accepted by PUT /api/documents.
// Authors and keywords accept either a single string or an array of strings.
type PublicationPayload struct {
	Title           string           `json:"title"`
	Authors         model.FieldValue `json:"authors"`
	Year            string           `json:"year"`
	Abstract        string           `json:"abstract"`
	Keywords        model.FieldValue `json:"keywords"`
	PublicationLink string           `json:"publication_link"`
	ProfileLink     string           `json:"profile_link"`
}

// ToModel converts the payload into a store row. List-shaped authors and
// keywords are comma-joined the way the store columns expect them.
func (p *PublicationPayload) ToModel() *model.Publication {
	return &model.Publication{
		Title:           strings.TrimSpace(p.Title),
		Authors:         joinField(p.Authors),
		Year:            strings.TrimSpace(p.Year),
		Abstract:        strings.TrimSpace(p.Abstract),
		Keywords:        joinField(p.Keywords),
		PublicationLink: strings.TrimSpace(p.PublicationLink),
		ProfileLink:     strings.TrimSpace(p.ProfileLink),
	}
}

func joinField(v model.FieldValue) string {
	if v.IsList() {
		return model.JoinList(v.Items())
	}
	return strings.TrimSpace(v.Flatten())
}

// ValidatePublications validates a batch of ingestion payloads. Title and
// publication_link are required; everything else is optional.
func ValidatePublications(payloads []PublicationPayload) *ValidationResult {
	result := &ValidationResult{Valid: true}

	if len(payloads) == 0 {
		result.AddError("documents", "No documents provided")
		return result
	}

	for i, p := range payloads {
		if strings.TrimSpace(p.Title) == "" {
			result.AddError(fmt.Sprintf("documents[%d].title", i), "Title is required")
		}
		if strings.TrimSpace(p.PublicationLink) == "" {
			result.AddError(fmt.Sprintf("documents[%d].publication_link", i), "Publication link is required")
		}
	}

	return result
}

// ValidatePagination validates pagination parameters
func ValidatePagination(page, pageSize int) (int, int, *ValidationResult) {
	result := &ValidationResult{Valid: true}

	// Set defaults
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 10
	}

	// Validate limits
	if pageSize > 100 {
		pageSize = 100 // Maximum page size
	}

	return page, pageSize, result
}

// ParseTopK parses the top_k query parameter. An absent or empty value falls
// back to defaultTopK; anything that is not a positive integer is rejected.
func ParseTopK(raw string, defaultTopK int) (int, *ValidationResult) {
	result := &ValidationResult{Valid: true}

	if raw == "" {
		return defaultTopK, result
	}

	topK, err := strconv.Atoi(raw)
	if err != nil || topK <= 0 {
		result.AddError("top_k", "top_k must be a positive integer")
		return 0, result
	}

	return topK, result
}
