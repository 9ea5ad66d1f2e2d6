package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	internalErrors "github.com/gcbaptista/pubsearch/internal/errors"
)

// statusForError maps service errors to HTTP status codes. Unrecognized
// errors are treated as internal failures.
func statusForError(err error) int {
	switch {
	case errors.Is(err, internalErrors.ErrPublicationNotFound),
		errors.Is(err, internalErrors.ErrJobNotFound):
		return http.StatusNotFound
	case errors.Is(err, internalErrors.ErrCrawlInProgress),
		errors.Is(err, internalErrors.ErrReindexInProgress):
		return http.StatusConflict
	case errors.Is(err, internalErrors.ErrInvalidInput):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// SendError writes the uniform error response shape.
func SendError(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, gin.H{"error": message})
}

// SendServiceError maps err to a status code and writes the error response.
func SendServiceError(c *gin.Context, err error) {
	SendError(c, statusForError(err), err.Error())
}

// SendValidationErrors writes a 400 listing every validation failure.
func SendValidationErrors(c *gin.Context, result *ValidationResult) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":   "Validation failed",
		"details": result.Errors,
	})
}
