package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/gcbaptista/pubsearch/internal/tokenizer"
	"github.com/gcbaptista/pubsearch/services"
)

// SearchHandler handles ranked search requests.
// Query parameters: q (query text), top_k (optional result cap).
func (api *API) SearchHandler(c *gin.Context) {
	startTime := time.Now()

	query := c.Query("q")

	topK, result := ParseTopK(c.Query("top_k"), api.cfg.Index.DefaultTopK)
	if result.HasErrors() {
		SendValidationErrors(c, result)
		return
	}

	results := api.engine.Search(query, topK)
	took := time.Since(startTime)

	api.observeSearch(query, len(results), took)

	c.JSON(http.StatusOK, services.SearchResult{
		Query:        query,
		Results:      results,
		TotalResults: len(results),
		Took:         took.Milliseconds(),
		QueryID:      uuid.New().String(),
	})
}

func (api *API) observeSearch(query string, resultCount int, took time.Duration) {
	if api.metrics == nil {
		return
	}
	resultType := "hit"
	switch {
	case strings.TrimSpace(query) == "":
		resultType = "empty_query"
	case resultCount == 0:
		resultType = "zero_result"
	}
	api.metrics.SearchQueriesTotal.WithLabelValues(resultType).Inc()
	api.metrics.SearchLatency.Observe(took.Seconds())
	api.metrics.SearchResultsCount.Observe(float64(resultCount))
}

// TokenizeHandler exposes the text preprocessing pipeline for transparency.
// It returns each normalization step applied to the input along with the
// final index tokens.
func (api *API) TokenizeHandler(c *gin.Context) {
	text := c.Query("text")
	if text == "" {
		SendError(c, http.StatusBadRequest, "text parameter is required")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"text":   text,
		"steps":  tokenizer.Steps(text),
		"tokens": tokenizer.Tokenize(text),
	})
}
