package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gcbaptista/pubsearch/model"
)

// RebuildIndexHandler starts an asynchronous reindex job that clears the
// in-memory index and rebuilds it from the publication store.
func (api *API) RebuildIndexHandler(c *gin.Context) {
	jobID, err := api.jobs.StartReindex()
	if err != nil {
		SendServiceError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"status":  "accepted",
		"message": "Index rebuild started",
		"job_id":  jobID,
	})
}

// GetStatsHandler returns corpus and index statistics: totals, vocabulary
// size, the year distribution, recent publications and recent crawl runs.
func (api *API) GetStatsHandler(c *gin.Context) {
	ctx := c.Request.Context()

	total, err := api.store.CountPublications(ctx)
	if err != nil {
		SendError(c, http.StatusInternalServerError, "Failed to count publications: "+err.Error())
		return
	}

	years, err := api.store.YearDistribution(ctx, 10)
	if err != nil {
		SendError(c, http.StatusInternalServerError, "Failed to load year distribution: "+err.Error())
		return
	}

	recentPubs, err := api.store.RecentPublications(ctx, 10)
	if err != nil {
		SendError(c, http.StatusInternalServerError, "Failed to load recent publications: "+err.Error())
		return
	}

	recentCrawls, err := api.store.RecentCrawlLogs(ctx, 5)
	if err != nil {
		SendError(c, http.StatusInternalServerError, "Failed to load recent crawls: "+err.Error())
		return
	}

	c.JSON(http.StatusOK, model.Stats{
		TotalPublications:  total,
		IndexedDocuments:   api.engine.DocumentCount(),
		VocabularySize:     api.engine.VocabularySize(),
		YearDistribution:   years,
		RecentPublications: recentPubs,
		RecentCrawls:       recentCrawls,
	})
}
