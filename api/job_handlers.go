package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gcbaptista/pubsearch/model"
)

// StartCrawlHandler starts a portal crawl job. Only one crawl may run at a
// time; a second request while one is running returns 409.
func (api *API) StartCrawlHandler(c *gin.Context) {
	jobID, err := api.jobs.StartCrawl()
	if err != nil {
		SendServiceError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"status":  "accepted",
		"message": "Crawl started",
		"job_id":  jobID,
	})
}

// CrawlStatusHandler reports whether a crawl is running along with the most
// recent crawl job, including its log tail.
func (api *API) CrawlStatusHandler(c *gin.Context) {
	job, err := api.jobs.LatestJob(model.JobTypeCrawl)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"running": false, "job": nil})
		return
	}

	running := job.Status == model.JobStatusPending || job.Status == model.JobStatusRunning
	c.JSON(http.StatusOK, gin.H{"running": running, "job": job})
}

// GetCrawlLogsHandler returns the most recent crawl_logs rows from the store.
func (api *API) GetCrawlLogsHandler(c *gin.Context) {
	logs, err := api.store.RecentCrawlLogs(c.Request.Context(), 20)
	if err != nil {
		SendError(c, http.StatusInternalServerError, "Failed to load crawl logs: "+err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"logs":  logs,
		"total": len(logs),
	})
}

// GetJobHandler handles requests to get job status by ID
func (api *API) GetJobHandler(c *gin.Context) {
	jobID := c.Param("jobId")

	job, err := api.jobs.GetJob(jobID)
	if err != nil {
		SendServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, job)
}
