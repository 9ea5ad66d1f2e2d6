package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gcbaptista/pubsearch/config"
	"github.com/gcbaptista/pubsearch/internal/metrics"
	"github.com/gcbaptista/pubsearch/services"
)

// maxRequestBodySize caps ingestion payloads (10 MB).
const maxRequestBodySize = 10 << 20

// API holds dependencies for the HTTP handlers: the search engine, the
// publication store, the background job manager and configuration. The
// metrics field may be nil when the metrics endpoint is disabled.
type API struct {
	engine  services.Engine
	store   services.PublicationStore
	jobs    services.JobManager
	cfg     *config.Config
	metrics *metrics.Metrics
}

// NewAPI creates a new API handler structure.
func NewAPI(engine services.Engine, store services.PublicationStore, jobs services.JobManager, cfg *config.Config, met *metrics.Metrics) *API {
	return &API{
		engine:  engine,
		store:   store,
		jobs:    jobs,
		cfg:     cfg,
		metrics: met,
	}
}

// SetupRoutes defines all the API routes for the publication search service.
func SetupRoutes(router *gin.Engine, api *API) {
	router.Use(CORSMiddleware())
	router.Use(RequestSizeLimitMiddleware(maxRequestBodySize))
	router.Use(MetricsMiddleware(api.metrics))

	// Health check route
	router.GET("/health", api.HealthCheckHandler)

	if api.cfg.Metrics.Enabled {
		router.GET("/metrics", gin.WrapH(metrics.Handler()))
	}

	apiRoutes := router.Group("/api")
	{
		// Search routes
		apiRoutes.GET("/search", api.SearchHandler)
		apiRoutes.GET("/tokenize", api.TokenizeHandler)

		// Document management routes
		docRoutes := apiRoutes.Group("/documents")
		{
			docRoutes.PUT("", api.AddDocumentsHandler)            // Add/Update publications
			docRoutes.GET("", api.GetDocumentsHandler)            // List publications with pagination
			docRoutes.GET("/:documentId", api.GetDocumentHandler) // Get specific publication
		}

		// Index management routes
		apiRoutes.POST("/index/rebuild", api.RebuildIndexHandler)
		apiRoutes.GET("/stats", api.GetStatsHandler)

		// Crawler routes
		crawlRoutes := apiRoutes.Group("/crawl")
		{
			crawlRoutes.POST("", api.StartCrawlHandler)        // Start a crawl job
			crawlRoutes.GET("/status", api.CrawlStatusHandler) // Latest crawl job + running flag
			crawlRoutes.GET("/logs", api.GetCrawlLogsHandler)  // Recent crawl_logs rows
		}

		// Job management routes
		apiRoutes.GET("/jobs/:jobId", api.GetJobHandler)

		// Export routes
		apiRoutes.GET("/export/publications.csv", api.ExportPublicationsCSVHandler)
	}
}

// HealthCheckHandler provides a simple health check endpoint
func (api *API) HealthCheckHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   "pubsearch",
		"timestamp": fmt.Sprintf("%d", time.Now().Unix()),
	})
}
