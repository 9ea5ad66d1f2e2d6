package api

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// AddDocumentsHandler handles adding/updating publications. The body is a
// single publication object or an array of them. Rows are upserted into the
// store keyed by publication_link, indexed with one vector rebuild at the
// end, and the index is persisted.
func (api *API) AddDocumentsHandler(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil {
		SendError(c, http.StatusBadRequest, "Failed to read request body: "+err.Error())
		return
	}

	var payloads []PublicationPayload
	if err := json.Unmarshal(raw, &payloads); err != nil {
		var single PublicationPayload
		if err := json.Unmarshal(raw, &single); err != nil {
			SendError(c, http.StatusBadRequest, "Invalid request body. Expecting a publication object or an array of publications")
			return
		}
		payloads = []PublicationPayload{single}
	}

	if result := ValidatePublications(payloads); result.HasErrors() {
		SendValidationErrors(c, result)
		return
	}

	ctx := c.Request.Context()
	created := 0
	for i := range payloads {
		pub := payloads[i].ToModel()
		wasCreated, err := api.store.UpsertPublication(ctx, pub)
		if err != nil {
			SendError(c, http.StatusInternalServerError, fmt.Sprintf("Failed to store publication %d: %v", i, err))
			return
		}
		if wasCreated {
			created++
		}
		api.engine.AddDocument(pub.Document(), pub.DocID(), true)
	}
	api.engine.RebuildVectors()

	if err := api.engine.Save(api.cfg.Index.Path); err != nil {
		log.Printf("Warning: Failed to persist index after ingestion: %v", err)
	}

	if api.metrics != nil {
		api.metrics.DocumentsIndexed.Add(float64(len(payloads)))
		api.metrics.ObserveIndexSize(api.engine.DocumentCount(), api.engine.VocabularySize())
	}

	c.JSON(http.StatusOK, gin.H{
		"message": fmt.Sprintf("%d publication(s) added/updated", len(payloads)),
		"created": created,
		"updated": len(payloads) - created,
	})
}

// DocumentListRequest defines the structure for document listing requests
type DocumentListRequest struct {
	Page     int `form:"page" json:"page"`
	PageSize int `form:"page_size" json:"page_size"`
}

// GetDocumentsHandler lists publications with pagination
func (api *API) GetDocumentsHandler(c *gin.Context) {
	var req DocumentListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		SendError(c, http.StatusBadRequest, "Invalid query parameters: "+err.Error())
		return
	}

	page, pageSize, _ := ValidatePagination(req.Page, req.PageSize)

	ctx := c.Request.Context()
	totalCount, err := api.store.CountPublications(ctx)
	if err != nil {
		SendError(c, http.StatusInternalServerError, "Failed to count publications: "+err.Error())
		return
	}

	offset := (page - 1) * pageSize
	documents, err := api.store.ListPublications(ctx, offset, pageSize)
	if err != nil {
		SendError(c, http.StatusInternalServerError, "Failed to list publications: "+err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"documents": documents,
		"total":     totalCount,
		"page":      page,
		"page_size": pageSize,
		"pages":     (totalCount + pageSize - 1) / pageSize,
	})
}

// GetDocumentHandler retrieves a specific publication by its document ID
// (pub_<id>); a bare numeric ID is also accepted.
func (api *API) GetDocumentHandler(c *gin.Context) {
	documentID := c.Param("documentId")

	id, err := strconv.ParseInt(strings.TrimPrefix(documentID, "pub_"), 10, 64)
	if err != nil {
		SendError(c, http.StatusBadRequest, "Invalid document ID '"+documentID+"'")
		return
	}

	pub, err := api.store.GetPublication(c.Request.Context(), id)
	if err != nil {
		SendServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, pub)
}
