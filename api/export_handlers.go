package api

import (
	"encoding/csv"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

var csvHeader = []string{
	"id", "title", "authors", "year", "abstract", "keywords",
	"publication_link", "profile_link", "created_at", "updated_at",
}

// ExportPublicationsCSVHandler streams the whole publication store as a CSV
// attachment.
func (api *API) ExportPublicationsCSVHandler(c *gin.Context) {
	publications, err := api.store.AllPublications(c.Request.Context())
	if err != nil {
		SendError(c, http.StatusInternalServerError, "Failed to load publications: "+err.Error())
		return
	}

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="publications.csv"`)
	c.Status(http.StatusOK)

	w := csv.NewWriter(c.Writer)
	if err := w.Write(csvHeader); err != nil {
		return
	}
	for i := range publications {
		p := &publications[i]
		record := []string{
			strconv.FormatInt(p.ID, 10),
			p.Title,
			p.Authors,
			p.Year,
			p.Abstract,
			p.Keywords,
			p.PublicationLink,
			p.ProfileLink,
			p.CreatedAt.Format(time.RFC3339),
			p.UpdatedAt.Format(time.RFC3339),
		}
		if err := w.Write(record); err != nil {
			return
		}
	}
	w.Flush()
}
