package model

import (
	"fmt"
	"strings"
	"time"
)

// Publication is a row in the publications table, the primary record store.
// Authors and keywords are stored comma-joined and split into list fields
// when the row is mapped onto an engine document.
type Publication struct {
	ID              int64     `json:"id"`
	Title           string    `json:"title"`
	Authors         string    `json:"authors"`
	Year            string    `json:"year"`
	Abstract        string    `json:"abstract"`
	Keywords        string    `json:"keywords"`
	PublicationLink string    `json:"publication_link"`
	ProfileLink     string    `json:"profile_link,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// DocID returns the engine document ID for this row.
func (p *Publication) DocID() string {
	return fmt.Sprintf("pub_%d", p.ID)
}

// Document maps the row onto the engine's field shape.
func (p *Publication) Document() Document {
	year := p.Year
	if year == "" {
		year = "N/A"
	}
	doc := Document{
		"title":    String(p.Title),
		"authors":  List(SplitList(p.Authors)...),
		"year":     String(year),
		"abstract": String(p.Abstract),
		"keywords": List(SplitList(p.Keywords)...),
	}
	if p.PublicationLink != "" {
		doc["publication_link"] = String(p.PublicationLink)
	}
	if p.ProfileLink != "" {
		doc["profile_link"] = String(p.ProfileLink)
	}
	return doc
}

// SplitList splits a comma-joined column value into trimmed elements,
// dropping empties.
func SplitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// JoinList is the inverse of SplitList for writing list values back to a row.
func JoinList(items []string) string {
	return strings.Join(items, ", ")
}
