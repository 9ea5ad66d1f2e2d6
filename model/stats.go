package model

// YearCount is one bucket of the publication year distribution.
type YearCount struct {
	Year  string `json:"year"`
	Count int    `json:"count"`
}

// Stats summarizes the corpus and recent crawl activity.
type Stats struct {
	TotalPublications  int           `json:"total_publications"`
	IndexedDocuments   int           `json:"indexed_documents"`
	VocabularySize     int           `json:"vocabulary_size"`
	YearDistribution   []YearCount   `json:"year_distribution"`
	RecentPublications []Publication `json:"recent_publications"`
	RecentCrawls       []CrawlLog    `json:"recent_crawls"`
}
