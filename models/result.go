package models

import "time"

// RunResult holds the outcome of one pipeline run.
type RunResult struct {
	Offers         []Offer
	FailedArticles []string
	StartTime      time.Time
	EndTime        time.Time
	ArticleCount   int
	ExportPath     string
}
