package entity

import "time"

// CrawlResult summarises one completed crawl.
type CrawlResult struct {
	RunID         string
	Discovered    int // candidate links, duplicates included
	Skipped       int // already stored when checked
	Saved         int // newly persisted profiles
	FetchFailures int // detail pages that could not be fetched
	StartedAt     time.Time
	FinishedAt    time.Time
}

// Duration of the crawl.
func (r CrawlResult) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
