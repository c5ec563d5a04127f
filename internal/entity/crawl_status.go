package entity

import "time"

// CrawlStatus is the read-only view served to the dashboard.
type CrawlStatus struct {
	LastRun         *time.Time // nil until the first crawl completes
	TotalRecords    int64
	CrawlInProgress bool
}
