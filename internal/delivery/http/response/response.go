package response

// CrawlResponse reports a completed crawl.
type CrawlResponse struct {
	Status        string `json:"status"`
	RunID         string `json:"run_id"`
	NewRecords    int    `json:"new_records"`
	Discovered    int    `json:"discovered"`
	Skipped       int    `json:"skipped"`
	FetchFailures int    `json:"fetch_failures"`
	DurationMS    int64  `json:"duration_ms"`
}

// StatusResponse is the dashboard view. LastRun is RFC 3339 or "never".
type StatusResponse struct {
	LastRun         string `json:"last_run"`
	TotalRecords    int64  `json:"total_records"`
	CrawlInProgress bool   `json:"crawl_in_progress"`
}
