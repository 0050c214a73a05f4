package models

import "time"

// Failure stages.
const (
	StageFetch = "fetch"
	StageParse = "parse"
)

// CrawlFailure records a URL that was dropped. It is informational only;
// failed URLs are never re-enqueued from it.
type CrawlFailure struct {
	URL        string    `json:"url"`
	Stage      string    `json:"stage"`
	StatusCode int       `json:"status_code,omitempty"`
	Timeout    bool      `json:"timeout,omitempty"`
	Error      string    `json:"error"`
	FailedAt   time.Time `json:"failed_at"`
}
