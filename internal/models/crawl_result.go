package models

import (
	"encoding/json"
	"time"
)

// PageResult is the payload written to the pages topic for every crawled URL.
type PageResult struct {
	URL         string    `json:"url"`
	FinalURL    string    `json:"final_url,omitempty"`
	Title       string    `json:"title,omitempty"`
	Text        string    `json:"text"`
	StatusCode  int       `json:"status_code"`
	ContentType string    `json:"content_type,omitempty"`
	LinkCount   int       `json:"link_count"`
	FetchedAt   time.Time `json:"fetched_at"`
}

// NewPageResultPayload marshals a page result.
func NewPageResultPayload(page PageResult) ([]byte, error) {
	return json.Marshal(page)
}
