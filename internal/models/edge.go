package models

import "time"

// RelationLinksTo is the only edge kind the crawler emits.
const RelationLinksTo = "LINKS_TO"

// Edge is a hyperlink from one crawled page to a discovered URL.
type Edge struct {
	From         string    `json:"from"`
	To           string    `json:"to"`
	Relation     string    `json:"relation"`
	DiscoveredAt time.Time `json:"discovered_at"`
}
