package models

// FrontierStats is a point-in-time view of the shared store.
type FrontierStats struct {
	Queued  int64 `json:"queued"`
	Visited int64 `json:"visited"`
}

// EnqueueResult is returned by the API after a manual enqueue.
type EnqueueResult struct {
	URL    string `json:"url"`
	Queued bool   `json:"queued"`
	Reason string `json:"reason,omitempty"`
}

// VisitedStatus answers a registry lookup.
type VisitedStatus struct {
	URL     string `json:"url"`
	Visited bool   `json:"visited"`
}
