package dto

// WebhookAccepted is returned once an event is queued.
type WebhookAccepted struct {
	Detail string `json:"detail"`
}

// ThreadLookupResponse reports the cached forum thread of an item.
type ThreadLookupResponse struct {
	ItemName string `json:"item_name"`
	ThreadID string `json:"thread_id"`
}

// StatsResponse summarizes relay activity since start.
type StatsResponse struct {
	QueueDepth int              `json:"queue_depth"`
	Requests   map[string]int64 `json:"requests"`
	Errors     map[string]int64 `json:"errors"`
	Events     map[string]int64 `json:"events"`
}
