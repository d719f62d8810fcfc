package dto

// TrackEventRequest is the inbound payload of the ingest API. Clients that
// retry submissions can pin deduplication with an explicit idempotency key.
type TrackEventRequest struct {
	ProjectID      string         `json:"project_id" binding:"required"`
	UserID         string         `json:"user_id"`
	Event          string         `json:"event" binding:"required"`
	Properties     map[string]any `json:"properties"`
	Timestamp      int64          `json:"timestamp"`
	IdempotencyKey string         `json:"idempotency_key"`
}
