package dto

// TrackEventResponse acknowledges an accepted event
type TrackEventResponse struct {
	EventID string `json:"event_id"`
	Status  string `json:"status"`
}

// ErrorResponse carries a single error message
type ErrorResponse struct {
	Error string `json:"error"`
}
