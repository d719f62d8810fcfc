package consumer

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/perkforge/loyalty-engine/internal/domain"
)

// MessageParser turns a raw queue message body into an event message
type MessageParser interface {
	Parse(body []byte) (*domain.RawEventMessage, error)
}

// JSONMessageParser implements MessageParser for JSON event bodies
type JSONMessageParser struct{}

// NewJSONMessageParser creates a new JSON message parser
func NewJSONMessageParser() *JSONMessageParser {
	return &JSONMessageParser{}
}

// Parse decodes and validates a raw event message. A message without a
// project id or event type is malformed and never retried.
func (p *JSONMessageParser) Parse(body []byte) (*domain.RawEventMessage, error) {
	var msg domain.RawEventMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal message body: %w", err)
	}

	if msg.ProjectID == "" {
		return nil, fmt.Errorf("message is missing projectId")
	}
	if msg.Event == "" {
		return nil, fmt.Errorf("message is missing event type")
	}

	now := time.Now().Unix()
	if msg.Timestamp == 0 {
		msg.Timestamp = now
	}
	if msg.ReceivedAt == 0 {
		msg.ReceivedAt = now
	}

	return &msg, nil
}
