package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/perkforge/loyalty-engine/internal/domain"
	"github.com/perkforge/loyalty-engine/internal/dto"
	"github.com/perkforge/loyalty-engine/internal/queue"
)

// IngestService validates tracking events and publishes them onto the bus.
type IngestService struct {
	publisher queue.Publisher
	log       *zap.Logger
}

// NewIngestService creates a new ingest service
func NewIngestService(publisher queue.Publisher, log *zap.Logger) *IngestService {
	return &IngestService{
		publisher: publisher,
		log:       log,
	}
}

// computeEventID generates a deterministic id from the fields that identify
// an event, so retried submissions deduplicate on the queue. A client-supplied
// idempotency key takes precedence; otherwise the hash covers the full payload
// including properties, so distinct same-second events never collide.
func computeEventID(req *dto.TrackEventRequest) string {
	if req.IdempotencyKey != "" {
		hash := sha256.Sum256([]byte(req.ProjectID + "|" + req.IdempotencyKey))
		return hex.EncodeToString(hash[:])
	}

	properties := ""
	if len(req.Properties) > 0 {
		// json.Marshal sorts map keys, so equal property sets encode equally.
		if encoded, err := json.Marshal(req.Properties); err == nil {
			properties = string(encoded)
		}
	}

	data := fmt.Sprintf("%s|%s|%s|%d|%s",
		req.ProjectID,
		req.UserID,
		req.Event,
		req.Timestamp,
		properties,
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}

// TrackEvent publishes a single event and returns its deterministic id.
// Future timestamps are rejected; a missing timestamp defaults to now.
func (s *IngestService) TrackEvent(ctx context.Context, req *dto.TrackEventRequest) (string, error) {
	now := time.Now().Unix()
	if req.Timestamp == 0 {
		req.Timestamp = now
	}
	if req.Timestamp > now+1 {
		s.log.Warn("Rejected future timestamp",
			zap.Int64("event_timestamp", req.Timestamp),
			zap.Int64("current_time", now),
			zap.String("event", req.Event))
		return "", fmt.Errorf("timestamp cannot be in the future: %d > %d", req.Timestamp, now)
	}

	eventID := computeEventID(req)

	msg := &domain.RawEventMessage{
		ProjectID:  req.ProjectID,
		UserID:     req.UserID,
		Event:      req.Event,
		Properties: req.Properties,
		Timestamp:  req.Timestamp,
		ReceivedAt: now,
	}

	if err := s.publisher.PublishEvent(ctx, msg, eventID); err != nil {
		return "", fmt.Errorf("failed to publish event to queue: %w", err)
	}

	return eventID, nil
}
