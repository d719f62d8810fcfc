package consumer

import (
	"context"

	"github.com/perkforge/loyalty-engine/internal/domain"
)

// Envelope wraps a raw event message with acknowledgment callbacks
type Envelope struct {
	Message *domain.RawEventMessage
	ack     func(context.Context) error
	nack    func(context.Context) error
}

// NewEnvelope creates a new message envelope
func NewEnvelope(msg *domain.RawEventMessage, ack, nack func(context.Context) error) *Envelope {
	return &Envelope{
		Message: msg,
		ack:     ack,
		nack:    nack,
	}
}

// Ack acknowledges successful processing
func (e *Envelope) Ack(ctx context.Context) error {
	if e.ack != nil {
		return e.ack(ctx)
	}
	return nil
}

// Nack negatively acknowledges processing
func (e *Envelope) Nack(ctx context.Context) error {
	if e.nack != nil {
		return e.nack(ctx)
	}
	return nil
}
