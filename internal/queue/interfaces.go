package queue

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"github.com/perkforge/loyalty-engine/internal/domain"
)

// Publisher publishes raw event messages onto the events.raw topic. The
// project id is used as the message group so one partition stays ordered.
type Publisher interface {
	PublishEvent(ctx context.Context, msg *domain.RawEventMessage, dedupID string) error
}

// Consumer receives and deletes messages from the events.raw queue.
type Consumer interface {
	ReceiveMessages(ctx context.Context, input *sqs.ReceiveMessageInput) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, input *sqs.DeleteMessageInput) (*sqs.DeleteMessageOutput, error)
	QueueURL() string
}
