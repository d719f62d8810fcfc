package sqs

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"go.uber.org/zap"

	"github.com/perkforge/loyalty-engine/internal/config"
	"github.com/perkforge/loyalty-engine/internal/domain"
)

// Client wraps the SQS client for the events.raw queue
type Client struct {
	client *sqs.Client
	config config.SQSConfig
	log    *zap.Logger
}

// NewClient creates a new SQS client
func NewClient(ctx context.Context, cfg config.SQSConfig, log *zap.Logger) (*Client, error) {
	configOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}

	var clientOpts []func(*sqs.Options)

	// Configure for local development with ElasticMQ
	if cfg.Endpoint != "" {
		log.Info("Configuring SQS for local development",
			zap.String("endpoint", cfg.Endpoint))
		configOpts = append(configOpts,
			awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider("dummy", "dummy", "")))

		clientOpts = append(clientOpts, func(o *sqs.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		})
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, configOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	log.Info("SQS client created",
		zap.String("region", cfg.Region),
		zap.String("queue_url", cfg.QueueURL))

	return &Client{
		client: sqs.NewFromConfig(awsCfg, clientOpts...),
		config: cfg,
		log:    log,
	}, nil
}

// ReceiveMessages receives messages from the queue
func (c *Client) ReceiveMessages(ctx context.Context, input *sqs.ReceiveMessageInput) (*sqs.ReceiveMessageOutput, error) {
	return c.client.ReceiveMessage(ctx, input)
}

// DeleteMessage deletes a message from the queue
func (c *Client) DeleteMessage(ctx context.Context, input *sqs.DeleteMessageInput) (*sqs.DeleteMessageOutput, error) {
	return c.client.DeleteMessage(ctx, input)
}

// QueueURL returns the configured queue URL
func (c *Client) QueueURL() string {
	return c.config.QueueURL
}

// PublishEvent publishes a raw event message, keyed by project id so that
// events for one tenant stay on one partition. The dedup id makes repeated
// publishes of the same logical event idempotent on FIFO queues.
func (c *Client) PublishEvent(ctx context.Context, msg *domain.RawEventMessage, dedupID string) error {
	bodyJSON, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal event message: %w", err)
	}

	input := &sqs.SendMessageInput{
		QueueUrl:    aws.String(c.config.QueueURL),
		MessageBody: aws.String(string(bodyJSON)),
	}
	if isFIFOQueue(c.config.QueueURL) {
		input.MessageGroupId = aws.String(msg.ProjectID)
		if dedupID != "" {
			input.MessageDeduplicationId = aws.String(dedupID)
		}
	}

	if _, err := c.client.SendMessage(ctx, input); err != nil {
		c.log.Error("Failed to send message to SQS",
			zap.String("project_id", msg.ProjectID),
			zap.String("event", msg.Event),
			zap.Error(err))
		return fmt.Errorf("failed to send message to SQS: %w", err)
	}

	c.log.Info("Event published to SQS",
		zap.String("project_id", msg.ProjectID),
		zap.String("event", msg.Event))

	return nil
}

func isFIFOQueue(queueURL string) bool {
	return len(queueURL) > 5 && queueURL[len(queueURL)-5:] == ".fifo"
}
