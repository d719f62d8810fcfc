package consumer

import (
	"context"
	"hash/fnv"
	"sync"

	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"go.uber.org/zap"

	"github.com/perkforge/loyalty-engine/internal/config"
	"github.com/perkforge/loyalty-engine/internal/queue"
)

// Consumer orchestrates the worker pipeline: receive, parse, then dispatch
// on per-project shards. Events for one project always land on the same
// shard and are processed strictly in order; different projects proceed
// concurrently.
type Consumer struct {
	receiver   *Receiver
	parser     *ParserStage
	dispatcher *Dispatcher
	shards     int
	bufferSize int
	log        *zap.Logger
}

// NewConsumer creates a consumer with the pipeline wired from config.
func NewConsumer(cfg *config.Config, queueConsumer queue.Consumer, dispatcher *Dispatcher, log *zap.Logger) *Consumer {
	receiver := NewReceiver(queueConsumer, ReceiverConfig{
		MaxMessages:     10,
		WaitTimeSeconds: 20,
		BufferSize:      100,
	}, log)

	parser := NewParserStage(queueConsumer, NewJSONMessageParser(), log)

	shards := cfg.Worker.Shards
	if shards <= 0 {
		shards = 1
	}

	return &Consumer{
		receiver:   receiver,
		parser:     parser,
		dispatcher: dispatcher,
		shards:     shards,
		bufferSize: cfg.Worker.ShardBufferSize,
		log:        log,
	}
}

// Start runs the pipeline until the context is cancelled.
func (c *Consumer) Start(ctx context.Context) error {
	messageChan := make(chan types.Message, 100)
	envelopeChan := make(chan *Envelope, 100)

	shardChans := make([]chan *Envelope, c.shards)
	for i := range shardChans {
		shardChans[i] = make(chan *Envelope, c.bufferSize)
	}

	var wg sync.WaitGroup
	wg.Add(2 + 1 + c.shards)

	go func() {
		defer wg.Done()
		c.receiver.Start(ctx, messageChan)
	}()

	go func() {
		defer wg.Done()
		c.parser.Start(ctx, messageChan, envelopeChan)
	}()

	// Route envelopes to their project's shard.
	go func() {
		defer wg.Done()
		defer func() {
			for _, ch := range shardChans {
				close(ch)
			}
		}()
		for envelope := range envelopeChan {
			shard := ShardFor(envelope.Message.ProjectID, c.shards)
			select {
			case <-ctx.Done():
				return
			case shardChans[shard] <- envelope:
			}
		}
	}()

	for i := 0; i < c.shards; i++ {
		go func(shard int) {
			defer wg.Done()
			c.runShard(ctx, shard, shardChans[shard])
		}(i)
	}

	wg.Wait()
	return nil
}

// runShard processes one shard's envelopes sequentially.
func (c *Consumer) runShard(ctx context.Context, shard int, in <-chan *Envelope) {
	for envelope := range in {
		if err := c.dispatcher.Process(ctx, envelope.Message); err != nil {
			// The event never reached the store; leave the message for the
			// queue to redeliver.
			c.log.Error("Dispatch failed before persistence",
				zap.Int("shard", shard),
				zap.Error(err))
			if err := envelope.Nack(ctx); err != nil {
				c.log.Error("Failed to nack envelope", zap.Error(err))
			}
			continue
		}

		if err := envelope.Ack(ctx); err != nil {
			c.log.Error("Failed to ack envelope", zap.Error(err))
		}
	}
}

// ShardFor maps a project id to a shard index. The mapping is stable so one
// project's events always serialize through the same shard.
func ShardFor(projectID string, shards int) int {
	if shards <= 1 {
		return 0
	}
	h := fnv.New32a()
	h.Write([]byte(projectID))
	return int(h.Sum32() % uint32(shards))
}
