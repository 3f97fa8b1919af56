package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/IBM/sarama"

	"github.com/pkarpov/verity/internal/model"
)

// KafkaPublisher publishes claim messages to Kafka. Messages are keyed by
// claim ID so redeliveries of the same claim land on the same partition.
type KafkaPublisher struct {
	producer sarama.SyncProducer
	topic    string
}

// NewKafkaPublisher connects a synchronous producer
func NewKafkaPublisher(cfg model.QueueConfig) (*KafkaPublisher, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Version = sarama.V3_6_0_0
	saramaConfig.Producer.RequiredAcks = sarama.WaitForAll
	saramaConfig.Producer.Retry.Max = 3
	saramaConfig.Producer.Return.Successes = true

	producer, err := sarama.NewSyncProducer(cfg.Brokers, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("connect kafka producer: %w", err)
	}

	return &KafkaPublisher{
		producer: producer,
		topic:    cfg.Topic,
	}, nil
}

// Publish enqueues one message
func (p *KafkaPublisher) Publish(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := encodeMessage(msg)
	if err != nil {
		return err
	}

	_, _, err = p.producer.SendMessage(&sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(msg.ClaimID),
		Value: sarama.ByteEncoder(data),
	})
	if err != nil {
		return fmt.Errorf("publish claim %s: %w", msg.ClaimID, err)
	}
	return nil
}

// Close flushes and releases the producer
func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}

// KafkaConsumer consumes claim messages in a consumer group. Offsets are
// committed only after the handler succeeds, so failed claims are
// redelivered.
type KafkaConsumer struct {
	group   sarama.ConsumerGroup
	handler Handler
	topic   string
	groupID string
	logger  *slog.Logger
	ready   chan struct{}
}

// NewKafkaConsumer creates a consumer group member
func NewKafkaConsumer(cfg model.QueueConfig, handler Handler, logger *slog.Logger) (*KafkaConsumer, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Version = sarama.V3_6_0_0
	saramaConfig.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategyRoundRobin()}
	saramaConfig.Consumer.Offsets.Initial = sarama.OffsetOldest
	saramaConfig.Consumer.Return.Errors = true

	group, err := sarama.NewConsumerGroup(cfg.Brokers, cfg.GroupID, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("connect kafka consumer group: %w", err)
	}

	return &KafkaConsumer{
		group:   group,
		handler: handler,
		topic:   cfg.Topic,
		groupID: cfg.GroupID,
		logger:  logger,
		ready:   make(chan struct{}),
	}, nil
}

// Start consumes until the context is cancelled. It blocks until the first
// session is established, then keeps consuming in the background.
func (c *KafkaConsumer) Start(ctx context.Context) error {
	sessionHandler := &groupHandler{
		handler: c.handler,
		logger:  c.logger,
		ready:   c.ready,
	}

	go func() {
		for {
			if err := c.group.Consume(ctx, []string{c.topic}, sessionHandler); err != nil {
				if errors.Is(err, context.Canceled) {
					return
				}
				c.logger.Error("consumer session failed", "error", err)
			}
			if ctx.Err() != nil {
				return
			}
			sessionHandler.ready = make(chan struct{})
		}
	}()

	select {
	case <-c.ready:
	case <-ctx.Done():
		return ctx.Err()
	}
	c.logger.Info("kafka consumer started", "group", c.groupID, "topic", c.topic)

	go func() {
		for err := range c.group.Errors() {
			c.logger.Error("kafka consumer error", "error", err)
		}
	}()

	return nil
}

// Close leaves the consumer group
func (c *KafkaConsumer) Close() error {
	return c.group.Close()
}

// groupHandler implements sarama.ConsumerGroupHandler
type groupHandler struct {
	handler Handler
	logger  *slog.Logger
	ready   chan struct{}
}

func (h *groupHandler) Setup(sarama.ConsumerGroupSession) error {
	close(h.ready)
	return nil
}

func (h *groupHandler) Cleanup(sarama.ConsumerGroupSession) error {
	return nil
}

// ConsumeClaim processes messages from one partition. Malformed messages
// are acknowledged and dropped. A handler failure ends the session with the
// failed offset uncommitted: marking any later message would commit past it
// and silently drop the claim, so the partition resumes from the failure on
// the next session instead.
func (h *groupHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case message := <-claim.Messages():
			if message == nil {
				return nil
			}

			msg, err := decodeMessage(message.Value)
			if err != nil {
				h.logger.Warn("dropping malformed message",
					"partition", message.Partition, "offset", message.Offset, "error", err)
				session.MarkMessage(message, "")
				continue
			}

			if err := h.handler.HandleClaim(session.Context(), msg); err != nil {
				h.logger.Error("claim processing failed, restarting session for redelivery",
					"claim_id", msg.ClaimID, "partition", message.Partition,
					"offset", message.Offset, "error", err)
				return fmt.Errorf("handle claim %s: %w", msg.ClaimID, err)
			}
			session.MarkMessage(message, "")

		case <-session.Context().Done():
			return nil
		}
	}
}
