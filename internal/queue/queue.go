package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pkarpov/verity/internal/model"
)

// Message is the work item published at intake and consumed by workers.
// Delivery is at-least-once; consumers must tolerate duplicates.
type Message struct {
	ClaimID     string         `json:"claim_id"`
	Priority    model.Priority `json:"priority"`
	SubmittedAt time.Time      `json:"submitted_at"`
}

// Publisher enqueues claims for background processing
type Publisher interface {
	// Publish enqueues one message. Failure is recoverable: intake falls
	// back to inline processing when the queue is down.
	Publish(ctx context.Context, msg Message) error

	// Close flushes and releases the producer
	Close() error
}

// Handler processes a consumed message. A nil return acknowledges the
// message; an error leaves it unacknowledged for redelivery.
type Handler interface {
	HandleClaim(ctx context.Context, msg Message) error
}

// encodeMessage serializes a message for the wire
func encodeMessage(msg Message) ([]byte, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("encode queue message: %w", err)
	}
	return data, nil
}

// decodeMessage parses a wire message
func decodeMessage(data []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return Message{}, fmt.Errorf("decode queue message: %w", err)
	}
	if msg.ClaimID == "" {
		return Message{}, fmt.Errorf("queue message missing claim_id")
	}
	return msg, nil
}
