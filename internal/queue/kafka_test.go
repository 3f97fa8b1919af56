package queue

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/IBM/sarama"
)

// fakeSession implements sarama.ConsumerGroupSession, recording marks
type fakeSession struct {
	ctx          context.Context
	markedOffset []int64
}

func (s *fakeSession) Claims() map[string][]int32 { return nil }
func (s *fakeSession) MemberID() string           { return "test-member" }
func (s *fakeSession) GenerationID() int32        { return 1 }
func (s *fakeSession) MarkOffset(topic string, partition int32, offset int64, metadata string) {
}
func (s *fakeSession) Commit() {}
func (s *fakeSession) ResetOffset(topic string, partition int32, offset int64, metadata string) {
}
func (s *fakeSession) MarkMessage(msg *sarama.ConsumerMessage, metadata string) {
	s.markedOffset = append(s.markedOffset, msg.Offset)
}
func (s *fakeSession) Context() context.Context { return s.ctx }

// fakeGroupClaim implements sarama.ConsumerGroupClaim over a channel
type fakeGroupClaim struct {
	messages chan *sarama.ConsumerMessage
}

func (c *fakeGroupClaim) Topic() string                            { return "claims" }
func (c *fakeGroupClaim) Partition() int32                         { return 0 }
func (c *fakeGroupClaim) InitialOffset() int64                     { return 0 }
func (c *fakeGroupClaim) HighWaterMarkOffset() int64               { return 0 }
func (c *fakeGroupClaim) Messages() <-chan *sarama.ConsumerMessage { return c.messages }

type fakeHandler struct {
	handled []string
	failOn  map[string]error
}

func (h *fakeHandler) HandleClaim(ctx context.Context, msg Message) error {
	h.handled = append(h.handled, msg.ClaimID)
	return h.failOn[msg.ClaimID]
}

func testMessage(t *testing.T, claimID string, offset int64) *sarama.ConsumerMessage {
	t.Helper()
	data, err := encodeMessage(Message{ClaimID: claimID})
	if err != nil {
		t.Fatalf("encodeMessage: %v", err)
	}
	return &sarama.ConsumerMessage{Topic: "claims", Partition: 0, Offset: offset, Value: data}
}

func newTestGroupHandler(h Handler) *groupHandler {
	return &groupHandler{
		handler: h,
		logger:  slog.New(slog.NewTextHandler(discardWriter{}, nil)),
		ready:   make(chan struct{}),
	}
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

func TestConsumeClaimMarksHandledMessages(t *testing.T) {
	handler := &fakeHandler{}
	gh := newTestGroupHandler(handler)

	claim := &fakeGroupClaim{messages: make(chan *sarama.ConsumerMessage, 2)}
	claim.messages <- testMessage(t, "c1", 5)
	claim.messages <- testMessage(t, "c2", 6)
	close(claim.messages)

	session := &fakeSession{ctx: context.Background()}
	if err := gh.ConsumeClaim(session, claim); err != nil {
		t.Fatalf("ConsumeClaim: %v", err)
	}

	if len(handler.handled) != 2 {
		t.Fatalf("handled %v, want both claims", handler.handled)
	}
	if len(session.markedOffset) != 2 || session.markedOffset[0] != 5 || session.markedOffset[1] != 6 {
		t.Fatalf("marked offsets %v, want [5 6]", session.markedOffset)
	}
}

func TestConsumeClaimStopsAtHandlerFailure(t *testing.T) {
	// Kafka commits the highest marked offset, so marking any message past
	// a failed one would commit over it and the claim would never come
	// back. The session must end with the failed offset unmarked and no
	// later message touched.
	handlerErr := errors.New("store unavailable")
	handler := &fakeHandler{failOn: map[string]error{"c1": handlerErr}}
	gh := newTestGroupHandler(handler)

	claim := &fakeGroupClaim{messages: make(chan *sarama.ConsumerMessage, 2)}
	claim.messages <- testMessage(t, "c1", 5)
	claim.messages <- testMessage(t, "c2", 6)
	close(claim.messages)

	session := &fakeSession{ctx: context.Background()}
	err := gh.ConsumeClaim(session, claim)
	if !errors.Is(err, handlerErr) {
		t.Fatalf("ConsumeClaim error = %v, want wrapped handler error", err)
	}

	if len(session.markedOffset) != 0 {
		t.Fatalf("marked offsets %v, want none: a later mark would commit past the failure", session.markedOffset)
	}
	if len(handler.handled) != 1 || handler.handled[0] != "c1" {
		t.Fatalf("handled %v, want only the failed claim", handler.handled)
	}
}

func TestConsumeClaimDropsMalformedMessages(t *testing.T) {
	handler := &fakeHandler{}
	gh := newTestGroupHandler(handler)

	claim := &fakeGroupClaim{messages: make(chan *sarama.ConsumerMessage, 2)}
	claim.messages <- &sarama.ConsumerMessage{Topic: "claims", Offset: 3, Value: []byte("not json")}
	claim.messages <- testMessage(t, "c1", 4)
	close(claim.messages)

	session := &fakeSession{ctx: context.Background()}
	if err := gh.ConsumeClaim(session, claim); err != nil {
		t.Fatalf("ConsumeClaim: %v", err)
	}

	// Malformed messages are acknowledged so they never wedge the partition
	if len(session.markedOffset) != 2 || session.markedOffset[0] != 3 {
		t.Fatalf("marked offsets %v, want malformed offset 3 then 4", session.markedOffset)
	}
	if len(handler.handled) != 1 || handler.handled[0] != "c1" {
		t.Fatalf("handled %v, want only the valid claim", handler.handled)
	}
}
