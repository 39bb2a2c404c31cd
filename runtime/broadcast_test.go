package runtime

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"chat-room/domain/event"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	mu     sync.Mutex
	events []event.DomainEvent
	err    error
}

func (s *recordingSink) Consume(_ context.Context, e event.DomainEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return s.err
}

func (s *recordingSink) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

func sanitized(session uuid.UUID, content string) event.SanitizedMessage {
	return event.SanitizedMessage{
		ID:       uuid.New(),
		Session:  session,
		Username: "sender",
		Content:  content,
		At:       time.Now().UTC(),
	}
}

func newTestBroadcaster(registry *Registry, ring *MessageRing, telemetry chan event.Event) *Broadcaster {
	return NewBroadcaster(slog.Default(), ring, registry, telemetry, time.Second)
}

func TestBroadcaster_SelfExclusion(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(0, 10, DropNewest)
	sender, err := registry.Register("alice")
	req.NoError(err)
	recipient, err := registry.Register("bob")
	req.NoError(err)

	broadcaster := newTestBroadcaster(registry, NewMessageRing(10), make(chan event.Event, 10))

	// When the sender's event is published
	broadcaster.Publish(context.Background(), sanitized(sender.ID, "hello"))

	// Then only the other session received it
	req.Len(recipient.Outbound(), 1)
	req.Empty(sender.Outbound())
}

func TestBroadcaster_FanoutCompleteness(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(0, 10, DropNewest)
	a, _ := registry.Register("a")
	b, _ := registry.Register("b")
	c, _ := registry.Register("c")

	broadcaster := newTestBroadcaster(registry, NewMessageRing(10), make(chan event.Event, 10))

	// When A publishes while A, B and C are registered
	broadcaster.Publish(context.Background(), sanitized(a.ID, "hello"))

	// Then exactly B and C received it
	req.Len(b.Outbound(), 1)
	req.Len(c.Outbound(), 1)
	req.Empty(a.Outbound())
}

func TestBroadcaster_EmptyRoom(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(0, 10, DropNewest)
	ring := NewMessageRing(10)
	broadcaster := newTestBroadcaster(registry, ring, make(chan event.Event, 10))

	// When publishing with zero recipients
	broadcaster.Publish(context.Background(), sanitized(uuid.New(), "into the void"))

	// Then the ring still recorded the message
	req.Equal(1, ring.Len())
}

func TestBroadcaster_PerRecipientOrder(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(0, 10, DropNewest)
	sender, _ := registry.Register("alice")
	recipient, _ := registry.Register("bob")

	broadcaster := newTestBroadcaster(registry, NewMessageRing(10), make(chan event.Event, 10))

	// When the sender publishes twice
	broadcaster.Publish(context.Background(), sanitized(sender.ID, "first"))
	broadcaster.Publish(context.Background(), sanitized(sender.ID, "second"))

	// Then the recipient sees them in publish order
	req.Equal("first", (<-recipient.Outbound()).Content)
	req.Equal("second", (<-recipient.Outbound()).Content)
}

func TestBroadcaster_PermanentSinks(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(0, 10, DropNewest)
	broadcaster := newTestBroadcaster(registry, NewMessageRing(10), make(chan event.Event, 10))

	disk := &recordingSink{}
	index := &recordingSink{}
	broadcaster.Add(disk, index)

	// When an event is published
	broadcaster.Publish(context.Background(), sanitized(uuid.New(), "hello"))

	// Then every permanent sink consumed it once
	req.Equal(1, disk.Count())
	req.Equal(1, index.Count())
}

func TestBroadcaster_PublishDuringRegistryChurn(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(0, 1, DropOldest)
	ring := NewMessageRing(10)
	broadcaster := newTestBroadcaster(registry, ring, make(chan event.Event, 1024))

	// Given sessions constantly registering and deregistering
	const rounds = 500
	churnDone := make(chan struct{})
	go func() {
		defer close(churnDone)
		for i := 0; i < rounds; i++ {
			s, err := registry.Register("churn")
			if err != nil {
				return
			}
			registry.Deregister(s.ID)
		}
	}()

	// When publishing concurrently with the churn
	for i := 0; i < rounds; i++ {
		broadcaster.Publish(context.Background(), sanitized(uuid.New(), "hello"))
	}
	<-churnDone

	// Then every publish survived a possibly stale snapshot
	req.Equal(10, ring.Len())
}

func TestBroadcaster_FullQueueReportsDrop(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(0, 1, DropNewest)
	sender, _ := registry.Register("alice")
	recipient, _ := registry.Register("bob")
	telemetry := make(chan event.Event, 10)

	broadcaster := newTestBroadcaster(registry, NewMessageRing(10), telemetry)

	// When more messages than the queue size are published
	broadcaster.Publish(context.Background(), sanitized(sender.ID, "first"))
	broadcaster.Publish(context.Background(), sanitized(sender.ID, "second"))

	// Then the overflow was dropped silently and reported on telemetry
	req.Len(recipient.Outbound(), 1)
	evt := <-telemetry
	req.Equal(event.DeliveryDroppedType, evt.Type)
	payload, ok := evt.Payload.(event.DeliveryDropped)
	req.True(ok)
	req.Equal("bob", payload.Username)
}
