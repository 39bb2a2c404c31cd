package runtime

import (
	"context"
	"log/slog"
	"time"

	"chat-room/contract"
	"chat-room/domain"
	"chat-room/domain/event"
)

// Broadcaster is the fan-out engine of the room.
//
// Publish is best-effort towards sessions: enqueueing never blocks and
// one slow consumer cannot stall the room. Permanent sinks (archive,
// index) run after session delivery under a per-sink timeout; their
// failures are logged, never propagated.
type Broadcaster struct {
	log            *slog.Logger
	ring           *MessageRing
	registry       *Registry
	permanentSinks []contract.EventSink
	telemetryChan  chan event.Event
	sinkTimeout    time.Duration
}

func NewBroadcaster(log *slog.Logger, ring *MessageRing, registry *Registry,
	telemetryChan chan event.Event, sinkTimeout time.Duration) *Broadcaster {
	return &Broadcaster{
		log:           log,
		ring:          ring,
		registry:      registry,
		telemetryChan: telemetryChan,
		sinkTimeout:   sinkTimeout,
	}
}

// Add appends permanent sinks consuming every published event.
func (b *Broadcaster) Add(sinks ...contract.EventSink) {
	b.permanentSinks = append(b.permanentSinks, sinks...)
}

// Publish appends the message to the ring, snapshots the registry and
// enqueues to every session except the sender's. Zero recipients is a
// valid room state.
func (b *Broadcaster) Publish(ctx context.Context, e event.DomainEvent) {
	msg, ok := toChatMessage(e)
	if !ok {
		return
	}

	b.ring.Append(msg)

	sender := e.SessionID()
	for _, s := range b.registry.Snapshot() {
		if s.ID == sender {
			continue
		}
		if !s.Enqueue(msg) {
			b.reportDrop(s)
		}
	}

	b.consumeSinks(ctx, e)
}

func (b *Broadcaster) reportDrop(s *Session) {
	b.log.Warn("outbound queue full, dropping delivery",
		"session_id", s.ID, "username", s.Username)
	select {
	case b.telemetryChan <- event.New(event.DeliveryDroppedType, event.DeliveryDropped{
		SessionID: s.ID.String(),
		Username:  s.Username,
	}):
	default:
		b.log.Debug("Observability telemetry event lost")
	}
}

func (b *Broadcaster) consumeSinks(ctx context.Context, e event.DomainEvent) {
	for _, sink := range b.permanentSinks {
		sinkCtx, cancel := context.WithTimeout(ctx, b.sinkTimeout)
		if err := sink.Consume(sinkCtx, e); err != nil {
			b.log.Error("sink consume failed", "err", err)
		}
		cancel()
	}
}

func toChatMessage(e event.DomainEvent) (domain.ChatMessage, bool) {
	switch evt := e.(type) {
	case event.SanitizedMessage:
		return domain.ChatMessage{
			ID:       evt.ID,
			Username: evt.Username,
			Content:  evt.Content,
			SentAt:   evt.At,
		}, true
	case event.MessageReceived:
		return domain.ChatMessage{
			ID:       evt.ID,
			Username: evt.Username,
			Content:  evt.Content,
			SentAt:   evt.At,
		}, true
	default:
		return domain.ChatMessage{}, false
	}
}
