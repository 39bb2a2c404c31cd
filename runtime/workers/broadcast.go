package workers

import (
	"context"
	"log/slog"

	"chat-room/contract"
	"chat-room/domain/event"
)

// BroadcastWorker drains sanitized events and hands them to the
// fan-out engine. Telemetry forwarding is best-effort: losing a
// telemetry event never delays a broadcast.
type BroadcastWorker struct {
	log           *slog.Logger
	broadcaster   contract.IBroadcaster
	domainEvents  chan event.DomainEvent
	telemetryChan chan event.Event
}

func NewBroadcastWorker(log *slog.Logger, broadcaster contract.IBroadcaster,
	domainEvents chan event.DomainEvent, telemetryChan chan event.Event) *BroadcastWorker {
	return &BroadcastWorker{
		log:           log,
		broadcaster:   broadcaster,
		domainEvents:  domainEvents,
		telemetryChan: telemetryChan,
	}
}

func (w BroadcastWorker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping broadcast worker")
			return nil
		case evt, ok := <-w.domainEvents:
			if !ok {
				w.log.Debug("Channel is closed")
				return nil
			}
			w.broadcaster.Publish(ctx, evt)
			select {
			case w.telemetryChan <- event.New(event.MessageBroadcastType, evt):
			default:
				w.log.Debug("Observability telemetry event lost")
			}
		}
	}
}
