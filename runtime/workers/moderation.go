package workers

import (
	"context"
	"log/slog"

	"chat-room/domain/event"
	"chat-room/moderation"

	"github.com/abadojack/whatlanggo"
)

// ModerationWorker censors raw inbound messages before they reach the
// fan-out engine. Censorship hits are reported on the telemetry channel.
type ModerationWorker struct {
	moderator     moderation.Moderator
	rawEvents     chan event.DomainEvent
	domainEvents  chan event.DomainEvent
	telemetryChan chan event.Event
	log           *slog.Logger
}

func NewModerationWorker(moderator moderation.Moderator,
	rawEvents, domainEvents chan event.DomainEvent,
	telemetryChan chan event.Event, log *slog.Logger) *ModerationWorker {
	return &ModerationWorker{
		moderator:     moderator,
		rawEvents:     rawEvents,
		domainEvents:  domainEvents,
		telemetryChan: telemetryChan,
		log:           log,
	}
}

func (w ModerationWorker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Stopping worker")
			return ctx.Err()
		case e, ok := <-w.rawEvents:
			if !ok {
				w.log.Debug("Channel is closed")
				return nil
			}
			switch evt := e.(type) {
			case event.MessageReceived:
				select {
				case <-ctx.Done():
					w.log.Debug("Stopping worker")
					return ctx.Err()
				case w.domainEvents <- w.toSanitizedEvent(evt):
				}
			}
		}
	}
}

func (w ModerationWorker) toSanitizedEvent(evt event.MessageReceived) event.SanitizedMessage {
	info := whatlanggo.Detect(evt.Content)
	langCode := info.Lang.Iso6391()

	sanitized, foundWords := w.moderator.Censor(evt.Content)
	if len(foundWords) > 0 {
		w.log.Debug("Censorship applied",
			"lang", langCode,
			"username", evt.Username,
			"hits", len(foundWords))
		w.reportHits(foundWords)
	}

	return event.SanitizedMessage{
		ID:       evt.ID,
		Session:  evt.Session,
		Username: evt.Username,
		Content:  sanitized,
		At:       evt.At,
	}
}

func (w ModerationWorker) reportHits(words []string) {
	for _, word := range words {
		select {
		case w.telemetryChan <- event.New(event.CensorshipHit, event.Censored{Word: word}):
		default:
			w.log.Debug("Observability telemetry event lost")
		}
	}
}
