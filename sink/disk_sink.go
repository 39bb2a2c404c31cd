package sink

import (
	"context"
	"fmt"
	"log/slog"

	"chat-room/domain"
	"chat-room/domain/event"
	"chat-room/repositories"
)

// DiskSink archives every sanitized message in the Badger repository.
type DiskSink struct {
	repository repositories.IMessageRepository
	log        *slog.Logger
}

func NewDiskSink(repository repositories.IMessageRepository, log *slog.Logger) DiskSink {
	return DiskSink{repository: repository, log: log}
}

func (d DiskSink) Consume(_ context.Context, e event.DomainEvent) error {
	switch evt := e.(type) {
	case event.SanitizedMessage:
		return d.repository.StoreMessage(toChatMessage(evt))
	default:
		d.log.Debug(fmt.Sprintf("Not implemented event : %v", evt))
		return nil
	}
}

func toChatMessage(event event.SanitizedMessage) domain.ChatMessage {
	return domain.ChatMessage{
		ID:       event.ID,
		Username: event.Username,
		Content:  event.Content,
		SentAt:   event.At,
	}
}
