package sink

import (
	"context"
	"fmt"
	"log/slog"

	"chat-room/domain/event"
	"chat-room/repositories"
)

// IndexSink feeds the Bluge full-text index with sanitized messages.
type IndexSink struct {
	repository repositories.ISearchRepository
	log        *slog.Logger
}

func NewIndexSink(repository repositories.ISearchRepository, log *slog.Logger) IndexSink {
	return IndexSink{repository: repository, log: log}
}

func (s IndexSink) Consume(_ context.Context, e event.DomainEvent) error {
	switch evt := e.(type) {
	case event.SanitizedMessage:
		return s.repository.Index(toChatMessage(evt))
	default:
		s.log.Debug(fmt.Sprintf("Not implemented event : %v", evt))
		return nil
	}
}
