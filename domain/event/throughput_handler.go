package event

import (
	"chat-room/errors"
	"log/slog"
	"sync"
)

// ThroughputHandler counts broadcast messages.
// It is triggered each time the fan-out engine publishes an event.
// Useful for updating observability metrics, logging, or telemetry.
type ThroughputHandler struct {
	log     *slog.Logger
	mu      sync.Mutex
	counter *Counter
}

func NewThroughputHandler(log *slog.Logger, counter *Counter) *ThroughputHandler {
	return &ThroughputHandler{log: log, counter: counter}
}

func (h *ThroughputHandler) Handle(event Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	switch event.Type {
	case MessageBroadcastType:
		if _, ok := event.Payload.(SanitizedMessage); !ok {
			h.log.Error(errors.ErrInvalidPayload.Error())
		}
		h.counter.Increment(MessageBroadcastType)
	}
}
