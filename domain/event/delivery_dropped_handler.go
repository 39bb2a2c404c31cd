package event

import (
	"chat-room/errors"
	"fmt"
	"log/slog"
	"sync"
)

// DeliveryDroppedHandler counts deliveries refused by a full recipient queue.
// The drop is invisible to the sender, so this counter is the only trace.
type DeliveryDroppedHandler struct {
	log     *slog.Logger
	mu      sync.Mutex
	counter *Counter
	bySess  map[string]uint64
}

func NewDeliveryDroppedHandler(log *slog.Logger, counter *Counter) *DeliveryDroppedHandler {
	return &DeliveryDroppedHandler{
		log:     log,
		counter: counter,
		bySess:  make(map[string]uint64),
	}
}

func (h *DeliveryDroppedHandler) Handle(event Event) {
	switch event.Type {
	case DeliveryDroppedType:
		payload, ok := event.Payload.(DeliveryDropped)
		if !ok {
			h.log.Error(errors.ErrInvalidPayload.Error())
			return
		}
		h.mu.Lock()
		defer h.mu.Unlock()
		h.counter.Increment(DeliveryDroppedType)
		h.bySess[payload.SessionID]++
		h.log.Warn(fmt.Sprintf("Delivery dropped for %s (session %s), total: %d",
			payload.Username, payload.SessionID, h.counter.Get(DeliveryDroppedType)))
	}
}
