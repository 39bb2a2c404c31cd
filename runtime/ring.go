package runtime

import (
	"chat-room/domain"
	"sync"
)

const DefaultRingCapacity = 50

// MessageRing keeps the last N messages of the room for replay.
// Append evicts the oldest entry once the capacity is reached.
// The lock is never held across I/O.
type MessageRing struct {
	mu       sync.Mutex
	capacity int
	buf      []domain.ChatMessage
	start    int
	size     int
}

func NewMessageRing(capacity int) *MessageRing {
	if capacity <= 0 {
		capacity = DefaultRingCapacity
	}
	return &MessageRing{
		capacity: capacity,
		buf:      make([]domain.ChatMessage, capacity),
	}
}

func (r *MessageRing) Append(msg domain.ChatMessage) {
	r.mu.Lock()
	defer r.mu.Unlock()
	idx := (r.start + r.size) % r.capacity
	r.buf[idx] = msg
	if r.size < r.capacity {
		r.size++
		return
	}
	// Full: the slot we just wrote was the oldest one.
	r.start = (r.start + 1) % r.capacity
}

// Snapshot returns the retained messages oldest first,
// a point-in-time copy detached from the ring.
func (r *MessageRing) Snapshot() []domain.ChatMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	res := make([]domain.ChatMessage, r.size)
	for i := 0; i < r.size; i++ {
		res[i] = r.buf[(r.start+i)%r.capacity]
	}
	return res
}

func (r *MessageRing) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.size
}
