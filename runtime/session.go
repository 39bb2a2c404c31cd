package runtime

import (
	"sync"

	"chat-room/domain"

	"github.com/google/uuid"
)

// DropPolicy decides which message loses when a session queue is full.
type DropPolicy int

const (
	// DropNewest discards the incoming message, preserving FIFO order
	// of what is already queued.
	DropNewest DropPolicy = iota
	// DropOldest evicts the head of the queue to make room.
	DropOldest
)

// Session is one live bidirectional connection. It owns its outbound
// queue; the registry is the only producer of new sessions and the
// lifecycle manager the only consumer of the queue.
//
// Enqueue and Close share a mutex: a broadcaster holding a registry
// snapshot may race a deregistration, and a send on a closed channel
// panics even inside a non-blocking select. Once closed, the session
// simply refuses messages.
type Session struct {
	ID       uuid.UUID
	Username string

	policy   DropPolicy
	mu       sync.Mutex
	closed   bool
	outbound chan domain.ChatMessage
}

func NewSession(username string, queueSize int, policy DropPolicy) *Session {
	return &Session{
		ID:       uuid.New(),
		Username: username,
		policy:   policy,
		outbound: make(chan domain.ChatMessage, queueSize),
	}
}

// Enqueue offers a message to the session without ever blocking the
// caller. A full queue triggers the drop policy; the caller learns
// about the drop (false) but the sender of the message never does.
// A closed session refuses every message.
func (s *Session) Enqueue(msg domain.ChatMessage) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}

	select {
	case s.outbound <- msg:
		return true
	default:
	}

	if s.policy == DropNewest {
		return false
	}

	// DropOldest: evict the head, then retry once. The consumer may
	// drain concurrently, losing the retry is acceptable.
	select {
	case <-s.outbound:
	default:
	}
	select {
	case s.outbound <- msg:
		return true
	default:
		return false
	}
}

// Outbound exposes the queue for the single consumer draining it.
func (s *Session) Outbound() <-chan domain.ChatMessage {
	return s.outbound
}

// Close closes the outbound queue exactly once and marks the session
// so late enqueues are refused instead of panicking.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.outbound)
}
