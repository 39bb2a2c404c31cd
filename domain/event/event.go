package event

import (
	"time"

	"github.com/google/uuid"
)

// DomainEvent is anything the fan-out engine can publish.
// SessionID identifies the sender's session so the engine can
// exclude it from delivery.
type DomainEvent interface {
	SessionID() uuid.UUID
}

// MessageReceived is the raw inbound form, before moderation.
type MessageReceived struct {
	ID       uuid.UUID
	Session  uuid.UUID
	Username string
	Content  string
	At       time.Time
}

func (m MessageReceived) SessionID() uuid.UUID {
	return m.Session
}

// SanitizedMessage is a MessageReceived after censorship.
type SanitizedMessage struct {
	ID       uuid.UUID
	Session  uuid.UUID
	Username string
	Content  string
	At       time.Time
}

func (m SanitizedMessage) SessionID() uuid.UUID {
	return m.Session
}
