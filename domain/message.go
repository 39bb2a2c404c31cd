// Package domain contains core concepts of the chat room.
// Messages are immutable once timestamped by the server.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// ChatMessage represents one chat line as seen by every consumer
// (ring, fan-out, archive, index).
type ChatMessage struct {
	ID       uuid.UUID // unique identifier
	Username string
	Content  string
	SentAt   time.Time // server reception time
}

// Inbound is a client submission before the server stamps it.
type Inbound struct {
	Username string
	Content  string
}
