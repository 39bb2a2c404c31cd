package workers

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"chat-room/domain/event"
	"chat-room/moderation"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestModerationWorker_SanitizesAndReportsHits(t *testing.T) {
	req := require.New(t)
	moderator, err := moderation.NewModerator([]string{"badger"}, '*')
	req.NoError(err)

	rawEvents := make(chan event.DomainEvent, 10)
	domainEvents := make(chan event.DomainEvent, 10)
	telemetry := make(chan event.Event, 10)
	worker := NewModerationWorker(moderator, rawEvents, domainEvents, telemetry, slog.Default())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = worker.Run(ctx) }()

	// When a raw message with a forbidden word goes through
	received := event.MessageReceived{
		ID:       uuid.New(),
		Session:  uuid.New(),
		Username: "alice",
		Content:  "the badger is loose",
		At:       time.Now().UTC(),
	}
	rawEvents <- received

	// Then the sanitized event keeps identity and timestamp
	select {
	case e := <-domainEvents:
		sanitized, ok := e.(event.SanitizedMessage)
		req.True(ok)
		req.Equal(received.ID, sanitized.ID)
		req.Equal(received.Session, sanitized.Session)
		req.Equal("the ****** is loose", sanitized.Content)
		req.Equal(received.At, sanitized.At)
	case <-time.After(time.Second):
		req.Fail("no sanitized event received")
	}

	// Then the hit was reported on telemetry
	evt := <-telemetry
	req.Equal(event.CensorshipHit, evt.Type)
	payload, ok := evt.Payload.(event.Censored)
	req.True(ok)
	req.Equal("badger", payload.Word)
}

func TestModerationWorker_CleanMessagePassesUntouched(t *testing.T) {
	req := require.New(t)
	moderator, err := moderation.NewModerator([]string{"badger"}, '*')
	req.NoError(err)

	rawEvents := make(chan event.DomainEvent, 10)
	domainEvents := make(chan event.DomainEvent, 10)
	telemetry := make(chan event.Event, 10)
	worker := NewModerationWorker(moderator, rawEvents, domainEvents, telemetry, slog.Default())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = worker.Run(ctx) }()

	rawEvents <- event.MessageReceived{
		ID:       uuid.New(),
		Session:  uuid.New(),
		Username: "alice",
		Content:  "hello there",
		At:       time.Now().UTC(),
	}

	select {
	case e := <-domainEvents:
		sanitized, ok := e.(event.SanitizedMessage)
		req.True(ok)
		req.Equal("hello there", sanitized.Content)
	case <-time.After(time.Second):
		req.Fail("no sanitized event received")
	}
	req.Empty(telemetry)
}
