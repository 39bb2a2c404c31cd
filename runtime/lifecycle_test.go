package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"chat-room/domain"
	"chat-room/domain/event"
	"chat-room/errors"

	"github.com/stretchr/testify/require"
)

// fakeStream scripts the client side of a connection.
type fakeStream struct {
	ctx     context.Context
	inbound chan domain.Inbound

	mu      sync.Mutex
	sent    []domain.ChatMessage
	sendErr error
}

func newFakeStream() *fakeStream {
	return &fakeStream{
		ctx:     context.Background(),
		inbound: make(chan domain.Inbound, 10),
	}
}

func (f *fakeStream) Recv() (domain.Inbound, error) {
	in, ok := <-f.inbound
	if !ok {
		return domain.Inbound{}, fmt.Errorf("stream closed")
	}
	return in, nil
}

func (f *fakeStream) Send(msg domain.ChatMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeStream) Context() context.Context { return f.ctx }

func (f *fakeStream) Sent() []domain.ChatMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.ChatMessage{}, f.sent...)
}

type fakeDispatcher struct {
	mu     sync.Mutex
	events []event.DomainEvent
}

func (d *fakeDispatcher) Dispatch(e event.DomainEvent) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, e)
}

func (d *fakeDispatcher) Events() []event.DomainEvent {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]event.DomainEvent{}, d.events...)
}

func runLifecycle(l *Lifecycle, stream Stream, username string) chan error {
	done := make(chan error, 1)
	go func() {
		done <- l.Run(stream, username)
	}()
	return done
}

func waitFor(t *testing.T, done chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("lifecycle did not finish in time")
		return nil
	}
}

func TestLifecycle_ExitClosesCleanly(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(0, 10, DropNewest)
	presence := NewPresence()
	presence.MarkOnline("alice")
	lifecycle := NewLifecycle(slog.Default(), registry, presence, &fakeDispatcher{})

	stream := newFakeStream()
	done := runLifecycle(lifecycle, stream, "alice")

	// When the client types the exit keyword, case-insensitive
	stream.inbound <- domain.Inbound{Username: "alice", Content: "EXIT"}

	// Then the connection closes cleanly with no final echo
	req.NoError(waitFor(t, done))
	req.Empty(stream.Sent())
	req.Zero(registry.Len())
	req.False(presence.IsOnline("alice"))
}

func TestLifecycle_DispatchesTimestampedEvents(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(0, 10, DropNewest)
	dispatcher := &fakeDispatcher{}
	lifecycle := NewLifecycle(slog.Default(), registry, NewPresence(), dispatcher)

	stream := newFakeStream()
	done := runLifecycle(lifecycle, stream, "alice")

	// When the client sends a message before exiting
	stream.inbound <- domain.Inbound{Username: "alice", Content: "hello"}
	stream.inbound <- domain.Inbound{Username: "alice", Content: "exit"}
	req.NoError(waitFor(t, done))

	// Then the pipeline received one timestamped event
	events := dispatcher.Events()
	req.Len(events, 1)
	received, ok := events[0].(event.MessageReceived)
	req.True(ok)
	req.Equal("alice", received.Username)
	req.Equal("hello", received.Content)
	req.False(received.At.IsZero())
}

func TestLifecycle_DrainsOutboundInOrder(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(0, 10, DropNewest)
	lifecycle := NewLifecycle(slog.Default(), registry, NewPresence(), &fakeDispatcher{})

	stream := newFakeStream()
	done := runLifecycle(lifecycle, stream, "alice")

	// Given the registered session of this connection
	var session *Session
	req.Eventually(func() bool {
		snapshot := registry.Snapshot()
		if len(snapshot) != 1 {
			return false
		}
		session = snapshot[0]
		return true
	}, time.Second, 10*time.Millisecond)

	// When two messages are enqueued for it
	req.True(session.Enqueue(message("first")))
	req.True(session.Enqueue(message("second")))

	// Then they reach the stream in FIFO order
	req.Eventually(func() bool { return len(stream.Sent()) == 2 }, time.Second, 10*time.Millisecond)
	sent := stream.Sent()
	req.Equal("first", sent[0].Content)
	req.Equal("second", sent[1].Content)

	stream.inbound <- domain.Inbound{Username: "alice", Content: "exit"}
	req.NoError(waitFor(t, done))
}

func TestLifecycle_WriteErrorClosesOnlyThatSession(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(0, 10, DropNewest)
	lifecycle := NewLifecycle(slog.Default(), registry, NewPresence(), &fakeDispatcher{})

	// Given a healthy bystander session
	bystander, err := registry.Register("bob")
	req.NoError(err)

	stream := newFakeStream()
	stream.sendErr = fmt.Errorf("broken pipe")
	done := runLifecycle(lifecycle, stream, "alice")

	var session *Session
	req.Eventually(func() bool {
		for _, s := range registry.Snapshot() {
			if s.Username == "alice" {
				session = s
				return true
			}
		}
		return false
	}, time.Second, 10*time.Millisecond)

	// When a delivery to the failing stream is attempted
	req.True(session.Enqueue(message("doomed")))

	// Then only the failing session is closed
	err = waitFor(t, done)
	req.Error(err)
	req.Equal(1, registry.Len())
	req.Equal(bystander.ID, registry.Snapshot()[0].ID)
}

func TestLifecycle_RegistryFull(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(1, 10, DropNewest)
	_, err := registry.Register("bob")
	req.NoError(err)

	lifecycle := NewLifecycle(slog.Default(), registry, NewPresence(), &fakeDispatcher{})

	// When a connection cannot register
	err = lifecycle.Run(newFakeStream(), "alice")

	// Then it fails fast with the registry error
	req.ErrorIs(err, errors.ErrRegistryFull)
}
