package runtime

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"chat-room/domain"
	"chat-room/domain/event"

	"github.com/google/uuid"
)

// State of one live connection.
type State string

const (
	StateConnecting State = "CONNECTING"
	StateActive     State = "ACTIVE"
	StateClosing    State = "CLOSING"
	StateClosed     State = "CLOSED"
)

// exitKeyword closes the connection when received, case-insensitive.
const exitKeyword = "exit"

// Stream abstracts the bidirectional transport so the state machine is
// testable without a network. The gRPC handler adapts its stream to it.
type Stream interface {
	Recv() (domain.Inbound, error)
	Send(msg domain.ChatMessage) error
	Context() context.Context
}

// Dispatcher injects inbound events into the processing pipeline.
type Dispatcher interface {
	Dispatch(e event.DomainEvent)
}

// Lifecycle drives one connection from CONNECTING to CLOSED.
//
// While ACTIVE it runs two duties concurrently: the inbound relay
// timestamps messages and dispatches them into the pipeline, the
// outbound relay drains the session queue in FIFO order. Either a
// Recv error, the exit keyword, a Send error or context cancellation
// moves the connection to CLOSING; deregistration is idempotent so
// every path may run it.
type Lifecycle struct {
	log        *slog.Logger
	registry   *Registry
	presence   *Presence
	dispatcher Dispatcher
}

func NewLifecycle(log *slog.Logger, registry *Registry, presence *Presence, dispatcher Dispatcher) *Lifecycle {
	return &Lifecycle{log: log, registry: registry, presence: presence, dispatcher: dispatcher}
}

// Run blocks until the connection is CLOSED and returns the error that
// ended it, nil for a clean exit.
func (l *Lifecycle) Run(stream Stream, username string) error {
	state := StateConnecting
	l.logTransition(username, "", state)

	session, err := l.registry.Register(username)
	if err != nil {
		return fmt.Errorf("register %s: %w", username, err)
	}
	defer func() {
		l.registry.Deregister(session.ID)
		l.presence.MarkOffline(username)
		l.logTransition(username, StateClosing, StateClosed)
	}()

	state = l.transition(username, state, StateActive)

	errCh := make(chan error, 1)
	go l.inboundRelay(stream, session, errCh)

	defer l.transition(username, state, StateClosing)
	for {
		select {
		case <-stream.Context().Done():
			return stream.Context().Err()
		case err := <-errCh:
			if err == io.EOF {
				// Clean exit requested by the client.
				return nil
			}
			return err
		case msg, ok := <-session.Outbound():
			if !ok {
				return nil
			}
			if err := stream.Send(msg); err != nil {
				// A write failure closes this session only.
				return fmt.Errorf("send to %s: %w", username, err)
			}
		}
	}
}

// inboundRelay assigns the server timestamp at reception and dispatches
// into the pipeline. It owns errCh and sends exactly one error.
func (l *Lifecycle) inboundRelay(stream Stream, session *Session, errCh chan<- error) {
	for {
		in, err := stream.Recv()
		if err != nil {
			errCh <- err
			return
		}
		if strings.EqualFold(strings.TrimSpace(in.Content), exitKeyword) {
			errCh <- io.EOF
			return
		}
		l.dispatcher.Dispatch(event.MessageReceived{
			ID:       uuid.New(),
			Session:  session.ID,
			Username: session.Username,
			Content:  in.Content,
			At:       time.Now().UTC(),
		})
	}
}

func (l *Lifecycle) transition(username string, from, to State) State {
	l.logTransition(username, from, to)
	return to
}

func (l *Lifecycle) logTransition(username string, from, to State) {
	l.log.Debug("connection state", "username", username, "from", string(from), "to", string(to))
}
