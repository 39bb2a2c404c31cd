package runtime

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSession_Enqueue_DropNewest(t *testing.T) {
	req := require.New(t)
	session := NewSession("alice", 2, DropNewest)

	// Given a full queue
	req.True(session.Enqueue(message("one")))
	req.True(session.Enqueue(message("two")))

	// When one more message is offered
	accepted := session.Enqueue(message("three"))

	// Then the newcomer is dropped and the queue order is intact
	req.False(accepted)
	req.Equal("one", (<-session.Outbound()).Content)
	req.Equal("two", (<-session.Outbound()).Content)
}

func TestSession_Enqueue_DropOldest(t *testing.T) {
	req := require.New(t)
	session := NewSession("alice", 2, DropOldest)

	// Given a full queue
	req.True(session.Enqueue(message("one")))
	req.True(session.Enqueue(message("two")))

	// When one more message is offered
	accepted := session.Enqueue(message("three"))

	// Then the head was evicted to make room
	req.True(accepted)
	req.Equal("two", (<-session.Outbound()).Content)
	req.Equal("three", (<-session.Outbound()).Content)
}

func TestSession_Enqueue_AfterCloseIsRefused(t *testing.T) {
	req := require.New(t)
	session := NewSession("alice", 2, DropOldest)
	session.Close()

	// When a late delivery reaches a closed session
	accepted := session.Enqueue(message("too late"))

	// Then it is refused, not a panic on the closed channel
	req.False(accepted)
}

func TestSession_Close_Twice(t *testing.T) {
	req := require.New(t)
	session := NewSession("alice", 2, DropNewest)

	// When Close is called twice
	session.Close()
	session.Close()

	// Then the queue is closed without panic
	_, open := <-session.Outbound()
	req.False(open)
}
