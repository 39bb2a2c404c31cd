package runtime

import (
	"testing"

	"chat-room/errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Register_AllocatesFreshSessions(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(0, 10, DropNewest)

	// Given an empty registry
	req.Zero(registry.Len())

	// When two users register
	s1, err := registry.Register("alice")
	req.NoError(err)
	s2, err := registry.Register("bob")
	req.NoError(err)

	// Then each session has a distinct ID and the registry holds both
	req.NotEqual(s1.ID, s2.ID)
	req.Equal(2, registry.Len())
	req.Len(registry.Snapshot(), 2)
}

func TestRegistry_Register_FullRegistry(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(1, 10, DropNewest)

	// Given a registry with a ceiling of one session
	_, err := registry.Register("alice")
	req.NoError(err)

	// When a second user registers
	_, err = registry.Register("bob")

	// Then the registration is refused
	req.ErrorIs(err, errors.ErrRegistryFull)
	req.Equal(1, registry.Len())
}

func TestRegistry_Deregister_Idempotent(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(0, 10, DropNewest)
	session, err := registry.Register("alice")
	req.NoError(err)

	// When the session is deregistered twice
	registry.Deregister(session.ID)
	registry.Deregister(session.ID)

	// Then the registry is empty and the queue is closed exactly once
	req.Zero(registry.Len())
	_, open := <-session.Outbound()
	req.False(open)
}

func TestRegistry_Deregister_UnknownID(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(0, 10, DropNewest)
	_, err := registry.Register("alice")
	req.NoError(err)

	// When an unknown ID is deregistered
	registry.Deregister(uuid.New())

	// Then nothing happens
	req.Equal(1, registry.Len())
}

func TestRegistry_Snapshot_DetachedCopy(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(0, 10, DropNewest)
	session, err := registry.Register("alice")
	req.NoError(err)

	// Given a snapshot taken before a deregistration
	snapshot := registry.Snapshot()

	// When the session goes away
	registry.Deregister(session.ID)

	// Then the snapshot still holds the old view
	req.Len(snapshot, 1)
	req.Zero(registry.Len())
}

func TestRegistry_Snapshot_EnqueueAfterDeregister(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(0, 10, DropNewest)
	_, err := registry.Register("alice")
	req.NoError(err)

	// Given a snapshot taken before the session goes away
	snapshot := registry.Snapshot()
	req.Len(snapshot, 1)
	registry.Deregister(snapshot[0].ID)

	// When a delivery still targets the snapshotted session
	accepted := snapshot[0].Enqueue(message("stale delivery"))

	// Then the closed session refuses it instead of panicking
	req.False(accepted)
}
