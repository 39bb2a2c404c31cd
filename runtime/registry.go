package runtime

import (
	"sync"

	"chat-room/errors"

	"github.com/google/uuid"
)

// Registry holds every live session of the room, keyed by session ID.
// IDs are random and never reused, so a stale deregistration cannot
// remove a newer session.
type Registry struct {
	mu          sync.RWMutex
	sessions    map[uuid.UUID]*Session
	maxSessions int
	queueSize   int
	policy      DropPolicy
}

// NewRegistry creates a registry. maxSessions 0 means unlimited.
func NewRegistry(maxSessions, queueSize int, policy DropPolicy) *Registry {
	return &Registry{
		sessions:    make(map[uuid.UUID]*Session),
		maxSessions: maxSessions,
		queueSize:   queueSize,
		policy:      policy,
	}
}

// Register allocates a session with a fresh ID and a buffered outbound
// queue. It fails with ErrRegistryFull once the ceiling is reached.
func (r *Registry) Register(username string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.maxSessions > 0 && len(r.sessions) >= r.maxSessions {
		return nil, errors.ErrRegistryFull
	}
	s := NewSession(username, r.queueSize, r.policy)
	r.sessions[s.ID] = s
	return s, nil
}

// Deregister removes a session and closes its queue. Deregistering an
// absent ID is a no-op, so disconnect paths may call it twice.
func (r *Registry) Deregister(id uuid.UUID) {
	r.mu.Lock()
	s, ok := r.sessions[id]
	if ok {
		delete(r.sessions, id)
	}
	r.mu.Unlock()

	if ok {
		s.Close()
	}
}

// Snapshot copies the current session list. Delivery work happens on
// the copy, never under the registry lock.
func (r *Registry) Snapshot() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		res = append(res, s)
	}
	return res
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
