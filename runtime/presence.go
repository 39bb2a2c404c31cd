package runtime

import "sync"

type Set map[string]struct{}

// Presence tracks which usernames are currently online.
// It is advisory: losing an entry never corrupts the room,
// so MarkOffline is best-effort on disconnect.
type Presence struct {
	mu     sync.RWMutex
	online Set
}

func NewPresence() *Presence {
	return &Presence{online: make(Set)}
}

// MarkOnline is idempotent, a second login attempt for the same
// username is the caller's decision to reject.
func (p *Presence) MarkOnline(username string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.online[username] = struct{}{}
}

func (p *Presence) MarkOffline(username string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.online, username)
}

func (p *Presence) IsOnline(username string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.online[username]
	return ok
}

// Online returns a point-in-time copy of the online usernames.
func (p *Presence) Online() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	res := make([]string, 0, len(p.online))
	for u := range p.online {
		res = append(res, u)
	}
	return res
}
