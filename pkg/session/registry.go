package session

import (
	"sync"

	"github.com/fleetwire/gt06-gateway/pkg/eventlog"
)

// Registry maps device identifiers to their live session. At most one
// session per identifier exists at any instant; re-login replaces the
// prior entry without forcibly closing the old socket, which drops
// naturally when its peer disconnects (spec §3).
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	log      *eventlog.Logger
}

// NewRegistry builds an empty registry.
func NewRegistry(log *eventlog.Logger) *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		log:      log,
	}
}

// bind installs s as the live session for identifier, replacing whatever
// session previously held it.
func (r *Registry) bind(identifier string, s *Session) {
	r.mu.Lock()
	r.sessions[identifier] = s
	r.mu.Unlock()
}

// remove deletes identifier's entry, but only if s is still the owner —
// removal is idempotent and never evicts a newer session that replaced s
// via re-login.
func (r *Registry) remove(identifier string, s *Session) {
	r.mu.Lock()
	if cur, ok := r.sessions[identifier]; ok && cur == s {
		delete(r.sessions, identifier)
	}
	r.mu.Unlock()
}

// Get looks up the live session for identifier.
func (r *Registry) Get(identifier string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[identifier]
	return s, ok
}

// List returns a snapshot of every online session.
func (r *Registry) List() []Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Snapshot, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s.Snapshot())
	}
	return out
}

// Count returns the number of online sessions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// SendCommand looks up identifier and, if online, encodes and queues text
// as an outbound command frame. It returns false without side effects if
// the device is not connected (spec §4.6/§7).
func (r *Registry) SendCommand(identifier, text string) bool {
	s, ok := r.Get(identifier)
	if !ok {
		return false
	}
	s.sendCommand(text)
	return true
}
