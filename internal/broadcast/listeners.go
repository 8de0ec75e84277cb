// Package broadcast fans target indices out to connected listeners.
package broadcast

import "sync"

// Listener is one connected receiver.
type Listener interface {
	// Send delivers one encoded event. It must not block indefinitely.
	Send(b byte) error
	Close() error
	Kind() string
	RemoteAddr() string
}

// ListenerSet is a concurrency-safe set of listeners. Iteration goes
// through Snapshot so sends never run while the set is locked.
type ListenerSet struct {
	mu sync.Mutex
	m  map[Listener]struct{}
}

func NewListenerSet() *ListenerSet {
	return &ListenerSet{m: make(map[Listener]struct{})}
}

func (s *ListenerSet) Add(l Listener) {
	s.mu.Lock()
	s.m[l] = struct{}{}
	s.mu.Unlock()
}

// Remove deletes l and reports whether it was present.
func (s *ListenerSet) Remove(l Listener) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.m[l]; !ok {
		return false
	}
	delete(s.m, l)
	return true
}

func (s *ListenerSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.m)
}

// Snapshot returns the current members.
func (s *ListenerSet) Snapshot() []Listener {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Listener, 0, len(s.m))
	for l := range s.m {
		out = append(out, l)
	}
	return out
}
