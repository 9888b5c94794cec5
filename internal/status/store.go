// internal/status/store.go
package status

import "sync/atomic"

// Store holds the current Status.
// One writer (the poller) and any number of readers. Each Set publishes a new
// immutable snapshot, so Get never observes fields from two different updates.
type Store struct {
	cur atomic.Pointer[Status]
}

// NewStore returns a store holding Initial().
func NewStore() *Store {
	s := &Store{}
	s.Set(Initial())
	return s
}

// Set publishes st.
func (s *Store) Set(st Status) {
	snap := st
	s.cur.Store(&snap)
}

// Get returns the latest published status.
func (s *Store) Get() Status {
	return *s.cur.Load()
}
