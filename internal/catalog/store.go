package catalog

import "sync/atomic"

// Store holds the one published snapshot. The scan pipeline is the
// single writer; query readers load the pointer and work against an
// immutable graph, so no reader ever observes a half-built catalog.
type Store struct {
	current atomic.Pointer[Snapshot]
}

func NewStore() *Store {
	store := &Store{}
	store.current.Store(EmptySnapshot())
	return store
}

func (s *Store) Current() *Snapshot {
	return s.current.Load()
}

func (s *Store) Publish(snapshot *Snapshot) {
	s.current.Store(snapshot)
}
