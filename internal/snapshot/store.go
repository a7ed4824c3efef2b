// Package snapshot holds the single current opportunity snapshot and serves
// filtered, sorted, paginated read views against it.
package snapshot

import (
	"sync/atomic"
	"time"

	"github.com/predictarb/predictarb/internal/domain"
)

// Store holds exactly one current immutable snapshot behind an atomic
// pointer. Publish is a single pointer swap, so readers always observe either
// the fully-previous or fully-current snapshot and never block on a
// concurrent recompute.
type Store struct {
	current atomic.Pointer[domain.Snapshot]
}

// NewStore creates a Store primed with an empty snapshot so readers always
// have something consistent to serve before the first cycle completes.
func NewStore() *Store {
	s := &Store{}
	s.current.Store(&domain.Snapshot{ComputedAt: time.Now().UTC()})
	return s
}

// Publish atomically replaces the current snapshot.
func (s *Store) Publish(snap domain.Snapshot) {
	s.current.Store(&snap)
}

// Current returns the snapshot at this instant. The returned value is
// immutable; callers must not modify it.
func (s *Store) Current() domain.Snapshot {
	return *s.current.Load()
}
