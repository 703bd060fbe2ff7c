// Package state holds the resolver state the HTTP handlers read: the
// current registry snapshot and the prefix map derived from it.
package state

import (
	"sync/atomic"
	"time"

	"github.com/arkproject/ark-root-resolver/internal/registry"
	"github.com/arkproject/ark-root-resolver/internal/resolver"
)

// Published is one immutable publication. A refresh builds a complete
// Published value and swaps it in; nothing mutates one in place, so a
// reader that loaded it keeps a consistent snapshot/map pair for as long
// as it holds the pointer.
type Published struct {
	// Snapshot is the registry snapshot this publication was built from.
	Snapshot *registry.Snapshot

	// Map is the prefix lookup table derived from Snapshot.
	Map *resolver.Map

	// PublishedAt is when the swap happened.
	PublishedAt time.Time
}

// Store is the single shared cell between the refresh path and the request
// path. Readers load the current publication lock-free; the refresh path
// replaces it wholesale.
type Store struct {
	current atomic.Pointer[Published]
}

// NewStore creates an empty store. Current returns nil until the first
// Publish.
func NewStore() *Store {
	return &Store{}
}

// Publish replaces the current publication.
func (s *Store) Publish(p *Published) {
	s.current.Store(p)
}

// Current returns the latest publication, or nil before the first Publish.
func (s *Store) Current() *Published {
	return s.current.Load()
}
