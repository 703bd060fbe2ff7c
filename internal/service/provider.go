package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/arkproject/ark-root-resolver/internal/resolver"
	"github.com/arkproject/ark-root-resolver/internal/state"
)

// stateResolverService implements ResolverService over the atomically
// published resolver state. Each operation loads the current state exactly
// once, so it works against a single snapshot/map pair even while a refresh
// publishes a new one.
type stateResolverService struct {
	state *state.Store
}

// NewResolverService creates a ResolverService that serves from the given
// state store.
func NewResolverService(st *state.Store) ResolverService {
	return &stateResolverService{state: st}
}

// CheckReadiness implements ResolverService.CheckReadiness.
func (s *stateResolverService) CheckReadiness(_ context.Context) error {
	if s.state.Current() == nil {
		return ErrNotReady
	}
	return nil
}

// RegistryDocument implements ResolverService.RegistryDocument.
func (s *stateResolverService) RegistryDocument(_ context.Context) (json.RawMessage, time.Time, error) {
	pub := s.state.Current()
	if pub == nil {
		return nil, time.Time{}, ErrNotReady
	}
	return pub.Snapshot.Document, pub.Snapshot.CapturedAt, nil
}

// ResolverMap implements ResolverService.ResolverMap.
func (s *stateResolverService) ResolverMap(_ context.Context) (*resolver.Map, error) {
	pub := s.state.Current()
	if pub == nil {
		return nil, ErrNotReady
	}
	return pub.Map, nil
}

// Resolve implements ResolverService.Resolve.
func (s *stateResolverService) Resolve(_ context.Context, identifier string) (*resolver.Redirect, error) {
	pub := s.state.Current()
	if pub == nil {
		return nil, ErrNotReady
	}
	return resolver.ResolveRedirect(identifier, pub.Map)
}
