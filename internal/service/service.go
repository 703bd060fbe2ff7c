// Package service provides the business logic for the resolver API.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/arkproject/ark-root-resolver/internal/resolver"
)

// ErrNotReady is returned while no resolver state has been published yet,
// before the first successful refresh completes.
var ErrNotReady = errors.New("resolver state not ready")

//go:generate mockgen -destination=mocks/mock_service.go -package=mocks -source=service.go ResolverService

// ResolverService defines the read operations the resolver API serves. All
// operations observe one consistent published state: a refresh concluding
// mid-request never mixes old and new data within a single call.
type ResolverService interface {
	// CheckReadiness reports whether resolver state is available to serve.
	CheckReadiness(ctx context.Context) error

	// RegistryDocument returns the raw registry document of the currently
	// published snapshot and the time it was captured.
	RegistryDocument(ctx context.Context) (json.RawMessage, time.Time, error)

	// ResolverMap returns the currently published prefix lookup table.
	ResolverMap(ctx context.Context) (*resolver.Map, error)

	// Resolve maps an ARK identifier (the part after "ark:") to its
	// redirect. Returns resolver.ErrNoMatch when no registered prefix
	// matches.
	Resolve(ctx context.Context, identifier string) (*resolver.Redirect, error)
}
