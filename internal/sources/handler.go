// Package sources provides interfaces and implementations for retrieving
// NAAN registry documents from their external origin.
//
// The package defines the RegistryHandler interface which abstracts
// fetching the registry document, and a single implementation that
// downloads it from an HTTP endpoint. Retry policy deliberately lives
// outside this package: a failed fetch is retried on the next scheduled
// refresh, never inside the fetch itself.
package sources

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/arkproject/ark-root-resolver/internal/httpclient"
	"github.com/arkproject/ark-root-resolver/internal/registry"
)

//go:generate mockgen -destination=mocks/mock_handler.go -package=mocks -source=handler.go RegistryHandler

// RegistryHandler is an interface with methods to fetch registry data from
// an external origin.
type RegistryHandler interface {
	// FetchRegistry retrieves the registry document and returns it as a
	// parsed snapshot.
	FetchRegistry(ctx context.Context) (*registry.Snapshot, error)

	// Source returns a descriptive string about where the registry data
	// comes from, for logging.
	Source() string
}

// RemoteHandler downloads the registry document from an HTTP endpoint.
type RemoteHandler struct {
	client httpclient.Client
	url    string

	now func() time.Time
}

// NewRemoteHandler creates a handler that fetches the registry document
// from the given URL. The URL must be absolute http or https.
func NewRemoteHandler(client httpclient.Client, rawURL string) (*RemoteHandler, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid registry URL %q: %w", rawURL, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("invalid registry URL %q: scheme must be http or https", rawURL)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("invalid registry URL %q: missing host", rawURL)
	}

	return &RemoteHandler{
		client: client,
		url:    rawURL,
		now:    time.Now,
	}, nil
}

// FetchRegistry performs one GET of the registry URL and parses the body.
// Transport failures, non-success statuses, and malformed documents all
// surface as errors; the caller decides whether to fall back to cached data.
func (h *RemoteHandler) FetchRegistry(ctx context.Context) (*registry.Snapshot, error) {
	body, err := h.client.Get(ctx, h.url)
	if err != nil {
		return nil, fmt.Errorf("failed to download registry: %w", err)
	}

	snap, err := registry.ParseSnapshot(body, h.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to parse registry response: %w", err)
	}
	return snap, nil
}

// Source returns the registry URL.
func (h *RemoteHandler) Source() string {
	return "remote:" + h.url
}
