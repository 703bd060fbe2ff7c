package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/arkproject/ark-root-resolver/internal/cache"
	"github.com/arkproject/ark-root-resolver/internal/registry"
	"github.com/arkproject/ark-root-resolver/internal/resolver"
	"github.com/arkproject/ark-root-resolver/internal/sources"
	"github.com/arkproject/ark-root-resolver/internal/state"
	"github.com/arkproject/ark-root-resolver/internal/telemetry"
)

//go:generate mockgen -destination=mocks/mock_manager.go -package=mocks -source=manager.go Manager

// ErrNoUsableData indicates that a refresh could neither fetch the registry
// nor find any cached snapshot to fall back to.
var ErrNoUsableData = errors.New("no usable registry data")

// refreshKey coalesces concurrent refreshes into a single flight.
const refreshKey = "refresh"

// Manager drives refresh cycles that keep the published resolver state
// backed by sufficiently recent registry data.
type Manager interface {
	// EnsureFresh guarantees that resolver state is published and derived
	// from a snapshot no older than the configured maximum age, fetching
	// and persisting a new one when needed. With force set, the cache age
	// check is skipped and a fetch is always attempted. On fetch failure
	// the most recent cached snapshot is published regardless of age; the
	// call fails only when no usable data exists anywhere.
	EnsureFresh(ctx context.Context, force bool) error
}

// SnapshotStore is the slice of the snapshot cache the manager depends on.
// *cache.Store satisfies it.
type SnapshotStore interface {
	Latest() (*cache.SnapshotRef, error)
	Load(ref *cache.SnapshotRef) (*registry.Snapshot, error)
	Save(snap *registry.Snapshot) (*cache.SnapshotRef, error)
	Prune(keep int) error
}

// defaultManager is the production Manager implementation.
type defaultManager struct {
	store   SnapshotStore
	handler sources.RegistryHandler
	state   *state.Store
	maxAge  time.Duration
	keep    int

	group   singleflight.Group
	metrics *telemetry.RefreshMetrics
}

// Option configures the default manager.
type Option func(*defaultManager)

// WithRefreshMetrics instruments refresh cycles with the given metrics.
func WithRefreshMetrics(m *telemetry.RefreshMetrics) Option {
	return func(d *defaultManager) {
		d.metrics = m
	}
}

// NewDefaultManager creates a Manager that reads and writes snapshots
// through store, downloads the registry through handler, and publishes
// derived state to st. Snapshots younger than maxAge are served from the
// cache; keep bounds how many snapshot files are retained on disk.
func NewDefaultManager(store SnapshotStore, handler sources.RegistryHandler, st *state.Store, maxAge time.Duration, keep int, opts ...Option) Manager {
	m := &defaultManager{
		store:   store,
		handler: handler,
		state:   st,
		maxAge:  maxAge,
		keep:    keep,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// EnsureFresh implements Manager. Concurrent calls share a single refresh.
func (m *defaultManager) EnsureFresh(ctx context.Context, force bool) error {
	_, err, _ := m.group.Do(refreshKey, func() (any, error) {
		return nil, m.refresh(ctx, force)
	})
	return err
}

// refresh runs one full refresh cycle and publishes the outcome.
func (m *defaultManager) refresh(ctx context.Context, force bool) error {
	start := time.Now()

	stale := false
	source := "cache"
	snap := m.cachedFreshSnapshot(force)
	if snap == nil {
		fetched, fetchErr := m.fetchAndPersist(ctx)
		switch {
		case fetchErr == nil:
			snap = fetched
			source = "remote"
		default:
			slog.Error("Registry fetch failed, falling back to cached snapshot",
				"source", m.handler.Source(),
				"error", fetchErr)
			snap = m.anyCachedSnapshot()
			if snap == nil {
				m.metrics.RecordRefreshDuration(ctx, time.Since(start), false)
				return fmt.Errorf("%w: fetch failed: %v", ErrNoUsableData, fetchErr)
			}
			source = "stale-cache"
			stale = true
			m.metrics.RecordStaleFallback(ctx)
		}
	}

	resolverMap, report := resolver.BuildMap(snap.Records)
	if report.HasIssues() {
		slog.Warn("Registry snapshot contains anomalous records",
			"duplicate_prefixes", len(report.Duplicates),
			"skipped_empty", report.SkippedEmpty)
	}

	m.state.Publish(&state.Published{
		Snapshot:    snap,
		Map:         resolverMap,
		PublishedAt: time.Now(),
	})

	m.metrics.RecordRefreshDuration(ctx, time.Since(start), true)
	m.metrics.RecordPrefixesTotal(ctx, int64(resolverMap.Len()))

	slog.Info("Published resolver state",
		"prefixes", resolverMap.Len(),
		"records", len(snap.Records),
		"hash", snap.HashPreview(),
		"data_source", source,
		"stale", stale)
	return nil
}

// cachedFreshSnapshot returns the latest cached snapshot when it is younger
// than the maximum age, or nil when the cache cannot serve this refresh.
func (m *defaultManager) cachedFreshSnapshot(force bool) *registry.Snapshot {
	if force {
		return nil
	}
	ref, err := m.store.Latest()
	if err != nil {
		if !errors.Is(err, cache.ErrNoSnapshot) {
			slog.Warn("Failed to inspect snapshot cache", "error", err)
		}
		return nil
	}
	if !ref.Fresh(m.maxAge) {
		slog.Debug("Cached snapshot exceeds max age", "path", ref.Path)
		return nil
	}
	snap, err := m.store.Load(ref)
	if err != nil {
		// A corrupt cache file falls through to a fetch.
		slog.Warn("Failed to load cached snapshot", "path", ref.Path, "error", err)
		return nil
	}
	return snap
}

// fetchAndPersist downloads the registry and writes it to the snapshot
// store. The fetched snapshot is returned even when persisting fails; only
// the durable copy is lost in that case.
func (m *defaultManager) fetchAndPersist(ctx context.Context) (*registry.Snapshot, error) {
	snap, err := m.handler.FetchRegistry(ctx)
	if err != nil {
		return nil, err
	}

	ref, err := m.store.Save(snap)
	if err != nil {
		slog.Error("Failed to persist registry snapshot", "error", err)
		return snap, nil
	}
	slog.Debug("Persisted registry snapshot", "path", ref.Path, "hash", snap.HashPreview())

	if err := m.store.Prune(m.keep); err != nil {
		slog.Warn("Failed to prune old snapshots", "error", err)
	}
	return snap, nil
}

// anyCachedSnapshot returns the most recent cached snapshot regardless of
// age, or nil when none can be loaded.
func (m *defaultManager) anyCachedSnapshot() *registry.Snapshot {
	ref, err := m.store.Latest()
	if err != nil {
		if !errors.Is(err, cache.ErrNoSnapshot) {
			slog.Warn("Failed to inspect snapshot cache", "error", err)
		}
		return nil
	}
	snap, err := m.store.Load(ref)
	if err != nil {
		slog.Warn("Failed to load cached snapshot", "path", ref.Path, "error", err)
		return nil
	}
	return snap
}
