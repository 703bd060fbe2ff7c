// Package sync keeps the published resolver state aligned with the NAAN
// registry.
//
// The package provides the Manager interface, which owns a single refresh
// cycle: decide whether the cached registry snapshot is still usable, fetch
// and persist a new one when it is not, derive the prefix map, and publish
// the result atomically through the state store.
//
// # Refresh Cycle
//
// A refresh walks three stages in order:
//
//  1. Cache check: unless forced, a cached snapshot younger than the
//     configured maximum age is loaded and used without any network
//     traffic. Unreadable or corrupt cache files are logged and treated
//     as absent.
//  2. Fetch: the registry document is downloaded through a
//     sources.RegistryHandler and written to the snapshot store. A failed
//     write is logged but does not discard the freshly fetched data.
//  3. Stale fallback: when the fetch fails, the most recent cached
//     snapshot is used regardless of its age. Only when no cached data
//     exists at all does the refresh fail, with an error wrapping
//     ErrNoUsableData.
//
// Whatever stage produced the snapshot, the cycle ends by building the
// resolver map and publishing it together with the snapshot. Readers never
// observe a partially updated state.
//
// # Concurrency
//
// Concurrent EnsureFresh calls are coalesced: callers arriving while a
// refresh is in flight wait for that refresh and share its result rather
// than starting their own. The in-flight refresh runs under the context of
// the caller that started it.
package sync
