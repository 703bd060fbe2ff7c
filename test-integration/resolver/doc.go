// Package integration provides integration tests for the ARK root resolver
// server. These tests validate the complete server lifecycle: downloading
// the NAAN registry, caching it on disk, deriving the resolver map, and
// redirecting identifier requests.
package integration
