package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/arkproject/ark-root-resolver/internal/resolver"
	"github.com/arkproject/ark-root-resolver/internal/service"
	"github.com/arkproject/ark-root-resolver/pkg/versions"
)

const (
	// registryCachePath serves the raw cached NAAN registry document.
	registryCachePath = "/naan_registry_cache"

	// resolverMapPath serves the derived prefix-to-target lookup table.
	resolverMapPath = "/ark_root_resolver_map"

	// identifierPathPrefix is the literal lead-in of every resolution
	// request path; everything after it is the ARK identifier.
	identifierPathPrefix = "/ark:"
)

// resolvePatterns are the route patterns that reach the resolution handler.
// ARK identifiers appear both with and without a slash after "ark:", and
// with or without a sub-NAAN remainder, so all four spellings route to the
// same handler.
var resolvePatterns = []string{
	"/ark:{naan}",
	"/ark:{naan}/*",
	"/ark:/{naan}",
	"/ark:/{naan}/*",
}

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// Routes defines the routes for the resolver API with dependency injection
type Routes struct {
	service service.ResolverService
}

// NewRoutes creates a new Routes instance with the provided service
func NewRoutes(svc service.ResolverService) *Routes {
	return &Routes{
		service: svc,
	}
}

// getRegistryCache handles GET /naan_registry_cache. It returns the raw
// registry document of the current snapshot, byte for byte as retrieved
// from the upstream registry.
func (rr *Routes) getRegistryCache(w http.ResponseWriter, r *http.Request) {
	doc, capturedAt, err := rr.service.RegistryDocument(r.Context())
	if err != nil {
		if errors.Is(err, service.ErrNotReady) {
			rr.writeErrorResponse(w, "Registry data not loaded yet", http.StatusServiceUnavailable)
			return
		}
		slog.Error("Failed to get registry document", "error", err)
		rr.writeErrorResponse(w, "Failed to get registry document", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if !capturedAt.IsZero() {
		w.Header().Set("Last-Modified", capturedAt.UTC().Format(http.TimeFormat))
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc)
}

// getResolverMap handles GET /ark_root_resolver_map. It returns the derived
// lookup table as a JSON object keyed by registered prefix.
func (rr *Routes) getResolverMap(w http.ResponseWriter, r *http.Request) {
	m, err := rr.service.ResolverMap(r.Context())
	if err != nil {
		if errors.Is(err, service.ErrNotReady) {
			rr.writeErrorResponse(w, "Registry data not loaded yet", http.StatusServiceUnavailable)
			return
		}
		slog.Error("Failed to get resolver map", "error", err)
		rr.writeErrorResponse(w, "Failed to get resolver map", http.StatusInternalServerError)
		return
	}

	rr.writeJSONResponse(w, m)
}

// resolveIdentifier handles GET /ark:... requests. The identifier is taken
// from the request path rather than a route parameter so that slashes inside
// the identifier survive intact.
func (rr *Routes) resolveIdentifier(w http.ResponseWriter, r *http.Request) {
	identifier := strings.TrimPrefix(r.URL.Path, identifierPathPrefix)

	redirect, err := rr.service.Resolve(r.Context(), identifier)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotReady):
			rr.writeErrorResponse(w, "Registry data not loaded yet", http.StatusServiceUnavailable)
		case errors.Is(err, resolver.ErrNoMatch):
			rr.writeErrorResponse(w, fmt.Sprintf("No registered NAAN prefix matches %q", identifier), http.StatusNotFound)
		default:
			slog.Error("Failed to resolve identifier", "identifier", identifier, "error", err)
			rr.writeErrorResponse(w, "Failed to resolve identifier", http.StatusInternalServerError)
		}
		return
	}

	slog.Debug("Resolved identifier",
		"identifier", identifier,
		"prefix", redirect.Prefix,
		"status", redirect.StatusCode)

	http.Redirect(w, r, redirect.URL, redirect.StatusCode)
}

// HealthRouter creates a router for health check endpoints
func HealthRouter(svc service.ResolverService) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", healthHandler)
	r.Get("/readiness", readinessHandler(svc))
	r.Get("/version", versionHandler)

	return r
}

// healthHandler handles health check requests
func healthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"healthy"}`))
}

// readinessHandler handles readiness check requests. The resolver is ready
// once the first refresh has published state.
func readinessHandler(svc service.ResolverService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.CheckReadiness(r.Context()); err != nil {
			errorResp := ErrorResponse{
				Error: "Resolver not ready: " + err.Error(),
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			if encodeErr := json.NewEncoder(w).Encode(errorResp); encodeErr != nil {
				slog.Error("Failed to encode readiness error response", "error", encodeErr)
			}
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ready"}`))
	}
}

// versionHandler handles version information requests
func versionHandler(w http.ResponseWriter, _ *http.Request) {
	info := versions.GetVersionInfo()

	response := map[string]string{
		"version":    info.Version,
		"commit":     info.Commit,
		"build_date": info.BuildDate,
		"go_version": info.GoVersion,
		"platform":   info.Platform,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		slog.Error("Failed to encode version info", "error", err)
	}
}

// writeJSONResponse writes a JSON response with the given data
func (*Routes) writeJSONResponse(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Failed to encode JSON response", "error", err)
	}
}

// writeErrorResponse writes a standardized error response
func (*Routes) writeErrorResponse(w http.ResponseWriter, message string, statusCode int) {
	errorResp := ErrorResponse{
		Error: message,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(errorResp); err != nil {
		slog.Error("Failed to encode error response", "error", err)
	}
}
