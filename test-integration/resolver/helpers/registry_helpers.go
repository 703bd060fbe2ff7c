// Package helpers provides utilities for resolver integration tests: a
// controllable fake upstream registry, document builders, and a server
// lifecycle helper.
package helpers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"

	"github.com/onsi/gomega"
)

// NaanEntry describes one registry record used to build test documents.
type NaanEntry struct {
	What     string
	URL      string
	HTTPCode int
}

// DefaultTestEntries returns records covering the prefix shapes the
// resolver has to handle: a plain NAAN, a shoulder extending it, and a
// target without the ${content} placeholder or an explicit status code.
func DefaultTestEntries() []NaanEntry {
	return []NaanEntry{
		{What: "12345", URL: "https://ids.example.org/${content}", HTTPCode: 302},
		{What: "12345/x9", URL: "https://shoulder.example.org/${content}", HTTPCode: 301},
		{What: "99999", URL: "https://legacy.example.org/"},
	}
}

// BuildRegistryDoc renders entries as an upstream NAAN registry document.
func BuildRegistryDoc(entries []NaanEntry) []byte {
	records := make([]map[string]any, 0, len(entries))
	for _, e := range entries {
		records = append(records, map[string]any{
			"what": e.What,
			"target": map[string]any{
				"url":       e.URL,
				"http_code": e.HTTPCode,
			},
		})
	}
	doc, err := json.Marshal(map[string]any{"data": records})
	gomega.Expect(err).NotTo(gomega.HaveOccurred())
	return doc
}

// UpstreamRegistry is a fake NAAN registry endpoint. The served document
// can be swapped and the endpoint can be made to fail, letting tests drive
// refresh and fallback behavior.
type UpstreamRegistry struct {
	mu       sync.Mutex
	document []byte
	failing  bool
	requests int

	server *httptest.Server
}

// NewUpstreamRegistry starts a fake registry serving the given document.
func NewUpstreamRegistry(document []byte) *UpstreamRegistry {
	u := &UpstreamRegistry{document: document}
	u.server = httptest.NewServer(http.HandlerFunc(u.handle))
	return u
}

func (u *UpstreamRegistry) handle(w http.ResponseWriter, _ *http.Request) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.requests++
	if u.failing {
		http.Error(w, "registry unavailable", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(u.document)
}

// URL returns the registry document URL.
func (u *UpstreamRegistry) URL() string {
	return u.server.URL + "/naan_records.json"
}

// SetDocument replaces the served document.
func (u *UpstreamRegistry) SetDocument(document []byte) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.document = document
}

// SetFailing makes the registry return 503 for every request.
func (u *UpstreamRegistry) SetFailing(failing bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.failing = failing
}

// Requests returns how many requests the registry has received.
func (u *UpstreamRegistry) Requests() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.requests
}

// Close shuts the fake registry down.
func (u *UpstreamRegistry) Close() {
	u.server.Close()
}

// WriteConfigYAML writes a resolver configuration file pointing at the
// given registry URL and cache directory, returning its path.
func WriteConfigYAML(dir, registryURL, cacheDir string, refreshIntervalSeconds int) string {
	content := fmt.Sprintf(`registry:
  url: %q
  refreshIntervalSeconds: %d
  fetchTimeout: "5s"
cache:
  dir: %q
`, registryURL, refreshIntervalSeconds, cacheDir)

	path := filepath.Join(dir, "config.yaml")
	err := os.WriteFile(path, []byte(content), 0o600)
	gomega.Expect(err).NotTo(gomega.HaveOccurred())
	return path
}
