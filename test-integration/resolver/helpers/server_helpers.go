package helpers

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/onsi/gomega"

	resolverapp "github.com/arkproject/ark-root-resolver/internal/app"
	"github.com/arkproject/ark-root-resolver/internal/config"
)

// ServerTestHelper manages the resolver server lifecycle for testing
type ServerTestHelper struct {
	ctx        context.Context
	configPath string
	baseURL    string
	httpClient *http.Client
	app        *resolverapp.ResolverApp
	port       int
}

// NewServerTestHelper creates a new server test helper. Its HTTP client
// does not follow redirects, so tests can assert on Location headers.
func NewServerTestHelper(ctx context.Context, configPath string, port int) *ServerTestHelper {
	return &ServerTestHelper{
		ctx:        ctx,
		configPath: configPath,
		baseURL:    fmt.Sprintf("http://127.0.0.1:%d", port),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		port: port,
	}
}

// GetFreePort returns a TCP port that was free at the time of the call
func GetFreePort() int {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	gomega.Expect(err).NotTo(gomega.HaveOccurred())
	defer listener.Close()
	return listener.Addr().(*net.TCPAddr).Port
}

// buildApp loads the configuration file and assembles the resolver app
func (s *ServerTestHelper) buildApp() (*resolverapp.ResolverApp, error) {
	cfg, err := config.LoadConfig(config.WithConfigPath(s.configPath))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	app, err := resolverapp.NewResolverApp(s.ctx,
		resolverapp.WithConfig(cfg),
		resolverapp.WithAddress(fmt.Sprintf("127.0.0.1:%d", s.port)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build app: %w", err)
	}
	return app, nil
}

// StartServer builds and starts the resolver server in the background.
// Readiness is awaited separately with WaitForServerReady.
func (s *ServerTestHelper) StartServer() error {
	app, err := s.buildApp()
	if err != nil {
		return err
	}
	s.app = app

	// Start the server in a goroutine (non-blocking)
	go func() {
		if err := app.Start(); err != nil {
			// The test fails when it cannot connect; surface the cause here
			fmt.Fprintf(os.Stderr, "Server start failed: %v\n", err)
		}
	}()

	return nil
}

// RunServerExpectingStartupFailure builds the app and runs Start
// synchronously, returning its error. Used for scenarios where startup
// must fail, such as an unreachable registry with an empty cache.
func (s *ServerTestHelper) RunServerExpectingStartupFailure() error {
	app, err := s.buildApp()
	if err != nil {
		return err
	}
	s.app = app
	return app.Start()
}

// StopServer gracefully stops the resolver server
func (s *ServerTestHelper) StopServer() error {
	if s.app != nil {
		return s.app.Stop(5 * time.Second)
	}
	return nil
}

// WaitForServerReady waits for the server to report readiness
func (s *ServerTestHelper) WaitForServerReady(timeout time.Duration) {
	gomega.Eventually(func() error {
		resp, err := s.httpClient.Get(s.baseURL + "/readiness")
		if err != nil {
			return err
		}
		defer func() {
			_ = resp.Body.Close()
		}()
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("server returned status %d", resp.StatusCode)
		}
		return nil
	}, timeout, 100*time.Millisecond).Should(gomega.Succeed(), "Server should be ready")
}

// Resolve makes a GET request for the given ark: identifier without
// following the redirect. The identifier is appended verbatim, so callers
// pass "12345/suffix" or "/12345/suffix" to cover both URL forms.
func (s *ServerTestHelper) Resolve(identifier string) (*http.Response, error) {
	return s.httpClient.Get(s.baseURL + "/ark:" + identifier)
}

// GetRegistryCache makes a GET request to /naan_registry_cache
func (s *ServerTestHelper) GetRegistryCache() (*http.Response, error) {
	return s.httpClient.Get(s.baseURL + "/naan_registry_cache")
}

// GetResolverMap makes a GET request to /ark_root_resolver_map
func (s *ServerTestHelper) GetResolverMap() (*http.Response, error) {
	return s.httpClient.Get(s.baseURL + "/ark_root_resolver_map")
}

// GetHealth makes a GET request to /health
func (s *ServerTestHelper) GetHealth() (*http.Response, error) {
	return s.httpClient.Get(s.baseURL + "/health")
}
