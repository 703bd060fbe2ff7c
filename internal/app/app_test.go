package app

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	mocksvc "github.com/arkproject/ark-root-resolver/internal/service/mocks"
	"github.com/arkproject/ark-root-resolver/internal/sync/coordinator"
	syncmocks "github.com/arkproject/ark-root-resolver/internal/sync/mocks"
)

// mockCoordinator implements the coordinator.Coordinator interface for testing
type mockCoordinator struct {
	mu          sync.Mutex
	startCalled bool
	stopCalled  bool
	startErr    error
	stopErr     error
}

func (m *mockCoordinator) Start(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.startCalled = true
	return m.startErr
}

func (m *mockCoordinator) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopCalled = true
	return m.stopErr
}

func (m *mockCoordinator) wasStartCalled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.startCalled
}

func (m *mockCoordinator) wasStopCalled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stopCalled
}

// createTestApp creates a ResolverApp with mocked refresh components for
// testing. The sync manager always reports a successful refresh so Start
// proceeds to serving
func createTestApp(t *testing.T, ctrl *gomock.Controller, addr string) *ResolverApp {
	t.Helper()

	mockSvc := mocksvc.NewMockResolverService(ctrl)
	mockManager := syncmocks.NewMockManager(ctrl)
	mockManager.EXPECT().EnsureFresh(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	mockCoord := &mockCoordinator{}

	cfg := createValidTestConfig(t.TempDir())

	appCtx, cancel := context.WithCancel(context.Background())

	appCfg := &resolverAppConfig{
		config:         cfg,
		address:        addr,
		requestTimeout: 10 * time.Second,
		readTimeout:    10 * time.Second,
		writeTimeout:   15 * time.Second,
		idleTimeout:    60 * time.Second,
		telemetry:      noopTelemetry(t),
	}

	server, err := buildHTTPServer(appCfg, mockSvc)
	require.NoError(t, err)

	return &ResolverApp{
		config:      cfg,
		syncManager: mockManager,
		coordinator: mockCoord,
		httpServer:  server,
		telemetry:   appCfg.telemetry,
		ctx:         appCtx,
		cancelFunc:  cancel,
	}
}

func TestResolverApp_Start(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		addr string
	}{
		{name: "successful start with ephemeral port", addr: ":0"},
		{name: "successful start on localhost", addr: "127.0.0.1:0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			app := createTestApp(t, ctrl, tt.addr)

			// Start server in goroutine
			errChan := make(chan error, 1)
			go func() {
				errChan <- app.Start()
			}()

			// Wait for server to start
			time.Sleep(100 * time.Millisecond)

			mockCoord := app.coordinator.(*mockCoordinator)
			assert.True(t, mockCoord.wasStartCalled(), "refresh coordinator should be started")

			// Stop the server
			err := app.Stop(5 * time.Second)
			require.NoError(t, err)

			// Check Start() result
			select {
			case startErr := <-errChan:
				require.NoError(t, startErr)
			case <-time.After(5 * time.Second):
				t.Fatal("Start() did not return after Stop()")
			}
		})
	}
}

func TestResolverApp_StartWithListener(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	app := createTestApp(t, ctrl, ":0")

	// Create a listener to get an actual port
	listener, err := net.Listen("tcp", ":0")
	require.NoError(t, err)
	actualAddr := listener.Addr().String()
	listener.Close()

	// Update the server address to use the now-free port
	app.httpServer.Addr = actualAddr

	// Start server in goroutine
	errChan := make(chan error, 1)
	go func() {
		errChan <- app.Start()
	}()

	// Wait for server to start
	time.Sleep(100 * time.Millisecond)

	// Make a health check request
	resp, err := http.Get("http://" + actualAddr + "/health")
	if err == nil {
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	}

	// Verify refresh coordinator was started
	mockCoord := app.coordinator.(*mockCoordinator)
	assert.True(t, mockCoord.wasStartCalled(), "refresh coordinator should be started")

	// Stop the server
	err = app.Stop(5 * time.Second)
	require.NoError(t, err)

	// Wait for Start() to return
	select {
	case startErr := <-errChan:
		require.NoError(t, startErr)
	case <-time.After(5 * time.Second):
		t.Fatal("Start() did not return after Stop()")
	}
}

func TestResolverApp_StartInitialRefreshError(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)

	mockSvc := mocksvc.NewMockResolverService(ctrl)
	mockManager := syncmocks.NewMockManager(ctrl)
	mockManager.EXPECT().
		EnsureFresh(gomock.Any(), false).
		Return(fmt.Errorf("no usable registry data"))
	mockCoord := &mockCoordinator{}

	cfg := createValidTestConfig(t.TempDir())
	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	appCfg := &resolverAppConfig{
		config:         cfg,
		address:        ":0",
		requestTimeout: 10 * time.Second,
		readTimeout:    10 * time.Second,
		writeTimeout:   15 * time.Second,
		idleTimeout:    60 * time.Second,
		telemetry:      noopTelemetry(t),
	}
	server, err := buildHTTPServer(appCfg, mockSvc)
	require.NoError(t, err)

	app := &ResolverApp{
		config:      cfg,
		syncManager: mockManager,
		coordinator: mockCoord,
		httpServer:  server,
		telemetry:   appCfg.telemetry,
		ctx:         appCtx,
		cancelFunc:  cancel,
	}

	err = app.Start()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "initial registry refresh failed")
	assert.False(t, mockCoord.wasStartCalled(), "coordinator should not start when the initial refresh fails")
}

func TestResolverApp_StartPropagatesForceRefresh(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	app := createTestApp(t, ctrl, ":0")
	app.forceRefresh = true

	mockManager := syncmocks.NewMockManager(ctrl)
	mockManager.EXPECT().EnsureFresh(gomock.Any(), true).Return(nil)
	app.syncManager = mockManager

	errChan := make(chan error, 1)
	go func() {
		errChan <- app.Start()
	}()

	time.Sleep(100 * time.Millisecond)

	err := app.Stop(5 * time.Second)
	require.NoError(t, err)

	select {
	case startErr := <-errChan:
		require.NoError(t, startErr)
	case <-time.After(5 * time.Second):
		t.Fatal("Start() did not return after Stop()")
	}
}

func TestResolverApp_Stop(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		timeout    time.Duration
		startFirst bool
	}{
		{name: "graceful shutdown with normal timeout", timeout: 5 * time.Second, startFirst: true},
		{name: "graceful shutdown with short timeout", timeout: 1 * time.Second, startFirst: true},
		{name: "stop without starting first", timeout: 5 * time.Second, startFirst: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			app := createTestApp(t, ctrl, ":0")

			if tt.startFirst {
				errChan := make(chan error, 1)
				go func() {
					errChan <- app.Start()
				}()

				// Wait for server to start
				time.Sleep(100 * time.Millisecond)
			}

			err := app.Stop(tt.timeout)
			require.NoError(t, err)

			mockCoord := app.coordinator.(*mockCoordinator)
			assert.True(t, mockCoord.wasStopCalled(), "refresh coordinator Stop should be called")
		})
	}
}

func TestResolverApp_StopIdempotent(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	app := createTestApp(t, ctrl, ":0")

	// Start server in goroutine
	errChan := make(chan error, 1)
	go func() {
		errChan <- app.Start()
	}()

	// Wait for server to start
	time.Sleep(100 * time.Millisecond)

	// First stop should succeed
	err1 := app.Stop(5 * time.Second)
	require.NoError(t, err1)

	// Wait for Start() to return
	select {
	case <-errChan:
		// Expected
	case <-time.After(5 * time.Second):
		t.Fatal("Start() did not return after first Stop()")
	}

	// Second stop should also succeed (idempotent)
	err2 := app.Stop(5 * time.Second)
	// Note: This may return an error if the server is already closed,
	// but it should not panic
	_ = err2
}

func TestResolverApp_StopWithNilCancelFunc(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	app := createTestApp(t, ctrl, ":0")

	// Set cancelFunc to nil to test nil safety
	app.cancelFunc = nil

	// Stop should handle nil cancelFunc gracefully
	err := app.Stop(5 * time.Second)
	// The server wasn't started, so shutdown should be quick
	require.NoError(t, err)
}

func TestResolverApp_GetConfig(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	app := createTestApp(t, ctrl, ":0")

	cfg := app.GetConfig()

	require.NotNil(t, cfg)
	assert.Equal(t, "https://registry.example.org/naan_records.json", cfg.GetRegistryURL())
}

func TestResolverApp_GetHTTPServer(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	app := createTestApp(t, ctrl, ":8080")

	server := app.GetHTTPServer()

	require.NotNil(t, server)
	assert.Equal(t, ":8080", server.Addr)
}

func TestResolverApp_StartError_InvalidAddress(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)

	// Occupy a port so ListenAndServe fails
	listener, err := net.Listen("tcp", ":0")
	require.NoError(t, err)
	defer listener.Close()
	occupiedAddr := listener.Addr().String()

	// Create app trying to use the same port
	app := createTestApp(t, ctrl, occupiedAddr)

	// Start should fail because port is in use
	errChan := make(chan error, 1)
	go func() {
		errChan <- app.Start()
	}()

	select {
	case startErr := <-errChan:
		require.Error(t, startErr)
		assert.Contains(t, startErr.Error(), "HTTP server failed")
	case <-time.After(5 * time.Second):
		// If it doesn't fail quickly, stop and check
		app.Stop(1 * time.Second)
		t.Fatal("Expected Start() to fail due to port in use")
	}
}

// Verify that Coordinator interface is properly defined
var _ coordinator.Coordinator = (*mockCoordinator)(nil)
