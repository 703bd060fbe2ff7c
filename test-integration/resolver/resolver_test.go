package integration

import (
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/arkproject/ark-root-resolver/test-integration/resolver/helpers"
)

var _ = Describe("Resolution", Label("resolution"), func() {
	var (
		tempDir      string
		cacheDir     string
		upstream     *helpers.UpstreamRegistry
		document     []byte
		serverHelper *helpers.ServerTestHelper
	)

	BeforeEach(func() {
		tempDir = createTempDir("resolve-test-")
		cacheDir = filepath.Join(tempDir, "naan_registry_cache")

		document = helpers.BuildRegistryDoc(helpers.DefaultTestEntries())
		upstream = helpers.NewUpstreamRegistry(document)

		configFile := helpers.WriteConfigYAML(tempDir, upstream.URL(), cacheDir, 3600)
		serverHelper = helpers.NewServerTestHelper(ctx, configFile, helpers.GetFreePort())

		err := serverHelper.StartServer()
		Expect(err).NotTo(HaveOccurred())
		serverHelper.WaitForServerReady(10 * time.Second)
	})

	AfterEach(func() {
		_ = serverHelper.StopServer()
		upstream.Close()
		cleanupTempDir(tempDir)
	})

	It("redirects to the registered resolver with the identifier substituted", func() {
		resp, err := serverHelper.Resolve("12345/abc123")
		Expect(err).NotTo(HaveOccurred())
		defer func() {
			_ = resp.Body.Close()
		}()

		Expect(resp.StatusCode).To(Equal(http.StatusFound))
		Expect(resp.Header.Get("Location")).To(Equal("https://ids.example.org/12345/abc123"))
	})

	It("resolves the slashed identifier form the same way", func() {
		resp, err := serverHelper.Resolve("/12345/abc123")
		Expect(err).NotTo(HaveOccurred())
		defer func() {
			_ = resp.Body.Close()
		}()

		Expect(resp.StatusCode).To(Equal(http.StatusFound))
		Expect(resp.Header.Get("Location")).To(Equal("https://ids.example.org/12345/abc123"))
	})

	It("prefers the longest registered prefix", func() {
		resp, err := serverHelper.Resolve("12345/x9w3t")
		Expect(err).NotTo(HaveOccurred())
		defer func() {
			_ = resp.Body.Close()
		}()

		Expect(resp.StatusCode).To(Equal(http.StatusMovedPermanently))
		Expect(resp.Header.Get("Location")).To(Equal("https://shoulder.example.org/12345/x9w3t"))
	})

	It("falls back to a temporary redirect when the target has no status code", func() {
		resp, err := serverHelper.Resolve("99999/obj")
		Expect(err).NotTo(HaveOccurred())
		defer func() {
			_ = resp.Body.Close()
		}()

		Expect(resp.StatusCode).To(Equal(http.StatusFound))
		Expect(resp.Header.Get("Location")).To(Equal("https://legacy.example.org/99999/obj"))
	})

	It("returns 404 for unregistered prefixes", func() {
		resp, err := serverHelper.Resolve("77777/nothing")
		Expect(err).NotTo(HaveOccurred())
		defer func() {
			_ = resp.Body.Close()
		}()

		Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
	})

	It("serves the cached registry document byte for byte", func() {
		resp, err := serverHelper.GetRegistryCache()
		Expect(err).NotTo(HaveOccurred())
		defer func() {
			_ = resp.Body.Close()
		}()

		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		body, err := io.ReadAll(resp.Body)
		Expect(err).NotTo(HaveOccurred())
		Expect(body).To(MatchJSON(document))
	})

	It("serves the derived resolver map", func() {
		resp, err := serverHelper.GetResolverMap()
		Expect(err).NotTo(HaveOccurred())
		defer func() {
			_ = resp.Body.Close()
		}()

		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		body, err := io.ReadAll(resp.Body)
		Expect(err).NotTo(HaveOccurred())

		Expect(body).To(And(
			ContainSubstring(`"12345"`),
			ContainSubstring(`"12345/x9"`),
			ContainSubstring(`"99999"`),
		))
	})

	It("persists a snapshot to the cache directory", func() {
		files, err := filepath.Glob(filepath.Join(cacheDir, "data_*.json"))
		Expect(err).NotTo(HaveOccurred())
		Expect(files).To(HaveLen(1))
	})
})

var _ = Describe("Cache Lifecycle", Label("cache"), func() {
	var (
		tempDir    string
		cacheDir   string
		upstream   *helpers.UpstreamRegistry
		configFile string
	)

	BeforeEach(func() {
		tempDir = createTempDir("cache-test-")
		cacheDir = filepath.Join(tempDir, "naan_registry_cache")

		upstream = helpers.NewUpstreamRegistry(helpers.BuildRegistryDoc(helpers.DefaultTestEntries()))
		configFile = helpers.WriteConfigYAML(tempDir, upstream.URL(), cacheDir, 3600)
	})

	AfterEach(func() {
		upstream.Close()
		cleanupTempDir(tempDir)
	})

	// startAndStop runs one server lifecycle so the cache directory is
	// populated for the scenarios below
	startAndStop := func() {
		serverHelper := helpers.NewServerTestHelper(ctx, configFile, helpers.GetFreePort())
		err := serverHelper.StartServer()
		Expect(err).NotTo(HaveOccurred())
		serverHelper.WaitForServerReady(10 * time.Second)
		Expect(serverHelper.StopServer()).To(Succeed())
	}

	// backdateCache pushes all cached snapshot files into the past so the
	// next startup treats them as stale
	backdateCache := func(age time.Duration) {
		files, err := filepath.Glob(filepath.Join(cacheDir, "data_*.json"))
		Expect(err).NotTo(HaveOccurred())
		Expect(files).NotTo(BeEmpty())
		past := time.Now().Add(-age)
		for _, f := range files {
			Expect(os.Chtimes(f, past, past)).To(Succeed())
		}
	}

	It("reuses a fresh cached snapshot across restarts without downloading", func() {
		startAndStop()
		Expect(upstream.Requests()).To(Equal(1))

		serverHelper := helpers.NewServerTestHelper(ctx, configFile, helpers.GetFreePort())
		err := serverHelper.StartServer()
		Expect(err).NotTo(HaveOccurred())
		defer func() {
			_ = serverHelper.StopServer()
		}()
		serverHelper.WaitForServerReady(10 * time.Second)

		// Still a single download: the second startup served from cache
		Expect(upstream.Requests()).To(Equal(1))

		resp, err := serverHelper.Resolve("12345/fromcache")
		Expect(err).NotTo(HaveOccurred())
		defer func() {
			_ = resp.Body.Close()
		}()
		Expect(resp.StatusCode).To(Equal(http.StatusFound))
	})

	It("falls back to a stale cached snapshot when the registry is unreachable", func() {
		startAndStop()
		backdateCache(2 * time.Hour)
		upstream.SetFailing(true)

		serverHelper := helpers.NewServerTestHelper(ctx, configFile, helpers.GetFreePort())
		err := serverHelper.StartServer()
		Expect(err).NotTo(HaveOccurred())
		defer func() {
			_ = serverHelper.StopServer()
		}()
		serverHelper.WaitForServerReady(10 * time.Second)

		// The download was attempted before falling back
		Expect(upstream.Requests()).To(BeNumerically(">", 1))

		resp, err := serverHelper.Resolve("12345/stale")
		Expect(err).NotTo(HaveOccurred())
		defer func() {
			_ = resp.Body.Close()
		}()
		Expect(resp.StatusCode).To(Equal(http.StatusFound))
	})

	It("fails to start when the registry is unreachable and the cache is empty", func() {
		upstream.SetFailing(true)

		serverHelper := helpers.NewServerTestHelper(ctx, configFile, helpers.GetFreePort())
		err := serverHelper.RunServerExpectingStartupFailure()

		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("initial registry refresh failed"))
	})
})

var _ = Describe("Background Refresh", Label("refresh"), func() {
	var (
		tempDir      string
		upstream     *helpers.UpstreamRegistry
		serverHelper *helpers.ServerTestHelper
	)

	BeforeEach(func() {
		tempDir = createTempDir("refresh-test-")
		cacheDir := filepath.Join(tempDir, "naan_registry_cache")

		upstream = helpers.NewUpstreamRegistry(helpers.BuildRegistryDoc(helpers.DefaultTestEntries()))

		// A one second refresh interval keeps the test fast
		configFile := helpers.WriteConfigYAML(tempDir, upstream.URL(), cacheDir, 1)
		serverHelper = helpers.NewServerTestHelper(ctx, configFile, helpers.GetFreePort())

		err := serverHelper.StartServer()
		Expect(err).NotTo(HaveOccurred())
		serverHelper.WaitForServerReady(10 * time.Second)
	})

	AfterEach(func() {
		_ = serverHelper.StopServer()
		upstream.Close()
		cleanupTempDir(tempDir)
	})

	It("picks up registry changes on the next scheduled refresh", func() {
		resp, err := serverHelper.Resolve("55555/new")
		Expect(err).NotTo(HaveOccurred())
		_ = resp.Body.Close()
		Expect(resp.StatusCode).To(Equal(http.StatusNotFound))

		entries := append(helpers.DefaultTestEntries(), helpers.NaanEntry{
			What:     "55555",
			URL:      "https://fresh.example.org/${content}",
			HTTPCode: 302,
		})
		upstream.SetDocument(helpers.BuildRegistryDoc(entries))

		Eventually(func() int {
			resp, err := serverHelper.Resolve("55555/new")
			if err != nil {
				return 0
			}
			defer func() {
				_ = resp.Body.Close()
			}()
			return resp.StatusCode
		}, 15*time.Second, 500*time.Millisecond).Should(Equal(http.StatusFound))
	})

	It("keeps serving the previous state when a refresh fails", func() {
		upstream.SetFailing(true)

		// Give the refresh loop time to fail at least once
		Consistently(func() int {
			resp, err := serverHelper.Resolve("12345/sticky")
			if err != nil {
				return 0
			}
			defer func() {
				_ = resp.Body.Close()
			}()
			return resp.StatusCode
		}, 4*time.Second, 500*time.Millisecond).Should(Equal(http.StatusFound))
	})
})
