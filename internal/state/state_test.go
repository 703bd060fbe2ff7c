package state

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arkproject/ark-root-resolver/internal/registry"
	"github.com/arkproject/ark-root-resolver/internal/resolver"
)

func published(t *testing.T, doc string) *Published {
	t.Helper()
	snap, err := registry.ParseSnapshot([]byte(doc), time.Now())
	require.NoError(t, err)
	m, _ := resolver.BuildMap(snap.Records)
	return &Published{Snapshot: snap, Map: m, PublishedAt: time.Now()}
}

func TestCurrentNilBeforePublish(t *testing.T) {
	t.Parallel()

	store := NewStore()

	assert.Nil(t, store.Current())
}

func TestPublishReplacesWholeState(t *testing.T) {
	t.Parallel()

	store := NewStore()

	first := published(t, `{"data": [{"what": "11111", "target": {"url": "https://a/${content}", "http_code": 302}}]}`)
	second := published(t, `{"data": [{"what": "22222", "target": {"url": "https://b/${content}", "http_code": 302}}]}`)

	store.Publish(first)
	require.Same(t, first, store.Current())

	held := store.Current()

	store.Publish(second)
	require.Same(t, second, store.Current())

	// A reader that loaded the old publication keeps a consistent pair.
	_, _, err := held.Map.Match("11111/x")
	assert.NoError(t, err)
	_, _, err = store.Current().Map.Match("22222/x")
	assert.NoError(t, err)
}

func TestConcurrentPublishAndRead(t *testing.T) {
	t.Parallel()

	store := NewStore()
	p := published(t, `{"data": [{"what": "12345", "target": {"url": "https://a/${content}", "http_code": 302}}]}`)
	store.Publish(p)

	var wg sync.WaitGroup
	stop := make(chan struct{})

	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				current := store.Current()
				require.NotNil(t, current)
				require.NotNil(t, current.Map)
				require.NotNil(t, current.Snapshot)
			}
		}()
	}

	for i := 0; i < 50; i++ {
		store.Publish(published(t, `{"data": [{"what": "12345", "target": {"url": "https://a/${content}", "http_code": 302}}]}`))
	}
	close(stop)
	wg.Wait()
}
