package crawler

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastside/fastside/internal/catalog"
)

func writeTestCatalog(t *testing.T, services string) *catalog.Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "services.json")
	require.NoError(t, os.WriteFile(path, []byte(services), 0644))
	store, report, err := catalog.NewStore(path, nil)
	require.NoError(t, err, "report: %+v", report)
	return store
}

const twoServiceCatalog = `{
  "services": [
    {"type": "searx", "test_url": "/", "follow_redirects": true, "allowed_http_codes": "200..=299",
     "instances": [{"url": "https://a.example/", "tags": ["clearnet"]}, {"url": "https://b.example/", "tags": ["clearnet"]}]},
    {"type": "dead", "test_url": "/", "follow_redirects": true, "allowed_http_codes": "200..=299", "deprecated_message": "gone",
     "instances": []}
  ]
}`

func TestCrawler_InitialStateHasNoSnapshot(t *testing.T) {
	store := writeTestCatalog(t, twoServiceCatalog)
	c := New(store, nil, 4, func(ctx context.Context, svc catalog.Service, inst catalog.Instance) CrawledInstance {
		return CrawledInstance{URL: inst.URL, Status: ProbeStatus{Kind: StatusOk}}
	})

	assert.Equal(t, StateInitial, c.State())
	_, ok := c.Snapshot()
	assert.False(t, ok)
}

func TestCrawler_CrawlPublishesReadySnapshot(t *testing.T) {
	store := writeTestCatalog(t, twoServiceCatalog)
	c := New(store, nil, 4, func(ctx context.Context, svc catalog.Service, inst catalog.Instance) CrawledInstance {
		if inst.URL == "https://a.example/" {
			return CrawledInstance{URL: inst.URL, Tags: inst.Tags, Status: ProbeStatus{Kind: StatusOk, Duration: 100 * time.Millisecond}}
		}
		return CrawledInstance{URL: inst.URL, Tags: inst.Tags, Status: ProbeStatus{Kind: StatusOk, Duration: 40 * time.Millisecond}}
	})

	c.Crawl(context.Background())

	assert.Equal(t, StateReady, c.State())
	snap, ok := c.Snapshot()
	require.True(t, ok)

	searx, found := snap.ServicesByName["searx"]
	require.True(t, found)
	assert.Len(t, searx.Instances, 2)

	// A service with zero catalog instances is still pre-seeded, not absent.
	dead, found := snap.ServicesByName["dead"]
	require.True(t, found)
	assert.Empty(t, dead.Instances)
}

func TestCrawler_UpdateCrawlPreservesPreviousSnapshotDuringReload(t *testing.T) {
	store := writeTestCatalog(t, twoServiceCatalog)

	release := make(chan struct{})
	started := make(chan struct{}, 1)

	c := New(store, nil, 4, func(ctx context.Context, svc catalog.Service, inst catalog.Instance) CrawledInstance {
		return CrawledInstance{URL: inst.URL, Status: ProbeStatus{Kind: StatusOk, Duration: time.Millisecond}}
	})

	c.Crawl(context.Background())
	firstBuiltAt := mustSnapshot(t, c).BuiltAt

	// Swap in a probe func that blocks until we release it, so we can
	// observe the Reloading window.
	c.probe = func(ctx context.Context, svc catalog.Service, inst catalog.Instance) CrawledInstance {
		select {
		case started <- struct{}{}:
		default:
		}
		<-release
		return CrawledInstance{URL: inst.URL, Status: ProbeStatus{Kind: StatusOk, Duration: time.Millisecond}}
	}

	done := make(chan struct{})
	go func() {
		c.UpdateCrawl(context.Background())
		close(done)
	}()

	<-started
	assert.Equal(t, StateReloading, c.State())
	snapDuringReload := mustSnapshot(t, c)
	assert.Equal(t, firstBuiltAt, snapDuringReload.BuiltAt, "readers during reload still see the previous snapshot")

	close(release)
	<-done

	assert.Equal(t, StateReady, c.State())
	snapAfter := mustSnapshot(t, c)
	assert.True(t, snapAfter.BuiltAt.After(firstBuiltAt) || snapAfter.BuiltAt.Equal(firstBuiltAt))
}

func TestCrawler_ConcurrentCrawlIsDropped(t *testing.T) {
	store := writeTestCatalog(t, twoServiceCatalog)

	release := make(chan struct{})
	c := New(store, nil, 4, func(ctx context.Context, svc catalog.Service, inst catalog.Instance) CrawledInstance {
		<-release
		return CrawledInstance{URL: inst.URL, Status: ProbeStatus{Kind: StatusOk}}
	})

	go c.Crawl(context.Background())
	time.Sleep(20 * time.Millisecond) // let the first crawl grab the single-flight lock

	// This second call must not block: TryLock fails and it's a no-op.
	doneSecond := make(chan struct{})
	go func() {
		c.Crawl(context.Background())
		close(doneSecond)
	}()

	select {
	case <-doneSecond:
	case <-time.After(time.Second):
		t.Fatal("second concurrent Crawl() call should have been a no-op, not blocked")
	}

	close(release)
}

func mustSnapshot(t *testing.T, c *Crawler) Ready {
	t.Helper()
	snap, ok := c.Snapshot()
	require.True(t, ok)
	return snap
}
