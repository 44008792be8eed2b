package actualizer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastside/fastside/internal/actualizer/updaters"
	"github.com/fastside/fastside/internal/catalog"
	"github.com/fastside/fastside/internal/pinghistory"
)

func TestActualizer_RefreshInstancesAppendsNewURLs(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"instances": [{"url": "https://new.example/"}]}`))
	}))
	defer upstream.Close()

	reg := updaters.Registry{"libreddit": &updaters.LibredditUpdater{InstancesURL: upstream.URL}}
	history := pinghistory.NewStore()
	a := New(reg, history, nil, Config{Timeout: time.Second})

	data := &catalog.StoredData{
		Services: []catalog.Service{
			{Name: "libreddit", TestURL: "/", AllowedHTTPCodes: catalog.DefaultCodeSet(),
				Instances: []catalog.Instance{catalog.NewInstance("https://existing.example/", nil)}},
		},
	}

	summary := NewChangesSummary()
	a.refreshInstances(context.Background(), upstream.Client(), &data.Services[0], summary)

	assert.Len(t, data.Services[0].Instances, 2)
	report := summary.Snapshot()
	assert.Equal(t, []string{"https://new.example/"}, report.Added["libreddit"])
}

func TestActualizer_RefreshInstancesSkipsExistingURLs(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"instances": [{"url": "https://existing.example/"}]}`))
	}))
	defer upstream.Close()

	reg := updaters.Registry{"libreddit": &updaters.LibredditUpdater{InstancesURL: upstream.URL}}
	history := pinghistory.NewStore()
	a := New(reg, history, nil, Config{Timeout: time.Second})

	svc := &catalog.Service{Name: "libreddit", Instances: []catalog.Instance{catalog.NewInstance("https://existing.example/", nil)}}
	summary := NewChangesSummary()
	a.refreshInstances(context.Background(), upstream.Client(), svc, summary)

	assert.Len(t, svc.Instances, 1)
	assert.Empty(t, summary.Snapshot().Added)
}

func TestActualizer_PruneRemovesBelowUptimeFloor(t *testing.T) {
	history := pinghistory.NewStore()
	h := history.For("svc", "https://bad.example/")
	now := time.Now()
	for i := 0; i < 14; i++ {
		h.Push(now, true)
	}
	for i := 0; i < 36; i++ {
		h.Push(now, false)
	}

	a := New(updaters.Registry{}, history, nil, Config{})
	data := &catalog.StoredData{
		Services: []catalog.Service{
			{Name: "svc", Instances: []catalog.Instance{
				catalog.NewInstance("https://bad.example/", nil),
				catalog.NewInstance("https://good.example/", nil),
			}},
		},
	}

	summary := NewChangesSummary()
	a.prune(data, summary)

	assert.Len(t, data.Services[0].Instances, 1)
	assert.Equal(t, "https://good.example/", data.Services[0].Instances[0].URL)
	assert.Len(t, summary.Snapshot().Removed, 1)
}

func TestActualizer_ReportsEmptyServicesWithoutDeprecation(t *testing.T) {
	a := New(updaters.Registry{}, pinghistory.NewStore(), nil, Config{})
	data := &catalog.StoredData{
		Services: []catalog.Service{
			{Name: "empty-no-msg", Instances: nil},
			{Name: "empty-deprecated", Instances: nil, DeprecatedMessage: "gone"},
		},
	}
	summary := NewChangesSummary()
	a.reportEmptyServices(data, summary)

	report := summary.Snapshot()
	assert.Equal(t, []string{"empty-no-msg"}, report.EmptyWithoutDeprecation)
}

func TestActualizer_InScopeFiltersByOnly(t *testing.T) {
	a := New(updaters.Registry{}, pinghistory.NewStore(), nil, Config{Only: map[string]struct{}{"searx": {}}})
	assert.True(t, a.inScope("searx"))
	assert.False(t, a.inScope("other"))

	a2 := New(updaters.Registry{}, pinghistory.NewStore(), nil, Config{})
	assert.True(t, a2.inScope("anything"))
}

func TestActualizer_RunEndToEndCanonicalizes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	history := pinghistory.NewStore()
	a := New(updaters.Registry{}, history, nil, Config{Timeout: 2 * time.Second, MaxParallel: 2})

	data := &catalog.StoredData{
		Services: []catalog.Service{
			{Name: "zeta", TestURL: "/", AllowedHTTPCodes: catalog.DefaultCodeSet(),
				Instances: []catalog.Instance{catalog.NewInstance(srv.URL, nil)}},
			{Name: "alpha", TestURL: "/", AllowedHTTPCodes: catalog.DefaultCodeSet(),
				Instances: []catalog.Instance{catalog.NewInstance(srv.URL, nil)}},
		},
	}

	summary := a.Run(context.Background(), data)
	require.NotNil(t, summary)

	// Canonicalize sorts services by name.
	assert.Equal(t, "alpha", data.Services[0].Name)
	assert.Equal(t, "zeta", data.Services[1].Name)
}
