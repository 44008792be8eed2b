package resolver

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastside/fastside/internal/catalog"
	"github.com/fastside/fastside/internal/crawler"
	"github.com/fastside/fastside/internal/userconfig"
)

const testCatalogJSON = `{
  "services": [
    {"type": "searx", "test_url": "/", "follow_redirects": true, "allowed_http_codes": "200..=299",
     "aliases": ["sx"],
     "regexes": [{"regex": "^https://google\\.com/search\\?q=(.+)$", "url_template": "/search?q=$1"}],
     "instances": [
       {"url": "https://a.example/", "tags": ["clearnet", "https", "ipv4"]},
       {"url": "https://b.example/", "tags": ["clearnet", "https", "ipv4"]}
     ]},
    {"type": "gone", "test_url": "/", "follow_redirects": true, "allowed_http_codes": "200..=299",
     "deprecated_message": "no longer mirrored", "fallback": "https://fallback.example/",
     "instances": []}
  ]
}`

func newTestResolver(t *testing.T) *Resolver {
	t.Helper()
	path := filepath.Join(t.TempDir(), "services.json")
	require.NoError(t, os.WriteFile(path, []byte(testCatalogJSON), 0644))

	store, report, err := catalog.NewStore(path, nil)
	require.NoError(t, err, "report: %+v", report)

	c := crawler.New(store, nil, 4, func(ctx context.Context, svc catalog.Service, inst catalog.Instance) crawler.CrawledInstance {
		return crawler.CrawledInstance{URL: inst.URL, Tags: inst.Tags, Status: crawler.ProbeStatus{Kind: crawler.StatusOk}}
	})
	c.Crawl(context.Background())

	return New(store, c, nil)
}

func TestResolve_AliasByName(t *testing.T) {
	r := newTestResolver(t)
	result, err := r.Resolve("searx/search?q=hello", "", userconfig.Default())
	require.Nil(t, err)
	assert.Contains(t, []string{"https://a.example/search?q=hello", "https://b.example/search?q=hello"}, result.URL)
}

func TestResolve_AliasByAliasName(t *testing.T) {
	r := newTestResolver(t)
	result, err := r.Resolve("sx/search?q=hello", "", userconfig.Default())
	require.Nil(t, err)
	assert.Contains(t, []string{"https://a.example/search?q=hello", "https://b.example/search?q=hello"}, result.URL)
}

func TestResolve_ServiceNotFound(t *testing.T) {
	r := newTestResolver(t)
	_, err := r.Resolve("nope/search", "", userconfig.Default())
	require.NotNil(t, err)
	assert.Equal(t, ErrServiceNotFound, err.Kind)
	assert.Equal(t, 404, err.StatusCode())
}

func TestResolve_RegexURLMatch(t *testing.T) {
	r := newTestResolver(t)
	result, err := r.Resolve("https://google.com/search?q=cats", "", userconfig.Default())
	require.Nil(t, err)
	assert.Contains(t, []string{"https://a.example/search?q=cats", "https://b.example/search?q=cats"}, result.URL)
}

func TestResolve_QueryReattachment(t *testing.T) {
	r := newTestResolver(t)
	result, err := r.Resolve("searx/search", "q=hello&lang=en", userconfig.Default())
	require.Nil(t, err)
	assert.Contains(t, result.URL, "q=hello&lang=en")
}

func TestResolve_FallbackWhenNoLiveInstances(t *testing.T) {
	r := newTestResolver(t)
	result, err := r.Resolve("gone/", "", userconfig.Default())
	require.Nil(t, err)
	assert.Equal(t, "https://fallback.example/", result.URL)
	assert.True(t, result.IsFallback)
}

func TestShouldShowFallbackWarning(t *testing.T) {
	cfg := userconfig.Default()
	assert.True(t, ShouldShowFallbackWarning(true, cfg, "GET"))
	assert.False(t, ShouldShowFallbackWarning(false, cfg, "GET"))
	assert.False(t, ShouldShowFallbackWarning(true, cfg, "POST"))

	cfg.IgnoreFallbackWarning = true
	assert.False(t, ShouldShowFallbackWarning(true, cfg, "GET"))
}
