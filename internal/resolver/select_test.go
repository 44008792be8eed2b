package resolver

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastside/fastside/internal/catalog"
	"github.com/fastside/fastside/internal/crawler"
	"github.com/fastside/fastside/internal/userconfig"
)

func tagSet(tags ...string) map[string]struct{} {
	out := map[string]struct{}{}
	for _, t := range tags {
		out[t] = struct{}{}
	}
	return out
}

func TestSelectInstance_FiltersByRequiredAndForbiddenTags(t *testing.T) {
	svc := catalog.Service{Name: "searx"}
	crawled := crawler.CrawledService{
		Name: "searx",
		Instances: []crawler.CrawledInstance{
			{URL: "https://a.example/", Tags: tagSet("clearnet", "https"), Status: crawler.ProbeStatus{Kind: crawler.StatusOk}},
			{URL: "https://b.example/", Tags: tagSet("clearnet", "https", "tor"), Status: crawler.ProbeStatus{Kind: crawler.StatusOk}},
		},
	}
	cfg := userconfig.Config{RequiredTags: []string{"clearnet"}, ForbiddenTags: []string{"tor"}, SelectMethod: userconfig.SelectRandom}

	selected, err := SelectInstance(svc, crawled, cfg)
	require.Nil(t, err)
	assert.Equal(t, "https://a.example/", selected.URL)
	assert.False(t, selected.IsFallback)
}

func TestSelectInstance_LowPingPicksMinimum(t *testing.T) {
	svc := catalog.Service{Name: "searx"}
	crawled := crawler.CrawledService{
		Instances: []crawler.CrawledInstance{
			{URL: "https://a.example/", Status: crawler.ProbeStatus{Kind: crawler.StatusOk, Duration: 100 * time.Millisecond}},
			{URL: "https://b.example/", Status: crawler.ProbeStatus{Kind: crawler.StatusOk, Duration: 40 * time.Millisecond}},
		},
	}
	cfg := userconfig.Config{SelectMethod: userconfig.SelectLowPing}

	selected, err := SelectInstance(svc, crawled, cfg)
	require.Nil(t, err)
	assert.Equal(t, "https://b.example/", selected.URL)
}

func TestSelectInstance_FallsBackWhenNoneFilter(t *testing.T) {
	svc := catalog.Service{Name: "searx", Fallback: "https://fallback.example/"}
	crawled := crawler.CrawledService{
		Instances: []crawler.CrawledInstance{
			{URL: "https://a.example/", Status: crawler.ProbeStatus{Kind: crawler.StatusConnection}},
		},
	}
	cfg := userconfig.Default()

	selected, err := SelectInstance(svc, crawled, cfg)
	require.Nil(t, err)
	assert.Equal(t, "https://fallback.example/", selected.URL)
	assert.True(t, selected.IsFallback)
}

func TestSelectInstance_NoInstancesFoundWithoutFallback(t *testing.T) {
	svc := catalog.Service{Name: "searx"}
	crawled := crawler.CrawledService{}
	cfg := userconfig.Default()

	_, err := SelectInstance(svc, crawled, cfg)
	require.NotNil(t, err)
	assert.Equal(t, ErrNoInstancesFound, err.Kind)
}
