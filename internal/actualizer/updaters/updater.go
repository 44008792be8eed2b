// Package updaters implements the actualizer's per-service upstream
// mirror-list fetchers, registered by service name. Grounded on
// fastside-actualizer/src/services/*.rs, reduced to one example of each
// source shape the registry interface must support.
package updaters

import (
	"context"
	"fmt"
	"net/http"

	"golang.org/x/time/rate"
)

// Updater fetches a service's upstream mirror list and returns the URLs
// it found, independent of what's already in the catalog — the
// actualizer's refreshInstances does the de-duplication against current
// instances.
type Updater interface {
	Update(ctx context.Context, client *http.Client) ([]string, error)
}

// Registry maps a service name to its specific Updater. Names with no
// entry fall back to the default normalizer (no upstream fetch; existing
// instances pass through unchanged).
type Registry map[string]Updater

// DefaultUpstreamRateLimit caps how often the actualizer hits any single
// upstream mirror list, since a run can cover a couple dozen services
// sharing a handful of raw.githubusercontent.com / *.json endpoints.
const DefaultUpstreamRateLimit = 2 // requests per second

// NewRegistry builds the standard registry: one updater per source shape
// the original implementation's per-service adapters exercise, each
// throttled against a shared limiter.
func NewRegistry() Registry {
	limiter := rate.NewLimiter(rate.Limit(DefaultUpstreamRateLimit), DefaultUpstreamRateLimit)

	r := Registry{
		"searx":     NewSearxUpdater(),
		"searxng":   NewSearxngUpdater(),
		"invidious": NewInvidiousUpdater(),
		"libreddit": NewLibredditUpdater(),
	}
	for _, name := range LibredirectServices {
		if _, exists := r[name]; !exists {
			r[name] = NewLibredirectUpdater(name)
		}
	}
	for name, u := range r {
		r[name] = rateLimited{limiter: limiter, inner: u}
	}
	return r
}

// rateLimited wraps an Updater so every fetch waits on a shared limiter
// before hitting its upstream.
type rateLimited struct {
	limiter *rate.Limiter
	inner   Updater
}

func (r rateLimited) Update(ctx context.Context, client *http.Client) ([]string, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("updaters: rate limit wait: %w", err)
	}
	return r.inner.Update(ctx, client)
}

// Lookup returns the updater registered for name, or nil if the service
// should be normalized only (the "default" path in §4.5 step 1).
func (r Registry) Lookup(name string) Updater {
	return r[name]
}
