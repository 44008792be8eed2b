package resolver

import (
	"math/rand"

	"github.com/fastside/fastside/internal/catalog"
	"github.com/fastside/fastside/internal/crawler"
	"github.com/fastside/fastside/internal/userconfig"
)

// Selected is one chosen instance, flagged if it came from a service's
// fallback URL rather than a live crawled candidate.
type Selected struct {
	URL        string
	IsFallback bool
}

// SelectInstance runs §4.4.2: filter crawled instances by alive status and
// the user's tag constraints, then pick one by the requested method. If
// nothing survives filtering, the catalog service's fallback URL is
// returned instead, with IsFallback set.
func SelectInstance(svc catalog.Service, crawled crawler.CrawledService, cfg userconfig.Config) (Selected, *Error) {
	required := cfg.RequiredTagSet()
	forbidden := cfg.ForbiddenTagSet()

	var candidates []crawler.CrawledInstance
	for _, inst := range crawled.Instances {
		if !inst.Status.IsOk() {
			continue
		}
		if !hasAll(inst.Tags, required) {
			continue
		}
		if intersects(inst.Tags, forbidden) {
			continue
		}
		candidates = append(candidates, inst)
	}

	if len(candidates) == 0 {
		if svc.HasFallback() {
			return Selected{URL: svc.Fallback, IsFallback: true}, nil
		}
		return Selected{}, newError(ErrNoInstancesFound, "no live instances found for service %q", svc.Name)
	}

	switch cfg.SelectMethod {
	case userconfig.SelectLowPing:
		best := candidates[0]
		for _, c := range candidates[1:] {
			if c.Status.SortKey() < best.Status.SortKey() {
				best = c
			}
		}
		return Selected{URL: best.URL}, nil
	default: // Random
		chosen := candidates[rand.Intn(len(candidates))]
		return Selected{URL: chosen.URL}, nil
	}
}

func hasAll(tags map[string]struct{}, required map[string]struct{}) bool {
	for t := range required {
		if _, ok := tags[t]; !ok {
			return false
		}
	}
	return true
}

func intersects(tags map[string]struct{}, forbidden map[string]struct{}) bool {
	for t := range forbidden {
		if _, ok := tags[t]; ok {
			return true
		}
	}
	return false
}
