package httpapi

import (
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/fastside/fastside/internal/crawler"
	"github.com/fastside/fastside/internal/resolver"
	"github.com/fastside/fastside/internal/userconfig"
)

// handleCachedInstances serves /@cached/{service}/{rest}: every
// currently-alive instance of service, filtered by the visitor's tag
// preferences and sorted by their select method, each linking to
// {instance}/{rest}.
func (s *Server) handleCachedInstances(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/@cached/")
	serviceName, rest := splitFirstSegment(path)

	data := s.catalog.Get()
	svc, ok := resolver.ResolveAlias(data, serviceName)
	if !ok {
		renderErrorHTML(w, http.StatusNotFound, fmt.Sprintf("no service or alias named %q", serviceName))
		return
	}

	snapshot, ready := s.crawler.Snapshot()
	if !ready {
		renderErrorHTML(w, http.StatusInternalServerError, "crawler has not completed its first pass yet")
		return
	}

	cfg := s.userConfigFromRequest(r)
	required := cfg.RequiredTagSet()
	forbidden := cfg.ForbiddenTagSet()

	crawled := snapshot.ServicesByName[svc.Name]
	var alive []crawler.CrawledInstance
	for _, inst := range crawled.Instances {
		if !inst.Status.IsOk() {
			continue
		}
		if !hasAllTags(inst.Tags, required) || intersectsTags(inst.Tags, forbidden) {
			continue
		}
		alive = append(alive, inst)
	}

	sortCachedInstances(alive, cfg.SelectMethod)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, "<h1>%s — %d alive instance(s)</h1><ul>", svc.Name, len(alive))
	for _, inst := range alive {
		target := joinInstancePath(inst.URL, rest)
		fmt.Fprintf(w, `<li><a href="%s">%s</a> (%s)</li>`, target, inst.URL, inst.Status.Duration)
	}
	fmt.Fprint(w, "</ul>")
}

func splitFirstSegment(path string) (first, rest string) {
	idx := strings.IndexByte(path, '/')
	if idx < 0 {
		return path, ""
	}
	return path[:idx], path[idx+1:]
}

func joinInstancePath(base, rest string) string {
	baseURL, err := url.Parse(base)
	if err != nil {
		return base
	}
	refURL, err := url.Parse(rest)
	if err != nil {
		return base
	}
	return baseURL.ResolveReference(refURL).String()
}

func hasAllTags(tags map[string]struct{}, required map[string]struct{}) bool {
	for t := range required {
		if _, ok := tags[t]; !ok {
			return false
		}
	}
	return true
}

func intersectsTags(tags map[string]struct{}, forbidden map[string]struct{}) bool {
	for t := range forbidden {
		if _, ok := tags[t]; ok {
			return true
		}
	}
	return false
}

// sortCachedInstances orders the alive list for display: low_ping sorts by
// measured duration, random (and anything else) sorts alphabetically by URL
// so the listing is at least stable across requests.
func sortCachedInstances(instances []crawler.CrawledInstance, method userconfig.SelectMethod) {
	if method == userconfig.SelectLowPing {
		sort.Slice(instances, func(i, j int) bool {
			return instances[i].Status.SortKey() < instances[j].Status.SortKey()
		})
		return
	}
	sort.Slice(instances, func(i, j int) bool { return instances[i].URL < instances[j].URL })
}
