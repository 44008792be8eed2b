package actualizer

import (
	"sort"
	"sync"

	"github.com/fastside/fastside/internal/pinghistory"
)

// ChangesSummary is the mutex-protected record of one actualize run's
// effects, submitted to concurrently by updaters and pruning (§5 "the
// actualizer summary is a mutex-protected record").
type ChangesSummary struct {
	mu                      sync.Mutex
	added                   map[string][]string
	removed                 []pinghistory.InstanceKey
	emptyWithoutDeprecation []string
}

// NewChangesSummary returns an empty summary ready for concurrent use.
func NewChangesSummary() *ChangesSummary {
	return &ChangesSummary{added: map[string][]string{}}
}

// AddInstances records newly fetched instance URLs for a service.
func (s *ChangesSummary) AddInstances(service string, urls []string) {
	if len(urls) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.added[service] = append(s.added[service], urls...)
}

// MarkRemoved records an instance pruned for falling below the uptime floor.
func (s *ChangesSummary) MarkRemoved(key pinghistory.InstanceKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removed = append(s.removed, key)
}

// MarkEmptyWithoutDeprecation records a service with zero instances and no
// deprecated_message, per §4.5 step 5.
func (s *ChangesSummary) MarkEmptyWithoutDeprecation(service string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.emptyWithoutDeprecation = append(s.emptyWithoutDeprecation, service)
}

// Report is an immutable, sorted snapshot of the summary for logging or
// serialization.
type Report struct {
	Added                   map[string][]string          `json:"added"`
	Removed                 []pinghistory.InstanceKey     `json:"removed"`
	EmptyWithoutDeprecation []string                      `json:"empty_without_deprecation"`
}

// Snapshot returns a deterministically ordered Report.
func (s *ChangesSummary) Snapshot() Report {
	s.mu.Lock()
	defer s.mu.Unlock()

	added := make(map[string][]string, len(s.added))
	for svc, urls := range s.added {
		cp := append([]string(nil), urls...)
		sort.Strings(cp)
		added[svc] = cp
	}

	removed := append([]pinghistory.InstanceKey(nil), s.removed...)
	sort.Slice(removed, func(i, j int) bool {
		if removed[i].Service != removed[j].Service {
			return removed[i].Service < removed[j].Service
		}
		return removed[i].URL < removed[j].URL
	})

	empty := append([]string(nil), s.emptyWithoutDeprecation...)
	sort.Strings(empty)

	return Report{Added: added, Removed: removed, EmptyWithoutDeprecation: empty}
}
