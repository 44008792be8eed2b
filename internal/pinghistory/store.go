package pinghistory

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"
)

// ServiceHistory holds the per-instance histories for one catalog service.
type ServiceHistory struct {
	Instances []InstanceHistory `json:"instances"`
}

// InstanceHistory pairs an instance URL with its ping series.
type InstanceHistory struct {
	URL     string  `json:"url"`
	History History `json:"-"`
}

// MarshalJSON flattens History.Entries into the instance record, matching
// the documented wire shape {url, ping_history: [...]}.
func (ih InstanceHistory) MarshalJSON() ([]byte, error) {
	type wire struct {
		URL         string  `json:"url"`
		PingHistory []Entry `json:"ping_history"`
	}
	return json.Marshal(wire{URL: ih.URL, PingHistory: ih.History.Entries})
}

// UnmarshalJSON reads the flattened wire shape back into an InstanceHistory.
func (ih *InstanceHistory) UnmarshalJSON(data []byte) error {
	var wire struct {
		URL         string  `json:"url"`
		PingHistory []Entry `json:"ping_history"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	ih.URL = wire.URL
	ih.History = History{Entries: wire.PingHistory}
	return nil
}

// Document is the actualizer history file: {"services": {name: {instances: [...]}}}.
type Document struct {
	Services map[string]ServiceHistory `json:"services"`
}

// Store is the mutex-guarded in-memory form of Document used during an
// actualize run, keyed by service name then instance URL for O(1) lookup.
type Store struct {
	mu   sync.Mutex
	data map[string]map[string]*History
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{data: map[string]map[string]*History{}}
}

// LoadStore reads a history document from path into a Store. A missing
// file yields an empty store rather than an error.
func LoadStore(path string) (*Store, error) {
	s := NewStore()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("failed to read ping history %s: %w", path, err)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse ping history %s: %w", path, err)
	}

	for name, sh := range doc.Services {
		byURL := map[string]*History{}
		for _, ih := range sh.Instances {
			h := ih.History
			byURL[ih.URL] = &h
		}
		s.data[name] = byURL
	}

	return s, nil
}

// For returns the history for (service, url), creating an empty one on
// first observation — the source's documented "auto-insert on first
// observation" behavior (spec.md §9 open question).
func (s *Store) For(service, url string) *History {
	s.mu.Lock()
	defer s.mu.Unlock()

	byURL, ok := s.data[service]
	if !ok {
		byURL = map[string]*History{}
		s.data[service] = byURL
	}
	h, ok := byURL[url]
	if !ok {
		h = &History{}
		byURL[url] = h
	}
	return h
}

// SyncServices drops service and instance entries that no longer exist in
// the given live set, per the ActualizerData lifecycle: entries are
// created for new instances (lazily, via For) and dropped for removed ones.
func (s *Store) SyncServices(liveServiceInstanceURLs map[string]map[string]struct{}) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for name := range s.data {
		liveURLs, stillExists := liveServiceInstanceURLs[name]
		if !stillExists {
			delete(s.data, name)
			continue
		}
		for url := range s.data[name] {
			if _, ok := liveURLs[url]; !ok {
				delete(s.data[name], url)
			}
		}
	}
}

// PruneCandidates returns (service, url) pairs whose history indicates the
// instance should be removed (ready and below the uptime floor).
func (s *Store) PruneCandidates() []InstanceKey {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []InstanceKey
	for name, byURL := range s.data {
		for url, h := range byURL {
			if h.ShouldPrune() {
				out = append(out, InstanceKey{Service: name, URL: url})
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Service != out[j].Service {
			return out[i].Service < out[j].Service
		}
		return out[i].URL < out[j].URL
	})
	return out
}

// Remove deletes the history entry for (service, url), used after pruning.
func (s *Store) Remove(service, url string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if byURL, ok := s.data[service]; ok {
		delete(byURL, url)
	}
}

// InstanceKey identifies one instance's history by its owning service name
// and its URL.
type InstanceKey struct {
	Service string
	URL     string
}

// Save canonicalizes (instances sorted by URL) and writes the store to path.
func (s *Store) Save(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := Document{Services: map[string]ServiceHistory{}}
	for name, byURL := range s.data {
		urls := make([]string, 0, len(byURL))
		for u := range byURL {
			urls = append(urls, u)
		}
		sort.Strings(urls)

		sh := ServiceHistory{}
		for _, u := range urls {
			sh.Instances = append(sh.Instances, InstanceHistory{URL: u, History: *byURL[u]})
		}
		doc.Services[name] = sh
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal ping history: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write ping history %s: %w", path, err)
	}
	return nil
}
