package updaters

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// SearxngUpdater pulls the searx.space instance directory, grounded on
// fastside-actualizer/src/services/searxng.rs.
type SearxngUpdater struct {
	InstancesURL string
}

// NewSearxngUpdater returns an updater pointed at the canonical upstream.
func NewSearxngUpdater() *SearxngUpdater {
	return &SearxngUpdater{InstancesURL: "https://searx.space/data/instances.json"}
}

type searxngResponse struct {
	Instances map[string]any `json:"instances"`
}

// Update fetches and parses {"instances": {url: {...metadata}}}.
func (u *SearxngUpdater) Update(ctx context.Context, client *http.Client) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.InstancesURL, nil)
	if err != nil {
		return nil, fmt.Errorf("searxng updater: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("searxng updater: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("searxng updater: %w", err)
	}

	var parsed searxngResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("searxng updater: %w", err)
	}

	urls := make([]string, 0, len(parsed.Instances))
	for url := range parsed.Instances {
		urls = append(urls, url)
	}
	return urls, nil
}
