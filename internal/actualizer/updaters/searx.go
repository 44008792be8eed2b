package updaters

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"gopkg.in/yaml.v3"
)

// SearxUpdater pulls the upstream searx-instances YAML list, grounded on
// fastside-actualizer/src/services/searx.rs.
type SearxUpdater struct {
	InstancesURL string
}

// NewSearxUpdater returns an updater pointed at the canonical upstream.
func NewSearxUpdater() *SearxUpdater {
	return &SearxUpdater{
		InstancesURL: "https://raw.githubusercontent.com/searx/searx-instances/master/searxinstances/instances.yml",
	}
}

// Update fetches and parses the YAML document {url: {...metadata}}, one
// key per mirror.
func (u *SearxUpdater) Update(ctx context.Context, client *http.Client) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.InstancesURL, nil)
	if err != nil {
		return nil, fmt.Errorf("searx updater: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("searx updater: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("searx updater: %w", err)
	}

	var parsed map[string]any
	if err := yaml.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("searx updater: %w", err)
	}

	urls := make([]string, 0, len(parsed))
	for url := range parsed {
		urls = append(urls, url)
	}
	return urls, nil
}
