package updaters

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// LibredditUpdater pulls the redlib-instances directory, grounded on
// fastside-actualizer/src/services/libreddit.rs.
type LibredditUpdater struct {
	InstancesURL string
}

// NewLibredditUpdater returns an updater pointed at the canonical upstream.
func NewLibredditUpdater() *LibredditUpdater {
	return &LibredditUpdater{
		InstancesURL: "https://raw.githubusercontent.com/redlib-org/redlib-instances/main/instances.json",
	}
}

type libredditResponse struct {
	Instances []struct {
		URL string `json:"url"`
	} `json:"instances"`
}

// Update fetches and parses {"instances": [{"url": ...}, ...]}.
func (u *LibredditUpdater) Update(ctx context.Context, client *http.Client) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.InstancesURL, nil)
	if err != nil {
		return nil, fmt.Errorf("libreddit updater: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("libreddit updater: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("libreddit updater: %w", err)
	}

	var parsed libredditResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("libreddit updater: %w", err)
	}

	urls := make([]string, 0, len(parsed.Instances))
	for _, inst := range parsed.Instances {
		if inst.URL != "" {
			urls = append(urls, inst.URL)
		}
	}
	return urls, nil
}
