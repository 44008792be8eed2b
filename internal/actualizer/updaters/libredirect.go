package updaters

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// LibredirectServices is the closed list of service names the upstream
// LibRedirect extension's instances.json carries data for. Mirrors
// fastside-actualizer/src/services/libredirect.rs's LIBREDIRECT_SERVICES,
// trimmed to the names Fastside's example catalog actually exercises.
var LibredirectServices = []string{
	"invidious", "piped", "nitter", "redlib", "scribe", "quetre",
	"simplytranslate", "lingva", "libretranslate", "searxng", "searx",
	"whoogle", "rimgo", "breezewiki", "libremdb", "anonymousoverflow",
	"wikiless", "gothub", "librex", "koub",
}

// libredirectNetworks is a mirror's data split by the network it's
// reachable on.
type libredirectNetworks struct {
	Clearnet []string `json:"clearnet"`
	Tor      []string `json:"tor"`
	I2P      []string `json:"i2p"`
	Loki     []string `json:"loki"`
}

// LibredirectUpdater fetches one service's mirror list out of the shared
// LibRedirect instances.json, matched case-insensitively by service name.
type LibredirectUpdater struct {
	InstancesURL string
	ServiceName  string
}

// NewLibredirectUpdater returns an updater scoped to serviceName.
func NewLibredirectUpdater(serviceName string) *LibredirectUpdater {
	return &LibredirectUpdater{
		InstancesURL: "https://raw.githubusercontent.com/libredirect/instances/refs/heads/main/data.json",
		ServiceName:  serviceName,
	}
}

// Update fetches the shared document and returns the union of every
// network's URLs for u.ServiceName. A service absent from the upstream
// document yields an empty (not an error) result.
func (u *LibredirectUpdater) Update(ctx context.Context, client *http.Client) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.InstancesURL, nil)
	if err != nil {
		return nil, fmt.Errorf("libredirect updater(%s): %w", u.ServiceName, err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("libredirect updater(%s): %w", u.ServiceName, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("libredirect updater(%s): %w", u.ServiceName, err)
	}

	var parsed map[string]libredirectNetworks
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("libredirect updater(%s): %w", u.ServiceName, err)
	}

	var data *libredirectNetworks
	for key, v := range parsed {
		if strings.EqualFold(key, u.ServiceName) {
			v := v
			data = &v
			break
		}
	}
	if data == nil {
		return nil, nil
	}

	var urls []string
	urls = append(urls, data.Clearnet...)
	urls = append(urls, data.Tor...)
	urls = append(urls, data.I2P...)
	urls = append(urls, data.Loki...)
	return urls, nil
}
