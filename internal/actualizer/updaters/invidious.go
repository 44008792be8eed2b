package updaters

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// InvidiousUpdater pulls the api.invidious.io instance directory, grounded
// on fastside-actualizer/src/services/invidious.rs.
type InvidiousUpdater struct {
	InstancesURL string
}

// NewInvidiousUpdater returns an updater pointed at the canonical upstream.
func NewInvidiousUpdater() *InvidiousUpdater {
	return &InvidiousUpdater{InstancesURL: "https://api.invidious.io/instances.json"}
}

// invidiousEntry is one (domain, metadata) pair; the upstream document is
// a JSON array of 2-element arrays, not an object.
type invidiousEntry [2]json.RawMessage

// Update fetches and parses the upstream's array-of-tuples shape,
// defaulting every bare domain to https.
func (u *InvidiousUpdater) Update(ctx context.Context, client *http.Client) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.InstancesURL, nil)
	if err != nil {
		return nil, fmt.Errorf("invidious updater: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("invidious updater: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("invidious updater: %w", err)
	}

	var entries []invidiousEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Errorf("invidious updater: %w", err)
	}

	urls := make([]string, 0, len(entries))
	for _, e := range entries {
		var domain string
		if err := json.Unmarshal(e[0], &domain); err != nil {
			continue
		}
		urls = append(urls, defaultDomainScheme(domain)+domain)
	}
	return urls, nil
}

// defaultDomainScheme returns the scheme prefix to apply to a bare domain
// that doesn't already specify one: onion/i2p mirrors are conventionally
// plain http, everything else defaults to https.
func defaultDomainScheme(domain string) string {
	if strings.HasSuffix(domain, ".onion") || strings.HasSuffix(domain, ".i2p") {
		return "http://"
	}
	return "https://"
}
