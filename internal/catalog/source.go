package catalog

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// IsRemoteSource reports whether src names an HTTPS URL rather than a
// filesystem path — auto-detected the way the CLI's SRC argument is.
func IsRemoteSource(src string) bool {
	return strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://")
}

// LoadFromSource loads a catalog from either a filesystem path or an
// HTTPS URL, auto-detecting by URL parse.
func LoadFromSource(src string) (*StoredData, error) {
	if !IsRemoteSource(src) {
		return Load(src)
	}

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Get(src)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch catalog from %s: %w", src, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch catalog from %s: status %d", src, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog body from %s: %w", src, err)
	}

	return Parse(body)
}
