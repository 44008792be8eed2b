// Package probeclient builds the per-(service,instance) HTTP client the
// crawler and actualizer use to issue probes, following the teacher's
// NewDefaultHTTPClient / NewHTTPClientWithAuth factory shape in
// internal/httpclient adapted to redirect-policy and proxy selection
// instead of cookie-jar authentication.
package probeclient

import (
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/fastside/fastside/internal/catalog"
)

// DefaultUserAgent is the stable Firefox-like identity Fastside probes
// present to upstream mirrors.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:128.0) Gecko/20100101 Firefox/128.0"

// Proxy names one outbound proxy selectable via an instance's tags.
type Proxy struct {
	Name     string
	URL      string
	Username string
	Password string
}

// Options configures New.
type Options struct {
	FollowRedirects bool
	Timeout         time.Duration
	Proxies         []Proxy
}

// New builds an HTTP client for one (service, instance) probe, applying
// the redirect policy, timeout, and tag-selected proxy from spec.md §4.1.
// The default probe headers are not set here; NewRequest sets them.
//
// Returns an error if a matching proxy's URL fails to parse — callers
// should surface that as the Builder probe status.
func New(opts Options, instanceTags map[string]struct{}) (*http.Client, error) {
	transport := &http.Transport{}

	for _, p := range opts.Proxies {
		if _, tagged := instanceTags[p.Name]; !tagged {
			continue
		}

		proxyURL, err := url.Parse(p.URL)
		if err != nil {
			return nil, fmt.Errorf("probeclient: invalid proxy url for %q: %w", p.Name, err)
		}
		if p.Username != "" {
			proxyURL.User = url.UserPassword(p.Username, p.Password)
		}
		transport.Proxy = http.ProxyURL(proxyURL)
		break // only the first matching proxy is used
	}

	client := &http.Client{
		Transport: transport,
		Timeout:   opts.Timeout,
	}

	if !opts.FollowRedirects {
		client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}

	return client, nil
}

// NewRequest builds the GET request for testURL with Fastside's default
// probe headers.
func NewRequest(testURL string) (*http.Request, error) {
	req, err := http.NewRequest(http.MethodGet, testURL, nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", DefaultUserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
	req.Header.Set("X-Is-Fastside", "true")

	return req, nil
}

// OptionsFromService builds client Options from a service's redirect
// policy and the crawler's shared timeout/proxy configuration.
func OptionsFromService(svc catalog.Service, timeout time.Duration, proxies []Proxy) Options {
	return Options{
		FollowRedirects: svc.FollowRedirects,
		Timeout:         timeout,
		Proxies:         proxies,
	}
}
