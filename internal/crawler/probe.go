package crawler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/fastside/fastside/internal/catalog"
	"github.com/fastside/fastside/internal/probeclient"
)

// Probe runs the per-instance probe algorithm (§4.3): resolve the test
// URL, issue the GET, classify the outcome. The ctx deadline, if any,
// governs the whole attempt including body reads.
func Probe(ctx context.Context, client *http.Client, svc catalog.Service, inst catalog.Instance) CrawledInstance {
	result := CrawledInstance{URL: inst.URL, Tags: inst.Tags}

	testURL, err := resolveTestURL(inst.URL, svc.TestURL)
	if err != nil {
		result.Status = ProbeStatus{Kind: StatusRequest}
		return result
	}

	req, err := probeclient.NewRequest(testURL)
	if err != nil {
		result.Status = ProbeStatus{Kind: StatusBuilder}
		return result
	}
	req = req.WithContext(ctx)

	t0 := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		result.Status = classifyTransportError(err)
		return result
	}
	defer resp.Body.Close()

	if !svc.AllowedHTTPCodes.IsAllowed(resp.StatusCode) {
		t1 := time.Now()
		result.Status = ProbeStatus{Kind: StatusInvalidStatusCode, Code: resp.StatusCode, Duration: t1.Sub(t0)}
		return result
	}

	if svc.SearchString == "" {
		t1 := time.Now()
		result.Status = ProbeStatus{Kind: StatusOk, Duration: t1.Sub(t0)}
		return result
	}

	body, err := io.ReadAll(resp.Body)
	t1 := time.Now()
	if err != nil {
		result.Status = ProbeStatus{Kind: StatusBody}
		return result
	}
	if !strings.Contains(string(body), svc.SearchString) {
		result.Status = ProbeStatus{Kind: StatusStringNotFound}
		return result
	}
	result.Status = ProbeStatus{Kind: StatusOk, Duration: t1.Sub(t0)}
	return result
}

// resolveTestURL joins a service's relative test_url against an
// instance's absolute base URL.
func resolveTestURL(base, testPath string) (string, error) {
	baseURL, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	ref, err := url.Parse(testPath)
	if err != nil {
		return "", err
	}
	return baseURL.ResolveReference(ref).String(), nil
}

// classifyTransportError maps a client.Do error to the probe status
// taxonomy by first-matching predicate.
func classifyTransportError(err error) ProbeStatus {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		if urlErr.Timeout() {
			return ProbeStatus{Kind: StatusTimedOut}
		}
		if errors.Is(urlErr.Err, http.ErrUseLastResponse) {
			return ProbeStatus{Kind: StatusRedirectPolicy}
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ProbeStatus{Kind: StatusTimedOut}
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "no route to host"),
		strings.Contains(msg, "connection refused"),
		strings.Contains(msg, "no such host"),
		strings.Contains(msg, "network is unreachable"):
		return ProbeStatus{Kind: StatusConnection}
	case strings.Contains(msg, "redirect"):
		return ProbeStatus{Kind: StatusRedirectPolicy}
	case strings.Contains(msg, "decode"), strings.Contains(msg, "tls"):
		return ProbeStatus{Kind: StatusDecode}
	}
	return ProbeStatus{Kind: StatusUnknown}
}
