// Package tags recomputes the actualizer's auto-managed instance tags from
// URL scheme, host shape, HTTP Server header, and DNS resolution.
package tags

import (
	"context"
	"net"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"
)

// autoTags are the tags owned and recomputed by the actualizer; any of
// these present on an instance's incoming tag list are stripped before
// recomputation, leaving user tags (proxy names, operator hints) intact.
var autoTags = map[string]struct{}{
	"ipv4": {}, "ipv6": {}, "https": {}, "http": {},
	"tor": {}, "i2p": {}, "ygg": {}, "alfis": {},
	"cloudflare": {}, "clearnet": {},
}

// yggNetwork is the Yggdrasil IPv6 range 200::/7.
var yggNetwork = &net.IPNet{
	IP:   net.ParseIP("200::"),
	Mask: net.CIDRMask(7, 128),
}

// Recompute returns current's tags with every auto tag stripped and the
// freshly computed URL/network/DNS tags unioned in, deduplicated and
// sorted.
func Recompute(ctx context.Context, client *http.Client, rawURL string, current []string) []string {
	kept := map[string]struct{}{}
	for _, t := range current {
		if _, auto := autoTags[t]; !auto {
			kept[t] = struct{}{}
		}
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return sortedKeys(kept)
	}

	urlTags := urlTags(u)
	for t := range urlTags {
		kept[t] = struct{}{}
	}

	hidden := isHiddenNetwork(u.Hostname())

	if !hidden {
		for t := range networkTags(ctx, client, rawURL, u.Hostname()) {
			kept[t] = struct{}{}
		}

		dnsResult := dnsTags(ctx, u.Hostname())
		for t := range dnsResult {
			kept[t] = struct{}{}
		}
		if _, ygg := dnsResult["ygg"]; ygg {
			delete(kept, "clearnet")
		}
	}

	return sortedKeys(kept)
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for t := range set {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// urlTags derives scheme and host-shape tags.
func urlTags(u *url.URL) map[string]struct{} {
	out := map[string]struct{}{}

	switch u.Scheme {
	case "https":
		out["https"] = struct{}{}
	case "http":
		out["http"] = struct{}{}
	}

	host := u.Hostname()
	switch {
	case strings.HasSuffix(host, ".onion"):
		out["tor"] = struct{}{}
		return out
	case strings.HasSuffix(host, ".i2p"):
		out["i2p"] = struct{}{}
		return out
	case strings.HasSuffix(host, ".ygg"):
		out["ygg"] = struct{}{}
		out["alfis"] = struct{}{}
		return out
	}

	if ip := net.ParseIP(host); ip != nil {
		if ip.To4() != nil {
			out["ipv4"] = struct{}{}
		} else {
			out["ipv6"] = struct{}{}
			if yggNetwork.Contains(ip) {
				out["ygg"] = struct{}{}
			}
		}
		return out
	}

	// Not tor/i2p/ygg and not a raw IP: a DNS domain on the clear net.
	out["clearnet"] = struct{}{}
	return out
}

func isHiddenNetwork(host string) bool {
	return strings.HasSuffix(host, ".onion") || strings.HasSuffix(host, ".i2p")
}

// networkTags performs one GET and tags "cloudflare" if the Server header
// names it, skipped for hidden-network hosts by the caller.
func networkTags(ctx context.Context, client *http.Client, rawURL, host string) map[string]struct{} {
	out := map[string]struct{}{}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return out
	}

	resp, err := client.Do(req)
	if err != nil {
		return out
	}
	defer resp.Body.Close()

	server := strings.ToLower(resp.Header.Get("Server"))
	if strings.Contains(server, "cloudflare") {
		out["cloudflare"] = struct{}{}
	}
	return out
}

// dnsTags resolves A and AAAA records for host, following one level of
// CNAME on the A lookup, skipped for hidden-network hosts by the caller.
func dnsTags(ctx context.Context, host string) map[string]struct{} {
	out := map[string]struct{}{}
	resolver := net.DefaultResolver

	cname, err := resolver.LookupCNAME(ctx, host)
	target := host
	if err == nil && cname != "" {
		target = strings.TrimSuffix(cname, ".")
	}

	if ips, err := resolver.LookupIP(ctx, "ip4", target); err == nil {
		for range ips {
			out["ipv4"] = struct{}{}
		}
	}

	if ips, err := resolver.LookupIP(ctx, "ip6", host); err == nil {
		for _, ip := range ips {
			out["ipv6"] = struct{}{}
			if yggNetwork.Contains(ip) {
				out["ygg"] = struct{}{}
			}
		}
	}

	return out
}

// DefaultHTTPClient is a short-timeout client suitable for the one GET
// networkTags issues per instance.
func DefaultHTTPClient() *http.Client {
	return &http.Client{Timeout: 5 * time.Second}
}
