// Package catalog models the Fastside services catalog: the ordered list
// of services, each with its instances, tags, and URL-matching rules.
package catalog

import (
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Instance is one mirror URL of a service with associated tags.
// Equality, ordering, and deduplication are all by URL.
type Instance struct {
	URL  string              `json:"url"`
	Tags map[string]struct{} `json:"-"`
}

// NewInstance creates an instance with a normalized (sorted, deduped) tag set.
func NewInstance(rawURL string, tags []string) Instance {
	return Instance{URL: rawURL, Tags: tagSet(tags)}
}

func tagSet(tags []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		if t != "" {
			set[t] = struct{}{}
		}
	}
	return set
}

// TagList returns the instance's tags sorted for deterministic output.
func (i Instance) TagList() []string {
	out := make([]string, 0, len(i.Tags))
	for t := range i.Tags {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// HasTag reports whether the instance carries the given tag.
func (i Instance) HasTag(tag string) bool {
	_, ok := i.Tags[tag]
	return ok
}

// HasAllTags reports whether the instance's tag set is a superset of required.
func (i Instance) HasAllTags(required map[string]struct{}) bool {
	for t := range required {
		if _, ok := i.Tags[t]; !ok {
			return false
		}
	}
	return true
}

// HasAnyTag reports whether the instance's tag set intersects forbidden.
func (i Instance) HasAnyTag(forbidden map[string]struct{}) bool {
	for t := range forbidden {
		if _, ok := i.Tags[t]; ok {
			return true
		}
	}
	return false
}

// instanceJSON is the canonical wire representation: {url, tags: [...sorted]}.
type instanceJSON struct {
	URL  string   `json:"url"`
	Tags []string `json:"tags"`
}

// MarshalJSON implements canonical instance serialization.
func (i Instance) MarshalJSON() ([]byte, error) {
	return json.Marshal(instanceJSON{URL: i.URL, Tags: i.TagList()})
}

// UnmarshalJSON parses an instance from its canonical wire representation.
func (i *Instance) UnmarshalJSON(data []byte) error {
	var raw instanceJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	i.URL = raw.URL
	i.Tags = tagSet(raw.Tags)
	return nil
}

// Host returns the instance URL's host, or "" if the URL fails to parse.
func (i Instance) Host() string {
	u, err := url.Parse(i.URL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

// Regex pairs a compiled URL matcher with its rewrite template.
type Regex struct {
	Pattern  string         `json:"regex"`
	Compiled *regexp.Regexp `json:"-"`
	Template string         `json:"url_template"`
}

// Service is a logical destination (e.g. a search engine) with many
// instances and URL-matching rules.
type Service struct {
	Name              string     `json:"type"`
	TestURL           string     `json:"test_url"`
	Fallback          string     `json:"fallback,omitempty"`
	FollowRedirects   bool       `json:"follow_redirects"`
	AllowedHTTPCodes  CodeSet    `json:"allowed_http_codes"`
	SearchString      string     `json:"search_string,omitempty"`
	Regexes           []Regex    `json:"regexes,omitempty"`
	Aliases           []string   `json:"aliases,omitempty"`
	SourceLink        string     `json:"source_link,omitempty"`
	DeprecatedMessage string     `json:"deprecated_message,omitempty"`
	Instances         []Instance `json:"instances"`
}

// HasFallback reports whether this service declares a fallback URL.
func (s Service) HasFallback() bool {
	return s.Fallback != ""
}

// aliasNamePattern is the service-name / alias grammar from the catalog
// validator: lowercase letters, digits, and hyphens only.
var aliasNamePattern = regexp.MustCompile(`^[a-z0-9-]+$`)

// CodeSet is a union of discrete HTTP status codes and inclusive/exclusive
// ranges, e.g. "200,300..=399,404".
type CodeSet struct {
	codes  map[int]struct{}
	ranges []codeRange
}

type codeRange struct {
	lo, hi int // inclusive lo, inclusive hi (..= ranges store M as parsed; .. ranges store M-1)
}

// DefaultCodeSet returns the 200..=299 range used when a service omits
// allowed_http_codes in the catalog JSON.
func DefaultCodeSet() CodeSet {
	cs, _ := ParseCodeSet("200..=299")
	return cs
}

// ParseCodeSet parses the comma-separated mini-grammar: tokens are either
// "N", "N..=M" (inclusive), or "N..M" (exclusive of M).
func ParseCodeSet(s string) (CodeSet, error) {
	cs := CodeSet{codes: map[int]struct{}{}}
	s = strings.TrimSpace(s)
	if s == "" {
		return cs, nil
	}
	for _, tok := range strings.Split(s, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		if idx := strings.Index(tok, "..="); idx >= 0 {
			lo, err := strconv.Atoi(strings.TrimSpace(tok[:idx]))
			if err != nil {
				return cs, fmt.Errorf("invalid code set token %q: %w", tok, err)
			}
			hi, err := strconv.Atoi(strings.TrimSpace(tok[idx+3:]))
			if err != nil {
				return cs, fmt.Errorf("invalid code set token %q: %w", tok, err)
			}
			cs.ranges = append(cs.ranges, codeRange{lo: lo, hi: hi})
			continue
		}
		if idx := strings.Index(tok, ".."); idx >= 0 {
			lo, err := strconv.Atoi(strings.TrimSpace(tok[:idx]))
			if err != nil {
				return cs, fmt.Errorf("invalid code set token %q: %w", tok, err)
			}
			hi, err := strconv.Atoi(strings.TrimSpace(tok[idx+2:]))
			if err != nil {
				return cs, fmt.Errorf("invalid code set token %q: %w", tok, err)
			}
			cs.ranges = append(cs.ranges, codeRange{lo: lo, hi: hi - 1})
			continue
		}
		n, err := strconv.Atoi(tok)
		if err != nil {
			return cs, fmt.Errorf("invalid code set token %q: %w", tok, err)
		}
		cs.codes[n] = struct{}{}
	}
	return cs, nil
}

// IsAllowed reports whether code is a member of the set.
func (cs CodeSet) IsAllowed(code int) bool {
	if _, ok := cs.codes[code]; ok {
		return true
	}
	for _, r := range cs.ranges {
		if code >= r.lo && code <= r.hi {
			return true
		}
	}
	return false
}

// String serializes the set back to its comma-separated form. Discrete
// codes are emitted in ascending order, then ranges in the order added.
func (cs CodeSet) String() string {
	var parts []string
	codes := make([]int, 0, len(cs.codes))
	for c := range cs.codes {
		codes = append(codes, c)
	}
	sort.Ints(codes)
	for _, c := range codes {
		parts = append(parts, strconv.Itoa(c))
	}
	for _, r := range cs.ranges {
		parts = append(parts, fmt.Sprintf("%d..=%d", r.lo, r.hi))
	}
	return strings.Join(parts, ",")
}

// MarshalJSON serializes the CodeSet as its comma-separated string form.
func (cs CodeSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(cs.String())
}

// UnmarshalJSON parses the CodeSet from its comma-separated string form.
func (cs *CodeSet) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseCodeSet(s)
	if err != nil {
		return err
	}
	*cs = parsed
	return nil
}

// StoredData is the catalog: an ordered list of services, canonicalized
// on write (services sorted by name, instances sorted by URL, tags
// sorted and deduped).
type StoredData struct {
	Services []Service `json:"services"`
}

// Canonicalize sorts services by name and instances by URL within each
// service. Tag sets are left as they are: they are already deduped sets
// and marshal sorted. Idempotent.
func (d *StoredData) Canonicalize() {
	sort.Slice(d.Services, func(i, j int) bool { return d.Services[i].Name < d.Services[j].Name })
	for si := range d.Services {
		insts := d.Services[si].Instances
		sort.Slice(insts, func(i, j int) bool { return insts[i].URL < insts[j].URL })
	}
}

// ByName returns the service with the given name, if present.
func (d *StoredData) ByName(name string) (Service, bool) {
	for _, s := range d.Services {
		if s.Name == name {
			return s, true
		}
	}
	return Service{}, false
}

// ByAlias returns the first service whose aliases contain alias.
func (d *StoredData) ByAlias(alias string) (Service, bool) {
	for _, s := range d.Services {
		for _, a := range s.Aliases {
			if a == alias {
				return s, true
			}
		}
	}
	return Service{}, false
}
