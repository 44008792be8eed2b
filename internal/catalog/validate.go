package catalog

import (
	"fmt"
	"net/url"
	"regexp"
)

// Report is the structured result of Validate: any Errors fail validation;
// Warnings and Notices are informational.
type Report struct {
	Errors   []string
	Warnings []string
	Notices  []string
}

// OK reports whether the catalog passed validation.
func (r Report) OK() bool {
	return len(r.Errors) == 0
}

// Validate enforces the catalog invariants from the data model:
//   - every regex compiles
//   - every instance URL has a host
//   - service names and aliases match ^[a-z0-9-]+$
//   - instance URLs are globally unique
//   - aliases are globally unique
//   - a service with zero instances must carry a deprecated_message
func Validate(d *StoredData) Report {
	var r Report

	seenURLs := map[string]string{}  // url -> owning service
	seenAlias := map[string]string{} // alias -> owning service

	for si := range d.Services {
		svc := &d.Services[si]

		if !aliasNamePattern.MatchString(svc.Name) {
			r.Errors = append(r.Errors, fmt.Sprintf("service %q: name must match %s", svc.Name, aliasNamePattern.String()))
		}

		for _, alias := range svc.Aliases {
			if !aliasNamePattern.MatchString(alias) {
				r.Errors = append(r.Errors, fmt.Sprintf("service %q: alias %q must match %s", svc.Name, alias, aliasNamePattern.String()))
			}
			if owner, ok := seenAlias[alias]; ok {
				r.Errors = append(r.Errors, fmt.Sprintf("alias %q used by both %q and %q", alias, owner, svc.Name))
			} else {
				seenAlias[alias] = svc.Name
			}
		}

		for ri, rx := range svc.Regexes {
			compiled, err := regexp.Compile(rx.Pattern)
			if err != nil {
				r.Errors = append(r.Errors, fmt.Sprintf("service %q: regex %d %q does not compile: %v", svc.Name, ri, rx.Pattern, err))
				continue
			}
			svc.Regexes[ri].Compiled = compiled
		}

		for _, inst := range svc.Instances {
			u, err := url.Parse(inst.URL)
			if err != nil || u.Host == "" {
				r.Errors = append(r.Errors, fmt.Sprintf("service %q: instance %q has no host", svc.Name, inst.URL))
				continue
			}
			if owner, ok := seenURLs[inst.URL]; ok {
				r.Errors = append(r.Errors, fmt.Sprintf("instance url %q used by both %q and %q", inst.URL, owner, svc.Name))
			} else {
				seenURLs[inst.URL] = svc.Name
			}
		}

		if len(svc.Instances) == 0 && svc.DeprecatedMessage == "" {
			r.Errors = append(r.Errors, fmt.Sprintf("service %q: has zero instances but no deprecated_message", svc.Name))
		}

		if svc.TestURL == "" {
			svc.TestURL = "/"
			r.Notices = append(r.Notices, fmt.Sprintf("service %q: test_url defaulted to \"/\"", svc.Name))
		}

		if len(svc.AllowedHTTPCodes.codes) == 0 && len(svc.AllowedHTTPCodes.ranges) == 0 {
			svc.AllowedHTTPCodes = DefaultCodeSet()
			r.Notices = append(r.Notices, fmt.Sprintf("service %q: allowed_http_codes defaulted to 200..=299", svc.Name))
		}

		if len(svc.Instances) > 0 && len(svc.Instances) < 2 {
			r.Warnings = append(r.Warnings, fmt.Sprintf("service %q: only one instance configured", svc.Name))
		}
	}

	return r
}
