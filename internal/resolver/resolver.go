package resolver

import (
	"net/url"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/fastside/fastside/internal/catalog"
	"github.com/fastside/fastside/internal/crawler"
	"github.com/fastside/fastside/internal/userconfig"
)

// Resolver ties the catalog and crawler together to turn an incoming
// request path into a redirect target.
type Resolver struct {
	catalog *catalog.Store
	crawler *crawler.Crawler
	logger  arbor.ILogger
}

// New creates a Resolver bound to the shared catalog store and crawler.
func New(store *catalog.Store, cr *crawler.Crawler, logger arbor.ILogger) *Resolver {
	return &Resolver{catalog: store, crawler: cr, logger: logger}
}

// Result is a fully assembled redirect outcome.
type Result struct {
	URL        string
	IsFallback bool
}

// Resolve turns a request path (without the leading slash) and its raw
// query string into a redirect Result, per §4.4 and §4.4.3.
func (r *Resolver) Resolve(path, rawQuery string, cfg userconfig.Config) (Result, *Error) {
	snapshot, ok := r.crawler.Snapshot()
	if !ok {
		return Result{}, newError(ErrCrawlerNotFetchedYet, "crawler has not completed its first pass yet")
	}

	data := r.catalog.Get()

	var svc catalog.Service
	var redirPath string

	if IsURLQuery(path) {
		matched, captures, template, found := matchRegex(data, path)
		if !found {
			return Result{}, newError(ErrServiceNotFound, "no service regex matched %q", path)
		}
		svc = matched

		rewritten, err := Substitute(template, captures)
		if err != nil {
			return Result{}, err.(*Error)
		}
		redirPath = rewritten
	} else {
		alias, rest := SplitAliasRest(path)
		found, ok := ResolveAlias(data, alias)
		if !ok {
			return Result{}, newError(ErrServiceNotFound, "no service or alias named %q", alias)
		}
		svc = found
		redirPath = rest
	}

	crawledSvc, ok := snapshot.ServicesByName[svc.Name]
	if !ok {
		crawledSvc = crawler.CrawledService{Name: svc.Name}
	}

	selected, selErr := SelectInstance(svc, crawledSvc, cfg)
	if selErr != nil {
		return Result{}, selErr
	}

	final, err := assembleURL(selected.URL, redirPath, rawQuery)
	if err != nil {
		return Result{}, newError(ErrURLParse, "failed to assemble redirect url: %v", err)
	}

	return Result{URL: final, IsFallback: selected.IsFallback}, nil
}

// ResolveAlias implements §4.4 alias resolution: exact service-name match
// first, then the first service whose aliases contain query.
func ResolveAlias(data *catalog.StoredData, query string) (catalog.Service, bool) {
	if svc, ok := data.ByName(query); ok {
		return svc, true
	}
	return data.ByAlias(query)
}

// matchRegex iterates services in catalog order, then each service's
// regexes in order; the first match wins.
func matchRegex(data *catalog.StoredData, path string) (catalog.Service, []string, string, bool) {
	for _, svc := range data.Services {
		for _, re := range svc.Regexes {
			if re.Compiled == nil {
				continue
			}
			captures := re.Compiled.FindStringSubmatch(path)
			if captures != nil {
				return svc, captures, re.Template, true
			}
		}
	}
	return catalog.Service{}, nil, "", false
}

// assembleURL resolves redirPath against the instance's base URL and
// reattaches the original query string, preserving key order as received.
func assembleURL(baseURL, redirPath, rawQuery string) (string, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return "", err
	}
	ref, err := url.Parse(redirPath)
	if err != nil {
		return "", err
	}
	final := base.ResolveReference(ref)

	if rawQuery != "" {
		if final.RawQuery == "" {
			final.RawQuery = rawQuery
		} else {
			final.RawQuery = final.RawQuery + "&" + rawQuery
		}
	}

	return final.String(), nil
}

// ShouldShowFallbackWarning reports whether a resolved fallback result
// should render the 15-second meta-refresh warning page instead of an
// immediate 307, per §4.4.3.
func ShouldShowFallbackWarning(isFallback bool, cfg userconfig.Config, method string) bool {
	return isFallback && !cfg.IgnoreFallbackWarning && strings.EqualFold(method, "GET")
}
