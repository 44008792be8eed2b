package resolver

import "strings"

// IsURLQuery reports whether path should be treated as a full URL to
// match against service regexes, rather than "<alias>/<rest>".
func IsURLQuery(path string) bool {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return true
	}
	lead := path
	if idx := strings.IndexByte(path, '/'); idx >= 0 {
		lead = path[:idx]
	}
	return strings.Contains(lead, ".")
}

// SplitAliasRest splits a non-URL path into its leading alias component
// and the remainder, which keeps its leading slash (or is empty) so that
// resolving it against an instance base URL that itself carries a path
// joins the same way url.Parse(base).ResolveReference(rest) expects.
func SplitAliasRest(path string) (alias, rest string) {
	idx := strings.IndexByte(path, '/')
	if idx < 0 {
		return path, ""
	}
	return path[:idx], path[idx:]
}
