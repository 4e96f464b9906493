package httpcache

import (
	"net/url"
	"sort"
	"strings"
)

// KeyFor derives a deterministic Redis key for a request URL.
// Format: directory:http:host/path:q1=v1:q2=v2
//
// Example:
//
//	directory:http:api.example.com/users:limit=50
func KeyFor(u *url.URL) string {
	parts := []string{"directory", "http"}
	if u == nil {
		return strings.Join(parts, ":")
	}

	target := strings.TrimSuffix(u.Host+u.EscapedPath(), "/")
	if target != "" {
		parts = append(parts, target)
	}

	query := u.Query()
	if len(query) > 0 {
		keys := make([]string, 0, len(query))
		for k := range query {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, k := range keys {
			values := append([]string(nil), query[k]...)
			sort.Strings(values)
			parts = append(parts, k+"="+strings.Join(values, ","))
		}
	}

	return strings.Join(parts, ":")
}
