package cache

import (
	"net/url"
	"sort"
	"strings"
)

// Key identifies a cached result.
type Key struct {
	// Resource is the logical collection (e.g. "users").
	Resource string

	// Params narrow the resource. Nil for the whole collection.
	Params url.Values
}

// String generates a deterministic key string.
// Format: directory:resource:param1=a,b:param2=c
//
// Example:
//
//	directory:users:role=admin
func (k Key) String() string {
	parts := []string{"directory"}

	resource := strings.Trim(k.Resource, "/")
	if resource != "" {
		parts = append(parts, resource)
	}

	if len(k.Params) > 0 {
		names := make([]string, 0, len(k.Params))
		for name := range k.Params {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			values := append([]string(nil), k.Params[name]...)
			sort.Strings(values)
			parts = append(parts, name+"="+strings.Join(values, ","))
		}
	}

	return strings.Join(parts, ":")
}
