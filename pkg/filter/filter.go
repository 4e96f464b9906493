// Package filter narrows an entity list by free-text search and role.
//
// Apply is a pure function: the input list is never modified and the
// relative order of the surviving entities is preserved.
package filter

import (
	"slices"
	"strings"

	"golang.org/x/text/cases"

	"github.com/Sternrassler/directory-client/pkg/directory"
)

// State is the active filter. An empty field means "no constraint".
type State struct {
	SearchTerm string `json:"search_term"`
	Role       string `json:"role"`
}

// Active reports whether any constraint is set.
func (s State) Active() bool {
	return s.SearchTerm != "" || s.Role != ""
}

// Apply returns the entities that pass every active predicate.
// The result is never nil.
func Apply(entities directory.EntityList, state State) directory.EntityList {
	// cases.Caser is stateful, so each call gets its own.
	folder := cases.Fold()
	term := folder.String(state.SearchTerm)

	out := make(directory.EntityList, 0, len(entities))
	for _, e := range entities {
		if !matchesRole(e, state.Role) {
			continue
		}
		if !matchesSearch(folder, e, term) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// matchesRole is an exact, case-sensitive comparison.
func matchesRole(e directory.Entity, role string) bool {
	return role == "" || e.Role == role
}

// matchesSearch expects foldedTerm to be case folded already.
func matchesSearch(folder cases.Caser, e directory.Entity, foldedTerm string) bool {
	if foldedTerm == "" {
		return true
	}
	haystack := strings.Join([]string{e.FirstName, e.LastName, e.Username, e.Email}, " ")
	return strings.Contains(folder.String(haystack), foldedTerm)
}

// RoleOptions returns the distinct non-empty roles present in entities,
// sorted ascending (case-sensitive).
func RoleOptions(entities directory.EntityList) []string {
	seen := make(map[string]struct{}, len(entities))
	roles := make([]string, 0)
	for _, e := range entities {
		if e.Role == "" {
			continue
		}
		if _, ok := seen[e.Role]; ok {
			continue
		}
		seen[e.Role] = struct{}{}
		roles = append(roles, e.Role)
	}
	slices.Sort(roles)
	return roles
}
