// Package identity implements the identifier and versioning policy shared by
// all persisted entities.
package identity

import (
	"strings"

	"github.com/google/uuid"
)

// Prefixes for generated identifiers, one per entity kind.
const (
	DashboardPrefix = "dash_"
	VariablePrefix  = "var_"
	TemplatePrefix  = "tpl_"
	SessionPrefix   = "session_"
)

// InitialVersion is the version assigned to every newly created versioned
// entity. Repositories increment it by exactly 1 on each successful update.
const InitialVersion = 1

// NewID returns a fresh identifier: the prefix followed by 128 bits of
// UUID entropy in hex. Collisions are not checked against the store.
func NewID(prefix string) string {
	return prefix + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// EnsureID returns the caller-supplied candidate when it is present and
// well-formed, otherwise a newly generated identifier.
func EnsureID(prefix, candidate string) string {
	candidate = strings.TrimSpace(candidate)
	if WellFormed(candidate) {
		return candidate
	}
	return NewID(prefix)
}

// WellFormed reports whether id is acceptable as a stable identifier:
// non-empty, no whitespace, and short enough for the indexed columns.
func WellFormed(id string) bool {
	if id == "" || len(id) > 128 {
		return false
	}
	return !strings.ContainsAny(id, " \t\n\r")
}
