// Package perms normalizes the permission-key spellings found across tenant
// data into a canonical snake_case set and answers authorization probes over
// it. Everything here is a total function over plain data; unknown or
// malformed input degrades to "no permission", never to an error.
package perms

import (
	"strings"
	"unicode"
)

// Canonical permission keys the marketplace core cares about.
const (
	KeyAdministration = "administration"
	KeyManagement     = "management"
)

// NormalizeKey canonicalizes an arbitrary permission-key spelling into
// snake_case. Delimiters (space, dash, dot, colon, slash, underscore) and
// camelCase boundaries become single underscores; runs of delimiters
// collapse. Input with no letters or digits normalizes to the empty string,
// which is treated everywhere as "no permission".
func NormalizeKey(raw string) string {
	var b strings.Builder
	b.Grow(len(raw) + 4)

	pendingSep := false
	prevLowerOrDigit := false

	for _, r := range raw {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if unicode.IsUpper(r) && prevLowerOrDigit {
				pendingSep = true
			}
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(unicode.ToLower(r))
			prevLowerOrDigit = unicode.IsLower(r) || unicode.IsDigit(r)
		default:
			pendingSep = true
			prevLowerOrDigit = false
		}
	}

	return b.String()
}

// Set is a canonical permission set: normalized key -> granted.
// Only true entries are stored; absent and false are equivalent.
type Set map[string]bool

// FromKeys builds a Set from a list of granted keys.
func FromKeys(keys []string) Set {
	s := make(Set, len(keys))
	for _, k := range keys {
		if nk := NormalizeKey(k); nk != "" {
			s[nk] = true
		}
	}
	return s
}

// FromGrants builds a Set from a key -> granted map, keeping only granted
// entries. Keys are normalized; a key granted under any spelling is granted.
func FromGrants(grants map[string]bool) Set {
	s := make(Set, len(grants))
	for k, granted := range grants {
		if !granted {
			continue
		}
		if nk := NormalizeKey(k); nk != "" {
			s[nk] = true
		}
	}
	return s
}

// Merge returns the OR-union of the receiver and other.
func (s Set) Merge(other Set) Set {
	merged := make(Set, len(s)+len(other))
	for k := range s {
		merged[k] = true
	}
	for k := range other {
		merged[k] = true
	}
	return merged
}

// Has reports whether the set grants the given key. The probe key is
// normalized first, so callers may pass any spelling.
func (s Set) Has(key string) bool {
	nk := NormalizeKey(key)
	if nk == "" {
		return false
	}
	return s[nk]
}

// CanManage reports whether the set carries either management-level grant.
func CanManage(s Set) bool {
	return s.Has(KeyAdministration) || s.Has(KeyManagement)
}
