package registry

import (
	"strings"
)

// MaxSuggestions caps the near matches attached to a NotFoundError
const MaxSuggestions = 5

// Resolve finds the entry for a user-supplied identifier.
//
// The identifier is trimmed and compared case-insensitively against manifest
// ids; entries without an id are matched on their directory name instead.
// The first match in discovery order wins. A match that fails ValidateStrict
// is returned together with an *InvalidPluginError so callers that can work
// with a mismatched directory still get the entry. A miss returns a
// *NotFoundError carrying up to MaxSuggestions substring matches.
func (r *Registry) Resolve(identifier string) (Entry, error) {
	needle := strings.TrimSpace(identifier)
	if needle == "" {
		return Entry{}, &NotFoundError{Identifier: needle}
	}

	entries := r.Discover()
	for _, e := range entries {
		if !matches(e, needle) {
			continue
		}
		if res := ValidateStrict(e); !res.Valid {
			return e, &InvalidPluginError{ID: e.Key(), Path: e.Path, Reason: res.Error}
		}
		return e, nil
	}

	return Entry{}, &NotFoundError{Identifier: needle, Suggestions: suggest(entries, needle)}
}

func matches(e Entry, needle string) bool {
	if id := e.ID(); id != "" {
		return strings.EqualFold(id, needle)
	}
	return strings.EqualFold(e.DirName(), needle)
}

// suggest returns entries whose key contains needle, case-insensitively
func suggest(entries []Entry, needle string) []Suggestion {
	lower := strings.ToLower(needle)

	var out []Suggestion
	for _, e := range entries {
		key := e.Key()
		if !strings.Contains(strings.ToLower(key), lower) {
			continue
		}
		res := ValidateStrict(e)
		out = append(out, Suggestion{ID: key, Valid: res.Valid, Reason: res.Error})
		if len(out) == MaxSuggestions {
			break
		}
	}
	return out
}
