package registry

import (
	"fmt"
	"strings"
)

// ValidationResult classifies one discovery entry
type ValidationResult struct {
	Valid bool   `json:"valid"`
	ID    string `json:"id,omitempty"`
	Error string `json:"error,omitempty"`
}

// Validate reports whether an entry carries a usable manifest.
// A directory whose name differs from the id is still valid here; see ValidateStrict.
func Validate(e Entry) ValidationResult {
	if e.Err != nil {
		return ValidationResult{Valid: false, Error: e.Err.Error()}
	}
	if e.Manifest == nil || strings.TrimSpace(e.Manifest.ID) == "" {
		return ValidationResult{Valid: false, Error: "Plugin ID is missing"}
	}
	return ValidationResult{Valid: true, ID: e.Manifest.ID}
}

// ValidateStrict is Validate plus the requirement that the id equals the directory name.
// Resolve applies this before handing an entry to callers.
func ValidateStrict(e Entry) ValidationResult {
	res := Validate(e)
	if !res.Valid {
		return res
	}
	if dir := e.DirName(); dir != e.Manifest.ID {
		return ValidationResult{Valid: false, ID: e.Manifest.ID, Error: mismatchMessage(dir, e.Manifest.ID)}
	}
	return res
}

func mismatchMessage(dir, id string) string {
	return fmt.Sprintf("Plugin directory %q does not match plugin ID %q", dir, id)
}
