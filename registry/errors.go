package registry

import (
	"fmt"
	"strings"

	"github.com/teranos/plugctl/errors"
)

// Suggestion is a near match offered when resolution fails
type Suggestion struct {
	ID     string
	Valid  bool
	Reason string
}

func (s Suggestion) String() string {
	if s.Valid {
		return s.ID
	}
	return fmt.Sprintf("%s (invalid: %s)", s.ID, s.Reason)
}

// NotFoundError is returned when no entry matches an identifier
type NotFoundError struct {
	Identifier  string
	Suggestions []Suggestion
}

func (e *NotFoundError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Plugin '%s' not found.", e.Identifier)
	if len(e.Suggestions) > 0 {
		b.WriteString(" Did you mean one of these?")
		for _, s := range e.Suggestions {
			b.WriteString("\n  - ")
			b.WriteString(s.String())
		}
	}
	return b.String()
}

func (e *NotFoundError) Is(target error) bool {
	return target == errors.ErrNotFound
}

// InvalidPluginError is returned when the matching entry fails strict validation
type InvalidPluginError struct {
	ID     string
	Path   string
	Reason string
}

func (e *InvalidPluginError) Error() string {
	return fmt.Sprintf("Plugin '%s' is invalid: %s", e.ID, e.Reason)
}

func (e *InvalidPluginError) Is(target error) bool {
	return target == errors.ErrInvalidRequest
}

// WriteError is returned when a manifest could not be rewritten
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("Failed to write plugin manifest %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

func (e *WriteError) Is(target error) bool {
	return target == errors.ErrWrite
}
