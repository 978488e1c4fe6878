package manifest

import (
	"github.com/teranos/plugctl/errors"
)

// readErrorPrefix starts every load failure message shown to operators
const readErrorPrefix = "Error reading plugin manifest: "

// ReadError is returned when plugin.json exists but cannot be read
type ReadError struct {
	Path string
	Err  error
}

func (e *ReadError) Error() string {
	return readErrorPrefix + e.Err.Error()
}

func (e *ReadError) Unwrap() error {
	return e.Err
}

// ParseError is returned when plugin.json is not a JSON object
type ParseError struct {
	Path    string
	Message string
}

func (e *ParseError) Error() string {
	return readErrorPrefix + e.Message
}

func (e *ParseError) Is(target error) bool {
	return target == errors.ErrInvalidRequest
}

// MissingIDError is returned when plugin.json has no usable id
type MissingIDError struct {
	Path string
}

func (e *MissingIDError) Error() string {
	return "Plugin manifest missing required 'id' field"
}

func (e *MissingIDError) Is(target error) bool {
	return target == errors.ErrInvalidRequest
}

// NotFoundError is returned when a plugin directory has no plugin.json
type NotFoundError struct {
	Dir string
}

func (e *NotFoundError) Error() string {
	return "Plugin manifest not found"
}

func (e *NotFoundError) Is(target error) bool {
	return target == errors.ErrNotFound
}
