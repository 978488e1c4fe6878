package manifest

import (
	"os"
	"path/filepath"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"

	"github.com/teranos/plugctl/errors"
)

// prettyOptions formats rewritten manifests: 2-space indent, key order kept
var prettyOptions = &pretty.Options{
	Width:    80,
	Prefix:   "",
	Indent:   "  ",
	SortKeys: false,
}

// EnabledValue reports the enabled flag as currently stored in raw manifest bytes
func EnabledValue(data []byte) bool {
	return Truthy(gjson.GetBytes(data, "enabled"))
}

// Check returns a *ParseError unless data is a well-formed JSON object
func Check(data []byte) error {
	if !gjson.ValidBytes(data) {
		return &ParseError{Message: "invalid JSON: " + syntaxMessage(data)}
	}
	if !gjson.ParseBytes(data).IsObject() {
		return &ParseError{Message: "manifest must be a JSON object"}
	}
	return nil
}

// WithEnabled returns data with "enabled" set to a JSON boolean and pretty-printed.
// Every other key and its position are left as they were.
func WithEnabled(data []byte, enabled bool) ([]byte, error) {
	if err := Check(data); err != nil {
		return nil, err
	}

	out, err := sjson.SetBytes(data, "enabled", enabled)
	if err != nil {
		return nil, errors.Wrap(err, "failed to set enabled")
	}
	return pretty.PrettyOptions(out, prettyOptions), nil
}

// WriteFile replaces file with data via a temp file in the same directory and a rename.
// The original file mode is kept.
func WriteFile(file string, data []byte) error {
	mode := os.FileMode(0644)
	if info, err := os.Stat(file); err == nil {
		mode = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(filepath.Dir(file), "."+filepath.Base(file)+".*.tmp")
	if err != nil {
		return errors.Wrap(err, "failed to create temp file")
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		cleanup()
		return errors.Wrap(err, "failed to write temp file")
	}
	if err := tmp.Chmod(mode); err != nil {
		tmp.Close()
		cleanup()
		return errors.Wrap(err, "failed to set file mode")
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return errors.Wrap(err, "failed to close temp file")
	}
	if err := os.Rename(tmpName, file); err != nil {
		cleanup()
		return errors.Wrapf(err, "failed to replace %s", file)
	}
	return nil
}
