package manifest

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/gjson"
)

// Loader reads one manifest file. Registry tests swap in counting fakes.
type Loader interface {
	Load(file string) (*Manifest, error)
}

// FileLoader loads manifests from the local filesystem
type FileLoader struct{}

var _ Loader = FileLoader{}

// Load reads and parses file. A missing file yields *NotFoundError.
func (FileLoader) Load(file string) (*Manifest, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &NotFoundError{Dir: filepath.Dir(file)}
		}
		return nil, &ReadError{Path: file, Err: err}
	}

	dir, err := filepath.Abs(filepath.Dir(file))
	if err != nil {
		return nil, &ReadError{Path: file, Err: err}
	}

	return Parse(data, dir)
}

// Parse builds a Manifest from raw plugin.json bytes found in dir
func Parse(data []byte, dir string) (*Manifest, error) {
	file := filepath.Join(dir, FileName)

	if !gjson.ValidBytes(data) {
		return nil, &ParseError{Path: file, Message: "invalid JSON: " + syntaxMessage(data)}
	}

	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return nil, &ParseError{Path: file, Message: "manifest must be a JSON object"}
	}

	id := strings.TrimSpace(root.Get("id").String())
	if id == "" {
		return nil, &MissingIDError{Path: file}
	}

	m := &Manifest{
		ID:          id,
		Name:        root.Get("name").String(),
		Description: root.Get("description").String(),
		Version:     root.Get("version").String(),
		Enabled:     Truthy(root.Get("enabled")),
		Provider:    strings.TrimSpace(root.Get("provider").String()),
		Namespace:   strings.TrimSpace(root.Get("namespace").String()),
		Path:        dir,
	}
	if m.Version == "" {
		m.Version = DefaultVersion
	}

	if requires := root.Get("requires"); requires.IsObject() {
		m.Requires = make(map[string]string)
		requires.ForEach(func(key, value gjson.Result) bool {
			m.Requires[key.String()] = value.String()
			return true
		})
	}

	return m, nil
}

// Truthy applies loose JSON truthiness: false, null, 0, "", "0", [] and {} are false.
func Truthy(r gjson.Result) bool {
	switch r.Type {
	case gjson.True:
		return true
	case gjson.Number:
		return r.Num != 0
	case gjson.String:
		return r.Str != "" && r.Str != "0"
	case gjson.JSON:
		if r.IsArray() {
			return len(r.Array()) > 0
		}
		return len(r.Map()) > 0
	default:
		return false
	}
}

// syntaxMessage describes why data is not valid JSON
func syntaxMessage(data []byte) string {
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return err.Error()
	}
	return "malformed document"
}
