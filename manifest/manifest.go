// Package manifest reads plugin.json files into Manifest values.
//
// A plugin lives in its own directory under the plugins root:
//
//	plugins/
//	  example/
//	    plugin.json   {"id": "example", "enabled": true, "provider": "ExampleProvider"}
//	    src/
//
// Only the id is required. Everything else is optional and gets a default.
package manifest

import (
	"path/filepath"
	"sort"
)

// FileName is the manifest file expected in every plugin directory
const FileName = "plugin.json"

// DefaultVersion is used when a manifest has no version
const DefaultVersion = "1.0.0"

// Manifest is the parsed content of one plugin.json
type Manifest struct {
	ID          string            `json:"id" yaml:"id" toml:"id"`
	Name        string            `json:"name,omitempty" yaml:"name,omitempty" toml:"name,omitempty"`
	Description string            `json:"description,omitempty" yaml:"description,omitempty" toml:"description,omitempty"`
	Version     string            `json:"version" yaml:"version" toml:"version"`
	Enabled     bool              `json:"enabled" yaml:"enabled" toml:"enabled"`
	Provider    string            `json:"provider,omitempty" yaml:"provider,omitempty" toml:"provider,omitempty"`
	Namespace   string            `json:"namespace,omitempty" yaml:"namespace,omitempty" toml:"namespace,omitempty"`
	Requires    map[string]string `json:"requires,omitempty" yaml:"requires,omitempty" toml:"requires,omitempty"`

	// Path is the absolute directory holding plugin.json. Never written back.
	Path string `json:"-" yaml:"-" toml:"-"`
}

// File returns the path of the manifest file itself
func (m *Manifest) File() string {
	return filepath.Join(m.Path, FileName)
}

// DirName returns the base name of the plugin directory
func (m *Manifest) DirName() string {
	return filepath.Base(m.Path)
}

// SourceDir returns the conventional source directory of the plugin
func (m *Manifest) SourceDir() string {
	return filepath.Join(m.Path, "src")
}

// DisplayName returns Name, falling back to the id
func (m *Manifest) DisplayName() string {
	if m.Name != "" {
		return m.Name
	}
	return m.ID
}

// RequirementNames returns the keys of Requires in sorted order
func (m *Manifest) RequirementNames() []string {
	names := make([]string, 0, len(m.Requires))
	for name := range m.Requires {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
