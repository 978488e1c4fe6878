package registry

import (
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/teranos/plugctl/manifest"
)

// RequirementStatus is the outcome of checking one requires entry
type RequirementStatus struct {
	Name       string `json:"name" yaml:"name" toml:"name"`
	Constraint string `json:"constraint" yaml:"constraint" toml:"constraint"`
	Installed  string `json:"installed,omitempty" yaml:"installed,omitempty" toml:"installed,omitempty"`
	Known      bool   `json:"known" yaml:"known" toml:"known"`
	Satisfied  bool   `json:"satisfied" yaml:"satisfied" toml:"satisfied"`
	Error      string `json:"error,omitempty" yaml:"error,omitempty" toml:"error,omitempty"`
}

// CheckRequirements checks each requires constraint of m against the available
// package versions. Results are sorted by package name.
func CheckRequirements(m *manifest.Manifest, available map[string]string) []RequirementStatus {
	if m == nil {
		return nil
	}

	out := make([]RequirementStatus, 0, len(m.Requires))
	for _, name := range m.RequirementNames() {
		status := RequirementStatus{Name: name, Constraint: m.Requires[name]}

		installed, ok := lookupPackage(available, name)
		if !ok {
			out = append(out, status)
			continue
		}
		status.Known = true
		status.Installed = installed

		constraint, err := semver.NewConstraint(status.Constraint)
		if err != nil {
			status.Error = "invalid constraint: " + err.Error()
			out = append(out, status)
			continue
		}
		version, err := semver.NewVersion(installed)
		if err != nil {
			status.Error = "invalid installed version: " + err.Error()
			out = append(out, status)
			continue
		}

		status.Satisfied = constraint.Check(version)
		out = append(out, status)
	}
	return out
}

// Unsatisfied filters statuses down to the ones that fail
func Unsatisfied(statuses []RequirementStatus) []RequirementStatus {
	var out []RequirementStatus
	for _, s := range statuses {
		if !s.Satisfied {
			out = append(out, s)
		}
	}
	return out
}

// lookupPackage matches exactly first, then case-insensitively (config keys arrive lowercased)
func lookupPackage(available map[string]string, name string) (string, bool) {
	if v, ok := available[name]; ok {
		return v, true
	}
	for k, v := range available {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	return "", false
}
