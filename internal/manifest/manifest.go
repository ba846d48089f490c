// Package manifest parses the YAML batch-resolution files consumed by the
// symres CLI.
package manifest

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"symres/host"
)

// Manifest is a batch of resolution requests.
type Manifest struct {
	Resolutions []Entry `yaml:"resolutions"`
}

// Entry resolves a set of names against one module.
type Entry struct {
	// Module identifies the module, by name or by path (exactly one).
	Module ModuleRef `yaml:"module"`
	// Inspect selects inspection-only loading for this entry.
	Inspect bool `yaml:"inspect"`
	// Kind filters accepted symbols: any, type, func, var or const.
	// Empty means any.
	Kind string `yaml:"kind"`
	// Names are the symbol names to resolve, possibly partially qualified.
	Names []string `yaml:"names"`
}

// ModuleRef is the YAML form of a module identity.
type ModuleRef struct {
	Name string `yaml:"name"`
	Path string `yaml:"path"`
}

// LoadInfo converts the reference into a module identity.
func (r ModuleRef) LoadInfo() (host.ModuleLoadInfo, error) {
	switch {
	case r.Name != "" && r.Path != "":
		return host.ModuleLoadInfo{}, fmt.Errorf("%w: module name and path are mutually exclusive", host.ErrInvalidArgument)
	case r.Name != "":
		return host.ByName(r.Name)
	default:
		return host.ByPath(r.Path)
	}
}

// Parse decodes and validates a manifest document.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}

	if len(m.Resolutions) == 0 {
		return nil, fmt.Errorf("%w: manifest has no resolutions", host.ErrInvalidArgument)
	}

	for i, e := range m.Resolutions {
		if _, err := e.Module.LoadInfo(); err != nil {
			return nil, fmt.Errorf("resolution %d: %w", i, err)
		}

		if len(e.Names) == 0 {
			return nil, fmt.Errorf("%w: resolution %d has no names", host.ErrInvalidArgument, i)
		}

		switch e.Kind {
		case "", "any", "type", "func", "var", "const":
		default:
			return nil, fmt.Errorf("%w: resolution %d has unknown kind %q", host.ErrInvalidArgument, i, e.Kind)
		}
	}

	return &m, nil
}

// Load reads and parses a manifest file.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	return Parse(data)
}
