package host

import "fmt"

// ModuleLoadInfo identifies how a module is obtained: by strong name or by
// file path, never both. It is an immutable comparable value and is used as
// a map key by the resolution cache.
type ModuleLoadInfo struct {
	name string
	path string
}

// ByName returns a ModuleLoadInfo addressing a module by strong name.
func ByName(name string) (ModuleLoadInfo, error) {
	if name == "" {
		return ModuleLoadInfo{}, fmt.Errorf("%w: module name is empty", ErrInvalidArgument)
	}

	return ModuleLoadInfo{name: name}, nil
}

// ByPath returns a ModuleLoadInfo addressing a module by file or directory path.
func ByPath(path string) (ModuleLoadInfo, error) {
	if path == "" {
		return ModuleLoadInfo{}, fmt.Errorf("%w: module path is empty", ErrInvalidArgument)
	}

	return ModuleLoadInfo{path: path}, nil
}

// Name returns the strong name, or "" when the module is addressed by path.
func (m ModuleLoadInfo) Name() string { return m.name }

// Path returns the file path, or "" when the module is addressed by name.
func (m ModuleLoadInfo) Path() string { return m.path }

// IsZero reports whether the value carries no identity at all.
func (m ModuleLoadInfo) IsZero() bool { return m.name == "" && m.path == "" }

// String returns a diagnostic form, e.g. `name "fmt"` or `path "./plugin.go"`.
func (m ModuleLoadInfo) String() string {
	switch {
	case m.name != "":
		return fmt.Sprintf("name %q", m.name)
	case m.path != "":
		return fmt.Sprintf("path %q", m.path)
	default:
		return "<zero module identity>"
	}
}
