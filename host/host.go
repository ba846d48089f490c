// Package host defines the module-host contract the resolver is built on:
// how a loadable module is addressed, loaded into the process, probed for a
// single qualified name, and enumerated for its exported symbols.
//
// Key capabilities:
//   - ModuleLoadInfo: value identity for a module (strong name or file path)
//   - Symbol: one exported candidate found inside a module
//   - Host: the loading/introspection facility the resolver delegates to
package host

import (
	"context"
	"errors"
)

// ErrModuleNotFound indicates a module identity that is malformed or cannot
// be located by the host. It wraps the underlying load failure.
var ErrModuleNotFound = errors.New("module not found")

// ErrInvalidArgument indicates a required input that is missing or
// mutually exclusive inputs that were both supplied.
var ErrInvalidArgument = errors.New("invalid argument")

// SymbolKind classifies an exported symbol.
type SymbolKind int

const (
	KindUnknown SymbolKind = iota
	KindType
	KindFunc
	KindVar
	KindConst
)

// String returns a human-readable kind name.
func (k SymbolKind) String() string {
	switch k {
	case KindType:
		return "type"
	case KindFunc:
		return "func"
	case KindVar:
		return "var"
	case KindConst:
		return "const"
	default:
		return "unknown"
	}
}

// Symbol is one exported candidate found inside a module.
type Symbol struct {
	// QualifiedName is the host-assigned fully qualified name,
	// e.g. "tasks.CscTask". Segments are separated by '.' or '+';
	// a separator preceded by an odd number of backslashes is escaped.
	QualifiedName string
	// Name is the bare symbol name (the last segment).
	Name string
	// Kind classifies the symbol.
	Kind SymbolKind
	// Value is the host-specific payload: a types.Object for static hosts,
	// a reflect.Value for executing hosts. Predicates may inspect it.
	Value any
}

// Module is an opaque handle to a loaded module image. Hosts retain their
// handles for process lifetime; there is no unload.
type Module interface {
	// Path identifies the loaded unit (import path or file path).
	Path() string
}

// Host loads modules and introspects their exported symbols.
//
// Implementations must be safe for concurrent use; the resolver may drive
// loads for unrelated modules in parallel.
type Host interface {
	// LoadByName loads a module by its strong name (an import-path-like
	// identifier). A name the host cannot locate yields ErrModuleNotFound.
	LoadByName(ctx context.Context, name string) (Module, error)

	// LoadByPath loads a module from a file or directory path.
	LoadByPath(ctx context.Context, path string) (Module, error)

	// Probe performs a cheap targeted lookup of one fully qualified name
	// against the module, without enumerating the full symbol catalog.
	// A name that does not resolve returns ok=false with a nil error;
	// a malformed name may return an error, which callers treat as a miss.
	Probe(ctx context.Context, info ModuleLoadInfo, qualifiedName string) (Symbol, bool, error)

	// ExportedSymbols enumerates the module's exported symbols. The returned
	// order is the host's enumeration order and callers may rely on it being
	// stable for a given host and module.
	ExportedSymbols(ctx context.Context, m Module) ([]Symbol, error)
}
