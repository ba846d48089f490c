// Package gopkgs implements an inspection-only module host on top of
// golang.org/x/tools/go/packages. Modules are Go packages addressed by
// import path (strong name) or by file/directory path. Loading never
// executes target code; only exported type information is read.
package gopkgs

import (
	"context"
	"fmt"
	"go/types"
	"strings"
	"sync"

	"golang.org/x/mod/module"
	"golang.org/x/tools/go/packages"

	"symres/host"
)

// loadMode requests just enough to enumerate the exported scope.
const loadMode = packages.NeedName |
	packages.NeedTypes |
	packages.NeedFiles

// Host loads packages for metadata-only inspection. Loads are memoized per
// pattern for the lifetime of the host.
type Host struct {
	mu   sync.Mutex
	dir  string
	pkgs map[string]*loadEntry
}

// loadEntry is the lazily-loaded slot for one pattern. The host map lock is
// only held to find or insert the slot; packages.Load runs under the entry's
// once, so loads of unrelated patterns proceed in parallel and only
// identical patterns serialize.
type loadEntry struct {
	once sync.Once
	pkg  *packages.Package
	err  error
}

// Option configures a Host.
type Option func(*Host)

// WithDir sets the working directory package patterns are resolved from.
func WithDir(dir string) Option {
	return func(h *Host) { h.dir = dir }
}

// New creates a Host.
func New(opts ...Option) *Host {
	h := &Host{pkgs: make(map[string]*loadEntry)}
	for _, opt := range opts {
		opt(h)
	}

	return h
}

// pkgModule is the handle for a loaded package.
type pkgModule struct {
	pkg *packages.Package
}

// Path returns the package import path.
func (m *pkgModule) Path() string { return m.pkg.PkgPath }

// Package exposes the underlying package for diagnostics.
func (m *pkgModule) Package() *packages.Package { return m.pkg }

// LoadByName loads a package by import path. Malformed paths are rejected
// before the toolchain is invoked.
func (h *Host) LoadByName(ctx context.Context, name string) (host.Module, error) {
	if err := module.CheckImportPath(name); err != nil {
		return nil, fmt.Errorf("%w: %v", host.ErrModuleNotFound, err)
	}

	pkg, err := h.load(ctx, name)
	if err != nil {
		return nil, err
	}

	return &pkgModule{pkg: pkg}, nil
}

// LoadByPath loads a package from a directory, or from the package
// containing a single .go file.
func (h *Host) LoadByPath(ctx context.Context, path string) (host.Module, error) {
	pattern := path
	if strings.HasSuffix(path, ".go") {
		pattern = "file=" + path
	}

	pkg, err := h.load(ctx, pattern)
	if err != nil {
		return nil, err
	}

	return &pkgModule{pkg: pkg}, nil
}

// load runs packages.Load for a pattern, memoizing the result.
func (h *Host) load(ctx context.Context, pattern string) (*packages.Package, error) {
	h.mu.Lock()
	entry, ok := h.pkgs[pattern]
	if !ok {
		entry = &loadEntry{}
		h.pkgs[pattern] = entry
	}
	h.mu.Unlock()

	entry.once.Do(func() {
		entry.pkg, entry.err = h.run(ctx, pattern)
	})

	if entry.err != nil {
		// Failed loads are not retained, so a later call with a fixed
		// package retries the load.
		h.mu.Lock()
		if h.pkgs[pattern] == entry {
			delete(h.pkgs, pattern)
		}
		h.mu.Unlock()
		return nil, entry.err
	}

	return entry.pkg, nil
}

func (h *Host) run(ctx context.Context, pattern string) (*packages.Package, error) {
	cfg := &packages.Config{
		Mode:    loadMode,
		Context: ctx,
		Dir:     h.dir,
	}

	pkgs, err := packages.Load(cfg, pattern)
	if err != nil {
		return nil, fmt.Errorf("%w: load %q: %v", host.ErrModuleNotFound, pattern, err)
	}

	if len(pkgs) == 0 {
		return nil, fmt.Errorf("%w: no package matches %q", host.ErrModuleNotFound, pattern)
	}

	pkg := pkgs[0]
	if len(pkg.Errors) > 0 {
		return nil, fmt.Errorf("%w: load %q: %v", host.ErrModuleNotFound, pattern, pkg.Errors[0])
	}

	if pkg.Types == nil {
		return nil, fmt.Errorf("%w: %q carries no type information", host.ErrModuleNotFound, pattern)
	}

	return pkg, nil
}

// Probe performs a targeted lookup of "pkgname.Symbol" (or a bare symbol
// name) against the package scope, without walking the full scope.
func (h *Host) Probe(ctx context.Context, info host.ModuleLoadInfo, qualifiedName string) (host.Symbol, bool, error) {
	if info.Name() == "" {
		return host.Symbol{}, false, nil
	}

	pkg, err := h.load(ctx, info.Name())
	if err != nil {
		return host.Symbol{}, false, err
	}

	name := qualifiedName
	if i := strings.LastIndex(qualifiedName, "."); i >= 0 {
		qualifier := qualifiedName[:i]
		if !strings.EqualFold(qualifier, pkg.Name) && !strings.EqualFold(qualifier, pkg.PkgPath) {
			return host.Symbol{}, false, nil
		}

		name = qualifiedName[i+1:]
	}

	obj := pkg.Types.Scope().Lookup(name)
	if obj == nil || !obj.Exported() {
		return host.Symbol{}, false, nil
	}

	return symbolFor(pkg.Name, obj), true, nil
}

// ExportedSymbols enumerates the package's exported top-level objects.
// scope.Names is sorted, so enumeration order is stable.
func (h *Host) ExportedSymbols(_ context.Context, m host.Module) ([]host.Symbol, error) {
	pm, ok := m.(*pkgModule)
	if !ok {
		return nil, fmt.Errorf("%w: foreign module handle %T", host.ErrInvalidArgument, m)
	}

	scope := pm.pkg.Types.Scope()
	syms := make([]host.Symbol, 0, len(scope.Names()))

	for _, name := range scope.Names() {
		obj := scope.Lookup(name)
		if !obj.Exported() {
			continue
		}

		syms = append(syms, symbolFor(pm.pkg.Name, obj))
	}

	return syms, nil
}

// symbolFor converts a types.Object into the host symbol shape. Qualified
// names use the short package name so partial matching sees '.' boundaries.
func symbolFor(pkgName string, obj types.Object) host.Symbol {
	kind := host.KindUnknown
	switch obj.(type) {
	case *types.TypeName:
		kind = host.KindType
	case *types.Func:
		kind = host.KindFunc
	case *types.Var:
		kind = host.KindVar
	case *types.Const:
		kind = host.KindConst
	}

	return host.Symbol{
		QualifiedName: pkgName + "." + obj.Name(),
		Name:          obj.Name(),
		Kind:          kind,
		Value:         obj,
	}
}
