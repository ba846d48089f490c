// Package script implements an executing module host on top of the yaegi
// interpreter. Loading a module evaluates its source, running top-level
// initialization, which makes this the "normal" load mode: use it when the
// resolved symbols will actually be invoked.
package script

import (
	"context"
	"fmt"
	"go/parser"
	"go/token"
	"path"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"

	"symres/host"
)

// Host evaluates Go source modules with one interpreter per module.
// Loaded modules are retained for the lifetime of the host.
type Host struct {
	mu      sync.Mutex
	options interp.Options
	modules map[host.ModuleLoadInfo]*moduleEntry
}

// moduleEntry is the lazily-loaded slot for one module identity. The host
// map lock is only held to find or insert the slot; the evaluation itself
// runs under the entry's once, so loads of unrelated modules proceed in
// parallel and only identical identities serialize.
type moduleEntry struct {
	once sync.Once
	mod  *scriptModule
	err  error
}

// Option configures a Host.
type Option func(*Host)

// WithGoPath sets the GOPATH the interpreter resolves imports from, for
// modules loaded by strong name.
func WithGoPath(gopath string) Option {
	return func(h *Host) { h.options.GoPath = gopath }
}

// New creates a Host.
func New(opts ...Option) *Host {
	h := &Host{modules: make(map[host.ModuleLoadInfo]*moduleEntry)}
	for _, opt := range opts {
		opt(h)
	}

	return h
}

// scriptModule is a loaded module: its own interpreter plus the import path
// its symbols are registered under. yaegi interpreters are not safe for
// concurrent use, so every evaluation holds the module mutex.
type scriptModule struct {
	mu         sync.Mutex
	interp     *interp.Interpreter
	path       string
	importPath string
}

// Path returns the file path or import path the module was loaded from.
func (m *scriptModule) Path() string { return m.path }

// LoadByName evaluates `import "name"` so the interpreter pulls the package
// in, executing its initialization.
func (h *Host) LoadByName(ctx context.Context, name string) (host.Module, error) {
	info, err := host.ByName(name)
	if err != nil {
		return nil, err
	}

	return h.load(ctx, info)
}

// LoadByPath evaluates a single .go file, executing its top-level code.
func (h *Host) LoadByPath(ctx context.Context, p string) (host.Module, error) {
	info, err := host.ByPath(p)
	if err != nil {
		return nil, err
	}

	return h.load(ctx, info)
}

func (h *Host) load(_ context.Context, info host.ModuleLoadInfo) (host.Module, error) {
	h.mu.Lock()
	entry := h.modules[info]
	if entry == nil {
		entry = &moduleEntry{}
		h.modules[info] = entry
	}
	h.mu.Unlock()

	entry.once.Do(func() {
		entry.mod, entry.err = h.evaluate(info)
	})

	if entry.err != nil {
		// Failed loads are not retained, so a later call with a fixed
		// module retries the evaluation.
		h.mu.Lock()
		if h.modules[info] == entry {
			delete(h.modules, info)
		}
		h.mu.Unlock()

		return nil, entry.err
	}

	return entry.mod, nil
}

// evaluate runs the module's source in a fresh interpreter.
func (h *Host) evaluate(info host.ModuleLoadInfo) (*scriptModule, error) {
	i := interp.New(h.options)
	if err := i.Use(stdlib.Symbols); err != nil {
		return nil, fmt.Errorf("interpreter setup: %w", err)
	}

	m := &scriptModule{interp: i}

	switch {
	case info.Name() != "":
		m.path = info.Name()
		m.importPath = info.Name()
		if _, err := i.Eval(fmt.Sprintf("import %q", info.Name())); err != nil {
			return nil, fmt.Errorf("%w: import %s: %v", host.ErrModuleNotFound, info, err)
		}
	default:
		pkgName, err := packageNameOf(info.Path())
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", host.ErrModuleNotFound, info, err)
		}

		m.path = info.Path()
		m.importPath = pkgName
		if _, err := i.EvalPath(info.Path()); err != nil {
			return nil, fmt.Errorf("%w: evaluate %s: %v", host.ErrModuleNotFound, info, err)
		}
	}

	return m, nil
}

// packageNameOf reads just the package clause of a source file.
func packageNameOf(p string) (string, error) {
	f, err := parser.ParseFile(token.NewFileSet(), p, nil, parser.PackageClauseOnly)
	if err != nil {
		return "", err
	}

	return f.Name.Name, nil
}

// Probe evaluates the qualified name directly in the module's interpreter.
// Evaluation errors (unknown or malformed names) surface to the caller,
// which treats them as a miss.
func (h *Host) Probe(ctx context.Context, info host.ModuleLoadInfo, qualifiedName string) (host.Symbol, bool, error) {
	if info.Name() == "" || qualifiedName == "" {
		return host.Symbol{}, false, nil
	}

	m, err := h.load(ctx, info)
	if err != nil {
		return host.Symbol{}, false, err
	}

	sm := m.(*scriptModule)
	sm.mu.Lock()
	defer sm.mu.Unlock()

	v, err := sm.interp.Eval(qualifiedName)
	if err != nil {
		return host.Symbol{}, false, err
	}

	name := qualifiedName
	if i := strings.LastIndex(qualifiedName, "."); i >= 0 {
		name = qualifiedName[i+1:]
	}

	return symbolFor(path.Base(sm.importPath), name, v), true, nil
}

// ExportedSymbols enumerates the module's exported symbols from the
// interpreter's symbol table, sorted by name for a stable catalog order.
func (h *Host) ExportedSymbols(_ context.Context, m host.Module) ([]host.Symbol, error) {
	sm, ok := m.(*scriptModule)
	if !ok {
		return nil, fmt.Errorf("%w: foreign module handle %T", host.ErrInvalidArgument, m)
	}

	sm.mu.Lock()
	defer sm.mu.Unlock()

	values := packageSymbols(sm.interp.Symbols(sm.importPath), sm.importPath)
	if values == nil {
		// Fall back to the full table; some packages register under
		// "path/pkgname" rather than the bare import path.
		values = packageSymbols(sm.interp.Symbols(""), sm.importPath)
	}

	names := make([]string, 0, len(values))
	for name := range values {
		if token.IsExported(name) {
			names = append(names, name)
		}
	}

	sort.Strings(names)

	pkgName := path.Base(sm.importPath)
	syms := make([]host.Symbol, 0, len(names))
	for _, name := range names {
		syms = append(syms, symbolFor(pkgName, name, values[name]))
	}

	return syms, nil
}

// packageSymbols picks the symbol table matching an import path.
func packageSymbols(table map[string]map[string]reflect.Value, importPath string) map[string]reflect.Value {
	if values, ok := table[importPath]; ok {
		return values
	}

	for key, values := range table {
		if strings.HasPrefix(key, importPath+"/") {
			return values
		}
	}

	return nil
}

// symbolFor shapes an interpreter value into a host symbol. The interpreter
// does not distinguish vars from consts, so non-funcs report as vars.
func symbolFor(pkgName, name string, v reflect.Value) host.Symbol {
	kind := host.KindVar
	if v.IsValid() && v.Kind() == reflect.Func {
		kind = host.KindFunc
	}

	return host.Symbol{
		QualifiedName: pkgName + "." + name,
		Name:          name,
		Kind:          kind,
		Value:         v,
	}
}
