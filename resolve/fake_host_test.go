package resolve

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"symres/host"
)

// fakeModule is the module handle handed out by fakeHost.
type fakeModule string

func (m fakeModule) Path() string { return string(m) }

// fakeHost is a scriptable module host. Modules are registered under their
// strong name or path; probes answer only for explicitly registered
// qualified names.
type fakeHost struct {
	mu      sync.Mutex
	modules map[string][]host.Symbol
	probes  map[string]host.Symbol

	probeErr error
	// gate, when set for a module key, blocks LoadByName/LoadByPath until
	// the channel is closed. Used to observe lock granularity.
	gate map[string]chan struct{}

	loads      map[string]int
	enums      map[string]int
	probeCalls int
}

func newFakeHost() *fakeHost {
	return &fakeHost{
		modules: make(map[string][]host.Symbol),
		probes:  make(map[string]host.Symbol),
		gate:    make(map[string]chan struct{}),
		loads:   make(map[string]int),
		enums:   make(map[string]int),
	}
}

func (h *fakeHost) register(module string, syms ...host.Symbol) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.modules[module] = syms
}

func (h *fakeHost) registerProbe(module, qualifiedName string, sym host.Symbol) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.probes[module+"|"+strings.ToLower(qualifiedName)] = sym
}

func (h *fakeHost) loadCount(module string) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.loads[module]
}

func (h *fakeHost) enumCount(module string) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.enums[module]
}

func (h *fakeHost) probeCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.probeCalls
}

func (h *fakeHost) load(key string) (host.Module, error) {
	h.mu.Lock()
	h.loads[key]++
	_, ok := h.modules[key]
	gate := h.gate[key]
	h.mu.Unlock()

	// Block outside the host lock so unrelated loads stay independent.
	if gate != nil {
		<-gate
	}

	if !ok {
		return nil, fmt.Errorf("%w: no module registered as %q", host.ErrModuleNotFound, key)
	}

	return fakeModule(key), nil
}

func (h *fakeHost) LoadByName(_ context.Context, name string) (host.Module, error) {
	return h.load(name)
}

func (h *fakeHost) LoadByPath(_ context.Context, path string) (host.Module, error) {
	return h.load(path)
}

func (h *fakeHost) Probe(_ context.Context, info host.ModuleLoadInfo, qualifiedName string) (host.Symbol, bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.probeCalls++
	if h.probeErr != nil {
		return host.Symbol{}, false, h.probeErr
	}

	sym, ok := h.probes[info.Name()+"|"+strings.ToLower(qualifiedName)]

	return sym, ok, nil
}

func (h *fakeHost) ExportedSymbols(_ context.Context, m host.Module) ([]host.Symbol, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.enums[m.Path()]++

	return h.modules[m.Path()], nil
}

func sym(qualifiedName string, kind host.SymbolKind) host.Symbol {
	name := qualifiedName
	if i := strings.LastIndexAny(qualifiedName, ".+"); i >= 0 {
		name = qualifiedName[i+1:]
	}

	return host.Symbol{QualifiedName: qualifiedName, Name: name, Kind: kind}
}
