// Package resolve implements a two-level memoizing resolver that maps a
// possibly partially-qualified symbol name to a concrete symbol inside a
// loadable module, scoped by a caller-supplied acceptance predicate.
//
// Key capabilities:
//   - Per (predicate, module) symbol indexes built lazily and scanned once
//   - Targeted exact-name probe before any full catalog scan
//   - Escape-aware partial matching against the scanned catalog
//   - Independent caches for executing and inspection-only load modes
package resolve

import "symres/host"

// Predicate decides whether an exported symbol is a candidate of interest,
// e.g. "is a task implementation".
//
// Identity matters: cache entries are keyed by the *Predicate instance, so
// reusing the same instance yields cache hits while a second instance with
// equivalent logic maintains its own independent view of every module.
type Predicate struct {
	name   string
	accept func(host.Symbol) bool
}

// NewPredicate wraps an acceptance function. The name is used in logs only.
// A nil function yields a nil predicate, which constructors reject.
func NewPredicate(name string, accept func(host.Symbol) bool) *Predicate {
	if accept == nil {
		return nil
	}

	return &Predicate{name: name, accept: accept}
}

// Name returns the diagnostic name given at construction.
func (p *Predicate) Name() string { return p.name }

// Accept evaluates the predicate against a candidate symbol.
func (p *Predicate) Accept(sym host.Symbol) bool { return p.accept(sym) }

// AnySymbol returns a fresh predicate accepting every exported symbol.
// Each call creates a new identity and therefore a new cache scope.
func AnySymbol() *Predicate {
	return NewPredicate("any", func(host.Symbol) bool { return true })
}

// OfKind returns a fresh predicate accepting symbols of the given kinds.
func OfKind(kinds ...host.SymbolKind) *Predicate {
	want := make(map[host.SymbolKind]bool, len(kinds))
	for _, k := range kinds {
		want[k] = true
	}

	return NewPredicate("kind", func(sym host.Symbol) bool { return want[sym.Kind] })
}
