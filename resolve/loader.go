package resolve

import (
	"context"
	"fmt"
	"log/slog"

	"symres/host"
)

// TypeLoader resolves symbol names against modules on behalf of one
// acceptance predicate. It keeps two independent caches: one for the normal
// load mode, which may execute module initialization code, and one for the
// inspection-only mode, which must not.
//
// TypeLoader is safe for concurrent use. Lookups against distinct
// (predicate, module) pairs proceed in parallel; lookups against the same
// pair serialize on that pair's index.
type TypeLoader struct {
	pred    *Predicate
	run     host.Host
	inspect host.Host
	caches  *Caches
	log     *slog.Logger
}

// Option configures a TypeLoader.
type Option func(*TypeLoader)

// WithCaches makes the loader use a shared cache pair instead of owning a
// fresh one. Loaders sharing caches and a predicate also share scans.
func WithCaches(c *Caches) Option {
	return func(l *TypeLoader) { l.caches = c }
}

// WithLogger sets the logger used for debug-level cache and scan events.
func WithLogger(log *slog.Logger) Option {
	return func(l *TypeLoader) { l.log = log }
}

// NewTypeLoader builds a TypeLoader for one predicate. The run host backs
// Resolve and may execute module code on load; the inspect host backs
// ResolveInspectionOnly and must load metadata only.
func NewTypeLoader(pred *Predicate, run, inspect host.Host, opts ...Option) (*TypeLoader, error) {
	if pred == nil {
		return nil, fmt.Errorf("%w: nil predicate", host.ErrInvalidArgument)
	}

	if run == nil || inspect == nil {
		return nil, fmt.Errorf("%w: nil module host", host.ErrInvalidArgument)
	}

	l := &TypeLoader{pred: pred, run: run, inspect: inspect}
	for _, opt := range opts {
		opt(l)
	}

	if l.caches == nil {
		l.caches = NewCaches()
	}

	if l.log == nil {
		l.log = slog.Default()
	}

	return l, nil
}

// Resolve finds a symbol matching name inside the given module, loading the
// module in the normal mode when a scan is needed. An empty name matches the
// first accepted symbol in the module's catalog. A nil, nil return means the
// name legitimately does not exist in the module.
func (l *TypeLoader) Resolve(ctx context.Context, name string, info host.ModuleLoadInfo) (*LoadedType, error) {
	if info.IsZero() {
		return nil, fmt.Errorf("%w: zero module identity", host.ErrInvalidArgument)
	}

	idx := l.caches.Run.indexFor(l.pred, info, l.run, l.log)

	return idx.resolve(ctx, name)
}

// ResolveInspectionOnly behaves like Resolve but loads the module without
// executing its initialization code, for contexts where only metadata is
// needed. It maintains a cache independent from Resolve's.
func (l *TypeLoader) ResolveInspectionOnly(ctx context.Context, name string, info host.ModuleLoadInfo) (*LoadedType, error) {
	if info.IsZero() {
		return nil, fmt.Errorf("%w: zero module identity", host.ErrInvalidArgument)
	}

	idx := l.caches.Inspect.indexFor(l.pred, info, l.inspect, l.log)

	return idx.resolve(ctx, name)
}
