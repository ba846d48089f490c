package resolve

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"symres/host"
	"symres/namematch"
)

// moduleIndex is the lazily-populated symbol index for one
// (predicate, module) pair. All resolution work for the pair runs under its
// single mutex, so a module is loaded and scanned at most once.
type moduleIndex struct {
	mu   sync.Mutex
	pred *Predicate
	info host.ModuleLoadInfo
	h    host.Host
	log  *slog.Logger

	// exact maps the lowercased requested name to its resolution.
	// A nil value is a confirmed "not found" recorded by the probe path.
	// Entries only grow; they are never evicted or overwritten.
	exact map[string]*LoadedType

	// catalog holds the accepted symbols in host enumeration order, so
	// first-match against partial names is deterministic per host.
	catalog []host.Symbol

	scanned bool
	module  host.Module
}

func newModuleIndex(pred *Predicate, info host.ModuleLoadInfo, h host.Host, log *slog.Logger) *moduleIndex {
	return &moduleIndex{
		pred:  pred,
		info:  info,
		h:     h,
		log:   log,
		exact: make(map[string]*LoadedType),
	}
}

// resolve looks up name in this index: cached answer first, then a targeted
// probe, then a scan-once catalog walk with partial matching.
// A nil, nil return is a clean "not found".
func (x *moduleIndex) resolve(ctx context.Context, name string) (*LoadedType, error) {
	x.mu.Lock()
	defer x.mu.Unlock()

	key := strings.ToLower(name)
	if lt, ok := x.exact[key]; ok {
		x.log.Debug("symbol resolution cache hit",
			slog.String("name", name),
			slog.String("module", x.info.String()),
			slog.Bool("found", lt != nil),
		)

		return lt, nil
	}

	// Cheap targeted probe, only available for strong-name identities and
	// only meaningful for non-empty names. The probe path is the one place
	// negatives are cached: the host answered authoritatively for this
	// exact name. Probe errors (malformed names) degrade to a catalog scan.
	if name != "" && x.info.Name() != "" {
		sym, ok, err := x.h.Probe(ctx, x.info, name)
		switch {
		case err != nil:
			x.log.Debug("probe failed, falling back to catalog scan",
				slog.String("name", name),
				slog.String("module", x.info.String()),
				slog.String("error", err.Error()),
			)
		case ok:
			if !x.pred.Accept(sym) {
				x.exact[key] = nil
				return nil, nil
			}

			lt := &LoadedType{Symbol: sym, Module: x.info, Loaded: x.module}
			x.exact[key] = lt

			return lt, nil
		}
	}

	if !x.scanned {
		if err := x.scan(ctx); err != nil {
			return nil, err
		}

		x.scanned = true
	}

	for i := range x.catalog {
		if name != "" && !namematch.IsPartialMatch(x.catalog[i].QualifiedName, name) {
			continue
		}

		lt := &LoadedType{Symbol: x.catalog[i], Module: x.info, Loaded: x.module}
		x.exact[key] = lt

		return lt, nil
	}

	// Misses after a scan are not cached: the catalog is already built, so
	// re-walking it on a repeat request is cheap.
	return nil, nil
}

// scan loads the module, retains its handle, and fills the catalog with the
// exported symbols the predicate accepts. Load failures surface as
// ErrModuleNotFound and are not cached, so a caller can retry with a fixed
// module identity.
func (x *moduleIndex) scan(ctx context.Context) error {
	var (
		m   host.Module
		err error
	)

	if name := x.info.Name(); name != "" {
		m, err = x.h.LoadByName(ctx, name)
	} else {
		m, err = x.h.LoadByPath(ctx, x.info.Path())
	}

	if err != nil {
		if errors.Is(err, host.ErrModuleNotFound) {
			return fmt.Errorf("load module %s: %w", x.info, err)
		}

		return fmt.Errorf("load module %s: %w: %v", x.info, host.ErrModuleNotFound, err)
	}

	syms, err := x.h.ExportedSymbols(ctx, m)
	if err != nil {
		return fmt.Errorf("enumerate module %s: %w", x.info, err)
	}

	x.module = m
	for _, sym := range syms {
		if x.pred.Accept(sym) {
			x.catalog = append(x.catalog, sym)
		}
	}

	x.log.Debug("module catalog scanned",
		slog.String("module", x.info.String()),
		slog.String("predicate", x.pred.Name()),
		slog.Int("exported", len(syms)),
		slog.Int("accepted", len(x.catalog)),
	)

	return nil
}
