package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/davecgh/go-spew/spew"
	"golang.org/x/sync/errgroup"

	"symres/host"
	"symres/host/gopkgs"
	"symres/host/script"
	"symres/internal/manifest"
	"symres/resolve"
)

type options struct {
	Module   string `short:"m" long:"module" description:"module strong name (an import path)"`
	Path     string `short:"p" long:"path" description:"module file or directory path"`
	Inspect  bool   `long:"inspect" description:"inspection-only load: never execute module code"`
	Kind     string `short:"k" long:"kind" default:"any" choice:"any" choice:"type" choice:"func" choice:"var" choice:"const" description:"accept only symbols of this kind"`
	Manifest string `long:"manifest" description:"YAML manifest with a batch of resolutions"`
	Verbose  bool   `short:"v" long:"verbose" description:"dump resolved symbols"`
	LogLevel string `long:"log-level" default:"warn" choice:"debug" choice:"info" choice:"warn" choice:"error" description:"log verbosity"`

	Args struct {
		Names []string `positional-arg-name:"name" description:"symbol names, possibly partially qualified"`
	} `positional-args:"yes"`
}

// request is one name to resolve against one module.
type request struct {
	name    string
	info    host.ModuleLoadInfo
	inspect bool
	kind    string
}

func run(opts *options) error {
	logger := newLogger(opts.LogLevel)

	reqs, err := collectRequests(opts)
	if err != nil {
		return err
	}

	runner := &resolver{
		run:     script.New(),
		inspect: gopkgs.New(),
		caches:  resolve.NewCaches(),
		log:     logger,
		loaders: make(map[string]*resolve.TypeLoader),
		verbose: opts.Verbose,
	}

	return runner.resolveAll(context.Background(), reqs)
}

func newLogger(level string) *slog.Logger {
	lvl := slog.LevelWarn
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "info":
		lvl = slog.LevelInfo
	case "error":
		lvl = slog.LevelError
	}

	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

// collectRequests flattens flags or the manifest into resolution requests.
func collectRequests(opts *options) ([]request, error) {
	if opts.Manifest != "" {
		m, err := manifest.Load(opts.Manifest)
		if err != nil {
			return nil, err
		}

		var reqs []request
		for _, entry := range m.Resolutions {
			info, err := entry.Module.LoadInfo()
			if err != nil {
				return nil, err
			}

			kind := entry.Kind
			if kind == "" {
				kind = "any"
			}

			for _, name := range entry.Names {
				reqs = append(reqs, request{name: name, info: info, inspect: entry.Inspect, kind: kind})
			}
		}

		return reqs, nil
	}

	var (
		info host.ModuleLoadInfo
		err  error
	)

	switch {
	case opts.Module != "" && opts.Path != "":
		return nil, fmt.Errorf("%w: --module and --path are mutually exclusive", host.ErrInvalidArgument)
	case opts.Module != "":
		info, err = host.ByName(opts.Module)
	case opts.Path != "":
		info, err = host.ByPath(opts.Path)
	default:
		return nil, fmt.Errorf("%w: one of --module, --path or --manifest is required", host.ErrInvalidArgument)
	}

	if err != nil {
		return nil, err
	}

	if len(opts.Args.Names) == 0 {
		return nil, fmt.Errorf("%w: no symbol names given", host.ErrInvalidArgument)
	}

	reqs := make([]request, 0, len(opts.Args.Names))
	for _, name := range opts.Args.Names {
		reqs = append(reqs, request{name: name, info: info, inspect: opts.Inspect, kind: opts.Kind})
	}

	return reqs, nil
}

// resolver fans resolution requests out over shared caches, one TypeLoader
// per symbol-kind predicate.
type resolver struct {
	run     host.Host
	inspect host.Host
	caches  *resolve.Caches
	log     *slog.Logger
	verbose bool

	mu      sync.Mutex
	loaders map[string]*resolve.TypeLoader
	outMu   sync.Mutex
}

func (r *resolver) loaderFor(kind string) (*resolve.TypeLoader, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if l, ok := r.loaders[kind]; ok {
		return l, nil
	}

	pred := predicateFor(kind)
	l, err := resolve.NewTypeLoader(pred, r.run, r.inspect,
		resolve.WithCaches(r.caches),
		resolve.WithLogger(r.log),
	)
	if err != nil {
		return nil, err
	}

	r.loaders[kind] = l

	return l, nil
}

func predicateFor(kind string) *resolve.Predicate {
	switch kind {
	case "type":
		return resolve.OfKind(host.KindType)
	case "func":
		return resolve.OfKind(host.KindFunc)
	case "var":
		return resolve.OfKind(host.KindVar)
	case "const":
		return resolve.OfKind(host.KindConst)
	default:
		return resolve.AnySymbol()
	}
}

func (r *resolver) resolveAll(ctx context.Context, reqs []request) error {
	g, ctx := errgroup.WithContext(ctx)

	for _, req := range reqs {
		g.Go(func() error {
			return r.resolveOne(ctx, req)
		})
	}

	return g.Wait()
}

func (r *resolver) resolveOne(ctx context.Context, req request) error {
	l, err := r.loaderFor(req.kind)
	if err != nil {
		return err
	}

	var lt *resolve.LoadedType
	if req.inspect {
		lt, err = l.ResolveInspectionOnly(ctx, req.name, req.info)
	} else {
		lt, err = l.Resolve(ctx, req.name, req.info)
	}

	if err != nil {
		return fmt.Errorf("resolve %q in %s: %w", req.name, req.info, err)
	}

	r.outMu.Lock()
	defer r.outMu.Unlock()

	if lt == nil {
		fmt.Printf("%s: not found in %s\n", req.name, req.info)
		return nil
	}

	fmt.Printf("%s -> %s (%s) [%s]\n", req.name, lt.Symbol.QualifiedName, lt.Symbol.Kind, req.info)
	if r.verbose {
		spew.Dump(lt.Symbol)
	}

	return nil
}
