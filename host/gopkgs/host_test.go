package gopkgs

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"symres/host"
)

func TestHost_LoadByName(t *testing.T) {
	h := New()

	m, err := h.LoadByName(context.Background(), "symres/examples/tasks")
	require.NoError(t, err)
	assert.Equal(t, "symres/examples/tasks", m.Path())
}

func TestHost_LoadByName_Malformed(t *testing.T) {
	h := New()

	_, err := h.LoadByName(context.Background(), "not a path!")
	require.Error(t, err)
	assert.True(t, errors.Is(err, host.ErrModuleNotFound))
}

func TestHost_LoadByName_Unlocatable(t *testing.T) {
	h := New()

	_, err := h.LoadByName(context.Background(), "symres/examples/nosuchpackage")
	require.Error(t, err)
	assert.True(t, errors.Is(err, host.ErrModuleNotFound))
}

func TestHost_ExportedSymbols(t *testing.T) {
	h := New()

	m, err := h.LoadByName(context.Background(), "symres/examples/tasks")
	require.NoError(t, err)

	syms, err := h.ExportedSymbols(context.Background(), m)
	require.NoError(t, err)

	byName := make(map[string]host.Symbol, len(syms))
	for _, s := range syms {
		byName[s.QualifiedName] = s
	}

	require.Contains(t, byName, "tasks.CscTask")
	assert.Equal(t, host.KindType, byName["tasks.CscTask"].Kind)
	assert.Equal(t, "CscTask", byName["tasks.CscTask"].Name)

	require.Contains(t, byName, "tasks.NewCscTask")
	assert.Equal(t, host.KindFunc, byName["tasks.NewCscTask"].Kind)

	require.Contains(t, byName, "tasks.Verbose")
	assert.Equal(t, host.KindVar, byName["tasks.Verbose"].Kind)

	require.Contains(t, byName, "tasks.DefaultTimeoutSeconds")
	assert.Equal(t, host.KindConst, byName["tasks.DefaultTimeoutSeconds"].Kind)

	// Methods and unexported names must not appear.
	for qn := range byName {
		assert.NotContains(t, qn, "Run")
	}
}

func TestHost_ExportedSymbols_StableOrder(t *testing.T) {
	h := New()

	m, err := h.LoadByName(context.Background(), "symres/examples/loggers")
	require.NoError(t, err)

	first, err := h.ExportedSymbols(context.Background(), m)
	require.NoError(t, err)
	second, err := h.ExportedSymbols(context.Background(), m)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestHost_Probe(t *testing.T) {
	h := New()
	info, err := host.ByName("symres/examples/tasks")
	require.NoError(t, err)

	sym, ok, err := h.Probe(context.Background(), info, "tasks.CscTask")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "tasks.CscTask", sym.QualifiedName)
	assert.Equal(t, host.KindType, sym.Kind)

	// Full import path qualifier also resolves.
	_, ok, err = h.Probe(context.Background(), info, "symres/examples/tasks.CscTask")
	require.NoError(t, err)
	assert.True(t, ok)

	// Bare names resolve directly against the scope.
	_, ok, err = h.Probe(context.Background(), info, "VbcTask")
	require.NoError(t, err)
	assert.True(t, ok)

	// Foreign qualifiers and unknown names miss cleanly.
	_, ok, err = h.Probe(context.Background(), info, "other.CscTask")
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = h.Probe(context.Background(), info, "tasks.NoSuchTask")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHost_Probe_UnlocatableModule(t *testing.T) {
	h := New()
	info, err := host.ByName("symres/examples/nosuchpackage")
	require.NoError(t, err)

	_, ok, err := h.Probe(context.Background(), info, "tasks.CscTask")
	assert.False(t, ok)
	require.Error(t, err)
}

func TestHost_LoadByPath_File(t *testing.T) {
	h := New()

	m, err := h.LoadByPath(context.Background(), "../../examples/tasks/tasks.go")
	require.NoError(t, err)
	assert.Equal(t, "symres/examples/tasks", m.Path())

	syms, err := h.ExportedSymbols(context.Background(), m)
	require.NoError(t, err)
	assert.NotEmpty(t, syms)
}

func TestHost_LoadByPath_Dir(t *testing.T) {
	h := New()

	m, err := h.LoadByPath(context.Background(), "../../examples/loggers")
	require.NoError(t, err)
	assert.Equal(t, "symres/examples/loggers", m.Path())
}

func TestHost_MemoizesLoads(t *testing.T) {
	h := New()

	a, err := h.LoadByName(context.Background(), "symres/examples/tasks")
	require.NoError(t, err)
	b, err := h.LoadByName(context.Background(), "symres/examples/tasks")
	require.NoError(t, err)

	assert.Same(t, a.(*pkgModule).Package(), b.(*pkgModule).Package())
}

func TestHost_ConcurrentLoads(t *testing.T) {
	h := New()
	patterns := []string{
		"symres/examples/tasks",
		"symres/examples/loggers",
		"symres/examples/tasks",
		"symres/examples/loggers",
	}

	mods := make([]host.Module, len(patterns))
	var g errgroup.Group
	for i, pattern := range patterns {
		g.Go(func() error {
			m, err := h.LoadByName(context.Background(), pattern)
			mods[i] = m

			return err
		})
	}
	require.NoError(t, g.Wait())

	assert.Same(t, mods[0].(*pkgModule).Package(), mods[2].(*pkgModule).Package())
	assert.Same(t, mods[1].(*pkgModule).Package(), mods[3].(*pkgModule).Package())
	assert.NotSame(t, mods[0].(*pkgModule).Package(), mods[1].(*pkgModule).Package())
}
