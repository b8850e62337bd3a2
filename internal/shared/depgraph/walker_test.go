package depgraph

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sbn-software/samsync/internal/shared/errors"
)

// graphHandler completes a node with "ok" when all its deps succeeded.
type graphHandler struct {
	edges   map[string][]string
	missing map[string]bool
	entered []string
	exited  []string
}

func (h *graphHandler) Enter(_ context.Context, name string) ([]string, *string, error) {
	h.entered = append(h.entered, name)
	if h.missing[name] {
		return nil, nil, errors.NewNotFoundError("node not found", name)
	}
	if len(h.edges[name]) == 0 {
		leaf := "leaf"
		h.exited = append(h.exited, name)
		return nil, &leaf, nil
	}
	return h.edges[name], nil, nil
}

func (h *graphHandler) Accept(dep Result[string]) bool {
	return dep.Err == nil
}

func (h *graphHandler) Exit(_ context.Context, name string, deps []Result[string]) (string, error) {
	if failed, ok := FirstFailure(deps); ok {
		return "", fmt.Errorf("%s needs %s: %w", name, failed.Name, failed.Err)
	}
	h.exited = append(h.exited, name)
	return "ok", nil
}

func TestWalker_DependenciesCompleteFirst(t *testing.T) {
	h := &graphHandler{edges: map[string][]string{
		"child": {"p1", "p2"},
		"p1":    {"gp"},
		"p2":    {"gp"},
	}}
	w := NewWalker[string](h)

	v, err := w.Walk(context.Background(), "child")

	require.NoError(t, err)
	assert.Equal(t, "ok", v)
	assert.Equal(t, []string{"gp", "p1", "p2", "child"}, h.exited)
	assert.Equal(t, []string{"child", "p1", "gp", "p2"}, h.entered, "shared dependency entered once")
	assert.Equal(t, 4, w.Len())
}

func TestWalker_FailureStopsRemainingDependencies(t *testing.T) {
	h := &graphHandler{
		edges:   map[string][]string{"d1": {"d2", "d3"}},
		missing: map[string]bool{"d2": true},
	}
	w := NewWalker[string](h)

	_, err := w.Walk(context.Background(), "d1")

	require.Error(t, err)
	assert.True(t, errors.IsNotFoundError(err))
	assert.NotContains(t, h.entered, "d3")
}

func TestWalker_SelfReferenceIsCycle(t *testing.T) {
	h := &graphHandler{edges: map[string][]string{"d1": {"d1"}}}
	w := NewWalker[string](h)

	_, err := w.Walk(context.Background(), "d1")

	require.Error(t, err)
	assert.True(t, errors.IsCycleError(err))
}

func TestWalker_CycleFailsEveryMember(t *testing.T) {
	h := &graphHandler{edges: map[string][]string{
		"top": {"a"},
		"a":   {"b"},
		"b":   {"c"},
		"c":   {"a"},
	}}
	w := NewWalker[string](h)

	_, err := w.Walk(context.Background(), "top")
	require.Error(t, err)
	assert.True(t, errors.IsCycleError(err))

	for _, name := range []string{"a", "b", "c", "top"} {
		res, ok := w.Completed(name)
		require.True(t, ok, name)
		assert.True(t, errors.IsCycleError(res.Err), name)
	}
	assert.Empty(t, h.exited)
}

func TestWalker_MemoizesUntilReset(t *testing.T) {
	h := &graphHandler{edges: map[string][]string{"a": {"b"}}}
	w := NewWalker[string](h)
	ctx := context.Background()

	_, err := w.Walk(ctx, "a")
	require.NoError(t, err)
	_, err = w.Walk(ctx, "a")
	require.NoError(t, err)
	assert.Len(t, h.entered, 2)

	w.Reset()
	_, err = w.Walk(ctx, "a")
	require.NoError(t, err)
	assert.Len(t, h.entered, 4)
}

func TestWalker_DeepChainIsIterative(t *testing.T) {
	const depth = 100000
	edges := make(map[string][]string, depth)
	for i := 0; i < depth; i++ {
		edges[fmt.Sprintf("n%d", i)] = []string{fmt.Sprintf("n%d", i+1)}
	}
	h := &graphHandler{edges: edges}
	w := NewWalker[string](h)

	v, err := w.Walk(context.Background(), "n0")

	require.NoError(t, err)
	assert.Equal(t, "ok", v)
	assert.Equal(t, depth+1, w.Len())
}

func TestWalker_CancelledContextFailsPendingDependency(t *testing.T) {
	h := &graphHandler{edges: map[string][]string{"a": {"b"}}}
	w := NewWalker[string](h)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := w.Walk(ctx, "a")

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
