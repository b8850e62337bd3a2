// Package depgraph walks name-keyed dependency graphs depth first without
// recursion. Every node completes only after all of the dependencies it
// accepted have completed, and a node reachable from itself fails with a
// dependency_cycle error instead of looping.
package depgraph

import (
	"context"
	"fmt"

	"github.com/sbn-software/samsync/internal/shared/errors"
)

// Result is the completed outcome of one node.
type Result[R any] struct {
	Name  string
	Value R
	Err   error
}

// Handler supplies the per-node behaviour of a walk.
type Handler[R any] interface {
	// Enter is called once per node. It returns the node's dependencies in
	// visiting order, or a non-nil early value (or an error) to complete the
	// node without visiting any dependency.
	Enter(ctx context.Context, name string) (deps []string, early *R, err error)
	// Accept reports whether the walk should go on with the remaining
	// dependencies after dep completed. Returning false skips the rest.
	Accept(dep Result[R]) bool
	// Exit completes a node given the results of the dependencies visited,
	// in visiting order.
	Exit(ctx context.Context, name string, deps []Result[R]) (R, error)
}

type frame[R any] struct {
	name    string
	deps    []string
	next    int
	results []Result[R]
	stopped bool
}

// Walker memoizes completed nodes until Reset, so a node shared by several
// dependents is processed once.
type Walker[R any] struct {
	handler Handler[R]
	done    map[string]Result[R]
	active  map[string]bool
}

func NewWalker[R any](handler Handler[R]) *Walker[R] {
	return &Walker[R]{
		handler: handler,
		done:    make(map[string]Result[R]),
		active:  make(map[string]bool),
	}
}

// Reset forgets every completed node.
func (w *Walker[R]) Reset() {
	w.done = make(map[string]Result[R])
	w.active = make(map[string]bool)
}

// Completed returns the memoized result for name, if any.
func (w *Walker[R]) Completed(name string) (Result[R], bool) {
	r, ok := w.done[name]
	return r, ok
}

// Len returns the number of completed nodes.
func (w *Walker[R]) Len() int {
	return len(w.done)
}

// Walk completes root and, first, everything it depends on.
func (w *Walker[R]) Walk(ctx context.Context, root string) (R, error) {
	if r, ok := w.done[root]; ok {
		return r.Value, r.Err
	}

	var stack []*frame[R]

	// enter starts a node; a non-nil result means it completed immediately.
	enter := func(name string) *Result[R] {
		w.active[name] = true
		deps, early, err := w.handler.Enter(ctx, name)
		if err != nil || early != nil {
			res := Result[R]{Name: name, Err: err}
			if early != nil && err == nil {
				res.Value = *early
			}
			w.complete(res)
			return &res
		}
		stack = append(stack, &frame[R]{name: name, deps: deps})
		return nil
	}

	if res := enter(root); res != nil {
		return res.Value, res.Err
	}

	var final Result[R]
	for len(stack) > 0 {
		top := stack[len(stack)-1]

		if !top.stopped && top.next < len(top.deps) {
			dep := top.deps[top.next]
			top.next++

			switch {
			case w.isDone(dep):
				w.record(top, w.done[dep])
			case w.active[dep]:
				w.record(top, Result[R]{
					Name: dep,
					Err:  errors.NewCycleError("dependency cycle", fmt.Sprintf("%s -> %s", top.name, dep)),
				})
			case ctx.Err() != nil:
				w.record(top, Result[R]{Name: dep, Err: ctx.Err()})
			default:
				if res := enter(dep); res != nil {
					w.record(top, *res)
				}
			}
			continue
		}

		stack = stack[:len(stack)-1]
		value, err := w.handler.Exit(ctx, top.name, top.results)
		res := Result[R]{Name: top.name, Value: value, Err: err}
		w.complete(res)

		if len(stack) == 0 {
			final = res
			break
		}
		w.record(stack[len(stack)-1], res)
	}
	return final.Value, final.Err
}

func (w *Walker[R]) isDone(name string) bool {
	_, ok := w.done[name]
	return ok
}

func (w *Walker[R]) record(f *frame[R], res Result[R]) {
	f.results = append(f.results, res)
	if !w.handler.Accept(res) {
		f.stopped = true
	}
}

func (w *Walker[R]) complete(res Result[R]) {
	delete(w.active, res.Name)
	w.done[res.Name] = res
}

// FirstFailure returns the first dependency result carrying an error.
func FirstFailure[R any](deps []Result[R]) (Result[R], bool) {
	for _, d := range deps {
		if d.Err != nil {
			return d, true
		}
	}
	return Result[R]{}, false
}
