// Package convert implements the unit-conversion registry: user-supplied
// conversion edges, breadth-first path search over the edge graph, and a
// path cache invalidated on every registration.
package convert

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"valuecore/pkg/core/policy"
	"valuecore/pkg/core/unit"
	"valuecore/pkg/core/verrors"
)

// Context carries optional metadata through to a conversion function (not
// to be confused with Go's context.Context, which carries the active
// Policy/NullBehavior/ConversionPolicy stack).
type Context struct {
	Timestamp *time.Time
	Metadata  map[string]any
}

// Func converts an amount from one unit to another; it may perform I/O
// (rate lookups) and is the one place in the core where that is expected.
type Func func(amount decimal.Decimal, cctx Context) (decimal.Decimal, error)

type edgeKey struct {
	from unit.Unit
	to   unit.Unit
}

// Registry is a directed graph of registered conversion edges. It supports
// registration at any time; readers observe a consistent snapshot via a
// read-write mutex, and the path cache is invalidated on every Register.
type Registry struct {
	mu    sync.RWMutex
	edges map[edgeKey]Func
	adj   map[unit.Unit][]unit.Unit
	cache map[edgeKey][]unit.Unit
}

// NewRegistry builds an empty conversion registry.
func NewRegistry() *Registry {
	return &Registry{
		edges: make(map[edgeKey]Func),
		adj:   make(map[unit.Unit][]unit.Unit),
		cache: make(map[edgeKey][]unit.Unit),
	}
}

// Register adds a direct conversion edge from -> to, invalidating the path
// cache.
func (r *Registry) Register(from, to unit.Unit, fn Func) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.edges[edgeKey{from, to}] = fn
	r.adj[from] = append(r.adj[from], to)
	r.cache = make(map[edgeKey][]unit.Unit)
}

// direct returns the registered edge function for from->to, if any.
func (r *Registry) direct(from, to unit.Unit) (Func, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.edges[edgeKey{from, to}]
	return fn, ok
}

// shortestPath runs BFS over the edge graph and returns the sequence of
// units from `from` to `to` inclusive, or nil if unreachable. Results are
// memoised until the next Register call.
func (r *Registry) shortestPath(from, to unit.Unit) []unit.Unit {
	r.mu.RLock()
	if cached, ok := r.cache[edgeKey{from, to}]; ok {
		r.mu.RUnlock()
		return cached
	}
	r.mu.RUnlock()

	r.mu.RLock()
	type queued struct {
		node unit.Unit
		path []unit.Unit
	}
	visited := map[unit.Unit]bool{from: true}
	queue := []queued{{node: from, path: []unit.Unit{from}}}
	var found []unit.Unit
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur.node == to {
			found = cur.path
			break
		}
		for _, next := range r.adj[cur.node] {
			if visited[next] {
				continue
			}
			visited[next] = true
			nextPath := append(append([]unit.Unit(nil), cur.path...), next)
			queue = append(queue, queued{node: next, path: nextPath})
		}
	}
	r.mu.RUnlock()

	r.mu.Lock()
	r.cache[edgeKey{from, to}] = found
	r.mu.Unlock()
	return found
}

// Convert converts amount from `from` to `to`, honouring the active
// ConversionPolicy (strict, allow_paths) on ctx.
func (r *Registry) Convert(ctx context.Context, amount decimal.Decimal, from, to unit.Unit, cctx Context) (decimal.Decimal, error) {
	if from == to {
		return amount, nil
	}
	cp := policy.ConversionPolicyFromContext(ctx)

	if fn, ok := r.direct(from, to); ok {
		return fn(amount, cctx)
	}

	if cp.AllowPaths {
		path := r.shortestPath(from, to)
		if len(path) >= 2 {
			cur := amount
			for i := 0; i < len(path)-1; i++ {
				fn, ok := r.direct(path[i], path[i+1])
				if !ok {
					break
				}
				next, err := fn(cur, cctx)
				if err != nil {
					return decimal.Decimal{}, err
				}
				cur = next
			}
			return cur, nil
		}
	}

	if cp.Strict {
		return decimal.Decimal{}, verrors.MissingConversion(from.String(), to.String())
	}
	log.Printf("[convert] no conversion path %s -> %s, returning amount unchanged", from, to)
	return amount, nil
}
