// Package engine implements the Calculation Engine: DAG construction over a
// Registry's descriptors, cycle detection, topological evaluation, per-call
// caching, and partial evaluation, with provenance recorded for every
// calc node. The DFS/colouring shape follows the teacher's dependency walk
// in pkg/core/projection (StandardSkeleton resolves a fixed dependency
// chain); this generalises it to an open, registry-driven graph.
package engine

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"valuecore/pkg/core/policy"
	"valuecore/pkg/core/provenance"
	"valuecore/pkg/core/registry"
	"valuecore/pkg/core/unit"
	"valuecore/pkg/core/value"
	"valuecore/pkg/core/verrors"
)

// Engine evaluates calculations registered in a Registry against a supplied
// input context.
type Engine struct {
	reg *registry.Registry
}

// New binds an Engine to reg. reg must have been Materialize()d before any
// calculation is evaluated.
func New(reg *registry.Registry) *Engine {
	return &Engine{reg: reg}
}

// color tracks DFS visitation state for cycle detection (grey = on the
// current path, black = fully explored).
type color int

const (
	white color = iota
	grey
	black
)

type node struct {
	name   string
	isLeaf bool // present in the supplied context, not a registered calc
	desc   *registry.Descriptor
}

// buildGraph performs the DFS from target, resolving each name to a context
// leaf, a registered calc node, or (if allowPartial) a synthetic none-leaf.
// It returns the subgraph's nodes keyed by name together with a topological
// ordering (DFS postorder), or fails with CircularDependency / MissingInput /
// UnknownCalculation.
func (e *Engine) buildGraph(target string, inputs map[string]any, allowPartial bool) (map[string]*node, []string, error) {
	nodes := make(map[string]*node)
	colors := make(map[string]color)
	var order []string
	var path []string

	var visit func(name string) error
	visit = func(name string) error {
		switch colors[name] {
		case black:
			return nil
		case grey:
			return verrors.CircularDependency(append(append([]string{}, path...), name))
		}
		colors[name] = grey
		path = append(path, name)

		if _, isInput := inputs[name]; isInput {
			nodes[name] = &node{name: name, isLeaf: true}
		} else if desc, ok := e.reg.Lookup(name); ok {
			nodes[name] = &node{name: name, desc: desc}
			for _, dep := range desc.Dependencies {
				if err := visit(dep); err != nil {
					return err
				}
			}
		} else if allowPartial {
			nodes[name] = &node{name: name, isLeaf: true}
		} else {
			return verrors.MissingInput(name)
		}

		colors[name] = black
		path = path[:len(path)-1]
		order = append(order, name)
		return nil
	}

	if _, ok := e.reg.Lookup(target); !ok {
		if _, isInput := inputs[target]; !isInput {
			return nil, nil, verrors.UnknownCalculation(target)
		}
	}
	if err := visit(target); err != nil {
		return nil, nil, err
	}
	return nodes, order, nil
}

// seedCache lifts every supplied input to a Value: literal provenance, unit
// inferred from the raw value (unit.DimensionlessUnit unless the caller
// passed an already-constructed value.Value), policy = call policy →
// context policy → default.
func seedCache(ctx context.Context, inputs map[string]any, callPolicy *policy.Policy) (map[string]value.Value, error) {
	cache := make(map[string]value.Value, len(inputs))
	var opts []value.Option
	if callPolicy != nil {
		opts = append(opts, value.WithPolicy(*callPolicy))
	}
	for name, raw := range inputs {
		if v, ok := raw.(value.Value); ok {
			cache[name] = v
			continue
		}
		v, err := value.FromLiteral(ctx, raw, unit.DimensionlessUnit, opts...)
		if err != nil {
			return nil, fmt.Errorf("input %q: %w", name, err)
		}
		cache[name] = v
	}
	return cache, nil
}

func recordCalc(ctx context.Context, p policy.Policy, name string, dependencies []string, cache map[string]value.Value, runID string) provenance.ID {
	r := provenance.FromContext(ctx)
	inputs := make([]provenance.ID, 0, len(dependencies))
	meta := map[string]string{"run_id": runID}
	for i, dep := range dependencies {
		if v, ok := cache[dep]; ok && v.ProvenanceID() != "" {
			inputs = append(inputs, v.ProvenanceID())
		}
		meta[fmt.Sprintf("input_%d", i)] = dep
	}
	id, _ := r.Record(ctx, provenance.KindCalculation, "calc:"+name, inputs, meta, p.Signature())
	return id
}

// evaluate runs the full protocol for target and returns the populated
// cache (every node in the subgraph, keyed by name).
func (e *Engine) evaluate(ctx context.Context, target string, inputs map[string]any, callPolicy *policy.Policy, allowPartial bool) (map[string]value.Value, error) {
	if !e.reg.Loaded() {
		return nil, verrors.RegistryNotReady()
	}

	nodes, order, err := e.buildGraph(target, inputs, allowPartial)
	if err != nil {
		return nil, err
	}

	cache, err := seedCache(ctx, inputs, callPolicy)
	if err != nil {
		return nil, err
	}

	resolvedPolicy := policy.Default
	if callPolicy != nil {
		resolvedPolicy = *callPolicy
	} else if policy.HasPolicy(ctx) {
		resolvedPolicy = policy.FromContext(ctx)
	}

	// runID correlates every calc node recorded by this one evaluation,
	// useful for filtering a shared Recorder's graph down to a single call.
	runID := uuid.New().String()

	for _, name := range order {
		n := nodes[name]
		if n.isLeaf {
			if _, ok := cache[name]; !ok {
				// allow_partial synthetic leaf: absent from both context and
				// the registry, substitute a none-Value.
				cache[name] = value.None(ctx, unit.DimensionlessUnit, value.WithPolicy(resolvedPolicy))
			}
			continue
		}
		args := make([]value.Value, len(n.desc.Dependencies))
		for i, dep := range n.desc.Dependencies {
			args[i] = cache[dep]
		}
		result, err := n.desc.Fn(args)
		if err != nil {
			return nil, err
		}
		id := recordCalc(ctx, resolvedPolicy, name, n.desc.Dependencies, cache, runID)
		cache[name] = value.WithProvenanceID(result, id)
	}

	return cache, nil
}

// Calculate evaluates a single named calculation against inputs, returning
// its Value. callPolicy, if non-nil, takes precedence over any policy
// already on ctx.
func (e *Engine) Calculate(ctx context.Context, name string, inputs map[string]any, callPolicy *policy.Policy, allowPartial bool) (value.Value, error) {
	cache, err := e.evaluate(ctx, name, inputs, callPolicy, allowPartial)
	if err != nil {
		return value.Value{}, err
	}
	return cache[name], nil
}

// CalculateMany evaluates several named calculations against a shared
// input context, sharing nothing across calls beyond the supplied inputs
// (each name gets its own per-call cache, per the no-cross-call-cache
// invariant).
func (e *Engine) CalculateMany(ctx context.Context, names []string, inputs map[string]any, callPolicy *policy.Policy, allowPartial bool) (map[string]value.Value, error) {
	results := make(map[string]value.Value, len(names))
	for _, name := range names {
		v, err := e.Calculate(ctx, name, inputs, callPolicy, allowPartial)
		if err != nil {
			return nil, err
		}
		results[name] = v
	}
	return results, nil
}

// Dependencies returns the transitive set of names target depends on
// (context leaves and calc nodes alike), sorted for deterministic output.
func (e *Engine) Dependencies(name string) ([]string, error) {
	nodes, _, err := e.buildGraph(name, nil, true)
	if err != nil {
		return nil, err
	}
	deps := make([]string, 0, len(nodes)-1)
	for n := range nodes {
		if n != name {
			deps = append(deps, n)
		}
	}
	sort.Strings(deps)
	return deps, nil
}

// Validate checks that target's dependency graph resolves structurally --
// the root name is registered (an unregistered root fails with
// UnknownCalculation) and the graph contains no cycle -- without requiring
// any particular input context to be present, so
// non-registered leaf dependencies are treated as ordinary inputs rather
// than failures.
func (e *Engine) Validate(name string) error {
	_, _, err := e.buildGraph(name, nil, true)
	return err
}
