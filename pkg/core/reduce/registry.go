package reduce

import (
	"context"
	"sync"

	"valuecore/pkg/core/value"
	"valuecore/pkg/core/verrors"
)

// Func is a user-supplied reducer: given the prepared sequence of Values
// (null handling already applied per the active ReductionMode, see Apply),
// it returns the aggregate Value or an error.
type Func func(ctx context.Context, items []value.Value) (value.Value, error)

// registry holds custom reducers by name, registered once at startup
// alongside calculation registration (see the registry package).
type registry struct {
	mu      sync.RWMutex
	entries map[string]Func
}

var custom = &registry{entries: make(map[string]Func)}

// Register adds a named custom reducer (e.g. "median", "geometric_mean").
// Re-registering the same name overwrites the previous entry; callers that
// want duplicate-detection should check Lookup first.
func Register(name string, fn Func) {
	custom.mu.Lock()
	defer custom.mu.Unlock()
	custom.entries[name] = fn
}

// Lookup returns the reducer registered under name, if any.
func Lookup(name string) (Func, bool) {
	custom.mu.RLock()
	defer custom.mu.RUnlock()
	fn, ok := custom.entries[name]
	return fn, ok
}

// Apply runs the named custom reducer, applying the same prepare() pipeline
// (null-mode handling, unit/policy selection) that Sum and Mean use, then
// hands the resulting non-none amounts to fn for the actual aggregation.
// fn receives the already-validated Values filtered per the active
// ReductionMode: skip removes Nones, zero replaces them with 0-amount
// Values, propagate and raise are handled by prepare() itself and never
// reach fn.
func Apply(ctx context.Context, name string, items []value.Value) (value.Value, error) {
	fn, ok := Lookup(name)
	if !ok {
		return value.Value{}, verrors.UnknownCalculation(name)
	}
	s, err := prepare(ctx, items)
	if err != nil {
		return value.Value{}, err
	}
	if s.isNone {
		return noneResult(ctx, s, name, items), nil
	}
	prepared := make([]value.Value, 0, len(s.amounts))
	for _, a := range s.amounts {
		prepared = append(prepared, value.Must(value.FromLiteral(ctx, a, s.unit, value.WithPolicy(s.policy))))
	}
	return fn(ctx, prepared)
}
