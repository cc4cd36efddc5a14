// Package registry implements the process-wide Calculation Registry:
// namespaced registration of calculation descriptors, name qualification,
// and an explicit materialise step before first use. The shape follows the
// teacher's AssumptionSet.AddNode container (a namespaced map guarding
// against duplicate ids), generalised from assumption nodes to calculation
// descriptors.
package registry

import (
	"strings"
	"sync"

	"valuecore/pkg/core/value"
	"valuecore/pkg/core/verrors"
)

// Func is a calculation body: given its dependencies' Values in the order
// declared on the Descriptor, it returns the computed Value.
type Func func(inputs []value.Value) (value.Value, error)

// Descriptor is a registered calculation: its fully-qualified name, its
// ordered dependency names (stored verbatim; resolved at engine build
// time), and its function.
type Descriptor struct {
	Name         string
	Dependencies []string
	Fn           Func
}

// Namespace is a named registration scope. Local names (no "." and no
// leading ":") are auto-prefixed with the namespace; absolute names
// (containing "." or a leading ":" sigil) are registered verbatim.
type Namespace struct {
	prefix string
	reg    *Registry
}

// Registry is the process-wide mapping from fully-qualified name to
// descriptor. The zero value is not usable; construct with New.
type Registry struct {
	mu          sync.RWMutex
	descriptors map[string]*Descriptor
	loaded      bool
}

// New constructs an empty Registry.
func New() *Registry {
	return &Registry{descriptors: make(map[string]*Descriptor)}
}

// Namespace returns a namespaced registration scope bound to prefix.
func (r *Registry) Namespace(prefix string) *Namespace {
	return &Namespace{prefix: prefix, reg: r}
}

// qualify applies the name-qualification rule: a name containing "." is
// already absolute; a name with a leading ":" sigil is absolute with the
// sigil stripped; anything else is prefixed with ns.prefix + ".".
func (ns *Namespace) qualify(name string) string {
	if strings.HasPrefix(name, ":") {
		return strings.TrimPrefix(name, ":")
	}
	if strings.Contains(name, ".") {
		return name
	}
	if ns.prefix == "" {
		return name
	}
	return ns.prefix + "." + name
}

// Register adds a calculation under this namespace. localName is qualified
// per the rules above; dependencies are stored verbatim for later
// resolution by the engine. Registering a name already present in the
// registry fails with DuplicateCalculation; an empty qualified name fails
// with InvalidName.
func (ns *Namespace) Register(localName string, dependencies []string, fn Func) error {
	name := ns.qualify(localName)
	if name == "" {
		return verrors.InvalidName(localName)
	}
	ns.reg.mu.Lock()
	defer ns.reg.mu.Unlock()
	if _, exists := ns.reg.descriptors[name]; exists {
		return verrors.DuplicateCalculation(name)
	}
	ns.reg.descriptors[name] = &Descriptor{
		Name:         name,
		Dependencies: append([]string(nil), dependencies...),
		Fn:           fn,
	}
	return nil
}

// Lookup returns the descriptor registered under the fully-qualified name.
func (r *Registry) Lookup(name string) (*Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.descriptors[name]
	return d, ok
}

// Names returns every fully-qualified registered name.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.descriptors))
	for name := range r.descriptors {
		names = append(names, name)
	}
	return names
}

// Materialize marks the registry as loaded: the engine refuses to evaluate
// against a registry that has not gone through this explicit step, so that
// registration -- which may happen via package init() across several
// calculation packages -- always completes before first use, with no lazy
// import side effects relied upon.
func (r *Registry) Materialize() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loaded = true
}

// Loaded reports whether Materialize has been called.
func (r *Registry) Loaded() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.loaded
}
