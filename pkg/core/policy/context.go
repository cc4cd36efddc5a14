package policy

import "context"

// ConversionPolicy controls unit-conversion path search and strictness; it
// lives here (rather than in the convert package) so it can sit on the same
// context stack as Policy, Resolution, and NullBehavior without an import
// cycle between policy and convert.
type ConversionPolicy struct {
	Strict     bool
	AllowPaths bool
}

// DefaultConversionPolicy matches §4.4: strict=true, allow_paths=true.
var DefaultConversionPolicy = ConversionPolicy{Strict: true, AllowPaths: true}

// The four context keys below implement the "thread-local stack" of the
// design in idiomatic Go terms: context.Context values are per-call-tree and
// never mutate a parent, so pushing a scoped value and returning to the
// caller is automatically "popped" -- there is nothing to unwind, and it is
// safe across panics/early-returns because the parent ctx was never touched.
// Concurrent goroutines holding different derived contexts are therefore
// naturally isolated, satisfying the "mutation in one context never affects
// another" invariant without a literal mutable stack or goroutine-local
// storage.
type ctxKey int

const (
	keyPolicy ctxKey = iota
	keyResolution
	keyNullBehavior
	keyConversionPolicy
)

// WithPolicy returns a derived context carrying p as the active policy.
func WithPolicy(ctx context.Context, p Policy) context.Context {
	return context.WithValue(ctx, keyPolicy, p)
}

// FromContext returns the active policy, or Default if none was pushed.
func FromContext(ctx context.Context) Policy {
	if ctx == nil {
		return Default
	}
	if p, ok := ctx.Value(keyPolicy).(Policy); ok {
		return p
	}
	return Default
}

// HasPolicy reports whether ctx carries an explicitly pushed policy (used by
// the "context" resolution mode to distinguish "policy explicitly set" from
// "fall through to default").
func HasPolicy(ctx context.Context) bool {
	if ctx == nil {
		return false
	}
	_, ok := ctx.Value(keyPolicy).(Policy)
	return ok
}

// WithResolution returns a derived context carrying the active
// PolicyResolution mode.
func WithResolution(ctx context.Context, r Resolution) context.Context {
	return context.WithValue(ctx, keyResolution, r)
}

// ResolutionFromContext returns the active resolution mode, defaulting to
// ResolutionLeftOperand when unset.
func ResolutionFromContext(ctx context.Context) Resolution {
	if ctx == nil {
		return ResolutionLeftOperand
	}
	if r, ok := ctx.Value(keyResolution).(Resolution); ok {
		return r
	}
	return ResolutionLeftOperand
}

// WithNullBehavior returns a derived context carrying nb as the active null
// behavior.
func WithNullBehavior(ctx context.Context, nb NullBehavior) context.Context {
	return context.WithValue(ctx, keyNullBehavior, nb)
}

// NullBehaviorFromContext returns the active null behavior, defaulting to
// DefaultNulls when unset.
func NullBehaviorFromContext(ctx context.Context) NullBehavior {
	if ctx == nil {
		return DefaultNulls
	}
	if nb, ok := ctx.Value(keyNullBehavior).(NullBehavior); ok {
		return nb
	}
	return DefaultNulls
}

// WithConversionPolicy returns a derived context carrying cp as the active
// conversion policy.
func WithConversionPolicy(ctx context.Context, cp ConversionPolicy) context.Context {
	return context.WithValue(ctx, keyConversionPolicy, cp)
}

// ConversionPolicyFromContext returns the active conversion policy,
// defaulting to DefaultConversionPolicy when unset.
func ConversionPolicyFromContext(ctx context.Context) ConversionPolicy {
	if ctx == nil {
		return DefaultConversionPolicy
	}
	if cp, ok := ctx.Value(keyConversionPolicy).(ConversionPolicy); ok {
		return cp
	}
	return DefaultConversionPolicy
}

// Scoped runs fn with p pushed as the active policy, guaranteeing the
// caller's context is left untouched on every exit path (normal return,
// panic, or early return via fn's error) -- the idiomatic Go rendering of
// "scoped acquisition ... guarantees pop on all exit paths".
func Scoped(ctx context.Context, p Policy, fn func(ctx context.Context) error) error {
	return fn(WithPolicy(ctx, p))
}

// ScopedResolution is Scoped for the resolution-mode stack.
func ScopedResolution(ctx context.Context, r Resolution, fn func(ctx context.Context) error) error {
	return fn(WithResolution(ctx, r))
}

// ScopedNullBehavior is Scoped for the null-behavior stack; this is the
// "decorator-style wrapper [that] binds a function invocation to a specific
// null behavior" from §4.2.
func ScopedNullBehavior(ctx context.Context, nb NullBehavior, fn func(ctx context.Context) error) error {
	return fn(WithNullBehavior(ctx, nb))
}

// ScopedConversionPolicy is Scoped for the conversion-policy stack.
func ScopedConversionPolicy(ctx context.Context, cp ConversionPolicy, fn func(ctx context.Context) error) error {
	return fn(WithConversionPolicy(ctx, cp))
}
