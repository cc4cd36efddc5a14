// Package value implements the immutable Value triple (amount, unit,
// policy) with decimal arithmetic, unit algebra, policy resolution, and
// null propagation, per the core design.
package value

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"valuecore/pkg/core/policy"
	"valuecore/pkg/core/provenance"
	"valuecore/pkg/core/unit"
	"valuecore/pkg/core/verrors"
)

// Value is the immutable (amount, unit, policy) triple. The zero value is
// not meaningful; always construct via FromLiteral, None, or Zero.
type Value struct {
	amount       decimal.Decimal
	isNone       bool
	unit         unit.Unit
	policy       policy.Policy
	provenanceID provenance.ID
}

// Option customises construction of a single Value.
type Option func(*buildOpts)

type buildOpts struct {
	policy     *policy.Policy
	meta       map[string]string
	recorder   *provenance.Recorder
}

// WithPolicy overrides the policy attached to the constructed Value.
func WithPolicy(p policy.Policy) Option {
	return func(o *buildOpts) { o.policy = &p }
}

// WithMeta attaches additional provenance metadata (e.g. "input_name") to
// the literal node created for this Value.
func WithMeta(meta map[string]string) Option {
	return func(o *buildOpts) { o.meta = meta }
}

func resolveBuildOpts(ctx context.Context, opts []Option) buildOpts {
	var b buildOpts
	for _, opt := range opts {
		opt(&b)
	}
	if b.policy == nil {
		p := policy.FromContext(ctx)
		b.policy = &p
	}
	b.recorder = provenance.FromContext(ctx)
	return b
}

// toDecimal attempts to interpret raw as a decimal amount. Supported types:
// decimal.Decimal, int, int64, float64, string. Returns ok=false if raw is
// nil or could not be parsed.
func toDecimal(raw any) (decimal.Decimal, bool) {
	switch v := raw.(type) {
	case nil:
		return decimal.Decimal{}, false
	case decimal.Decimal:
		return v, true
	case int:
		return decimal.NewFromInt(int64(v)), true
	case int64:
		return decimal.NewFromInt(v), true
	case float64:
		return decimal.NewFromFloat(v), true
	case string:
		d, err := decimal.NewFromString(v)
		if err != nil {
			return decimal.Decimal{}, false
		}
		return d, true
	default:
		return decimal.Decimal{}, false
	}
}

func literalText(raw any) string {
	switch v := raw.(type) {
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}

// FromLiteral constructs a Value from a raw amount (number, decimal.Decimal,
// or string). A non-numeric string yields a none-Value, unless the
// effective policy has ArithmeticStrict set, in which case it fails with
// InvalidLiteral.
func FromLiteral(ctx context.Context, raw any, u unit.Unit, opts ...Option) (Value, error) {
	b := resolveBuildOpts(ctx, opts)
	d, ok := toDecimal(raw)
	if !ok {
		if b.policy.ArithmeticStrict {
			return Value{}, verrors.InvalidLiteral(literalText(raw))
		}
		return noneValue(u, *b.policy, b.recorder, ctx, b.meta), nil
	}
	quantized := b.policy.Quantize(d)
	meta := map[string]string{"value": quantized.String()}
	for k, v := range b.meta {
		meta[k] = v
	}
	id, _ := b.recorder.Record(ctx, provenance.KindLiteral, "literal", nil, meta, b.policy.Signature())
	return Value{amount: quantized, unit: u, policy: *b.policy, provenanceID: id}, nil
}

// None constructs a none-Value carrying u and the resolved policy.
func None(ctx context.Context, u unit.Unit, opts ...Option) Value {
	b := resolveBuildOpts(ctx, opts)
	return noneValue(u, *b.policy, b.recorder, ctx, b.meta)
}

func noneValue(u unit.Unit, p policy.Policy, r *provenance.Recorder, ctx context.Context, extraMeta map[string]string) Value {
	meta := map[string]string{"value": "none"}
	for k, v := range extraMeta {
		meta[k] = v
	}
	id, _ := r.Record(ctx, provenance.KindLiteral, "literal", nil, meta, p.Signature())
	return Value{isNone: true, unit: u, policy: p, provenanceID: id}
}

// Zero constructs a Value of amount 0 with unit u.
func Zero(ctx context.Context, u unit.Unit, opts ...Option) Value {
	v, _ := FromLiteral(ctx, decimal.Zero, u, opts...)
	return v
}

// IsNone reports whether v carries no amount.
func (v Value) IsNone() bool { return v.isNone }

// IsNegative reports whether v is a non-none negative amount.
func (v Value) IsNegative() bool { return !v.isNone && v.amount.IsNegative() }

// Unit returns v's unit tag.
func (v Value) Unit() unit.Unit { return v.unit }

// Policy returns v's resolved policy.
func (v Value) Policy() policy.Policy { return v.policy }

// ProvenanceID returns v's provenance node id, or "" if provenance was
// disabled when v was constructed.
func (v Value) ProvenanceID() provenance.ID { return v.provenanceID }

// AmountAsDecimal returns v's amount. Calling this on a none-Value returns
// the zero decimal; check IsNone first.
func (v Value) AmountAsDecimal() decimal.Decimal {
	if v.isNone {
		return decimal.Zero
	}
	return v.amount
}

// String renders v for diagnostics, honouring NoneText for none-Values.
func (v Value) String() string {
	if v.isNone {
		if v.policy.NoneText != "" {
			return v.policy.NoneText
		}
		return "<none>"
	}
	return v.amount.String() + " " + v.unit.String()
}

// Equals reports amount+unit equality (ignoring policy, per the design's
// open-question resolution in DESIGN.md). Two none-Values with compatible
// units are equal.
func (v Value) Equals(other Value) bool {
	if !unit.SameUnitCompatible(v.unit, other.unit) {
		return false
	}
	if v.isNone != other.isNone {
		return false
	}
	if v.isNone {
		return true
	}
	return v.amount.Equal(other.amount)
}

// SamePolicyEquals additionally requires identical policy signatures, for
// callers in strict contexts (per the design's open question).
func (v Value) SamePolicyEquals(other Value) bool {
	return v.Equals(other) && v.policy.Equal(other.policy)
}

// Compare orders Values with none sorting before any non-none value. It
// panics if the units are not comparable; callers should check
// unit.SameUnitCompatible first if units may differ.
func (v Value) Compare(other Value) int {
	if !unit.SameUnitCompatible(v.unit, other.unit) {
		panic(verrors.IncompatibleUnits(v.unit.String(), other.unit.String()))
	}
	switch {
	case v.isNone && other.isNone:
		return 0
	case v.isNone:
		return -1
	case other.isNone:
		return 1
	default:
		return v.amount.Cmp(other.amount)
	}
}

// HashKey returns a stable string suitable for use as a map key when
// grouping Values by amount+unit (not policy). It canonicalises through
// big.Rat rather than Decimal.String(), since two Values holding the same
// mathematical amount under different policies' decimal-place quantization
// (e.g. 10.00 vs 10.0000) would otherwise produce different strings despite
// comparing equal under Equals.
func (v Value) HashKey() string {
	if v.isNone {
		return "none|" + v.unit.String()
	}
	return v.amount.Rat().RatString() + "|" + v.unit.String()
}

// Must panics on error; a convenience for demo code and tests where the
// caller has already guaranteed success.
func Must(v Value, err error) Value {
	if err != nil {
		panic(err)
	}
	return v
}

// WithProvenanceID returns a copy of v tagged with id, overriding whatever
// provenance node its constructor recorded. Used by callers (reduce,
// engine) that record their own operation-level node and want the result
// Value to point at it instead of the incidental literal node created
// during construction.
func WithProvenanceID(v Value, id provenance.ID) Value {
	v.provenanceID = id
	return v
}
