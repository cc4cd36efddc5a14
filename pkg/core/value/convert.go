package value

import (
	"context"

	"valuecore/pkg/core/convert"
	"valuecore/pkg/core/unit"
)

// convertKeyType and the associated context accessors let a caller push a
// *convert.Registry onto the same context-as-stack mechanism used for
// Policy/NullBehavior/ConversionPolicy, so ConvertTo needs nothing beyond
// ctx and the two units.
type convertKeyType int

const convertKey convertKeyType = 0

// defaultRegistry is used by ConvertTo whenever no registry has been pushed
// onto ctx; it starts empty, so every conversion falls through to the
// no-path branch until the caller registers edges or pushes their own
// registry.
var defaultRegistry = convert.NewRegistry()

// WithRegistry returns a context carrying r as the active conversion
// registry for ConvertTo. AsPercentage and AsRatio do not consult it.
func WithRegistry(ctx context.Context, r *convert.Registry) context.Context {
	return context.WithValue(ctx, convertKey, r)
}

func registryFromContext(ctx context.Context) *convert.Registry {
	if ctx == nil {
		return defaultRegistry
	}
	if r, ok := ctx.Value(convertKey).(*convert.Registry); ok && r != nil {
		return r
	}
	return defaultRegistry
}

// ConvertTo converts v to the target unit via the active conversion
// registry, consulting the active ConversionPolicy (strict/allow_paths) for
// degrade-vs-fail behaviour on an unregistered conversion. A none-Value
// converts to a none-Value of the target unit without consulting the
// registry.
func ConvertTo(ctx context.Context, v Value, target unit.Unit, cctx convert.Context) (Value, error) {
	if v.unit == target {
		return v, nil
	}
	if v.isNone {
		id := recordUnaryOp(ctx, v.policy, "convert:"+target.String(), v, "none")
		return Value{isNone: true, unit: target, policy: v.policy, provenanceID: id}, nil
	}
	r := registryFromContext(ctx)
	converted, err := r.Convert(ctx, v.amount, v.unit, target, cctx)
	if err != nil {
		return Value{}, err
	}
	quantized := v.policy.Quantize(converted)
	id := recordUnaryOp(ctx, v.policy, "convert:"+target.String(), v, quantized.String())
	return Value{amount: quantized, unit: target, policy: v.policy, provenanceID: id}, nil
}

// AsPercentage reinterprets a ratio-like Value as a Percent-unit Value of
// the same underlying amount (0.1 ratio <-> 0.1 "10%", the display policy
// decides presentation, not the stored amount). If the policy's
// CapPercentageAt is set, the stored ratio is clamped to it so that a
// pathological input (e.g. a margin calculation blowing past 100%) can't
// silently propagate past a caller-declared ceiling.
func AsPercentage(ctx context.Context, v Value) Value {
	if !v.unit.IsRatioish() {
		return v
	}
	if v.isNone {
		id := recordUnaryOp(ctx, v.policy, "as_percentage", v, "none")
		return Value{isNone: true, unit: unit.PercentUnit(), policy: v.policy, provenanceID: id}
	}
	amount := v.amount
	if cap := v.policy.CapPercentageAt; cap != nil && amount.GreaterThan(*cap) {
		amount = *cap
	}
	id := recordUnaryOp(ctx, v.policy, "as_percentage", v, amount.String())
	return Value{amount: amount, unit: unit.PercentUnit(), policy: v.policy, provenanceID: id}
}

// AsRatio reinterprets a ratio-like Value (Ratio or Percent) as a Ratio-unit
// Value of the same underlying amount.
func AsRatio(ctx context.Context, v Value) Value {
	if !v.unit.IsRatioish() {
		return v
	}
	if v.isNone {
		id := recordUnaryOp(ctx, v.policy, "as_ratio", v, "none")
		return Value{isNone: true, unit: unit.RatioUnit(), policy: v.policy, provenanceID: id}
	}
	id := recordUnaryOp(ctx, v.policy, "as_ratio", v, v.amount.String())
	return Value{amount: v.amount, unit: unit.RatioUnit(), policy: v.policy, provenanceID: id}
}
