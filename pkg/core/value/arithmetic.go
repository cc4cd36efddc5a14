package value

import (
	"context"

	"github.com/shopspring/decimal"

	"valuecore/pkg/core/policy"
	"valuecore/pkg/core/provenance"
	"valuecore/pkg/core/unit"
	"valuecore/pkg/core/verrors"
)

// resolvePolicy implements the deterministic policy-resolution order from
// §4.1: context mode consults an explicitly pushed context policy first;
// strict_match requires identical operand policies; left_operand (and the
// default when no mode is set) prefers the left operand's policy, which --
// because every Value always carries a resolved policy from construction --
// subsumes the "fall back to right, then context, then default" chain: the
// only way for that chain to ever kick in would be an "unset" policy, which
// cannot occur once a Value exists. This is recorded as a deliberate
// simplification in DESIGN.md.
func resolvePolicy(ctx context.Context, left, right Value) (policy.Policy, error) {
	switch policy.ResolutionFromContext(ctx) {
	case policy.ResolutionContext:
		if policy.HasPolicy(ctx) {
			return policy.FromContext(ctx), nil
		}
		return left.policy, nil
	case policy.ResolutionStrictMatch:
		if !left.policy.Equal(right.policy) {
			return policy.Policy{}, verrors.PolicyConflict()
		}
		return left.policy, nil
	default:
		return left.policy, nil
	}
}

// resolveUnit applies the unit-algebra table and the Scenario-D fallback:
// under arithmetic_strict or strict_match resolution, an incompatible pair
// fails with IncompatibleUnits; otherwise it degrades to the left operand's
// unit (mirroring null propagation's "undecidable" fallback), and binary
// then yields a none-Value carrying that unit.
func resolveUnit(ctx context.Context, p policy.Policy, left, right unit.Unit, op unit.ResultOp) (unit.Unit, error) {
	result, ok := unit.Resolve(left, op, right)
	if ok {
		return result, nil
	}
	if p.ArithmeticStrict || policy.ResolutionFromContext(ctx) == policy.ResolutionStrictMatch {
		return unit.Unit{}, verrors.IncompatibleUnits(left.String(), right.String())
	}
	return left, nil
}

func recordOp(ctx context.Context, p policy.Policy, op string, left, right Value, resultText string) provenance.ID {
	r := provenance.FromContext(ctx)
	inputs := make([]provenance.ID, 0, 2)
	if left.provenanceID != "" {
		inputs = append(inputs, left.provenanceID)
	}
	if right.provenanceID != "" {
		inputs = append(inputs, right.provenanceID)
	}
	meta := map[string]string{"result": resultText}
	id, _ := r.Record(ctx, provenance.KindOperation, op, inputs, meta, p.Signature())
	return id
}

func recordUnaryOp(ctx context.Context, p policy.Policy, op string, operand Value, resultText string) provenance.ID {
	r := provenance.FromContext(ctx)
	var inputs []provenance.ID
	if operand.provenanceID != "" {
		inputs = []provenance.ID{operand.provenanceID}
	}
	meta := map[string]string{"result": resultText}
	id, _ := r.Record(ctx, provenance.KindOperation, op, inputs, meta, p.Signature())
	return id
}

// binary implements the common shape of every binary arithmetic op: policy
// resolution, null propagation, unit-algebra dispatch, and provenance
// recording. compute performs the actual decimal math once both operands
// are known non-none and unit-compatible; Divide handles a zero divisor
// itself before delegating here.
func binary(
	ctx context.Context,
	opTag unit.ResultOp,
	opSymbol string,
	left, right Value,
	compute func(l, r decimal.Decimal) (decimal.Decimal, error),
) (Value, error) {
	p, err := resolvePolicy(ctx, left, right)
	if err != nil {
		return Value{}, err
	}

	nb := policy.NullBehaviorFromContext(ctx)
	if left.isNone || right.isNone {
		if nb.Binary == policy.BinaryRaise {
			return Value{}, verrors.InvalidOperand()
		}
		u, uerr := resolveUnit(ctx, p, left.unit, right.unit, opTag)
		if uerr != nil {
			// Unit algebra itself is undefined even for the propagate path;
			// fall back to the left operand's unit per §4.1.
			u = left.unit
		}
		id := recordOp(ctx, p, opSymbol, left, right, "none")
		return Value{isNone: true, unit: u, policy: p, provenanceID: id}, nil
	}

	u, err := resolveUnit(ctx, p, left.unit, right.unit, opTag)
	if err != nil {
		return Value{}, err
	}
	if _, ok := unit.Resolve(left.unit, opTag, right.unit); !ok {
		// Incompatible units outside strict mode: no amount is computed.
		id := recordOp(ctx, p, opSymbol, left, right, "none")
		return Value{isNone: true, unit: u, policy: p, provenanceID: id}, nil
	}

	result, err := compute(left.amount, right.amount)
	if err != nil {
		return Value{}, err
	}
	quantized := p.Quantize(result)
	id := recordOp(ctx, p, opSymbol, left, right, quantized.String())
	return Value{amount: quantized, unit: u, policy: p, provenanceID: id}, nil
}

// Add implements Money+Money (same code), Ratioish+Ratioish, and
// Dimensionless+Dimensionless per the unit-algebra table.
func Add(ctx context.Context, left, right Value) (Value, error) {
	return binary(ctx, unit.OpAdd, "+", left, right, func(l, r decimal.Decimal) (decimal.Decimal, error) {
		return l.Add(r), nil
	})
}

// Subtract implements left-right under the same unit rules as Add.
func Subtract(ctx context.Context, left, right Value) (Value, error) {
	return binary(ctx, unit.OpSub, "-", left, right, func(l, r decimal.Decimal) (decimal.Decimal, error) {
		return l.Sub(r), nil
	})
}

// Multiply implements the × row of the unit-algebra table.
func Multiply(ctx context.Context, left, right Value) (Value, error) {
	return binary(ctx, unit.OpMul, "*", left, right, func(l, r decimal.Decimal) (decimal.Decimal, error) {
		return l.Mul(r), nil
	})
}

// Divide implements the ÷ row of the unit-algebra table, including the
// DivisionByZero edge policy: under arithmetic_strict, dividing by a
// zero-amount non-none operand fails; otherwise it degrades to a
// none-Value with the algebra's result unit.
func Divide(ctx context.Context, left, right Value) (Value, error) {
	p, perr := resolvePolicy(ctx, left, right)
	if perr != nil {
		return Value{}, perr
	}
	nb := policy.NullBehaviorFromContext(ctx)

	if !right.isNone && right.amount.IsZero() {
		if !left.isNone && p.ArithmeticStrict {
			return Value{}, verrors.DivisionByZero()
		}
		u, uerr := resolveUnit(ctx, p, left.unit, right.unit, unit.OpDiv)
		if uerr != nil {
			u = left.unit
		}
		id := recordOp(ctx, p, "/", left, right, "none")
		return Value{isNone: true, unit: u, policy: p, provenanceID: id}, nil
	}

	if left.isNone || right.isNone {
		if nb.Binary == policy.BinaryRaise {
			return Value{}, verrors.InvalidOperand()
		}
		u, uerr := resolveUnit(ctx, p, left.unit, right.unit, unit.OpDiv)
		if uerr != nil {
			u = left.unit
		}
		id := recordOp(ctx, p, "/", left, right, "none")
		return Value{isNone: true, unit: u, policy: p, provenanceID: id}, nil
	}

	return binary(ctx, unit.OpDiv, "/", left, right, func(l, r decimal.Decimal) (decimal.Decimal, error) {
		return l.Div(r), nil
	})
}

// Power raises v to the integer power exp, preserving v's unit (the
// algebra table does not cover exponentiation; squaring a Money amount is
// left to the calling calculation's judgement).
func Power(ctx context.Context, v Value, exp int32) (Value, error) {
	p := v.policy
	if policy.HasPolicy(ctx) && policy.ResolutionFromContext(ctx) == policy.ResolutionContext {
		p = policy.FromContext(ctx)
	}
	nb := policy.NullBehaviorFromContext(ctx)
	if v.isNone {
		if nb.Binary == policy.BinaryRaise {
			return Value{}, verrors.InvalidOperand()
		}
		id := recordUnaryOp(ctx, p, "^", v, "none")
		return Value{isNone: true, unit: v.unit, policy: p, provenanceID: id}, nil
	}
	result := v.amount.Pow(decimal.NewFromInt32(exp))
	quantized := p.Quantize(result)
	id := recordUnaryOp(ctx, p, "^", v, quantized.String())
	return Value{amount: quantized, unit: v.unit, policy: p, provenanceID: id}, nil
}

// Negate returns -v, preserving unit and policy.
func Negate(ctx context.Context, v Value) Value {
	if v.isNone {
		id := recordUnaryOp(ctx, v.policy, "neg", v, "none")
		return Value{isNone: true, unit: v.unit, policy: v.policy, provenanceID: id}
	}
	result := v.policy.Quantize(v.amount.Neg())
	id := recordUnaryOp(ctx, v.policy, "neg", v, result.String())
	return Value{amount: result, unit: v.unit, policy: v.policy, provenanceID: id}
}

// Absolute returns |v|, preserving unit and policy.
func Absolute(ctx context.Context, v Value) Value {
	if v.isNone {
		id := recordUnaryOp(ctx, v.policy, "abs", v, "none")
		return Value{isNone: true, unit: v.unit, policy: v.policy, provenanceID: id}
	}
	result := v.policy.Quantize(v.amount.Abs())
	id := recordUnaryOp(ctx, v.policy, "abs", v, result.String())
	return Value{amount: result, unit: v.unit, policy: v.policy, provenanceID: id}
}
