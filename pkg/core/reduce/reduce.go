// Package reduce implements aggregate operations over sequences of Values:
// sum, mean, weighted_mean, and registration of custom reducers, all
// sharing the null-handling modes and unit/policy selection rules from the
// core design.
package reduce

import (
	"context"

	"github.com/shopspring/decimal"

	"valuecore/pkg/core/policy"
	"valuecore/pkg/core/provenance"
	"valuecore/pkg/core/unit"
	"valuecore/pkg/core/value"
	"valuecore/pkg/core/verrors"
)

// selection holds the unit/policy chosen for a reduction plus the prepared
// (non-none, after skip filtering) amounts.
type selection struct {
	unit    unit.Unit
	policy  policy.Policy
	amounts []decimal.Decimal
	isNone  bool
}

// prepare applies the active ReductionMode, unit/policy selection, and
// incompatible-unit detection shared by sum, mean, and weighted_mean.
func prepare(ctx context.Context, items []value.Value) (selection, error) {
	mode := policy.NullBehaviorFromContext(ctx).Reduction

	var chosenUnit unit.Unit
	haveUnit := false
	var chosenPolicy policy.Policy
	havePolicy := false
	anyNone := false
	var amounts []decimal.Decimal

	for _, v := range items {
		if v.IsNone() {
			anyNone = true
			switch mode {
			case policy.ReductionSkip:
				continue
			case policy.ReductionRaise:
				return selection{}, verrors.NullInReduction()
			case policy.ReductionZero:
				amounts = append(amounts, decimal.Zero)
			case policy.ReductionPropagate:
				// handled after the loop: propagate wins regardless of
				// what else is present.
			}
			continue
		}
		if !haveUnit {
			chosenUnit = v.Unit()
			haveUnit = true
		} else if !unit.SameUnitCompatible(chosenUnit, v.Unit()) {
			return selection{}, verrors.IncompatibleUnits(chosenUnit.String(), v.Unit().String())
		}
		if !havePolicy {
			chosenPolicy = v.Policy()
			havePolicy = true
		}
		amounts = append(amounts, v.AmountAsDecimal())
	}

	if mode == policy.ReductionPropagate && anyNone {
		if !haveUnit {
			chosenUnit = unit.DimensionlessUnit
		}
		if !havePolicy {
			chosenPolicy = resolvePolicy(ctx)
		}
		return selection{unit: chosenUnit, policy: chosenPolicy, isNone: true}, nil
	}

	if !haveUnit {
		chosenUnit = unit.DimensionlessUnit
	}
	if !havePolicy {
		chosenPolicy = resolvePolicy(ctx)
	}
	return selection{unit: chosenUnit, policy: chosenPolicy, amounts: amounts}, nil
}

func resolvePolicy(ctx context.Context) policy.Policy {
	if policy.HasPolicy(ctx) {
		return policy.FromContext(ctx)
	}
	return policy.Default
}

func recordReduction(ctx context.Context, p policy.Policy, op string, items []value.Value, resultText string) provenance.ID {
	r := provenance.FromContext(ctx)
	inputs := make([]provenance.ID, 0, len(items))
	for _, v := range items {
		if id := v.ProvenanceID(); id != "" {
			inputs = append(inputs, id)
		}
	}
	meta := map[string]string{"result": resultText, "count": itoa(len(items))}
	id, _ := r.Record(ctx, provenance.KindOperation, op, inputs, meta, p.Signature())
	return id
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

func noneResult(ctx context.Context, s selection, op string, items []value.Value) value.Value {
	id := recordReduction(ctx, s.policy, op, items, "none")
	return value.WithProvenanceID(value.None(ctx, s.unit, value.WithPolicy(s.policy)), id)
}

// Sum adds every non-skipped element; an empty result set (after skip
// filtering) yields a none-Value.
func Sum(ctx context.Context, items []value.Value) (value.Value, error) {
	s, err := prepare(ctx, items)
	if err != nil {
		return value.Value{}, err
	}
	if s.isNone {
		return noneResult(ctx, s, "sum", items), nil
	}
	if len(s.amounts) == 0 {
		return noneResult(ctx, s, "sum", items), nil
	}
	total := decimal.Zero
	for _, a := range s.amounts {
		total = total.Add(a)
	}
	quantized := s.policy.Quantize(total)
	id := recordReduction(ctx, s.policy, "sum", items, quantized.String())
	v := value.Must(value.FromLiteral(ctx, quantized, s.unit, value.WithPolicy(s.policy)))
	return value.WithProvenanceID(v, id), nil
}

// Mean computes the arithmetic mean of every non-skipped element; an empty
// result set yields a none-Value.
func Mean(ctx context.Context, items []value.Value) (value.Value, error) {
	s, err := prepare(ctx, items)
	if err != nil {
		return value.Value{}, err
	}
	if s.isNone {
		return noneResult(ctx, s, "mean", items), nil
	}
	if len(s.amounts) == 0 {
		return noneResult(ctx, s, "mean", items), nil
	}
	total := decimal.Zero
	for _, a := range s.amounts {
		total = total.Add(a)
	}
	mean := total.Div(decimal.NewFromInt(int64(len(s.amounts))))
	quantized := s.policy.Quantize(mean)
	id := recordReduction(ctx, s.policy, "mean", items, quantized.String())
	v := value.Must(value.FromLiteral(ctx, quantized, s.unit, value.WithPolicy(s.policy)))
	return value.WithProvenanceID(v, id), nil
}

// WeightedMean computes sum(value*weight)/sum(weight) over paired sequences.
// A length mismatch between values and weights yields a none-Value. Under
// skip mode, a pair is dropped if either element is None. A zero sum of
// weights yields a none-Value unless arithmetic_strict policy is set, in
// which case it fails with DivisionByZero.
func WeightedMean(ctx context.Context, values []value.Value, weights []value.Value) (value.Value, error) {
	if len(values) != len(weights) {
		p := resolvePolicy(ctx)
		u := unit.DimensionlessUnit
		if len(values) > 0 {
			u = values[0].Unit()
		}
		id := recordReduction(ctx, p, "weighted_mean", append(append([]value.Value{}, values...), weights...), "none")
		return value.WithProvenanceID(value.None(ctx, u, value.WithPolicy(p)), id), nil
	}

	mode := policy.NullBehaviorFromContext(ctx).Reduction

	var chosenUnit unit.Unit
	haveUnit := false
	var chosenPolicy policy.Policy
	havePolicy := false
	anyNone := false

	type pair struct{ v, w decimal.Decimal }
	var pairs []pair

	for i := range values {
		v, w := values[i], weights[i]
		if v.IsNone() || w.IsNone() {
			anyNone = true
			switch mode {
			case policy.ReductionSkip:
				continue
			case policy.ReductionRaise:
				return value.Value{}, verrors.NullInReduction()
			case policy.ReductionZero:
				va, wa := decimal.Zero, decimal.Zero
				if !v.IsNone() {
					va = v.AmountAsDecimal()
				}
				if !w.IsNone() {
					wa = w.AmountAsDecimal()
				}
				pairs = append(pairs, pair{va, wa})
			case policy.ReductionPropagate:
			}
			continue
		}
		if !haveUnit {
			chosenUnit = v.Unit()
			haveUnit = true
		} else if !unit.SameUnitCompatible(chosenUnit, v.Unit()) {
			return value.Value{}, verrors.IncompatibleUnits(chosenUnit.String(), v.Unit().String())
		}
		if !havePolicy {
			chosenPolicy = v.Policy()
			havePolicy = true
		}
		pairs = append(pairs, pair{v.AmountAsDecimal(), w.AmountAsDecimal()})
	}

	if !haveUnit {
		chosenUnit = unit.DimensionlessUnit
	}
	if !havePolicy {
		chosenPolicy = resolvePolicy(ctx)
	}

	all := append(append([]value.Value{}, values...), weights...)

	if mode == policy.ReductionPropagate && anyNone {
		id := recordReduction(ctx, chosenPolicy, "weighted_mean", all, "none")
		return value.WithProvenanceID(value.None(ctx, chosenUnit, value.WithPolicy(chosenPolicy)), id), nil
	}

	if len(pairs) == 0 {
		id := recordReduction(ctx, chosenPolicy, "weighted_mean", all, "none")
		return value.WithProvenanceID(value.None(ctx, chosenUnit, value.WithPolicy(chosenPolicy)), id), nil
	}

	weightSum := decimal.Zero
	weightedTotal := decimal.Zero
	for _, pr := range pairs {
		weightedTotal = weightedTotal.Add(pr.v.Mul(pr.w))
		weightSum = weightSum.Add(pr.w)
	}

	if weightSum.IsZero() {
		if chosenPolicy.ArithmeticStrict {
			return value.Value{}, verrors.DivisionByZero()
		}
		id := recordReduction(ctx, chosenPolicy, "weighted_mean", all, "none")
		return value.WithProvenanceID(value.None(ctx, chosenUnit, value.WithPolicy(chosenPolicy)), id), nil
	}

	result := weightedTotal.Div(weightSum)
	quantized := chosenPolicy.Quantize(result)
	id := recordReduction(ctx, chosenPolicy, "weighted_mean", all, quantized.String())
	v := value.Must(value.FromLiteral(ctx, quantized, chosenUnit, value.WithPolicy(chosenPolicy)))
	return value.WithProvenanceID(v, id), nil
}
