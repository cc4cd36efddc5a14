package reduce

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"valuecore/pkg/core/policy"
	"valuecore/pkg/core/unit"
	"valuecore/pkg/core/value"
)

func lit(t *testing.T, ctx context.Context, raw any) value.Value {
	t.Helper()
	v, err := value.FromLiteral(ctx, raw, unit.MoneyUnit("USD"))
	if err != nil {
		t.Fatalf("FromLiteral(%v) error: %v", raw, err)
	}
	return v
}

func TestReduce_SumSkipsNoneByDefault(t *testing.T) {
	ctx := context.Background()
	items := []value.Value{
		lit(t, ctx, 10),
		value.None(ctx, unit.MoneyUnit("USD")),
		lit(t, ctx, 5),
	}
	sum, err := Sum(ctx, items)
	if err != nil {
		t.Fatalf("Sum returned error: %v", err)
	}
	if want := decimal.RequireFromString("15"); !sum.AmountAsDecimal().Equal(want) {
		t.Errorf("Sum with skip mode = %s, want 15", sum.AmountAsDecimal())
	}
}

func TestReduce_SumRaiseModeFailsOnNone(t *testing.T) {
	ctx := policy.WithNullBehavior(context.Background(), policy.NullBehavior{
		Binary: policy.BinaryPropagate, Reduction: policy.ReductionRaise,
	})
	items := []value.Value{lit(t, ctx, 10), value.None(ctx, unit.MoneyUnit("USD"))}
	_, err := Sum(ctx, items)
	if err == nil {
		t.Fatal("expected NullInReduction error under raise mode")
	}
}

func TestReduce_SumZeroModeTreatsNoneAsZero(t *testing.T) {
	ctx := policy.WithNullBehavior(context.Background(), policy.SumZero)
	items := []value.Value{lit(t, ctx, 10), value.None(ctx, unit.MoneyUnit("USD"))}
	sum, err := Sum(ctx, items)
	if err != nil {
		t.Fatalf("Sum returned error: %v", err)
	}
	if want := decimal.RequireFromString("10"); !sum.AmountAsDecimal().Equal(want) {
		t.Errorf("Sum with zero mode = %s, want 10", sum.AmountAsDecimal())
	}
}

func TestReduce_SumPropagateModeYieldsNone(t *testing.T) {
	ctx := policy.WithNullBehavior(context.Background(), policy.SumPropagate)
	items := []value.Value{lit(t, ctx, 10), value.None(ctx, unit.MoneyUnit("USD"))}
	sum, err := Sum(ctx, items)
	if err != nil {
		t.Fatalf("Sum returned error: %v", err)
	}
	if !sum.IsNone() {
		t.Error("Sum under propagate mode with any None present should yield a none-Value")
	}
}

func TestReduce_SumEmptySetYieldsNone(t *testing.T) {
	ctx := context.Background()
	sum, err := Sum(ctx, nil)
	if err != nil {
		t.Fatalf("Sum returned error: %v", err)
	}
	if !sum.IsNone() {
		t.Error("Sum of an empty sequence should yield a none-Value")
	}
}

func TestReduce_SumIncompatibleUnitsFails(t *testing.T) {
	ctx := context.Background()
	usd := lit(t, ctx, 10)
	eur, _ := value.FromLiteral(ctx, 10, unit.MoneyUnit("EUR"))
	_, err := Sum(ctx, []value.Value{usd, eur})
	if err == nil {
		t.Fatal("expected IncompatibleUnits when summing mismatched Money units")
	}
}

func TestReduce_Mean(t *testing.T) {
	ctx := context.Background()
	items := []value.Value{lit(t, ctx, 10), lit(t, ctx, 20), lit(t, ctx, 30)}
	mean, err := Mean(ctx, items)
	if err != nil {
		t.Fatalf("Mean returned error: %v", err)
	}
	if want := decimal.RequireFromString("20"); !mean.AmountAsDecimal().Equal(want) {
		t.Errorf("Mean(10,20,30) = %s, want 20", mean.AmountAsDecimal())
	}
}

func TestReduce_WeightedMean(t *testing.T) {
	ctx := context.Background()
	values := []value.Value{lit(t, ctx, 10), lit(t, ctx, 20)}
	weights := []value.Value{lit(t, ctx, 1), lit(t, ctx, 3)}
	result, err := WeightedMean(ctx, values, weights)
	if err != nil {
		t.Fatalf("WeightedMean returned error: %v", err)
	}
	// (10*1 + 20*3) / (1+3) = 70/4 = 17.5
	if want := decimal.RequireFromString("17.5"); !result.AmountAsDecimal().Equal(want) {
		t.Errorf("WeightedMean = %s, want 17.5", result.AmountAsDecimal())
	}
}

func TestReduce_WeightedMeanLengthMismatchYieldsNone(t *testing.T) {
	ctx := context.Background()
	values := []value.Value{lit(t, ctx, 10)}
	weights := []value.Value{lit(t, ctx, 1), lit(t, ctx, 2)}
	result, err := WeightedMean(ctx, values, weights)
	if err != nil {
		t.Fatalf("WeightedMean returned error: %v", err)
	}
	if !result.IsNone() {
		t.Error("mismatched values/weights lengths should yield a none-Value")
	}
}

func TestReduce_WeightedMeanZeroWeightSumYieldsNoneByDefault(t *testing.T) {
	ctx := context.Background()
	values := []value.Value{lit(t, ctx, 10), lit(t, ctx, 20)}
	weights := []value.Value{lit(t, ctx, 0), lit(t, ctx, 0)}
	result, err := WeightedMean(ctx, values, weights)
	if err != nil {
		t.Fatalf("WeightedMean returned error: %v", err)
	}
	if !result.IsNone() {
		t.Error("zero weight sum should yield a none-Value under the default (non-strict) policy")
	}
}

func TestReduce_WeightedMeanZeroWeightSumStrictFails(t *testing.T) {
	strict := policy.New(policy.WithArithmeticStrict(true))
	ctx := policy.WithPolicy(context.Background(), strict)
	a, _ := value.FromLiteral(ctx, 10, unit.MoneyUnit("USD"), value.WithPolicy(strict))
	b, _ := value.FromLiteral(ctx, 20, unit.MoneyUnit("USD"), value.WithPolicy(strict))
	wa, _ := value.FromLiteral(ctx, 0, unit.DimensionlessUnit, value.WithPolicy(strict))
	wb, _ := value.FromLiteral(ctx, 0, unit.DimensionlessUnit, value.WithPolicy(strict))
	_, err := WeightedMean(ctx, []value.Value{a, b}, []value.Value{wa, wb})
	if err == nil {
		t.Fatal("expected DivisionByZero when weight sum is zero under arithmetic_strict")
	}
}

func TestReduce_CustomReducerRegistration(t *testing.T) {
	Register("first", func(ctx context.Context, items []value.Value) (value.Value, error) {
		if len(items) == 0 {
			return value.None(ctx, unit.DimensionlessUnit), nil
		}
		return items[0], nil
	})
	ctx := context.Background()
	items := []value.Value{lit(t, ctx, 7), lit(t, ctx, 9)}
	result, err := Apply(ctx, "first", items)
	if err != nil {
		t.Fatalf("Apply returned error: %v", err)
	}
	if want := decimal.RequireFromString("7"); !result.AmountAsDecimal().Equal(want) {
		t.Errorf("custom reducer 'first' = %s, want 7", result.AmountAsDecimal())
	}
}

func TestReduce_ApplyUnknownReducerFails(t *testing.T) {
	ctx := context.Background()
	_, err := Apply(ctx, "does_not_exist", nil)
	if err == nil {
		t.Fatal("expected an error for an unregistered reducer name")
	}
}
