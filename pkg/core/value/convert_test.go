package value

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"valuecore/pkg/core/convert"
	"valuecore/pkg/core/policy"
	"valuecore/pkg/core/unit"
)

func TestConvertTo_SameUnitReturnsUnchanged(t *testing.T) {
	ctx := context.Background()
	v := mustLiteral(t, ctx, 10, unit.MoneyUnit("USD"))
	got, err := ConvertTo(ctx, v, unit.MoneyUnit("USD"), convert.Context{})
	if err != nil {
		t.Fatalf("ConvertTo returned error: %v", err)
	}
	if !got.Equals(v) {
		t.Error("converting to the same unit should return an equal Value")
	}
}

func TestConvertTo_NoneConvertsWithoutRegistry(t *testing.T) {
	ctx := context.Background()
	v := None(ctx, unit.MoneyUnit("USD"))
	got, err := ConvertTo(ctx, v, unit.MoneyUnit("EUR"), convert.Context{})
	if err != nil {
		t.Fatalf("ConvertTo returned error: %v", err)
	}
	if !got.IsNone() || got.Unit() != unit.MoneyUnit("EUR") {
		t.Errorf("converting a none-Value should yield a none-Value of the target unit, got %+v", got)
	}
}

func TestConvertTo_UsesRegistryFromContext(t *testing.T) {
	reg := convert.NewRegistry()
	reg.Register(unit.MoneyUnit("USD"), unit.MoneyUnit("EUR"), func(amount decimal.Decimal, cctx convert.Context) (decimal.Decimal, error) {
		return amount.Mul(decimal.RequireFromString("0.5")), nil
	})
	ctx := WithRegistry(context.Background(), reg)
	v := mustLiteral(t, ctx, 100, unit.MoneyUnit("USD"))
	got, err := ConvertTo(ctx, v, unit.MoneyUnit("EUR"), convert.Context{})
	if err != nil {
		t.Fatalf("ConvertTo returned error: %v", err)
	}
	if want := decimal.RequireFromString("50"); !got.AmountAsDecimal().Equal(want) {
		t.Errorf("ConvertTo = %s, want 50", got.AmountAsDecimal())
	}
	if got.Unit() != unit.MoneyUnit("EUR") {
		t.Errorf("converted Value has unit %v, want EUR", got.Unit())
	}
}

func TestConvertTo_NoRegistryFallsBackToStrictPolicy(t *testing.T) {
	ctx := policy.WithConversionPolicy(context.Background(), policy.ConversionPolicy{Strict: true})
	v := mustLiteral(t, ctx, 1, unit.MoneyUnit("USD"))
	_, err := ConvertTo(ctx, v, unit.MoneyUnit("JPY"), convert.Context{})
	if err == nil {
		t.Fatal("expected an error converting with no registered path under a strict conversion policy")
	}
}

func TestAsPercentage_ReinterpretsRatio(t *testing.T) {
	ctx := context.Background()
	v := mustLiteral(t, ctx, decimal.RequireFromString("0.1"), unit.RatioUnit())
	got := AsPercentage(ctx, v)
	if got.Unit().Category != unit.Percent {
		t.Errorf("AsPercentage should switch category to Percent, got %v", got.Unit())
	}
	if !got.AmountAsDecimal().Equal(decimal.RequireFromString("0.1")) {
		t.Errorf("AsPercentage should not rescale the stored amount, got %s", got.AmountAsDecimal())
	}
}

func TestAsPercentage_CapPercentageAtClampsStoredRatio(t *testing.T) {
	ctx := context.Background()
	cap := decimal.RequireFromString("1.0")
	p := policy.New(policy.WithCapPercentageAt(cap))
	v := mustLiteral(t, ctx, decimal.RequireFromString("1.5"), unit.RatioUnit(), WithPolicy(p))
	got := AsPercentage(ctx, v)
	if !got.AmountAsDecimal().Equal(cap) {
		t.Errorf("AsPercentage with CapPercentageAt=1.0 on a 1.5 ratio = %s, want clamped to 1.0", got.AmountAsDecimal())
	}
}

func TestAsPercentage_BelowCapPercentageAtUnaffected(t *testing.T) {
	ctx := context.Background()
	cap := decimal.RequireFromString("1.0")
	p := policy.New(policy.WithCapPercentageAt(cap))
	v := mustLiteral(t, ctx, decimal.RequireFromString("0.3"), unit.RatioUnit(), WithPolicy(p))
	got := AsPercentage(ctx, v)
	if !got.AmountAsDecimal().Equal(decimal.RequireFromString("0.3")) {
		t.Errorf("AsPercentage should leave a ratio under the cap unchanged, got %s", got.AmountAsDecimal())
	}
}

func TestAsPercentage_NonRatioUnaffected(t *testing.T) {
	ctx := context.Background()
	v := mustLiteral(t, ctx, 10, unit.MoneyUnit("USD"))
	got := AsPercentage(ctx, v)
	if got.Unit() != unit.MoneyUnit("USD") {
		t.Error("AsPercentage should leave a non-ratio Value's unit unchanged")
	}
}

func TestAsRatio_ReinterpretsPercent(t *testing.T) {
	ctx := context.Background()
	v := mustLiteral(t, ctx, decimal.RequireFromString("0.25"), unit.PercentUnit())
	got := AsRatio(ctx, v)
	if got.Unit() != unit.RatioUnit() {
		t.Errorf("AsRatio should switch to RatioUnit, got %v", got.Unit())
	}
}

func TestAsRatio_NoneRoundTrips(t *testing.T) {
	ctx := context.Background()
	v := None(ctx, unit.PercentUnit())
	got := AsRatio(ctx, v)
	if !got.IsNone() || got.Unit() != unit.RatioUnit() {
		t.Errorf("AsRatio on a none-Value should yield a none Ratio, got %+v", got)
	}
}
