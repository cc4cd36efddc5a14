package value

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"valuecore/pkg/core/policy"
	"valuecore/pkg/core/unit"
	"valuecore/pkg/core/verrors"
)

func TestValue_FromLiteral(t *testing.T) {
	ctx := context.Background()
	v, err := FromLiteral(ctx, "100.50", unit.MoneyUnit("USD"))
	if err != nil {
		t.Fatalf("FromLiteral returned error: %v", err)
	}
	if v.IsNone() {
		t.Fatal("expected a non-none Value")
	}
	if v.Unit() != unit.MoneyUnit("USD") {
		t.Errorf("Unit() = %v, want Money(USD)", v.Unit())
	}
	if want := decimal.RequireFromString("100.5"); !v.AmountAsDecimal().Equal(want) {
		t.Errorf("AmountAsDecimal() = %s, want 100.50", v.AmountAsDecimal())
	}
}

func TestValue_FromLiteralNonNumericString(t *testing.T) {
	ctx := context.Background()
	v, err := FromLiteral(ctx, "not-a-number", unit.DimensionlessUnit)
	if err != nil {
		t.Fatalf("non-strict FromLiteral should not error, got %v", err)
	}
	if !v.IsNone() {
		t.Error("non-numeric literal should produce a none-Value under the default (non-strict) policy")
	}
}

func TestValue_FromLiteralStrictRejectsNonNumeric(t *testing.T) {
	ctx := context.Background()
	strict := policy.New(policy.WithArithmeticStrict(true))
	_, err := FromLiteral(ctx, "not-a-number", unit.DimensionlessUnit, WithPolicy(strict))
	if !verrors.Is(err, "invalid_literal") {
		t.Errorf("expected InvalidLiteral error, got %v", err)
	}
}

func TestValue_EqualsIgnoresPolicy(t *testing.T) {
	ctx := context.Background()
	p1 := policy.New(policy.WithDecimalPlaces(2))
	p2 := policy.New(policy.WithDecimalPlaces(4))
	a, _ := FromLiteral(ctx, 10, unit.DimensionlessUnit, WithPolicy(p1))
	b, _ := FromLiteral(ctx, 10, unit.DimensionlessUnit, WithPolicy(p2))
	if !a.Equals(b) {
		t.Error("Equals should ignore differing policies per the amount+unit equality rule")
	}
	if a.SamePolicyEquals(b) {
		t.Error("SamePolicyEquals should require identical policies")
	}
}

func TestValue_NoneEqualityRespectsUnitCompatibility(t *testing.T) {
	ctx := context.Background()
	a := None(ctx, unit.MoneyUnit("USD"))
	b := None(ctx, unit.MoneyUnit("USD"))
	c := None(ctx, unit.MoneyUnit("EUR"))
	if !a.Equals(b) {
		t.Error("two none-Values with the same unit should be equal")
	}
	if a.Equals(c) {
		t.Error("two none-Values with incompatible units should not be equal")
	}
}

func TestValue_CompareNoneSortsFirst(t *testing.T) {
	ctx := context.Background()
	none := None(ctx, unit.DimensionlessUnit)
	five, _ := FromLiteral(ctx, 5, unit.DimensionlessUnit)
	if none.Compare(five) >= 0 {
		t.Error("a none-Value should compare before any non-none value")
	}
	if five.Compare(none) <= 0 {
		t.Error("a non-none value should compare after a none-Value")
	}
}

func TestValue_HashKeyIgnoresPolicy(t *testing.T) {
	ctx := context.Background()
	p1 := policy.New(policy.WithDecimalPlaces(2))
	p2 := policy.New(policy.WithDecimalPlaces(4))
	a, _ := FromLiteral(ctx, 10, unit.DimensionlessUnit, WithPolicy(p1))
	b, _ := FromLiteral(ctx, 10, unit.DimensionlessUnit, WithPolicy(p2))
	if a.HashKey() != b.HashKey() {
		t.Error("HashKey should be stable across differing policies for identical amount+unit")
	}
}

func TestValue_ZeroAndStringRendering(t *testing.T) {
	ctx := context.Background()
	z := Zero(ctx, unit.MoneyUnit("USD"))
	if z.IsNone() {
		t.Fatal("Zero should not produce a none-Value")
	}
	if !z.AmountAsDecimal().IsZero() {
		t.Errorf("Zero's amount = %s, want 0", z.AmountAsDecimal())
	}

	none := None(ctx, unit.DimensionlessUnit)
	if got := none.String(); got != "<none>" {
		t.Errorf("default None.String() = %q, want <none>", got)
	}

	withText := None(ctx, unit.DimensionlessUnit, WithPolicy(policy.New(policy.WithNoneText("N/A"))))
	if got := withText.String(); got != "N/A" {
		t.Errorf("None.String() with NoneText = %q, want N/A", got)
	}
}

func TestValue_ProvenanceIDRecordedForLiteral(t *testing.T) {
	ctx := context.Background()
	v, err := FromLiteral(ctx, 42, unit.DimensionlessUnit)
	if err != nil {
		t.Fatalf("FromLiteral error: %v", err)
	}
	if v.ProvenanceID() == "" {
		t.Error("expected a non-empty provenance id under the default recorder config")
	}
}

func TestValue_WithProvenanceIDOverrides(t *testing.T) {
	ctx := context.Background()
	v, _ := FromLiteral(ctx, 1, unit.DimensionlessUnit)
	tagged := WithProvenanceID(v, "custom-id")
	if tagged.ProvenanceID() != "custom-id" {
		t.Errorf("WithProvenanceID did not override the id, got %s", tagged.ProvenanceID())
	}
	if v.ProvenanceID() == "custom-id" {
		t.Error("WithProvenanceID must not mutate the original Value (copy semantics)")
	}
}
