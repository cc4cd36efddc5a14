// Package verrors defines the error taxonomy shared across value arithmetic,
// the policy stack, reductions, unit conversion, the calculation engine, and
// provenance export. Every constructor here returns an *Error tagged with a
// Kind so callers can branch on category without string matching.
package verrors

import (
	"errors"
	"fmt"
)

// Kind classifies a library error so callers can branch without string
// matching on Error().
type Kind string

const (
	KindInvalidLiteral      Kind = "invalid_literal"
	KindInvalidOperand      Kind = "invalid_operand"
	KindIncompatibleUnits   Kind = "incompatible_units"
	KindPolicyConflict      Kind = "policy_conflict"
	KindDivisionByZero      Kind = "division_by_zero"
	KindNullInReduction     Kind = "null_in_reduction"
	KindMissingConversion   Kind = "missing_conversion"
	KindUnknownCalculation  Kind = "unknown_calculation"
	KindDuplicateCalc       Kind = "duplicate_calculation"
	KindInvalidName         Kind = "invalid_name"
	KindCircularDependency  Kind = "circular_dependency"
	KindMissingInput        Kind = "missing_input"
	KindGraphTooLarge       Kind = "graph_too_large"
	KindRegistryNotReady    Kind = "registry_not_materialized"
)

// Error is the concrete error type returned by the library. It always
// carries a Kind plus whatever offending names/units/paths make the failure
// actionable, per the error-taxonomy section of the design.
type Error struct {
	Kind Kind
	// Name is the offending calculation, dependency, or input name, if any.
	Name string
	// Unit is the offending unit code (e.g. a currency code), if any.
	Unit string
	// Path is the offending dependency path (for cycles).
	Path []string
	// Msg is a human-readable description.
	Msg string
	// Err wraps an underlying cause, if any.
	Err error
}

func (e *Error) Error() string {
	switch {
	case e.Kind == KindCircularDependency && len(e.Path) > 0:
		return fmt.Sprintf("%s: %v", e.Msg, e.Path)
	case e.Name != "" && e.Unit != "":
		return fmt.Sprintf("%s: name=%q unit=%q", e.Msg, e.Name, e.Unit)
	case e.Name != "":
		return fmt.Sprintf("%s: %q", e.Msg, e.Name)
	default:
		return e.Msg
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether err, or any error it wraps, is an *Error of the given
// kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

func newErr(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

func InvalidLiteral(raw string) error {
	e := newErr(KindInvalidLiteral, "could not interpret literal as a decimal")
	e.Name = raw
	return e
}

func InvalidOperand() error {
	return newErr(KindInvalidOperand, "operand is none under raise null behavior")
}

func IncompatibleUnits(left, right string) error {
	e := newErr(KindIncompatibleUnits, "unit algebra does not permit this operation")
	e.Unit = left + "/" + right
	return e
}

func PolicyConflict() error {
	return newErr(KindPolicyConflict, "strict_match resolution requires identical policies")
}

func DivisionByZero() error {
	return newErr(KindDivisionByZero, "division by zero under arithmetic_strict policy")
}

func NullInReduction() error {
	return newErr(KindNullInReduction, "none element encountered in raise-mode reduction")
}

func MissingConversion(from, to string) error {
	e := newErr(KindMissingConversion, "no conversion path found")
	e.Unit = from + "->" + to
	return e
}

func UnknownCalculation(name string) error {
	e := newErr(KindUnknownCalculation, "unknown calculation")
	e.Name = name
	return e
}

func DuplicateCalculation(name string) error {
	e := newErr(KindDuplicateCalc, "calculation already registered")
	e.Name = name
	return e
}

func InvalidName(name string) error {
	e := newErr(KindInvalidName, "invalid calculation name")
	e.Name = name
	return e
}

func CircularDependency(path []string) error {
	e := newErr(KindCircularDependency, "circular dependency detected")
	e.Path = path
	return e
}

func MissingInput(name string) error {
	e := newErr(KindMissingInput, "required input is absent from context")
	e.Name = name
	return e
}

func GraphTooLarge(limit int) error {
	return newErr(KindGraphTooLarge, fmt.Sprintf("provenance graph exceeds node budget of %d", limit))
}

func RegistryNotReady() error {
	return newErr(KindRegistryNotReady, "registry has not been Materialize()d")
}
