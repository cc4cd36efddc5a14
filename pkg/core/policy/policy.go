// Package policy implements the immutable Policy value object plus the
// scoped context stack (policy / resolution mode / null behavior /
// conversion policy)
// that binary operations and reductions consult to resolve formatting and
// behavioural options.
package policy

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/shopspring/decimal"
)

// RoundingMode enumerates the recognised rounding strategies.
type RoundingMode string

const (
	HalfUp   RoundingMode = "half_up"
	HalfEven RoundingMode = "half_even"
	Down     RoundingMode = "down"
	Up       RoundingMode = "up"
	Ceiling  RoundingMode = "ceiling"
	Floor    RoundingMode = "floor"
)

// PercentDisplay enumerates how a Percent value is rendered by a Formatter.
type PercentDisplay string

const (
	DisplayAsPercent PercentDisplay = "percent"
	DisplayAsRatio   PercentDisplay = "ratio"
)

// DisplayPolicy is consumed only by the Formatter collaborator; the core
// never inspects it beyond carrying it on a Policy.
type DisplayPolicy struct {
	Locale            string
	CurrencyCode      string
	MinFractionDigits int
	MaxFractionDigits int
	Grouping          bool
	CurrencyStyle     string // e.g. "symbol", "code", "accounting"
	NegativeInParens  bool
}

// Quantizer rounds amount to the given number of decimal places according to
// mode. A Policy's QuantizerFactory, given DecimalPlaces, returns a Quantizer
// bound to that scale; the default factory below honours policy.Rounding.
type Quantizer func(amount decimal.Decimal, mode RoundingMode) decimal.Decimal

// QuantizerFactory builds a Quantizer for a given number of decimal places.
type QuantizerFactory func(places int32) Quantizer

// Policy is an immutable bundle of formatting, rounding, and behavioural
// options. Two policies are compared by Signature, not by pointer identity,
// so that a PolicyConflict check is structural rather than reference-based.
type Policy struct {
	DecimalPlaces         int32
	Rounding              RoundingMode
	NoneText              string
	ThousandsSeparator    bool
	NegativeInParentheses bool
	PercentDisplay        PercentDisplay
	ArithmeticStrict      bool
	CapPercentageAt       *decimal.Decimal
	QuantizerFactory      QuantizerFactory
	Display               *DisplayPolicy
}

// DefaultQuantizerFactory rounds using shopspring/decimal's rounding methods,
// dispatching on RoundingMode exactly as the library default policy does.
func DefaultQuantizerFactory(places int32) Quantizer {
	return func(amount decimal.Decimal, mode RoundingMode) decimal.Decimal {
		switch mode {
		case HalfEven:
			return amount.RoundBank(places)
		case Down:
			return amount.RoundDown(places)
		case Up:
			return amount.RoundUp(places)
		case Ceiling:
			return amount.RoundCeil(places)
		case Floor:
			return amount.RoundFloor(places)
		case HalfUp:
			fallthrough
		default:
			return amount.Round(places)
		}
	}
}

// Default is the library-wide default policy: 2 decimal places, half-up
// rounding, propagate-friendly none text, percent display as "percent".
var Default = Policy{
	DecimalPlaces:    2,
	Rounding:         HalfUp,
	NoneText:         "",
	PercentDisplay:   DisplayAsPercent,
	ArithmeticStrict: false,
	QuantizerFactory: DefaultQuantizerFactory,
}

// New builds a Policy starting from Default and applying opts.
func New(opts ...Option) Policy {
	p := Default
	for _, opt := range opts {
		opt(&p)
	}
	return p
}

// Option mutates a Policy under construction.
type Option func(*Policy)

func WithDecimalPlaces(n int32) Option { return func(p *Policy) { p.DecimalPlaces = n } }
func WithRounding(m RoundingMode) Option { return func(p *Policy) { p.Rounding = m } }
func WithNoneText(s string) Option { return func(p *Policy) { p.NoneText = s } }
func WithThousandsSeparator(b bool) Option { return func(p *Policy) { p.ThousandsSeparator = b } }
func WithNegativeInParentheses(b bool) Option { return func(p *Policy) { p.NegativeInParentheses = b } }
func WithPercentDisplay(d PercentDisplay) Option { return func(p *Policy) { p.PercentDisplay = d } }
func WithArithmeticStrict(b bool) Option { return func(p *Policy) { p.ArithmeticStrict = b } }
func WithCapPercentageAt(d decimal.Decimal) Option {
	return func(p *Policy) { p.CapPercentageAt = &d }
}
func WithQuantizerFactory(f QuantizerFactory) Option {
	return func(p *Policy) { p.QuantizerFactory = f }
}
func WithDisplay(d DisplayPolicy) Option { return func(p *Policy) { p.Display = &d } }

// Quantize rounds amount per p.Rounding using p.QuantizerFactory (or the
// default factory if unset).
func (p Policy) Quantize(amount decimal.Decimal) decimal.Decimal {
	factory := p.QuantizerFactory
	if factory == nil {
		factory = DefaultQuantizerFactory
	}
	return factory(p.DecimalPlaces)(amount, p.Rounding)
}

// Signature returns a stable hash over the enumerated policy fields,
// excluding function pointers (QuantizerFactory) which cannot be hashed;
// two policies with the same enumerated fields but different quantizer
// factories are therefore considered equal for resolution purposes. This is
// the policy handle's comparison key used by strict_match resolution and by
// provenance's policy signature component.
func (p Policy) Signature() string {
	cap := "nil"
	if p.CapPercentageAt != nil {
		cap = p.CapPercentageAt.String()
	}
	disp := "nil"
	if p.Display != nil {
		disp = fmt.Sprintf("%s|%s|%d|%d|%v|%s|%v",
			p.Display.Locale, p.Display.CurrencyCode, p.Display.MinFractionDigits,
			p.Display.MaxFractionDigits, p.Display.Grouping, p.Display.CurrencyStyle,
			p.Display.NegativeInParens)
	}
	raw := fmt.Sprintf("%d|%s|%s|%v|%v|%s|%v|%s|%s",
		p.DecimalPlaces, p.Rounding, p.NoneText, p.ThousandsSeparator,
		p.NegativeInParentheses, p.PercentDisplay, p.ArithmeticStrict, cap, disp)
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// Equal reports whether two policies have identical signatures.
func (p Policy) Equal(other Policy) bool {
	return p.Signature() == other.Signature()
}
