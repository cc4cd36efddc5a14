// Package format provides the pluggable Formatter collaborator: the core
// never renders locale-aware output itself, it delegates to whatever
// Formatter the caller supplies (or the Default formatter below, which
// renders a reasonable non-localised approximation).
package format

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"valuecore/pkg/core/policy"
	"valuecore/pkg/core/unit"
)

// Formatter renders an amount+unit pair under a DisplayPolicy. Locale
// lookup tables, currency symbol maps, and grouping separators beyond the
// plain thousands-comma are a caller concern; the core only guarantees the
// amount and unit it hands over are already quantized per the Policy.
type Formatter interface {
	Format(amount decimal.Decimal, u unit.Unit, dp policy.DisplayPolicy) string
}

// FuncFormatter adapts a plain function to the Formatter interface.
type FuncFormatter func(amount decimal.Decimal, u unit.Unit, dp policy.DisplayPolicy) string

func (f FuncFormatter) Format(amount decimal.Decimal, u unit.Unit, dp policy.DisplayPolicy) string {
	return f(amount, u, dp)
}

// Default is a non-localised Formatter covering the recognised
// DisplayPolicy fields: currency style, grouping, min/max fractional
// digits, and parenthesised negatives. It does not consult locale-specific
// symbol tables; callers needing real locale output should supply their
// own Formatter.
var Default Formatter = FuncFormatter(defaultFormat)

var percentScale = decimal.NewFromInt(100)

func defaultFormat(amount decimal.Decimal, u unit.Unit, dp policy.DisplayPolicy) string {
	places := dp.MaxFractionDigits
	if places == 0 && dp.MinFractionDigits > 0 {
		places = dp.MinFractionDigits
	}

	display := amount
	if u.Category == unit.Percent {
		// Percent stores the underlying ratio (0.40), scaled to its
		// percentage form (40.00%) only here at display time.
		display = display.Mul(percentScale)
	}
	rounded := display.Round(int32(places))

	negative := rounded.IsNegative()
	abs := rounded.Abs()
	body := abs.StringFixed(int32(places))

	if dp.Grouping {
		body = groupThousands(body)
	}

	switch {
	case u.Category == unit.Percent:
		body = body + "%"
	case u.Category == unit.Money:
		code := dp.CurrencyCode
		if code == "" {
			code = u.Code
		}
		if code != "" {
			switch dp.CurrencyStyle {
			case "symbol":
				body = currencySymbol(code) + body
			default:
				body = code + " " + body
			}
		}
	}

	if negative {
		if dp.NegativeInParens {
			return "(" + body + ")"
		}
		return "-" + body
	}
	return body
}

func groupThousands(s string) string {
	parts := strings.SplitN(s, ".", 2)
	intPart := parts[0]
	n := len(intPart)
	if n <= 3 {
		return s
	}
	var out strings.Builder
	lead := n % 3
	if lead > 0 {
		out.WriteString(intPart[:lead])
	}
	for i := lead; i < n; i += 3 {
		if out.Len() > 0 {
			out.WriteByte(',')
		}
		out.WriteString(intPart[i : i+3])
	}
	if len(parts) == 2 {
		return out.String() + "." + parts[1]
	}
	return out.String()
}

func currencySymbol(code string) string {
	switch strings.ToUpper(code) {
	case "USD":
		return "$"
	case "EUR":
		return "€"
	case "GBP":
		return "£"
	case "JPY":
		return "¥"
	default:
		return code + " "
	}
}

// ParseDecimalPlaces is a small convenience used by config loading to turn
// a user-supplied string (hjson/yaml values sometimes arrive untyped) into
// an int, defaulting to 0 on failure.
func ParseDecimalPlaces(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
