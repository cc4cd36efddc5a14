// Package config loads the ambient policy/engine configuration the way
// cmd/api/main.go in the teacher loads agent.Config: godotenv for
// environment overrides, then a YAML file unmarshalled into a plain struct.
// An HJSON variant is supported for hand-edited config files, following
// pkg/core/utils/json_validator.go's relaxed-JSON parsing.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/shopspring/decimal"

	hjson "github.com/hjson/hjson-go/v4"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"

	"valuecore/pkg/core/format"
	"valuecore/pkg/core/policy"
)

// Policy is the on-disk shape of a Policy: plain strings/numbers that map
// onto policy.Policy and policy.DisplayPolicy, since decimal.Decimal and
// function fields aren't directly YAML/HJSON-serialisable.
type Policy struct {
	DecimalPlaces         int      `yaml:"decimal_places"`
	Rounding              string   `yaml:"rounding"`
	NoneText              string   `yaml:"none_text"`
	ThousandsSeparator    bool     `yaml:"thousands_separator"`
	NegativeInParentheses bool     `yaml:"negative_in_parentheses"`
	PercentDisplay        string   `yaml:"percent_display"`
	ArithmeticStrict      bool     `yaml:"arithmetic_strict"`
	CapPercentageAt       *string  `yaml:"cap_percentage_at"`
	Display               *Display `yaml:"display"`
}

// Display is the on-disk shape of policy.DisplayPolicy.
type Display struct {
	Locale            string `yaml:"locale"`
	CurrencyCode      string `yaml:"currency_code"`
	MinFractionDigits int    `yaml:"min_fraction_digits"`
	MaxFractionDigits int    `yaml:"max_fraction_digits"`
	Grouping          bool   `yaml:"grouping"`
	CurrencyStyle     string `yaml:"currency_style"`
	NegativeInParens  bool   `yaml:"negative_in_parens"`
}

// File is the root of a policy configuration file: a default policy plus
// any number of named overrides (e.g. one per reporting currency or
// business unit).
type File struct {
	Default   Policy            `yaml:"default"`
	Overrides map[string]Policy `yaml:"overrides"`
}

// LoadEnv loads a .env file if present, following godotenv.Load()'s
// silent-if-missing convention; callers that need to know whether a file
// was actually found should check the returned error themselves.
func LoadEnv(path string) error {
	if path == "" {
		return godotenv.Load()
	}
	return godotenv.Load(path)
}

// LoadYAML reads and parses a YAML policy configuration file.
func LoadYAML(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %q: %w", path, err)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing config %q: %w", path, err)
	}
	return &f, nil
}

// LoadHJSON reads a relaxed-JSON (HJSON) policy configuration file, for
// hand-edited configs where strict YAML/JSON quoting is inconvenient.
func LoadHJSON(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %q: %w", path, err)
	}
	var raw map[string]any
	if err := hjson.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing hjson config %q: %w", path, err)
	}
	normalized, err := yaml.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("normalising hjson config %q: %w", path, err)
	}
	var f File
	if err := yaml.Unmarshal(normalized, &f); err != nil {
		return nil, fmt.Errorf("decoding hjson config %q: %w", path, err)
	}
	return &f, nil
}

func roundingMode(s string) policy.RoundingMode {
	switch s {
	case "half_even":
		return policy.HalfEven
	case "down":
		return policy.Down
	case "up":
		return policy.Up
	case "ceiling":
		return policy.Ceiling
	case "floor":
		return policy.Floor
	default:
		return policy.HalfUp
	}
}

func percentDisplay(s string) policy.PercentDisplay {
	if s == "ratio" {
		return policy.DisplayAsRatio
	}
	return policy.DisplayAsPercent
}

// ToPolicy converts an on-disk Policy into a policy.Policy, using
// policy.DefaultQuantizerFactory.
func (p Policy) ToPolicy() policy.Policy {
	opts := []policy.Option{
		policy.WithDecimalPlaces(int32(p.DecimalPlaces)),
		policy.WithRounding(roundingMode(p.Rounding)),
		policy.WithNoneText(p.NoneText),
		policy.WithThousandsSeparator(p.ThousandsSeparator),
		policy.WithNegativeInParentheses(p.NegativeInParentheses),
		policy.WithPercentDisplay(percentDisplay(p.PercentDisplay)),
		policy.WithArithmeticStrict(p.ArithmeticStrict),
	}
	if p.CapPercentageAt != nil {
		if cap, err := decimal.NewFromString(*p.CapPercentageAt); err == nil {
			opts = append(opts, policy.WithCapPercentageAt(cap))
		}
	}
	if p.Display != nil {
		opts = append(opts, policy.WithDisplay(policy.DisplayPolicy{
			Locale:            p.Display.Locale,
			CurrencyCode:      p.Display.CurrencyCode,
			MinFractionDigits: p.Display.MinFractionDigits,
			MaxFractionDigits: p.Display.MaxFractionDigits,
			Grouping:          p.Display.Grouping,
			CurrencyStyle:     p.Display.CurrencyStyle,
			NegativeInParens:  p.Display.NegativeInParens,
		}))
	}
	return policy.New(opts...)
}

// decimalPlacesFromEnv reads an integer override from the environment,
// falling back to def on any parse failure; mirrors the loose
// env-to-config pattern godotenv enables in the teacher's cmd/api.
func decimalPlacesFromEnv(key string, def int) int {
	v, ok := os.LookupEnv(key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		if parsed := format.ParseDecimalPlaces(v); parsed != 0 {
			return parsed
		}
		return def
	}
	return n
}

// ResolveDecimalPlaces applies the VALUECORE_DECIMAL_PLACES environment
// override, if set, on top of a file-loaded policy's decimal_places.
func ResolveDecimalPlaces(p Policy) int {
	return decimalPlacesFromEnv("VALUECORE_DECIMAL_PLACES", p.DecimalPlaces)
}
