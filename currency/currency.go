// Package currency formats prices for display. Amounts are carried as
// decimal.Decimal everywhere else in the storefront; this package only deals
// with turning them into vi-VN labels and back.
package currency

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Suffix is appended to every formatted amount.
const Suffix = "đ"

const maxFractionDigits = 3

var printer = message.NewPrinter(language.Vietnamese)

// Format coerces value to a number and renders it with vi-VN grouping ("." for
// thousands, "," for decimals). Values that are not finite numbers render as
// the zero label.
func Format(value any) string {
	d, ok := coerce(value)
	if !ok {
		return "0" + Suffix
	}
	f, _ := d.Round(maxFractionDigits).Float64()
	return printer.Sprintf("%v", number.Decimal(f, number.MaxFractionDigits(maxFractionDigits))) + Suffix
}

// Parse reads a label produced by Format back into its numeric value.
func Parse(label string) (decimal.Decimal, error) {
	s := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(label), Suffix))
	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, " ", "")
	s = strings.Replace(s, ",", ".", 1)
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse currency %q: %w", label, err)
	}
	return d, nil
}

func coerce(value any) (decimal.Decimal, bool) {
	switch v := value.(type) {
	case nil:
		return decimal.Zero, true
	case decimal.Decimal:
		return v, true
	case *decimal.Decimal:
		if v == nil {
			return decimal.Zero, false
		}
		return *v, true
	case float64:
		return fromFloat(v)
	case float32:
		return fromFloat(float64(v))
	case int:
		return decimal.NewFromInt(int64(v)), true
	case int32:
		return decimal.NewFromInt(int64(v)), true
	case int64:
		return decimal.NewFromInt(v), true
	case uint:
		return fromString(strconv.FormatUint(uint64(v), 10))
	case uint64:
		return fromString(strconv.FormatUint(v, 10))
	case bool:
		if v {
			return decimal.NewFromInt(1), true
		}
		return decimal.Zero, true
	case json.Number:
		return fromString(string(v))
	case string:
		return fromString(v)
	case fmt.Stringer:
		return fromString(v.String())
	default:
		return decimal.Zero, false
	}
}

func fromFloat(f float64) (decimal.Decimal, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero, false
	}
	return decimal.NewFromFloat(f), true
}

func fromString(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, true
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}
