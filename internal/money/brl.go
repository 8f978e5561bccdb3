// Package money formats amounts for display in Brazilian Real.
package money

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

const Zero = "R$ 0,00"

// ParseAmount reads a numeric-like value. Strings may use either the
// international ("1234.56") or the Brazilian ("1.234,56") convention.
func ParseAmount(v any) (decimal.Decimal, bool) {
	switch x := v.(type) {
	case nil:
		return decimal.Zero, false
	case decimal.Decimal:
		return x, true
	case float64:
		return decimal.NewFromFloat(x), true
	case float32:
		return decimal.NewFromFloat32(x), true
	case int:
		return decimal.NewFromInt(int64(x)), true
	case int64:
		return decimal.NewFromInt(x), true
	case json.Number:
		return parseString(x.String())
	case string:
		return parseString(x)
	case []byte:
		return parseString(string(x))
	default:
		return decimal.Zero, false
	}
}

func parseString(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "R$"))
	if s == "" {
		return decimal.Zero, false
	}
	if d, err := decimal.NewFromString(s); err == nil {
		return d, true
	}
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
		if d, err := decimal.NewFromString(s); err == nil {
			return d, true
		}
	}
	return decimal.Zero, false
}

// BRL formats any value as "R$ 1.234,56". Values that are not numeric yield
// "R$ 0,00".
func BRL(v any) string {
	d, ok := ParseAmount(v)
	if !ok {
		return Zero
	}
	return Format(d)
}

func Format(d decimal.Decimal) string {
	fixed := d.Abs().StringFixed(2)
	intPart, frac, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	b.WriteString("R$ ")
	if d.Round(2).IsNegative() {
		b.WriteByte('-')
	}
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	b.WriteByte(',')
	b.WriteString(frac)
	return b.String()
}
