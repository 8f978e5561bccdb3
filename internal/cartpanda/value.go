package cartpanda

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/buger/jsonparser"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/cartpanda-whatsapp/internal/money"
)

// value is a view over one JSON value inside a webhook body.
type value struct {
	raw     []byte
	typ     jsonparser.ValueType
	decoded *string
}

var missing = value{typ: jsonparser.NotExist}

func parseDocument(body []byte) (value, bool) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' || !json.Valid(trimmed) {
		return missing, false
	}
	return value{raw: trimmed, typ: jsonparser.Object}, true
}

func literal(s string) value {
	return value{typ: jsonparser.String, decoded: &s}
}

func (v value) get(path ...string) value {
	if v.typ != jsonparser.Object && v.typ != jsonparser.Array {
		return missing
	}
	raw, typ, _, err := jsonparser.Get(v.raw, path...)
	if err != nil {
		return missing
	}
	return value{raw: raw, typ: typ}
}

// first returns the first element of an array value.
func (v value) first() value {
	if v.typ != jsonparser.Array {
		return missing
	}
	out := missing
	_, _ = jsonparser.ArrayEach(v.raw, func(raw []byte, typ jsonparser.ValueType, _ int, _ error) {
		if out.typ == jsonparser.NotExist {
			out = value{raw: raw, typ: typ}
		}
	})
	return out
}

func (v value) isObject() bool { return v.typ == jsonparser.Object && !v.empty() }
func (v value) isArray() bool  { return v.typ == jsonparser.Array && !v.empty() }

func (v value) isScalar() bool {
	return v.typ == jsonparser.String || v.typ == jsonparser.Number || v.typ == jsonparser.Boolean
}

// empty reports whether v is absent, null, a blank string or an empty collection.
func (v value) empty() bool {
	switch v.typ {
	case jsonparser.String:
		return strings.TrimSpace(v.text()) == ""
	case jsonparser.Number, jsonparser.Boolean:
		return false
	case jsonparser.Object:
		n := 0
		_ = jsonparser.ObjectEach(v.raw, func(_, _ []byte, _ jsonparser.ValueType, _ int) error {
			n++
			return nil
		})
		return n == 0
	case jsonparser.Array:
		n := 0
		_, _ = jsonparser.ArrayEach(v.raw, func(_ []byte, _ jsonparser.ValueType, _ int, _ error) {
			n++
		})
		return n == 0
	default:
		return true
	}
}

func (v value) text() string {
	if v.decoded != nil {
		return *v.decoded
	}
	switch v.typ {
	case jsonparser.String:
		s, err := jsonparser.ParseString(v.raw)
		if err != nil {
			return string(v.raw)
		}
		return s
	case jsonparser.Number, jsonparser.Boolean:
		return string(v.raw)
	default:
		return ""
	}
}

// amount reads v as a positive-or-negative, non-zero number.
func (v value) amount() (decimal.Decimal, bool) {
	if v.typ != jsonparser.String && v.typ != jsonparser.Number {
		return decimal.Zero, false
	}
	d, ok := money.ParseAmount(v.text())
	if !ok || d.IsZero() {
		return decimal.Zero, false
	}
	return d, true
}

// coalesce returns the first candidate accepted by keep, evaluated left to
// right. It is the single lookup rule behind every extracted field.
func coalesce(keep func(value) bool, candidates ...value) value {
	for _, c := range candidates {
		if keep(c) {
			return c
		}
	}
	return missing
}

func presentText(v value) bool { return v.isScalar() && !v.empty() }

func firstText(candidates ...value) string {
	return strings.TrimSpace(coalesce(presentText, candidates...).text())
}

func firstObject(candidates ...value) value {
	return coalesce(value.isObject, candidates...)
}

func firstArray(candidates ...value) value {
	return coalesce(value.isArray, candidates...)
}

func firstAmount(candidates ...value) (decimal.Decimal, bool) {
	for _, c := range candidates {
		if d, ok := c.amount(); ok {
			return d, true
		}
	}
	return decimal.Zero, false
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// joined concatenates the textual parts that are present.
func joined(sep string, parts ...value) value {
	var out []string
	for _, p := range parts {
		if presentText(p) {
			out = append(out, strings.TrimSpace(p.text()))
		}
	}
	return literal(strings.Join(out, sep))
}
