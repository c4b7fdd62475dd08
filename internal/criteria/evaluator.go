package criteria

import (
	"math"
	"strconv"
	"strings"

	"github.com/ignite/customer-insights/internal/profile"
)

// MatchesAll reports whether a profile satisfies every condition.
// The language has no OR, grouping, or negation. Empty lists are
// rejected before evaluation at the segment layer; here an empty list
// vacuously matches, the usual conjunction semantics.
func MatchesAll(p profile.Profile, conds []Compiled) bool {
	for _, c := range conds {
		if !matches(p, c) {
			return false
		}
	}
	return true
}

// matchesLenient evaluates a single raw condition leniently: unknown
// fields, bad operators, and unparseable numeric values all evaluate
// false rather than erroring. Strict validation belongs to Compile;
// this path exists so evaluation can never blow up on malformed input.
func matchesLenient(p profile.Profile, c Condition) bool {
	return matches(p, compileLenient(c))
}

func matches(p profile.Profile, c Compiled) bool {
	ft, ok := TypeOf(c.Field)
	if !ok || ft != c.Type {
		return false
	}

	if c.Type == FieldNumeric {
		left, ok := numericField(p, c.Field)
		if !ok {
			return false
		}
		// NaN on either side makes every branch false, which is the
		// wanted behavior for unparseable values.
		switch c.Operator {
		case OpGt:
			return left > c.Number
		case OpLt:
			return left < c.Number
		case OpEq:
			return left == c.Number
		}
		return false
	}

	left, ok := textField(p, c.Field)
	if !ok {
		return false
	}
	switch c.Operator {
	case OpEq:
		return strings.EqualFold(left, c.Text)
	case OpContains:
		return strings.Contains(strings.ToLower(left), strings.ToLower(c.Text))
	}
	return false
}

func numericField(p profile.Profile, f FieldKey) (float64, bool) {
	switch f {
	case FieldValue:
		return p.RealizedValue, true
	case FieldOrderCount:
		return float64(p.OrderCount), true
	}
	return 0, false
}

func textField(p profile.Profile, f FieldKey) (string, bool) {
	switch f {
	case FieldRole:
		return p.Role, true
	case FieldEmail:
		return p.Email, true
	case FieldName:
		return p.Name, true
	case FieldCity:
		return p.City, true
	case FieldCountry:
		return p.Country, true
	}
	return "", false
}

// compileLenient mirrors Compile but maps every failure to a form
// that evaluates false: unknown fields keep an empty type, numeric
// parse failures become NaN.
func compileLenient(c Condition) Compiled {
	out := Compiled{Field: c.Field, Operator: c.Operator}

	ft, ok := TypeOf(c.Field)
	if !ok {
		return out
	}
	out.Type = ft

	if ft == FieldNumeric {
		n, err := strconv.ParseFloat(c.Value, 64)
		if err != nil {
			n = math.NaN()
		}
		out.Number = n
	} else {
		out.Text = c.Value
	}

	return out
}
