// Package criteria implements the segment condition language: a fixed
// set of typed fields, per-type operators, and an AND-only evaluator
// over enriched customer profiles.
package criteria

import (
	"errors"
	"fmt"
	"strconv"
)

// FieldType is the static type of a filterable field.
type FieldType string

const (
	FieldNumeric FieldType = "numeric"
	FieldText    FieldType = "text"
)

// FieldKey names a filterable field of the computed profile.
type FieldKey string

const (
	FieldValue      FieldKey = "value"       // realized lifetime value
	FieldOrderCount FieldKey = "order_count" // all orders, any payment status
	FieldRole       FieldKey = "role"
	FieldEmail      FieldKey = "email"
	FieldName       FieldKey = "name"
	FieldCity       FieldKey = "city"
	FieldCountry    FieldKey = "country"
)

// Operator is a comparison operator. Numeric fields permit Gt, Lt and
// Eq; text fields permit Contains and Eq.
type Operator string

const (
	OpGt       Operator = ">"
	OpLt       Operator = "<"
	OpEq       Operator = "="
	OpContains Operator = "contains"
)

// FieldMeta describes one filterable field for builder UIs.
type FieldMeta struct {
	Key       FieldKey   `json:"key"`
	Label     string     `json:"label"`
	Type      FieldType  `json:"type"`
	Operators []Operator `json:"operators"`
}

var numericOperators = []Operator{OpGt, OpLt, OpEq}
var textOperators = []Operator{OpContains, OpEq}

// Fields returns metadata for every filterable field, in display order.
func Fields() []FieldMeta {
	return []FieldMeta{
		{FieldValue, "Lifetime value", FieldNumeric, numericOperators},
		{FieldOrderCount, "Order count", FieldNumeric, numericOperators},
		{FieldRole, "Role", FieldText, textOperators},
		{FieldEmail, "Email", FieldText, textOperators},
		{FieldName, "Name", FieldText, textOperators},
		{FieldCity, "City", FieldText, textOperators},
		{FieldCountry, "Country", FieldText, textOperators},
	}
}

// TypeOf returns the declared type of a field key.
func TypeOf(key FieldKey) (FieldType, bool) {
	switch key {
	case FieldValue, FieldOrderCount:
		return FieldNumeric, true
	case FieldRole, FieldEmail, FieldName, FieldCity, FieldCountry:
		return FieldText, true
	}
	return "", false
}

// ErrInvalidCondition is the root of all definition-save-time
// validation failures: unknown field, operator incompatible with the
// field's type, or an unparseable value.
var ErrInvalidCondition = errors.New("invalid condition")

// Condition is one (field, operator, value) clause. Values travel as
// strings on the wire regardless of field type; the typed form is
// resolved by Compile.
type Condition struct {
	Field    FieldKey `json:"field"`
	Operator Operator `json:"operator"`
	Value    string   `json:"value"`
}

// Compiled is a condition with its value resolved to the field's
// declared type. Exactly one of Number or Text is meaningful,
// selected by Type.
type Compiled struct {
	Field    FieldKey
	Operator Operator
	Type     FieldType
	Number   float64
	Text     string
}

// Compile resolves the condition's string value against the field's
// declared type and validates the operator. It is the save-time
// gatekeeper: segments holding a condition that fails here are never
// persisted.
func (c Condition) Compile() (Compiled, error) {
	ft, ok := TypeOf(c.Field)
	if !ok {
		return Compiled{}, fmt.Errorf("%w: unknown field %q", ErrInvalidCondition, c.Field)
	}

	if !operatorAllowed(ft, c.Operator) {
		return Compiled{}, fmt.Errorf("%w: operator %q not allowed on %s field %q",
			ErrInvalidCondition, c.Operator, ft, c.Field)
	}

	out := Compiled{Field: c.Field, Operator: c.Operator, Type: ft}
	if ft == FieldNumeric {
		n, err := strconv.ParseFloat(c.Value, 64)
		if err != nil {
			return Compiled{}, fmt.Errorf("%w: field %q requires a numeric value, got %q",
				ErrInvalidCondition, c.Field, c.Value)
		}
		out.Number = n
	} else {
		out.Text = c.Value
	}

	return out, nil
}

// CompileAll compiles a condition list, rejecting empty lists: a
// segment with no conditions would match everyone, which is never what
// an operator meant.
func CompileAll(conds []Condition) ([]Compiled, error) {
	if len(conds) == 0 {
		return nil, fmt.Errorf("%w: at least one condition is required", ErrInvalidCondition)
	}

	compiled := make([]Compiled, 0, len(conds))
	for i, c := range conds {
		cc, err := c.Compile()
		if err != nil {
			return nil, fmt.Errorf("condition %d: %w", i+1, err)
		}
		compiled = append(compiled, cc)
	}
	return compiled, nil
}

// Validate checks a condition list without keeping the compiled form.
func Validate(conds []Condition) error {
	_, err := CompileAll(conds)
	return err
}

func operatorAllowed(ft FieldType, op Operator) bool {
	ops := textOperators
	if ft == FieldNumeric {
		ops = numericOperators
	}
	for _, allowed := range ops {
		if op == allowed {
			return true
		}
	}
	return false
}
