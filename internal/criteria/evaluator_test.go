package criteria

import (
	"testing"

	"github.com/ignite/customer-insights/internal/customer"
	"github.com/ignite/customer-insights/internal/profile"
)

func testProfile() profile.Profile {
	return profile.Profile{
		Record: customer.Record{
			Name:  "Ada Obi",
			Email: "ada@example.com",
			Role:  "Manager",
		},
		RealizedValue: 250,
		OrderCount:    3,
		City:          "Lagos",
		Country:       "Nigeria",
	}
}

func TestMatchesNumericOperators(t *testing.T) {
	p := testProfile()

	tests := []struct {
		name string
		cond Condition
		want bool
	}{
		{"gt true", Condition{FieldValue, OpGt, "100"}, true},
		{"gt false on equal", Condition{FieldValue, OpGt, "250"}, false},
		{"lt true", Condition{FieldValue, OpLt, "300"}, true},
		{"lt false", Condition{FieldValue, OpLt, "250"}, false},
		{"eq true", Condition{FieldValue, OpEq, "250"}, true},
		{"eq false", Condition{FieldValue, OpEq, "249.99"}, false},
		{"order count gt", Condition{FieldOrderCount, OpGt, "2"}, true},
		{"order count eq", Condition{FieldOrderCount, OpEq, "3"}, true},
		{"non-numeric value never matches gt", Condition{FieldValue, OpGt, "abc"}, false},
		{"non-numeric value never matches lt", Condition{FieldValue, OpLt, "abc"}, false},
		{"non-numeric value never matches eq", Condition{FieldValue, OpEq, "abc"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := matchesLenient(p, tt.cond); got != tt.want {
				t.Errorf("matchesLenient(%+v) = %v, want %v", tt.cond, got, tt.want)
			}
		})
	}
}

func TestMatchesTextOperators(t *testing.T) {
	p := testProfile()

	tests := []struct {
		name string
		cond Condition
		want bool
	}{
		{"contains case-insensitive", Condition{FieldCity, OpContains, "lag"}, true},
		{"contains uppercase needle", Condition{FieldCity, OpContains, "LAGOS"}, true},
		{"contains miss", Condition{FieldCity, OpContains, "abuja"}, false},
		{"eq case-insensitive", Condition{FieldRole, OpEq, "manager"}, true},
		{"eq exact only", Condition{FieldRole, OpEq, "manage"}, false},
		{"email contains domain", Condition{FieldEmail, OpContains, "@example"}, true},
		{"name eq full", Condition{FieldName, OpEq, "ada obi"}, true},
		{"country contains", Condition{FieldCountry, OpContains, "nigeria"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := matchesLenient(p, tt.cond); got != tt.want {
				t.Errorf("matchesLenient(%+v) = %v, want %v", tt.cond, got, tt.want)
			}
		})
	}
}

func TestMatchesUnknownFieldIsFalse(t *testing.T) {
	p := testProfile()

	for _, op := range []Operator{OpGt, OpLt, OpEq, OpContains} {
		cond := Condition{Field: "no_such_field", Operator: op, Value: "1"}
		if matchesLenient(p, cond) {
			t.Errorf("unknown field with operator %q matched, want false", op)
		}
	}
}

func TestMatchesOperatorFieldTypeMismatchIsFalse(t *testing.T) {
	p := testProfile()

	// contains on a numeric field and > on a text field are rejected
	// at save time; at eval time they simply never match.
	if matchesLenient(p, Condition{FieldValue, OpContains, "2"}) {
		t.Error("contains on numeric field matched, want false")
	}
	if matchesLenient(p, Condition{FieldCity, OpGt, "A"}) {
		t.Error("> on text field matched, want false")
	}
}

func TestMatchesAllIsConjunction(t *testing.T) {
	p := testProfile()

	all := []Condition{
		{FieldValue, OpGt, "100"},
		{FieldCity, OpContains, "lag"},
	}
	compiled, err := CompileAll(all)
	if err != nil {
		t.Fatalf("CompileAll: %v", err)
	}
	if !MatchesAll(p, compiled) {
		t.Error("both conditions hold, want match")
	}

	withMiss := append(all, Condition{FieldRole, OpEq, "intern"})
	compiled, err = CompileAll(withMiss)
	if err != nil {
		t.Fatalf("CompileAll: %v", err)
	}
	if MatchesAll(p, compiled) {
		t.Error("one failing condition must fail the whole list")
	}
}

func TestMatchesEmptyTextFields(t *testing.T) {
	p := profile.Profile{Record: customer.Record{Email: "b@example.com"}}

	// Empty city: contains anything non-empty is false, but every
	// string contains the empty string.
	if matchesLenient(p, Condition{FieldCity, OpContains, "lag"}) {
		t.Error("empty city matched contains, want false")
	}
	if !matchesLenient(p, Condition{FieldCity, OpEq, ""}) {
		t.Error("empty city should equal empty string")
	}
}
