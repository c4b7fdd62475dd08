// Package profile derives the per-customer computed view used for
// filtering and analytics: realized value, order count, and location.
package profile

import (
	"strings"

	"github.com/ignite/customer-insights/internal/customer"
)

// paidStatus is the only payment status that contributes to realized
// value. Matching is case-insensitive.
const paidStatus = "paid"

// Profile is a customer record enriched with computed metrics for the
// duration of one resolution pass. It is never persisted.
type Profile struct {
	customer.Record

	// RealizedValue is the sum of paid-order totals. The stored
	// lifetime-value column is ignored here: it goes stale, orders
	// do not.
	RealizedValue float64 `json:"realized_value"`

	// OrderCount counts all orders regardless of payment status.
	OrderCount int `json:"order_count"`

	// City and Country come from the structured address when present
	// and well-formed, empty string otherwise.
	City    string `json:"city"`
	Country string `json:"country"`
}

// Enrich computes the derived profile for one customer. Pure function:
// no side effects, never errors, malformed fields resolve to neutral
// values.
func Enrich(rec customer.Record) Profile {
	p := Profile{
		Record:     rec,
		OrderCount: len(rec.Orders),
	}

	for _, o := range rec.Orders {
		if strings.EqualFold(strings.TrimSpace(o.PaymentStatus), paidStatus) {
			p.RealizedValue += o.TotalAmount
		}
	}

	if rec.Address != nil {
		p.City = rec.Address.City
		p.Country = rec.Address.Country
	}

	return p
}

// EnrichAll enriches every record in the population once.
func EnrichAll(records []customer.Record) []Profile {
	profiles := make([]Profile, 0, len(records))
	for _, rec := range records {
		profiles = append(profiles, Enrich(rec))
	}
	return profiles
}
