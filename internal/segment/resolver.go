package segment

import (
	"context"
	"fmt"

	"github.com/ignite/customer-insights/internal/criteria"
	"github.com/ignite/customer-insights/internal/customer"
	"github.com/ignite/customer-insights/internal/profile"
)

// Resolver produces the matched set for a condition list by enriching
// and filtering the full population.
//
// This is a deliberate full-scan design: conditions reference derived
// aggregates (realized value, order count) that the backing store
// cannot filter on without materialized views, so every resolution is
// O(n * k) over the population. Fine for customer-list-sized
// populations; not a sub-second engine for millions of rows.
type Resolver struct {
	source customer.Source
}

// NewResolver creates a resolver over the given record source.
func NewResolver(source customer.Source) *Resolver {
	return &Resolver{source: source}
}

// Resolve returns every profile matching all conditions, in population
// order. Invalid conditions abort before any fetch. Resolution is
// all-or-nothing: a source failure returns no partial results.
func (r *Resolver) Resolve(ctx context.Context, conds []criteria.Condition) ([]profile.Profile, error) {
	compiled, err := criteria.CompileAll(conds)
	if err != nil {
		return nil, fmt.Errorf("compile conditions: %w", err)
	}

	population, err := r.source.ListCustomersWithOrders(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch population: %w", err)
	}

	var matched []profile.Profile
	for _, p := range profile.EnrichAll(population) {
		if criteria.MatchesAll(p, compiled) {
			matched = append(matched, p)
		}
	}

	return matched, nil
}

// Count resolves a condition list and returns only the matched size.
func (r *Resolver) Count(ctx context.Context, conds []criteria.Condition) (int, error) {
	matched, err := r.Resolve(ctx, conds)
	if err != nil {
		return 0, err
	}
	return len(matched), nil
}
