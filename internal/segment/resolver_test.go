package segment

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/customer-insights/internal/criteria"
	"github.com/ignite/customer-insights/internal/customer"
)

type fakeSource struct {
	records []customer.Record
	err     error
	calls   int
}

func (f *fakeSource) ListCustomersWithOrders(ctx context.Context) ([]customer.Record, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.records, nil
}

func paidOrder(amount float64) customer.Order {
	return customer.Order{ID: uuid.New(), TotalAmount: amount, PaymentStatus: "paid"}
}

func unpaidOrder(amount float64) customer.Order {
	return customer.Order{ID: uuid.New(), TotalAmount: amount, PaymentStatus: "pending"}
}

// testPopulation is the three-customer population used across the
// end-to-end tests: A with two paid orders in Lagos, B with one paid
// and one unpaid order and no city, C with no orders in Lagos.
func testPopulation() []customer.Record {
	return []customer.Record{
		{
			ID: uuid.New(), Name: "Customer A", Email: "a@example.com", Role: "member",
			LastActiveAt: activeDaysAgo(5),
			Address:      &customer.Address{City: "Lagos"},
			Orders:       []customer.Order{paidOrder(50), paidOrder(70)},
		},
		{
			ID: uuid.New(), Name: "Customer B", Email: "b@example.com", Role: "member",
			LastActiveAt: activeDaysAgo(40),
			Orders:       []customer.Order{paidOrder(200), unpaidOrder(999)},
		},
		{
			ID: uuid.New(), Name: "Customer C", Email: "c@example.com", Role: "member",
			LastActiveAt: activeDaysAgo(2),
			Address:      &customer.Address{City: "Lagos"},
		},
	}
}

func TestResolveHighValueSegment(t *testing.T) {
	resolver := NewResolver(&fakeSource{records: testPopulation()})

	matched, err := resolver.Resolve(context.Background(), []criteria.Condition{
		{Field: criteria.FieldValue, Operator: criteria.OpGt, Value: "150"},
	})
	require.NoError(t, err)

	require.Len(t, matched, 1)
	assert.Equal(t, "Customer B", matched[0].Name, "only B's realized value (200) exceeds 150; A sits at 120")
	assert.Equal(t, 200.0, matched[0].RealizedValue)

	stats := fixedAnalyzer().Summarize(matched)
	assert.Equal(t, 200.0, stats.AverageValue)
	assert.Equal(t, UnknownLocation, stats.TopLocation, "B has no city")
	assert.Equal(t, 0, stats.TopLocationShare)
	assert.Equal(t, TierLow, stats.EngagementTier, "0 of 1 active within 30 days")
}

func TestResolveValueThresholdUsesRealizedValue(t *testing.T) {
	resolver := NewResolver(&fakeSource{records: testPopulation()})

	// A's two paid orders (50+70=120) clear a 100 threshold; B's unpaid
	// 999 order contributes nothing.
	matched, err := resolver.Resolve(context.Background(), []criteria.Condition{
		{Field: criteria.FieldValue, Operator: criteria.OpGt, Value: "100"},
	})
	require.NoError(t, err)

	require.Len(t, matched, 2)
	assert.Equal(t, "Customer A", matched[0].Name)
	assert.Equal(t, 120.0, matched[0].RealizedValue)
	assert.Equal(t, "Customer B", matched[1].Name)
	assert.Equal(t, 200.0, matched[1].RealizedValue)
}

func TestResolveCityContainsSegment(t *testing.T) {
	resolver := NewResolver(&fakeSource{records: testPopulation()})

	matched, err := resolver.Resolve(context.Background(), []criteria.Condition{
		{Field: criteria.FieldCity, Operator: criteria.OpContains, Value: "lag"},
	})
	require.NoError(t, err)

	require.Len(t, matched, 2)
	assert.Equal(t, "Customer A", matched[0].Name)
	assert.Equal(t, "Customer C", matched[1].Name)

	stats := fixedAnalyzer().Summarize(matched)
	assert.Equal(t, 60.0, stats.AverageValue, "(120+0)/2")
	assert.Equal(t, "Lagos", stats.TopLocation)
	assert.Equal(t, 100, stats.TopLocationShare)
	assert.Equal(t, TierHigh, stats.EngagementTier, "2 of 2 active within 30 days")
}

func TestResolveAddingConditionNeverGrowsMatchedSet(t *testing.T) {
	resolver := NewResolver(&fakeSource{records: testPopulation()})
	ctx := context.Background()

	base := []criteria.Condition{
		{Field: criteria.FieldCity, Operator: criteria.OpContains, Value: "lag"},
	}
	narrowed := append(base, criteria.Condition{
		Field: criteria.FieldValue, Operator: criteria.OpGt, Value: "50",
	})

	baseMatched, err := resolver.Resolve(ctx, base)
	require.NoError(t, err)
	narrowedMatched, err := resolver.Resolve(ctx, narrowed)
	require.NoError(t, err)

	assert.LessOrEqual(t, len(narrowedMatched), len(baseMatched))
	for _, p := range narrowedMatched {
		found := false
		for _, q := range baseMatched {
			if q.ID == p.ID {
				found = true
				break
			}
		}
		assert.True(t, found, "narrowed set must be a subset of the base set")
	}
}

func TestResolveIdempotent(t *testing.T) {
	resolver := NewResolver(&fakeSource{records: testPopulation()})
	ctx := context.Background()
	conds := []criteria.Condition{
		{Field: criteria.FieldOrderCount, Operator: criteria.OpGt, Value: "0"},
	}

	first, err := resolver.Resolve(ctx, conds)
	require.NoError(t, err)
	second, err := resolver.Resolve(ctx, conds)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestResolveSourceFailureReturnsNothing(t *testing.T) {
	resolver := NewResolver(&fakeSource{err: customer.ErrSourceUnavailable})

	matched, err := resolver.Resolve(context.Background(), []criteria.Condition{
		{Field: criteria.FieldValue, Operator: criteria.OpGt, Value: "0"},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, customer.ErrSourceUnavailable))
	assert.Nil(t, matched, "all-or-nothing: no partial results")
}

func TestResolveRejectsInvalidConditions(t *testing.T) {
	src := &fakeSource{records: testPopulation()}
	resolver := NewResolver(src)

	_, err := resolver.Resolve(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, criteria.ErrInvalidCondition))
	assert.Zero(t, src.calls, "invalid conditions fail before touching the source")
}

func TestCount(t *testing.T) {
	resolver := NewResolver(&fakeSource{records: testPopulation()})

	count, err := resolver.Count(context.Background(), []criteria.Condition{
		{Field: criteria.FieldCity, Operator: criteria.OpContains, Value: "lag"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}
