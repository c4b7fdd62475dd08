package segment

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/customer-insights/internal/criteria"
)

type fakeSyncStore struct {
	mu      sync.Mutex
	defs    []*Definition
	listErr error
	updates map[uuid.UUID]int
}

func (f *fakeSyncStore) List(ctx context.Context) ([]*Definition, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.defs, nil
}

func (f *fakeSyncStore) UpdateCount(ctx context.Context, id uuid.UUID, count int, calculatedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updates == nil {
		f.updates = make(map[uuid.UUID]int)
	}
	f.updates[id] = count
	return nil
}

// fakeCounter returns a fixed count per condition value, keyed by the
// first condition's Value, or an error for values in failFor.
type fakeCounter struct {
	counts  map[string]int
	failFor map[string]bool
}

func (f *fakeCounter) Count(ctx context.Context, conds []criteria.Condition) (int, error) {
	key := conds[0].Value
	if f.failFor[key] {
		return 0, fmt.Errorf("resolution blew up for %s", key)
	}
	return f.counts[key], nil
}

func syncDef(name, condValue string, cachedCount int) *Definition {
	return &Definition{
		ID:          uuid.New(),
		Name:        name,
		Conditions:  []criteria.Condition{{Field: criteria.FieldValue, Operator: criteria.OpGt, Value: condValue}},
		CachedCount: cachedCount,
	}
}

func TestSyncAllWritesOnlyDriftedCounts(t *testing.T) {
	drifted := syncDef("drifted", "100", 5)
	fresh := syncDef("fresh", "200", 7)

	store := &fakeSyncStore{defs: []*Definition{drifted, fresh}}
	counter := &fakeCounter{counts: map[string]int{"100": 9, "200": 7}}

	report, err := NewSyncer(store, counter, nil, 2).SyncAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []uuid.UUID{drifted.ID}, report.Updated)
	assert.Equal(t, []uuid.UUID{fresh.ID}, report.Unchanged)
	assert.Empty(t, report.Failures)

	assert.Equal(t, map[uuid.UUID]int{drifted.ID: 9}, store.updates,
		"only the drifted segment gets a write")
}

func TestSyncAllIsolatesPerSegmentFailure(t *testing.T) {
	broken := syncDef("broken", "bad", 3)
	healthy := syncDef("healthy", "100", 1)

	store := &fakeSyncStore{defs: []*Definition{broken, healthy}}
	counter := &fakeCounter{
		counts:  map[string]int{"100": 4},
		failFor: map[string]bool{"bad": true},
	}

	report, err := NewSyncer(store, counter, nil, 2).SyncAll(context.Background())
	require.NoError(t, err)

	require.Len(t, report.Failures, 1)
	assert.Equal(t, broken.ID, report.Failures[0].SegmentID)
	assert.Equal(t, "broken", report.Failures[0].Name)

	assert.Equal(t, []uuid.UUID{healthy.ID}, report.Updated,
		"remaining segments still complete")
	_, wroteBroken := store.updates[broken.ID]
	assert.False(t, wroteBroken, "failed segment's cached data is left untouched")
}

func TestSyncAllListFailureIsFatal(t *testing.T) {
	store := &fakeSyncStore{listErr: errors.New("db down")}
	_, err := NewSyncer(store, &fakeCounter{}, nil, 2).SyncAll(context.Background())
	require.Error(t, err)
}

func TestSyncAllEmptyStore(t *testing.T) {
	report, err := NewSyncer(&fakeSyncStore{}, &fakeCounter{}, nil, 2).SyncAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, report.Updated)
	assert.Empty(t, report.Unchanged)
	assert.Empty(t, report.Failures)
}

func TestSyncAllBoundedConcurrencyCompletesAll(t *testing.T) {
	var defs []*Definition
	counts := map[string]int{}
	for i := 0; i < 25; i++ {
		val := fmt.Sprintf("%d", i)
		defs = append(defs, syncDef("seg-"+val, val, 0))
		counts[val] = i + 1 // every segment drifts
	}

	store := &fakeSyncStore{defs: defs}
	report, err := NewSyncer(store, &fakeCounter{counts: counts}, nil, 3).SyncAll(context.Background())
	require.NoError(t, err)

	assert.Len(t, report.Updated, 25, "all updates applied before the report is returned")
	assert.Len(t, store.updates, 25)
}
