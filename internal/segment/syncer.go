package segment

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ignite/customer-insights/internal/criteria"
	"github.com/ignite/customer-insights/internal/pkg/logger"
)

// syncStore is the slice of Store the synchronizer needs.
type syncStore interface {
	List(ctx context.Context) ([]*Definition, error)
	UpdateCount(ctx context.Context, id uuid.UUID, count int, calculatedAt time.Time) error
}

// syncCounter is the slice of Resolver the synchronizer needs.
type syncCounter interface {
	Count(ctx context.Context, conds []criteria.Condition) (int, error)
}

// SyncFailure records one segment whose resolution or write failed
// during a sync pass. The segment's cached data is left untouched.
type SyncFailure struct {
	SegmentID uuid.UUID `json:"segment_id"`
	Name      string    `json:"name"`
	Error     string    `json:"error"`
}

// SyncReport aggregates the outcome of one full reconciliation pass.
type SyncReport struct {
	Updated    []uuid.UUID   `json:"updated"`
	Unchanged  []uuid.UUID   `json:"unchanged"`
	Failures   []SyncFailure `json:"failures"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
}

// Syncer reconciles cached segment counts against live resolutions.
// It runs on explicit operator trigger only; scheduling belongs to an
// external scheduler.
type Syncer struct {
	store    syncStore
	resolver syncCounter
	counts   *CountCache
	workers  int
}

// NewSyncer creates a synchronizer with the given fan-out limit.
// Workers below 1 default to 4.
func NewSyncer(store syncStore, resolver syncCounter, counts *CountCache, workers int) *Syncer {
	if workers < 1 {
		workers = 4
	}
	return &Syncer{store: store, resolver: resolver, counts: counts, workers: workers}
}

// SyncAll re-resolves every stored segment concurrently, bounded by
// the worker limit, and writes back only the counts that drifted.
// One segment failing never aborts the rest; failures are collected
// into the report. Listing the segments is the only fatal error.
func (s *Syncer) SyncAll(ctx context.Context) (*SyncReport, error) {
	report := &SyncReport{StartedAt: time.Now()}

	defs, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}

	jobs := make(chan *Definition)
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for def := range jobs {
				updated, err := s.syncOne(ctx, def)
				mu.Lock()
				switch {
				case err != nil:
					report.Failures = append(report.Failures, SyncFailure{
						SegmentID: def.ID,
						Name:      def.Name,
						Error:     err.Error(),
					})
				case updated:
					report.Updated = append(report.Updated, def.ID)
				default:
					report.Unchanged = append(report.Unchanged, def.ID)
				}
				mu.Unlock()
			}
		}()
	}

	for _, def := range defs {
		jobs <- def
	}
	close(jobs)
	wg.Wait()

	report.FinishedAt = time.Now()
	logger.Info("segment sync finished",
		"updated", len(report.Updated),
		"unchanged", len(report.Unchanged),
		"failed", len(report.Failures))

	return report, nil
}

// syncOne recomputes one segment's count and persists it only when it
// differs from the stored value, leaving lastCalculatedAt untouched
// for segments that haven't drifted.
func (s *Syncer) syncOne(ctx context.Context, def *Definition) (bool, error) {
	count, err := s.resolver.Count(ctx, def.Conditions)
	if err != nil {
		return false, err
	}

	s.counts.Set(ctx, def.ID, count)

	if count == def.CachedCount {
		return false, nil
	}

	if err := s.store.UpdateCount(ctx, def.ID, count, time.Now()); err != nil {
		return false, err
	}

	logger.Info("segment count reconciled",
		"segment_id", def.ID.String(),
		"previous", def.CachedCount,
		"current", count)

	return true, nil
}
