package segment

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ignite/customer-insights/internal/criteria"
	"github.com/ignite/customer-insights/internal/pkg/logger"
	"github.com/ignite/customer-insights/internal/profile"
)

// Service is the operator-facing surface over segment definitions.
// It enforces the one synchronous side effect the store contract
// requires: create and update resolve the segment before persisting,
// so a freshly saved segment never shows a stale count.
type Service struct {
	store    *Store
	resolver *Resolver
	analyzer *Analyzer
	counts   *CountCache
}

// NewService wires the segment service. counts may be nil when no
// Redis is configured; everything degrades to the persisted count.
func NewService(store *Store, resolver *Resolver, analyzer *Analyzer, counts *CountCache) *Service {
	return &Service{store: store, resolver: resolver, analyzer: analyzer, counts: counts}
}

// ListEntry is a segment definition overlaid with the freshest known
// live count. CountStale marks entries whose persisted count has
// drifted from the last live resolution.
type ListEntry struct {
	*Definition
	LiveCount  *int `json:"live_count,omitempty"`
	CountStale bool `json:"count_stale"`
}

// List returns all segments for display, overlaying cached live counts.
func (s *Service) List(ctx context.Context) ([]*ListEntry, error) {
	defs, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}

	entries := make([]*ListEntry, 0, len(defs))
	for _, def := range defs {
		entry := &ListEntry{Definition: def}
		if live, ok := s.counts.Get(ctx, def.ID); ok {
			entry.LiveCount = &live
			entry.CountStale = live != def.CachedCount
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

// Get returns one segment definition.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Definition, error) {
	return s.store.Get(ctx, id)
}

// Create validates and persists a new segment. The condition list is
// rejected before persisting when empty or invalid, and the cached
// count is computed synchronously from a live resolution.
func (s *Service) Create(ctx context.Context, name string, conds []criteria.Condition) (*Definition, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: segment name is required", criteria.ErrInvalidCondition)
	}
	if err := criteria.Validate(conds); err != nil {
		return nil, err
	}

	count, err := s.resolver.Count(ctx, conds)
	if err != nil {
		return nil, fmt.Errorf("resolve new segment: %w", err)
	}

	now := time.Now()
	def := &Definition{
		Name:             name,
		Conditions:       conds,
		CachedCount:      count,
		LastCalculatedAt: &now,
	}
	if err := s.store.Insert(ctx, def); err != nil {
		return nil, err
	}

	s.counts.Set(ctx, def.ID, count)
	logger.Info("segment created", "segment_id", def.ID.String(), "name", def.Name, "count", count)

	return def, nil
}

// Update replaces a segment's name and conditions wholesale,
// recomputing the cached count synchronously. Last write wins.
func (s *Service) Update(ctx context.Context, id uuid.UUID, name string, conds []criteria.Condition) (*Definition, error) {
	def, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: segment name is required", criteria.ErrInvalidCondition)
	}
	if err := criteria.Validate(conds); err != nil {
		return nil, err
	}

	count, err := s.resolver.Count(ctx, conds)
	if err != nil {
		return nil, fmt.Errorf("resolve updated segment: %w", err)
	}

	now := time.Now()
	def.Name = name
	def.Conditions = conds
	def.CachedCount = count
	def.LastCalculatedAt = &now

	if err := s.store.Update(ctx, def); err != nil {
		return nil, err
	}

	s.counts.Set(ctx, def.ID, count)
	logger.Info("segment updated", "segment_id", def.ID.String(), "name", def.Name, "count", count)

	return def, nil
}

// Delete removes a segment. Its snapshots remain as history.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.counts.Invalidate(ctx, id)
	logger.Info("segment deleted", "segment_id", id.String())
	return nil
}

// Members resolves a segment and returns its definition alongside the
// matched profiles and their summary stats, so callers needing both
// (exports naming files after the segment) pay one store read. The
// live count is cached for list display but the persisted count is
// untouched; reconciliation belongs to the synchronizer.
func (s *Service) Members(ctx context.Context, id uuid.UUID) (*Definition, []profile.Profile, Stats, error) {
	def, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, nil, Stats{}, err
	}

	matched, err := s.resolver.Resolve(ctx, def.Conditions)
	if err != nil {
		return nil, nil, Stats{}, err
	}

	s.counts.Set(ctx, id, len(matched))
	return def, matched, s.analyzer.Summarize(matched), nil
}

// Preview resolves an ad-hoc condition list without persisting
// anything, for the segment builder.
func (s *Service) Preview(ctx context.Context, conds []criteria.Condition) ([]profile.Profile, Stats, error) {
	if err := criteria.Validate(conds); err != nil {
		return nil, Stats{}, err
	}

	matched, err := s.resolver.Resolve(ctx, conds)
	if err != nil {
		return nil, Stats{}, err
	}

	return matched, s.analyzer.Summarize(matched), nil
}

// CaptureSnapshot resolves a segment now and appends an immutable
// snapshot of its statistics.
func (s *Service) CaptureSnapshot(ctx context.Context, id uuid.UUID) (*Snapshot, error) {
	def, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	matched, err := s.resolver.Resolve(ctx, def.Conditions)
	if err != nil {
		return nil, err
	}
	stats := s.analyzer.Summarize(matched)

	snap := &Snapshot{
		SegmentID:        def.ID,
		CustomerCount:    stats.CustomerCount,
		AverageValue:     stats.AverageValue,
		TopLocation:      stats.TopLocation,
		TopLocationShare: stats.TopLocationShare,
		EngagementTier:   stats.EngagementTier,
	}
	if err := s.store.CreateSnapshot(ctx, snap); err != nil {
		return nil, err
	}

	logger.Info("snapshot captured", "segment_id", id.String(), "count", snap.CustomerCount)
	return snap, nil
}

// Snapshots lists a segment's snapshot history. Deliberately does not
// check that the segment still exists: orphaned snapshots stay
// queryable after a segment is deleted.
func (s *Service) Snapshots(ctx context.Context, segmentID uuid.UUID) ([]*Snapshot, error) {
	return s.store.ListSnapshots(ctx, segmentID)
}
