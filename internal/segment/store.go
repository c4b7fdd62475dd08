package segment

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ignite/customer-insights/internal/criteria"
)

// Store provides database operations for segment definitions and
// snapshots. Conditions are stored as a JSONB column: the condition
// list is always read and replaced as a whole, so normalizing it into
// rows buys nothing.
type Store struct {
	db *sql.DB
}

// NewStore creates a segment store over the given database.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// List returns all segments ordered by name.
func (s *Store) List(ctx context.Context) ([]*Definition, error) {
	query := `
		SELECT id, name, conditions, cached_count, last_calculated_at, created_at, updated_at
		FROM customer_segments
		ORDER BY name
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list segments: %w", err)
	}
	defer rows.Close()

	var segments []*Definition
	for rows.Next() {
		def, err := scanDefinition(rows)
		if err != nil {
			return nil, err
		}
		segments = append(segments, def)
	}

	return segments, rows.Err()
}

// Get returns one segment, or ErrNotFound.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (*Definition, error) {
	query := `
		SELECT id, name, conditions, cached_count, last_calculated_at, created_at, updated_at
		FROM customer_segments
		WHERE id = $1
	`

	def, err := scanDefinition(s.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get segment: %w", err)
	}

	return def, nil
}

// Insert persists a new segment. ID and timestamps are assigned here.
func (s *Store) Insert(ctx context.Context, def *Definition) error {
	def.ID = uuid.New()
	def.CreatedAt = time.Now()
	def.UpdatedAt = def.CreatedAt

	conditionsJSON, err := json.Marshal(def.Conditions)
	if err != nil {
		return fmt.Errorf("marshal conditions: %w", err)
	}

	query := `
		INSERT INTO customer_segments (id, name, conditions, cached_count, last_calculated_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err = s.db.ExecContext(ctx, query, def.ID, def.Name, conditionsJSON,
		def.CachedCount, def.LastCalculatedAt, def.CreatedAt, def.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert segment: %w", err)
	}

	return nil
}

// Update replaces a segment's name, conditions, and cached count.
// Last write wins: there is no version token, concurrent edits of the
// same segment overwrite each other.
func (s *Store) Update(ctx context.Context, def *Definition) error {
	def.UpdatedAt = time.Now()

	conditionsJSON, err := json.Marshal(def.Conditions)
	if err != nil {
		return fmt.Errorf("marshal conditions: %w", err)
	}

	query := `
		UPDATE customer_segments
		SET name = $1, conditions = $2, cached_count = $3, last_calculated_at = $4, updated_at = $5
		WHERE id = $6
	`

	res, err := s.db.ExecContext(ctx, query, def.Name, conditionsJSON,
		def.CachedCount, def.LastCalculatedAt, def.UpdatedAt, def.ID)
	if err != nil {
		return fmt.Errorf("update segment: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrNotFound
	}

	return nil
}

// UpdateCount writes only the cached count and calculation timestamp.
// Used by the synchronizer for drifted segments.
func (s *Store) UpdateCount(ctx context.Context, id uuid.UUID, count int, calculatedAt time.Time) error {
	query := `
		UPDATE customer_segments
		SET cached_count = $1, last_calculated_at = $2, updated_at = $2
		WHERE id = $3
	`

	res, err := s.db.ExecContext(ctx, query, count, calculatedAt, id)
	if err != nil {
		return fmt.Errorf("update segment count: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrNotFound
	}

	return nil
}

// Delete hard-deletes a segment. Snapshots are intentionally left in
// place as historical record.
func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM customer_segments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete segment: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrNotFound
	}

	return nil
}

// CreateSnapshot appends an immutable snapshot row.
func (s *Store) CreateSnapshot(ctx context.Context, snap *Snapshot) error {
	snap.ID = uuid.New()
	if snap.CapturedAt.IsZero() {
		snap.CapturedAt = time.Now()
	}

	query := `
		INSERT INTO customer_segment_snapshots (
			id, segment_id, captured_at, customer_count, average_value,
			top_location, top_location_share, engagement_tier
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := s.db.ExecContext(ctx, query, snap.ID, snap.SegmentID, snap.CapturedAt,
		snap.CustomerCount, snap.AverageValue, snap.TopLocation,
		snap.TopLocationShare, snap.EngagementTier)
	if err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}

	return nil
}

// ListSnapshots returns a segment's snapshot history, newest first.
// Works for deleted segments too: orphaned snapshots stay queryable.
func (s *Store) ListSnapshots(ctx context.Context, segmentID uuid.UUID) ([]*Snapshot, error) {
	query := `
		SELECT id, segment_id, captured_at, customer_count, average_value,
			top_location, top_location_share, engagement_tier
		FROM customer_segment_snapshots
		WHERE segment_id = $1
		ORDER BY captured_at DESC
	`

	rows, err := s.db.QueryContext(ctx, query, segmentID)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []*Snapshot
	for rows.Next() {
		snap := &Snapshot{}
		err := rows.Scan(&snap.ID, &snap.SegmentID, &snap.CapturedAt, &snap.CustomerCount,
			&snap.AverageValue, &snap.TopLocation, &snap.TopLocationShare, &snap.EngagementTier)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, snap)
	}

	return snapshots, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanDefinition(row rowScanner) (*Definition, error) {
	def := &Definition{}
	var conditionsJSON []byte
	var lastCalculated sql.NullTime

	err := row.Scan(&def.ID, &def.Name, &conditionsJSON, &def.CachedCount,
		&lastCalculated, &def.CreatedAt, &def.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if lastCalculated.Valid {
		t := lastCalculated.Time
		def.LastCalculatedAt = &t
	}
	if len(conditionsJSON) > 0 {
		if err := json.Unmarshal(conditionsJSON, &def.Conditions); err != nil {
			return nil, fmt.Errorf("unmarshal conditions: %w", err)
		}
	}
	if def.Conditions == nil {
		def.Conditions = []criteria.Condition{}
	}

	return def, nil
}
