// Package segment owns segment definitions, their resolution against
// the customer population, aggregate statistics, snapshots, and cached
// count reconciliation.
package segment

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/ignite/customer-insights/internal/criteria"
)

// ErrNotFound is returned when a segment id does not exist.
var ErrNotFound = errors.New("segment not found")

// Definition is a named, reusable filter over the customer population.
//
// CachedCount is advisory only: it is the population size as of
// LastCalculatedAt and may drift from the live result. Display code
// may show it; anything that needs the authoritative count must
// resolve the segment.
type Definition struct {
	ID               uuid.UUID            `json:"id" db:"id"`
	Name             string               `json:"name" db:"name"`
	Conditions       []criteria.Condition `json:"conditions"`
	CachedCount      int                  `json:"cached_count" db:"cached_count"`
	LastCalculatedAt *time.Time           `json:"last_calculated_at,omitempty" db:"last_calculated_at"`
	CreatedAt        time.Time            `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time            `json:"updated_at" db:"updated_at"`
}

// Tier is the coarse engagement bucket for a matched set.
type Tier string

const (
	TierHigh   Tier = "High"
	TierMedium Tier = "Medium"
	TierLow    Tier = "Low"
)

// UnknownLocation is the sentinel top location when no profile in the
// matched set carries a city or country.
const UnknownLocation = "unknown"

// Stats are the summary statistics over one matched set.
type Stats struct {
	CustomerCount    int     `json:"customer_count"`
	AverageValue     float64 `json:"average_value"`
	TopLocation      string  `json:"top_location"`
	TopLocationShare int     `json:"top_location_share"` // integer percent, 0..100
	EngagementTier   Tier    `json:"engagement_tier"`
}

// Snapshot is an immutable point-in-time capture of a segment's
// statistics. Snapshots are append-only and survive deletion of the
// parent segment as historical record.
type Snapshot struct {
	ID               uuid.UUID `json:"id" db:"id"`
	SegmentID        uuid.UUID `json:"segment_id" db:"segment_id"`
	CapturedAt       time.Time `json:"captured_at" db:"captured_at"`
	CustomerCount    int       `json:"customer_count" db:"customer_count"`
	AverageValue     float64   `json:"average_value" db:"average_value"`
	TopLocation      string    `json:"top_location" db:"top_location"`
	TopLocationShare int       `json:"top_location_share" db:"top_location_share"`
	EngagementTier   Tier      `json:"engagement_tier" db:"engagement_tier"`
}
