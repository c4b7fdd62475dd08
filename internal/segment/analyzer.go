package segment

import (
	"math"
	"time"

	"github.com/ignite/customer-insights/internal/profile"
)

// TieBreak selects the winning location bucket when counts tie.
type TieBreak int

const (
	// TieBreakFirstSeen keeps the bucket that appeared first in the
	// matched set. Not stable across re-orderings of the source
	// population; accepted nondeterminism.
	TieBreakFirstSeen TieBreak = iota
	// TieBreakAlphabetical breaks ties by bucket label for
	// reproducible snapshots.
	TieBreakAlphabetical
)

// DefaultActiveWindow is how recently a customer must have been active
// to count toward the engagement fraction.
const DefaultActiveWindow = 30 * 24 * time.Hour

// Analyzer computes summary statistics over a matched set.
type Analyzer struct {
	now          func() time.Time
	tieBreak     TieBreak
	activeWindow time.Duration
}

// AnalyzerOption configures an Analyzer.
type AnalyzerOption func(*Analyzer)

// WithNow overrides the clock, mainly for tests.
func WithNow(now func() time.Time) AnalyzerOption {
	return func(a *Analyzer) { a.now = now }
}

// WithTieBreak selects the location tie-break rule.
func WithTieBreak(tb TieBreak) AnalyzerOption {
	return func(a *Analyzer) { a.tieBreak = tb }
}

// WithActiveWindow overrides the engagement activity window.
func WithActiveWindow(d time.Duration) AnalyzerOption {
	return func(a *Analyzer) {
		if d > 0 {
			a.activeWindow = d
		}
	}
}

// NewAnalyzer creates an analyzer with first-seen tie-break and a
// 30-day activity window unless configured otherwise.
func NewAnalyzer(opts ...AnalyzerOption) *Analyzer {
	a := &Analyzer{
		now:          time.Now,
		tieBreak:     TieBreakFirstSeen,
		activeWindow: DefaultActiveWindow,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Summarize computes the stats for one matched set. An empty set is a
// valid state, not an error: zero average, sentinel location, Low tier.
func (a *Analyzer) Summarize(matched []profile.Profile) Stats {
	stats := Stats{
		CustomerCount:  len(matched),
		TopLocation:    UnknownLocation,
		EngagementTier: TierLow,
	}
	if len(matched) == 0 {
		return stats
	}

	var total float64
	for _, p := range matched {
		total += p.RealizedValue
	}
	stats.AverageValue = total / float64(len(matched))

	stats.TopLocation, stats.TopLocationShare = a.topLocation(matched)
	stats.EngagementTier = a.engagementTier(matched)

	return stats
}

// topLocation finds the modal location bucket. Profiles with neither
// city nor country never form a bucket.
func (a *Analyzer) topLocation(matched []profile.Profile) (string, int) {
	counts := make(map[string]int)
	var order []string

	for _, p := range matched {
		label := locationLabel(p)
		if label == "" {
			continue
		}
		if _, seen := counts[label]; !seen {
			order = append(order, label)
		}
		counts[label]++
	}

	if len(order) == 0 {
		return UnknownLocation, 0
	}

	winner := order[0]
	for _, label := range order[1:] {
		switch {
		case counts[label] > counts[winner]:
			winner = label
		case counts[label] == counts[winner] && a.tieBreak == TieBreakAlphabetical && label < winner:
			winner = label
		}
	}

	share := int(math.Round(float64(counts[winner]) / float64(len(matched)) * 100))
	return winner, share
}

func locationLabel(p profile.Profile) string {
	switch {
	case p.City != "" && p.Country != "":
		return p.City + ", " + p.Country
	case p.City != "":
		return p.City
	case p.Country != "":
		return p.Country
	}
	return ""
}

// engagementTier buckets the matched set by its recently-active
// fraction. Strictly greater than 0.5 for High and 0.2 for Medium:
// exactly half active is Medium, exactly a fifth is Low. Customers
// with no activity timestamp count as inactive but stay in the
// denominator.
func (a *Analyzer) engagementTier(matched []profile.Profile) Tier {
	cutoff := a.now().Add(-a.activeWindow)

	active := 0
	for _, p := range matched {
		if p.LastActiveAt != nil && p.LastActiveAt.After(cutoff) {
			active++
		}
	}

	fraction := float64(active) / float64(len(matched))
	switch {
	case fraction > 0.5:
		return TierHigh
	case fraction > 0.2:
		return TierMedium
	default:
		return TierLow
	}
}
