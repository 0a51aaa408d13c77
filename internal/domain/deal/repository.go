package deal

import (
	"context"

	"github.com/google/uuid"
)

// Sort keys accepted by Search.
const (
	SortPricePerNight = "price_per_night"
	SortTotalPrice    = "total_price"
	SortDuration      = "duration_nights"
	SortDepartureDate = "departure_date"
)

// SearchQuery describes a validated filter/sort over active deals.
// Zero values mean "no constraint".
type SearchQuery struct {
	CruiseLine       string
	DeparturePort    string
	Destination      string
	MinDuration      int
	MaxDuration      int
	MaxPricePerNight float64
	SortBy           string
	Descending       bool
	Limit            int
	Offset           int
}

// PriceBucket counts active deals at or under a per-night price.
type PriceBucket struct {
	MaxPerNight float64
	Count       int64
}

// Stats summarizes the active deal inventory. Buckets follow the
// per-night prices passed to GetStats, in the same order.
type Stats struct {
	TotalActive  int64
	Buckets      []PriceBucket
	ByCruiseLine map[string]int64
	MinPerNight  float64
	MaxPerNight  float64
}

// DealRepository defines persistence for Deal aggregates. The ingestion
// reconciler is the sole writer; everything else reads.
type DealRepository interface {
	// FindByID retrieves a deal by storage id, active or not.
	FindByID(ctx context.Context, id uuid.UUID) (*Deal, error)

	// FindByNaturalKey retrieves a deal by its natural key, active or not.
	FindByNaturalKey(ctx context.Context, key string) (*Deal, error)

	// Search returns active deals matching the query, ordered by the
	// sort key with natural key as the deterministic tie-break.
	Search(ctx context.Context, q SearchQuery) ([]*Deal, error)

	// ActiveKeys returns the natural keys of all active deals.
	ActiveKeys(ctx context.Context) ([]string, error)

	// Save persists a new deal.
	Save(ctx context.Context, d *Deal) error

	// Update persists changes to an existing deal.
	Update(ctx context.Context, d *Deal) error

	// DeactivateMissing flips active=false on every active deal whose
	// natural key is absent from seenKeys, returning how many flipped.
	DeactivateMissing(ctx context.Context, seenKeys []string) (int64, error)

	// GetStats returns aggregate statistics over active deals, with one
	// price bucket per entry of bucketMaxes.
	GetStats(ctx context.Context, bucketMaxes []float64) (*Stats, error)
}
