package application

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/cheapcruises/service-deals/internal/domain/deal"
	"github.com/cheapcruises/service-deals/internal/domain/promo"
	"github.com/cheapcruises/service-deals/internal/events"
	"github.com/cheapcruises/service-deals/internal/scraper"
	"github.com/cheapcruises/service-deals/pkg/domain"
)

// fakeDealRepo is an in-memory DealRepository keyed by natural key.
type fakeDealRepo struct {
	mu    sync.Mutex
	deals map[string]*deal.Deal

	saveErr   error
	updateErr error
}

func newFakeDealRepo() *fakeDealRepo {
	return &fakeDealRepo{deals: make(map[string]*deal.Deal)}
}

func (r *fakeDealRepo) FindByID(_ context.Context, id uuid.UUID) (*deal.Deal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.deals {
		if d.ID() == id {
			return d, nil
		}
	}
	return nil, domain.NewNotFoundError("Deal", id.String())
}

func (r *fakeDealRepo) FindByNaturalKey(_ context.Context, key string) (*deal.Deal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if d, ok := r.deals[key]; ok {
		return d, nil
	}
	return nil, domain.NewNotFoundError("Deal", key)
}

func (r *fakeDealRepo) Search(_ context.Context, q deal.SearchQuery) ([]*deal.Deal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var matched []*deal.Deal
	for _, d := range r.deals {
		if !d.Active() {
			continue
		}
		if q.CruiseLine != "" && !strings.Contains(strings.ToLower(d.CruiseLine()), strings.ToLower(q.CruiseLine)) {
			continue
		}
		if q.DeparturePort != "" && !strings.Contains(strings.ToLower(d.DeparturePort()), strings.ToLower(q.DeparturePort)) {
			continue
		}
		if q.Destination != "" && !strings.Contains(strings.ToLower(d.Destination()), strings.ToLower(q.Destination)) {
			continue
		}
		if q.MinDuration > 0 && d.DurationNights() < q.MinDuration {
			continue
		}
		if q.MaxDuration > 0 && d.DurationNights() > q.MaxDuration {
			continue
		}
		if q.MaxPricePerNight > 0 && d.PricePerNight() > q.MaxPricePerNight {
			continue
		}
		matched = append(matched, d)
	}

	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		var less, equal bool
		switch q.SortBy {
		case deal.SortTotalPrice:
			less, equal = a.TotalPrice() < b.TotalPrice(), a.TotalPrice() == b.TotalPrice()
		case deal.SortDuration:
			less, equal = a.DurationNights() < b.DurationNights(), a.DurationNights() == b.DurationNights()
		case deal.SortDepartureDate:
			less, equal = a.DepartureDate().Before(b.DepartureDate()), a.DepartureDate().Equal(b.DepartureDate())
		default:
			less, equal = a.PricePerNight() < b.PricePerNight(), a.PricePerNight() == b.PricePerNight()
		}
		if equal {
			return a.NaturalKey() < b.NaturalKey()
		}
		if q.Descending {
			return !less
		}
		return less
	})

	if q.Offset > 0 {
		if q.Offset >= len(matched) {
			return nil, nil
		}
		matched = matched[q.Offset:]
	}
	if q.Limit > 0 && len(matched) > q.Limit {
		matched = matched[:q.Limit]
	}
	return matched, nil
}

func (r *fakeDealRepo) ActiveKeys(_ context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var keys []string
	for key, d := range r.deals {
		if d.Active() {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

func (r *fakeDealRepo) Save(_ context.Context, d *deal.Deal) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deals[d.NaturalKey()] = d
	return nil
}

func (r *fakeDealRepo) Update(_ context.Context, d *deal.Deal) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deals[d.NaturalKey()] = d
	return nil
}

func (r *fakeDealRepo) DeactivateMissing(_ context.Context, seenKeys []string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := make(map[string]struct{}, len(seenKeys))
	for _, k := range seenKeys {
		seen[k] = struct{}{}
	}
	var flipped int64
	for key, d := range r.deals {
		if !d.Active() {
			continue
		}
		if _, ok := seen[key]; !ok {
			d.Deactivate()
			flipped++
		}
	}
	return flipped, nil
}

func (r *fakeDealRepo) GetStats(_ context.Context, bucketMaxes []float64) (*deal.Stats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stats := &deal.Stats{ByCruiseLine: make(map[string]int64)}
	for _, max := range bucketMaxes {
		stats.Buckets = append(stats.Buckets, deal.PriceBucket{MaxPerNight: max})
	}
	first := true
	for _, d := range r.deals {
		if !d.Active() {
			continue
		}
		stats.TotalActive++
		stats.ByCruiseLine[d.CruiseLine()]++
		p := d.PricePerNight()
		for i := range stats.Buckets {
			if p <= stats.Buckets[i].MaxPerNight {
				stats.Buckets[i].Count++
			}
		}
		if first || p < stats.MinPerNight {
			stats.MinPerNight = p
		}
		if first || p > stats.MaxPerNight {
			stats.MaxPerNight = p
		}
		first = false
	}
	return stats, nil
}

// fakeSource serves canned pages as a PageSource.
type fakeSource struct {
	result scraper.FetchResult
}

func (s *fakeSource) FetchAll(context.Context) scraper.FetchResult { return s.result }

// capturePublisher records published events.
type capturePublisher struct {
	mu            sync.Mutex
	priceDrops    []events.PriceDropEvent
	runsCompleted []events.RunCompletedEvent
}

func (p *capturePublisher) PublishPriceDrop(_ context.Context, e events.PriceDropEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.priceDrops = append(p.priceDrops, e)
	return nil
}

func (p *capturePublisher) PublishRunCompleted(_ context.Context, e events.RunCompletedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.runsCompleted = append(p.runsCompleted, e)
	return nil
}

func (p *capturePublisher) Close() error { return nil }

// fakePromoRepo is an in-memory PromoRepository keyed by code|line.
type fakePromoRepo struct {
	mu    sync.Mutex
	codes map[string]*promo.PromoCode
}

func newFakePromoRepo() *fakePromoRepo {
	return &fakePromoRepo{codes: make(map[string]*promo.PromoCode)}
}

func (r *fakePromoRepo) Upsert(_ context.Context, p *promo.PromoCode) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.codes[p.Code()+"|"+p.CruiseLine()] = p
	return nil
}

func (r *fakePromoRepo) List(_ context.Context, cruiseLine string) ([]*promo.PromoCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*promo.PromoCode
	for _, p := range r.codes {
		if cruiseLine != "" && !strings.Contains(strings.ToLower(p.CruiseLine()), strings.ToLower(cruiseLine)) {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code() < out[j].Code() })
	return out, nil
}
