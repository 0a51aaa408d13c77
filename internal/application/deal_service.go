package application

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cheapcruises/service-deals/internal/currency"
	"github.com/cheapcruises/service-deals/internal/domain/deal"
	"github.com/cheapcruises/service-deals/pkg/domain"
)

// SearchDealsRequest carries raw filter/sort parameters from the API.
type SearchDealsRequest struct {
	CruiseLine       string  `form:"cruise_line"`
	DeparturePort    string  `form:"departure_port"`
	Destination      string  `form:"destination"`
	MinDuration      int     `form:"min_duration"`
	MaxDuration      int     `form:"max_duration"`
	MaxPricePerNight float64 `form:"max_price_per_night"`
	SortBy           string  `form:"sort_by"`
	Order            string  `form:"order"`
	Limit            int     `form:"limit"`
	Offset           int     `form:"offset"`
	Currency         string  `form:"currency"`
}

// DealDTO is the API representation of a deal record.
type DealDTO struct {
	ID             uuid.UUID  `json:"id"`
	CruiseLine     string     `json:"cruise_line"`
	ShipName       string     `json:"ship_name"`
	Destination    string     `json:"destination"`
	DeparturePort  string     `json:"departure_port"`
	DepartureDate  time.Time  `json:"departure_date"`
	DurationNights int        `json:"duration_nights"`
	TotalPrice     float64    `json:"total_price"`
	PricePerNight  float64    `json:"price_per_night"`
	GoodDeal       bool       `json:"is_good_deal"`
	Currency       string     `json:"currency"`
	CabinType      string     `json:"cabin_type"`
	SpecialOffers  string     `json:"special_offers,omitempty"`
	SourceURL      string     `json:"url"`
	ImageURL       string     `json:"image_url,omitempty"`
	Active         bool       `json:"is_active"`
	FirstSeen      time.Time  `json:"first_seen"`
	LastSeen       time.Time  `json:"last_seen"`
}

// PriceBucketDTO is one per-night price band in the stats response.
type PriceBucketDTO struct {
	MaxPerNight float64 `json:"max_per_night"`
	Count       int64   `json:"count"`
}

// StatsDTO is the API representation of inventory statistics.
type StatsDTO struct {
	TotalActive  int64            `json:"total_deals"`
	Buckets      []PriceBucketDTO `json:"price_buckets"`
	ByCruiseLine map[string]int64 `json:"by_cruise_line"`
	MinPerNight  float64          `json:"min_price_per_night"`
	MaxPerNight  float64          `json:"max_price_per_night"`
}

var validSortKeys = map[string]string{
	"price_per_night": deal.SortPricePerNight,
	"total_price":     deal.SortTotalPrice,
	"duration":        deal.SortDuration,
	"duration_nights": deal.SortDuration,
	"departure_date":  deal.SortDepartureDate,
}

// DealService is the read-only query surface over stored deals. It may
// run concurrently with an in-progress ingestion; readers can observe a
// mix of updated and not-yet-updated records within one run.
type DealService struct {
	repo        deal.DealRepository
	maxPageSize int
	// goodDealMax is the configured per-night price under which a deal
	// counts as good. The stats and best-deal buckets derive from it.
	goodDealMax float64
	logger      *zap.Logger
}

// NewDealService creates a DealService with the configured page cap and
// good-deal price threshold.
func NewDealService(repo deal.DealRepository, maxPageSize int, goodDealMax float64, logger *zap.Logger) *DealService {
	if maxPageSize <= 0 {
		maxPageSize = 100
	}
	if goodDealMax <= 0 {
		goodDealMax = 200
	}
	return &DealService{repo: repo, maxPageSize: maxPageSize, goodDealMax: goodDealMax, logger: logger}
}

// SearchDeals validates the request and returns matching active deals.
// An empty result is valid; malformed parameters are a ValidationError.
func (s *DealService) SearchDeals(ctx context.Context, req SearchDealsRequest) ([]DealDTO, error) {
	q, err := s.buildQuery(req)
	if err != nil {
		return nil, err
	}

	deals, err := s.repo.Search(ctx, q)
	if err != nil {
		return nil, err
	}
	return s.toDTOs(deals, req.Currency)
}

// GetDeal returns a single deal by id, active or not, converted to the
// requested currency when one is given.
func (s *DealService) GetDeal(ctx context.Context, rawID, currencyCode string) (*DealDTO, error) {
	id, err := uuid.Parse(rawID)
	if err != nil {
		return nil, domain.NewValidationError("invalid deal id: %s", rawID)
	}

	d, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := s.toDTO(d)
	if currencyCode != "" && !strings.EqualFold(currencyCode, currency.Base) {
		if err := convertMoney(&dto, currencyCode); err != nil {
			return nil, err
		}
	}
	return &dto, nil
}

// BestDeals returns the top deals under each per-night price bucket.
func (s *DealService) BestDeals(ctx context.Context, currencyCode string) (map[string][]DealDTO, error) {
	maxes := s.bucketMaxes()
	result := make(map[string][]DealDTO, len(maxes))
	for _, max := range maxes {
		deals, err := s.repo.Search(ctx, deal.SearchQuery{
			MaxPricePerNight: max,
			SortBy:           deal.SortPricePerNight,
			Limit:            10,
		})
		if err != nil {
			return nil, err
		}
		dtos, err := s.toDTOs(deals, currencyCode)
		if err != nil {
			return nil, err
		}
		result[bucketKey(max)] = dtos
	}
	return result, nil
}

// GetStats returns aggregate statistics over active deals.
func (s *DealService) GetStats(ctx context.Context) (*StatsDTO, error) {
	stats, err := s.repo.GetStats(ctx, s.bucketMaxes())
	if err != nil {
		return nil, err
	}
	dto := &StatsDTO{
		TotalActive:  stats.TotalActive,
		ByCruiseLine: stats.ByCruiseLine,
		MinPerNight:  stats.MinPerNight,
		MaxPerNight:  stats.MaxPerNight,
	}
	for _, b := range stats.Buckets {
		dto.Buckets = append(dto.Buckets, PriceBucketDTO{MaxPerNight: b.MaxPerNight, Count: b.Count})
	}
	return dto, nil
}

// bucketMaxes derives the stats and best-deal price bands from the
// configured good-deal price: half, three quarters and the full amount.
func (s *DealService) bucketMaxes() []float64 {
	return []float64{s.goodDealMax / 2, s.goodDealMax * 0.75, s.goodDealMax}
}

func (s *DealService) buildQuery(req SearchDealsRequest) (deal.SearchQuery, error) {
	var q deal.SearchQuery

	sortBy := req.SortBy
	if sortBy == "" {
		sortBy = "price_per_night"
	}
	key, ok := validSortKeys[strings.ToLower(sortBy)]
	if !ok {
		return q, domain.NewValidationError("invalid sort_by: %s", req.SortBy)
	}

	switch strings.ToLower(req.Order) {
	case "", "asc":
		q.Descending = false
	case "desc":
		q.Descending = true
	default:
		return q, domain.NewValidationError("invalid order: %s (use asc or desc)", req.Order)
	}

	if req.MinDuration < 0 || req.MaxDuration < 0 {
		return q, domain.NewValidationError("duration filters must be non-negative")
	}
	if req.MinDuration > 0 && req.MaxDuration > 0 && req.MinDuration > req.MaxDuration {
		return q, domain.NewValidationError("min_duration exceeds max_duration")
	}
	if req.MaxPricePerNight < 0 {
		return q, domain.NewValidationError("max_price_per_night must be non-negative")
	}
	if req.Limit < 0 || req.Offset < 0 {
		return q, domain.NewValidationError("limit and offset must be non-negative")
	}

	limit := req.Limit
	if limit == 0 {
		limit = 50
	}
	if limit > s.maxPageSize {
		limit = s.maxPageSize
	}

	q.CruiseLine = strings.TrimSpace(req.CruiseLine)
	q.DeparturePort = strings.TrimSpace(req.DeparturePort)
	q.Destination = strings.TrimSpace(req.Destination)
	q.MinDuration = req.MinDuration
	q.MaxDuration = req.MaxDuration
	q.MaxPricePerNight = req.MaxPricePerNight
	q.SortBy = key
	q.Limit = limit
	q.Offset = req.Offset
	return q, nil
}

// toDTOs maps deals to DTOs, converting money fields when a non-base
// currency was requested.
func (s *DealService) toDTOs(deals []*deal.Deal, code string) ([]DealDTO, error) {
	dtos := make([]DealDTO, len(deals))
	for i, d := range deals {
		dtos[i] = s.toDTO(d)
	}

	if code == "" || strings.EqualFold(code, currency.Base) {
		return dtos, nil
	}
	for i := range dtos {
		if err := convertMoney(&dtos[i], code); err != nil {
			return nil, err
		}
	}
	return dtos, nil
}

func (s *DealService) toDTO(d *deal.Deal) DealDTO {
	return DealDTO{
		ID:             d.ID(),
		CruiseLine:     d.CruiseLine(),
		ShipName:       d.ShipName(),
		Destination:    d.Destination(),
		DeparturePort:  d.DeparturePort(),
		DepartureDate:  d.DepartureDate(),
		DurationNights: d.DurationNights(),
		TotalPrice:     d.TotalPrice(),
		PricePerNight:  d.PricePerNight(),
		GoodDeal:       d.IsGoodDeal(s.goodDealMax),
		Currency:       currency.Base,
		CabinType:      d.CabinType(),
		SpecialOffers:  d.SpecialOffers(),
		SourceURL:      d.SourceURL(),
		ImageURL:       d.ImageURL(),
		Active:         d.Active(),
		FirstSeen:      d.FirstSeen(),
		LastSeen:       d.LastSeen(),
	}
}

func convertMoney(dto *DealDTO, code string) error {
	total, err := currency.Convert(dto.TotalPrice, code)
	if err != nil {
		return err
	}
	perNight, err := currency.Convert(dto.PricePerNight, code)
	if err != nil {
		return err
	}
	dto.TotalPrice = total
	dto.PricePerNight = perNight
	dto.Currency = strings.ToUpper(code)
	return nil
}

func bucketKey(max float64) string {
	return fmt.Sprintf("under_%d", int(max))
}
