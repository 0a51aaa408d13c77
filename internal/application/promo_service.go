package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cheapcruises/service-deals/internal/domain/promo"
)

// PromoDTO is the API representation of a promo code.
type PromoDTO struct {
	ID            uuid.UUID  `json:"id"`
	Code          string     `json:"code"`
	CruiseLine    string     `json:"cruise_line"`
	Description   string     `json:"description"`
	DiscountType  string     `json:"discount_type"`
	DiscountValue float64    `json:"discount_value,omitempty"`
	ValidFrom     *time.Time `json:"valid_from,omitempty"`
	ValidUntil    *time.Time `json:"valid_until,omitempty"`
	Conditions    string     `json:"conditions,omitempty"`
	SourceURL     string     `json:"source_url,omitempty"`
	Status        string     `json:"status"`
	IsValid       bool       `json:"is_valid"`
}

// PromoService serves promo code reference data.
type PromoService struct {
	repo   promo.PromoRepository
	logger *zap.Logger
}

// NewPromoService creates a PromoService.
func NewPromoService(repo promo.PromoRepository, logger *zap.Logger) *PromoService {
	return &PromoService{repo: repo, logger: logger}
}

// SeedKnownCodes upserts the fixed list of known promo codes. Called
// once at startup; safe to call repeatedly.
func (s *PromoService) SeedKnownCodes(ctx context.Context) error {
	codes := knownPromoCodes()
	for _, p := range codes {
		if err := s.repo.Upsert(ctx, p); err != nil {
			return fmt.Errorf("failed to seed promo code %s: %w", p.Code(), err)
		}
	}
	s.logger.Info("promo codes seeded", zap.Int("count", len(codes)))
	return nil
}

// ListPromoCodes returns promo codes, optionally filtered by cruise
// line and restricted to currently valid ones.
func (s *PromoService) ListPromoCodes(ctx context.Context, cruiseLine string, validOnly bool) ([]PromoDTO, error) {
	codes, err := s.repo.List(ctx, cruiseLine)
	if err != nil {
		return nil, err
	}

	dtos := make([]PromoDTO, 0, len(codes))
	for _, p := range codes {
		if validOnly && !p.IsCurrentlyValid() {
			continue
		}
		dtos = append(dtos, toPromoDTO(p))
	}
	return dtos, nil
}

func toPromoDTO(p *promo.PromoCode) PromoDTO {
	return PromoDTO{
		ID:            p.ID(),
		Code:          p.Code(),
		CruiseLine:    p.CruiseLine(),
		Description:   p.Description(),
		DiscountType:  string(p.DiscountType()),
		DiscountValue: p.DiscountValue(),
		ValidFrom:     p.ValidFrom(),
		ValidUntil:    p.ValidUntil(),
		Conditions:    p.Conditions(),
		SourceURL:     p.SourceURL(),
		Status:        string(p.Status()),
		IsValid:       p.IsCurrentlyValid(),
	}
}
