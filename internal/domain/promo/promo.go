package promo

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DiscountType classifies what a promo code grants.
type DiscountType string

const (
	DiscountTypePercentage     DiscountType = "percentage"
	DiscountTypeInstantSavings DiscountType = "instant_savings"
	DiscountTypePerk           DiscountType = "perk"
)

// Status reflects the last validation verdict on a code.
type Status string

const (
	StatusUnknown Status = "unknown"
	StatusValid   Status = "valid"
	StatusExpired Status = "expired"
	StatusInvalid Status = "invalid"
)

// PromoCode is a cruise-line promotional code shown alongside deals.
// Codes are reference data seeded from a fixed list, not scraped.
type PromoCode struct {
	id            uuid.UUID
	code          string
	cruiseLine    string
	description   string
	discountType  DiscountType
	discountValue float64
	validFrom     *time.Time
	validUntil    *time.Time
	conditions    string
	sourceURL     string
	status        Status
	lastValidated *time.Time
	createdAt     time.Time
	updatedAt     time.Time
}

// NewPromoCode creates a promo code. The code is uppercased; cruise line
// and code together identify it.
func NewPromoCode(code, cruiseLine, description string, discountType DiscountType, discountValue float64, validFrom, validUntil *time.Time, conditions, sourceURL string, status Status, lastValidated *time.Time) (*PromoCode, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, fmt.Errorf("promo code is required")
	}
	cruiseLine = strings.TrimSpace(cruiseLine)
	if cruiseLine == "" {
		return nil, fmt.Errorf("cruise line is required")
	}
	switch discountType {
	case DiscountTypePercentage, DiscountTypeInstantSavings, DiscountTypePerk:
	default:
		return nil, fmt.Errorf("invalid discount type: %s", discountType)
	}
	if status == "" {
		status = StatusUnknown
	}

	now := time.Now().UTC()
	return &PromoCode{
		id:            uuid.New(),
		code:          code,
		cruiseLine:    cruiseLine,
		description:   description,
		discountType:  discountType,
		discountValue: discountValue,
		validFrom:     validFrom,
		validUntil:    validUntil,
		conditions:    conditions,
		sourceURL:     sourceURL,
		status:        status,
		lastValidated: lastValidated,
		createdAt:     now,
		updatedAt:     now,
	}, nil
}

// Reconstruct rebuilds a PromoCode from persistence.
func Reconstruct(id uuid.UUID, code, cruiseLine, description string, discountType DiscountType, discountValue float64, validFrom, validUntil *time.Time, conditions, sourceURL string, status Status, lastValidated *time.Time, createdAt, updatedAt time.Time) *PromoCode {
	return &PromoCode{
		id: id, code: code, cruiseLine: cruiseLine, description: description,
		discountType: discountType, discountValue: discountValue,
		validFrom: validFrom, validUntil: validUntil,
		conditions: conditions, sourceURL: sourceURL,
		status: status, lastValidated: lastValidated,
		createdAt: createdAt, updatedAt: updatedAt,
	}
}

// IsCurrentlyValid reports whether the code can be offered right now,
// combining the recorded status with the validity window.
func (p *PromoCode) IsCurrentlyValid() bool {
	if p.status == StatusInvalid || p.status == StatusExpired {
		return false
	}
	now := time.Now().UTC()
	if p.validFrom != nil && now.Before(*p.validFrom) {
		return false
	}
	if p.validUntil != nil && now.After(*p.validUntil) {
		return false
	}
	return true
}

// Getters.
func (p *PromoCode) ID() uuid.UUID             { return p.id }
func (p *PromoCode) Code() string              { return p.code }
func (p *PromoCode) CruiseLine() string        { return p.cruiseLine }
func (p *PromoCode) Description() string       { return p.description }
func (p *PromoCode) DiscountType() DiscountType { return p.discountType }
func (p *PromoCode) DiscountValue() float64    { return p.discountValue }
func (p *PromoCode) ValidFrom() *time.Time     { return p.validFrom }
func (p *PromoCode) ValidUntil() *time.Time    { return p.validUntil }
func (p *PromoCode) Conditions() string        { return p.conditions }
func (p *PromoCode) SourceURL() string         { return p.sourceURL }
func (p *PromoCode) Status() Status            { return p.status }
func (p *PromoCode) LastValidated() *time.Time { return p.lastValidated }
func (p *PromoCode) CreatedAt() time.Time      { return p.createdAt }
func (p *PromoCode) UpdatedAt() time.Time      { return p.updatedAt }
