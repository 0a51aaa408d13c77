package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	promoDomain "github.com/cheapcruises/service-deals/internal/domain/promo"
)

// PromoModel is the GORM persistence model for the promo_codes table.
type PromoModel struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Code          string     `gorm:"type:varchar(50);not null;uniqueIndex:idx_promo_code_line"`
	CruiseLine    string     `gorm:"type:varchar(100);not null;uniqueIndex:idx_promo_code_line"`
	Description   string     `gorm:"type:text"`
	DiscountType  string     `gorm:"type:varchar(30);not null"`
	DiscountValue float64    `gorm:"not null;default:0"`
	ValidFrom     *time.Time
	ValidUntil    *time.Time
	Conditions    string  `gorm:"type:text"`
	SourceURL     string  `gorm:"type:varchar(500)"`
	Status        string  `gorm:"type:varchar(20);not null;default:'unknown'"`
	LastValidated *time.Time
	CreatedAt     time.Time  `gorm:"not null"`
	UpdatedAt     time.Time  `gorm:"not null"`
}

// TableName sets the table name.
func (PromoModel) TableName() string { return "promo_codes" }

// GormPromoRepository implements PromoRepository using GORM.
type GormPromoRepository struct {
	db *gorm.DB
}

// NewGormPromoRepository creates a new GormPromoRepository.
func NewGormPromoRepository(db *gorm.DB) *GormPromoRepository {
	return &GormPromoRepository{db: db}
}

// Upsert inserts the code or refreshes the existing (code, cruise line)
// row while keeping its id and created_at.
func (r *GormPromoRepository) Upsert(ctx context.Context, p *promoDomain.PromoCode) error {
	model := toPromoModel(p)
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "code"}, {Name: "cruise_line"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"description", "discount_type", "discount_value",
			"valid_from", "valid_until", "conditions", "source_url",
			"status", "last_validated", "updated_at",
		}),
	}).Create(&model).Error
}

// List returns promo codes, optionally filtered by cruise line.
func (r *GormPromoRepository) List(ctx context.Context, cruiseLine string) ([]*promoDomain.PromoCode, error) {
	tx := r.db.WithContext(ctx).Model(&PromoModel{})
	if cruiseLine != "" {
		tx = tx.Where("cruise_line ILIKE ?", "%"+cruiseLine+"%")
	}

	var models []PromoModel
	if err := tx.Order("cruise_line ASC, code ASC").Find(&models).Error; err != nil {
		return nil, err
	}

	codes := make([]*promoDomain.PromoCode, len(models))
	for i := range models {
		codes[i] = toPromoDomain(&models[i])
	}
	return codes, nil
}

func toPromoModel(p *promoDomain.PromoCode) PromoModel {
	return PromoModel{
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
		LastValidated: p.LastValidated(),
		CreatedAt:     p.CreatedAt(),
		UpdatedAt:     p.UpdatedAt(),
	}
}

func toPromoDomain(m *PromoModel) *promoDomain.PromoCode {
	return promoDomain.Reconstruct(
		m.ID, m.Code, m.CruiseLine, m.Description,
		promoDomain.DiscountType(m.DiscountType), m.DiscountValue,
		m.ValidFrom, m.ValidUntil, m.Conditions, m.SourceURL,
		promoDomain.Status(m.Status), m.LastValidated,
		m.CreatedAt, m.UpdatedAt,
	)
}
