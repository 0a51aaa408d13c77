package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	dealDomain "github.com/cheapcruises/service-deals/internal/domain/deal"
	"github.com/cheapcruises/service-deals/pkg/domain"
)

// DealModel is the GORM persistence model for the cruise_deals table.
type DealModel struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	NaturalKey     string    `gorm:"type:varchar(255);uniqueIndex;not null"`
	CruiseLine     string    `gorm:"type:varchar(100);index"`
	ShipName       string    `gorm:"type:varchar(100);not null"`
	Destination    string    `gorm:"type:varchar(200)"`
	DeparturePort  string    `gorm:"type:varchar(100);index"`
	DepartureDate  time.Time `gorm:"not null"`
	DurationNights int       `gorm:"not null"`
	TotalPrice     float64   `gorm:"not null"`
	PricePerNight  float64   `gorm:"not null;index"`
	CabinType      string    `gorm:"type:varchar(50)"`
	SpecialOffers  string    `gorm:"type:text"`
	SourceURL      string    `gorm:"type:varchar(500)"`
	ImageURL       string    `gorm:"type:varchar(500)"`
	Active         bool      `gorm:"not null;default:true;index"`
	FirstSeen      time.Time `gorm:"not null"`
	LastSeen       time.Time `gorm:"not null"`
}

// TableName sets the table name.
func (DealModel) TableName() string { return "cruise_deals" }

// GormDealRepository implements DealRepository using GORM.
type GormDealRepository struct {
	db *gorm.DB
}

// NewGormDealRepository creates a new GormDealRepository.
func NewGormDealRepository(db *gorm.DB) *GormDealRepository {
	return &GormDealRepository{db: db}
}

// FindByID returns a deal by storage id, active or not.
func (r *GormDealRepository) FindByID(ctx context.Context, id uuid.UUID) (*dealDomain.Deal, error) {
	var model DealModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Deal", id.String())
		}
		return nil, err
	}
	return toDealDomain(&model), nil
}

// FindByNaturalKey returns a deal by natural key, active or not.
func (r *GormDealRepository) FindByNaturalKey(ctx context.Context, key string) (*dealDomain.Deal, error) {
	var model DealModel
	if err := r.db.WithContext(ctx).Where("natural_key = ?", key).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Deal", key)
		}
		return nil, err
	}
	return toDealDomain(&model), nil
}

// Search returns active deals matching the query. Ties on the sort key
// are broken by natural key so result order is deterministic.
func (r *GormDealRepository) Search(ctx context.Context, q dealDomain.SearchQuery) ([]*dealDomain.Deal, error) {
	tx := r.db.WithContext(ctx).Model(&DealModel{}).Where("active = ?", true)

	if q.CruiseLine != "" {
		tx = tx.Where("cruise_line ILIKE ?", "%"+q.CruiseLine+"%")
	}
	if q.DeparturePort != "" {
		tx = tx.Where("departure_port ILIKE ?", "%"+q.DeparturePort+"%")
	}
	if q.Destination != "" {
		tx = tx.Where("destination ILIKE ?", "%"+q.Destination+"%")
	}
	if q.MinDuration > 0 {
		tx = tx.Where("duration_nights >= ?", q.MinDuration)
	}
	if q.MaxDuration > 0 {
		tx = tx.Where("duration_nights <= ?", q.MaxDuration)
	}
	if q.MaxPricePerNight > 0 {
		tx = tx.Where("price_per_night <= ?", q.MaxPricePerNight)
	}

	tx = tx.Order(orderClause(q.SortBy, q.Descending))
	if q.Offset > 0 {
		tx = tx.Offset(q.Offset)
	}
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}

	var models []DealModel
	if err := tx.Find(&models).Error; err != nil {
		return nil, err
	}

	deals := make([]*dealDomain.Deal, len(models))
	for i := range models {
		deals[i] = toDealDomain(&models[i])
	}
	return deals, nil
}

// ActiveKeys returns the natural keys of all active deals.
func (r *GormDealRepository) ActiveKeys(ctx context.Context) ([]string, error) {
	var keys []string
	err := r.db.WithContext(ctx).
		Model(&DealModel{}).
		Where("active = ?", true).
		Pluck("natural_key", &keys).Error
	return keys, err
}

// Save persists a new deal.
func (r *GormDealRepository) Save(ctx context.Context, d *dealDomain.Deal) error {
	model := toDealModel(d)
	return r.db.WithContext(ctx).Create(&model).Error
}

// Update persists changes to an existing deal, matched by natural key
// so the stored row keeps its original id.
func (r *GormDealRepository) Update(ctx context.Context, d *dealDomain.Deal) error {
	model := toDealModel(d)
	return r.db.WithContext(ctx).
		Model(&DealModel{}).
		Where("natural_key = ?", model.NaturalKey).
		Select("*").Omit("id", "natural_key", "first_seen").
		Updates(&model).Error
}

// DeactivateMissing flips active=false on active deals whose natural
// key is not in seenKeys.
func (r *GormDealRepository) DeactivateMissing(ctx context.Context, seenKeys []string) (int64, error) {
	tx := r.db.WithContext(ctx).Model(&DealModel{}).Where("active = ?", true)
	if len(seenKeys) > 0 {
		tx = tx.Where("natural_key NOT IN ?", seenKeys)
	}
	result := tx.Update("active", false)
	return result.RowsAffected, result.Error
}

// GetStats returns aggregate statistics over active deals, counting one
// price bucket per requested per-night maximum.
func (r *GormDealRepository) GetStats(ctx context.Context, bucketMaxes []float64) (*dealDomain.Stats, error) {
	stats := &dealDomain.Stats{ByCruiseLine: make(map[string]int64)}

	base := func() *gorm.DB {
		return r.db.WithContext(ctx).Model(&DealModel{}).Where("active = ?", true)
	}

	if err := base().Count(&stats.TotalActive).Error; err != nil {
		return nil, err
	}
	for _, max := range bucketMaxes {
		var count int64
		if err := base().Where("price_per_night <= ?", max).Count(&count).Error; err != nil {
			return nil, err
		}
		stats.Buckets = append(stats.Buckets, dealDomain.PriceBucket{MaxPerNight: max, Count: count})
	}

	type lineCount struct {
		CruiseLine string
		Count      int64
	}
	var lines []lineCount
	if err := base().
		Select("cruise_line, count(*) as count").
		Group("cruise_line").
		Scan(&lines).Error; err != nil {
		return nil, err
	}
	for _, lc := range lines {
		stats.ByCruiseLine[lc.CruiseLine] = lc.Count
	}

	if stats.TotalActive > 0 {
		type priceRange struct {
			Min float64
			Max float64
		}
		var pr priceRange
		if err := base().
			Select("min(price_per_night) as min, max(price_per_night) as max").
			Scan(&pr).Error; err != nil {
			return nil, err
		}
		stats.MinPerNight = pr.Min
		stats.MaxPerNight = pr.Max
	}

	return stats, nil
}

func orderClause(sortBy string, descending bool) string {
	column := "price_per_night"
	switch sortBy {
	case dealDomain.SortPricePerNight, dealDomain.SortTotalPrice,
		dealDomain.SortDuration, dealDomain.SortDepartureDate:
		column = sortBy
	}
	direction := "ASC"
	if descending {
		direction = "DESC"
	}
	return fmt.Sprintf("%s %s, natural_key ASC", column, direction)
}

func toDealModel(d *dealDomain.Deal) DealModel {
	return DealModel{
		ID:             d.ID(),
		NaturalKey:     d.NaturalKey(),
		CruiseLine:     d.CruiseLine(),
		ShipName:       d.ShipName(),
		Destination:    d.Destination(),
		DeparturePort:  d.DeparturePort(),
		DepartureDate:  d.DepartureDate(),
		DurationNights: d.DurationNights(),
		TotalPrice:     d.TotalPrice(),
		PricePerNight:  d.PricePerNight(),
		CabinType:      d.CabinType(),
		SpecialOffers:  d.SpecialOffers(),
		SourceURL:      d.SourceURL(),
		ImageURL:       d.ImageURL(),
		Active:         d.Active(),
		FirstSeen:      d.FirstSeen(),
		LastSeen:       d.LastSeen(),
	}
}

func toDealDomain(m *DealModel) *dealDomain.Deal {
	return dealDomain.Reconstruct(
		m.ID, m.CruiseLine, m.ShipName, m.Destination, m.DeparturePort,
		m.DepartureDate, m.DurationNights, m.TotalPrice, m.PricePerNight,
		m.CabinType, m.SpecialOffers, m.SourceURL, m.ImageURL,
		m.Active, m.FirstSeen, m.LastSeen,
	)
}
