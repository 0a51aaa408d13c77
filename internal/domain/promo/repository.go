package promo

import "context"

// PromoRepository defines persistence operations for promo codes.
type PromoRepository interface {
	// Upsert creates the code or updates the existing row matching
	// (code, cruise line).
	Upsert(ctx context.Context, p *PromoCode) error

	// List returns promo codes, optionally filtered by cruise line
	// (case-insensitive substring). All codes are returned regardless
	// of validity; callers filter on IsCurrentlyValid when needed.
	List(ctx context.Context, cruiseLine string) ([]*PromoCode, error)
}
