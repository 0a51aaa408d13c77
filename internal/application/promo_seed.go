package application

import (
	"time"

	"github.com/cheapcruises/service-deals/internal/domain/promo"
)

// knownPromoCodes is the fixed reference list of cruise-line promo
// codes shown on the site. These come from published offers, not from
// scraping; entries flagged invalid are codes that circulate on coupon
// sites without official documentation.
func knownPromoCodes() []*promo.PromoCode {
	var codes []*promo.PromoCode

	add := func(code, line, description string, discountType promo.DiscountType, value float64, from, until *time.Time, conditions, sourceURL string, status promo.Status) {
		p, err := promo.NewPromoCode(code, line, description, discountType, value, from, until, conditions, sourceURL, status, nil)
		if err != nil {
			// Seed entries are fixed literals; a bad one is dropped
			// rather than failing startup.
			return
		}
		codes = append(codes, p)
	}

	add("HBDAY46M", "Royal Caribbean",
		"Happy Birthday - $75-$300 instant savings per stateroom",
		promo.DiscountTypeInstantSavings, 75,
		date(2025, 10, 3), date(2025, 11, 2),
		"New bookings only. Varies by cabin type ($75-$300). Can combine with BOGO60 and Kids Sail Free.",
		"https://www.royalcaribbean.com", promo.StatusValid)

	add("SSOBENEFIT", "Royal Caribbean",
		"Sydney Symphony Orchestra - 10% discount on Australia/NZ/South Pacific sailings",
		promo.DiscountTypePercentage, 10,
		date(2025, 2, 1), date(2026, 1, 31),
		"Book directly with Royal Caribbean. Cannot combine with other promo codes.",
		"https://www.royalcaribbean.com", promo.StatusValid)

	add("VILLAGE10", "Royal Caribbean",
		"Village Roadshow Theme Parks - 10% off",
		promo.DiscountTypePercentage, 10,
		date(2024, 2, 1), date(2026, 12, 31),
		"Village Roadshow Theme Parks partnership offer",
		"https://www.royalcaribbean.com", promo.StatusValid)

	add("BF15", "Royal Caribbean",
		"Black Friday 15% off (unverified, appears on coupon sites only)",
		promo.DiscountTypePercentage, 15,
		nil, nil,
		"No official documentation found. Likely invalid or expired.",
		"", promo.StatusInvalid)

	add("EARLYBIRD", "Carnival",
		"Early Bird Savings - Up to $200 per cabin",
		promo.DiscountTypeInstantSavings, 200,
		date(2025, 1, 1), date(2026, 12, 31),
		"Book early and save. Varies by sailing. New bookings only.",
		"https://www.carnival.com.au", promo.StatusValid)

	add("FREE-OPEN-BAR", "Norwegian Cruise Line",
		"Free at Sea - Free Open Bar",
		promo.DiscountTypePerk, 0,
		nil, nil,
		"Part of Norwegian's Free at Sea promotion. Varies by booking class.",
		"https://www.ncl.com/free-at-sea", promo.StatusValid)

	add("FREE-SPECIALTY-DINING", "Norwegian Cruise Line",
		"Free at Sea - Free Specialty Dining",
		promo.DiscountTypePerk, 0,
		nil, nil,
		"Part of Norwegian's Free at Sea promotion. Varies by booking class.",
		"https://www.ncl.com/free-at-sea", promo.StatusValid)

	return codes
}

func date(year int, month time.Month, day int) *time.Time {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return &t
}
