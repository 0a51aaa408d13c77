package currency

import (
	"math"
	"sort"
	"strings"

	"github.com/cheapcruises/service-deals/pkg/domain"
)

// Base is the currency all prices are scraped and stored in.
const Base = "AUD"

// rates are static conversion multipliers from AUD. The site's prices
// move far more often than these do, so a fixed table is acceptable;
// displayed conversions are indicative, not bookable.
var rates = map[string]float64{
	"AUD": 1.0,
	"USD": 0.66,
	"EUR": 0.61,
	"GBP": 0.52,
	"NZD": 1.09,
}

// Convert converts an AUD amount into the target currency, rounded to
// two decimal places. Unknown codes are a validation error.
func Convert(amountAUD float64, code string) (float64, error) {
	rate, ok := rates[strings.ToUpper(strings.TrimSpace(code))]
	if !ok {
		return 0, domain.NewValidationError("unsupported currency: %s", code)
	}
	return math.Round(amountAUD*rate*100) / 100, nil
}

// Supported returns the accepted currency codes in sorted order.
func Supported() []string {
	codes := make([]string, 0, len(rates))
	for code := range rates {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
