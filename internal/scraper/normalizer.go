package scraper

import (
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/cheapcruises/service-deals/internal/domain/deal"
)

// Rejection reasons surfaced by Normalize.
const (
	ReasonUnparseablePrice    = "unparseable price"
	ReasonUnparseableDate     = "unparseable date"
	ReasonMissingDuration     = "missing duration"
	ReasonNonPositiveDuration = "non-positive duration"
	ReasonInvalidRecord       = "invalid record"
)

// Rejection explains why a raw record was dropped from a run. Rejected
// records are not written and do not count as seen.
type Rejection struct {
	Reason string
	Raw    RawDeal
}

// dateFormats are the accepted textual departure-date formats, tried in
// order.
var dateFormats = []string{
	"2 January 2006",
	"02 January 2006",
	"2/1/2006",
	"02/01/2006",
	"2006-01-02",
}

// Normalizer converts RawDeals into Deal aggregates or rejections.
type Normalizer struct {
	logger *zap.Logger
}

// NewNormalizer creates a Normalizer.
func NewNormalizer(logger *zap.Logger) *Normalizer {
	return &Normalizer{logger: logger}
}

// Normalize produces a Deal observed at seenAt, or a Rejection. Exactly
// one of the return values is non-nil.
func (n *Normalizer) Normalize(raw RawDeal, seenAt time.Time) (*deal.Deal, *Rejection) {
	price, ok := parsePrice(raw.PriceText)
	if !ok {
		return nil, n.reject(ReasonUnparseablePrice, raw)
	}

	departure, ok := parseDate(raw.DepartureText)
	if !ok {
		return nil, n.reject(ReasonUnparseableDate, raw)
	}

	nights, ok := n.resolveNights(raw, departure)
	if !ok {
		return nil, n.reject(ReasonMissingDuration, raw)
	}
	if nights <= 0 {
		return nil, n.reject(ReasonNonPositiveDuration, raw)
	}

	sourceURL := raw.DetailURL
	if sourceURL == "" {
		sourceURL = raw.PageURL
	}

	d, err := deal.NewDeal(
		raw.CruiseLine, raw.ShipName, raw.Destination, raw.DeparturePort,
		departure, nights, price,
		raw.CabinType, raw.OffersText, sourceURL, raw.ImageURL,
		seenAt,
	)
	if err != nil {
		n.logger.Debug("record failed deal construction", zap.Error(err))
		return nil, &Rejection{Reason: ReasonInvalidRecord, Raw: raw}
	}
	return d, nil
}

// resolveNights takes the explicit nights field when present, otherwise
// derives the duration from departure and return dates.
func (n *Normalizer) resolveNights(raw RawDeal, departure time.Time) (int, bool) {
	if raw.NightsText != "" {
		nights, err := strconv.Atoi(strings.TrimSpace(raw.NightsText))
		if err != nil {
			return 0, false
		}
		return nights, true
	}

	if raw.ReturnText == "" {
		return 0, false
	}
	ret, ok := parseDate(raw.ReturnText)
	if !ok {
		return 0, false
	}
	return int(ret.Sub(departure).Hours() / 24), true
}

func (n *Normalizer) reject(reason string, raw RawDeal) *Rejection {
	n.logger.Debug("record rejected",
		zap.String("reason", reason),
		zap.String("ship", raw.ShipName),
		zap.String("page", raw.PageURL),
	)
	return &Rejection{Reason: reason, Raw: raw}
}

// parsePrice strips currency symbols and thousands separators, then
// parses the remainder as a decimal.
func parsePrice(text string) (float64, bool) {
	cleaned := strings.TrimSpace(text)
	cleaned = strings.TrimPrefix(cleaned, "$")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	if cleaned == "" {
		return 0, false
	}
	price, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || price <= 0 {
		return 0, false
	}
	return price, true
}

func parseDate(text string) (time.Time, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return time.Time{}, false
	}
	for _, layout := range dateFormats {
		if t, err := time.Parse(layout, text); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
