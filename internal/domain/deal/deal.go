package deal

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Deal is the aggregate root for one scraped cruise listing. A deal is
// identified across runs by its natural key (ship, departure date, cabin),
// never by the storage id.
type Deal struct {
	id             uuid.UUID
	cruiseLine     string
	shipName       string
	destination    string
	departurePort  string
	departureDate  time.Time
	durationNights int
	totalPrice     float64
	pricePerNight  float64
	cabinType      string
	specialOffers  string
	sourceURL      string
	imageURL       string
	active         bool
	firstSeen      time.Time
	lastSeen       time.Time
}

// NewDeal creates a Deal from normalized fields, observed at seenAt.
// Duration must be positive; the price per night is derived here and
// nowhere else.
func NewDeal(cruiseLine, shipName, destination, departurePort string, departureDate time.Time, durationNights int, totalPrice float64, cabinType, specialOffers, sourceURL, imageURL string, seenAt time.Time) (*Deal, error) {
	if strings.TrimSpace(shipName) == "" {
		return nil, fmt.Errorf("ship name is required")
	}
	if durationNights <= 0 {
		return nil, fmt.Errorf("duration must be positive, got %d", durationNights)
	}
	if totalPrice <= 0 {
		return nil, fmt.Errorf("total price must be positive, got %.2f", totalPrice)
	}
	if cabinType == "" {
		cabinType = "Interior"
	}

	return &Deal{
		id:             uuid.New(),
		cruiseLine:     strings.TrimSpace(cruiseLine),
		shipName:       strings.TrimSpace(shipName),
		destination:    strings.TrimSpace(destination),
		departurePort:  strings.TrimSpace(departurePort),
		departureDate:  departureDate,
		durationNights: durationNights,
		totalPrice:     round2(totalPrice),
		pricePerNight:  round2(totalPrice / float64(durationNights)),
		cabinType:      cabinType,
		specialOffers:  strings.TrimSpace(specialOffers),
		sourceURL:      sourceURL,
		imageURL:       imageURL,
		active:         true,
		firstSeen:      seenAt,
		lastSeen:       seenAt,
	}, nil
}

// Reconstruct rebuilds a Deal from persistence without validation.
func Reconstruct(id uuid.UUID, cruiseLine, shipName, destination, departurePort string, departureDate time.Time, durationNights int, totalPrice, pricePerNight float64, cabinType, specialOffers, sourceURL, imageURL string, active bool, firstSeen, lastSeen time.Time) *Deal {
	return &Deal{
		id: id, cruiseLine: cruiseLine, shipName: shipName,
		destination: destination, departurePort: departurePort,
		departureDate: departureDate, durationNights: durationNights,
		totalPrice: totalPrice, pricePerNight: pricePerNight,
		cabinType: cabinType, specialOffers: specialOffers,
		sourceURL: sourceURL, imageURL: imageURL,
		active: active, firstSeen: firstSeen, lastSeen: lastSeen,
	}
}

// NaturalKey returns the stable cross-run identifier for this listing.
func (d *Deal) NaturalKey() string {
	return MakeNaturalKey(d.shipName, d.departureDate, d.cabinType)
}

// MakeNaturalKey builds the natural key from its components. The key is
// lowercased so that cosmetic casing changes on the site do not split a
// listing's history.
func MakeNaturalKey(shipName string, departureDate time.Time, cabinType string) string {
	return strings.ToLower(fmt.Sprintf("%s|%s|%s",
		strings.TrimSpace(shipName),
		departureDate.Format("2006-01-02"),
		strings.TrimSpace(cabinType),
	))
}

// Observe absorbs a re-observation of the same listing: mutable fields
// are taken from incoming, the record reactivates, last-seen moves to
// seenAt and first-seen is untouched. The price per night is recomputed
// from the incoming price and duration.
func (d *Deal) Observe(incoming *Deal, seenAt time.Time) {
	d.cruiseLine = incoming.cruiseLine
	d.destination = incoming.destination
	d.departurePort = incoming.departurePort
	d.durationNights = incoming.durationNights
	d.totalPrice = incoming.totalPrice
	d.pricePerNight = round2(incoming.totalPrice / float64(incoming.durationNights))
	d.specialOffers = incoming.specialOffers
	d.sourceURL = incoming.sourceURL
	if incoming.imageURL != "" {
		d.imageURL = incoming.imageURL
	}
	d.active = true
	d.lastSeen = seenAt
}

// Deactivate marks the deal as no longer listed. History is kept; the
// record is never deleted.
func (d *Deal) Deactivate() {
	d.active = false
}

// IsGoodDeal reports whether the per-night price is under threshold.
func (d *Deal) IsGoodDeal(threshold float64) bool {
	return d.pricePerNight < threshold
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Getters.
func (d *Deal) ID() uuid.UUID            { return d.id }
func (d *Deal) CruiseLine() string       { return d.cruiseLine }
func (d *Deal) ShipName() string         { return d.shipName }
func (d *Deal) Destination() string      { return d.destination }
func (d *Deal) DeparturePort() string    { return d.departurePort }
func (d *Deal) DepartureDate() time.Time { return d.departureDate }
func (d *Deal) DurationNights() int      { return d.durationNights }
func (d *Deal) TotalPrice() float64      { return d.totalPrice }
func (d *Deal) PricePerNight() float64   { return d.pricePerNight }
func (d *Deal) CabinType() string        { return d.cabinType }
func (d *Deal) SpecialOffers() string    { return d.specialOffers }
func (d *Deal) SourceURL() string        { return d.sourceURL }
func (d *Deal) ImageURL() string         { return d.imageURL }
func (d *Deal) Active() bool             { return d.active }
func (d *Deal) FirstSeen() time.Time     { return d.firstSeen }
func (d *Deal) LastSeen() time.Time      { return d.lastSeen }
