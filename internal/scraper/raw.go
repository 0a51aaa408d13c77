package scraper

// RawDeal is the untyped intermediate between the Parser and the
// Normalizer. Every field is the text as found in the page; an empty
// string means the field was absent from the listing container. No
// parsing or validation happens here, so a malformed field never aborts
// the rest of a page.
type RawDeal struct {
	CruiseLine    string
	ShipName      string
	Destination   string
	DeparturePort string
	CabinType     string
	PriceText     string
	NightsText    string
	DepartureText string
	ReturnText    string
	OffersText    string
	DetailURL     string
	ImageURL      string
	// PageURL is the listing page the container was found on.
	PageURL string
}
