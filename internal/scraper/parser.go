package scraper

import (
	"bytes"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

var (
	detailLinkRe = regexp.MustCompile(`(?i)view\s+cruise\s+details`)
	nightsRe     = regexp.MustCompile(`(?i)(\d+)\s*nights?`)
	departingRe  = regexp.MustCompile(`(?i)departing\s+([a-z ]+?)(?:\s+cruise|\s+\d|\s+twin|\s+quad|$)`)
	bonusRe      = regexp.MustCompile(`(?i)bonus:\s*([^\n]+)`)
	longDateRe   = regexp.MustCompile(`(?i)\b(\d{1,2})(?:st|nd|rd|th)?\s+(january|february|march|april|may|june|july|august|september|october|november|december)\s+(\d{4})`)
	slashDateRe  = regexp.MustCompile(`\b(\d{1,2}/\d{1,2}/\d{4})\b`)
	shipRe       = regexp.MustCompile(`(?i)\b((?:carnival|norwegian|celebrity|pacific)\s+[a-z]+|[a-z]+\s+of\s+the\s+seas|(?:queen)\s+[a-z]+|[a-z]+\s+princess)\b`)

	// priceRes in priority order: twin fare, generic "From $", per-person.
	priceRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)twin\s+from\s+(\$\d{1,3}(?:,\d{3})*(?:\.\d{2})?)`),
		regexp.MustCompile(`(?i)from\s+(\$\d{1,3}(?:,\d{3})*(?:\.\d{2})?)`),
		regexp.MustCompile(`(\$\d{1,3}(?:,\d{3})*(?:\.\d{2})?)\s*pp`),
	}
)

// knownLines canonicalizes cruise line names found in image alt text.
var knownLines = map[string]string{
	"carnival":  "Carnival",
	"royal":     "Royal Caribbean",
	"princess":  "Princess Cruises",
	"celebrity": "Celebrity Cruises",
	"norwegian": "Norwegian Cruise Line",
	"cunard":    "Cunard",
	"holland":   "Holland America",
	"p&o":       "P&O Australia",
	"azamara":   "Azamara",
	"msc":       "MSC Cruises",
	"virgin":    "Virgin Voyages",
}

// Parser extracts raw deal records from one page of site markup.
//
// Listing containers are found structurally: each "View Cruise Details"
// anchor is walked upward to the smallest enclosing element whose text
// carries both a price marker and a nights marker. A page with no such
// anchors yields an empty slice, which is the normal case for the last
// page of a paginated search.
type Parser struct {
	logger *zap.Logger
}

// NewParser creates a Parser.
func NewParser(logger *zap.Logger) *Parser {
	return &Parser{logger: logger}
}

// HasListings reports whether the page contains any listing anchors.
func (p *Parser) HasListings(body []byte) bool {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return false
	}
	found := false
	doc.Find("a").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		if detailLinkRe.MatchString(a.Text()) {
			found = true
			return false
		}
		return true
	})
	return found
}

// Parse returns one RawDeal per detected listing container. A container
// whose fields are partially missing still produces a RawDeal with the
// missing fields empty; rejection is the Normalizer's call.
func (p *Parser) Parse(pageURL string, body []byte) ([]RawDeal, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", pageURL, err)
	}

	var raws []RawDeal
	seen := make(map[string]struct{})

	doc.Find("a").Each(func(_ int, a *goquery.Selection) {
		if !detailLinkRe.MatchString(strings.TrimSpace(a.Text())) {
			return
		}
		container := findDealContainer(a)
		if container == nil {
			p.logger.Debug("no enclosing deal container for listing anchor",
				zap.String("page", pageURL))
			return
		}

		raw := p.extract(container, a, pageURL)
		dedup := raw.DetailURL + "|" + raw.ShipName + "|" + raw.PriceText
		if _, dup := seen[dedup]; dup {
			return
		}
		seen[dedup] = struct{}{}
		raws = append(raws, raw)
	})

	return raws, nil
}

// findDealContainer walks parents of the anchor until it hits the
// smallest element whose text contains both a price and a duration
// marker. Bounded so a degenerate DOM cannot loop forever.
func findDealContainer(a *goquery.Selection) *goquery.Selection {
	container := a
	for level := 0; level < 15; level++ {
		container = container.Parent()
		if container.Length() == 0 {
			return nil
		}
		text := container.Text()
		if hasPriceMarker(text) && nightsRe.MatchString(text) {
			return container
		}
	}
	return nil
}

func hasPriceMarker(text string) bool {
	for _, re := range priceRes {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

func (p *Parser) extract(container, anchor *goquery.Selection, pageURL string) RawDeal {
	fullText := collapseSpace(container.Text())

	raw := RawDeal{PageURL: pageURL}

	img := container.Find("img").First()
	raw.CruiseLine = canonicalLine(img.AttrOr("alt", ""))
	raw.ImageURL = resolveURL(pageURL, img.AttrOr("src", ""))
	raw.DetailURL = resolveURL(pageURL, anchor.AttrOr("href", ""))

	raw.ShipName = extractShipName(container, fullText)
	raw.Destination = extractHeading(container)

	if m := departingRe.FindStringSubmatch(fullText); m != nil {
		raw.DeparturePort = strings.TrimSpace(m[1])
	}

	switch {
	case strings.Contains(fullText, "Twin"):
		raw.CabinType = "Twin"
	case strings.Contains(fullText, "Quad"):
		raw.CabinType = "Quad"
	}

	for _, re := range priceRes {
		if m := re.FindStringSubmatch(fullText); m != nil {
			raw.PriceText = m[1]
			break
		}
	}

	if m := nightsRe.FindStringSubmatch(fullText); m != nil {
		raw.NightsText = m[1]
	}

	dates := extractDates(fullText)
	if len(dates) > 0 {
		raw.DepartureText = dates[0]
	}
	if len(dates) > 1 {
		raw.ReturnText = dates[1]
	}

	if m := bonusRe.FindStringSubmatch(fullText); m != nil {
		raw.OffersText = strings.TrimSpace(m[1])
	} else if strings.Contains(fullText, "Sale") {
		raw.OffersText = "Sale Fares"
	}

	return raw
}

// extractShipName looks for text alongside the ship icon, falling back
// to known ship-name patterns in the container text.
func extractShipName(container *goquery.Selection, fullText string) string {
	icon := container.Find(`i[class*="fa-ship"], span[class*="fa-ship"]`).First()
	if icon.Length() > 0 {
		if name := collapseSpace(icon.Parent().Text()); name != "" {
			return name
		}
	}
	if m := shipRe.FindStringSubmatch(fullText); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

// extractHeading returns the first short heading in the container,
// which on this site is the itinerary/destination title.
func extractHeading(container *goquery.Selection) string {
	result := ""
	container.Find("h1, h2, h3, h4, strong, b").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := collapseSpace(s.Text())
		if text != "" && len(text) < 50 {
			result = text
			return false
		}
		return true
	})
	return result
}

// extractDates returns date strings in document order, long form first
// normalized to "2 January 2006" shape, then dd/mm/yyyy matches.
func extractDates(fullText string) []string {
	var dates []string
	for _, m := range longDateRe.FindAllStringSubmatch(fullText, -1) {
		month := strings.ToLower(m[2])
		month = strings.ToUpper(month[:1]) + month[1:]
		dates = append(dates, fmt.Sprintf("%s %s %s", m[1], month, m[3]))
	}
	for _, m := range slashDateRe.FindAllStringSubmatch(fullText, -1) {
		dates = append(dates, m[1])
	}
	return dates
}

func canonicalLine(alt string) string {
	lower := strings.ToLower(alt)
	for marker, name := range knownLines {
		if strings.Contains(lower, marker) {
			return name
		}
	}
	return strings.TrimSpace(alt)
}

func resolveURL(pageURL, href string) string {
	if href == "" {
		return ""
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
