package scraper

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/cheapcruises/service-deals/internal/config"
)

// Page is one successfully fetched listing page.
type Page struct {
	URL  string
	Body []byte
}

// FetchResult is the outcome of walking the configured page list.
type FetchResult struct {
	Pages     []Page
	Attempted int
	Succeeded int
}

// ListingProbe reports whether a page body contains any listing
// containers. The Fetcher uses it to stop paginating past the end of a
// search result.
type ListingProbe interface {
	HasListings(body []byte) bool
}

// Fetcher retrieves listing pages sequentially, one request in flight at
// a time. A failed page is skipped and logged, never fatal to the run.
type Fetcher struct {
	client *resty.Client
	cfg    config.ScraperConfig
	probe  ListingProbe
	logger *zap.Logger
}

// NewFetcher creates a Fetcher against the configured site.
func NewFetcher(cfg config.ScraperConfig, probe ListingProbe, logger *zap.Logger) *Fetcher {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(time.Duration(cfg.TimeoutSeconds) * time.Second)
	client.SetHeader("user-agent", cfg.UserAgent)
	client.SetHeader("accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	client.SetHeader("accept-language", "en-US,en;q=0.5")

	return &Fetcher{client: client, cfg: cfg, probe: probe, logger: logger}
}

// FetchAll walks the configured simple pages, then the paginated search
// pages with ?page=N up to MaxPagination, stopping a search early after
// two consecutive pages without listings. Returns every page that
// fetched successfully plus attempt/success counts for the deactivation
// guard.
func (f *Fetcher) FetchAll(ctx context.Context) FetchResult {
	var result FetchResult

	for _, path := range f.cfg.Pages {
		result.Attempted++
		body, err := f.fetch(ctx, path)
		if err != nil {
			f.logger.Warn("skipping page", zap.String("path", path), zap.Error(err))
			continue
		}
		result.Succeeded++
		result.Pages = append(result.Pages, Page{URL: f.cfg.BaseURL + path, Body: body})
	}

	for _, path := range f.cfg.PaginatedPages {
		emptyStreak := 0
		for pageNum := 1; pageNum <= f.cfg.MaxPagination; pageNum++ {
			url := fmt.Sprintf("%s?page=%d", path, pageNum)
			result.Attempted++
			body, err := f.fetch(ctx, url)
			if err != nil {
				f.logger.Warn("skipping page", zap.String("path", url), zap.Error(err))
				break
			}
			result.Succeeded++

			if !f.probe.HasListings(body) {
				// The last page of a search naturally has no
				// containers; two in a row means we are done.
				emptyStreak++
				if emptyStreak >= 2 {
					break
				}
				continue
			}
			emptyStreak = 0
			result.Pages = append(result.Pages, Page{URL: f.cfg.BaseURL + url, Body: body})
		}
	}

	f.logger.Info("fetch pass finished",
		zap.Int("attempted", result.Attempted),
		zap.Int("succeeded", result.Succeeded),
		zap.Int("pages_with_listings", len(result.Pages)),
	)
	return result
}

func (f *Fetcher) fetch(ctx context.Context, path string) ([]byte, error) {
	resp, err := f.client.R().SetContext(ctx).Get(path)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", path, err)
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("fetch %s: status %d", path, resp.StatusCode())
	}
	return resp.Body(), nil
}
