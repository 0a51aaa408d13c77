package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cheapcruises/service-deals/internal/config"
)

// stubProbe treats any body containing "LISTING" as a listing page.
type stubProbe struct{}

func (stubProbe) HasListings(body []byte) bool {
	return strings.Contains(string(body), "LISTING")
}

func fetcherConfig(baseURL string) config.ScraperConfig {
	return config.ScraperConfig{
		BaseURL:        baseURL,
		UserAgent:      "test-agent",
		TimeoutSeconds: 5,
		MaxPagination:  10,
	}
}

func TestFetchAll_SkipsFailedPages(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			w.Write([]byte("LISTING page"))
		case "/broken":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	cfg := fetcherConfig(srv.URL)
	cfg.Pages = []string{"/ok", "/broken", "/missing"}

	f := NewFetcher(cfg, stubProbe{}, zap.NewNop())
	result := f.FetchAll(context.Background())

	assert.Equal(t, 3, result.Attempted)
	assert.Equal(t, 1, result.Succeeded)
	require.Len(t, result.Pages, 1)
	assert.Equal(t, srv.URL+"/ok", result.Pages[0].URL)
}

func TestFetchAll_StopsPaginationAfterEmptyStreak(t *testing.T) {
	var requested []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requested = append(requested, r.URL.RequestURI())
		// Pages 1 and 2 have listings, everything after is empty.
		page := r.URL.Query().Get("page")
		if page == "1" || page == "2" {
			w.Write([]byte("LISTING page " + page))
			return
		}
		w.Write([]byte("no results"))
	}))
	defer srv.Close()

	cfg := fetcherConfig(srv.URL)
	cfg.PaginatedPages = []string{"/search"}

	f := NewFetcher(cfg, stubProbe{}, zap.NewNop())
	result := f.FetchAll(context.Background())

	// Pages 1-2 listed, 3-4 empty, then the walk stops.
	assert.Equal(t, []string{
		"/search?page=1", "/search?page=2", "/search?page=3", "/search?page=4",
	}, requested)
	assert.Equal(t, 4, result.Attempted)
	assert.Equal(t, 4, result.Succeeded)
	assert.Len(t, result.Pages, 2)
}

func TestFetchAll_SendsConfiguredUserAgent(t *testing.T) {
	var gotAgent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAgent = r.Header.Get("User-Agent")
		w.Write([]byte("LISTING"))
	}))
	defer srv.Close()

	cfg := fetcherConfig(srv.URL)
	cfg.Pages = []string{"/"}

	f := NewFetcher(cfg, stubProbe{}, zap.NewNop())
	f.FetchAll(context.Background())

	assert.Equal(t, "test-agent", gotAgent)
}

func TestFetchAll_RespectsMaxPagination(t *testing.T) {
	var count int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		count++
		w.Write([]byte("LISTING"))
	}))
	defer srv.Close()

	cfg := fetcherConfig(srv.URL)
	cfg.PaginatedPages = []string{"/search"}
	cfg.MaxPagination = 3

	f := NewFetcher(cfg, stubProbe{}, zap.NewNop())
	result := f.FetchAll(context.Background())

	assert.Equal(t, 3, count)
	assert.Len(t, result.Pages, 3)
}
