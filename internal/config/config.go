package config

import (
	"strings"

	"github.com/spf13/viper"

	"github.com/cheapcruises/service-deals/pkg/database"
)

// ScraperConfig holds everything the ingestion pipeline needs.
type ScraperConfig struct {
	// BaseURL is the root of the scraped site.
	BaseURL string
	// Pages are listing paths relative to BaseURL, fetched in order.
	Pages []string
	// PaginatedPages are listing paths that accept ?page=N.
	PaginatedPages []string
	// MaxPagination bounds ?page=N walking per paginated path.
	MaxPagination int
	// IntervalHours is the wall-clock period between scheduled runs.
	IntervalHours int
	// UserAgent is sent on every page fetch.
	UserAgent string
	// TimeoutSeconds bounds a single page fetch.
	TimeoutSeconds int
	// MinSuccessfulPages is the deactivation guard: when fewer pages
	// fetch successfully, no stored record is deactivated that run.
	MinSuccessfulPages int
	// RunOnStart triggers one ingestion run immediately at boot.
	RunOnStart bool
}

// KafkaConfig holds event publishing settings. Empty Brokers disables
// publishing entirely.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// ServiceConfig holds all configuration for the deals service.
type ServiceConfig struct {
	Port           string
	AppEnv         string
	DBConfig       database.PostgresConfig
	KafkaConfig    KafkaConfig
	Scraper        ScraperConfig
	PriceThreshold float64
	MaxPageSize    int
}

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// defaultPages mirrors the site's non-paginated listing surfaces:
// homepage, specials and per-port pages.
var defaultPages = []string{
	"/",
	"/cruise-specials",
	"/last-minute-cruises",
	"/cheap-cruises-from-sydney",
	"/cheap-cruises-from-brisbane",
	"/cheap-cruises-from-melbourne",
}

// defaultPaginatedPages are search result pages that page via ?page=N.
var defaultPaginatedPages = []string{
	"/searchcruise/bysearchbar/17/-111/-111/-111/true/-111/-111/-111/-111",
	"/searchcruise/bysearchbar/5/-111/-111/-111/true/-111/-111/-111/-111",
	"/searchcruise/bysearchbar/4/-111/-111/-111/true/-111/-111/-111/-111",
}

// Load reads configuration from environment variables once at process start.
func Load() (*ServiceConfig, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("SERVICE_PORT", ":8080")
	v.SetDefault("APP_ENV", "development")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "cruises")
	v.SetDefault("DB_PASSWORD", "cruises")
	v.SetDefault("DB_NAME", "cruises")
	v.SetDefault("DB_SSLMODE", "disable")

	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("KAFKA_TOPIC", "deals.events")

	v.SetDefault("SCRAPER_BASE_URL", "https://www.ozcruising.com.au")
	v.SetDefault("SCRAPER_PAGES", strings.Join(defaultPages, ","))
	v.SetDefault("SCRAPER_PAGINATED_PAGES", strings.Join(defaultPaginatedPages, ","))
	v.SetDefault("SCRAPER_MAX_PAGINATION", 3)
	v.SetDefault("SCRAPER_INTERVAL_HOURS", 6)
	v.SetDefault("SCRAPER_USER_AGENT", defaultUserAgent)
	v.SetDefault("SCRAPER_TIMEOUT_SECONDS", 30)
	v.SetDefault("SCRAPER_MIN_SUCCESSFUL_PAGES", 3)
	v.SetDefault("SCRAPER_RUN_ON_START", false)

	v.SetDefault("PRICE_THRESHOLD", 200.0)
	v.SetDefault("MAX_PAGE_SIZE", 100)

	port := v.GetString("SERVICE_PORT")
	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}

	return &ServiceConfig{
		Port:   port,
		AppEnv: v.GetString("APP_ENV"),
		DBConfig: database.PostgresConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			DBName:   v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
		},
		KafkaConfig: KafkaConfig{
			Brokers: splitList(v.GetString("KAFKA_BROKERS")),
			Topic:   v.GetString("KAFKA_TOPIC"),
		},
		Scraper: ScraperConfig{
			BaseURL:            strings.TrimRight(v.GetString("SCRAPER_BASE_URL"), "/"),
			Pages:              splitList(v.GetString("SCRAPER_PAGES")),
			PaginatedPages:     splitList(v.GetString("SCRAPER_PAGINATED_PAGES")),
			MaxPagination:      v.GetInt("SCRAPER_MAX_PAGINATION"),
			IntervalHours:      v.GetInt("SCRAPER_INTERVAL_HOURS"),
			UserAgent:          v.GetString("SCRAPER_USER_AGENT"),
			TimeoutSeconds:     v.GetInt("SCRAPER_TIMEOUT_SECONDS"),
			MinSuccessfulPages: v.GetInt("SCRAPER_MIN_SUCCESSFUL_PAGES"),
			RunOnStart:         v.GetBool("SCRAPER_RUN_ON_START"),
		},
		PriceThreshold: v.GetFloat64("PRICE_THRESHOLD"),
		MaxPageSize:    v.GetInt("MAX_PAGE_SIZE"),
	}, nil
}

func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
