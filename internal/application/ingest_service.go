package application

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cheapcruises/service-deals/internal/domain/deal"
	"github.com/cheapcruises/service-deals/internal/events"
	"github.com/cheapcruises/service-deals/internal/scraper"
	"github.com/cheapcruises/service-deals/pkg/domain"
)

// RunStatus is the lifecycle state of one ingestion run.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// IngestReport summarizes one ingestion run.
type IngestReport struct {
	RunID          uuid.UUID `json:"run_id"`
	Status         RunStatus `json:"status"`
	StartedAt      time.Time `json:"started_at"`
	FinishedAt     time.Time `json:"finished_at"`
	PagesAttempted int       `json:"pages_attempted"`
	PagesFetched   int       `json:"pages_fetched"`
	DealsParsed    int       `json:"deals_parsed"`
	Rejected       int       `json:"rejected"`
	Created        int       `json:"created"`
	Updated        int       `json:"updated"`
	Deactivated    int       `json:"deactivated"`
	GuardSkipped   bool      `json:"guard_skipped"`
	Error          string    `json:"error,omitempty"`
}

// PageSource fetches the configured listing pages.
type PageSource interface {
	FetchAll(ctx context.Context) scraper.FetchResult
}

// RawParser extracts raw records from one page's markup.
type RawParser interface {
	Parse(pageURL string, body []byte) ([]scraper.RawDeal, error)
}

// IngestService runs Fetch -> Parse -> Normalize -> Reconcile as one
// logical unit. It is the sole writer of deal records.
type IngestService struct {
	source     PageSource
	parser     RawParser
	normalizer *scraper.Normalizer
	repo       deal.DealRepository
	publisher  events.Publisher
	// minPages is the deactivation guard: a run that fetched fewer
	// pages successfully may insert and update, but never deactivate.
	minPages int
	logger   *zap.Logger
}

// NewIngestService wires the ingestion pipeline.
func NewIngestService(source PageSource, parser RawParser, normalizer *scraper.Normalizer, repo deal.DealRepository, publisher events.Publisher, minPages int, logger *zap.Logger) *IngestService {
	return &IngestService{
		source:     source,
		parser:     parser,
		normalizer: normalizer,
		repo:       repo,
		publisher:  publisher,
		minPages:   minPages,
		logger:     logger,
	}
}

// Run executes one complete ingestion run. Per-page and per-record
// failures are skipped and counted; only a storage-level upsert sweep
// failure makes the whole run fail.
func (s *IngestService) Run(ctx context.Context, runID uuid.UUID) (IngestReport, error) {
	report := IngestReport{
		RunID:     runID,
		Status:    RunStatusRunning,
		StartedAt: time.Now().UTC(),
	}
	s.logger.Info("ingestion run started", zap.String("run_id", runID.String()))

	fetched := s.source.FetchAll(ctx)
	report.PagesAttempted = fetched.Attempted
	report.PagesFetched = fetched.Succeeded

	incoming := s.collect(fetched.Pages, &report)
	report.DealsParsed = len(incoming)

	seenKeys, err := s.upsert(ctx, incoming, report.StartedAt, &report)
	if err != nil {
		report.Status = RunStatusFailed
		report.Error = err.Error()
		report.FinishedAt = time.Now().UTC()
		return report, err
	}

	// Deactivation is scoped by what actually fetched: a run that lost
	// too many pages must not wipe listings it simply never saw.
	if fetched.Succeeded >= s.minPages {
		s.auditMissing(ctx, runID, seenKeys)
		deactivated, err := s.repo.DeactivateMissing(ctx, seenKeys)
		if err != nil {
			report.Status = RunStatusFailed
			report.Error = err.Error()
			report.FinishedAt = time.Now().UTC()
			return report, err
		}
		report.Deactivated = int(deactivated)
	} else {
		report.GuardSkipped = true
		s.logger.Warn("skipping deactivation sweep: too few pages fetched",
			zap.Int("fetched", fetched.Succeeded),
			zap.Int("minimum", s.minPages),
		)
	}

	report.Status = RunStatusCompleted
	report.FinishedAt = time.Now().UTC()
	s.publishRunCompleted(ctx, report)

	s.logger.Info("ingestion run completed",
		zap.String("run_id", runID.String()),
		zap.Int("parsed", report.DealsParsed),
		zap.Int("rejected", report.Rejected),
		zap.Int("created", report.Created),
		zap.Int("updated", report.Updated),
		zap.Int("deactivated", report.Deactivated),
	)
	return report, nil
}

// collect parses and normalizes every fetched page, deduplicating by
// natural key within the run. The first observation of a key wins.
func (s *IngestService) collect(pages []scraper.Page, report *IngestReport) []*deal.Deal {
	byKey := make(map[string]struct{})
	var out []*deal.Deal

	for _, page := range pages {
		raws, err := s.parser.Parse(page.URL, page.Body)
		if err != nil {
			s.logger.Warn("failed to parse page", zap.String("url", page.URL), zap.Error(err))
			continue
		}
		for _, raw := range raws {
			d, rejection := s.normalizer.Normalize(raw, report.StartedAt)
			if rejection != nil {
				report.Rejected++
				continue
			}
			key := d.NaturalKey()
			if _, dup := byKey[key]; dup {
				continue
			}
			byKey[key] = struct{}{}
			out = append(out, d)
		}
	}
	return out
}

// upsert is the first reconciliation phase: insert unseen records and
// refresh re-observed ones, building the seen-key set for the
// deactivation sweep. A single bad record is skipped; a storage error
// is returned so the run is marked failed.
func (s *IngestService) upsert(ctx context.Context, incoming []*deal.Deal, runStarted time.Time, report *IngestReport) ([]string, error) {
	seenKeys := make([]string, 0, len(incoming))

	for _, d := range incoming {
		key := d.NaturalKey()

		existing, err := s.repo.FindByNaturalKey(ctx, key)
		switch {
		case err == nil:
			oldPrice := existing.TotalPrice()
			existing.Observe(d, runStarted)
			if err := s.repo.Update(ctx, existing); err != nil {
				return nil, err
			}
			report.Updated++
			if d.TotalPrice() < oldPrice {
				s.publishPriceDrop(ctx, existing, oldPrice)
			}

		case isNotFound(err):
			if err := s.repo.Save(ctx, d); err != nil {
				return nil, err
			}
			report.Created++

		default:
			return nil, err
		}

		seenKeys = append(seenKeys, key)
	}
	return seenKeys, nil
}

// auditMissing names the active listings the deactivation sweep is about
// to flip, so a disappearance can be traced back to its run.
func (s *IngestService) auditMissing(ctx context.Context, runID uuid.UUID, seenKeys []string) {
	active, err := s.repo.ActiveKeys(ctx)
	if err != nil {
		s.logger.Warn("failed to list active keys before sweep", zap.Error(err))
		return
	}
	seen := make(map[string]struct{}, len(seenKeys))
	for _, k := range seenKeys {
		seen[k] = struct{}{}
	}
	var missing []string
	for _, k := range active {
		if _, ok := seen[k]; !ok {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		s.logger.Info("listings gone from source",
			zap.String("run_id", runID.String()),
			zap.Int("count", len(missing)),
			zap.Strings("natural_keys", missing),
		)
	}
}

func (s *IngestService) publishPriceDrop(ctx context.Context, d *deal.Deal, oldPrice float64) {
	event := events.PriceDropEvent{
		DealID:           d.ID().String(),
		NaturalKey:       d.NaturalKey(),
		CruiseLine:       d.CruiseLine(),
		ShipName:         d.ShipName(),
		OldTotalPrice:    oldPrice,
		NewTotalPrice:    d.TotalPrice(),
		NewPricePerNight: d.PricePerNight(),
		OccurredAt:       time.Now().UTC(),
	}
	if err := s.publisher.PublishPriceDrop(ctx, event); err != nil {
		s.logger.Warn("failed to publish price drop event",
			zap.String("natural_key", d.NaturalKey()), zap.Error(err))
	}
}

func (s *IngestService) publishRunCompleted(ctx context.Context, report IngestReport) {
	event := events.RunCompletedEvent{
		RunID:        report.RunID.String(),
		Status:       string(report.Status),
		PagesFetched: report.PagesFetched,
		PagesFailed:  report.PagesAttempted - report.PagesFetched,
		DealsParsed:  report.DealsParsed,
		Rejected:     report.Rejected,
		Created:      report.Created,
		Updated:      report.Updated,
		Deactivated:  report.Deactivated,
		GuardSkipped: report.GuardSkipped,
		StartedAt:    report.StartedAt,
		FinishedAt:   report.FinishedAt,
	}
	if err := s.publisher.PublishRunCompleted(ctx, event); err != nil {
		s.logger.Warn("failed to publish run completed event",
			zap.String("run_id", report.RunID.String()), zap.Error(err))
	}
}

func isNotFound(err error) bool {
	var notFound *domain.NotFoundError
	return errors.As(err, &notFound)
}
