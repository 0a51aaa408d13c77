package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cheapcruises/service-deals/internal/application"
)

// Ingestor runs one complete ingestion pass.
type Ingestor interface {
	Run(ctx context.Context, runID uuid.UUID) (application.IngestReport, error)
}

// StatusSnapshot is a point-in-time view of scheduler state.
type StatusSnapshot struct {
	Running bool                      `json:"running"`
	LastRun *application.IngestReport `json:"last_run,omitempty"`
}

// Scheduler triggers ingestion runs on a fixed interval and on demand.
// It owns the run-in-progress state: only the scheduler transitions it,
// and overlapping triggers are rejected rather than queued.
type Scheduler struct {
	ingestor Ingestor
	interval time.Duration
	logger   *zap.Logger

	mu      sync.Mutex
	running bool
	last    *application.IngestReport
}

// New creates a Scheduler ticking every intervalHours.
func New(ingestor Ingestor, intervalHours int, logger *zap.Logger) *Scheduler {
	if intervalHours <= 0 {
		intervalHours = 6
	}
	return &Scheduler{
		ingestor: ingestor,
		interval: time.Duration(intervalHours) * time.Hour,
		logger:   logger,
	}
}

// Start runs the interval loop until ctx is cancelled. Blocking; run it
// in its own goroutine.
func (s *Scheduler) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("scheduler started", zap.Duration("interval", s.interval))
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return
		case <-ticker.C:
			if _, ok := s.TriggerNow(); !ok {
				s.logger.Warn("scheduled run skipped: previous run still in progress")
			}
		}
	}
}

// TriggerNow starts an ingestion run unless one is already in progress.
// Returns the run id and true when a run was started; uuid.Nil and
// false when the trigger was a no-op.
func (s *Scheduler) TriggerNow() (uuid.UUID, bool) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return uuid.Nil, false
	}
	s.running = true
	runID := uuid.New()
	s.last = &application.IngestReport{
		RunID:     runID,
		Status:    application.RunStatusRunning,
		StartedAt: time.Now().UTC(),
	}
	s.mu.Unlock()

	go s.execute(runID)
	return runID, true
}

// Status returns a snapshot of the current or most recent run.
func (s *Scheduler) Status() StatusSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := StatusSnapshot{Running: s.running}
	if s.last != nil {
		copied := *s.last
		snap.LastRun = &copied
	}
	return snap
}

// execute runs the pipeline and records its report. Any panic or error
// is absorbed here: the run is marked failed, storage stays in whatever
// partial state the reconciler reached, and the scheduler remains
// eligible for the next trigger.
func (s *Scheduler) execute(runID uuid.UUID) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("ingestion run panicked",
				zap.String("run_id", runID.String()),
				zap.Any("panic", r),
			)
			s.finish(application.IngestReport{
				RunID:      runID,
				Status:     application.RunStatusFailed,
				FinishedAt: time.Now().UTC(),
				Error:      fmt.Sprintf("panic: %v", r),
			})
		}
	}()

	report, err := s.ingestor.Run(context.Background(), runID)
	if err != nil {
		s.logger.Error("ingestion run failed",
			zap.String("run_id", runID.String()),
			zap.Error(err),
		)
	}
	s.finish(report)
}

func (s *Scheduler) finish(report application.IngestReport) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
	s.last = &report
}
