package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cheapcruises/service-deals/internal/application"
)

// blockingIngestor holds every run open until released.
type blockingIngestor struct {
	started chan uuid.UUID
	release chan struct{}
	runs    atomic.Int32
}

func newBlockingIngestor() *blockingIngestor {
	return &blockingIngestor{
		started: make(chan uuid.UUID, 8),
		release: make(chan struct{}),
	}
}

func (i *blockingIngestor) Run(_ context.Context, runID uuid.UUID) (application.IngestReport, error) {
	i.runs.Add(1)
	i.started <- runID
	<-i.release
	return application.IngestReport{
		RunID:      runID,
		Status:     application.RunStatusCompleted,
		FinishedAt: time.Now().UTC(),
	}, nil
}

type erroringIngestor struct{}

func (erroringIngestor) Run(_ context.Context, runID uuid.UUID) (application.IngestReport, error) {
	return application.IngestReport{
		RunID:  runID,
		Status: application.RunStatusFailed,
		Error:  "boom",
	}, errors.New("boom")
}

type panickingIngestor struct{}

func (panickingIngestor) Run(context.Context, uuid.UUID) (application.IngestReport, error) {
	panic("parser exploded")
}

func waitForIdle(t *testing.T, s *Scheduler) {
	t.Helper()
	require.Eventually(t, func() bool {
		return !s.Status().Running
	}, 5*time.Second, 10*time.Millisecond, "scheduler never became idle")
}

func TestTriggerNow_RejectsOverlappingRuns(t *testing.T) {
	ingestor := newBlockingIngestor()
	s := New(ingestor, 6, zap.NewNop())

	runID, started := s.TriggerNow()
	require.True(t, started)
	require.NotEqual(t, uuid.Nil, runID)
	<-ingestor.started

	// A second trigger while the first run is in flight is a no-op.
	secondID, started := s.TriggerNow()
	assert.False(t, started)
	assert.Equal(t, uuid.Nil, secondID)
	assert.Equal(t, int32(1), ingestor.runs.Load())

	close(ingestor.release)
	waitForIdle(t, s)

	// Once idle, triggering works again.
	_, started = s.TriggerNow()
	assert.True(t, started)
}

func TestStatus_TracksRunLifecycle(t *testing.T) {
	ingestor := newBlockingIngestor()
	s := New(ingestor, 6, zap.NewNop())

	assert.False(t, s.Status().Running)
	assert.Nil(t, s.Status().LastRun)

	runID, started := s.TriggerNow()
	require.True(t, started)
	<-ingestor.started

	snap := s.Status()
	assert.True(t, snap.Running)
	require.NotNil(t, snap.LastRun)
	assert.Equal(t, runID, snap.LastRun.RunID)
	assert.Equal(t, application.RunStatusRunning, snap.LastRun.Status)

	close(ingestor.release)
	waitForIdle(t, s)

	snap = s.Status()
	require.NotNil(t, snap.LastRun)
	assert.Equal(t, application.RunStatusCompleted, snap.LastRun.Status)
}

func TestScheduler_RecoversFromFailedRun(t *testing.T) {
	s := New(erroringIngestor{}, 6, zap.NewNop())

	_, started := s.TriggerNow()
	require.True(t, started)
	waitForIdle(t, s)

	snap := s.Status()
	require.NotNil(t, snap.LastRun)
	assert.Equal(t, application.RunStatusFailed, snap.LastRun.Status)

	_, started = s.TriggerNow()
	assert.True(t, started, "a failed run must not wedge the scheduler")
}

func TestScheduler_RecoversFromPanickedRun(t *testing.T) {
	s := New(panickingIngestor{}, 6, zap.NewNop())

	_, started := s.TriggerNow()
	require.True(t, started)
	waitForIdle(t, s)

	snap := s.Status()
	require.NotNil(t, snap.LastRun)
	assert.Equal(t, application.RunStatusFailed, snap.LastRun.Status)
	assert.Contains(t, snap.LastRun.Error, "panic")

	_, started = s.TriggerNow()
	assert.True(t, started, "a panicked run must not wedge the scheduler")
}
