package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gazemetrics/gazemetrics-api/internal/analysis"
	"github.com/gazemetrics/gazemetrics-api/internal/cache"
	"github.com/gazemetrics/gazemetrics-api/internal/models"
	"github.com/gazemetrics/gazemetrics-api/internal/utils"
)

func newTestService() *AnalysisService {
	engine := analysis.NewEngine(analysis.DefaultVersion, nil)
	return NewAnalysisService(engine, cache.NewMemoryFingerprintCache(), nil, nil, nil)
}

func testSubmission(fileName string) *models.VideoSubmission {
	return &models.VideoSubmission{
		FileName:  fileName,
		FileSize:  1048576,
		VideoPath: "videos/test/" + fileName,
	}
}

func TestAnalyzeRejectsInvalidInput(t *testing.T) {
	svc := newTestService()

	_, err := svc.Analyze(context.Background(), 0, "", &models.VideoSubmission{})
	require.Error(t, err)
	assert.ErrorIs(t, err, utils.ErrInvalidInput)

	_, err = svc.Analyze(context.Background(), 0, "", &models.VideoSubmission{FileName: "a.mp4", VideoPath: "p", FileSize: -5})
	assert.ErrorIs(t, err, utils.ErrInvalidInput)
}

func TestAnalyzeSuccess(t *testing.T) {
	svc := newTestService()

	resp, err := svc.Analyze(context.Background(), 0, "", testSubmission("pitch.mp4"))
	require.NoError(t, err)

	assert.True(t, resp.Success)
	require.NotNil(t, resp.Analysis)
	assert.NotEmpty(t, resp.Analysis.AnalysisID)
	require.Len(t, resp.ProcessingSteps, 6)
	for _, s := range resp.ProcessingSteps {
		assert.Equal(t, statusSuccess, s.Status, s.Step)
	}
}

func TestAnalyzeCacheHitReturnsSameResult(t *testing.T) {
	svc := newTestService()
	sub := testSubmission("pitch.mp4")

	first, err := svc.Analyze(context.Background(), 0, "", sub)
	require.NoError(t, err)

	second, err := svc.Analyze(context.Background(), 0, "", sub)
	require.NoError(t, err)

	// The hit serves the stored object, not a recomputation.
	assert.Same(t, first.Analysis, second.Analysis)
	// The trace marks the fingerprint match instead of the full pipeline.
	assert.Equal(t, stepFingerprinting, second.ProcessingSteps[0].Step)
}

func TestAnalyzeCacheKeyedByVersion(t *testing.T) {
	fpCache := cache.NewMemoryFingerprintCache()
	sub := testSubmission("pitch.mp4")

	v1 := NewAnalysisService(analysis.NewEngine("1.1.0", nil), fpCache, nil, nil, nil)
	v2 := NewAnalysisService(analysis.NewEngine("1.2.0", nil), fpCache, nil, nil, nil)

	r1, err := v1.Analyze(context.Background(), 0, "", sub)
	require.NoError(t, err)
	r2, err := v2.Analyze(context.Background(), 0, "", sub)
	require.NoError(t, err)

	assert.NotEqual(t, r1.Analysis.AnalysisID, r2.Analysis.AnalysisID)
	assert.Equal(t, 2, fpCache.Len())
}

func TestAnalyzeStageFailure(t *testing.T) {
	svc := newTestService()

	_, err := svc.Analyze(context.Background(), 0, "", testSubmission("test-no-face.mp4"))
	var stageErr *analysis.StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, analysis.StageFacial, stageErr.Stage)
}

func TestAnalyzeStageFailureNotCached(t *testing.T) {
	fpCache := cache.NewMemoryFingerprintCache()
	svc := NewAnalysisService(analysis.NewEngine(analysis.DefaultVersion, nil), fpCache, nil, nil, nil)

	_, err := svc.Analyze(context.Background(), 0, "", testSubmission("landscape.mp4"))
	require.Error(t, err)
	assert.Equal(t, 0, fpCache.Len())
}

// memoryAnalysisStore keys rows the way the analyses table does, on
// (analysis id, user id).
type memoryAnalysisStore struct {
	records map[string]*models.Analysis
}

func newMemoryAnalysisStore() *memoryAnalysisStore {
	return &memoryAnalysisStore{records: make(map[string]*models.Analysis)}
}

func (s *memoryAnalysisStore) key(id string, userID int) string {
	return fmt.Sprintf("%s/%d", id, userID)
}

func (s *memoryAnalysisStore) Create(ctx context.Context, a *models.Analysis) error {
	k := s.key(a.ID, a.UserID)
	if _, ok := s.records[k]; !ok {
		s.records[k] = a
	}
	return nil
}

func (s *memoryAnalysisStore) GetByID(ctx context.Context, id string, userID int) (*models.Analysis, error) {
	a, ok := s.records[s.key(id, userID)]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return a, nil
}

func (s *memoryAnalysisStore) ListByUser(ctx context.Context, userID, limit, offset int) ([]models.Analysis, error) {
	out := []models.Analysis{}
	for _, a := range s.records {
		if a.UserID == userID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (s *memoryAnalysisStore) CountByUser(ctx context.Context, userID int) (int, error) {
	list, _ := s.ListByUser(ctx, userID, 0, 0)
	return len(list), nil
}

func (s *memoryAnalysisStore) StatsByUser(ctx context.Context, userID int) (*models.AnalysisStats, error) {
	count, _ := s.CountByUser(ctx, userID)
	return &models.AnalysisStats{TotalAnalyses: count}, nil
}

func TestAnalyzeRecordsHistoryForEachUser(t *testing.T) {
	store := newMemoryAnalysisStore()
	svc := NewAnalysisService(analysis.NewEngine(analysis.DefaultVersion, nil), cache.NewMemoryFingerprintCache(), store, nil, nil)
	sub := testSubmission("pitch.mp4")

	first, err := svc.Analyze(context.Background(), 1, "", sub)
	require.NoError(t, err)

	// The second user hits the fingerprint cache but still gets a history
	// row of their own under the shared analysis id.
	second, err := svc.Analyze(context.Background(), 2, "", sub)
	require.NoError(t, err)
	assert.Equal(t, first.Analysis.AnalysisID, second.Analysis.AnalysisID)

	for _, userID := range []int{1, 2} {
		record, err := store.GetByID(context.Background(), first.Analysis.AnalysisID, userID)
		require.NoError(t, err, "user %d has no record", userID)
		assert.Equal(t, userID, record.UserID)
		assert.Equal(t, first.Analysis.AnalysisID, record.ID)
	}

	count, err := store.CountByUser(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestAnalyzeRepeatBySameUserKeepsOneRecord(t *testing.T) {
	store := newMemoryAnalysisStore()
	svc := NewAnalysisService(analysis.NewEngine(analysis.DefaultVersion, nil), cache.NewMemoryFingerprintCache(), store, nil, nil)
	sub := testSubmission("pitch.mp4")

	_, err := svc.Analyze(context.Background(), 1, "", sub)
	require.NoError(t, err)
	_, err = svc.Analyze(context.Background(), 1, "", sub)
	require.NoError(t, err)

	count, err := store.CountByUser(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

// recordingNotifier captures progress events in emission order.
type recordingNotifier struct {
	steps     []models.ProcessingStep
	completed int
	failed    int
}

func (n *recordingNotifier) NotifyStep(userID int, videoID string, step models.ProcessingStep) {
	n.steps = append(n.steps, step)
}

func (n *recordingNotifier) NotifyCompleted(userID int, videoID, analysisID string, steps []models.ProcessingStep) {
	n.completed++
}

func (n *recordingNotifier) NotifyFailed(userID int, videoID, stage, reason string, steps []models.ProcessingStep) {
	n.failed++
}

func TestAnalyzeEmitsStepEvents(t *testing.T) {
	notifier := &recordingNotifier{}
	svc := NewAnalysisService(analysis.NewEngine(analysis.DefaultVersion, nil), cache.NewMemoryFingerprintCache(), nil, nil, notifier)

	resp, err := svc.Analyze(context.Background(), 1, "", testSubmission("pitch.mp4"))
	require.NoError(t, err)

	// One step event per trace entry, then the terminal completed event.
	require.Len(t, notifier.steps, len(resp.ProcessingSteps))
	for i, step := range resp.ProcessingSteps {
		assert.Equal(t, step.Step, notifier.steps[i].Step)
		assert.Equal(t, step.Status, notifier.steps[i].Status)
	}
	assert.Equal(t, 1, notifier.completed)
	assert.Equal(t, 0, notifier.failed)
}

func TestStageFailureEmitsStepEvents(t *testing.T) {
	notifier := &recordingNotifier{}
	svc := NewAnalysisService(analysis.NewEngine(analysis.DefaultVersion, nil), cache.NewMemoryFingerprintCache(), nil, nil, notifier)

	_, err := svc.Analyze(context.Background(), 1, "", testSubmission("test-no-face.mp4"))
	require.Error(t, err)

	require.NotEmpty(t, notifier.steps)
	var sawFailure bool
	for _, s := range notifier.steps {
		if s.Status == statusFailed {
			sawFailure = true
		}
	}
	assert.True(t, sawFailure)
	assert.Equal(t, 1, notifier.failed)
	assert.Equal(t, 0, notifier.completed)
}

// stubBackend lets tests drive the backend path of runPipeline.
type stubBackend struct {
	result *models.AnalysisResult
	err    error
	calls  int
}

func (b *stubBackend) Name() string { return "stub" }

func (b *stubBackend) Analyze(ctx context.Context, sub *models.VideoSubmission) (*models.AnalysisResult, error) {
	b.calls++
	return b.result, b.err
}

func TestBackendPreferredWhenHealthy(t *testing.T) {
	svc := newTestService()
	backend := &stubBackend{result: &models.AnalysisResult{AnalysisID: "backend-id", AnalysisVersion: analysis.DefaultVersion}}
	svc.SetBackend(backend)

	resp, err := svc.Analyze(context.Background(), 0, "", testSubmission("pitch.mp4"))
	require.NoError(t, err)

	assert.Equal(t, 1, backend.calls)
	assert.Equal(t, "backend-id", resp.Analysis.AnalysisID)
}

func TestBackendFailureFallsBackToEngine(t *testing.T) {
	svc := newTestService()
	backend := &stubBackend{err: fmt.Errorf("provider unavailable")}
	svc.SetBackend(backend)

	resp, err := svc.Analyze(context.Background(), 0, "", testSubmission("pitch.mp4"))
	require.NoError(t, err)

	assert.Equal(t, 1, backend.calls)
	assert.NotEmpty(t, resp.Analysis.AnalysisID)
}

func TestBackendStageErrorIsNotRetried(t *testing.T) {
	svc := newTestService()
	backend := &stubBackend{err: &analysis.StageError{
		Stage:      analysis.StageHuman,
		Confidence: 0.2,
		Message:    "no human presence detected in video (confidence 0.20)",
	}}
	svc.SetBackend(backend)

	_, err := svc.Analyze(context.Background(), 0, "", testSubmission("pitch.mp4"))
	var stageErr *analysis.StageError
	require.True(t, errors.As(err, &stageErr))
	assert.Equal(t, analysis.StageHuman, stageErr.Stage)
}
