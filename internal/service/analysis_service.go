package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/gazemetrics/gazemetrics-api/internal/analysis"
	"github.com/gazemetrics/gazemetrics-api/internal/cache"
	"github.com/gazemetrics/gazemetrics-api/internal/models"
	"github.com/gazemetrics/gazemetrics-api/internal/repository"
	"github.com/gazemetrics/gazemetrics-api/internal/sse"
	"github.com/gazemetrics/gazemetrics-api/internal/utils"
)

// AnalysisBackend is a swappable analysis collaborator behind the same
// analyze contract as the deterministic engine.
type AnalysisBackend interface {
	Name() string
	Analyze(ctx context.Context, sub *models.VideoSubmission) (*models.AnalysisResult, error)
}

// AnalysisStore is the persistence surface the service needs for analysis
// history rows. *repository.AnalysisRepository satisfies it.
type AnalysisStore interface {
	Create(ctx context.Context, a *models.Analysis) error
	GetByID(ctx context.Context, id string, userID int) (*models.Analysis, error)
	ListByUser(ctx context.Context, userID, limit, offset int) ([]models.Analysis, error)
	CountByUser(ctx context.Context, userID int) (int, error)
	StatsByUser(ctx context.Context, userID int) (*models.AnalysisStats, error)
}

// AnalysisService orchestrates the analyze operation: input validation,
// fingerprint-cache lookup, pipeline execution, persistence, and progress
// notification.
type AnalysisService struct {
	engine       *analysis.Engine
	cache        cache.FingerprintCache
	analysisRepo AnalysisStore
	videoRepo    *repository.VideoRepository
	notifier     sse.AnalysisNotifier
	backend      AnalysisBackend
}

// NewAnalysisService creates a new analysis service. The backend is
// optional; when unset the deterministic engine handles everything.
func NewAnalysisService(
	engine *analysis.Engine,
	fpCache cache.FingerprintCache,
	analysisRepo AnalysisStore,
	videoRepo *repository.VideoRepository,
	notifier sse.AnalysisNotifier,
) *AnalysisService {
	if notifier == nil {
		notifier = &sse.NopNotifier{}
	}
	return &AnalysisService{
		engine:       engine,
		cache:        fpCache,
		analysisRepo: analysisRepo,
		videoRepo:    videoRepo,
		notifier:     notifier,
	}
}

// SetBackend registers a remote analysis collaborator. The deterministic
// engine remains the fallback when the backend fails.
func (s *AnalysisService) SetBackend(b AnalysisBackend) {
	s.backend = b
	log.Info().Str("backend", b.Name()).Msg("Analysis backend registered")
}

// Analyze runs the full analyze operation for a submission. videoID links
// the result to an uploaded video record and may be empty for direct calls.
//
// Returns *analysis.StageError when a detection gate rejects the input and
// utils.ErrInvalidInput (wrapped) for malformed submissions.
func (s *AnalysisService) Analyze(ctx context.Context, userID int, videoID string, sub *models.VideoSubmission) (*models.AnalyzeResponse, error) {
	if err := analysis.ValidateSubmission(sub); err != nil {
		return nil, fmt.Errorf("%w: %s", utils.ErrInvalidInput, err.Error())
	}

	fingerprint := s.engine.Fingerprint(sub)
	logger := log.With().
		Str("fingerprint", fingerprint).
		Str("fileName", sub.FileName).
		Str("videoId", videoID).
		Logger()

	// Cache hit: return the stored result verbatim. This is what makes
	// re-submitting the same nominal video stable across calls.
	if cached, ok, err := s.cache.Get(ctx, fingerprint); err != nil {
		logger.Warn().Err(err).Msg("Fingerprint cache lookup failed, recomputing")
	} else if ok {
		logger.Info().Str("analysisId", cached.AnalysisID).Msg("Using cached analysis")
		s.recordAnalysis(ctx, userID, videoID, fingerprint, cached)
		steps := cachedSteps()
		s.finishVideo(ctx, userID, videoID, cached, steps)
		return &models.AnalyzeResponse{Success: true, Analysis: cached, ProcessingSteps: steps}, nil
	}

	result, err := s.runPipeline(ctx, sub)
	if err != nil {
		var stageErr *analysis.StageError
		if errors.As(err, &stageErr) {
			logger.Info().
				Str("stage", string(stageErr.Stage)).
				Float64("confidence", stageErr.Confidence).
				Msg("Detection stage rejected video")
			steps := StageFailureSteps(stageErr)
			s.failVideo(ctx, userID, videoID, stageErr, steps)
			return nil, stageErr
		}
		logger.Error().Err(err).Msg("Analysis pipeline failed")
		return nil, err
	}

	if err := s.cache.Put(ctx, fingerprint, result); err != nil {
		// A lost cache write only costs a recomputation; results for the
		// same fingerprint are value-identical.
		logger.Warn().Err(err).Msg("Fingerprint cache write failed")
	}

	s.recordAnalysis(ctx, userID, videoID, fingerprint, result)

	steps := successSteps(result.SpeechMetrics.WordsPerMinute > 0)
	s.finishVideo(ctx, userID, videoID, result, steps)

	logger.Info().Str("analysisId", result.AnalysisID).Msg("Analysis completed")
	return &models.AnalyzeResponse{Success: true, Analysis: result, ProcessingSteps: steps}, nil
}

// runPipeline prefers the registered backend and falls back to the
// deterministic engine on backend failure.
func (s *AnalysisService) runPipeline(ctx context.Context, sub *models.VideoSubmission) (*models.AnalysisResult, error) {
	if s.backend != nil {
		result, err := s.backend.Analyze(ctx, sub)
		if err == nil {
			return result, nil
		}
		var stageErr *analysis.StageError
		if errors.As(err, &stageErr) {
			return nil, err
		}
		log.Warn().Err(err).Str("backend", s.backend.Name()).Msg("Backend analysis failed, falling back to simulation")
	}
	return s.engine.Analyze(ctx, sub)
}

// recordAnalysis stores a per-user history row. Cache hits go through here
// too: the fingerprint cache is shared across users, but every user who
// submits a file keeps their own queryable record under the shared id.
func (s *AnalysisService) recordAnalysis(ctx context.Context, userID int, videoID, fingerprint string, result *models.AnalysisResult) {
	if s.analysisRepo == nil || userID == 0 {
		return
	}
	record := &models.Analysis{
		ID:          result.AnalysisID,
		UserID:      userID,
		VideoID:     videoID,
		Fingerprint: fingerprint,
		Version:     result.AnalysisVersion,
		Result:      result,
	}
	if err := s.analysisRepo.Create(ctx, record); err != nil {
		log.Error().Err(err).Str("analysisId", result.AnalysisID).Msg("Failed to persist analysis record")
	}
}

func (s *AnalysisService) finishVideo(ctx context.Context, userID int, videoID string, result *models.AnalysisResult, steps []models.ProcessingStep) {
	if videoID != "" && s.videoRepo != nil {
		if err := s.videoRepo.MarkCompleted(ctx, videoID, result.AnalysisID); err != nil {
			log.Error().Err(err).Str("videoId", videoID).Msg("Failed to mark video completed")
		}
	}
	s.emitSteps(userID, videoID, steps)
	s.notifier.NotifyCompleted(userID, videoID, result.AnalysisID, steps)
}

func (s *AnalysisService) failVideo(ctx context.Context, userID int, videoID string, stageErr *analysis.StageError, steps []models.ProcessingStep) {
	if videoID != "" && s.videoRepo != nil {
		if err := s.videoRepo.MarkFailed(ctx, videoID, string(stageErr.Stage), stageErr.Message); err != nil {
			log.Error().Err(err).Str("videoId", videoID).Msg("Failed to mark video failed")
		}
	}
	s.emitSteps(userID, videoID, steps)
	s.notifier.NotifyFailed(userID, videoID, string(stageErr.Stage), stageErr.Message, steps)
}

// emitSteps replays the progress trace as individual step events so SSE
// clients can render the stage ticker before the terminal event lands.
func (s *AnalysisService) emitSteps(userID int, videoID string, steps []models.ProcessingStep) {
	for _, step := range steps {
		s.notifier.NotifyStep(userID, videoID, step)
	}
}

// GetAnalysis loads a stored analysis scoped to its owner.
func (s *AnalysisService) GetAnalysis(ctx context.Context, id string, userID int) (*models.Analysis, error) {
	return s.analysisRepo.GetByID(ctx, id, userID)
}

// ListAnalyses returns a user's analysis history.
func (s *AnalysisService) ListAnalyses(ctx context.Context, userID, limit, offset int) ([]models.Analysis, int, error) {
	analyses, err := s.analysisRepo.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.analysisRepo.CountByUser(ctx, userID)
	if err != nil {
		return nil, 0, err
	}
	return analyses, total, nil
}

// GetStats aggregates metric averages for the analytics page.
func (s *AnalysisService) GetStats(ctx context.Context, userID int) (*models.AnalysisStats, error) {
	return s.analysisRepo.StatsByUser(ctx, userID)
}
