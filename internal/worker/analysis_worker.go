package worker

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/gazemetrics/gazemetrics-api/internal/analysis"
	"github.com/gazemetrics/gazemetrics-api/internal/models"
	"github.com/gazemetrics/gazemetrics-api/internal/repository"
	"github.com/gazemetrics/gazemetrics-api/internal/service"
)

const queueBatchSize = 5

// AnalysisWorker drains the queued-video backlog on a fixed interval.
// Uploads analyze asynchronously; clients follow progress over SSE.
type AnalysisWorker struct {
	videoRepo   *repository.VideoRepository
	analysisSvc *service.AnalysisService
	interval    time.Duration
}

// NewAnalysisWorker constructs an AnalysisWorker.
func NewAnalysisWorker(videoRepo *repository.VideoRepository, analysisSvc *service.AnalysisService, interval time.Duration) *AnalysisWorker {
	return &AnalysisWorker{
		videoRepo:   videoRepo,
		analysisSvc: analysisSvc,
		interval:    interval,
	}
}

// Start begins the analysis loop and listens for context cancellation.
func (w *AnalysisWorker) Start(ctx context.Context) {
	log.Info().Dur("interval", w.interval).Msg("Starting analysis worker")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.run(ctx)
		case <-ctx.Done():
			log.Info().Msg("Analysis worker stopped")
			return
		}
	}
}

func (w *AnalysisWorker) run(ctx context.Context) {
	videos, err := w.videoRepo.GetQueued(ctx, queueBatchSize)
	if err != nil {
		log.Error().Err(err).Msg("Failed to fetch queued videos")
		return
	}

	for i := range videos {
		video := &videos[i]
		if err := w.processVideo(ctx, video); err != nil {
			log.Error().Err(err).Str("video_id", video.ID).Msg("Video analysis failed")
		}
	}
}

func (w *AnalysisWorker) processVideo(ctx context.Context, video *models.Video) error {
	if err := w.videoRepo.UpdateStatus(ctx, video.ID, models.VideoStatusProcessing); err != nil {
		return err
	}

	_, err := w.analysisSvc.Analyze(ctx, video.UserID, video.ID, video.Submission())
	if err != nil {
		// A stage rejection is a terminal outcome, already recorded on
		// the video by the service. Anything else is a pipeline error.
		var stageErr *analysis.StageError
		if errors.As(err, &stageErr) {
			return nil
		}
		if markErr := w.videoRepo.MarkFailed(ctx, video.ID, "", err.Error()); markErr != nil {
			log.Error().Err(markErr).Str("video_id", video.ID).Msg("Failed to mark video failed")
		}
		return err
	}
	return nil
}
