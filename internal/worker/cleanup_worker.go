package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/gazemetrics/gazemetrics-api/internal/repository"
)

// CleanupWorker fails videos stuck in processing, usually after a crash
// mid-analysis, so the queue never wedges.
type CleanupWorker struct {
	videoRepo *repository.VideoRepository
	interval  time.Duration
	maxAge    time.Duration
}

// NewCleanupWorker constructs a CleanupWorker.
func NewCleanupWorker(videoRepo *repository.VideoRepository, interval, maxAge time.Duration) *CleanupWorker {
	return &CleanupWorker{
		videoRepo: videoRepo,
		interval:  interval,
		maxAge:    maxAge,
	}
}

// Start begins the cleanup loop and listens for context cancellation.
func (w *CleanupWorker) Start(ctx context.Context) {
	log.Info().Dur("interval", w.interval).Dur("max_age", w.maxAge).Msg("Starting cleanup worker")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.run(ctx)
		case <-ctx.Done():
			log.Info().Msg("Cleanup worker stopped")
			return
		}
	}
}

func (w *CleanupWorker) run(ctx context.Context) {
	expired, err := w.videoRepo.ExpireStuckProcessing(ctx, int(w.maxAge.Seconds()))
	if err != nil {
		log.Error().Err(err).Msg("Failed to expire stuck videos")
		return
	}
	if expired > 0 {
		log.Warn().Int64("count", expired).Msg("Expired stuck processing videos")
	}
}
