package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/gazemetrics/gazemetrics-api/internal/models"
)

// VideoRepository handles video record database operations.
type VideoRepository struct {
	db *sqlx.DB
}

// NewVideoRepository creates a new video repository.
func NewVideoRepository(db *sqlx.DB) *VideoRepository {
	return &VideoRepository{db: db}
}

// Create inserts a new video record.
func (r *VideoRepository) Create(ctx context.Context, video *models.Video) error {
	query := `
		INSERT INTO videos (
			id, user_id, file_name, file_size, duration, resolution,
			video_path, thumbnail_path, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())`

	_, err := r.db.ExecContext(ctx, query,
		video.ID,
		video.UserID,
		video.FileName,
		video.FileSize,
		video.Duration,
		video.Resolution,
		video.VideoPath,
		video.ThumbnailPath,
		video.Status,
	)
	return err
}

// GetByID retrieves a video by id.
func (r *VideoRepository) GetByID(ctx context.Context, id string) (*models.Video, error) {
	var video models.Video
	query := `
		SELECT id, user_id, file_name, file_size,
		       COALESCE(duration, '') AS duration,
		       COALESCE(resolution, '') AS resolution,
		       video_path,
		       COALESCE(thumbnail_path, '') AS thumbnail_path,
		       status,
		       COALESCE(failed_stage, '') AS failed_stage,
		       COALESCE(failed_reason, '') AS failed_reason,
		       COALESCE(analysis_id, '') AS analysis_id,
		       created_at, updated_at
		FROM videos
		WHERE id = $1`

	if err := r.db.GetContext(ctx, &video, query, id); err != nil {
		return nil, err
	}
	return &video, nil
}

// ListByUser returns a user's videos, newest first.
func (r *VideoRepository) ListByUser(ctx context.Context, userID, limit, offset int) ([]models.Video, error) {
	videos := []models.Video{}
	query := `
		SELECT id, user_id, file_name, file_size,
		       COALESCE(duration, '') AS duration,
		       COALESCE(resolution, '') AS resolution,
		       video_path,
		       COALESCE(thumbnail_path, '') AS thumbnail_path,
		       status,
		       COALESCE(failed_stage, '') AS failed_stage,
		       COALESCE(failed_reason, '') AS failed_reason,
		       COALESCE(analysis_id, '') AS analysis_id,
		       created_at, updated_at
		FROM videos
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	if err := r.db.SelectContext(ctx, &videos, query, userID, limit, offset); err != nil {
		return nil, err
	}
	return videos, nil
}

// CountByUser returns the number of videos a user has uploaded.
func (r *VideoRepository) CountByUser(ctx context.Context, userID int) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM videos WHERE user_id = $1`, userID)
	return count, err
}

// GetQueued returns videos waiting for analysis, oldest first.
func (r *VideoRepository) GetQueued(ctx context.Context, limit int) ([]models.Video, error) {
	videos := []models.Video{}
	query := `
		SELECT id, user_id, file_name, file_size,
		       COALESCE(duration, '') AS duration,
		       COALESCE(resolution, '') AS resolution,
		       video_path,
		       COALESCE(thumbnail_path, '') AS thumbnail_path,
		       status,
		       COALESCE(failed_stage, '') AS failed_stage,
		       COALESCE(failed_reason, '') AS failed_reason,
		       COALESCE(analysis_id, '') AS analysis_id,
		       created_at, updated_at
		FROM videos
		WHERE status = 'queued'
		ORDER BY created_at ASC
		LIMIT $1`

	if err := r.db.SelectContext(ctx, &videos, query, limit); err != nil {
		return nil, err
	}
	return videos, nil
}

// UpdateStatus transitions a video's lifecycle status.
func (r *VideoRepository) UpdateStatus(ctx context.Context, id string, status models.VideoStatus) error {
	query := `UPDATE videos SET status = $1, updated_at = NOW() WHERE id = $2`
	_, err := r.db.ExecContext(ctx, query, status, id)
	return err
}

// MarkCompleted records a successful analysis against the video.
func (r *VideoRepository) MarkCompleted(ctx context.Context, id, analysisID string) error {
	query := `
		UPDATE videos SET
			status = 'completed',
			analysis_id = $1,
			failed_stage = NULL,
			failed_reason = NULL,
			updated_at = NOW()
		WHERE id = $2`
	_, err := r.db.ExecContext(ctx, query, analysisID, id)
	return err
}

// MarkFailed records a failed analysis with the failing stage and reason.
func (r *VideoRepository) MarkFailed(ctx context.Context, id, stage, reason string) error {
	query := `
		UPDATE videos SET
			status = 'failed',
			failed_stage = $1,
			failed_reason = $2,
			updated_at = NOW()
		WHERE id = $3`
	_, err := r.db.ExecContext(ctx, query, nullString(stage), nullString(reason), id)
	return err
}

// ExpireStuckProcessing fails videos stuck in processing longer than maxAge.
func (r *VideoRepository) ExpireStuckProcessing(ctx context.Context, maxAgeSeconds int) (int64, error) {
	query := `
		UPDATE videos SET
			status = 'failed',
			failed_reason = 'analysis timed out',
			updated_at = NOW()
		WHERE status = 'processing'
		  AND updated_at < NOW() - ($1 || ' seconds')::interval`

	result, err := r.db.ExecContext(ctx, query, maxAgeSeconds)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// nullString maps empty strings to NULL for nullable columns.
func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
