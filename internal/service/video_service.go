package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gazemetrics/gazemetrics-api/internal/models"
	"github.com/gazemetrics/gazemetrics-api/internal/repository"
	"github.com/gazemetrics/gazemetrics-api/internal/utils"
)

// VideoService handles video uploads and lifecycle queries. Uploaded videos
// enter the queue as "queued" and are picked up by the analysis worker.
type VideoService struct {
	videoRepo *repository.VideoRepository
	s3Svc     *S3Service
}

// NewVideoService creates a new video service.
func NewVideoService(videoRepo *repository.VideoRepository, s3Svc *S3Service) *VideoService {
	return &VideoService{videoRepo: videoRepo, s3Svc: s3Svc}
}

// UploadInput carries the multipart upload fields.
type UploadInput struct {
	FileName    string
	ContentType string
	Data        []byte
	Duration    string
	Resolution  string
	Thumbnail   []byte
}

// Upload stores the blob, creates the queued video record, and returns it.
func (s *VideoService) Upload(ctx context.Context, userID int, in *UploadInput) (*models.Video, error) {
	if in.FileName == "" || len(in.Data) == 0 {
		return nil, fmt.Errorf("%w: file name and content are required", utils.ErrInvalidInput)
	}

	videoID := uuid.New().String()

	videoPath, err := s.s3Svc.UploadVideo(ctx, videoID, in.FileName, in.Data, in.ContentType)
	if err != nil {
		return nil, fmt.Errorf("failed to store video: %w", err)
	}

	thumbnailPath := ""
	if len(in.Thumbnail) > 0 {
		thumbnailPath, err = s.s3Svc.UploadThumbnail(ctx, videoID, in.Thumbnail)
		if err != nil {
			// The simulated detectors work without a frame.
			log.Warn().Err(err).Str("video_id", videoID).Msg("Thumbnail upload failed")
			thumbnailPath = ""
		}
	}

	video := &models.Video{
		ID:            videoID,
		UserID:        userID,
		FileName:      in.FileName,
		FileSize:      int64(len(in.Data)),
		Duration:      in.Duration,
		Resolution:    in.Resolution,
		VideoPath:     videoPath,
		ThumbnailPath: thumbnailPath,
		Status:        models.VideoStatusQueued,
	}

	if err := s.videoRepo.Create(ctx, video); err != nil {
		return nil, fmt.Errorf("failed to create video record: %w", err)
	}

	log.Info().
		Str("video_id", videoID).
		Int("user_id", userID).
		Str("file_name", in.FileName).
		Int64("file_size", video.FileSize).
		Msg("Video uploaded and queued")
	return video, nil
}

// GetVideo loads a video scoped to its owner.
func (s *VideoService) GetVideo(ctx context.Context, id string, userID int) (*models.Video, error) {
	video, err := s.videoRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, utils.ErrVideoNotFound
		}
		return nil, err
	}
	if video.UserID != userID {
		return nil, utils.ErrForbidden
	}
	return video, nil
}

// ListVideos returns a user's uploads with the total count for pagination.
func (s *VideoService) ListVideos(ctx context.Context, userID, limit, offset int) ([]models.Video, int, error) {
	videos, err := s.videoRepo.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.videoRepo.CountByUser(ctx, userID)
	if err != nil {
		return nil, 0, err
	}
	return videos, total, nil
}
