package models

import "time"

// VideoStatus tracks a video through the upload-and-analyze lifecycle.
type VideoStatus string

const (
	VideoStatusQueued     VideoStatus = "queued"
	VideoStatusProcessing VideoStatus = "processing"
	VideoStatusCompleted  VideoStatus = "completed"
	VideoStatusFailed     VideoStatus = "failed"
)

// Video represents an uploaded presentation video record.
type Video struct {
	ID            string      `json:"id" db:"id"`
	UserID        int         `json:"userId" db:"user_id"`
	FileName      string      `json:"fileName" db:"file_name"`
	FileSize      int64       `json:"fileSize" db:"file_size"`
	Duration      string      `json:"duration,omitempty" db:"duration"`
	Resolution    string      `json:"resolution,omitempty" db:"resolution"`
	VideoPath     string      `json:"videoPath" db:"video_path"`
	ThumbnailPath string      `json:"thumbnailPath,omitempty" db:"thumbnail_path"`
	Status        VideoStatus `json:"status" db:"status"`
	FailedStage   string      `json:"failedStage,omitempty" db:"failed_stage"`
	FailedReason  string      `json:"failedReason,omitempty" db:"failed_reason"`
	AnalysisID    string      `json:"analysisId,omitempty" db:"analysis_id"`
	CreatedAt     time.Time   `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time   `json:"updatedAt" db:"updated_at"`
}

// Submission builds the analysis input from the stored record.
func (v *Video) Submission() *VideoSubmission {
	return &VideoSubmission{
		FileName:   v.FileName,
		FileSize:   v.FileSize,
		Duration:   v.Duration,
		Resolution: v.Resolution,
		VideoPath:  v.VideoPath,
		RequestID:  v.ID,
	}
}
