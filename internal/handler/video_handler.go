package handler

import (
	"errors"
	"io"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/gazemetrics/gazemetrics-api/internal/service"
	"github.com/gazemetrics/gazemetrics-api/internal/utils"
)

// 200 MB upload cap, matching the client-side limit.
const maxUploadBytes = 200 << 20

// VideoHandler handles video upload and lifecycle endpoints.
type VideoHandler struct {
	videoService *service.VideoService
}

// NewVideoHandler creates a new video handler.
func NewVideoHandler(videoService *service.VideoService) *VideoHandler {
	return &VideoHandler{videoService: videoService}
}

// Upload handles POST /v1/videos (multipart/form-data).
// Fields: video (file, required), thumbnail (file, optional),
// duration and resolution (text, optional).
func (h *VideoHandler) Upload(c *gin.Context) {
	userID := c.GetInt("user_id")

	file, header, err := c.Request.FormFile("video")
	if err != nil {
		utils.Error(c, 400, "VALIDATION_ERROR", "Missing video file")
		return
	}
	defer file.Close()

	if header.Size > maxUploadBytes {
		utils.Error(c, 413, "FILE_TOO_LARGE", "Video exceeds the 200MB upload limit")
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
	if err != nil {
		utils.Error(c, 400, "VALIDATION_ERROR", "Failed to read video file")
		return
	}
	if len(data) > maxUploadBytes {
		utils.Error(c, 413, "FILE_TOO_LARGE", "Video exceeds the 200MB upload limit")
		return
	}

	in := &service.UploadInput{
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
		Duration:    c.PostForm("duration"),
		Resolution:  c.PostForm("resolution"),
	}

	if thumb, _, err := c.Request.FormFile("thumbnail"); err == nil {
		defer thumb.Close()
		if thumbData, err := io.ReadAll(io.LimitReader(thumb, 5<<20)); err == nil {
			in.Thumbnail = thumbData
		}
	}

	video, err := h.videoService.Upload(c.Request.Context(), userID, in)
	if err != nil {
		if errors.Is(err, utils.ErrInvalidInput) {
			utils.Error(c, 400, "VALIDATION_ERROR", err.Error())
			return
		}
		log.Error().Err(err).Msg("Video upload failed")
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to upload video")
		return
	}

	utils.Success(c, 201, "Video uploaded and queued for analysis", gin.H{
		"video": video,
	})
}

// Get handles GET /v1/videos/:id
func (h *VideoHandler) Get(c *gin.Context) {
	userID := c.GetInt("user_id")

	video, err := h.videoService.GetVideo(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		if errors.Is(err, utils.ErrVideoNotFound) {
			utils.Error(c, 404, "NOT_FOUND", "Video not found")
			return
		}
		if errors.Is(err, utils.ErrForbidden) {
			utils.Error(c, 403, "FORBIDDEN", "Video belongs to another account")
			return
		}
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to load video")
		return
	}

	utils.Success(c, 200, "OK", gin.H{"video": video})
}

// List handles GET /v1/videos?page=&limit=
func (h *VideoHandler) List(c *gin.Context) {
	userID := c.GetInt("user_id")
	page, limit := parsePagination(c)

	videos, total, err := h.videoService.ListVideos(c.Request.Context(), userID, limit, (page-1)*limit)
	if err != nil {
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to list videos")
		return
	}

	utils.SuccessWithPagination(c, 200, "OK", gin.H{"videos": videos}, page, limit, total)
}

// parsePagination reads page/limit query params with sane bounds.
func parsePagination(c *gin.Context) (page, limit int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}
