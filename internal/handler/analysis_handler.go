package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/gazemetrics/gazemetrics-api/internal/analysis"
	"github.com/gazemetrics/gazemetrics-api/internal/models"
	"github.com/gazemetrics/gazemetrics-api/internal/service"
	"github.com/gazemetrics/gazemetrics-api/internal/utils"
)

// AnalysisHandler handles analysis endpoints.
type AnalysisHandler struct {
	analysisService *service.AnalysisService
	videoService    *service.VideoService
}

// NewAnalysisHandler creates a new analysis handler.
func NewAnalysisHandler(analysisService *service.AnalysisService, videoService *service.VideoService) *AnalysisHandler {
	return &AnalysisHandler{analysisService: analysisService, videoService: videoService}
}

// StageFailureResponse is returned with 422 when a detection gate rejects
// the video. It carries the partial progress trace so the client can show
// where the pipeline stopped.
type StageFailureResponse struct {
	Success         bool                    `json:"success"`
	Code            int                     `json:"code"`
	Message         string                  `json:"message"`
	Error           StageFailureDetail      `json:"error"`
	ProcessingSteps []models.ProcessingStep `json:"processingSteps"`
	Meta            struct {
		RequestID string `json:"requestId"`
		Timestamp string `json:"timestamp"`
	} `json:"meta"`
}

// StageFailureDetail identifies the failing gate.
type StageFailureDetail struct {
	Code       string  `json:"code"`
	Message    string  `json:"message"`
	Stage      string  `json:"stage"`
	Confidence float64 `json:"confidence"`
}

// Analyze handles POST /v1/analyses with a JSON submission body. Used for
// direct analysis without a prior upload.
func (h *AnalysisHandler) Analyze(c *gin.Context) {
	userID := c.GetInt("user_id")

	var sub models.VideoSubmission
	if err := c.ShouldBindJSON(&sub); err != nil {
		utils.Error(c, 400, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if sub.RequestID == "" {
		sub.RequestID = c.GetString("request_id")
	}

	h.runAnalysis(c, userID, "", &sub)
}

// AnalyzeVideo handles POST /v1/videos/:id/analyze, running the pipeline
// synchronously against an uploaded video.
func (h *AnalysisHandler) AnalyzeVideo(c *gin.Context) {
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

	h.runAnalysis(c, userID, video.ID, video.Submission())
}

func (h *AnalysisHandler) runAnalysis(c *gin.Context, userID int, videoID string, sub *models.VideoSubmission) {
	resp, err := h.analysisService.Analyze(c.Request.Context(), userID, videoID, sub)
	if err != nil {
		var stageErr *analysis.StageError
		if errors.As(err, &stageErr) {
			h.stageFailure(c, stageErr)
			return
		}
		if errors.Is(err, utils.ErrInvalidInput) {
			utils.Error(c, 400, "VALIDATION_ERROR", err.Error())
			return
		}
		log.Error().Err(err).Str("file_name", sub.FileName).Msg("Analysis failed")
		utils.Error(c, 500, "INTERNAL_ERROR", "Analysis failed")
		return
	}

	utils.Success(c, 200, "Analysis completed", resp)
}

func (h *AnalysisHandler) stageFailure(c *gin.Context, stageErr *analysis.StageError) {
	resp := StageFailureResponse{
		Success: false,
		Code:    http.StatusUnprocessableEntity,
		Message: "Video failed analysis requirements",
		Error: StageFailureDetail{
			Code:       "STAGE_FAILED",
			Message:    stageErr.Message,
			Stage:      string(stageErr.Stage),
			Confidence: stageErr.Confidence,
		},
		ProcessingSteps: service.StageFailureSteps(stageErr),
	}
	resp.Meta.RequestID = c.GetString("request_id")
	resp.Meta.Timestamp = time.Now().Format(time.RFC3339)
	c.JSON(http.StatusUnprocessableEntity, resp)
}

// Get handles GET /v1/analyses/:id
func (h *AnalysisHandler) Get(c *gin.Context) {
	userID := c.GetInt("user_id")

	record, err := h.analysisService.GetAnalysis(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || errors.Is(err, utils.ErrAnalysisNotFound) {
			utils.Error(c, 404, "NOT_FOUND", "Analysis not found")
			return
		}
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to load analysis")
		return
	}

	utils.Success(c, 200, "OK", gin.H{"analysis": record})
}

// List handles GET /v1/analyses?page=&limit=
func (h *AnalysisHandler) List(c *gin.Context) {
	userID := c.GetInt("user_id")
	page, limit := parsePagination(c)

	analyses, total, err := h.analysisService.ListAnalyses(c.Request.Context(), userID, limit, (page-1)*limit)
	if err != nil {
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to list analyses")
		return
	}

	utils.SuccessWithPagination(c, 200, "OK", gin.H{"analyses": analyses}, page, limit, total)
}

// Stats handles GET /v1/analyses/stats
func (h *AnalysisHandler) Stats(c *gin.Context) {
	userID := c.GetInt("user_id")

	stats, err := h.analysisService.GetStats(c.Request.Context(), userID)
	if err != nil {
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to compute stats")
		return
	}

	utils.Success(c, 200, "OK", gin.H{"stats": stats})
}
