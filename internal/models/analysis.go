package models

import "time"

// VideoSubmission is the immutable input to the analysis pipeline.
type VideoSubmission struct {
	FileName   string `json:"fileName" binding:"required"`
	FileSize   int64  `json:"fileSize"`
	Duration   string `json:"duration,omitempty"`
	Resolution string `json:"resolution,omitempty"`
	VideoPath  string `json:"videoPath" binding:"required"`
	// RequestID is a caller-supplied correlation id, echoed in logs and
	// progress events. It does not influence the analysis output.
	RequestID string `json:"requestId,omitempty"`
}

// Metrics holds the six scored presentation metrics. All values are
// integer-rounded except Confidence, which keeps one decimal place.
type Metrics struct {
	Overall      int     `json:"overall"`
	EyeContact   int     `json:"eyeContact"`
	Confidence   float64 `json:"confidence"`
	BodyLanguage int     `json:"bodyLanguage"`
	Speaking     int     `json:"speaking"`
	Engagement   int     `json:"engagement"`
}

// DetectionConfidence carries the four stage confidences, rounded to two
// decimals.
type DetectionConfidence struct {
	Human   float64 `json:"humanDetection"`
	Facial  float64 `json:"facialFeatures"`
	Posture float64 `json:"bodyPosture"`
	Speech  float64 `json:"speechAnalysis"`
}

// FeedbackEntry is a single coaching note.
type FeedbackEntry struct {
	Type string `json:"type"` // "positive" or "improvement"
	Text string `json:"text"`
}

// TimelineInsight is a moment-in-time observation, ordered by timepoint.
type TimelineInsight struct {
	Timepoint string `json:"timepoint"` // "M:SS"
	Insight   string `json:"insight"`
}

// SpeechMetrics holds speech-derived measurements. All zero when no speech
// was detected.
type SpeechMetrics struct {
	WordsPerMinute int    `json:"wordsPerMinute"`
	FillerWordRate string `json:"fillerWordRate"` // percentage, e.g. "4%"
	Duration       string `json:"duration"`       // "M:SS"
}

// AnalysisResult is the complete output of a successful pipeline run. It is
// never mutated after construction and is cached by video fingerprint.
type AnalysisResult struct {
	AnalysisID          string              `json:"analysisId"`
	AnalysisVersion     string              `json:"analysisVersion"`
	Metrics             Metrics             `json:"metrics"`
	DetectionConfidence DetectionConfidence `json:"detectionConfidence"`
	Feedback            []FeedbackEntry     `json:"feedback"`
	TimelineInsights    []TimelineInsight   `json:"timelineInsights"`
	SpeechMetrics       SpeechMetrics       `json:"speechMetrics"`
	TranscriptID        string              `json:"transcriptId"`
}

// ProcessingStep is one entry of the client-facing progress trace, a
// projection of the pipeline's stage outcomes.
type ProcessingStep struct {
	Step    string `json:"step"`
	Status  string `json:"status"` // success | failed | pending | processing
	Message string `json:"message"`
}

// AnalyzeResponse is the success envelope returned by the analyze endpoint.
type AnalyzeResponse struct {
	Success         bool             `json:"success"`
	Analysis        *AnalysisResult  `json:"analysis"`
	ProcessingSteps []ProcessingStep `json:"processingSteps"`
}

// Analysis is the persisted record of a completed analysis.
type Analysis struct {
	ID          string          `json:"id" db:"id"`
	UserID      int             `json:"userId" db:"user_id"`
	VideoID     string          `json:"videoId" db:"video_id"`
	Fingerprint string          `json:"fingerprint" db:"fingerprint"`
	Version     string          `json:"version" db:"version"`
	Result      *AnalysisResult `json:"result" db:"-"`
	CreatedAt   time.Time       `json:"createdAt" db:"created_at"`
}

// AnalysisStats aggregates a user's analysis history for the analytics page.
type AnalysisStats struct {
	TotalAnalyses   int     `json:"totalAnalyses"`
	AvgOverall      float64 `json:"avgOverall"`
	AvgEyeContact   float64 `json:"avgEyeContact"`
	AvgConfidence   float64 `json:"avgConfidence"`
	AvgBodyLanguage float64 `json:"avgBodyLanguage"`
	AvgSpeaking     float64 `json:"avgSpeaking"`
	AvgEngagement   float64 `json:"avgEngagement"`
}
