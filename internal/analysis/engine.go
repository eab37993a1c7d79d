// Package analysis implements the deterministic presentation-analysis
// pipeline: fingerprinting, the gated detection stages, the seeded scorer,
// and the feedback/timeline synthesizers. The whole pipeline is a pure
// function of (fileName, fileSize, version); no media is decoded.
package analysis

import (
	"context"
	"errors"
	"fmt"

	"github.com/gazemetrics/gazemetrics-api/internal/models"
)

// ErrInvalidSubmission rejects malformed input before the pipeline starts.
var ErrInvalidSubmission = errors.New("invalid video submission")

// ValidateSubmission enforces the input constraints of the analyze
// operation: non-empty fileName and videoPath, non-negative fileSize.
func ValidateSubmission(sub *models.VideoSubmission) error {
	if sub == nil {
		return ErrInvalidSubmission
	}
	if sub.FileName == "" || sub.VideoPath == "" {
		return fmt.Errorf("%w: fileName and videoPath are required", ErrInvalidSubmission)
	}
	if sub.FileSize < 0 {
		return fmt.Errorf("%w: fileSize must be non-negative", ErrInvalidSubmission)
	}
	return nil
}

// Engine runs the gated analysis pipeline:
//
//	Init -> HumanCheck -> FacialCheck -> PostureCheck -> SpeechCheck -> Scoring -> Done
//
// Any of the first three checks can terminate with a StageError. Speech
// absence never fails the pipeline; it only zeroes speech-derived metrics.
type Engine struct {
	version  string
	detector Detector
}

// NewEngine constructs an Engine. A nil detector falls back to the
// deterministic simulated detector.
func NewEngine(version string, detector Detector) *Engine {
	if version == "" {
		version = DefaultVersion
	}
	if detector == nil {
		detector = NewSimulatedDetector()
	}
	return &Engine{version: version, detector: detector}
}

// Version returns the engine's algorithm version.
func (e *Engine) Version() string {
	return e.version
}

// Fingerprint derives the cache key for a submission under this engine's
// version.
func (e *Engine) Fingerprint(sub *models.VideoSubmission) string {
	return Fingerprint(sub, e.version)
}

// Analyze runs the full pipeline and assembles the result envelope. It
// returns a *StageError when one of the visual gates rejects the input.
// The output is reproducible bit-for-bit for a fixed (fileName, fileSize,
// version) triple.
func (e *Engine) Analyze(ctx context.Context, sub *models.VideoSubmission) (*models.AnalysisResult, error) {
	human, err := e.detector.DetectHuman(ctx, sub)
	if err != nil {
		return nil, fmt.Errorf("human detection: %w", err)
	}
	if !human.Detected {
		return nil, newStageError(StageHuman, human.Confidence, "no human presence detected in video")
	}

	facial, err := e.detector.DetectFacialFeatures(ctx, sub)
	if err != nil {
		return nil, fmt.Errorf("facial feature detection: %w", err)
	}
	if !facial.Detected {
		return nil, newStageError(StageFacial, facial.Confidence, "insufficient facial visibility for analysis")
	}

	posture, err := e.detector.DetectPosture(ctx, sub)
	if err != nil {
		return nil, fmt.Errorf("posture detection: %w", err)
	}
	if !posture.Detected {
		return nil, newStageError(StagePosture, posture.Confidence, "insufficient body visibility for posture analysis")
	}

	// Speech is informational: the pipeline proceeds to scoring either way.
	speech, err := e.detector.DetectSpeech(ctx, sub)
	if err != nil {
		return nil, fmt.Errorf("speech detection: %w", err)
	}

	id := AnalysisID(sub, e.version)
	metrics := scoreMetrics(sub, human, facial, posture)

	return &models.AnalysisResult{
		AnalysisID:      id,
		AnalysisVersion: e.version,
		Metrics:         metrics,
		DetectionConfidence: models.DetectionConfidence{
			Human:   round2(human.Confidence),
			Facial:  round2(facial.Confidence),
			Posture: round2(posture.Confidence),
			Speech:  round2(speech.Confidence),
		},
		Feedback:         synthesizeFeedback(metrics, facial, posture, id, sub.FileName),
		TimelineInsights: synthesizeTimeline(sub, id),
		SpeechMetrics:    synthesizeSpeechMetrics(sub, speech),
		TranscriptID:     prefix(id, 8),
	}, nil
}
