package analysis

import (
	"context"
	"fmt"
	"strings"

	"github.com/gazemetrics/gazemetrics-api/internal/models"
)

// Stage identifies one gate of the detection pipeline.
type Stage string

const (
	StageHuman   Stage = "humanDetection"
	StageFacial  Stage = "facialFeatures"
	StagePosture Stage = "bodyPosture"
	StageSpeech  Stage = "speechAnalysis"
)

// DetectionResult is the outcome of a single detection stage. Confidence is
// always in [0,1]. WordsPerMinute and FillerRate are populated by the speech
// stage only.
type DetectionResult struct {
	Detected       bool    `json:"detected"`
	Confidence     float64 `json:"confidence"`
	WordsPerMinute int     `json:"wordsPerMinute,omitempty"`
	FillerRate     float64 `json:"fillerRate,omitempty"`
}

// StageError reports a failed detection gate. It terminates the pipeline at
// the failing stage; the message embeds the stage confidence for
// observability.
type StageError struct {
	Stage      Stage
	Confidence float64
	Message    string
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %s", e.Stage, e.Message)
}

func newStageError(stage Stage, confidence float64, reason string) *StageError {
	return &StageError{
		Stage:      stage,
		Confidence: confidence,
		Message:    fmt.Sprintf("%s (confidence %.2f)", reason, confidence),
	}
}

// Detector produces per-stage detection results for a submission. The
// simulated implementation inspects the filename; real backends run model
// inference behind the same contract.
type Detector interface {
	DetectHuman(ctx context.Context, sub *models.VideoSubmission) (DetectionResult, error)
	DetectFacialFeatures(ctx context.Context, sub *models.VideoSubmission) (DetectionResult, error)
	DetectPosture(ctx context.Context, sub *models.VideoSubmission) (DetectionResult, error)
	DetectSpeech(ctx context.Context, sub *models.VideoSubmission) (DetectionResult, error)
}

// keywordPenalty dampens a stage confidence when the keyword appears as a
// substring of the lowercased filename. Multiple hits compound
// multiplicatively.
type keywordPenalty struct {
	keyword string
	factor  float64
}

// stageRule is the per-stage configuration of the simulated detector.
type stageRule struct {
	base      float64
	threshold float64
	// override forces detected=false with a fixed confidence, bypassing
	// the multiplicative computation. Used for negative-path testing.
	override     string
	overrideConf float64
	penalties    []keywordPenalty
}

var (
	humanRule = stageRule{
		base:         0.96,
		threshold:    0.85,
		override:     "test-no-human",
		overrideConf: 0.2,
		penalties: []keywordPenalty{
			{"landscape", 0.30},
			{"nature", 0.35},
			{"screen-recording", 0.25},
			{"screenshot", 0.25},
			{"diagram", 0.40},
		},
	}
	facialRule = stageRule{
		base:         0.92,
		threshold:    0.80,
		override:     "test-no-face",
		overrideConf: 0.2,
		penalties: []keywordPenalty{
			{"dark", 0.70},
			{"backlighting", 0.75},
			{"distant", 0.72},
			{"blur", 0.68},
			{"masked", 0.55},
		},
	}
	postureRule = stageRule{
		base:         0.90,
		threshold:    0.75,
		override:     "test-no-posture",
		overrideConf: 0.2,
		penalties: []keywordPenalty{
			{"cropped", 0.65},
			{"closeup", 0.60},
			{"partial", 0.70},
			{"hidden", 0.55},
		},
	}
	speechRule = stageRule{
		base:         0.88,
		threshold:    0.40,
		override:     "test-no-speech",
		overrideConf: 0.1,
		penalties: []keywordPenalty{
			{"mute", 0.20},
			{"silent", 0.20},
			{"no-audio", 0.15},
			{"no-sound", 0.15},
		},
	}
)

// apply evaluates the rule against a filename.
func (r *stageRule) apply(fileName string) DetectionResult {
	name := strings.ToLower(fileName)

	if r.override != "" && strings.Contains(name, r.override) {
		return DetectionResult{Detected: false, Confidence: r.overrideConf}
	}

	confidence := r.base
	for _, p := range r.penalties {
		if strings.Contains(name, p.keyword) {
			confidence *= p.factor
		}
	}

	return DetectionResult{
		Detected:   confidence >= r.threshold,
		Confidence: confidence,
	}
}

// SimulatedDetector stands in for computer-vision and audio inference using
// filename keyword matching. Its output is a pure function of the
// submission's fileName and fileSize.
type SimulatedDetector struct{}

// NewSimulatedDetector returns the default deterministic detector.
func NewSimulatedDetector() *SimulatedDetector {
	return &SimulatedDetector{}
}

func (d *SimulatedDetector) DetectHuman(_ context.Context, sub *models.VideoSubmission) (DetectionResult, error) {
	return humanRule.apply(sub.FileName), nil
}

func (d *SimulatedDetector) DetectFacialFeatures(_ context.Context, sub *models.VideoSubmission) (DetectionResult, error) {
	return facialRule.apply(sub.FileName), nil
}

func (d *SimulatedDetector) DetectPosture(_ context.Context, sub *models.VideoSubmission) (DetectionResult, error) {
	return postureRule.apply(sub.FileName), nil
}

// DetectSpeech never gates the pipeline; speech absence only zeroes the
// speech-derived metrics. When speech is detected, the stage also carries
// seeded words-per-minute and filler-word measurements.
func (d *SimulatedDetector) DetectSpeech(_ context.Context, sub *models.VideoSubmission) (DetectionResult, error) {
	res := speechRule.apply(sub.FileName)
	// The speech gate uses a simple cutoff, not the >= threshold form.
	res.Detected = res.Confidence > speechRule.threshold
	if res.Detected {
		p := newProjection(sub.FileName, sub.FileSize)
		res.WordsPerMinute = 115 + p.intn(seedWPM, 5, 45)
		res.FillerRate = float64(2 + p.intn(seedFiller, 0, 6))
	}
	return res, nil
}
