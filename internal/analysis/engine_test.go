package analysis

import (
	"context"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gazemetrics/gazemetrics-api/internal/models"
)

func newTestEngine() *Engine {
	return NewEngine(DefaultVersion, nil)
}

func TestValidateSubmission(t *testing.T) {
	assert.Error(t, ValidateSubmission(nil))
	assert.Error(t, ValidateSubmission(&models.VideoSubmission{FileName: "", VideoPath: "p"}))
	assert.Error(t, ValidateSubmission(&models.VideoSubmission{FileName: "f.mp4", VideoPath: ""}))
	assert.Error(t, ValidateSubmission(&models.VideoSubmission{FileName: "f.mp4", VideoPath: "p", FileSize: -1}))
	assert.NoError(t, ValidateSubmission(&models.VideoSubmission{FileName: "f.mp4", VideoPath: "p"}))
}

func TestAnalyzeDeterministic(t *testing.T) {
	e := newTestEngine()
	sub := submission("quarterly-review.mp4", 52428800)

	first, err := e.Analyze(context.Background(), sub)
	require.NoError(t, err)

	for i := 0; i < 100; i++ {
		again, err := e.Analyze(context.Background(), sub)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestAnalyzeResultShape(t *testing.T) {
	e := newTestEngine()

	res, err := e.Analyze(context.Background(), submission("demo-pitch.mp4", 10485760))
	require.NoError(t, err)

	assert.NotEmpty(t, res.AnalysisID)
	assert.Equal(t, DefaultVersion, res.AnalysisVersion)
	assert.Len(t, res.TimelineInsights, 4)
	assert.Equal(t, "0:15", res.TimelineInsights[0].Timepoint)
	assert.Equal(t, res.AnalysisID[:8], res.TranscriptID)

	// Both feedback kinds are always present.
	var positives, improvements int
	for _, f := range res.Feedback {
		switch f.Type {
		case "positive":
			positives++
		case "improvement":
			improvements++
		default:
			t.Fatalf("unexpected feedback type %q", f.Type)
		}
	}
	assert.GreaterOrEqual(t, positives, 1)
	assert.GreaterOrEqual(t, improvements, 1)
}

func TestAnalyzeGateOrdering(t *testing.T) {
	e := newTestEngine()

	// All three overrides present: the human gate fires first.
	_, err := e.Analyze(context.Background(), submission("test-no-human-test-no-face-test-no-posture.mp4", 1000))
	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, StageHuman, stageErr.Stage)
	assert.InDelta(t, 0.2, stageErr.Confidence, 1e-9)

	// Face and posture overrides: the facial gate fires before posture.
	_, err = e.Analyze(context.Background(), submission("test-no-face-test-no-posture.mp4", 1000))
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, StageFacial, stageErr.Stage)

	_, err = e.Analyze(context.Background(), submission("test-no-posture.mp4", 1000))
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, StagePosture, stageErr.Stage)
}

func TestAnalyzeStageErrorMessageCarriesConfidence(t *testing.T) {
	e := newTestEngine()

	_, err := e.Analyze(context.Background(), submission("dark-backlighting-talk.mp4", 1000))
	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)

	assert.Equal(t, StageFacial, stageErr.Stage)
	assert.InDelta(t, 0.92*0.70*0.75, stageErr.Confidence, 1e-9)
	assert.Contains(t, stageErr.Message, "confidence 0.48")
}

func TestAnalyzeSpeechAbsenceDoesNotFail(t *testing.T) {
	e := newTestEngine()

	res, err := e.Analyze(context.Background(), submission("silent-demo.mp4", 2048))
	require.NoError(t, err)

	assert.Equal(t, 0, res.SpeechMetrics.WordsPerMinute)
	assert.Equal(t, "0%", res.SpeechMetrics.FillerWordRate)
	assert.Equal(t, "0:00", res.SpeechMetrics.Duration)
	assert.Greater(t, res.Metrics.Overall, 0)
}

func TestAnalyzeDetectionConfidencesRounded(t *testing.T) {
	e := newTestEngine()

	res, err := e.Analyze(context.Background(), submission("demo.mp4", 12345))
	require.NoError(t, err)

	for _, c := range []float64{
		res.DetectionConfidence.Human,
		res.DetectionConfidence.Facial,
		res.DetectionConfidence.Posture,
		res.DetectionConfidence.Speech,
	} {
		assert.InDelta(t, c, round2(c), 1e-9)
		assert.GreaterOrEqual(t, c, 0.0)
		assert.LessOrEqual(t, c, 1.0)
	}
}

func TestAnalyzeVersionChangesIdentifiers(t *testing.T) {
	sub := submission("demo.mp4", 12345)

	v1 := NewEngine("1.1.0", nil)
	v2 := NewEngine("1.2.0", nil)

	r1, err := v1.Analyze(context.Background(), sub)
	require.NoError(t, err)
	r2, err := v2.Analyze(context.Background(), sub)
	require.NoError(t, err)

	assert.NotEqual(t, r1.AnalysisID, r2.AnalysisID)
	assert.NotEqual(t, v1.Fingerprint(sub), v2.Fingerprint(sub))
}

func TestTimelineTimepointsNonDecreasing(t *testing.T) {
	e := newTestEngine()

	for _, name := range []string{"a.mp4", "presentation-final.mp4", "weekly-standup-recording.mp4"} {
		res, err := e.Analyze(context.Background(), submission(name, 7777))
		require.NoError(t, err)

		prev := -1
		for _, insight := range res.TimelineInsights {
			secs := timepointSeconds(t, insight.Timepoint)
			assert.GreaterOrEqual(t, secs, prev, name)
			prev = secs
		}
	}
}

func timepointSeconds(t *testing.T, timepoint string) int {
	t.Helper()
	parts := strings.SplitN(timepoint, ":", 2)
	require.Len(t, parts, 2)
	m, err := strconv.Atoi(parts[0])
	require.NoError(t, err)
	s, err := strconv.Atoi(parts[1])
	require.NoError(t, err)
	return m*60 + s
}
