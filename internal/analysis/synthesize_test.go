package analysis

import (
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gazemetrics/gazemetrics-api/internal/models"
)

func TestFeedbackAlwaysHasBothKinds(t *testing.T) {
	// Worst-case scores trip none of the conditional positives.
	m := models.Metrics{EyeContact: 60, Confidence: 65, BodyLanguage: 60, Speaking: 65, Engagement: 60}
	facial := DetectionResult{Confidence: 0.80}
	posture := DetectionResult{Confidence: 0.80}

	feedback := synthesizeFeedback(m, facial, posture, "abcdef1234567890", "demo.mp4")

	var positives, improvements int
	for _, f := range feedback {
		switch f.Type {
		case "positive":
			positives++
		case "improvement":
			improvements++
		}
	}
	assert.GreaterOrEqual(t, positives, 1)
	assert.GreaterOrEqual(t, improvements, 1)
}

func TestFeedbackHighScoresAddPositives(t *testing.T) {
	low := synthesizeFeedback(
		models.Metrics{EyeContact: 60, Confidence: 65, BodyLanguage: 60},
		DetectionResult{Confidence: 0.80}, DetectionResult{Confidence: 0.90},
		"abcdef1234567890", "demo.mp4")
	high := synthesizeFeedback(
		models.Metrics{EyeContact: 90, Confidence: 88, BodyLanguage: 85},
		DetectionResult{Confidence: 0.92}, DetectionResult{Confidence: 0.90},
		"abcdef1234567890", "demo.mp4")

	assert.Greater(t, len(high), len(low))
}

func TestFeedbackLowEyeContactFlagsImprovement(t *testing.T) {
	feedback := synthesizeFeedback(
		models.Metrics{EyeContact: 70, Confidence: 85, BodyLanguage: 80},
		DetectionResult{Confidence: 0.92}, DetectionResult{Confidence: 0.90},
		"abcdef1234567890", "demo.mp4")

	found := false
	for _, f := range feedback {
		if f.Type == "improvement" && f.Text == "Maintain more consistent eye contact with the camera" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestSpeechMetricsZeroedWhenUndetected(t *testing.T) {
	sm := synthesizeSpeechMetrics(submission("silent.mp4", 1000), DetectionResult{Detected: false})

	assert.Equal(t, 0, sm.WordsPerMinute)
	assert.Equal(t, "0%", sm.FillerWordRate)
	assert.Equal(t, "0:00", sm.Duration)
}

func TestSpeechMetricsFormatted(t *testing.T) {
	sm := synthesizeSpeechMetrics(submission("talk.mp4", 9000),
		DetectionResult{Detected: true, Confidence: 0.88, WordsPerMinute: 142, FillerRate: 4})

	assert.Equal(t, 142, sm.WordsPerMinute)
	assert.Equal(t, "4%", sm.FillerWordRate)
	assert.Regexp(t, `^[2-5]:[0-5][0-9]$`, sm.Duration)
}

func TestFormatTimepoint(t *testing.T) {
	assert.Equal(t, "0:15", formatTimepoint(15))
	assert.Equal(t, "1:05", formatTimepoint(65))
	assert.Equal(t, "2:30", formatTimepoint(150))
}

func TestTimelineRangesRespected(t *testing.T) {
	insights := synthesizeTimeline(submission("ranged.mp4", 555), "abcdef1234567890")

	assert.Equal(t, "0:15", insights[0].Timepoint)

	mid := timepointToSeconds(insights[1].Timepoint)
	assert.GreaterOrEqual(t, mid, timelineMidMin)
	assert.LessOrEqual(t, mid, timelineMidMax)

	late := timepointToSeconds(insights[2].Timepoint)
	assert.GreaterOrEqual(t, late, timelineLateMin)
	assert.LessOrEqual(t, late, timelineLateMax)

	end := timepointToSeconds(insights[3].Timepoint)
	assert.GreaterOrEqual(t, end, timelineEndMin)
	assert.LessOrEqual(t, end, timelineEndMax)
}

func timepointToSeconds(tp string) int {
	m, s, _ := strings.Cut(tp, ":")
	minutes, _ := strconv.Atoi(m)
	seconds, _ := strconv.Atoi(s)
	return minutes*60 + seconds
}
