package analysis

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func fullConfidence() (DetectionResult, DetectionResult, DetectionResult) {
	return DetectionResult{Detected: true, Confidence: 0.96},
		DetectionResult{Detected: true, Confidence: 0.92},
		DetectionResult{Detected: true, Confidence: 0.90}
}

func TestScoreMetricsBounds(t *testing.T) {
	names := []string{
		"a.mp4", "demo.mp4", "presentation.mp4", "quarterly-review-final-v2.mp4",
		"x.webm", "standup.mov", "keynote-rehearsal.mp4",
	}
	sizes := []int64{0, 1, 996, 997, 1048576, 52428800, 1<<40 + 13}

	for _, name := range names {
		for _, size := range sizes {
			human, facial, posture := fullConfidence()
			m := scoreMetrics(submission(name, size), human, facial, posture)

			assert.GreaterOrEqual(t, m.EyeContact, 60, name)
			assert.LessOrEqual(t, m.EyeContact, 95, name)
			assert.GreaterOrEqual(t, m.Confidence, 65.0, name)
			assert.LessOrEqual(t, m.Confidence, 95.0, name)
			assert.GreaterOrEqual(t, m.BodyLanguage, 60, name)
			assert.LessOrEqual(t, m.BodyLanguage, 95, name)
			assert.GreaterOrEqual(t, m.Speaking, 65, name)
			assert.LessOrEqual(t, m.Speaking, 95, name)
			assert.GreaterOrEqual(t, m.Engagement, 60, name)
			assert.LessOrEqual(t, m.Engagement, 90, name)
		}
	}
}

func TestScoreMetricsDeterministic(t *testing.T) {
	human, facial, posture := fullConfidence()
	sub := submission("repeatable.mp4", 333333)

	first := scoreMetrics(sub, human, facial, posture)
	for i := 0; i < 50; i++ {
		assert.Equal(t, first, scoreMetrics(sub, human, facial, posture))
	}
}

func TestScoreConfidenceOneDecimal(t *testing.T) {
	human, facial, posture := fullConfidence()

	for _, name := range []string{"a.mp4", "bb.mp4", "long-presentation-name.mp4"} {
		m := scoreMetrics(submission(name, 424242), human, facial, posture)
		assert.InDelta(t, math.Round(m.Confidence*10), m.Confidence*10, 1e-6, name)
	}
}

func TestScoreOverallIsWeightedMean(t *testing.T) {
	human, facial, posture := fullConfidence()
	m := scoreMetrics(submission("weighted.mp4", 8192), human, facial, posture)

	expected := int(math.Round(
		0.20*float64(m.EyeContact) +
			0.25*m.Confidence +
			0.20*float64(m.BodyLanguage) +
			0.20*float64(m.Speaking) +
			0.15*float64(m.Engagement)))
	assert.Equal(t, expected, m.Overall)
}

func TestScoreRespondsToConfidenceWeight(t *testing.T) {
	sub := submission("same-file.mp4", 8192)

	strong := scoreMetrics(sub,
		DetectionResult{Confidence: 0.96},
		DetectionResult{Confidence: 0.92},
		DetectionResult{Confidence: 0.90})
	weak := scoreMetrics(sub,
		DetectionResult{Confidence: 0.86},
		DetectionResult{Confidence: 0.81},
		DetectionResult{Confidence: 0.76})

	// Same seeded perturbations, lower base score.
	assert.Greater(t, strong.Overall, weak.Overall)
}

func TestProjectionRange(t *testing.T) {
	p := newProjection("any-file.mp4", 123456)

	for offset := 1; offset <= 12; offset++ {
		for _, r := range [][2]int{{0, 1}, {-8, 8}, {10, 59}, {5, 45}} {
			v := p.intn(offset, r[0], r[1])
			assert.GreaterOrEqual(t, v, r[0])
			assert.LessOrEqual(t, v, r[1])
		}
	}
}

func TestProjectionSeedSensitivity(t *testing.T) {
	a := newProjection("file-a.mp4", 100)
	b := newProjection("file-abc.mp4", 100)

	// Different filename lengths shift the seed; at least one of the
	// twelve offsets must diverge.
	diverged := false
	for offset := 1; offset <= 12; offset++ {
		if a.intn(offset, 0, 1000) != b.intn(offset, 0, 1000) {
			diverged = true
			break
		}
	}
	assert.True(t, diverged)
}

func TestRounding(t *testing.T) {
	assert.Equal(t, 0.5, round1(0.45))
	assert.Equal(t, 0.48, round2(0.483))
	assert.Equal(t, 84.7, round1(84.67))
}
