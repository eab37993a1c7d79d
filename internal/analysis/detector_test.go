package analysis

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHumanDetectionCleanFilename(t *testing.T) {
	d := NewSimulatedDetector()

	res, err := d.DetectHuman(context.Background(), submission("my-talk.mp4", 1000))
	require.NoError(t, err)

	assert.True(t, res.Detected)
	assert.InDelta(t, 0.96, res.Confidence, 1e-9)
}

func TestHumanDetectionKeywordPenalty(t *testing.T) {
	d := NewSimulatedDetector()

	res, err := d.DetectHuman(context.Background(), submission("landscape-tour.mp4", 1000))
	require.NoError(t, err)

	assert.False(t, res.Detected)
	assert.InDelta(t, 0.96*0.30, res.Confidence, 1e-9)
}

func TestHumanDetectionOverride(t *testing.T) {
	d := NewSimulatedDetector()

	res, err := d.DetectHuman(context.Background(), submission("test-no-human.mp4", 1000))
	require.NoError(t, err)

	assert.False(t, res.Detected)
	assert.InDelta(t, 0.2, res.Confidence, 1e-9)
}

func TestFacialPenaltiesCompound(t *testing.T) {
	d := NewSimulatedDetector()

	// Two keywords both dampen the confidence multiplicatively.
	res, err := d.DetectFacialFeatures(context.Background(), submission("dark-backlighting-talk.mp4", 1000))
	require.NoError(t, err)

	assert.False(t, res.Detected)
	assert.InDelta(t, 0.92*0.70*0.75, res.Confidence, 1e-9)
}

func TestFacialSingleKeywordStillPasses(t *testing.T) {
	d := NewSimulatedDetector()

	// 0.92 * 0.75 = 0.69, below the 0.80 bar.
	res, err := d.DetectFacialFeatures(context.Background(), submission("backlighting-demo.mp4", 1000))
	require.NoError(t, err)
	assert.False(t, res.Detected)

	clean, err := d.DetectFacialFeatures(context.Background(), submission("demo.mp4", 1000))
	require.NoError(t, err)
	assert.True(t, clean.Detected)
	assert.InDelta(t, 0.92, clean.Confidence, 1e-9)
}

func TestPostureKeywords(t *testing.T) {
	d := NewSimulatedDetector()

	tests := []struct {
		fileName string
		detected bool
		conf     float64
	}{
		{"full-body-talk.mp4", true, 0.90},
		{"cropped-frame.mp4", false, 0.90 * 0.65},
		{"closeup-face.mp4", false, 0.90 * 0.60},
		{"test-no-posture.mp4", false, 0.2},
	}

	for _, tt := range tests {
		res, err := d.DetectPosture(context.Background(), submission(tt.fileName, 1000))
		require.NoError(t, err, tt.fileName)
		assert.Equal(t, tt.detected, res.Detected, tt.fileName)
		assert.InDelta(t, tt.conf, res.Confidence, 1e-9, tt.fileName)
	}
}

func TestSpeechDetection(t *testing.T) {
	d := NewSimulatedDetector()

	res, err := d.DetectSpeech(context.Background(), submission("weekly-update.mp4", 4096))
	require.NoError(t, err)

	assert.True(t, res.Detected)
	assert.InDelta(t, 0.88, res.Confidence, 1e-9)
	assert.GreaterOrEqual(t, res.WordsPerMinute, 120)
	assert.LessOrEqual(t, res.WordsPerMinute, 160)
	assert.GreaterOrEqual(t, res.FillerRate, 2.0)
	assert.LessOrEqual(t, res.FillerRate, 8.0)
}

func TestSpeechMuted(t *testing.T) {
	d := NewSimulatedDetector()

	for _, name := range []string{"muted-run.mp4", "silent-take.mp4", "no-audio-clip.mp4", "test-no-speech.mp4"} {
		res, err := d.DetectSpeech(context.Background(), submission(name, 4096))
		require.NoError(t, err, name)
		assert.False(t, res.Detected, name)
		assert.Zero(t, res.WordsPerMinute, name)
	}
}

func TestKeywordMatchIsCaseInsensitive(t *testing.T) {
	d := NewSimulatedDetector()

	res, err := d.DetectHuman(context.Background(), submission("LANDSCAPE-Tour.MP4", 1000))
	require.NoError(t, err)
	assert.False(t, res.Detected)
}
