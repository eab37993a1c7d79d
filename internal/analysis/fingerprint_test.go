package analysis

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gazemetrics/gazemetrics-api/internal/models"
)

var hexPattern = regexp.MustCompile(`^[0-9a-f]{8,}$`)

func submission(fileName string, fileSize int64) *models.VideoSubmission {
	return &models.VideoSubmission{
		FileName:  fileName,
		FileSize:  fileSize,
		VideoPath: "videos/test/" + fileName,
	}
}

func TestFingerprintStable(t *testing.T) {
	sub := submission("presentation.mp4", 1048576)

	a := Fingerprint(sub, DefaultVersion)
	b := Fingerprint(sub, DefaultVersion)

	assert.Equal(t, a, b)
	assert.Regexp(t, hexPattern, a)
}

func TestFingerprintSensitivity(t *testing.T) {
	base := Fingerprint(submission("presentation.mp4", 1048576), DefaultVersion)

	assert.NotEqual(t, base, Fingerprint(submission("other.mp4", 1048576), DefaultVersion))
	assert.NotEqual(t, base, Fingerprint(submission("presentation.mp4", 2048), DefaultVersion))
	assert.NotEqual(t, base, Fingerprint(submission("presentation.mp4", 1048576), "2.0.0"))
}

func TestFingerprintOptionalFields(t *testing.T) {
	plain := submission("talk.mp4", 5000)

	withDuration := submission("talk.mp4", 5000)
	withDuration.Duration = "4:20"

	withResolution := submission("talk.mp4", 5000)
	withResolution.Resolution = "1920x1080"

	fp := Fingerprint(plain, DefaultVersion)
	assert.NotEqual(t, fp, Fingerprint(withDuration, DefaultVersion))
	assert.NotEqual(t, fp, Fingerprint(withResolution, DefaultVersion))
}

func TestAnalysisIDIndependentOfFingerprint(t *testing.T) {
	sub := submission("presentation.mp4", 1048576)

	id := AnalysisID(sub, DefaultVersion)
	fp := Fingerprint(sub, DefaultVersion)

	assert.Regexp(t, hexPattern, id)
	assert.NotEqual(t, fp, id)
	assert.Equal(t, id, AnalysisID(sub, DefaultVersion))
}

func TestAnalysisIDVersionSensitivity(t *testing.T) {
	sub := submission("presentation.mp4", 1048576)

	assert.NotEqual(t, AnalysisID(sub, "1.1.0"), AnalysisID(sub, "1.2.0"))
}

func TestHash32FixedWidth(t *testing.T) {
	for _, s := range []string{"", "a", "presentation.mp4", "fp-long-input-with-many-characters"} {
		h := hash32(s)
		assert.Regexp(t, hexPattern, h, "input %q", s)
		assert.GreaterOrEqual(t, len(h), 8)
	}
}
