package analysis

import (
	"math"

	"github.com/gazemetrics/gazemetrics-api/internal/models"
)

// Per-metric seed offsets keep the perturbations uncorrelated across metrics
// while staying reproducible for a fixed (fileName, fileSize) pair.
const (
	seedEyeContact = iota + 1
	seedConfidence
	seedBodyLanguage
	seedSpeaking
	seedEngagement
	seedWPM
	seedFiller
	seedDurationMin
	seedDurationSec
	seedTimelineMid
	seedTimelineLate
	seedTimelineEnd
)

// Weights of the overall score. They sum to 1.0.
const (
	weightEyeContact   = 0.20
	weightConfidence   = 0.25
	weightBodyLanguage = 0.20
	weightSpeaking     = 0.20
	weightEngagement   = 0.15
)

// projection is a deterministic pseudo-random source of the form
// frac(sin(seed)*10000) scaled into a target range. It is a hash-like
// projection chosen for reproducibility, not statistical quality.
type projection struct {
	seed float64
}

func newProjection(fileName string, fileSize int64) *projection {
	return &projection{seed: float64(len(fileName))*53 + float64(fileSize%997)}
}

// intn returns a value in [min, max]. The offset decorrelates consumers that
// share a projection.
func (p *projection) intn(offset, min, max int) int {
	x := math.Sin(p.seed+float64(offset)) * 10000
	frac := x - math.Floor(x)
	n := min + int(frac*float64(max-min+1))
	if n > max {
		n = max
	}
	return n
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloat(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// scoreMetrics derives the six presentation metrics from the visual stage
// confidences and the seeded projection. The base score lands in [65,85] and
// each sub-score is offset, perturbed, and clamped to its own window.
func scoreMetrics(sub *models.VideoSubmission, human, facial, posture DetectionResult) models.Metrics {
	confidenceWeight := (human.Confidence + facial.Confidence + posture.Confidence) / 3
	baseScore := 65 + confidenceWeight*20

	p := newProjection(sub.FileName, sub.FileSize)

	eyeContact := clampInt(int(math.Round(baseScore-5))+p.intn(seedEyeContact, -8, 8), 60, 95)
	confidence := round1(clampFloat(baseScore+2+float64(p.intn(seedConfidence, -6, 6)), 65, 95))
	bodyLanguage := clampInt(int(math.Round(baseScore+3))+p.intn(seedBodyLanguage, -5, 5), 60, 95)
	speaking := clampInt(int(math.Round(baseScore+5))+p.intn(seedSpeaking, -3, 10), 65, 95)
	engagement := clampInt(int(math.Round(baseScore-2))+p.intn(seedEngagement, -10, 15), 60, 90)

	overall := int(math.Round(
		weightEyeContact*float64(eyeContact) +
			weightConfidence*confidence +
			weightBodyLanguage*float64(bodyLanguage) +
			weightSpeaking*float64(speaking) +
			weightEngagement*float64(engagement)))

	return models.Metrics{
		Overall:      overall,
		EyeContact:   eyeContact,
		Confidence:   confidence,
		BodyLanguage: bodyLanguage,
		Speaking:     speaking,
		Engagement:   engagement,
	}
}
