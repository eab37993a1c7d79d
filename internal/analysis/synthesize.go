package analysis

import (
	"fmt"

	"github.com/gazemetrics/gazemetrics-api/internal/models"
)

// synthesizeFeedback builds the ordered coaching notes. Every rule compares
// one score or confidence against a fixed threshold; one positive and one
// improvement entry are unconditional so both kinds are always present.
// Embedded id and filename fragments are traceability markers only.
func synthesizeFeedback(m models.Metrics, facial, posture DetectionResult, analysisID, fileName string) []models.FeedbackEntry {
	feedback := make([]models.FeedbackEntry, 0, 7)

	if m.Confidence > 80 {
		feedback = append(feedback, models.FeedbackEntry{
			Type: "positive",
			Text: fmt.Sprintf("Good posture and confident delivery of main points (ID: %s)", prefix(analysisID, 8)),
		})
	}
	if m.BodyLanguage > 75 {
		feedback = append(feedback, models.FeedbackEntry{
			Type: "positive",
			Text: "Natural, open body language throughout the presentation",
		})
	}
	if m.EyeContact > 80 {
		feedback = append(feedback, models.FeedbackEntry{
			Type: "positive",
			Text: "Strong eye contact during key moments",
		})
	}
	if facial.Confidence > 0.85 {
		feedback = append(feedback, models.FeedbackEntry{
			Type: "positive",
			Text: "Clear facial expressions that reinforce your message",
		})
	}
	feedback = append(feedback, models.FeedbackEntry{
		Type: "positive",
		Text: fmt.Sprintf("Effective use of hand gestures to emphasize key information (Video: %s)", prefix(fileName, 5)),
	})

	if m.EyeContact < 85 {
		feedback = append(feedback, models.FeedbackEntry{
			Type: "improvement",
			Text: "Maintain more consistent eye contact with the camera",
		})
	}
	if posture.Confidence < 0.85 {
		feedback = append(feedback, models.FeedbackEntry{
			Type: "improvement",
			Text: "Position the camera so your upper body stays fully in frame",
		})
	}
	feedback = append(feedback, models.FeedbackEntry{
		Type: "improvement",
		Text: fmt.Sprintf("Reduce use of filler words during transitions (ID: %s)", prefix(analysisID, 4)),
	})

	return feedback
}

// Timeline second ranges for the three seeded insights. Strictly increasing
// and non-overlapping, so emission order is non-decreasing by construction.
const (
	timelineMidMin  = 30
	timelineMidMax  = 50
	timelineLateMin = 70
	timelineLateMax = 100
	timelineEndMin  = 120
	timelineEndMax  = 150
)

// synthesizeTimeline produces the four fixed-count timeline insights. The
// opening entry is pinned at 0:15; the rest pick seeded timepoints within
// their stage ranges.
func synthesizeTimeline(sub *models.VideoSubmission, analysisID string) []models.TimelineInsight {
	p := newProjection(sub.FileName, sub.FileSize)

	return []models.TimelineInsight{
		{
			Timepoint: "0:15",
			Insight:   fmt.Sprintf("Strong opening with confident posture (ID: %s)", prefix(analysisID, 8)),
		},
		{
			Timepoint: formatTimepoint(p.intn(seedTimelineMid, timelineMidMin, timelineMidMax)),
			Insight:   fmt.Sprintf("Good hand gestures while explaining main concept (Video: %s)", prefix(sub.FileName, 5)),
		},
		{
			Timepoint: formatTimepoint(p.intn(seedTimelineLate, timelineLateMin, timelineLateMax)),
			Insight:   "Breaking eye contact when discussing technical details",
		},
		{
			Timepoint: formatTimepoint(p.intn(seedTimelineEnd, timelineEndMin, timelineEndMax)),
			Insight:   fmt.Sprintf("Increased energy when presenting conclusion (ID: %s)", slice(analysisID, 4, 12)),
		},
	}
}

// synthesizeSpeechMetrics formats the speech stage measurements. Zeroed out
// when no speech was detected.
func synthesizeSpeechMetrics(sub *models.VideoSubmission, speech DetectionResult) models.SpeechMetrics {
	if !speech.Detected {
		return models.SpeechMetrics{WordsPerMinute: 0, FillerWordRate: "0%", Duration: "0:00"}
	}
	p := newProjection(sub.FileName, sub.FileSize)
	minutes := 2 + p.intn(seedDurationMin, 0, 3)
	seconds := p.intn(seedDurationSec, 10, 59)
	return models.SpeechMetrics{
		WordsPerMinute: speech.WordsPerMinute,
		FillerWordRate: fmt.Sprintf("%d%%", int(speech.FillerRate)),
		Duration:       fmt.Sprintf("%d:%02d", minutes, seconds),
	}
}

// formatTimepoint renders seconds as "M:SS".
func formatTimepoint(seconds int) string {
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

func prefix(s string, n int) string {
	if len(s) < n {
		return s
	}
	return s[:n]
}

func slice(s string, from, to int) string {
	if from >= len(s) {
		return ""
	}
	if to > len(s) {
		to = len(s)
	}
	return s[from:to]
}
