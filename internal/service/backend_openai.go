package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/gazemetrics/gazemetrics-api/internal/analysis"
	"github.com/gazemetrics/gazemetrics-api/internal/models"
	"github.com/gazemetrics/gazemetrics-api/pkg/openai"
)

const openAISystemPrompt = `You are a presentation coach scoring an uploaded
presentation video from its metadata. Respond with a single JSON object:
{"eyeContact": int, "confidence": number, "bodyLanguage": int,
"speaking": int, "engagement": int,
"feedback": [{"type": "positive"|"improvement", "text": string}]}.
Scores are 0-100. Include at least one positive and one improvement entry.`

// OpenAIBackend scores a submission with a chat completion. The detection
// gates, identifiers, timeline, and speech metrics still come from the
// deterministic engine; only the scores and feedback text are replaced when
// the completion parses cleanly.
type OpenAIBackend struct {
	client *openai.Client
	engine *analysis.Engine
}

// NewOpenAIBackend creates the OpenAI analysis backend.
func NewOpenAIBackend(client *openai.Client, engine *analysis.Engine) *OpenAIBackend {
	return &OpenAIBackend{client: client, engine: engine}
}

func (b *OpenAIBackend) Name() string { return "openai" }

type openAIScores struct {
	EyeContact   int                    `json:"eyeContact"`
	Confidence   float64                `json:"confidence"`
	BodyLanguage int                    `json:"bodyLanguage"`
	Speaking     int                    `json:"speaking"`
	Engagement   int                    `json:"engagement"`
	Feedback     []models.FeedbackEntry `json:"feedback"`
}

// Analyze runs the deterministic pipeline first so gate semantics stay
// intact, then overlays the completion's scores and feedback.
func (b *OpenAIBackend) Analyze(ctx context.Context, sub *models.VideoSubmission) (*models.AnalysisResult, error) {
	base, err := b.engine.Analyze(ctx, sub)
	if err != nil {
		return nil, err
	}

	prompt := fmt.Sprintf("Video: %s, size %d bytes, duration %s, resolution %s.",
		sub.FileName, sub.FileSize, sub.Duration, sub.Resolution)

	content, err := b.client.ChatCompletion(ctx, openAISystemPrompt, prompt)
	if err != nil {
		return nil, err
	}

	var scores openAIScores
	if err := json.Unmarshal([]byte(extractJSON(content)), &scores); err != nil {
		return nil, fmt.Errorf("failed to parse completion: %w", err)
	}
	if !validScores(&scores) {
		return nil, fmt.Errorf("completion scores out of range")
	}

	result := *base
	result.Metrics.EyeContact = scores.EyeContact
	result.Metrics.Confidence = scores.Confidence
	result.Metrics.BodyLanguage = scores.BodyLanguage
	result.Metrics.Speaking = scores.Speaking
	result.Metrics.Engagement = scores.Engagement
	result.Metrics.Overall = weightedOverall(&result.Metrics)
	if len(scores.Feedback) > 0 {
		result.Feedback = scores.Feedback
	}

	log.Debug().Str("analysisId", result.AnalysisID).Msg("OpenAI scores applied")
	return &result, nil
}

// extractJSON tolerates completions wrapped in markdown fences.
func extractJSON(content string) string {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start >= 0 && end > start {
		return content[start : end+1]
	}
	return content
}

func validScores(s *openAIScores) bool {
	in := func(v float64) bool { return v >= 0 && v <= 100 }
	return in(float64(s.EyeContact)) && in(s.Confidence) && in(float64(s.BodyLanguage)) &&
		in(float64(s.Speaking)) && in(float64(s.Engagement))
}

// weightedOverall recomputes the overall score with the standard weights.
func weightedOverall(m *models.Metrics) int {
	v := 0.20*float64(m.EyeContact) +
		0.25*m.Confidence +
		0.20*float64(m.BodyLanguage) +
		0.20*float64(m.Speaking) +
		0.15*float64(m.Engagement)
	return int(v + 0.5)
}
