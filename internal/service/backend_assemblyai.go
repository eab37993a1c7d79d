package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/gazemetrics/gazemetrics-api/internal/analysis"
	"github.com/gazemetrics/gazemetrics-api/internal/models"
	"github.com/gazemetrics/gazemetrics-api/pkg/assemblyai"
)

// fillerWords counted against the transcript for the filler-word rate.
var fillerWords = map[string]bool{
	"um":        true,
	"uh":        true,
	"like":      true,
	"so":        true,
	"actually":  true,
	"basically": true,
}

// AssemblyAIBackend replaces the simulated speech metrics with measurements
// from a real transcription. The visual gates, scores, feedback, and
// timeline still come from the deterministic engine.
type AssemblyAIBackend struct {
	client *assemblyai.Client
	engine *analysis.Engine
	s3Svc  *S3Service
}

// NewAssemblyAIBackend creates the AssemblyAI analysis backend.
func NewAssemblyAIBackend(client *assemblyai.Client, engine *analysis.Engine, s3Svc *S3Service) *AssemblyAIBackend {
	return &AssemblyAIBackend{client: client, engine: engine, s3Svc: s3Svc}
}

func (b *AssemblyAIBackend) Name() string { return "assemblyai" }

// Analyze runs the deterministic pipeline, then transcribes the stored
// video and overlays real speech metrics and the provider transcript id.
func (b *AssemblyAIBackend) Analyze(ctx context.Context, sub *models.VideoSubmission) (*models.AnalysisResult, error) {
	base, err := b.engine.Analyze(ctx, sub)
	if err != nil {
		return nil, err
	}

	audioURL := b.s3Svc.GetObjectURL(sub.VideoPath)
	submitted, err := b.client.Submit(ctx, audioURL)
	if err != nil {
		return nil, err
	}
	transcript, err := b.client.Wait(ctx, submitted.ID)
	if err != nil {
		return nil, err
	}

	result := *base
	result.SpeechMetrics = speechMetricsFromTranscript(transcript)
	result.TranscriptID = transcript.ID

	log.Debug().Str("analysisId", result.AnalysisID).Str("transcriptId", transcript.ID).Msg("AssemblyAI speech metrics applied")
	return &result, nil
}

// speechMetricsFromTranscript derives words-per-minute, filler rate, and
// duration from a completed transcript.
func speechMetricsFromTranscript(t *assemblyai.Transcript) models.SpeechMetrics {
	seconds := int(t.AudioDuration)
	if len(t.Words) == 0 || seconds == 0 {
		return models.SpeechMetrics{WordsPerMinute: 0, FillerWordRate: "0%", Duration: formatDuration(seconds)}
	}

	wpm := len(t.Words) * 60 / seconds

	fillers := 0
	for _, w := range t.Words {
		cleaned := strings.ToLower(strings.Trim(w.Text, ".,!?"))
		if fillerWords[cleaned] {
			fillers++
		}
	}
	rate := fillers * 100 / len(t.Words)

	return models.SpeechMetrics{
		WordsPerMinute: wpm,
		FillerWordRate: fmt.Sprintf("%d%%", rate),
		Duration:       formatDuration(seconds),
	}
}

func formatDuration(seconds int) string {
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
