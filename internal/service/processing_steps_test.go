package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gazemetrics/gazemetrics-api/internal/analysis"
)

func TestSuccessStepsWithSpeech(t *testing.T) {
	steps := successSteps(true)

	require.Len(t, steps, 6)
	for _, s := range steps {
		assert.Equal(t, statusSuccess, s.Status, s.Step)
	}
	assert.Equal(t, stepInitialization, steps[0].Step)
	assert.Equal(t, string(analysis.StageSpeech), steps[4].Step)
	assert.Equal(t, "Speech patterns analyzed", steps[4].Message)
	assert.Equal(t, stepReportGeneration, steps[5].Step)
}

func TestSuccessStepsWithoutSpeech(t *testing.T) {
	steps := successSteps(false)

	require.Len(t, steps, 6)
	assert.Equal(t, statusSuccess, steps[4].Status)
	assert.Equal(t, "No speech detected, skipping speech analysis", steps[4].Message)
}

func TestCachedSteps(t *testing.T) {
	steps := cachedSteps()

	require.Len(t, steps, 6)
	assert.Equal(t, stepFingerprinting, steps[0].Step)
	for _, s := range steps {
		assert.Equal(t, statusSuccess, s.Status, s.Step)
	}
}

func TestStageFailureStepsFacial(t *testing.T) {
	stageErr := &analysis.StageError{
		Stage:      analysis.StageFacial,
		Confidence: 0.48,
		Message:    "insufficient facial visibility for analysis (confidence 0.48)",
	}

	steps := StageFailureSteps(stageErr)
	require.Len(t, steps, 4)

	assert.Equal(t, stepInitialization, steps[0].Step)
	assert.Equal(t, statusSuccess, steps[0].Status)

	assert.Equal(t, string(analysis.StageHuman), steps[1].Step)
	assert.Equal(t, statusSuccess, steps[1].Status)

	assert.Equal(t, string(analysis.StageFacial), steps[2].Step)
	assert.Equal(t, statusFailed, steps[2].Status)
	assert.Equal(t, stageErr.Message, steps[2].Message)

	assert.Equal(t, string(analysis.StagePosture), steps[3].Step)
	assert.Equal(t, statusPending, steps[3].Status)
	assert.Equal(t, "Not reached", steps[3].Message)
}

func TestStageFailureStepsHuman(t *testing.T) {
	stageErr := &analysis.StageError{
		Stage:      analysis.StageHuman,
		Confidence: 0.2,
		Message:    "no human presence detected in video (confidence 0.20)",
	}

	steps := StageFailureSteps(stageErr)
	require.Len(t, steps, 4)

	assert.Equal(t, statusFailed, steps[1].Status)
	assert.Equal(t, statusPending, steps[2].Status)
	assert.Equal(t, statusPending, steps[3].Status)
}

func TestStageFailureStepsPosture(t *testing.T) {
	stageErr := &analysis.StageError{
		Stage:      analysis.StagePosture,
		Confidence: 0.54,
		Message:    "insufficient body visibility for posture analysis (confidence 0.54)",
	}

	steps := StageFailureSteps(stageErr)
	require.Len(t, steps, 4)

	assert.Equal(t, statusSuccess, steps[1].Status)
	assert.Equal(t, statusSuccess, steps[2].Status)
	assert.Equal(t, statusFailed, steps[3].Status)
}
