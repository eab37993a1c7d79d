package service

import (
	"github.com/gazemetrics/gazemetrics-api/internal/analysis"
	"github.com/gazemetrics/gazemetrics-api/internal/models"
)

// Processing-steps traces are a reporting projection of the pipeline state
// machine for the client's progress display, not separate logic.

const (
	stepInitialization   = "initialization"
	stepFingerprinting   = "fingerprinting"
	stepReportGeneration = "reportGeneration"

	statusSuccess = "success"
	statusFailed  = "failed"
	statusPending = "pending"
)

// successSteps is the trace of a full pass-through run.
func successSteps(speechDetected bool) []models.ProcessingStep {
	speechMsg := "Speech patterns analyzed"
	if !speechDetected {
		speechMsg = "No speech detected, skipping speech analysis"
	}
	return []models.ProcessingStep{
		{Step: stepInitialization, Status: statusSuccess, Message: "Analysis initialized"},
		{Step: string(analysis.StageHuman), Status: statusSuccess, Message: "Human presence detected"},
		{Step: string(analysis.StageFacial), Status: statusSuccess, Message: "Facial features detected"},
		{Step: string(analysis.StagePosture), Status: statusSuccess, Message: "Body posture analyzed"},
		{Step: string(analysis.StageSpeech), Status: statusSuccess, Message: speechMsg},
		{Step: stepReportGeneration, Status: statusSuccess, Message: "Analysis report generated"},
	}
}

// cachedSteps is the trace returned on a fingerprint-cache hit.
func cachedSteps() []models.ProcessingStep {
	return []models.ProcessingStep{
		{Step: stepFingerprinting, Status: statusSuccess, Message: "Video fingerprint matched to existing analysis"},
		{Step: string(analysis.StageHuman), Status: statusSuccess, Message: "Human presence verified (cached)"},
		{Step: string(analysis.StageFacial), Status: statusSuccess, Message: "Facial features detected (cached)"},
		{Step: string(analysis.StagePosture), Status: statusSuccess, Message: "Body posture analyzed (cached)"},
		{Step: string(analysis.StageSpeech), Status: statusSuccess, Message: "Speech patterns analyzed (cached)"},
		{Step: stepReportGeneration, Status: statusSuccess, Message: "Report generated from cache"},
	}
}

// StageFailureSteps builds the trace for a gate rejection: steps up to and
// including the failing stage, with later stages reported as pending.
func StageFailureSteps(stageErr *analysis.StageError) []models.ProcessingStep {
	order := []analysis.Stage{analysis.StageHuman, analysis.StageFacial, analysis.StagePosture}
	passedMsg := map[analysis.Stage]string{
		analysis.StageHuman:   "Human presence detected",
		analysis.StageFacial:  "Facial features detected",
		analysis.StagePosture: "Body posture analyzed",
	}

	steps := []models.ProcessingStep{
		{Step: stepInitialization, Status: statusSuccess, Message: "Analysis initialized"},
	}
	reached := false
	for _, stage := range order {
		if stage == stageErr.Stage {
			steps = append(steps, models.ProcessingStep{
				Step:    string(stage),
				Status:  statusFailed,
				Message: stageErr.Message,
			})
			reached = true
			continue
		}
		status, msg := statusSuccess, passedMsg[stage]
		if reached {
			status, msg = statusPending, "Not reached"
		}
		steps = append(steps, models.ProcessingStep{Step: string(stage), Status: status, Message: msg})
	}
	return steps
}
