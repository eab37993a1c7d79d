package sse

import (
	"time"

	"github.com/gazemetrics/gazemetrics-api/internal/models"
)

// AnalysisNotifier is the interface services use to emit analysis progress
// events.
type AnalysisNotifier interface {
	NotifyStep(userID int, videoID string, step models.ProcessingStep)
	NotifyCompleted(userID int, videoID, analysisID string, steps []models.ProcessingStep)
	NotifyFailed(userID int, videoID, stage, reason string, steps []models.ProcessingStep)
}

// HubNotifier implements AnalysisNotifier using the SSE Hub.
type HubNotifier struct {
	hub *Hub
}

// NewHubNotifier creates a notifier backed by the given Hub.
func NewHubNotifier(hub *Hub) *HubNotifier {
	return &HubNotifier{hub: hub}
}

func (n *HubNotifier) NotifyStep(userID int, videoID string, step models.ProcessingStep) {
	if n.hub.ClientCount() == 0 {
		return
	}
	n.hub.BroadcastToUser(userID, &AnalysisEvent{
		Event:     EventAnalysisStep,
		VideoID:   videoID,
		Step:      step.Step,
		Status:    step.Status,
		Message:   step.Message,
		Timestamp: time.Now(),
	})
}

func (n *HubNotifier) NotifyCompleted(userID int, videoID, analysisID string, steps []models.ProcessingStep) {
	if n.hub.ClientCount() == 0 {
		return
	}
	n.hub.BroadcastToUser(userID, &AnalysisEvent{
		Event:           EventAnalysisCompleted,
		VideoID:         videoID,
		AnalysisID:      analysisID,
		ProcessingSteps: steps,
		Timestamp:       time.Now(),
	})
}

func (n *HubNotifier) NotifyFailed(userID int, videoID, stage, reason string, steps []models.ProcessingStep) {
	if n.hub.ClientCount() == 0 {
		return
	}
	n.hub.BroadcastToUser(userID, &AnalysisEvent{
		Event:           EventAnalysisFailed,
		VideoID:         videoID,
		FailedStage:     stage,
		Message:         reason,
		ProcessingSteps: steps,
		Timestamp:       time.Now(),
	})
}

// NopNotifier is a no-op implementation for when SSE is not needed.
type NopNotifier struct{}

func (n *NopNotifier) NotifyStep(userID int, videoID string, step models.ProcessingStep) {}
func (n *NopNotifier) NotifyCompleted(userID int, videoID, analysisID string, steps []models.ProcessingStep) {
}
func (n *NopNotifier) NotifyFailed(userID int, videoID, stage, reason string, steps []models.ProcessingStep) {
}
