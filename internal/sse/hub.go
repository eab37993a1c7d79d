package sse

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/gazemetrics/gazemetrics-api/internal/models"
)

// EventType defines the SSE event name.
type EventType string

const (
	EventAnalysisStep      EventType = "analysis.step"
	EventAnalysisCompleted EventType = "analysis.completed"
	EventAnalysisFailed    EventType = "analysis.failed"
)

// AnalysisEvent is the payload pushed to a user's upload screen while their
// video moves through the pipeline.
type AnalysisEvent struct {
	Event           EventType               `json:"event"`
	VideoID         string                  `json:"videoId"`
	AnalysisID      string                  `json:"analysisId,omitempty"`
	Step            string                  `json:"step,omitempty"`
	Status          string                  `json:"status,omitempty"`
	Message         string                  `json:"message,omitempty"`
	FailedStage     string                  `json:"failedStage,omitempty"`
	ProcessingSteps []models.ProcessingStep `json:"processingSteps,omitempty"`
	Timestamp       time.Time               `json:"timestamp"`
}

// Client represents a connected SSE client.
type Client struct {
	ID     string
	UserID int
	Events chan []byte
}

// Hub manages SSE client connections and per-user broadcasts.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

// NewHub creates a new SSE hub.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*Client),
	}
}

// Register adds a new client and returns it for streaming.
func (h *Hub) Register(clientID string, userID int) *Client {
	h.mu.Lock()
	defer h.mu.Unlock()

	c := &Client{
		ID:     clientID,
		UserID: userID,
		Events: make(chan []byte, 64),
	}
	h.clients[clientID] = c
	log.Info().Str("client_id", clientID).Int("user_id", userID).Int("total_clients", len(h.clients)).Msg("SSE client connected")
	return c
}

// Unregister removes a client and closes its channel.
func (h *Hub) Unregister(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if c, ok := h.clients[clientID]; ok {
		close(c.Events)
		delete(h.clients, clientID)
		log.Info().Str("client_id", clientID).Int("total_clients", len(h.clients)).Msg("SSE client disconnected")
	}
}

// BroadcastToUser sends an event to all connections belonging to a user.
// Non-blocking: drops the message if a client buffer is full.
func (h *Hub) BroadcastToUser(userID int, event *AnalysisEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal SSE event")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, c := range h.clients {
		if c.UserID != userID {
			continue
		}
		select {
		case c.Events <- data:
		default:
			log.Warn().Str("client_id", c.ID).Msg("SSE client buffer full, dropping event")
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
