// Package assemblyai is a minimal HTTP client for the AssemblyAI
// transcription API, used as an optional speech-analysis collaborator.
package assemblyai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	// BaseURL is the AssemblyAI API base URL.
	BaseURL = "https://api.assemblyai.com/v2"

	pollInterval = 3 * time.Second
)

// Client is a minimal HTTP client for interacting with the AssemblyAI API.
type Client struct {
	httpClient *http.Client
	apiKey     string
}

// NewClient constructs a new AssemblyAI client with sane defaults.
func NewClient(apiKey string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		apiKey:     apiKey,
	}
}

// Transcript is the AssemblyAI transcript resource.
type Transcript struct {
	ID            string  `json:"id"`
	Status        string  `json:"status"` // queued | processing | completed | error
	Text          string  `json:"text"`
	AudioDuration float64 `json:"audio_duration"` // seconds
	Words         []Word  `json:"words"`
	Error         string  `json:"error,omitempty"`
}

// Word is a single transcribed word with timing.
type Word struct {
	Text       string  `json:"text"`
	Start      int     `json:"start"` // ms
	End        int     `json:"end"`   // ms
	Confidence float64 `json:"confidence"`
}

type submitRequest struct {
	AudioURL string `json:"audio_url"`
}

// Submit enqueues a transcription job for the given audio URL.
func (c *Client) Submit(ctx context.Context, audioURL string) (*Transcript, error) {
	var t Transcript
	if err := c.doRequest(ctx, http.MethodPost, "/transcript", submitRequest{AudioURL: audioURL}, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// Get fetches the current state of a transcript.
func (c *Client) Get(ctx context.Context, id string) (*Transcript, error) {
	var t Transcript
	if err := c.doRequest(ctx, http.MethodGet, "/transcript/"+id, nil, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// Wait polls a transcript until it completes, errors, or the context is
// canceled.
func (c *Client) Wait(ctx context.Context, id string) (*Transcript, error) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		t, err := c.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		switch t.Status {
		case "completed":
			return t, nil
		case "error":
			return nil, fmt.Errorf("assemblyai: transcription failed: %s", t.Error)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// doRequest performs an authenticated JSON request and decodes the response.
func (c *Client) doRequest(ctx context.Context, method, path string, payload, out interface{}) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, BaseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", c.apiKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("assemblyai: unexpected status %d: %s", resp.StatusCode, string(data))
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
