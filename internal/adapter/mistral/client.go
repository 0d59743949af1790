// Package mistral implements the advisory text generator against the
// Mistral agent conversation API.
package mistral

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

const (
	defaultBaseURL     = "https://api.mistral.ai"
	conversationPath   = "/v1/conversations"
	defaultHTTPTimeout = 30 * time.Second
)

// Client calls a configured Mistral agent. It satisfies
// app.TextGenerator.
type Client struct {
	apiKey  string
	agentID string
	baseURL string
	http    *http.Client
}

// NewClient creates a Client. An empty baseURL selects the public API.
func NewClient(apiKey, agentID, baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		apiKey:  apiKey,
		agentID: agentID,
		baseURL: baseURL,
		http: &http.Client{
			Timeout: defaultHTTPTimeout,
		},
	}
}

type conversationRequest struct {
	AgentID string `json:"agent_id"`
	Inputs  any    `json:"inputs"`
}

type conversationResponse struct {
	ID      string               `json:"id"`
	Object  string               `json:"object"`
	Status  string               `json:"status"`
	Message conversationPiece    `json:"message"`
	Outputs []conversationOutput `json:"outputs"`
	Output  any                  `json:"output"`
}

type conversationPiece struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Content string `json:"content"`
}

type conversationOutput struct {
	ID      string              `json:"id"`
	Object  string              `json:"object"`
	Role    string              `json:"role"`
	Content []conversationChunk `json:"content"`
}

type conversationChunk struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Generate sends the prompt to the agent and returns the first text of
// the response.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	if c.apiKey == "" {
		return "", errors.New("mistral: api key not configured")
	}
	if c.agentID == "" {
		return "", errors.New("mistral: agent id not configured")
	}

	payload := conversationRequest{
		AgentID: c.agentID,
		Inputs:  prompt,
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+conversationPath, &buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-KEY", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("mistral: conversation status %d", resp.StatusCode)
	}

	var out conversationResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	return out.firstText(), nil
}

func (r *conversationResponse) firstText() string {
	if r.Message.Content != "" {
		return r.Message.Content
	}
	for _, out := range r.Outputs {
		for _, chunk := range out.Content {
			if chunk.Text != "" {
				return chunk.Text
			}
		}
	}
	if text, ok := r.Output.(string); ok {
		return text
	}
	return ""
}
