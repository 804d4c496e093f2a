package voiceagent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// AgentSpec describes the conversational agent backing a persona.
type AgentSpec struct {
	Name         string   `json:"name"`
	Temperament  string   `json:"temperament"`
	Objections   []string `json:"objections,omitempty"`
	KnowledgeIDs []string `json:"knowledge_ids,omitempty"`
}

// Agent is the provider's view of a configured agent.
type Agent struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

// Client wraps the voice-agent provider API.
type Client struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

// NewClient constructs a provider client with a bounded request timeout.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		BaseURL:    baseURL,
		APIKey:     apiKey,
		HTTPClient: &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *Client) do(ctx context.Context, method, path string, payload any) ([]byte, error) {
	if c == nil {
		return nil, fmt.Errorf("voiceagent client not initialised")
	}
	base := strings.TrimRight(c.BaseURL, "/")
	if base == "" {
		return nil, fmt.Errorf("voiceagent base URL required")
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, base+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	client := c.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("voiceagent response %d: %s", resp.StatusCode, string(bytes.TrimSpace(data)))
	}
	return data, nil
}

// CreateAgent provisions an agent and returns its provider ID.
func (c *Client) CreateAgent(ctx context.Context, spec AgentSpec) (*Agent, error) {
	data, err := c.do(ctx, http.MethodPost, "/v1/agents", spec)
	if err != nil {
		return nil, err
	}
	var agent Agent
	if err := json.Unmarshal(data, &agent); err != nil {
		return nil, fmt.Errorf("decode agent: %w", err)
	}
	return &agent, nil
}

// UpdateAgent patches an existing agent's configuration.
func (c *Client) UpdateAgent(ctx context.Context, agentID string, spec AgentSpec) (*Agent, error) {
	data, err := c.do(ctx, http.MethodPatch, "/v1/agents/"+agentID, spec)
	if err != nil {
		return nil, err
	}
	var agent Agent
	if err := json.Unmarshal(data, &agent); err != nil {
		return nil, fmt.Errorf("decode agent: %w", err)
	}
	return &agent, nil
}

// DeleteAgent removes an agent from the provider.
func (c *Client) DeleteAgent(ctx context.Context, agentID string) error {
	_, err := c.do(ctx, http.MethodDelete, "/v1/agents/"+agentID, nil)
	return err
}

// UploadKnowledge pushes ingested document text to the provider's
// knowledge base and returns the provider-side document ID.
func (c *Client) UploadKnowledge(ctx context.Context, agentID, filename string, text string) (string, error) {
	data, err := c.do(ctx, http.MethodPost, "/v1/agents/"+agentID+"/knowledge", map[string]string{
		"filename": filename,
		"text":     text,
	})
	if err != nil {
		return "", err
	}
	var out struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return "", fmt.Errorf("decode knowledge upload: %w", err)
	}
	return out.ID, nil
}
