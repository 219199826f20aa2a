package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// CohereProvider calls the Cohere chat API
type CohereProvider struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

// NewCohereProvider creates a Cohere backend
func NewCohereProvider(apiKey, model string) *CohereProvider {
	if model == "" {
		model = "command-r"
	}
	return &CohereProvider{
		apiKey:     apiKey,
		model:      model,
		baseURL:    "https://api.cohere.ai/v1",
		httpClient: &http.Client{},
	}
}

func (p *CohereProvider) Name() string { return "cohere" }

// WithBaseURL overrides the API endpoint, used by tests
func (p *CohereProvider) WithBaseURL(url string) *CohereProvider {
	p.baseURL = strings.TrimRight(url, "/")
	return p
}

func (p *CohereProvider) Generate(ctx context.Context, prompt Prompt) (string, error) {
	if p.apiKey == "" {
		return "", fmt.Errorf("cohere: %w", ErrNoProviderOutput)
	}

	reqBody := map[string]interface{}{
		"model":       p.model,
		"message":     prompt.Conversation,
		"preamble":    prompt.System,
		"temperature": 0.8,
		"max_tokens":  150,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", p.baseURL+"/chat", bytes.NewBuffer(jsonBody))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("cohere API error %d: %s", resp.StatusCode, string(body))
	}

	var cohereResp struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(body, &cohereResp); err != nil {
		return "", err
	}

	return strings.TrimSpace(cohereResp.Text), nil
}
