// OpenAI-compatible implementation of [Completer]
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/desertthunder/cratedig/internal/shared"
)

// CompletionService implements [Completer] against any provider that speaks
// the OpenAI chat-completions wire format.
type CompletionService struct {
	baseURL    string
	apiKey     string
	model      string
	provider   string
	httpClient *http.Client
}

// NewCompletionService creates a completion client. baseURL should point at
// the provider's v1 root (e.g. "https://api.openai.com/v1").
func NewCompletionService(baseURL, apiKey, model, provider string) (*CompletionService, error) {
	if baseURL == "" || apiKey == "" {
		return nil, fmt.Errorf("%w: llm base_url and api_key are required", shared.ErrMissingCredentials)
	}
	if provider == "" {
		provider = "openai"
	}

	return &CompletionService{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     apiKey,
		model:      model,
		provider:   provider,
		httpClient: http.DefaultClient,
	}, nil
}

// DefaultModel returns the configured model used when a request omits one.
func (s *CompletionService) DefaultModel() string {
	return s.model
}

type chatCompletionPayload struct {
	Model          string          `json:"model"`
	Messages       []Message       `json:"messages"`
	Temperature    float64         `json:"temperature"`
	MaxTokens      int             `json:"max_completion_tokens,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type       string         `json:"type"`
	JSONSchema map[string]any `json:"json_schema,omitempty"`
}

type chatCompletionResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage Usage `json:"usage"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Complete submits one chat completion. Provider and transport failures are
// wrapped in [shared.ErrLLMRequest] with the provider's message preserved.
func (s *CompletionService) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	model := req.Model
	if model == "" {
		model = s.model
	}

	payload := chatCompletionPayload{
		Model:       model,
		Messages:    req.Messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}
	if req.ResponseSchema != nil {
		payload.ResponseFormat = &responseFormat{
			Type: "json_schema",
			JSONSchema: map[string]any{
				"name":   req.ResponseSchema.Name,
				"strict": true,
				"schema": req.ResponseSchema.Schema,
			},
		}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal completion payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+s.apiKey)

	start := time.Now()
	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrLLMRequest, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", shared.ErrLLMRequest, err)
	}

	var completion chatCompletionResponse
	if err := json.Unmarshal(raw, &completion); err != nil {
		return nil, fmt.Errorf("%w: status %d: undecodable body", shared.ErrLLMRequest, resp.StatusCode)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := fmt.Sprintf("status %d", resp.StatusCode)
		if completion.Error != nil && completion.Error.Message != "" {
			msg = completion.Error.Message
		}
		return nil, fmt.Errorf("%w: %s", shared.ErrLLMRequest, msg)
	}

	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("%w: provider returned no choices", shared.ErrLLMRequest)
	}

	return &CompletionResponse{
		Content:   completion.Choices[0].Message.Content,
		Usage:     completion.Usage,
		LatencyMS: time.Since(start).Milliseconds(),
		Model:     completion.Model,
		Provider:  s.provider,
	}, nil
}
