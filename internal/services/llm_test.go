package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/desertthunder/cratedig/internal/shared"
)

// failingTransport simulates a transport-level failure.
type failingTransport struct{ err error }

func (f *failingTransport) RoundTrip(*http.Request) (*http.Response, error) {
	return nil, f.err
}

func testCompleter(server *httptest.Server) *CompletionService {
	return &CompletionService{
		baseURL:    server.URL,
		apiKey:     "test-key",
		model:      "test-model",
		provider:   "test",
		httpClient: server.Client(),
	}
}

func TestCompletionService(t *testing.T) {
	ctx := context.Background()

	t.Run("NewCompletionService", func(t *testing.T) {
		t.Run("Requires Base URL And Key", func(t *testing.T) {
			if _, err := NewCompletionService("", "key", "m", ""); !errors.Is(err, shared.ErrMissingCredentials) {
				t.Errorf("expected ErrMissingCredentials, got %v", err)
			}
			if _, err := NewCompletionService("https://api.example.com/v1", "", "m", ""); !errors.Is(err, shared.ErrMissingCredentials) {
				t.Errorf("expected ErrMissingCredentials, got %v", err)
			}
		})

		t.Run("Defaults Provider And Trims Slash", func(t *testing.T) {
			svc, err := NewCompletionService("https://api.example.com/v1/", "key", "gpt-4o-mini", "")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if svc.provider != "openai" {
				t.Errorf("expected default provider openai, got %s", svc.provider)
			}
			if strings.HasSuffix(svc.baseURL, "/") {
				t.Errorf("trailing slash kept: %s", svc.baseURL)
			}
			if svc.DefaultModel() != "gpt-4o-mini" {
				t.Errorf("unexpected default model %s", svc.DefaultModel())
			}
		})
	})

	t.Run("Complete", func(t *testing.T) {
		t.Run("Sends Schema And Returns Content", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/chat/completions" {
					t.Errorf("unexpected path %s", r.URL.Path)
				}
				if r.Header.Get("Authorization") != "Bearer test-key" {
					t.Error("missing bearer token")
				}

				var payload map[string]any
				if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
					t.Fatalf("undecodable payload: %v", err)
				}
				if payload["model"] != "test-model" {
					t.Errorf("unexpected model %v", payload["model"])
				}
				format, _ := payload["response_format"].(map[string]any)
				if format["type"] != "json_schema" {
					t.Errorf("expected json_schema response format, got %v", format)
				}
				if payload["max_completion_tokens"] != float64(1200) {
					t.Errorf("token budget lost: %v", payload["max_completion_tokens"])
				}

				json.NewEncoder(w).Encode(map[string]any{
					"model": "test-model-2024",
					"choices": []map[string]any{
						{"message": map[string]any{"content": `{"ok": true}`}},
					},
					"usage": map[string]any{"prompt_tokens": 100, "completion_tokens": 20, "total_tokens": 120},
				})
			}))
			defer server.Close()

			resp, err := testCompleter(server).Complete(ctx, CompletionRequest{
				Messages:       []Message{{Role: "user", Content: "hi"}},
				ResponseSchema: &ResponseSchema{Name: "shape", Schema: map[string]any{"type": "object"}},
				MaxTokens:      1200,
			})
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if resp.Content != `{"ok": true}` {
				t.Errorf("unexpected content %q", resp.Content)
			}
			if resp.Usage.TotalTokens != 120 || resp.Model != "test-model-2024" || resp.Provider != "test" {
				t.Errorf("metadata lost: %+v", resp)
			}
		})

		t.Run("Preserves Provider Error Message", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				json.NewEncoder(w).Encode(map[string]any{
					"error": map[string]any{"message": "context length exceeded", "type": "invalid_request_error"},
				})
			}))
			defer server.Close()

			_, err := testCompleter(server).Complete(ctx, CompletionRequest{Messages: []Message{{Role: "user", Content: "hi"}}})
			if !errors.Is(err, shared.ErrLLMRequest) {
				t.Fatalf("expected ErrLLMRequest, got %v", err)
			}
			if !strings.Contains(err.Error(), "context length exceeded") {
				t.Errorf("provider message lost: %v", err)
			}
		})

		t.Run("No Choices", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
			}))
			defer server.Close()

			_, err := testCompleter(server).Complete(ctx, CompletionRequest{Messages: []Message{{Role: "user", Content: "hi"}}})
			if !errors.Is(err, shared.ErrLLMRequest) {
				t.Errorf("expected ErrLLMRequest, got %v", err)
			}
		})

		t.Run("Transport Failure", func(t *testing.T) {
			svc := &CompletionService{
				baseURL:    "http://127.0.0.1:1",
				apiKey:     "k",
				model:      "m",
				provider:   "test",
				httpClient: &http.Client{Transport: &failingTransport{err: errors.New("connection failed")}},
			}

			_, err := svc.Complete(ctx, CompletionRequest{Messages: []Message{{Role: "user", Content: "hi"}}})
			if !errors.Is(err, shared.ErrLLMRequest) {
				t.Errorf("expected ErrLLMRequest, got %v", err)
			}
		})
	})
}
