package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/pdfrag/internal/domain"
)

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
}

func chatResponse(content string) map[string]any {
	return map[string]any{
		"id":     "chatcmpl-1",
		"object": "chat.completion",
		"model":  "local-model",
		"choices": []map[string]any{
			{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": content},
			},
		},
		"usage": map[string]any{"prompt_tokens": 12, "completion_tokens": 3, "total_tokens": 15},
	}
}

func TestCompleter_Complete(t *testing.T) {
	var got chatRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/custom/v1/chat" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method: %s", r.Method)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(chatResponse("  The answer [1].  \n"))
	}))
	defer server.Close()

	c := NewCompleter(&CompleterConfig{APIKey: "k", Logger: zap.NewNop()})

	answer, err := c.Complete(context.Background(), server.URL+"/custom/v1/chat", "local-model", "hello prompt")
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if answer != "The answer [1]." {
		t.Errorf("answer = %q, want trimmed content", answer)
	}

	if got.Model != "local-model" {
		t.Errorf("model = %q", got.Model)
	}
	if len(got.Messages) != 1 || got.Messages[0].Role != "user" || got.Messages[0].Content != "hello prompt" {
		t.Errorf("unexpected messages: %+v", got.Messages)
	}
	if got.Temperature < 0.69 || got.Temperature > 0.71 {
		t.Errorf("temperature = %f, want 0.7", got.Temperature)
	}
	if got.MaxTokens != 1000 {
		t.Errorf("max_tokens = %d, want 1000", got.MaxTokens)
	}
}

func TestCompleter_HTTPErrorIsRequestError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("boom"))
	}))
	defer server.Close()

	c := NewCompleter(&CompleterConfig{})

	_, err := c.Complete(context.Background(), server.URL, "m", "p")
	if !errors.Is(err, domain.ErrCompletionRequest) {
		t.Fatalf("expected ErrCompletionRequest, got %v", err)
	}
}

func TestCompleter_UnreachableIsRequestError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	endpoint := server.URL + "/v1/chat/completions"
	server.Close()

	c := NewCompleter(&CompleterConfig{Timeout: time.Second})

	_, err := c.Complete(context.Background(), endpoint, "m", "p")
	if !errors.Is(err, domain.ErrCompletionRequest) {
		t.Fatalf("expected ErrCompletionRequest, got %v", err)
	}
}

func TestCompleter_InvalidEndpointIsRequestError(t *testing.T) {
	c := NewCompleter(&CompleterConfig{})

	_, err := c.Complete(context.Background(), "not a url", "m", "p")
	if !errors.Is(err, domain.ErrCompletionRequest) {
		t.Fatalf("expected ErrCompletionRequest, got %v", err)
	}
}

func TestCompleter_MalformedBodyIsResponseError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte("this is not json"))
	}))
	defer server.Close()

	c := NewCompleter(&CompleterConfig{})

	_, err := c.Complete(context.Background(), server.URL, "m", "p")
	if !errors.Is(err, domain.ErrCompletionResponse) {
		t.Fatalf("expected ErrCompletionResponse, got %v", err)
	}
}

func TestCompleter_NoChoicesIsResponseError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"x","choices":[]}`))
	}))
	defer server.Close()

	c := NewCompleter(&CompleterConfig{})

	_, err := c.Complete(context.Background(), server.URL, "m", "p")
	if !errors.Is(err, domain.ErrCompletionResponse) {
		t.Fatalf("expected ErrCompletionResponse, got %v", err)
	}

	var ce *domain.CompletionError
	if !errors.As(err, &ce) || !strings.Contains(ce.Error(), "no choices") {
		t.Errorf("unexpected error detail: %v", err)
	}
}

func TestCompleter_ChoiceWithoutMessageIsResponseError(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		detail string
	}{
		{"empty choice", `{"choices":[{}]}`, "no message"},
		{"null message", `{"choices":[{"message":null}]}`, "no message"},
		{"empty message", `{"choices":[{"message":{}}]}`, "no content"},
		{"role only", `{"choices":[{"message":{"role":"assistant"}}]}`, "no content"},
		{"null content", `{"choices":[{"message":{"role":"assistant","content":null}}]}`, "no content"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			c := NewCompleter(&CompleterConfig{})

			answer, err := c.Complete(context.Background(), server.URL, "m", "p")
			if !errors.Is(err, domain.ErrCompletionResponse) {
				t.Fatalf("expected ErrCompletionResponse, got answer=%q err=%v", answer, err)
			}
			if !strings.Contains(err.Error(), tt.detail) {
				t.Errorf("error %q should mention %q", err.Error(), tt.detail)
			}
		})
	}
}

func TestCompleter_EmptyContentIsValid(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(chatResponse("   "))
	}))
	defer server.Close()

	c := NewCompleter(&CompleterConfig{})

	answer, err := c.Complete(context.Background(), server.URL, "m", "p")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if answer != "" {
		t.Errorf("got %q, want empty answer", answer)
	}
}

func TestCompleter_ClientValidationIsRequestError(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(chatResponse("unreachable"))
	}))
	defer server.Close()

	c := NewCompleter(&CompleterConfig{})

	// Reasoning models reject max_tokens before anything is sent.
	_, err := c.Complete(context.Background(), server.URL, "o1-mini", "p")
	if !errors.Is(err, domain.ErrCompletionRequest) {
		t.Fatalf("expected ErrCompletionRequest, got %v", err)
	}
	if calls != 0 {
		t.Errorf("server should not be called, got %d calls", calls)
	}
}

func TestCompleter_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer server.Close()
	defer close(release)

	c := NewCompleter(&CompleterConfig{Timeout: 50 * time.Millisecond})

	_, err := c.Complete(context.Background(), server.URL, "m", "p")
	if !errors.Is(err, domain.ErrCompletionRequest) {
		t.Fatalf("expected ErrCompletionRequest on timeout, got %v", err)
	}
}
