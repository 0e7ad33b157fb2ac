package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/pdfrag/internal/domain"
	"github.com/kailas-cloud/pdfrag/internal/metrics"
)

const (
	completionTemperature = 0.7
	completionMaxTokens   = 1000
)

// Completer sends single-message chat completion requests to an
// OpenAI-compatible endpoint chosen per call.
type Completer struct {
	apiKey  string
	timeout time.Duration
	logger  *zap.Logger
}

// CompleterConfig holds the completion client settings.
type CompleterConfig struct {
	APIKey  string
	Timeout time.Duration
	Logger  *zap.Logger
}

// NewCompleter creates a completion client.
func NewCompleter(cfg *CompleterConfig) *Completer {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Completer{apiKey: cfg.APIKey, timeout: timeout, logger: logger}
}

// Complete posts prompt as the only user message to exactly endpoint and
// returns the trimmed content of the first choice. Failures are reported as
// *domain.CompletionError classified as request or response errors.
func (c *Completer) Complete(ctx context.Context, endpoint, model, prompt string) (string, error) {
	target, err := url.Parse(endpoint)
	if err != nil || target.Scheme == "" || target.Host == "" {
		if err == nil {
			err = fmt.Errorf("invalid endpoint %q", endpoint)
		}
		metrics.CompletionRequestsTotal.WithLabelValues(model, "request_error").Inc()
		return "", &domain.CompletionError{Kind: domain.ErrCompletionRequest, Err: err}
	}

	cfg := openai.DefaultConfig(c.apiKey)
	cfg.BaseURL = strings.TrimSuffix(endpoint, "/")
	doer := &endpointDoer{
		target: target,
		client: &http.Client{Timeout: c.timeout},
	}
	cfg.HTTPClient = doer
	client := openai.NewClientWithConfig(cfg)

	req := openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: completionTemperature,
		MaxTokens:   completionMaxTokens,
	}

	start := time.Now()
	resp, err := client.CreateChatCompletion(ctx, req)
	duration := time.Since(start)
	metrics.CompletionRequestDuration.WithLabelValues(model).Observe(duration.Seconds())

	if err != nil {
		kind := classifyCompletionError(err, doer.received)
		metrics.CompletionRequestsTotal.WithLabelValues(model, statusLabel(kind)).Inc()
		c.logger.Warn("completion failed",
			zap.String("endpoint", endpoint),
			zap.String("model", model),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return "", &domain.CompletionError{Kind: kind, Err: err}
	}

	content, err := firstChoiceContent(doer.body)
	if err != nil {
		metrics.CompletionRequestsTotal.WithLabelValues(model, "response_error").Inc()
		c.logger.Warn("malformed completion response",
			zap.String("endpoint", endpoint),
			zap.String("model", model),
			zap.Error(err),
		)
		return "", &domain.CompletionError{Kind: domain.ErrCompletionResponse, Err: err}
	}

	metrics.CompletionRequestsTotal.WithLabelValues(model, "success").Inc()
	c.logger.Debug("completion done",
		zap.String("model", model),
		zap.Duration("duration", duration),
		zap.Int("total_tokens", resp.Usage.TotalTokens),
	)

	return strings.TrimSpace(content), nil
}

// choicesEnvelope keeps pointers so that absent members can be told apart
// from empty ones.
type choicesEnvelope struct {
	Choices []struct {
		Message *struct {
			Content *string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// firstChoiceContent reads choices[0].message.content from the raw body.
// A missing or null member at any level is an error; an empty string is not.
func firstChoiceContent(body []byte) (string, error) {
	var env choicesEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return "", fmt.Errorf("decode completion: %w", err)
	}
	switch {
	case len(env.Choices) == 0:
		return "", errors.New("response has no choices")
	case env.Choices[0].Message == nil:
		return "", errors.New("choices[0] has no message")
	case env.Choices[0].Message.Content == nil:
		return "", errors.New("choices[0].message has no content")
	}
	return *env.Choices[0].Message.Content, nil
}

// classifyCompletionError separates failures before any response arrived
// (client-side validation, transport, HTTP status) from undecodable bodies.
func classifyCompletionError(err error, received bool) error {
	if !received {
		return domain.ErrCompletionRequest
	}
	var (
		apiErr *openai.APIError
		reqErr *openai.RequestError
		urlErr *url.Error
		netErr net.Error
	)
	switch {
	case errors.As(err, &apiErr),
		errors.As(err, &reqErr),
		errors.As(err, &urlErr),
		errors.As(err, &netErr),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return domain.ErrCompletionRequest
	default:
		return domain.ErrCompletionResponse
	}
}

func statusLabel(kind error) string {
	if errors.Is(kind, domain.ErrCompletionRequest) {
		return "request_error"
	}
	return "response_error"
}

// endpointDoer sends every request to one fixed URL. The go-openai client
// appends route suffixes to BaseURL; the configured endpoint is already complete.
// It serves a single call and keeps the response body for inspection.
type endpointDoer struct {
	target   *url.URL
	client   *http.Client
	received bool
	body     []byte
}

func (d *endpointDoer) Do(req *http.Request) (*http.Response, error) {
	u := *d.target
	req.URL = &u
	req.Host = u.Host

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, err //nolint:wrapcheck // classified by the caller
	}
	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("read completion body: %w", err)
	}
	d.received = true
	d.body = body
	resp.Body = io.NopCloser(bytes.NewReader(body))
	return resp, nil
}
