// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"
)

const (
	// DefaultBaseURL points at the OpenAI chat completions host.
	DefaultBaseURL = "https://api.openai.com"
	// DefaultModel is used when no model is configured.
	DefaultModel = "gpt-4o-mini"
	// DefaultTimeout bounds a single upstream call.
	DefaultTimeout = 25 * time.Second

	maxAttempts = 2
	temperature = 0.7
)

// ErrNoAPIKey is returned when the client was built without a credential.
var ErrNoAPIKey = errors.New("서버에 OPENAI_API_KEY가 설정되지 않았습니다.")

// Client calls the completions endpoint and returns validated analyses.
// Transient upstream failures (5xx, unparseable or invalid output, network
// errors) are retried once with a linearly growing backoff; 4xx responses
// are terminal.
type Client struct {
	httpClient *http.Client
	clock      clockwork.Clock
	baseURL    string
	apiKey     string
	model      string
	timeout    time.Duration
	backoff    time.Duration
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient overrides the transport.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// WithBaseURL points the client at a different completions host.
func WithBaseURL(u string) ClientOption {
	return func(c *Client) { c.baseURL = u }
}

// WithModel selects the model.
func WithModel(m string) ClientOption {
	return func(c *Client) { c.model = m }
}

// WithTimeout bounds each upstream call.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) { c.timeout = d }
}

// WithBackoffUnit sets the base backoff; the delay before retry n is n times
// this unit.
func WithBackoffUnit(d time.Duration) ClientOption {
	return func(c *Client) { c.backoff = d }
}

// WithClientClock injects the clock used for timestamps.
func WithClientClock(clock clockwork.Clock) ClientOption {
	return func(c *Client) { c.clock = clock }
}

// NewClient builds a client for the given API key.
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{},
		clock:      clockwork.NewRealClock(),
		baseURL:    DefaultBaseURL,
		apiKey:     apiKey,
		model:      DefaultModel,
		timeout:    DefaultTimeout,
		backoff:    time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Model returns the configured model name.
func (c *Client) Model() string { return c.model }

// Result is a successful generation.
type Result struct {
	Model         string    `json:"model"`
	CreatedAt     time.Time `json:"createdAt"`
	PromptVersion string    `json:"promptVersion"`
	Analysis      *Analysis `json:"result"`

	// RawJSON is the cleaned model output, kept for storage.
	RawJSON string `json:"-"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type       string           `json:"type"`
	JSONSchema jsonSchemaFormat `json:"json_schema"`
}

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	ResponseFormat responseFormat `json:"response_format"`
	Temperature    float64        `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Generate runs one analysis for the given guide and input text.
func (c *Client) Generate(ctx context.Context, guide GuideID, inputText string, meta Meta) (*Result, error) {
	if c.apiKey == "" {
		return nil, ErrNoAPIKey
	}
	system, err := SystemPrompt(guide)
	if err != nil {
		return nil, err
	}
	user := UserMessage(inputText, meta)

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		analysis, raw, retryable, err := c.attempt(ctx, system, user)
		if err == nil {
			return &Result{
				Model:         c.model,
				CreatedAt:     c.clock.Now().UTC(),
				PromptVersion: PromptVersion,
				Analysis:      analysis,
				RawJSON:       raw,
			}, nil
		}
		lastErr = err
		if !retryable || attempt == maxAttempts {
			return nil, lastErr
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(attempt) * c.backoff):
		}
	}
	return nil, lastErr
}

// attempt makes one upstream call. retryable reports whether the error is
// worth another attempt.
func (c *Client) attempt(ctx context.Context, system, user string) (analysis *Analysis, raw string, retryable bool, err error) {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		ResponseFormat: responseFormat{Type: "json_schema", JSONSchema: reflectionSchema()},
		Temperature:    temperature,
	})
	if err != nil {
		return nil, "", false, fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, c.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, "", false, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || callCtx.Err() == context.DeadlineExceeded {
			return nil, "", true, errors.New("AI 응답 시간이 초과되었습니다. 잠시 후 다시 시도해주세요.")
		}
		return nil, "", true, fmt.Errorf("네트워크 오류: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errText, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
		callErr := fmt.Errorf("AI 호출 실패 (%d): %s", resp.StatusCode, string(errText))
		return nil, "", resp.StatusCode >= 500, callErr
	}

	var cr chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return nil, "", true, fmt.Errorf("decoding response: %w", err)
	}
	if len(cr.Choices) == 0 || cr.Choices[0].Message.Content == "" {
		return nil, "", true, errors.New("AI 응답에 내용이 없습니다.")
	}

	analysis, raw, err = ParseAnalysis(cr.Choices[0].Message.Content)
	if err != nil {
		return nil, "", true, err
	}
	return analysis, raw, false, nil
}
