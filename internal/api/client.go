package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// HTTPClient is the production Client backed by the question-serving API.
type HTTPClient struct {
	baseURL string
	token   string
	client  *http.Client
}

var _ Client = (*HTTPClient)(nil)

// NewHTTPClient creates a client for the given config.
func NewHTTPClient(cfg Config) (*HTTPClient, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
		client:  &http.Client{Timeout: cfg.Timeout},
	}, nil
}

func (c *HTTPClient) SessionStatus(ctx context.Context) (*SessionStatus, error) {
	var out SessionStatus
	if err := c.do(ctx, http.MethodGet, "/sessions/status", nil, &out, nil); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) StartSession(ctx context.Context) (*StartedSession, error) {
	var out StartedSession
	if err := c.do(ctx, http.MethodPost, "/sessions", nil, &out, nil); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) NextQuestion(ctx context.Context, sessionID string) (*NextQuestion, error) {
	path := fmt.Sprintf("/sessions/%s/next", url.PathEscape(sessionID))
	var out NextQuestion
	if err := c.do(ctx, http.MethodGet, path, nil, &out, nextQuestionSchema); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) SubmitAnswer(ctx context.Context, in SubmitInput) (*AnswerResult, error) {
	path := fmt.Sprintf("/sessions/%s/answers", url.PathEscape(in.SessionID))
	var out AnswerResult
	if err := c.do(ctx, http.MethodPost, path, in, &out, answerResultSchema); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) ReportBrokenAsset(ctx context.Context, questionID string) error {
	path := fmt.Sprintf("/questions/%s/broken-asset", url.PathEscape(questionID))
	return c.do(ctx, http.MethodPost, path, nil, nil, nil)
}

func (c *HTTPClient) LimitStatus(ctx context.Context) (*LimitStatus, error) {
	var out LimitStatus
	if err := c.do(ctx, http.MethodGet, "/account/session-limit", nil, &out, nil); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) AskDoubt(ctx context.Context, in DoubtInput) (*DoubtReceipt, error) {
	var out DoubtReceipt
	if err := c.do(ctx, http.MethodPost, "/doubts", in, &out, nil); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) DoubtHistory(ctx context.Context, questionID string) (*DoubtThread, error) {
	path := fmt.Sprintf("/questions/%s/doubts", url.PathEscape(questionID))
	var out DoubtThread
	if err := c.do(ctx, http.MethodGet, path, nil, &out, nil); err != nil {
		return nil, err
	}
	return &out, nil
}

// do performs one round trip: marshal body, set auth, map error statuses,
// validate the payload against schema when given, and decode into out.
func (c *HTTPClient) do(ctx context.Context, method, path string, body, out any, schema *payloadSchema) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return &ErrTransient{Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if err := mapStatus(resp, path); err != nil {
		return err
	}

	if out == nil {
		return nil
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &ErrTransient{Err: fmt.Errorf("read response: %w", err)}
	}

	if schema != nil {
		if err := validatePayload(schema, raw); err != nil {
			return err
		}
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return &ErrInvalidPayload{Operation: method + " " + path, Err: err}
	}
	return nil
}

// mapStatus converts non-2xx responses into the typed error taxonomy.
func mapStatus(resp *http.Response, path string) error {
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusUnauthorized:
		return &ErrUnauthenticated{Err: fmt.Errorf("HTTP 401 for %s", path)}
	case resp.StatusCode == http.StatusNotFound:
		return &ErrNotFound{Resource: path, Err: fmt.Errorf("HTTP 404")}
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &ErrTransient{
			Status: resp.StatusCode,
			Err:    fmt.Errorf("%s", strings.TrimSpace(string(body))),
		}
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("HTTP %d for %s: %s", resp.StatusCode, path, strings.TrimSpace(string(body)))
	}
}
