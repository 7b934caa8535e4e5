package api

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
)

// defaultUserAgent is used when the caller passes an empty user agent.
const defaultUserAgent = "medvault-go/0.1"

// TokenSource provides the current bearer token. Defined at the consumer
// (api package) per Go convention "accept interfaces, return structs".
// The session package provides the real implementation.
//
// An empty token with a nil error means "no session": the request is sent
// without an Authorization header and the service decides whether to
// reject it. The token is read fresh for every request so a logout taking
// effect mid-session is observed by the very next call.
type TokenSource interface {
	Token() (string, error)
}

// Client is an HTTP client for the MedVault document service. It handles
// request construction, bearer authentication, and error classification.
// Failed calls are never retried automatically — retry is a user action.
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      TokenSource
	logger     *slog.Logger
	userAgent  string
}

// NewClient creates a MedVault API client.
// baseURL is the service root, e.g. "http://localhost:8000".
func NewClient(baseURL string, httpClient *http.Client, token TokenSource, logger *slog.Logger, userAgent string) *Client {
	if logger == nil {
		logger = slog.Default()
	}

	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		token:      token,
		logger:     logger,
		userAgent:  userAgent,
	}
}

// Do executes an HTTP request against the service. The path is appended
// to the client's base URL. contentType applies when body is non-nil.
// Non-2xx responses are converted to *Error with a classified sentinel.
// The caller is responsible for closing the response body on success.
func (c *Client) Do(ctx context.Context, method, path, contentType string, body io.Reader) (*http.Response, error) {
	url := c.baseURL + path

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("api: creating request: %w", err)
	}

	tok, err := c.token.Token()
	if err != nil {
		return nil, fmt.Errorf("api: obtaining token: %w", err)
	}

	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	req.Header.Set("User-Agent", c.userAgent)

	if body != nil {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("api: request canceled: %w", ctx.Err())
		}

		return nil, fmt.Errorf("api: %s %s: %w", method, path, err)
	}

	// 2xx — success.
	if resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices {
		c.logger.Debug("request succeeded",
			slog.String("method", method),
			slog.String("path", path),
			slog.Int("status", resp.StatusCode),
		)

		return resp, nil
	}

	errBody, readErr := io.ReadAll(resp.Body)
	resp.Body.Close()

	if readErr != nil {
		errBody = []byte("(failed to read response body)")
	}

	c.logger.Warn("request failed",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", resp.StatusCode),
	)

	return nil, &Error{
		StatusCode: resp.StatusCode,
		Message:    string(errBody),
		Err:        classifyStatus(resp.StatusCode),
	}
}

// drain discards and closes a response body so the connection can be reused.
func drain(resp *http.Response) error {
	defer resp.Body.Close()

	if _, err := io.Copy(io.Discard, resp.Body); err != nil {
		return fmt.Errorf("api: draining response body: %w", err)
	}

	return nil
}
