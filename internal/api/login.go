package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
)

// loginPath is the authentication endpoint, relative to the service root.
const loginPath = "/login/"

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Access string `json:"access"`
}

// Login exchanges credentials for a bearer token. The request goes through
// Do, so a stale token from a previous session is attached if present; the
// service ignores it for this endpoint.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	c.logger.Info("logging in", slog.String("username", username))

	bodyBytes, err := json.Marshal(loginRequest{Username: username, Password: password})
	if err != nil {
		return "", fmt.Errorf("api: marshaling login request: %w", err)
	}

	resp, err := c.Do(ctx, http.MethodPost, loginPath, "application/json", bytes.NewReader(bodyBytes))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var lr loginResponse
	if decErr := json.NewDecoder(resp.Body).Decode(&lr); decErr != nil {
		return "", fmt.Errorf("api: decoding login response: %w", decErr)
	}

	if lr.Access == "" {
		return "", fmt.Errorf("api: login response missing access token")
	}

	c.logger.Info("login succeeded", slog.String("username", username))

	return lr.Access, nil
}
