package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/outreach/outreach-chat/internal/auth"
	"github.com/outreach/outreach-chat/internal/logging"
	"github.com/outreach/outreach-chat/internal/models"
)

const (
	// DefaultBaseURL is used when no API URL is configured
	DefaultBaseURL = "http://localhost:3001/api"
	// DefaultTimeout bounds every request
	DefaultTimeout = 30 * time.Second

	maxErrorBody = 4 << 10
)

// Config holds the API client configuration
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client talks to the remote outreach API. Every request carries the bearer
// token from the credential store; a 401 invalidates that store.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	credentials *auth.CredentialStore
	logger      *logrus.Logger
}

// New creates an API client. A nil logger discards log output.
func New(cfg Config, credentials *auth.CredentialStore, logger *logrus.Logger) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if credentials == nil {
		credentials = auth.NewCredentialStore("")
	}
	if logger == nil {
		logger = logging.Discard()
	}

	return &Client{
		baseURL:     baseURL,
		httpClient:  &http.Client{Timeout: timeout},
		credentials: credentials,
		logger:      logger,
	}
}

// BaseURL returns the normalized API root
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) do(ctx context.Context, op, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return &TransportError{Op: op, Kind: KindNetwork, Err: fmt.Errorf("failed to encode request: %w", err)}
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return &TransportError{Op: op, Kind: KindNetwork, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token := c.credentials.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.WithFields(logrus.Fields{"op": op, "path": path}).WithError(err).Warn("request failed")
		return &TransportError{Op: op, Kind: KindNetwork, Err: err}
	}
	defer resp.Body.Close()

	c.logger.WithFields(logrus.Fields{
		"op":      op,
		"method":  method,
		"path":    path,
		"status":  resp.StatusCode,
		"elapsed": time.Since(start).String(),
	}).Debug("api request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if resp.StatusCode == http.StatusUnauthorized {
			c.logger.WithField("op", op).Warn("credentials rejected, signing out")
			c.credentials.Invalidate()
		}
		return &TransportError{
			Op:         op,
			Kind:       KindStatus,
			StatusCode: resp.StatusCode,
			Message:    readErrorMessage(resp.Body),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &TransportError{Op: op, Kind: KindDecode, StatusCode: resp.StatusCode, Err: err}
	}
	return nil
}

func readErrorMessage(r io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(r, maxErrorBody))
	if err != nil || len(raw) == 0 {
		return ""
	}
	var body models.ErrorResponse
	if err := json.Unmarshal(raw, &body); err == nil && body.Error != "" {
		return body.Error
	}
	return strings.TrimSpace(string(raw))
}
