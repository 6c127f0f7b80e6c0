// Package sendgrid delivers alert notifications through the SendGrid v3
// mail send API.
package sendgrid

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/ratheesh-17/airaware/internal/provider/resilience"
)

const (
	// ProviderName identifies this dispatcher.
	ProviderName = "sendgrid"

	// DefaultBaseURL is the SendGrid API base URL.
	DefaultBaseURL = "https://api.sendgrid.com"

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 10 * time.Second
)

// HTTPDoer is an interface for executing HTTP requests.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientConfig holds configuration for the SendGrid client.
type ClientConfig struct {
	// APIKey is the SendGrid API key. Empty disables delivery.
	APIKey string

	// FromEmail is the verified sender address. Empty disables delivery.
	FromEmail string

	// BaseURL is the API base URL (optional, defaults to SendGrid).
	BaseURL string

	// HTTPClient is the HTTP client to use (optional).
	HTTPClient HTTPDoer

	// Timeout is the request timeout (optional, defaults to 10s).
	Timeout time.Duration

	// Registry is the provider registry for health tracking (optional).
	Registry *resilience.Registry

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client sends plain-text mail via SendGrid. Delivery outcome is reported
// as a bool; transport errors are logged, never returned.
type Client struct {
	apiKey     string
	fromEmail  string
	baseURL    string
	httpClient HTTPDoer
	logger     zerolog.Logger
}

type mailRequest struct {
	Personalizations []personalization `json:"personalizations"`
	From             emailAddress      `json:"from"`
	Content          []mailContent     `json:"content"`
}

type personalization struct {
	To      []emailAddress `json:"to"`
	Subject string         `json:"subject"`
}

type emailAddress struct {
	Email string `json:"email"`
}

type mailContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// NewClient creates a new SendGrid client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		clientCfg := resilience.DefaultClientConfig(ProviderName)
		clientCfg.Timeout = timeout
		// Mail send is not idempotent, never retry it.
		clientCfg.DisableRetries = true
		if cfg.Registry != nil {
			clientCfg.Registry = cfg.Registry
		}
		httpClient = resilience.NewClient(clientCfg)
	}

	return &Client{
		apiKey:     cfg.APIKey,
		fromEmail:  cfg.FromEmail,
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     cfg.Logger,
	}
}

// Name returns the dispatcher name.
func (c *Client) Name() string {
	return ProviderName
}

// Send delivers one plain-text message and reports whether SendGrid
// accepted it. An unconfigured client (missing key or sender) logs a
// warning and reports false without attempting delivery.
func (c *Client) Send(ctx context.Context, to, subject, body string) bool {
	if c.apiKey == "" || c.fromEmail == "" {
		c.logger.Warn().Msg("sendgrid not configured, cannot send notification")
		return false
	}

	payload := mailRequest{
		Personalizations: []personalization{
			{To: []emailAddress{{Email: to}}, Subject: subject},
		},
		From:    emailAddress{Email: c.fromEmail},
		Content: []mailContent{{Type: "text/plain", Value: body}},
	}

	reqBody, err := json.Marshal(payload)
	if err != nil {
		c.logger.Error().Err(err).Msg("marshaling mail request failed")
		return false
	}

	url := c.baseURL + "/v3/mail/send"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
	if err != nil {
		c.logger.Error().Err(err).Msg("creating mail request failed")
		return false
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn().Err(err).Msg("sendgrid request failed")
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		c.logger.Warn().
			Int("status", resp.StatusCode).
			Msg("sendgrid rejected mail request")
		return false
	}

	return true
}
