// Package modelserver provides a client for the pollutant regression
// inference service.
package modelserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/ratheesh-17/airaware/internal/forecast"
	"github.com/ratheesh-17/airaware/internal/provider/resilience"
)

const (
	// ProviderName identifies the inference service.
	ProviderName = "modelserver"

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 10 * time.Second
)

// HTTPDoer is an interface for executing HTTP requests.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientConfig holds configuration for the inference client.
type ClientConfig struct {
	// BaseURL is the inference service base URL (required).
	BaseURL string

	// FeatureCount is the model's expected feature vector length (required).
	FeatureCount int

	// HTTPClient is the HTTP client to use (optional).
	// If nil, uses a resilient client with defaults.
	HTTPClient HTTPDoer

	// Timeout is the request timeout (optional, defaults to 10s).
	Timeout time.Duration

	// Registry is the provider registry for health tracking (optional).
	Registry *resilience.Registry

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client calls the regression inference service over HTTP.
type Client struct {
	baseURL      string
	featureCount int
	httpClient   HTTPDoer
	logger       zerolog.Logger
}

type predictRequest struct {
	Features []float64 `json:"features"`
}

type predictResponse struct {
	Forecast []float64 `json:"forecast"`
}

// NewClient creates a new inference client.
func NewClient(cfg ClientConfig) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		clientCfg := resilience.DefaultClientConfig(ProviderName)
		clientCfg.Timeout = timeout
		if cfg.Registry != nil {
			clientCfg.Registry = cfg.Registry
		}
		httpClient = resilience.NewClient(clientCfg)
	}

	return &Client{
		baseURL:      cfg.BaseURL,
		featureCount: cfg.FeatureCount,
		httpClient:   httpClient,
		logger:       cfg.Logger,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// Predict returns one forecast value per horizon for the given feature
// vector. Vectors that do not match the model schema length are rejected
// before any network call.
func (c *Client) Predict(ctx context.Context, features []float64) ([]float64, error) {
	if len(features) != c.featureCount {
		return nil, fmt.Errorf("%w: got %d, want %d",
			forecast.ErrVectorLength, len(features), c.featureCount)
	}

	body, err := json.Marshal(predictRequest{Features: features})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	url := c.baseURL + "/v1/predict"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", forecast.ErrInferenceUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn().
			Int("status", resp.StatusCode).
			Msg("inference service returned non-200")
		return nil, fmt.Errorf("%w: status %d", forecast.ErrInferenceUnavailable, resp.StatusCode)
	}

	var parsed predictResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %s", forecast.ErrInferenceUnavailable, err)
	}

	if len(parsed.Forecast) == 0 {
		return nil, fmt.Errorf("%w: empty forecast", forecast.ErrInferenceUnavailable)
	}

	return parsed.Forecast, nil
}
