// Package openweathermap provides a client for the OpenWeatherMap air pollution API.
package openweathermap

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/ratheesh-17/airaware/internal/pollution"
	"github.com/ratheesh-17/airaware/internal/provider/resilience"
)

const (
	// ProviderName identifies this pollution provider in the quota ledger.
	ProviderName = "openweathermap"

	// DefaultBaseURL is the OpenWeatherMap API base URL.
	DefaultBaseURL = "https://api.openweathermap.org/data/2.5"

	// DefaultTimeout bounds a single air pollution request.
	DefaultTimeout = 10 * time.Second
)

// ClientConfig holds configuration for the OpenWeatherMap client.
type ClientConfig struct {
	// APIKey is the OpenWeatherMap API key (required).
	APIKey string

	// BaseURL is the API base URL (optional, defaults to OpenWeatherMap API).
	BaseURL string

	// HTTPClient is the HTTP client to use (optional).
	// If nil, uses a resilient client with retries disabled: each logical
	// call is quota-accounted, so one call must never fan out into several
	// provider requests.
	HTTPClient *resilience.Client

	// Timeout is the request timeout (optional, defaults to 10s).
	Timeout time.Duration

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client is an OpenWeatherMap air pollution API client.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *resilience.Client
	logger     zerolog.Logger
}

// NewClient creates a new OpenWeatherMap client.
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
		clientCfg.DisableRetries = true
		httpClient = resilience.NewClient(clientCfg)
	}

	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     cfg.Logger,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// FetchComponents fetches pollutant components near a coordinate.
func (c *Client) FetchComponents(ctx context.Context, lat, lon float64) (*pollution.Components, error) {
	url := fmt.Sprintf("%s/air_pollution?lat=%.6f&lon=%.6f&appid=%s",
		c.baseURL, lat, lon, c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", pollution.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", pollution.ErrProviderUnavailable, resp.StatusCode)
	}

	var owmResp airPollutionResponse
	if err := json.NewDecoder(resp.Body).Decode(&owmResp); err != nil {
		return nil, fmt.Errorf("%w: %v", pollution.ErrMalformedPayload, err)
	}

	if len(owmResp.List) == 0 {
		return nil, pollution.ErrMalformedPayload
	}

	entry := owmResp.List[0]
	components := &pollution.Components{
		PM25:       entry.Components.PM25,
		PM10:       entry.Components.PM10,
		NO2:        entry.Components.NO2,
		CO:         entry.Components.CO,
		O3:         entry.Components.O3,
		ObservedAt: time.Unix(entry.Dt, 0),
	}

	c.logger.Debug().
		Float64("lat", lat).
		Float64("lon", lon).
		Float64("pm2_5", components.PM25).
		Msg("fetched air pollution components")

	return components, nil
}

// OpenWeatherMap API response structures.

type airPollutionResponse struct {
	List []struct {
		Dt         int64 `json:"dt"`
		Components struct {
			CO   float64 `json:"co"`
			NO   float64 `json:"no"`
			NO2  float64 `json:"no2"`
			O3   float64 `json:"o3"`
			SO2  float64 `json:"so2"`
			PM25 float64 `json:"pm2_5"`
			PM10 float64 `json:"pm10"`
			NH3  float64 `json:"nh3"`
		} `json:"components"`
	} `json:"list"`
}

// Ensure Client implements the Provider interface.
var _ pollution.Provider = (*Client)(nil)
