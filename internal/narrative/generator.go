// Package narrative produces a short human-readable route recommendation
// from aggregated forecasts, via the Generative Language API. The generator
// degrades to a fixed placeholder whenever the API is unconfigured or
// unavailable; it never returns an error.
package narrative

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ratheesh-17/airaware/internal/forecast"
	"github.com/ratheesh-17/airaware/internal/provider/resilience"
)

const (
	// ProviderName identifies the narrative provider.
	ProviderName = "generativelanguage"

	// DefaultBaseURL is the Generative Language API base URL.
	DefaultBaseURL = "https://generativelanguage.googleapis.com"

	// DefaultModel is the generation model used for summaries.
	DefaultModel = "gemini-1.5-flash"

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 15 * time.Second

	// Placeholder is returned when no summary could be generated.
	Placeholder = "Narrative summary unavailable; compare route forecasts directly."
)

// HTTPDoer is an interface for executing HTTP requests.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// GeneratorConfig holds configuration for the narrative generator.
type GeneratorConfig struct {
	// APIKey is the Generative Language API key. Empty disables generation.
	APIKey string

	// BaseURL is the API base URL (optional).
	BaseURL string

	// Model is the generation model name (optional).
	Model string

	// HTTPClient is the HTTP client to use (optional).
	HTTPClient HTTPDoer

	// Timeout is the request timeout (optional, defaults to 15s).
	Timeout time.Duration

	// Registry is the provider registry for health tracking (optional).
	Registry *resilience.Registry

	// Logger for generator operations.
	Logger zerolog.Logger
}

// Generator builds route-comparison prompts and calls the generation API.
type Generator struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient HTTPDoer
	logger     zerolog.Logger
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// NewGenerator creates a new narrative generator.
func NewGenerator(cfg GeneratorConfig) *Generator {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

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

	return &Generator{
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
		model:      model,
		httpClient: httpClient,
		logger:     cfg.Logger,
	}
}

// Summarize returns a recommendation for the given route summaries. The
// prompt lists each route's first-horizon mean, N/A when missing.
func (g *Generator) Summarize(ctx context.Context, summaries []forecast.RouteSummary) string {
	return g.generate(ctx, BuildPrompt(summaries))
}

// BuildPrompt composes the compact route-comparison prompt.
func BuildPrompt(summaries []forecast.RouteSummary) string {
	var b strings.Builder
	b.WriteString("Compare routes and recommend best and whether to delay.\n")
	for _, s := range summaries {
		first := "N/A"
		if len(s.MeanForecast) > 0 {
			first = fmt.Sprintf("%.1f", s.MeanForecast[0])
		}
		fmt.Fprintf(&b, "Route %d: avg1=%s\n", s.RouteIndex, first)
	}
	return strings.TrimRight(b.String(), "\n")
}

// generate calls the generation API, falling back to the placeholder on any
// failure.
func (g *Generator) generate(ctx context.Context, prompt string) string {
	if g.apiKey == "" {
		g.logger.Warn().Msg("narrative api key not set, returning placeholder summary")
		return Placeholder
	}

	body, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	})
	if err != nil {
		g.logger.Error().Err(err).Msg("marshaling generation request failed")
		return Placeholder
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", g.baseURL, g.model, g.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		g.logger.Error().Err(err).Msg("creating generation request failed")
		return Placeholder
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		g.logger.Warn().Err(err).Msg("narrative generation request failed")
		return Placeholder
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		g.logger.Warn().Err(err).Msg("reading generation response failed")
		return Placeholder
	}

	if resp.StatusCode != http.StatusOK {
		g.logger.Warn().
			Int("status", resp.StatusCode).
			Msg("narrative generation returned non-200")
		return Placeholder
	}

	var parsed generateResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		g.logger.Warn().Err(err).Msg("decoding generation response failed")
		return Placeholder
	}

	for _, candidate := range parsed.Candidates {
		for _, p := range candidate.Content.Parts {
			if text := strings.TrimSpace(p.Text); text != "" {
				return text
			}
		}
	}

	g.logger.Warn().Msg("narrative generation returned no text")
	return Placeholder
}
