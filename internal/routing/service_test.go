package routing_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ratheesh-17/airaware/internal/routing"
	"github.com/ratheesh-17/airaware/pkg/polyline"
)

// fakeProvider returns a scripted response and counts calls.
type fakeProvider struct {
	response *routing.DirectionsResponse
	err      error
	calls    int
}

func (p *fakeProvider) Name() string { return "fake" }

func (p *fakeProvider) GetDirections(_ context.Context, _ routing.DirectionsRequest) (*routing.DirectionsResponse, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return p.response, nil
}

func testResponse() *routing.DirectionsResponse {
	return &routing.DirectionsResponse{
		Routes: []routing.Route{
			{
				Geometry: []polyline.Coordinate{
					{Lat: 12.9716, Lon: 77.5946},
					{Lat: 12.9720, Lon: 77.5950},
				},
				DistanceMeters:  1200,
				DurationSeconds: 240,
			},
		},
		Provider:  "fake",
		FetchedAt: time.Now(),
	}
}

func testRequest() routing.DirectionsRequest {
	return routing.DirectionsRequest{
		Origin:      routing.Coordinate{Lat: 12.9716, Lon: 77.5946},
		Destination: routing.Coordinate{Lat: 12.9352, Lon: 77.6245},
		Profile:     routing.ProfileDrive,
	}
}

func TestService_GetDirections(t *testing.T) {
	provider := &fakeProvider{response: testResponse()}
	svc := routing.NewService(routing.ServiceConfig{
		Provider: provider,
		Logger:   zerolog.Nop(),
	})

	resp, err := svc.GetDirections(context.Background(), testRequest())
	require.NoError(t, err)
	require.Len(t, resp.Routes, 1)
	assert.Equal(t, 1200, resp.Routes[0].DistanceMeters)
	assert.Len(t, resp.Routes[0].Geometry, 2)
}

func TestService_CachesResponses(t *testing.T) {
	provider := &fakeProvider{response: testResponse()}
	svc := routing.NewService(routing.ServiceConfig{
		Provider: provider,
		Logger:   zerolog.Nop(),
	})

	_, err := svc.GetDirections(context.Background(), testRequest())
	require.NoError(t, err)

	_, err = svc.GetDirections(context.Background(), testRequest())
	require.NoError(t, err)

	assert.Equal(t, 1, provider.calls, "second call should be served from cache")
}

func TestService_GridCacheSharesNearbyOrigins(t *testing.T) {
	provider := &fakeProvider{response: testResponse()}
	svc := routing.NewService(routing.ServiceConfig{
		Provider: provider,
		Logger:   zerolog.Nop(),
	})

	req := testRequest()
	_, err := svc.GetDirections(context.Background(), req)
	require.NoError(t, err)

	// Origin moved ~50m, still within the same 0.01 degree grid cell.
	req.Origin.Lat += 0.0005
	_, err = svc.GetDirections(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, 1, provider.calls)
}

// recordingMetrics counts cache and request outcomes.
type recordingMetrics struct {
	requests int
	hits     int
	misses   int
}

func (m *recordingMetrics) RecordRequest(_, _ string, _ time.Duration, _ error) { m.requests++ }
func (m *recordingMetrics) RecordCacheHit(_, _ string)                          { m.hits++ }
func (m *recordingMetrics) RecordCacheMiss(_, _ string)                         { m.misses++ }

func TestService_RecordsCacheMetrics(t *testing.T) {
	provider := &fakeProvider{response: testResponse()}
	metrics := &recordingMetrics{}
	svc := routing.NewService(routing.ServiceConfig{
		Provider: provider,
		Metrics:  metrics,
		Logger:   zerolog.Nop(),
	})

	_, err := svc.GetDirections(context.Background(), testRequest())
	require.NoError(t, err)
	_, err = svc.GetDirections(context.Background(), testRequest())
	require.NoError(t, err)

	assert.Equal(t, 1, metrics.misses)
	assert.Equal(t, 1, metrics.hits)
	assert.Equal(t, 1, metrics.requests)
}

func TestService_StaleIfError(t *testing.T) {
	provider := &fakeProvider{response: testResponse()}
	svc := routing.NewService(routing.ServiceConfig{
		Provider: provider,
		Logger:   zerolog.Nop(),
		CacheTTL: time.Nanosecond,
	})

	_, err := svc.GetDirections(context.Background(), testRequest())
	require.NoError(t, err)

	time.Sleep(time.Millisecond)

	// Cache expired, provider now failing: stale data is served.
	provider.err = routing.ErrProviderUnavailable
	resp, err := svc.GetDirections(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Len(t, resp.Routes, 1)
}

func TestService_InvalidCoordinates(t *testing.T) {
	provider := &fakeProvider{response: testResponse()}
	svc := routing.NewService(routing.ServiceConfig{
		Provider: provider,
		Logger:   zerolog.Nop(),
	})

	tests := []struct {
		name string
		req  routing.DirectionsRequest
	}{
		{
			name: "latitude out of range",
			req: routing.DirectionsRequest{
				Origin:      routing.Coordinate{Lat: 91, Lon: 77.59},
				Destination: routing.Coordinate{Lat: 12.93, Lon: 77.62},
			},
		},
		{
			name: "longitude out of range",
			req: routing.DirectionsRequest{
				Origin:      routing.Coordinate{Lat: 12.97, Lon: 77.59},
				Destination: routing.Coordinate{Lat: 12.93, Lon: 181},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.GetDirections(context.Background(), tt.req)
			assert.ErrorIs(t, err, routing.ErrInvalidCoordinates)
			assert.Equal(t, 0, provider.calls, "validation must reject before any provider call")
		})
	}
}

func TestService_ProviderErrorWithoutCache(t *testing.T) {
	provider := &fakeProvider{err: routing.ErrProviderUnavailable}
	svc := routing.NewService(routing.ServiceConfig{
		Provider: provider,
		Logger:   zerolog.Nop(),
	})

	_, err := svc.GetDirections(context.Background(), testRequest())
	assert.ErrorIs(t, err, routing.ErrProviderUnavailable)
}

func TestService_InvalidateCache(t *testing.T) {
	provider := &fakeProvider{response: testResponse()}
	svc := routing.NewService(routing.ServiceConfig{
		Provider: provider,
		Logger:   zerolog.Nop(),
	})

	_, err := svc.GetDirections(context.Background(), testRequest())
	require.NoError(t, err)

	svc.InvalidateCache()

	_, err = svc.GetDirections(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Equal(t, 2, provider.calls)
}

func TestError_IsRetryable(t *testing.T) {
	retryable := &routing.Error{Err: routing.ErrProviderUnavailable}
	assert.True(t, retryable.IsRetryable())

	notRetryable := &routing.Error{Err: routing.ErrInvalidCoordinates}
	assert.False(t, notRetryable.IsRetryable())
}
