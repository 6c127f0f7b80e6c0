package openweathermap_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ratheesh-17/airaware/internal/pollution"
	"github.com/ratheesh-17/airaware/internal/pollution/openweathermap"
)

const airPollutionPayload = `{
	"coord": {"lon": 77.59, "lat": 12.97},
	"list": [
		{
			"main": {"aqi": 3},
			"components": {
				"co": 450.61,
				"no": 0.25,
				"no2": 22.17,
				"o3": 54.36,
				"so2": 7.21,
				"pm2_5": 38.42,
				"pm10": 61.03,
				"nh3": 4.11
			},
			"dt": 1717243200
		}
	]
}`

func newTestClient(serverURL string) *openweathermap.Client {
	return openweathermap.NewClient(openweathermap.ClientConfig{
		APIKey:  "test-key",
		BaseURL: serverURL,
		Logger:  zerolog.Nop(),
		Timeout: 2 * time.Second,
	})
}

func TestClient_FetchComponents(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "/air_pollution")
		assert.Equal(t, "test-key", r.URL.Query().Get("appid"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(airPollutionPayload))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	components, err := client.FetchComponents(context.Background(), 12.97, 77.59)
	require.NoError(t, err)

	assert.InDelta(t, 38.42, components.PM25, 0.001)
	assert.InDelta(t, 61.03, components.PM10, 0.001)
	assert.InDelta(t, 22.17, components.NO2, 0.001)
	assert.InDelta(t, 450.61, components.CO, 0.001)
	assert.InDelta(t, 54.36, components.O3, 0.001)
	assert.Equal(t, time.Unix(1717243200, 0), components.ObservedAt)
}

func TestClient_FetchComponents_EmptyList(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"list": []}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	_, err := client.FetchComponents(context.Background(), 12.97, 77.59)
	assert.ErrorIs(t, err, pollution.ErrMalformedPayload)
}

func TestClient_FetchComponents_Non200(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	_, err := client.FetchComponents(context.Background(), 12.97, 77.59)
	assert.ErrorIs(t, err, pollution.ErrProviderUnavailable)
}

func TestClient_FetchComponents_MalformedJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{not json`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	_, err := client.FetchComponents(context.Background(), 12.97, 77.59)
	assert.ErrorIs(t, err, pollution.ErrMalformedPayload)
}

func TestClient_Name(t *testing.T) {
	client := newTestClient("http://localhost")
	assert.Equal(t, "openweathermap", client.Name())
}
