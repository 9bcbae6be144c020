package tools

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cloo-solutions/agrovisor/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const openWeatherBody = `{
	"name": "Moga",
	"main": {"temp": 31.5, "feels_like": 34.0, "humidity": 62, "pressure": 1008},
	"wind": {"speed": 4.2, "deg": 270},
	"clouds": {"all": 40},
	"weather": [{"description": "scattered clouds"}]
}`

func TestWeatherClient_CurrentConditions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/data/2.5/weather", r.URL.Path)
		assert.Equal(t, "metric", r.URL.Query().Get("units"))
		w.Write([]byte(openWeatherBody))
	}))
	defer srv.Close()

	c := NewWeatherClient("ow-key", "")
	c.owBaseURL = srv.URL

	report, err := c.CurrentConditions(context.Background(), 30.8165, 75.1717)
	require.NoError(t, err)

	assert.Equal(t, "Moga", report.LocationName)
	assert.InDelta(t, 31.5, report.TemperatureC, 1e-6)
	assert.Equal(t, 62, report.Humidity)
	assert.Equal(t, "scattered clouds", report.Description)
	assert.False(t, report.HasPrecipProb)
	assert.Equal(t, []string{"OpenWeatherMap"}, report.Sources)
}

func TestWeatherClient_VisualCrossingEnrichment(t *testing.T) {
	owSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(openWeatherBody))
	}))
	defer owSrv.Close()

	vcSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"currentConditions":{"precipprob":72.0}}`))
	}))
	defer vcSrv.Close()

	c := NewWeatherClient("ow-key", "vc-key")
	c.owBaseURL = owSrv.URL
	c.vcBaseURL = vcSrv.URL

	report, err := c.CurrentConditions(context.Background(), 30.8165, 75.1717)
	require.NoError(t, err)

	assert.True(t, report.HasPrecipProb)
	assert.InDelta(t, 72.0, report.PrecipProbability, 1e-6)
	assert.Equal(t, []string{"OpenWeatherMap", "Visual Crossing"}, report.Sources)
}

func TestWeatherClient_EnrichmentFailureKeepsBaseReport(t *testing.T) {
	owSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(openWeatherBody))
	}))
	defer owSrv.Close()

	vcSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer vcSrv.Close()

	c := NewWeatherClient("ow-key", "vc-key")
	c.owBaseURL = owSrv.URL
	c.vcBaseURL = vcSrv.URL

	report, err := c.CurrentConditions(context.Background(), 30.8165, 75.1717)
	require.NoError(t, err)
	assert.False(t, report.HasPrecipProb)
	assert.Equal(t, []string{"OpenWeatherMap"}, report.Sources)
}

func TestWeatherClient_NotConfigured(t *testing.T) {
	c := NewWeatherClient("", "")

	_, err := c.CurrentConditions(context.Background(), 30, 75)
	var derr *domain.DomainError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, domain.ErrCodeUnavailable, derr.Code)
}

func TestAgronomicAdvice(t *testing.T) {
	tests := []struct {
		name   string
		report domain.WeatherReport
		want   string
	}{
		{"frost warning", domain.WeatherReport{TemperatureC: 4}, "protect sensitive crops from frost"},
		{"heat warning", domain.WeatherReport{TemperatureC: 41}, "ensure adequate irrigation and shade"},
		{"fungal risk", domain.WeatherReport{TemperatureC: 25, Humidity: 88}, "monitor for fungal diseases"},
		{"dry air", domain.WeatherReport{TemperatureC: 25, Humidity: 30}, "increase irrigation frequency"},
		{"rain delay", domain.WeatherReport{TemperatureC: 25, PrecipProbability: 80, HasPrecipProb: true}, "delay spraying"},
		{"spray window", domain.WeatherReport{TemperatureC: 25, PrecipProbability: 5, HasPrecipProb: true}, "good for field operations"},
		{"strong wind", domain.WeatherReport{TemperatureC: 25, WindSpeedMS: 16}, "avoid pesticide spraying"},
		{"low pressure", domain.WeatherReport{TemperatureC: 25, PressureHPa: 995}, "weather changes expected"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lines := AgronomicAdvice(tt.report)
			joined := ""
			for _, l := range lines {
				joined += l + "\n"
			}
			assert.Contains(t, joined, tt.want)
		})
	}
}

func TestAgronomicAdvice_NeverEmpty(t *testing.T) {
	assert.NotEmpty(t, AgronomicAdvice(domain.WeatherReport{TemperatureC: 25}))
}
