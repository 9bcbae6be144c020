package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/cloo-solutions/agrovisor/internal/domain"
)

// WeatherClient reads current conditions from OpenWeatherMap and, when a
// Visual Crossing key is configured, enriches the report with the
// precipitation probability that OpenWeatherMap's current endpoint lacks.
type WeatherClient struct {
	client    *http.Client
	owKey     string
	vcKey     string
	owBaseURL string
	vcBaseURL string
}

func NewWeatherClient(openWeatherKey, visualCrossingKey string) *WeatherClient {
	return &WeatherClient{
		client:    &http.Client{Timeout: 15 * time.Second},
		owKey:     openWeatherKey,
		vcKey:     visualCrossingKey,
		owBaseURL: "http://api.openweathermap.org",
		vcBaseURL: "https://weather.visualcrossing.com",
	}
}

// CurrentConditions fetches the report for a coordinate pair.
func (w *WeatherClient) CurrentConditions(ctx context.Context, lat, lon float64) (domain.WeatherReport, error) {
	if w.owKey == "" {
		return domain.WeatherReport{}, domain.NewDomainError(domain.ErrCodeUnavailable, "weather provider not configured")
	}

	report, err := w.fetchOpenWeather(ctx, lat, lon)
	if err != nil {
		return domain.WeatherReport{}, err
	}

	if w.vcKey != "" {
		if prob, err := w.fetchPrecipProbability(ctx, lat, lon); err == nil {
			report.PrecipProbability = prob
			report.HasPrecipProb = true
			report.Sources = append(report.Sources, "Visual Crossing")
		} else {
			log.Printf("weather: visual crossing enrichment failed: %v", err)
		}
	}

	return report, nil
}

func (w *WeatherClient) fetchOpenWeather(ctx context.Context, lat, lon float64) (domain.WeatherReport, error) {
	q := url.Values{}
	q.Set("lat", fmt.Sprintf("%f", lat))
	q.Set("lon", fmt.Sprintf("%f", lon))
	q.Set("units", "metric")
	q.Set("appid", w.owKey)

	var resp struct {
		Name string `json:"name"`
		Main struct {
			Temp      float32 `json:"temp"`
			FeelsLike float32 `json:"feels_like"`
			Humidity  int     `json:"humidity"`
			Pressure  int     `json:"pressure"`
		} `json:"main"`
		Wind struct {
			Speed float32 `json:"speed"`
			Deg   int     `json:"deg"`
		} `json:"wind"`
		Clouds struct {
			All int `json:"all"`
		} `json:"clouds"`
		Weather []struct {
			Description string `json:"description"`
		} `json:"weather"`
	}
	if err := w.getJSON(ctx, w.owBaseURL+"/data/2.5/weather?"+q.Encode(), &resp); err != nil {
		return domain.WeatherReport{}, fmt.Errorf("openweathermap: %w", err)
	}

	report := domain.WeatherReport{
		LocationName: resp.Name,
		Lat:          lat,
		Lon:          lon,
		TemperatureC: resp.Main.Temp,
		FeelsLikeC:   resp.Main.FeelsLike,
		Humidity:     resp.Main.Humidity,
		PressureHPa:  resp.Main.Pressure,
		WindSpeedMS:  resp.Wind.Speed,
		WindDegrees:  resp.Wind.Deg,
		CloudCover:   resp.Clouds.All,
		Sources:      []string{"OpenWeatherMap"},
	}
	if len(resp.Weather) > 0 {
		report.Description = resp.Weather[0].Description
	}
	return report, nil
}

func (w *WeatherClient) fetchPrecipProbability(ctx context.Context, lat, lon float64) (float32, error) {
	q := url.Values{}
	q.Set("key", w.vcKey)
	q.Set("contentType", "json")
	q.Set("include", "current")
	q.Set("elements", "precipprob")

	endpoint := fmt.Sprintf("%s/VisualCrossingWebServices/rest/services/timeline/%f,%f?%s",
		w.vcBaseURL, lat, lon, q.Encode())

	var resp struct {
		CurrentConditions struct {
			PrecipProb *float32 `json:"precipprob"`
		} `json:"currentConditions"`
	}
	if err := w.getJSON(ctx, endpoint, &resp); err != nil {
		return 0, err
	}
	if resp.CurrentConditions.PrecipProb == nil {
		return 0, fmt.Errorf("no precipprob in response")
	}
	return *resp.CurrentConditions.PrecipProb, nil
}

func (w *WeatherClient) getJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	resp, err := w.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// AgronomicAdvice turns a weather report into short field-operation guidance.
func AgronomicAdvice(r domain.WeatherReport) []string {
	var advice []string

	switch {
	case r.TemperatureC < 10:
		advice = append(advice, "Cold conditions, protect sensitive crops from frost")
	case r.TemperatureC > 35:
		advice = append(advice, "Hot conditions, ensure adequate irrigation and shade")
	default:
		advice = append(advice, fmt.Sprintf("Temperature %.1f C, suitable for most crops", r.TemperatureC))
	}

	switch {
	case r.Humidity > 80:
		advice = append(advice, "High humidity, monitor for fungal diseases")
	case r.Humidity > 0 && r.Humidity < 40:
		advice = append(advice, "Low humidity, increase irrigation frequency")
	case r.Humidity > 0:
		advice = append(advice, fmt.Sprintf("Humidity %d%%, good for crop growth", r.Humidity))
	}

	if r.HasPrecipProb {
		if r.PrecipProbability > 60 {
			advice = append(advice, fmt.Sprintf("High rain chance (%.0f%%), delay spraying", r.PrecipProbability))
		} else if r.PrecipProbability < 20 {
			advice = append(advice, "Low rain chance, good for field operations")
		}
	}

	if r.WindSpeedMS > 15 {
		advice = append(advice, "Strong winds, avoid pesticide spraying")
	} else if r.WindSpeedMS > 8 {
		advice = append(advice, "Moderate winds, use drift-reducing nozzles")
	}

	if r.PressureHPa > 0 {
		if r.PressureHPa < 1000 {
			advice = append(advice, "Low pressure, weather changes expected")
		} else if r.PressureHPa > 1020 {
			advice = append(advice, "High pressure, stable weather expected")
		}
	}

	return advice
}
