package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cloo-solutions/agrovisor/internal/domain"
)

const geocodeCacheTTL = 5 * time.Minute

// Geocoder resolves an Indian village/state pair to coordinates. OpenWeatherMap
// is the primary provider; Visual Crossing's timeline endpoint echoes back
// coordinates and serves as the fallback. Results are cached briefly because
// the same location is usually resolved several times per conversation.
type Geocoder struct {
	client    *http.Client
	owKey     string
	vcKey     string
	owBaseURL string
	vcBaseURL string
	cache     *ttlCache[domain.Location]
}

func NewGeocoder(openWeatherKey, visualCrossingKey string) *Geocoder {
	return &Geocoder{
		client:    &http.Client{Timeout: 15 * time.Second},
		owKey:     openWeatherKey,
		vcKey:     visualCrossingKey,
		owBaseURL: "http://api.openweathermap.org",
		vcBaseURL: "https://weather.visualcrossing.com",
		cache:     newTTLCache[domain.Location](geocodeCacheTTL),
	}
}

// Geocode tries each configured provider in order and returns
// domain.ErrGeocodeFailed when none resolves the location.
func (g *Geocoder) Geocode(ctx context.Context, village, state string) (domain.Location, error) {
	if village == "" || state == "" {
		return domain.Location{}, domain.ErrGeocodeFailed
	}

	cacheKey := strings.ToLower(village + "," + state)
	if loc, ok := g.cache.Get(cacheKey); ok {
		return loc, nil
	}

	if g.owKey != "" {
		loc, err := g.geocodeOpenWeather(ctx, village, state)
		if err == nil {
			g.cache.Set(cacheKey, loc)
			return loc, nil
		}
		log.Printf("geocode: openweathermap failed for %s, %s: %v", village, state, err)
	}

	if g.vcKey != "" {
		loc, err := g.geocodeVisualCrossing(ctx, village, state)
		if err == nil {
			g.cache.Set(cacheKey, loc)
			return loc, nil
		}
		log.Printf("geocode: visual crossing failed for %s, %s: %v", village, state, err)
	}

	return domain.Location{}, domain.ErrGeocodeFailed
}

func (g *Geocoder) geocodeOpenWeather(ctx context.Context, village, state string) (domain.Location, error) {
	q := url.Values{}
	q.Set("q", fmt.Sprintf("%s,%s,IN", village, state))
	q.Set("limit", "1")
	q.Set("appid", g.owKey)

	var results []struct {
		Name  string  `json:"name"`
		Lat   float64 `json:"lat"`
		Lon   float64 `json:"lon"`
		State string  `json:"state"`
	}
	if err := g.getJSON(ctx, g.owBaseURL+"/geo/1.0/direct?"+q.Encode(), &results); err != nil {
		return domain.Location{}, err
	}
	if len(results) == 0 {
		return domain.Location{}, fmt.Errorf("no match for %s, %s", village, state)
	}

	r := results[0]
	name := r.Name
	if name == "" {
		name = village
	}
	resolvedState := r.State
	if resolvedState == "" {
		resolvedState = state
	}
	return domain.Location{
		Village:     name,
		State:       resolvedState,
		Lat:         r.Lat,
		Lon:         r.Lon,
		DisplayName: name + ", " + resolvedState,
		Timestamp:   time.Now().UTC(),
	}, nil
}

func (g *Geocoder) geocodeVisualCrossing(ctx context.Context, village, state string) (domain.Location, error) {
	q := url.Values{}
	q.Set("key", g.vcKey)
	q.Set("contentType", "json")
	q.Set("include", "days")
	q.Set("elements", "temp")

	location := url.PathEscape(fmt.Sprintf("%s,%s,India", village, state))
	endpoint := g.vcBaseURL + "/VisualCrossingWebServices/rest/services/timeline/" + location + "?" + q.Encode()

	var resp struct {
		Latitude  *float64 `json:"latitude"`
		Longitude *float64 `json:"longitude"`
	}
	if err := g.getJSON(ctx, endpoint, &resp); err != nil {
		return domain.Location{}, err
	}
	if resp.Latitude == nil || resp.Longitude == nil {
		return domain.Location{}, fmt.Errorf("no coordinates for %s, %s", village, state)
	}

	v, s := titleCase(village), titleCase(state)
	return domain.Location{
		Village:     v,
		State:       s,
		Lat:         *resp.Latitude,
		Lon:         *resp.Longitude,
		DisplayName: v + ", " + s,
		Timestamp:   time.Now().UTC(),
	}, nil
}

func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func (g *Geocoder) getJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
