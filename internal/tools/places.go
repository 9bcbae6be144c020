package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/cloo-solutions/agrovisor/internal/domain"
	"golang.org/x/time/rate"
)

const (
	placesCacheTTL    = 5 * time.Minute
	shopSearchRadiusM = 20000
	kvkSearchRadiusM  = 50000
	placesPerCall     = 5
	kvkPerCall        = 3

	// Outbound Geoapify budget: 20 calls per rolling minute.
	placesCallsPerMinute = 20
)

// shopCategoryMap translates a normalized shop keyword to Geoapify place
// categories. The text search usually wins; categories are the fallback when
// the taxonomy has no text match.
var shopCategoryMap = map[string][]string{
	"fertilizer shop": {"commercial.agricultural", "shop.farm", "shop.garden"},
	"seed shop":       {"commercial.agricultural", "shop.farm"},
	"pesticide shop":  {"commercial.agricultural", "shop.farm"},
	"tractor dealer":  {"commercial.agricultural"},
	"farm machinery":  {"commercial.agricultural"},
}

// PlacesClient searches agricultural shops and KVK offices via the Geoapify
// Places API.
type PlacesClient struct {
	client  *http.Client
	apiKey  string
	baseURL string
	cache   *ttlCache[[]domain.Place]
	limiter *rate.Limiter
}

func NewPlacesClient(apiKey string) *PlacesClient {
	return &PlacesClient{
		client:  &http.Client{Timeout: 15 * time.Second},
		apiKey:  apiKey,
		baseURL: "https://api.geoapify.com",
		cache:   newTTLCache[[]domain.Place](placesCacheTTL),
		limiter: rate.NewLimiter(rate.Limit(float64(placesCallsPerMinute)/60.0), placesCallsPerMinute),
	}
}

// SearchShops finds agricultural shops of the given category near a
// coordinate, nearest first. Exhausting the local call budget yields a single
// pseudo-result telling the user to retry, not an error.
func (p *PlacesClient) SearchShops(ctx context.Context, category string, lat, lon float64) ([]domain.Place, error) {
	if p.apiKey == "" {
		return nil, domain.NewDomainError(domain.ErrCodeUnavailable, "places provider not configured")
	}

	cacheKey := fmt.Sprintf("%s:%.4f:%.4f", category, lat, lon)
	if cached, ok := p.cache.Get(cacheKey); ok {
		return cached, nil
	}

	if !p.limiter.Allow() {
		return []domain.Place{rateLimitedResult(category)}, nil
	}

	params := p.baseParams(lat, lon, shopSearchRadiusM, placesPerCall)
	params.Set("text", category)
	places, err := p.fetchPlaces(ctx, params, lat, lon)
	if err != nil {
		return nil, err
	}

	// Text search found nothing; retry with the category taxonomy.
	if len(places) == 0 {
		if cats, ok := shopCategoryMap[category]; ok {
			params = p.baseParams(lat, lon, shopSearchRadiusM, placesPerCall)
			params.Set("categories", strings.Join(cats, ","))
			places, err = p.fetchPlaces(ctx, params, lat, lon)
			if err != nil {
				return nil, err
			}
		}
	}

	p.cache.Set(cacheKey, places)
	return places, nil
}

// SearchKVK finds Krishi Vigyan Kendra offices near a coordinate with a wider
// radius, since KVKs are district-level institutions.
func (p *PlacesClient) SearchKVK(ctx context.Context, lat, lon float64) ([]domain.Place, error) {
	if p.apiKey == "" {
		return nil, domain.NewDomainError(domain.ErrCodeUnavailable, "places provider not configured")
	}

	cacheKey := fmt.Sprintf("kvk:%.4f:%.4f", lat, lon)
	if cached, ok := p.cache.Get(cacheKey); ok {
		return cached, nil
	}

	if !p.limiter.Allow() {
		return []domain.Place{rateLimitedResult("krishi vigyan kendra")}, nil
	}

	params := p.baseParams(lat, lon, kvkSearchRadiusM, kvkPerCall)
	params.Set("text", "Krishi Vigyan Kendra")
	places, err := p.fetchPlaces(ctx, params, lat, lon)
	if err != nil {
		return nil, err
	}

	p.cache.Set(cacheKey, places)
	return places, nil
}

func (p *PlacesClient) baseParams(lat, lon float64, radiusM, limit int) url.Values {
	params := url.Values{}
	params.Set("filter", fmt.Sprintf("circle:%f,%f,%d", lon, lat, radiusM))
	params.Set("bias", fmt.Sprintf("proximity:%f,%f", lon, lat))
	params.Set("limit", fmt.Sprintf("%d", limit))
	params.Set("apiKey", p.apiKey)
	return params
}

func (p *PlacesClient) fetchPlaces(ctx context.Context, params url.Values, lat, lon float64) ([]domain.Place, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/v2/places?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geoapify: status %d", resp.StatusCode)
	}

	var body struct {
		Features []struct {
			Properties struct {
				Name        string  `json:"name"`
				Street      string  `json:"street"`
				HouseNumber string  `json:"housenumber"`
				District    string  `json:"district"`
				City        string  `json:"city"`
				State       string  `json:"state"`
				Lat         float64 `json:"lat"`
				Lon         float64 `json:"lon"`
			} `json:"properties"`
		} `json:"features"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}

	places := make([]domain.Place, 0, len(body.Features))
	for _, f := range body.Features {
		pr := f.Properties
		if pr.Lat == 0 && pr.Lon == 0 {
			continue
		}
		name := pr.Name
		if name == "" {
			continue
		}
		places = append(places, domain.Place{
			Name:       name,
			Address:    joinAddress(pr.Street, pr.HouseNumber, pr.District, pr.City, pr.State),
			DistanceKM: haversineKM(lat, lon, pr.Lat, pr.Lon),
			MapURL:     osmLink(pr.Lat, pr.Lon),
		})
	}
	sort.Slice(places, func(i, j int) bool { return places[i].DistanceKM < places[j].DistanceKM })
	return places, nil
}

func rateLimitedResult(keyword string) domain.Place {
	return domain.Place{
		Name:    "Rate limit reached (local safeguard)",
		Address: fmt.Sprintf("Max %d calls per minute for places lookups", placesCallsPerMinute),
		MapURL:  "https://www.openstreetmap.org/search?query=" + url.QueryEscape(keyword),
	}
}

func joinAddress(parts ...string) string {
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, ", ")
}

func osmLink(lat, lon float64) string {
	return fmt.Sprintf("https://www.openstreetmap.org/?mlat=%f&mlon=%f#map=16/%f/%f", lat, lon, lat, lon)
}

// haversineKM is the great-circle distance between two coordinates.
func haversineKM(lat1, lon1, lat2, lon2 float64) float64 {
	const earthRadiusKM = 6371.0
	dlat := (lat2 - lat1) * math.Pi / 180
	dlon := (lon2 - lon1) * math.Pi / 180
	a := math.Sin(dlat/2)*math.Sin(dlat/2) +
		math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*math.Sin(dlon/2)*math.Sin(dlon/2)
	return earthRadiusKM * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}
