package tools

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/cloo-solutions/agrovisor/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

const geoapifyBody = `{
	"features": [
		{"properties": {"name": "Kisan Khad Bhandar", "street": "GT Road", "city": "Moga", "state": "Punjab", "lat": 30.8200, "lon": 75.1800}},
		{"properties": {"name": "Punjab Agro Store", "city": "Moga", "state": "Punjab", "lat": 30.8100, "lon": 75.1700}}
	]
}`

func newTestPlacesClient(t *testing.T, handler http.HandlerFunc) (*PlacesClient, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewPlacesClient("geo-key")
	c.baseURL = srv.URL
	return c, srv
}

func TestPlacesClient_SearchShops(t *testing.T) {
	c, _ := newTestPlacesClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/places", r.URL.Path)
		assert.Equal(t, "fertilizer shop", r.URL.Query().Get("text"))
		assert.Contains(t, r.URL.Query().Get("filter"), "circle:")
		w.Write([]byte(geoapifyBody))
	})

	places, err := c.SearchShops(context.Background(), "fertilizer shop", 30.8165, 75.1717)
	require.NoError(t, err)
	require.Len(t, places, 2)

	// Sorted nearest first.
	assert.Equal(t, "Punjab Agro Store", places[0].Name)
	assert.Equal(t, "Kisan Khad Bhandar", places[1].Name)
	assert.Less(t, places[0].DistanceKM, places[1].DistanceKM)
	assert.Contains(t, places[0].MapURL, "openstreetmap.org")
	assert.Contains(t, places[1].Address, "GT Road")
}

func TestPlacesClient_CategoryFallbackWhenTextEmpty(t *testing.T) {
	var calls atomic.Int32
	c, _ := newTestPlacesClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.URL.Query().Get("text") != "" {
			w.Write([]byte(`{"features": []}`))
			return
		}
		assert.Contains(t, r.URL.Query().Get("categories"), "commercial.agricultural")
		w.Write([]byte(geoapifyBody))
	})

	places, err := c.SearchShops(context.Background(), "seed shop", 30.8165, 75.1717)
	require.NoError(t, err)
	assert.Len(t, places, 2)
	assert.Equal(t, int32(2), calls.Load())
}

func TestPlacesClient_ResponseCache(t *testing.T) {
	var calls atomic.Int32
	c, _ := newTestPlacesClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.Write([]byte(geoapifyBody))
	})

	ctx := context.Background()
	_, err := c.SearchShops(ctx, "fertilizer shop", 30.8165, 75.1717)
	require.NoError(t, err)
	_, err = c.SearchShops(ctx, "fertilizer shop", 30.8165, 75.1717)
	require.NoError(t, err)

	assert.Equal(t, int32(1), calls.Load())
}

func TestPlacesClient_RateLimitPseudoResult(t *testing.T) {
	c, _ := newTestPlacesClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(geoapifyBody))
	})
	// Exhausted budget, no refill.
	c.limiter = rate.NewLimiter(rate.Limit(0), 0)

	places, err := c.SearchShops(context.Background(), "fertilizer shop", 30.8165, 75.1717)
	require.NoError(t, err)

	require.Len(t, places, 1)
	assert.Contains(t, places[0].Name, "Rate limit reached")
	assert.Contains(t, places[0].MapURL, "openstreetmap.org/search")
}

func TestPlacesClient_SearchKVK(t *testing.T) {
	c, _ := newTestPlacesClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Krishi Vigyan Kendra", r.URL.Query().Get("text"))
		w.Write([]byte(`{"features": [{"properties": {"name": "Krishi Vigyan Kendra Moga", "city": "Moga", "state": "Punjab", "lat": 30.7900, "lon": 75.1500}}]}`))
	})

	places, err := c.SearchKVK(context.Background(), 30.8165, 75.1717)
	require.NoError(t, err)

	require.Len(t, places, 1)
	assert.Equal(t, "Krishi Vigyan Kendra Moga", places[0].Name)
}

func TestPlacesClient_NoKey(t *testing.T) {
	c := NewPlacesClient("")

	_, err := c.SearchShops(context.Background(), "fertilizer shop", 30, 75)
	var derr *domain.DomainError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, domain.ErrCodeUnavailable, derr.Code)
}

func TestPlacesClient_ServerError(t *testing.T) {
	c, _ := newTestPlacesClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})

	_, err := c.SearchShops(context.Background(), "fertilizer shop", 30, 75)
	assert.ErrorContains(t, err, "status 400")
}

func TestHaversineKM(t *testing.T) {
	// Ludhiana to Amritsar is roughly 120-140 km.
	d := haversineKM(30.9010, 75.8573, 31.6340, 74.8723)
	assert.InDelta(t, 125, d, 15)

	assert.InDelta(t, 0, haversineKM(30.9, 75.8, 30.9, 75.8), 1e-9)
}
