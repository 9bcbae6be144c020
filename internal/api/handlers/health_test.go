package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePinger struct{ err error }

func (f *fakePinger) Ping(ctx context.Context) error { return f.err }

type fakeStats struct{ n int }

func (f *fakeStats) RecentCount(ctx context.Context, window time.Duration) (int, error) {
	return f.n, nil
}

func getHealth(t *testing.T, h *HealthHandler) (*httptest.ResponseRecorder, HealthResponse) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.Check(rec, req)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return rec, resp
}

func TestHealthHandler_OK(t *testing.T) {
	rec, resp := getHealth(t, NewHealthHandler(&fakePinger{}, &fakeStats{n: 7}))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "ok", resp.Database)
	require.NotNil(t, resp.QueriesLastHour)
	assert.Equal(t, 7, *resp.QueriesLastHour)
}

func TestHealthHandler_DatabaseDown(t *testing.T) {
	rec, resp := getHealth(t, NewHealthHandler(&fakePinger{err: errors.New("refused")}, nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "degraded", resp.Status)
	assert.Equal(t, "unreachable", resp.Database)
}

func TestHealthHandler_NoDependencies(t *testing.T) {
	rec, resp := getHealth(t, NewHealthHandler(nil, nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", resp.Status)
	assert.Empty(t, resp.Database)
	assert.Nil(t, resp.QueriesLastHour)
}
