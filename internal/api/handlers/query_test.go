package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cloo-solutions/agrovisor/internal/domain"
	"github.com/cloo-solutions/agrovisor/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockAnswerer struct{ mock.Mock }

func (m *MockAnswerer) Answer(ctx context.Context, q service.Question) (service.Answer, error) {
	args := m.Called(ctx, q)
	return args.Get(0).(service.Answer), args.Error(1)
}

func postJSON(t *testing.T, handler http.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestQueryHandler_Ask(t *testing.T) {
	svc := new(MockAnswerer)
	svc.On("Answer", mock.Anything, service.Question{Query: "wheat sowing time"}).Return(service.Answer{
		Text:        "Sow wheat from late October.",
		Intent:      domain.IntentAdvisory,
		State:       domain.QueryStateAnswered,
		SourceCount: 2,
	}, nil)

	rec := postJSON(t, NewQueryHandler(svc).Ask, `{"query": "wheat sowing time"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data QueryResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Sow wheat from late October.", resp.Data.Answer)
	assert.Equal(t, "advisory", resp.Data.Intent)
	assert.Equal(t, "answered", resp.Data.State)
	assert.Equal(t, 2, resp.Data.SourceCount)
}

func TestQueryHandler_EmptyQuery(t *testing.T) {
	svc := new(MockAnswerer)
	rec := postJSON(t, NewQueryHandler(svc).Ask, `{"query": "   "}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	svc.AssertNotCalled(t, "Answer")
}

func TestQueryHandler_InvalidBody(t *testing.T) {
	rec := postJSON(t, NewQueryHandler(new(MockAnswerer)).Ask, `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestQueryHandler_ExplicitLocationPassedThrough(t *testing.T) {
	svc := new(MockAnswerer)
	svc.On("Answer", mock.Anything, service.Question{
		Query:   "will it rain this week",
		Village: "Moga",
		State:   "Punjab",
	}).Return(service.Answer{
		Text:   "Light rain expected.",
		Intent: domain.IntentWeather,
		State:  domain.QueryStateAnswered,
	}, nil)

	rec := postJSON(t, NewQueryHandler(svc).Ask, `{"query": "will it rain this week", "village": "Moga", "state": "Punjab"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	svc.AssertExpectations(t)
}

func TestQueryHandler_ServiceErrorMapsStatus(t *testing.T) {
	svc := new(MockAnswerer)
	svc.On("Answer", mock.Anything, mock.Anything).
		Return(service.Answer{}, domain.ErrEmbedderUnavailable)

	rec := postJSON(t, NewQueryHandler(svc).Ask, `{"query": "fertilizer dose"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "error")
}
