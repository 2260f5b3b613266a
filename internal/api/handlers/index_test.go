package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/civic-pulse/pulsecore/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockIndexService struct {
	mock.Mock
}

func (m *MockIndexService) Count(ctx context.Context, filter map[string]any) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockIndexService) StaleCount(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockIndexService) Rebuild(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func TestIndexHandler_Stats(t *testing.T) {
	svc := new(MockIndexService)
	handler := NewIndexHandler(svc)

	svc.On("Count", mock.Anything, map[string]any(nil)).Return(int64(42), nil)
	svc.On("StaleCount", mock.Anything).Return(int64(3), nil)

	req := httptest.NewRequest(http.MethodGet, "/index/stats", nil)
	w := httptest.NewRecorder()

	handler.Stats(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, float64(42), data["entries"])
	assert.Equal(t, float64(3), data["stale_entries"])
}

func TestIndexHandler_Rebuild(t *testing.T) {
	svc := new(MockIndexService)
	handler := NewIndexHandler(svc)

	svc.On("Rebuild", mock.Anything).Return(17, nil)

	req := httptest.NewRequest(http.MethodPost, "/index/rebuild", nil)
	w := httptest.NewRecorder()

	handler.Rebuild(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, float64(17), data["entries"])
}

func TestIndexHandler_Rebuild_ModelUnavailable(t *testing.T) {
	svc := new(MockIndexService)
	handler := NewIndexHandler(svc)

	svc.On("Rebuild", mock.Anything).Return(0, domain.ErrModelUnavailable)

	req := httptest.NewRequest(http.MethodPost, "/index/rebuild", nil)
	w := httptest.NewRecorder()

	handler.Rebuild(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
