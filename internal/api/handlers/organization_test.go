package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/civic-pulse/pulsecore/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockOrganizationStore struct {
	mock.Mock
}

func (m *MockOrganizationStore) Create(ctx context.Context, org *domain.Organization) error {
	return m.Called(ctx, org).Error(0)
}

func (m *MockOrganizationStore) GetByID(ctx context.Context, id string) (*domain.Organization, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Organization), args.Error(1)
}

func (m *MockOrganizationStore) Update(ctx context.Context, org *domain.Organization) error {
	return m.Called(ctx, org).Error(0)
}

func (m *MockOrganizationStore) SetActive(ctx context.Context, id string, active bool) error {
	return m.Called(ctx, id, active).Error(0)
}

func (m *MockOrganizationStore) List(ctx context.Context) ([]*domain.Organization, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Organization), args.Error(1)
}

type MockOrganizationLifecycle struct {
	mock.Mock
}

func (m *MockOrganizationLifecycle) OrganizationCreated(ctx context.Context, org *domain.Organization) error {
	return m.Called(ctx, org).Error(0)
}

func (m *MockOrganizationLifecycle) OrganizationUpdated(ctx context.Context, org *domain.Organization) error {
	return m.Called(ctx, org).Error(0)
}

func (m *MockOrganizationLifecycle) OrganizationDeactivated(ctx context.Context, orgID string) error {
	return m.Called(ctx, orgID).Error(0)
}

func TestOrganizationHandler_Create_Success(t *testing.T) {
	store := new(MockOrganizationStore)
	lifecycle := new(MockOrganizationLifecycle)
	handler := NewOrganizationHandler(store, lifecycle)

	store.On("Create", mock.Anything, mock.MatchedBy(func(org *domain.Organization) bool {
		return org.Name == "City Waterworks" && org.Active && org.ID != ""
	})).Return(nil)
	lifecycle.On("OrganizationCreated", mock.Anything, mock.Anything).Return(nil)

	body := `{"name":"City Waterworks","description":"Water supply","categories":["water"],"address":{"city":"Pune"}}`
	req := httptest.NewRequest(http.MethodPost, "/organizations", strings.NewReader(body))
	w := httptest.NewRecorder()

	handler.Create(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "City Waterworks", data["name"])
	assert.Equal(t, true, data["active"])
	store.AssertExpectations(t)
	lifecycle.AssertExpectations(t)
}

func TestOrganizationHandler_Create_EmptyRecord(t *testing.T) {
	store := new(MockOrganizationStore)
	lifecycle := new(MockOrganizationLifecycle)
	handler := NewOrganizationHandler(store, lifecycle)

	req := httptest.NewRequest(http.MethodPost, "/organizations", strings.NewReader(`{"address":{"city":"Pune"}}`))
	w := httptest.NewRecorder()

	handler.Create(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	store.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestOrganizationHandler_Get_NotFound(t *testing.T) {
	store := new(MockOrganizationStore)
	lifecycle := new(MockOrganizationLifecycle)
	handler := NewOrganizationHandler(store, lifecycle)

	store.On("GetByID", mock.Anything, "missing").Return(nil, domain.ErrOrganizationNotFound)

	req := requestWithID(http.MethodGet, "/organizations/missing", "missing", nil)
	w := httptest.NewRecorder()

	handler.Get(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestOrganizationHandler_Update_InactiveRemovesFromIndex(t *testing.T) {
	store := new(MockOrganizationStore)
	lifecycle := new(MockOrganizationLifecycle)
	handler := NewOrganizationHandler(store, lifecycle)

	store.On("Update", mock.Anything, mock.Anything).Return(nil)
	lifecycle.On("OrganizationUpdated", mock.Anything, mock.MatchedBy(func(org *domain.Organization) bool {
		return org.ID == "org-1" && !org.Active
	})).Return(nil)

	body := `{"name":"City Waterworks","active":false}`
	req := requestWithID(http.MethodPut, "/organizations/org-1", "org-1", []byte(body))
	w := httptest.NewRecorder()

	handler.Update(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	lifecycle.AssertExpectations(t)
}

func TestOrganizationHandler_Deactivate_Success(t *testing.T) {
	store := new(MockOrganizationStore)
	lifecycle := new(MockOrganizationLifecycle)
	handler := NewOrganizationHandler(store, lifecycle)

	store.On("SetActive", mock.Anything, "org-1", false).Return(nil)
	lifecycle.On("OrganizationDeactivated", mock.Anything, "org-1").Return(nil)

	req := requestWithID(http.MethodPost, "/organizations/org-1/deactivate", "org-1", nil)
	w := httptest.NewRecorder()

	handler.Deactivate(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	store.AssertExpectations(t)
	lifecycle.AssertExpectations(t)
}
