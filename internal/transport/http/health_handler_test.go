package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/k-papadakis/spark-fastapi-feature-engineering/internal/services"
	"github.com/k-papadakis/spark-fastapi-feature-engineering/pkg/contracts"
)

type MockHealthService struct {
	mock.Mock
}

func (m *MockHealthService) Status(ctx context.Context) string {
	return m.Called().String(0)
}

func (m *MockHealthService) ReadinessCheck(ctx context.Context) services.HealthStatus {
	return m.Called().Get(0).(services.HealthStatus)
}

func (m *MockHealthService) LivenessCheck(ctx context.Context) services.HealthStatus {
	return m.Called().Get(0).(services.HealthStatus)
}

func (m *MockHealthService) Version() contracts.VersionInfo {
	return m.Called().Get(0).(contracts.VersionInfo)
}

func TestHealthHandler_Status(t *testing.T) {
	svc := new(MockHealthService)
	svc.On("Status").Return(services.StatusUp)
	h := NewHealthHandler(svc, nil)

	w := httptest.NewRecorder()
	h.Status(w, httptest.NewRequest(http.MethodGet, "/status", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"UP"}`, w.Body.String())
}

func TestHealthHandler_Readiness(t *testing.T) {
	tests := []struct {
		name       string
		status     string
		wantStatus int
	}{
		{name: "ready", status: services.StatusReady, wantStatus: http.StatusOK},
		{name: "not ready", status: services.StatusNotReady, wantStatus: http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockHealthService)
			svc.On("ReadinessCheck").Return(services.HealthStatus{Status: tt.status})
			h := NewHealthHandler(svc, nil)

			w := httptest.NewRecorder()
			h.ReadinessCheck(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestHealthHandler_WelcomeAndVersion(t *testing.T) {
	svc := new(MockHealthService)
	svc.On("Version").Return(contracts.GetVersionInfo())
	h := NewHealthHandler(svc, nil)

	w := httptest.NewRecorder()
	h.Welcome(w, httptest.NewRequest(http.MethodGet, "/", nil))
	var welcome map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &welcome))
	assert.Contains(t, welcome["message"], "Loan Feature Engine")

	w = httptest.NewRecorder()
	h.Version(w, httptest.NewRequest(http.MethodGet, "/version", nil))
	var info contracts.VersionInfo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &info))
	assert.Equal(t, contracts.Version, info.Version)
}

func TestMetricsHandler(t *testing.T) {
	called := false
	h := NewMetricsHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.True(t, called)

	w := httptest.NewRecorder()
	NewMetricsHandler(nil).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
