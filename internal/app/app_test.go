package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/k-papadakis/spark-fastapi-feature-engineering/internal/config"
	customMiddleware "github.com/k-papadakis/spark-fastapi-feature-engineering/internal/middleware"
	"github.com/k-papadakis/spark-fastapi-feature-engineering/internal/shared/testutil"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Data.Path = testutil.WriteSampleJSON(t, t.TempDir())
	cfg.Security.RateLimit.Enabled = false
	return cfg
}

func newTestApp(t *testing.T, cfg *config.Config) *Application {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	app, err := New(cfg, logger)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = app.OTelProviders.Shutdown(context.Background())
	})
	return app
}

func serve(app *Application, method, target, contentType, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

func TestNew(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	app, err := New(testConfig(t), logger)
	require.NoError(t, err)
	defer app.OTelProviders.Shutdown(context.Background())

	assert.Equal(t, 3, app.Snapshot.Entities.NumCustomers())
	assert.NotNil(t, app.FeatureService)
	assert.NotNil(t, app.HealthService)
	assert.NotNil(t, app.Router)
	assert.Equal(t, "0.0.0.0:8000", app.Server.Addr)

	rec := testutil.AssertLogContains(t, logs, "Services initialized")
	assert.Equal(t, int64(15), rec.Attrs["primitives"])
	assert.Equal(t, "new_years_day", rec.Attrs["holiday_calendar"])
}

func TestNewFailures(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(cfg *config.Config)
		wantErr string
	}{
		{
			name:    "missing dataset",
			mutate:  func(cfg *config.Config) { cfg.Data.Path = "/nonexistent/loans.json" },
			wantErr: "failed to load dataset",
		},
		{
			name:    "unknown holiday calendar",
			mutate:  func(cfg *config.Config) { cfg.Features.Holiday = "lunar" },
			wantErr: "holiday calendar",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			tt.mutate(cfg)
			logger, _ := testutil.NewTestLogger(t)

			_, err := New(cfg, logger)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNewApplicationFromEnvironment(t *testing.T) {
	t.Setenv(config.ConfigFileEnv, "")
	t.Setenv("LFE_DATA_FILE", testutil.WriteSampleJSON(t, t.TempDir()))
	t.Setenv("LFE_SERVER_PORT", "9123")
	t.Setenv("LFE_FEATURES_MAX_DEPTH", "1")

	app, err := NewApplication()
	require.NoError(t, err)
	defer app.OTelProviders.Shutdown(context.Background())

	assert.Equal(t, "0.0.0.0:9123", app.Server.Addr)
	assert.Equal(t, 1, app.Config.Features.MaxDepth)
}

func TestRoutes(t *testing.T) {
	app := newTestApp(t, testConfig(t))

	tests := []struct {
		name        string
		method      string
		target      string
		contentType string
		body        string
		wantStatus  int
		check       func(t *testing.T, body []byte)
	}{
		{
			name: "welcome", method: http.MethodGet, target: "/", wantStatus: http.StatusOK,
			check: func(t *testing.T, body []byte) {
				assert.Contains(t, string(body), "Welcome to the Loan Feature Engine")
			},
		},
		{
			name: "status", method: http.MethodGet, target: "/status", wantStatus: http.StatusOK,
			check: func(t *testing.T, body []byte) {
				assert.JSONEq(t, `{"status":"UP"}`, string(body))
			},
		},
		{
			name: "readiness", method: http.MethodGet, target: "/health/ready", wantStatus: http.StatusOK,
		},
		{
			name: "liveness", method: http.MethodGet, target: "/health/live", wantStatus: http.StatusOK,
		},
		{
			name: "version", method: http.MethodGet, target: "/version", wantStatus: http.StatusOK,
			check: func(t *testing.T, body []byte) {
				assert.Contains(t, string(body), config.AppVersion)
			},
		},
		{
			name: "primitives", method: http.MethodGet, target: "/features/primitives", wantStatus: http.StatusOK,
			check: func(t *testing.T, body []byte) {
				var prims []map[string]any
				require.NoError(t, json.Unmarshal(body, &prims))
				assert.Len(t, prims, 15)
			},
		},
		{
			name: "raw filtered", method: http.MethodGet, target: "/features/raw?customer_id=296", wantStatus: http.StatusOK,
			check: func(t *testing.T, body []byte) {
				var records []map[string]any
				require.NoError(t, json.Unmarshal(body, &records))
				require.Len(t, records, 1)
				assert.Equal(t, "296", records[0]["customer_ID"])
			},
		},
		{
			name: "engineer", method: http.MethodPost, target: "/features/engineer",
			contentType: "application/json", body: `{"customer_id":["1090"],"max_depth":1}`,
			wantStatus: http.StatusOK,
			check: func(t *testing.T, body []byte) {
				var records []map[string]any
				require.NoError(t, json.Unmarshal(body, &records))
				require.Len(t, records, 1)
				assert.Equal(t, "1090", records[0]["customer_ID"])
			},
		},
		{
			name: "engineer csv", method: http.MethodPost, target: "/features/engineer?format=csv&max_depth=1",
			wantStatus: http.StatusOK,
			check: func(t *testing.T, body []byte) {
				lines := strings.Split(strings.TrimSpace(string(body)), "\n")
				assert.Len(t, lines, 4)
				assert.True(t, strings.HasPrefix(lines[0], "customer_ID,"))
			},
		},
		{
			name: "definitions", method: http.MethodPost, target: "/features/definitions",
			contentType: "application/json", body: `{"max_depth":1}`,
			wantStatus: http.StatusOK,
			check: func(t *testing.T, body []byte) {
				var defs struct {
					Count    int `json:"count"`
					Features []struct {
						Name string `json:"name"`
					} `json:"features"`
				}
				require.NoError(t, json.Unmarshal(body, &defs))
				names := make([]string, len(defs.Features))
				for i, f := range defs.Features {
					names[i] = f.Name
				}
				assert.Equal(t, testutil.SampleDepthOneFeatures(), names)
				assert.Equal(t, len(names), defs.Count)
			},
		},
		{
			name: "unknown primitive", method: http.MethodPost, target: "/features/engineer",
			contentType: "application/json", body: `{"aggregations":["median"]}`,
			wantStatus: http.StatusBadRequest,
			check: func(t *testing.T, body []byte) {
				assert.Contains(t, string(body), "/errors/unknown-primitive")
			},
		},
		{
			name: "depth over limit", method: http.MethodPost, target: "/features/engineer",
			contentType: "application/json", body: `{"max_depth":9}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "unsupported media type", method: http.MethodPost, target: "/features/engineer",
			contentType: "text/plain", body: "mean",
			wantStatus: http.StatusUnsupportedMediaType,
		},
		{
			name: "not found", method: http.MethodGet, target: "/nope", wantStatus: http.StatusNotFound,
		},
		{
			name: "method not allowed", method: http.MethodPut, target: "/status", wantStatus: http.StatusMethodNotAllowed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(app, tt.method, tt.target, tt.contentType, tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			assert.NotEmpty(t, rec.Header().Get(customMiddleware.RequestIDHeader))
			if tt.check != nil {
				tt.check(t, rec.Body.Bytes())
			}
		})
	}
}

func TestMiddlewareChain(t *testing.T) {
	app := newTestApp(t, testConfig(t))

	t.Run("security headers", func(t *testing.T) {
		rec := serve(app, http.MethodGet, "/status", "", "")
		assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	})

	t.Run("cors preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/features/engineer", nil)
		req.Header.Set("Origin", "http://example.com")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		rec := httptest.NewRecorder()
		app.Router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.NotEmpty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("body limit", func(t *testing.T) {
		huge := fmt.Sprintf(`{"ignore_columns":["%s"]}`, strings.Repeat("x", config.MaxBodyBytes))
		rec := serve(app, http.MethodPost, "/features/engineer", "application/json", huge)
		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	})

	t.Run("metrics", func(t *testing.T) {
		serve(app, http.MethodGet, "/features/raw", "", "")

		rec := serve(app, http.MethodGet, "/metrics", "", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `route="/features/raw"`)
		assert.Contains(t, rec.Body.String(), "dataset_rows")
	})
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig(t)
	cfg.Security.RateLimit = config.RateLimitConfig{Enabled: true, RPS: 0.001, Burst: 1}
	app := newTestApp(t, cfg)

	assert.Equal(t, http.StatusOK, serve(app, http.MethodGet, "/status", "", "").Code)

	rec := serve(app, http.MethodGet, "/status", "", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
}

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}

func TestStartStop(t *testing.T) {
	cfg := testConfig(t)
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = freePort(t)
	cfg.Server.ShutdownTimeout = 5 * time.Second

	logger, logs := testutil.NewTestLogger(t)
	app, err := New(cfg, logger)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, app.Start(ctx, cancel))

	url := fmt.Sprintf("http://%s/health/live", cfg.Server.Addr())
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 50*time.Millisecond)

	require.NoError(t, app.Stop(ctx))
	testutil.AssertLogContains(t, logs, "Application shutdown complete")
	assert.NoError(t, ctx.Err(), "a clean shutdown must not cancel the run context")

	_, err = http.Get(url)
	assert.Error(t, err)
}
