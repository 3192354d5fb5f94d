package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zepto-insights/dashboard/internal/observability"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"APP_ENV", "DB_DRIVER", "DB_DSN", "PRODUCT_TABLE", "REDIS_ADDR", "REPORT_CACHE_TTL", "GOTENBERG_URL", "LOG_FORMAT", "LOG_LEVEL"} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := LoadConfigFiles()
	require.NoError(t, err)
	assert.Equal(t, DriverPgx, cfg.DBDriver)
	assert.Equal(t, "zepto", cfg.ProductTable)
	assert.False(t, cfg.CacheEnabled())
	assert.False(t, cfg.PDFEnabled())
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, 500, cfg.RawRowLimit)
}

func TestLoadConfigDotenv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("DB_DRIVER=sqlite\nDB_DSN=file::memory:\nREDIS_ADDR=127.0.0.1:6379\nREPORT_CACHE_TTL=5m\n"), 0o600))
	t.Cleanup(func() {
		for _, key := range []string{"DB_DRIVER", "DB_DSN", "REDIS_ADDR", "REPORT_CACHE_TTL"} {
			_ = os.Unsetenv(key)
		}
	})

	cfg, err := LoadConfigFiles(path, filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, DriverSQLite, cfg.DBDriver)
	assert.Equal(t, 5*time.Minute, cfg.ReportCacheTTL)
	assert.True(t, cfg.CacheEnabled())
}

func TestLoadConfigRejectsUnknownDriver(t *testing.T) {
	clearEnv(t)
	t.Setenv("DB_DRIVER", "mysql")
	_, err := LoadConfigFiles()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DBDriver")
}

func TestNewLoggerFormats(t *testing.T) {
	var buf bytes.Buffer
	newLogger(&Config{LogFormat: "json", LogLevel: "warn"}, &buf).Info("hidden")
	assert.Empty(t, buf.String())
	newLogger(&Config{LogFormat: "json", LogLevel: "warn"}, &buf).Warn("shown")
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "shown", entry["msg"])
}

func TestRouterHealthAndStatic(t *testing.T) {
	router := NewRouter(RouterParams{
		Config:  &Config{AppEnv: "test"},
		Metrics: observability.NewMetrics(),
		Checks: map[string]HealthChecker{
			"database": func(ctx context.Context) error { return nil },
		},
	})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"database":"ok"`)
	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/static/css/app.css", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "public, max-age=3600", rr.Header().Get("Cache-Control"))
	assert.True(t, strings.HasPrefix(rr.Header().Get("Content-Type"), "text/css"))

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, strings.Contains(rr.Body.String(), "zepto_http_requests_total"))
}

func TestRouterHealthDegraded(t *testing.T) {
	router := NewRouter(RouterParams{
		Checks: map[string]HealthChecker{
			"redis": func(ctx context.Context) error { return errors.New("dial tcp: refused") },
		},
	})
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Contains(t, rr.Body.String(), "degraded")
}

func TestTestModeFlag(t *testing.T) {
	t.Setenv(testModeEnv, "1")
	RefreshTestMode()
	assert.True(t, InTestMode())
	t.Setenv(testModeEnv, "0")
	RefreshTestMode()
	assert.False(t, InTestMode())
}
