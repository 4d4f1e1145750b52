package server

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/dmitrijs2005/assetflow/internal/logging"
	"github.com/dmitrijs2005/assetflow/internal/server/config"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	dir := t.TempDir()
	return &config.Config{
		Port:        "0",
		Env:         "local",
		LogLevel:    "info",
		DatabaseDSN: filepath.Join(dir, "server.db"),
		UploadDir:   filepath.Join(dir, "uploads"),
		OTPTTL:      time.Minute,
		Seed:        true,
	}
}

func TestNewApp_SeedsAndServes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	app, err := NewApp(context.Background(), testConfig(t), logging.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { app.db.Close() })

	var n int
	require.NoError(t, app.db.QueryRow(`SELECT COUNT(*) FROM records WHERE collection = 'users'`).Scan(&n))
	assert.Equal(t, 3, n)

	w := httptest.NewRecorder()
	app.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	app.metricsHandler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	body, _ := io.ReadAll(w.Body)
	assert.Contains(t, string(body), "assetflow_http_requests_total")
	assert.Contains(t, string(body), "go_goroutines")
}

func TestNewApp_WithoutSeed(t *testing.T) {
	cfg := testConfig(t)
	cfg.Seed = false
	app, err := NewApp(context.Background(), cfg, logging.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { app.db.Close() })

	var n int
	require.NoError(t, app.db.QueryRow(`SELECT COUNT(*) FROM records`).Scan(&n))
	assert.Zero(t, n)
}

func TestNewApp_BadUploadDir(t *testing.T) {
	cfg := testConfig(t)
	cfg.UploadDir = cfg.DatabaseDSN

	_, err := NewApp(context.Background(), cfg, logging.Nop())
	require.ErrorContains(t, err, "upload dir")
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	cfg := testConfig(t)
	cfg.Port = "0"
	app, err := NewApp(context.Background(), cfg, logging.Nop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		app.Run(ctx)
		close(done)
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("app did not stop after context cancel")
	}
	assert.Error(t, app.db.Ping(), "db is closed on return")
}
