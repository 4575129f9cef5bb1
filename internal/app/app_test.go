package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/klass-lk/miniblog/internal/config"
	"github.com/klass-lk/miniblog/internal/logger"
)

func memoryConfig() *config.Config {
	cfg := config.Default()
	cfg.Database.Driver = "memory"
	cfg.Auth.PasswordEncoder = "pbkdf2"
	cfg.Auth.PBKDF2.Secret = "pepper"
	cfg.Auth.PBKDF2.Iterations = 10
	return cfg
}

func TestNew_MemoryStore(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ctx := context.Background()

	a, err := New(ctx, memoryConfig(), logger.NewNop())
	require.NoError(t, err)
	defer a.Close(ctx)

	require.NoError(t, a.InitDB(ctx))
	require.NoError(t, a.InitDB(ctx))

	engine := a.Server.Engine()

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"username":"admin","password":"password"}`))
	req.Header.Set("Content-Type", "application/json")
	engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/feed.rss", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := memoryConfig()
	cfg.Database.Driver = "sqlite"
	_, err := New(context.Background(), cfg, logger.NewNop())
	assert.Error(t, err)

	cfg = memoryConfig()
	cfg.Auth.PBKDF2.Secret = ""
	_, err = New(context.Background(), cfg, logger.NewNop())
	assert.Error(t, err)
}
