package di

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	ginrouter "user-rest-service/internal/adapter/gin/router"
	"user-rest-service/internal/config"
)

func baseConfig() *config.Config {
	return &config.Config{
		App:       config.AppConfig{HTTPPort: "8080", ShutdownTimeoutSeconds: 5},
		Store:     config.StoreConfig{Driver: config.DriverMemory, Collection: "users"},
		Redis:     config.RedisConfig{CacheTTL: 60, PoolSize: 2},
		RateLimit: config.RateLimitConfig{RequestsPerSecond: 10, BurstCapacity: 20},
		Logger:    config.LoggerConfig{ServiceName: "user-rest-service"},
	}
}

func withRedis(t *testing.T, cfg *config.Config) *miniredis.Miniredis {
	mr := miniredis.RunT(t)
	host, port, err := net.SplitHostPort(mr.Addr())
	require.NoError(t, err)
	cfg.Redis.Host = host
	cfg.Redis.Port = port
	return mr
}

func TestNewContainer_Memory(t *testing.T) {
	c, err := NewContainer(context.Background(), baseConfig(), zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, c.Close()) })

	assert.Nil(t, c.RedisClient)
	assert.Nil(t, c.RateLimiter)
	assert.NotNil(t, c.Store)
	assert.NotNil(t, c.GinHandler)
	assert.Equal(t, "user-rest-service", c.RouterOptions().ServiceName)
}

func TestNewContainer_InvalidConfig(t *testing.T) {
	cfg := baseConfig()
	cfg.Store.Driver = "mongo"

	c, err := NewContainer(context.Background(), cfg, zaptest.NewLogger(t))
	assert.Nil(t, c)
	assert.ErrorContains(t, err, "STORE_DRIVER")
}

func TestNewContainer_RedisStoreWithCacheAndRateLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := baseConfig()
	cfg.Store.Driver = config.DriverRedis
	cfg.Redis.CacheEnabled = true
	cfg.RateLimit.Enabled = true
	mr := withRedis(t, cfg)
	log := zaptest.NewLogger(t)

	c, err := NewContainer(context.Background(), cfg, log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	require.NotNil(t, c.RedisClient)
	require.NotNil(t, c.RateLimiter)

	router := ginrouter.SetupRouter(c.GinHandler, log, c.RouterOptions())

	body := `{"first_name":"Jane","last_name":"Doe","email":"jane@example.com"}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/users/jane", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/users/jane", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":"jane","first_name":"Jane","last_name":"Doe","email":"jane@example.com"}`, w.Body.String())

	assert.True(t, mr.Exists("cache:users:jane"))
}

func TestNewContainer_RedisUnreachable(t *testing.T) {
	cfg := baseConfig()
	cfg.RateLimit.Enabled = true
	mr := withRedis(t, cfg)
	mr.Close()

	c, err := NewContainer(context.Background(), cfg, zaptest.NewLogger(t))
	assert.Nil(t, c)
	assert.ErrorContains(t, err, "failed to initialize Redis")
}
