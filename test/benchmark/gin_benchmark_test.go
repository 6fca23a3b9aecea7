package benchmark

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"user-rest-service/internal/adapter/cache"
	"user-rest-service/internal/adapter/docstore/memory"
	ginhandler "user-rest-service/internal/adapter/gin/handler"
	ginrouter "user-rest-service/internal/adapter/gin/router"
	"user-rest-service/internal/adapter/repository/cached"
	"user-rest-service/internal/adapter/repository/document"
	"user-rest-service/internal/usecase/user"
)

// setupGinBenchmarkRouter builds the full router over the in-memory store.
// With withCache the Redis read cache sits in front of the repository.
func setupGinBenchmarkRouter(b *testing.B, withCache bool) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	logger := zap.NewNop()

	var repo user.Repository = document.NewUserRepository(memory.New(), "users", logger)
	if withCache {
		mr := miniredis.RunT(b)
		rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		b.Cleanup(func() { _ = rdb.Close() })
		repo = cached.NewCachedUserRepository(repo, cache.NewRedisUserCache(rdb, "users", time.Minute, logger), logger)
	}

	handler := ginhandler.NewUserHandler(user.New(repo, logger), logger)
	return ginrouter.SetupRouter(handler, logger, ginrouter.Options{ServiceName: "benchmark"})
}

func serve(router http.Handler, method, path, body string) int {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w.Code
}

func userJSON(n int64) string {
	return fmt.Sprintf(`{"first_name":"User_%d","last_name":"Bench","email":"user_%d@example.com"}`, n, n)
}

func BenchmarkGin_CreateUser(b *testing.B) {
	router := setupGinBenchmarkRouter(b, false)

	var counter int64
	b.ResetTimer()
	b.ReportAllocs()

	b.RunParallel(func(p *testing.PB) {
		for p.Next() {
			n := atomic.AddInt64(&counter, 1)
			if code := serve(router, http.MethodPost, "/users/", userJSON(n)); code != http.StatusCreated {
				b.Errorf("Expected status 201, got %d", code)
			}
		}
	})
}

func benchmarkGetUser(b *testing.B, withCache bool) {
	router := setupGinBenchmarkRouter(b, withCache)
	if code := serve(router, http.MethodPut, "/users/bench", userJSON(0)); code != http.StatusCreated {
		b.Fatalf("Failed to create test user: status %d", code)
	}

	b.ResetTimer()
	b.ReportAllocs()

	b.RunParallel(func(p *testing.PB) {
		for p.Next() {
			if code := serve(router, http.MethodGet, "/users/bench", ""); code != http.StatusOK {
				b.Errorf("Expected status 200, got %d", code)
			}
		}
	})
}

func BenchmarkGin_GetUser(b *testing.B) {
	benchmarkGetUser(b, false)
}

func BenchmarkGin_GetUserCached(b *testing.B) {
	benchmarkGetUser(b, true)
}

func BenchmarkGin_ReplaceUser(b *testing.B) {
	router := setupGinBenchmarkRouter(b, false)

	b.ResetTimer()
	b.ReportAllocs()

	// the first pass over the ids creates, later passes update
	for i := 0; i < b.N; i++ {
		path := fmt.Sprintf("/users/user_%d", i%64)
		if code := serve(router, http.MethodPut, path, userJSON(int64(i))); code != http.StatusOK && code != http.StatusCreated {
			b.Fatalf("Expected status 200 or 201, got %d", code)
		}
	}
}

func BenchmarkGin_ListUsers(b *testing.B) {
	router := setupGinBenchmarkRouter(b, false)
	for i := int64(0); i < 100; i++ {
		serve(router, http.MethodPost, "/users/", userJSON(i))
	}

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		if code := serve(router, http.MethodGet, "/users/", ""); code != http.StatusOK {
			b.Fatalf("Expected status 200, got %d", code)
		}
	}
}
