package server

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	ginhandler "user-rest-service/internal/adapter/gin/handler"
	ginrouter "user-rest-service/internal/adapter/gin/router"
)

// SetupGinServer creates and configures the Gin REST API server
func SetupGinServer(handler *ginhandler.UserHandler, opts ginrouter.Options, addr string, l *zap.Logger) *http.Server {
	router := ginrouter.SetupRouter(handler, l, opts)

	l.Info("Gin REST API configured",
		zap.String("address", addr),
		zap.Bool("rate_limit", opts.RateLimiter != nil),
	)

	return &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 2 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}
