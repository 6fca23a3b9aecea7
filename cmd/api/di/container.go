package di

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"user-rest-service/cmd/api/infrastructure"
	"user-rest-service/internal/adapter/cache"
	"user-rest-service/internal/adapter/docstore"
	firestorestore "user-rest-service/internal/adapter/docstore/firestore"
	"user-rest-service/internal/adapter/docstore/memory"
	pgstore "user-rest-service/internal/adapter/docstore/postgres"
	redisstore "user-rest-service/internal/adapter/docstore/redis"
	ginhandler "user-rest-service/internal/adapter/gin/handler"
	"user-rest-service/internal/adapter/gin/middleware"
	ginrouter "user-rest-service/internal/adapter/gin/router"
	"user-rest-service/internal/adapter/repository/cached"
	"user-rest-service/internal/adapter/repository/document"
	"user-rest-service/internal/config"
	"user-rest-service/internal/usecase/user"
	redisclient "user-rest-service/pkg/redis"
)

// Container holds all application dependencies
type Container struct {
	Config      *config.Config
	Logger      *zap.Logger
	Firestore   *firestore.Client
	DB          *gorm.DB
	RedisClient *redisclient.Client
	Store       docstore.Store
	UserUC      user.Usecase
	RateLimiter *middleware.RateLimiter
	GinHandler  *ginhandler.UserHandler
}

// NewContainer creates and initializes all application dependencies.
// Resources opened before a failure are released before returning.
func NewContainer(ctx context.Context, cfg *config.Config, l *zap.Logger) (c *Container, err error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	c = &Container{Config: cfg, Logger: l}
	defer func() {
		if err != nil {
			_ = c.Close()
			c = nil
		}
	}()

	if cfg.NeedsRedis() {
		c.RedisClient, err = infrastructure.NewRedisClient(ctx, cfg, l)
		if err != nil {
			return c, fmt.Errorf("failed to initialize Redis: %w", err)
		}
	}

	c.Store, err = c.newStore(ctx)
	if err != nil {
		return c, err
	}

	var repo user.Repository = document.NewUserRepository(c.Store, cfg.Store.Collection, l)
	if cfg.Redis.CacheEnabled {
		userCache := cache.NewRedisUserCache(
			c.RedisClient.Client,
			cfg.Store.Collection,
			time.Duration(cfg.Redis.CacheTTL)*time.Second,
			l,
		)
		repo = cached.NewCachedUserRepository(repo, userCache, l)
	}

	c.UserUC = user.New(repo, l)
	c.GinHandler = ginhandler.NewUserHandler(c.UserUC, l)

	if cfg.RateLimit.Enabled {
		c.RateLimiter = middleware.NewRateLimiter(
			c.RedisClient.Client,
			middleware.RateLimiterConfig{
				RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
				BurstCapacity:     cfg.RateLimit.BurstCapacity,
			},
			l,
		)
	}

	l.Info("container initialized",
		zap.String("store_driver", cfg.Store.Driver),
		zap.String("collection", cfg.Store.Collection),
		zap.Bool("cache", cfg.Redis.CacheEnabled),
		zap.Bool("rate_limit", cfg.RateLimit.Enabled),
	)
	return c, nil
}

func (c *Container) newStore(ctx context.Context) (docstore.Store, error) {
	switch c.Config.Store.Driver {
	case config.DriverFirestore:
		client, err := infrastructure.NewFirestoreClient(ctx, c.Config, c.Logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Firestore: %w", err)
		}
		c.Firestore = client
		return firestorestore.New(client, c.Logger), nil

	case config.DriverRedis:
		return redisstore.New(c.RedisClient.Client, c.Logger), nil

	case config.DriverPostgres:
		db, err := infrastructure.NewDatabase(ctx, c.Config, c.Logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		c.DB = db
		store := pgstore.New(db, c.Logger)
		if err := store.Migrate(ctx); err != nil {
			return nil, fmt.Errorf("failed to migrate document table: %w", err)
		}
		return store, nil

	case config.DriverMemory:
		return memory.New(), nil
	}
	return nil, fmt.Errorf("unsupported store driver %q", c.Config.Store.Driver)
}

// RouterOptions returns the router options for the wired middleware
func (c *Container) RouterOptions() ginrouter.Options {
	return ginrouter.Options{
		ServiceName: c.Config.Logger.ServiceName,
		RateLimiter: c.RateLimiter,
	}
}

// Close closes all resources held by the container
func (c *Container) Close() error {
	var errs []error

	if c.Firestore != nil {
		if err := c.Firestore.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close Firestore: %w", err))
		}
	}

	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close Redis: %w", err))
		}
	}

	if c.DB != nil {
		if err := infrastructure.CloseDatabase(c.DB); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		}
	}

	return errors.Join(errs...)
}
