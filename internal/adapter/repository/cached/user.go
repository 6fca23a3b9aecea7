package cached

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"user-rest-service/internal/adapter/cache"
	domain "user-rest-service/internal/domain/user"
	"user-rest-service/internal/usecase/user"
)

// CachedUserRepository implements user.Repository with caching support.
// It wraps a persistent repository and a cache implementation.
type CachedUserRepository struct {
	repo  user.Repository
	cache cache.UserCache
	log   *zap.Logger
	group singleflight.Group
}

// NewCachedUserRepository creates a new instance of CachedUserRepository.
func NewCachedUserRepository(repo user.Repository, cache cache.UserCache, log *zap.Logger) *CachedUserRepository {
	return &CachedUserRepository{
		repo:  repo,
		cache: cache,
		log:   log,
	}
}

// CreateUser writes through to the repository and drops any cached entry
// for the id, since create overwrites an existing user.
func (r *CachedUserRepository) CreateUser(ctx context.Context, fields domain.Fields, id string) (*domain.User, error) {
	u, err := r.repo.CreateUser(ctx, fields, id)
	if err != nil {
		return nil, err
	}
	r.invalidate(ctx, u.ID, "create")
	return u, nil
}

// GetUser retrieves a user by ID using Cache-Aside pattern.
func (r *CachedUserRepository) GetUser(ctx context.Context, id string) (*domain.User, error) {
	cachedUser, err := r.cache.Get(ctx, id)
	if err != nil {
		r.log.Warn("cache get error, falling back to store", zap.String("id", id), zap.Error(err))
	} else if cachedUser != nil {
		r.log.Debug("user retrieved from cache", zap.String("id", id))
		return cachedUser, nil
	}

	// Cache miss - use single-flight to prevent stampede
	result, err, _ := r.group.Do(id, func() (any, error) {
		// Double-check cache in case another request populated it while we were waiting
		if cachedUser, err := r.cache.Get(ctx, id); err == nil && cachedUser != nil {
			r.log.Debug("user retrieved from cache after single-flight wait", zap.String("id", id))
			return cachedUser, nil
		}

		u, err := r.repo.GetUser(ctx, id)
		if err != nil {
			return nil, err
		}

		if err := r.cache.Set(ctx, u); err != nil {
			r.log.Warn("failed to cache user", zap.String("id", id), zap.Error(err))
		}
		return u, nil
	})
	if err != nil {
		return nil, err
	}

	return result.(*domain.User), nil
}

// GetAllUsers always reads from the repository.
func (r *CachedUserRepository) GetAllUsers(ctx context.Context) ([]domain.User, error) {
	return r.repo.GetAllUsers(ctx)
}

// UpdateUser updates the user and invalidates the cache.
func (r *CachedUserRepository) UpdateUser(ctx context.Context, fields domain.Fields, id string) (*domain.User, error) {
	u, err := r.repo.UpdateUser(ctx, fields, id)
	if err != nil {
		return nil, err
	}
	r.invalidate(ctx, id, "update")
	return u, nil
}

// DeleteUser deletes the user and invalidates the cache.
func (r *CachedUserRepository) DeleteUser(ctx context.Context, id string) error {
	if err := r.repo.DeleteUser(ctx, id); err != nil {
		return err
	}
	r.invalidate(ctx, id, "delete")
	return nil
}

func (r *CachedUserRepository) invalidate(ctx context.Context, id, op string) {
	if err := r.cache.Delete(ctx, id); err != nil {
		r.log.Warn("failed to invalidate cache", zap.String("id", id), zap.String("op", op), zap.Error(err))
	}
}
