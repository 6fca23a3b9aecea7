// Package document implements the user repository on top of a docstore.Store.
package document

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"user-rest-service/internal/adapter/docstore"
	domain "user-rest-service/internal/domain/user"
	pkgerrors "user-rest-service/pkg/errors"
)

// Document field names of a stored user.
const (
	FieldFirstName = "first_name"
	FieldLastName  = "last_name"
	FieldEmail     = "email"
)

// UserRepository implements user.Repository on one collection of a document store.
type UserRepository struct {
	store      docstore.Store
	collection string
	log        *zap.Logger
}

// NewUserRepository creates a repository storing users in collection.
func NewUserRepository(store docstore.Store, collection string, log *zap.Logger) *UserRepository {
	return &UserRepository{
		store:      store,
		collection: collection,
		log:        log,
	}
}

// CreateUser writes a user document and returns it as stored.
// An empty id lets the store generate one; an existing document at id is overwritten.
func (r *UserRepository) CreateUser(ctx context.Context, fields domain.Fields, id string) (*domain.User, error) {
	storedID, err := r.store.Create(ctx, r.collection, toDocument(fields), id)
	if err != nil {
		r.log.Error("failed to create user document", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	r.log.Info("user created", zap.String("id", storedID))
	return r.GetUser(ctx, storedID)
}

// GetUser reads the user stored at id.
func (r *UserRepository) GetUser(ctx context.Context, id string) (*domain.User, error) {
	doc, ok, err := r.store.Get(ctx, r.collection, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if !ok {
		return nil, domain.NewNotFoundError(id)
	}

	u, err := fromDocument(id, doc)
	if err != nil {
		r.log.Error("malformed user document", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return &u, nil
}

// GetAllUsers reads the whole collection in store order.
func (r *UserRepository) GetAllUsers(ctx context.Context) ([]domain.User, error) {
	users := []domain.User{}
	for snap, err := range r.store.GetAll(ctx, r.collection) {
		if err != nil {
			return nil, fmt.Errorf("failed to list users: %w", err)
		}

		u, err := fromDocument(snap.ID, snap.Data)
		if err != nil {
			r.log.Error("malformed user document", zap.String("id", snap.ID), zap.Error(err))
			return nil, err
		}
		users = append(users, u)
	}
	return users, nil
}

// UpdateUser writes all content fields at id and returns the stored user.
// It does not check that the user exists; a missing document is created.
func (r *UserRepository) UpdateUser(ctx context.Context, fields domain.Fields, id string) (*domain.User, error) {
	if err := r.store.Update(ctx, r.collection, id, toDocument(fields)); err != nil {
		r.log.Error("failed to update user document", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	r.log.Info("user updated", zap.String("id", id))
	return r.GetUser(ctx, id)
}

// DeleteUser removes the user at id, failing with a not-found error when
// there is nothing to remove.
func (r *UserRepository) DeleteUser(ctx context.Context, id string) error {
	_, ok, err := r.store.Get(ctx, r.collection, id)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}
	if !ok {
		return domain.NewNotFoundError(id)
	}

	if err := r.store.Delete(ctx, r.collection, id); err != nil {
		r.log.Error("failed to delete user document", zap.String("id", id), zap.Error(err))
		return fmt.Errorf("failed to delete user: %w", err)
	}

	r.log.Info("user deleted", zap.String("id", id))
	return nil
}

func toDocument(f domain.Fields) docstore.Document {
	return docstore.Document{
		FieldFirstName: f.FirstName,
		FieldLastName:  f.LastName,
		FieldEmail:     f.Email,
	}
}

func fromDocument(id string, doc docstore.Document) (domain.User, error) {
	if id == "" {
		return domain.User{}, pkgerrors.NewInternalError("user document has an empty id", nil)
	}

	var f domain.Fields
	for key, dst := range map[string]*string{
		FieldFirstName: &f.FirstName,
		FieldLastName:  &f.LastName,
		FieldEmail:     &f.Email,
	} {
		v, ok := doc[key].(string)
		if !ok || v == "" {
			return domain.User{}, pkgerrors.NewInternalError(
				fmt.Sprintf("user document %q has no %s", id, key), nil)
		}
		*dst = v
	}
	return f.WithID(id), nil
}
