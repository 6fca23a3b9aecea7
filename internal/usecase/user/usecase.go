package user

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	domain "user-rest-service/internal/domain/user"
	"user-rest-service/pkg/security"
)

// Repository defines the interface for user data access operations.
// It abstracts the document store so the use case never sees raw documents.
type Repository interface {
	CreateUser(ctx context.Context, fields domain.Fields, id string) (*domain.User, error) // Create a user, generating the id when empty
	GetUser(ctx context.Context, id string) (*domain.User, error)                         // Retrieve user by id
	GetAllUsers(ctx context.Context) ([]domain.User, error)                               // List every stored user
	UpdateUser(ctx context.Context, fields domain.Fields, id string) (*domain.User, error) // Overwrite the fields stored at id
	DeleteUser(ctx context.Context, id string) error                                      // Delete user by id
}

// Service implements Usecase on top of a Repository.
type Service struct {
	repo     Repository          // Repository for data access
	log      *zap.Logger         // Logger for structured logging
	validate *validator.Validate // Validator for request validation
}

var _ Usecase = (*Service)(nil)

// New creates a new Service with the provided repository and logger.
func New(r Repository, log *zap.Logger) *Service {
	return &Service{repo: r, log: log, validate: security.NewValidator()}
}

// CreateUser validates the request and stores a new user under a generated id.
func (uc *Service) CreateUser(ctx context.Context, in CreateUserRequest) (*User, error) {
	uc.log.Info("creating user", zap.String("email", in.Email))

	if err := uc.validate.Struct(in); err != nil {
		uc.log.Warn("validate failed", zap.Error(err))
		return nil, security.ToValidationError(err)
	}

	u, err := uc.repo.CreateUser(ctx, domain.Fields{
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Email:     in.Email,
	}, "")
	if err != nil {
		uc.log.Error("failed to create user", zap.Error(err))
		return nil, err
	}
	return toDTO(u), nil
}

// GetUser retrieves a user by id.
func (uc *Service) GetUser(ctx context.Context, in GetUserRequest) (*User, error) {
	if err := security.ValidateDocumentID(in.ID); err != nil {
		uc.log.Warn("get user validation failed", zap.String("id", in.ID), zap.Error(err))
		return nil, err
	}

	u, err := uc.repo.GetUser(ctx, in.ID)
	if err != nil {
		if !domain.IsNotFound(err) {
			uc.log.Error("failed to get user", zap.String("id", in.ID), zap.Error(err))
		}
		return nil, err
	}
	return toDTO(u), nil
}

// ListUsers returns every stored user.
func (uc *Service) ListUsers(ctx context.Context) (*ListUsersResponse, error) {
	domainUsers, err := uc.repo.GetAllUsers(ctx)
	if err != nil {
		uc.log.Error("failed to list users", zap.Error(err))
		return nil, err
	}

	users := make([]User, len(domainUsers))
	for i := range domainUsers {
		users[i] = *toDTO(&domainUsers[i])
	}

	uc.log.Debug("listed users", zap.Int("count", len(users)))
	return &ListUsersResponse{Users: users}, nil
}

// ReplaceUser overwrites the user stored at in.ID, creating it when the id
// is unknown. Existence is probed once before the write; two concurrent
// calls for a new id may both create, and the last write wins.
func (uc *Service) ReplaceUser(ctx context.Context, in ReplaceUserRequest) (*ReplaceUserResponse, error) {
	uc.log.Info("replacing user", zap.String("id", in.ID), zap.String("email", in.Email))

	if err := security.ValidateDocumentID(in.ID); err != nil {
		uc.log.Warn("replace user validation failed", zap.String("id", in.ID), zap.Error(err))
		return nil, err
	}
	if err := uc.validate.Struct(in); err != nil {
		uc.log.Warn("validate failed", zap.Error(err))
		return nil, security.ToValidationError(err)
	}

	fields := domain.Fields{
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Email:     in.Email,
	}

	_, err := uc.repo.GetUser(ctx, in.ID)
	switch {
	case err == nil:
		u, err := uc.repo.UpdateUser(ctx, fields, in.ID)
		if err != nil {
			uc.log.Error("failed to update user", zap.String("id", in.ID), zap.Error(err))
			return nil, err
		}
		return &ReplaceUserResponse{User: *toDTO(u)}, nil

	case domain.IsNotFound(err):
		u, err := uc.repo.CreateUser(ctx, fields, in.ID)
		if err != nil {
			uc.log.Error("failed to create user", zap.String("id", in.ID), zap.Error(err))
			return nil, err
		}
		return &ReplaceUserResponse{User: *toDTO(u), Created: true}, nil

	default:
		uc.log.Error("failed to check user existence", zap.String("id", in.ID), zap.Error(err))
		return nil, err
	}
}

// DeleteUser removes a user by id.
func (uc *Service) DeleteUser(ctx context.Context, in DeleteUserRequest) error {
	uc.log.Info("deleting user", zap.String("id", in.ID))

	if err := security.ValidateDocumentID(in.ID); err != nil {
		uc.log.Warn("delete user validation failed", zap.String("id", in.ID), zap.Error(err))
		return err
	}

	if err := uc.repo.DeleteUser(ctx, in.ID); err != nil {
		if !domain.IsNotFound(err) {
			uc.log.Error("failed to delete user", zap.String("id", in.ID), zap.Error(err))
		}
		return err
	}
	return nil
}

func toDTO(u *domain.User) *User {
	return &User{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
	}
}
