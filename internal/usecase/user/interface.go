package user

import "context"

// Usecase defines the interface for user business logic operations.
type Usecase interface {
	CreateUser(ctx context.Context, in CreateUserRequest) (*User, error)
	GetUser(ctx context.Context, in GetUserRequest) (*User, error)
	ListUsers(ctx context.Context) (*ListUsersResponse, error)
	ReplaceUser(ctx context.Context, in ReplaceUserRequest) (*ReplaceUserResponse, error)
	DeleteUser(ctx context.Context, in DeleteUserRequest) error
}
