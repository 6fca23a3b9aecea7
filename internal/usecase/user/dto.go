package user

// CreateUserRequest represents the request payload for creating a new user.
type CreateUserRequest struct {
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
}

// GetUserRequest represents the request payload for retrieving a user.
type GetUserRequest struct {
	ID string
}

// ReplaceUserRequest represents the request payload for replacing a user at a known id.
// The user is created when the id does not exist yet.
type ReplaceUserRequest struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
}

// ReplaceUserResponse represents the response payload after replacing a user.
type ReplaceUserResponse struct {
	User    User
	Created bool // true when no user existed at the id
}

// DeleteUserRequest represents the request payload for deleting a user.
type DeleteUserRequest struct {
	ID string
}

// ListUsersResponse represents the response payload for user listing.
type ListUsersResponse struct {
	Users []User
}

// User represents a user DTO (Data Transfer Object) for API responses.
type User struct {
	ID        string
	FirstName string
	LastName  string
	Email     string
}
