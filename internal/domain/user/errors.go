package user

import (
	"fmt"

	pkgerrors "user-rest-service/pkg/errors"
)

// Resource is the resource name carried by user errors.
const Resource = "user"

// NewNotFoundError returns the error reported when no user exists at id.
func NewNotFoundError(id string) *pkgerrors.NotFoundError {
	return pkgerrors.NewNotFoundError(Resource, fmt.Sprintf("user with id %q not found", id))
}

// IsNotFound reports whether err means the requested user does not exist.
func IsNotFound(err error) bool {
	return pkgerrors.IsNotFound(err, Resource)
}
