package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"user-rest-service/internal/usecase/user"
	pkgerrors "user-rest-service/pkg/errors"
	"user-rest-service/pkg/security"
)

// UserHandler handles HTTP requests for user operations
type UserHandler struct {
	uc  user.Usecase
	log *zap.Logger
}

// NewUserHandler creates a new UserHandler instance
func NewUserHandler(uc user.Usecase, log *zap.Logger) *UserHandler {
	return &UserHandler{
		uc:  uc,
		log: log,
	}
}

// UserRequest represents the HTTP request body for creating or replacing a user
type UserRequest struct {
	FirstName string `json:"first_name" binding:"required"`
	LastName  string `json:"last_name" binding:"required"`
	Email     string `json:"email" binding:"required,email"`
}

// UserResponse represents the HTTP response for user data
type UserResponse struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string                 `json:"error"`
	Message string                 `json:"message,omitempty"`
	Details []pkgerrors.FieldError `json:"details,omitempty"`
}

// CreateUser handles POST /users/
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req UserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warn("Invalid create user request", zap.Error(err))
		h.bindError(c, err)
		return
	}

	resp, err := h.uc.CreateUser(c.Request.Context(), user.CreateUserRequest{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
	})
	if err != nil {
		h.log.Error("Gin CreateUser failed", zap.Error(err))
		h.handleError(c, "", err)
		return
	}

	c.JSON(http.StatusCreated, toResponse(resp))
}

// GetUser handles GET /users/:id
func (h *UserHandler) GetUser(c *gin.Context) {
	id := c.Param("id")

	resp, err := h.uc.GetUser(c.Request.Context(), user.GetUserRequest{ID: id})
	if err != nil {
		h.handleError(c, id, err)
		return
	}

	c.JSON(http.StatusOK, toResponse(resp))
}

// ListUsers handles GET /users/
func (h *UserHandler) ListUsers(c *gin.Context) {
	resp, err := h.uc.ListUsers(c.Request.Context())
	if err != nil {
		h.log.Error("Gin ListUsers failed", zap.Error(err))
		h.handleError(c, "", err)
		return
	}

	users := make([]UserResponse, len(resp.Users))
	for i := range resp.Users {
		users[i] = toResponse(&resp.Users[i])
	}

	c.JSON(http.StatusOK, users)
}

// ReplaceUser handles PUT /users/:id, answering 201 when the user did not exist
func (h *UserHandler) ReplaceUser(c *gin.Context) {
	id := c.Param("id")

	var req UserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warn("Invalid replace user request", zap.String("id", id), zap.Error(err))
		h.bindError(c, err)
		return
	}

	resp, err := h.uc.ReplaceUser(c.Request.Context(), user.ReplaceUserRequest{
		ID:        id,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
	})
	if err != nil {
		h.log.Error("Gin ReplaceUser failed", zap.String("id", id), zap.Error(err))
		h.handleError(c, id, err)
		return
	}

	status := http.StatusOK
	if resp.Created {
		status = http.StatusCreated
	}
	c.JSON(status, toResponse(&resp.User))
}

// DeleteUser handles DELETE /users/:id
func (h *UserHandler) DeleteUser(c *gin.Context) {
	id := c.Param("id")

	if err := h.uc.DeleteUser(c.Request.Context(), user.DeleteUserRequest{ID: id}); err != nil {
		h.handleError(c, id, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func toResponse(u *user.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
	}
}

// bindError answers 422 for a request body that could not be bound
func (h *UserHandler) bindError(c *gin.Context, err error) {
	details := security.FieldErrors(err)
	if details == nil {
		details = []pkgerrors.FieldError{bodyError(err)}
	}

	ve := pkgerrors.NewFieldsValidationError(details)
	c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
		Error:   "validation_error",
		Message: ve.Message,
		Details: ve.Details,
	})
}

func bodyError(err error) pkgerrors.FieldError {
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &typeErr) && typeErr.Field != "":
		return pkgerrors.FieldError{
			Field:   typeErr.Field,
			Message: fmt.Sprintf("%s must be a %s", typeErr.Field, typeErr.Type),
		}
	case errors.Is(err, io.EOF):
		return pkgerrors.FieldError{Field: "body", Message: "request body is required"}
	default:
		return pkgerrors.FieldError{Field: "body", Message: "request body must be a valid JSON object"}
	}
}

// handleError converts usecase errors to appropriate HTTP responses
func (h *UserHandler) handleError(c *gin.Context, id string, err error) {
	var ve *pkgerrors.ValidationError
	switch {
	case errors.As(err, &ve):
		c.JSON(ve.HTTPStatus(), ErrorResponse{
			Error:   "validation_error",
			Message: ve.Message,
			Details: ve.Details,
		})
	case pkgerrors.StatusOf(err) == http.StatusNotFound:
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: fmt.Sprintf("No user with id '%s' exists", id),
		})
	default:
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "An internal error occurred",
		})
	}
}
