package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	domain "user-rest-service/internal/domain/user"
	usecase "user-rest-service/internal/usecase/user"
	pkgerrors "user-rest-service/pkg/errors"
	"user-rest-service/pkg/security"
)

// MockUserUsecase is a mock implementation of user.Usecase
type MockUserUsecase struct {
	mock.Mock
}

func (m *MockUserUsecase) CreateUser(ctx context.Context, req usecase.CreateUserRequest) (*usecase.User, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.User), args.Error(1)
}

func (m *MockUserUsecase) GetUser(ctx context.Context, req usecase.GetUserRequest) (*usecase.User, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.User), args.Error(1)
}

func (m *MockUserUsecase) ListUsers(ctx context.Context) (*usecase.ListUsersResponse, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.ListUsersResponse), args.Error(1)
}

func (m *MockUserUsecase) ReplaceUser(ctx context.Context, req usecase.ReplaceUserRequest) (*usecase.ReplaceUserResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.ReplaceUserResponse), args.Error(1)
}

func (m *MockUserUsecase) DeleteUser(ctx context.Context, req usecase.DeleteUserRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func setupTest(t *testing.T) (*gin.Engine, *MockUserUsecase) {
	gin.SetMode(gin.TestMode)
	security.UseJSONFieldNames(binding.Validator.Engine())

	mockUsecase := new(MockUserUsecase)
	h := NewUserHandler(mockUsecase, zaptest.NewLogger(t))

	r := gin.New()
	users := r.Group("/users")
	users.POST("/", h.CreateUser)
	users.GET("/", h.ListUsers)
	users.GET("/:id", h.GetUser)
	users.PUT("/:id", h.ReplaceUser)
	users.DELETE("/:id", h.DeleteUser)
	return r, mockUsecase
}

func doRequest(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

const janeJSON = `{"first_name":"Jane","last_name":"Doe","email":"jane.doe@mail.com"}`

func TestCreateUser(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		r, mockUsecase := setupTest(t)

		mockUsecase.On("CreateUser", mock.Anything, usecase.CreateUserRequest{
			FirstName: "Jane",
			LastName:  "Doe",
			Email:     "jane.doe@mail.com",
		}).Return(&usecase.User{ID: "generated", FirstName: "Jane", LastName: "Doe", Email: "jane.doe@mail.com"}, nil)

		w := doRequest(r, http.MethodPost, "/users/", janeJSON)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.JSONEq(t, `{"id":"generated","first_name":"Jane","last_name":"Doe","email":"jane.doe@mail.com"}`, w.Body.String())
		mockUsecase.AssertExpectations(t)
	})

	t.Run("Extra fields are ignored", func(t *testing.T) {
		r, mockUsecase := setupTest(t)

		mockUsecase.On("CreateUser", mock.Anything, mock.Anything).
			Return(&usecase.User{ID: "generated", FirstName: "Jane", LastName: "Doe", Email: "jane.doe@mail.com"}, nil)

		w := doRequest(r, http.MethodPost, "/users/", `{"first_name":"Jane","last_name":"Doe","email":"jane.doe@mail.com","id":"mine","created_at":"x"}`)

		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("Invalid JSON", func(t *testing.T) {
		r, mockUsecase := setupTest(t)

		w := doRequest(r, http.MethodPost, "/users/", "invalid json")

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		resp := decodeError(t, w)
		assert.Equal(t, "validation_error", resp.Error)
		require.Len(t, resp.Details, 1)
		assert.Equal(t, "body", resp.Details[0].Field)
		mockUsecase.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything)
	})

	t.Run("Empty body", func(t *testing.T) {
		r, _ := setupTest(t)

		w := doRequest(r, http.MethodPost, "/users/", "")

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		resp := decodeError(t, w)
		require.Len(t, resp.Details, 1)
		assert.Equal(t, "request body is required", resp.Details[0].Message)
	})

	t.Run("Wrong field type", func(t *testing.T) {
		r, _ := setupTest(t)

		w := doRequest(r, http.MethodPost, "/users/", `{"first_name":5,"last_name":"Doe","email":"jane.doe@mail.com"}`)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		resp := decodeError(t, w)
		require.Len(t, resp.Details, 1)
		assert.Equal(t, "first_name", resp.Details[0].Field)
	})

	t.Run("Missing fields", func(t *testing.T) {
		r, mockUsecase := setupTest(t)

		w := doRequest(r, http.MethodPost, "/users/", `{"email":"jane.doe@mail.com"}`)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		resp := decodeError(t, w)
		assert.Equal(t, []pkgerrors.FieldError{
			{Field: "first_name", Message: "first_name is required"},
			{Field: "last_name", Message: "last_name is required"},
		}, resp.Details)
		mockUsecase.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything)
	})

	t.Run("Invalid email", func(t *testing.T) {
		r, mockUsecase := setupTest(t)

		w := doRequest(r, http.MethodPost, "/users/", `{"first_name":"Jane","last_name":"Doe","email":"jane.doe"}`)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		resp := decodeError(t, w)
		assert.Equal(t, []pkgerrors.FieldError{
			{Field: "email", Message: "email must be a valid email"},
		}, resp.Details)
		mockUsecase.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything)
	})

	t.Run("Usecase Error", func(t *testing.T) {
		r, mockUsecase := setupTest(t)

		mockUsecase.On("CreateUser", mock.Anything, mock.Anything).Return(nil, errors.New("store unavailable"))

		w := doRequest(r, http.MethodPost, "/users/", janeJSON)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		resp := decodeError(t, w)
		assert.Equal(t, "internal_error", resp.Error)
		assert.NotContains(t, w.Body.String(), "store unavailable")
	})
}

func TestGetUser(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		r, mockUsecase := setupTest(t)

		mockUsecase.On("GetUser", mock.Anything, usecase.GetUserRequest{ID: "uid123"}).
			Return(&usecase.User{ID: "uid123", FirstName: "Jane", LastName: "Doe", Email: "jane.doe@mail.com"}, nil)

		w := doRequest(r, http.MethodGet, "/users/uid123", "")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"id":"uid123","first_name":"Jane","last_name":"Doe","email":"jane.doe@mail.com"}`, w.Body.String())
	})

	t.Run("Not Found", func(t *testing.T) {
		r, mockUsecase := setupTest(t)

		mockUsecase.On("GetUser", mock.Anything, usecase.GetUserRequest{ID: "missing"}).
			Return(nil, domain.NewNotFoundError("missing"))

		w := doRequest(r, http.MethodGet, "/users/missing", "")

		assert.Equal(t, http.StatusNotFound, w.Code)
		resp := decodeError(t, w)
		assert.Equal(t, "not_found", resp.Error)
		assert.Equal(t, "No user with id 'missing' exists", resp.Message)
	})

	t.Run("Invalid ID", func(t *testing.T) {
		r, mockUsecase := setupTest(t)

		mockUsecase.On("GetUser", mock.Anything, usecase.GetUserRequest{ID: "__x__"}).
			Return(nil, security.ValidateDocumentID("__x__"))

		w := doRequest(r, http.MethodGet, "/users/__x__", "")

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		resp := decodeError(t, w)
		require.Len(t, resp.Details, 1)
		assert.Equal(t, "id", resp.Details[0].Field)
	})
}

func TestListUsers(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		r, mockUsecase := setupTest(t)

		mockUsecase.On("ListUsers", mock.Anything).Return(&usecase.ListUsersResponse{
			Users: []usecase.User{
				{ID: "uid1", FirstName: "Jane", LastName: "Doe", Email: "jane.doe@mail.com"},
				{ID: "uid2", FirstName: "John", LastName: "Roe", Email: "john@mail.com"},
			},
		}, nil)

		w := doRequest(r, http.MethodGet, "/users/", "")

		assert.Equal(t, http.StatusOK, w.Code)
		var resp []UserResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Len(t, resp, 2)
		assert.Equal(t, "uid2", resp[1].ID)
	})

	t.Run("Empty", func(t *testing.T) {
		r, mockUsecase := setupTest(t)

		mockUsecase.On("ListUsers", mock.Anything).Return(&usecase.ListUsersResponse{Users: []usecase.User{}}, nil)

		w := doRequest(r, http.MethodGet, "/users/", "")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `[]`, w.Body.String())
	})

	t.Run("Usecase Error", func(t *testing.T) {
		r, mockUsecase := setupTest(t)

		mockUsecase.On("ListUsers", mock.Anything).Return(nil, errors.New("store unavailable"))

		w := doRequest(r, http.MethodGet, "/users/", "")

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestReplaceUser(t *testing.T) {
	want := usecase.ReplaceUserRequest{ID: "uid123", FirstName: "Jane", LastName: "Doe", Email: "jane.doe@mail.com"}
	stored := usecase.User{ID: "uid123", FirstName: "Jane", LastName: "Doe", Email: "jane.doe@mail.com"}

	t.Run("Existing", func(t *testing.T) {
		r, mockUsecase := setupTest(t)

		mockUsecase.On("ReplaceUser", mock.Anything, want).Return(&usecase.ReplaceUserResponse{User: stored}, nil)

		w := doRequest(r, http.MethodPut, "/users/uid123", janeJSON)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"id":"uid123","first_name":"Jane","last_name":"Doe","email":"jane.doe@mail.com"}`, w.Body.String())
	})

	t.Run("Created", func(t *testing.T) {
		r, mockUsecase := setupTest(t)

		mockUsecase.On("ReplaceUser", mock.Anything, want).Return(&usecase.ReplaceUserResponse{User: stored, Created: true}, nil)

		w := doRequest(r, http.MethodPut, "/users/uid123", janeJSON)

		assert.Equal(t, http.StatusCreated, w.Code)
		var resp UserResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "uid123", resp.ID)
	})

	t.Run("Invalid email", func(t *testing.T) {
		r, mockUsecase := setupTest(t)

		w := doRequest(r, http.MethodPut, "/users/uid123", `{"first_name":"Jane","last_name":"Doe","email":"nope"}`)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		mockUsecase.AssertNotCalled(t, "ReplaceUser", mock.Anything, mock.Anything)
	})

	t.Run("Usecase Error", func(t *testing.T) {
		r, mockUsecase := setupTest(t)

		mockUsecase.On("ReplaceUser", mock.Anything, want).Return(nil, errors.New("store unavailable"))

		w := doRequest(r, http.MethodPut, "/users/uid123", janeJSON)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestDeleteUser(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		r, mockUsecase := setupTest(t)

		mockUsecase.On("DeleteUser", mock.Anything, usecase.DeleteUserRequest{ID: "uid123"}).Return(nil)

		w := doRequest(r, http.MethodDelete, "/users/uid123", "")

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Empty(t, w.Body.String())
	})

	t.Run("Not Found", func(t *testing.T) {
		r, mockUsecase := setupTest(t)

		mockUsecase.On("DeleteUser", mock.Anything, usecase.DeleteUserRequest{ID: "missing"}).
			Return(domain.NewNotFoundError("missing"))

		w := doRequest(r, http.MethodDelete, "/users/missing", "")

		assert.Equal(t, http.StatusNotFound, w.Code)
		resp := decodeError(t, w)
		assert.Equal(t, "No user with id 'missing' exists", resp.Message)
	})

	t.Run("Usecase Error", func(t *testing.T) {
		r, mockUsecase := setupTest(t)

		mockUsecase.On("DeleteUser", mock.Anything, mock.Anything).Return(pkgerrors.NewInternalError("boom", nil))

		w := doRequest(r, http.MethodDelete, "/users/uid123", "")

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}
