package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prperemyshlev/pages-service/internal/domain"
	"github.com/prperemyshlev/pages-service/internal/dto"
	"github.com/prperemyshlev/pages-service/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newUserRouter(users *fakeUserService) *gin.Engine {
	h := NewUserHandler(users, zap.NewNop())

	r := gin.New()
	g := r.Group("/api/v1/users")
	g.GET("", h.List)
	g.POST("", h.Create)
	g.DELETE("", h.Delete)
	g.GET("/search", h.Search)
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update)
	return r
}

func TestUserHandler_List(t *testing.T) {
	users := newFakeUserService(
		&domain.User{ID: 1, Name: "Ann", Email: "ann@example.com"},
		&domain.User{ID: 2, Name: "Bob", Email: "bob@example.com"},
	)
	r := newUserRouter(users)

	w := doRequest(r, http.MethodGet, "/api/v1/users?limit=10&offset=5&orderBy=name&orderDirection=asc", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var data dto.UsersList
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &data))
	assert.Equal(t, 2, data.Total)
	assert.Len(t, data.Users, 2)
	assert.Equal(t, repository.ListOptions{Limit: 10, Offset: 5, OrderBy: "name", OrderDirection: "asc"}, users.lastOpts)
}

func TestUserHandler_ListErrors(t *testing.T) {
	users := newFakeUserService()
	r := newUserRouter(users)

	w := doRequest(r, http.MethodGet, "/api/v1/users?limit=abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Validation failed", decodeEnvelope(t, w).Error)

	users.listErr = repository.ErrInvalidOrderColumn
	w = doRequest(r, http.MethodGet, "/api/v1/users?orderBy=password_hash", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "orderBy")

	users.listErr = errors.New("connection reset")
	w = doRequest(r, http.MethodGet, "/api/v1/users", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "An unexpected error occurred", decodeEnvelope(t, w).Error)
}

func TestUserHandler_CreateAndDuplicate(t *testing.T) {
	r := newUserRouter(newFakeUserService())
	body := `{"name":"Ann","email":"ann@example.com","age":30}`

	w := doRequest(r, http.MethodPost, "/api/v1/users", jsonBody(body))
	require.Equal(t, http.StatusCreated, w.Code)
	env := decodeEnvelope(t, w)
	assert.Equal(t, "User created successfully", env.Message)

	var user dto.UserResponse
	require.NoError(t, json.Unmarshal(env.Data, &user))
	require.NotNil(t, user.Age)
	assert.Equal(t, 30, *user.Age)

	w = doRequest(r, http.MethodPost, "/api/v1/users", jsonBody(body))
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "Email already exists", decodeEnvelope(t, w).Error)
}

func TestUserHandler_CreateAcceptsIntegralFloatAge(t *testing.T) {
	r := newUserRouter(newFakeUserService())

	w := doRequest(r, http.MethodPost, "/api/v1/users", jsonBody(`{"name":"Ann","email":"ann@example.com","age":25.0}`))
	require.Equal(t, http.StatusCreated, w.Code)

	var user dto.UserResponse
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &user))
	require.NotNil(t, user.Age)
	assert.Equal(t, 25, *user.Age)

	w = doRequest(r, http.MethodPost, "/api/v1/users", jsonBody(`{"name":"Bob","email":"bob@example.com","age":25.5}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Age must be an integer")
}

func TestUserHandler_GetUpdateDelete(t *testing.T) {
	r := newUserRouter(newFakeUserService(&domain.User{ID: 7, Name: "Ann", Email: "ann@example.com"}))

	w := doRequest(r, http.MethodGet, "/api/v1/users/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "User ID must be a positive integer")

	w = doRequest(r, http.MethodGet, "/api/v1/users/8", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "User not found", decodeEnvelope(t, w).Error)

	w = doRequest(r, http.MethodPut, "/api/v1/users/7", jsonBody(`{"name":"Anna"}`))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "User updated successfully", decodeEnvelope(t, w).Message)

	w = doRequest(r, http.MethodDelete, "/api/v1/users", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "User ID is required")

	w = doRequest(r, http.MethodDelete, "/api/v1/users?id=7", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "User deleted successfully", decodeEnvelope(t, w).Message)

	w = doRequest(r, http.MethodGet, "/api/v1/users/7", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUserHandler_Search(t *testing.T) {
	r := newUserRouter(newFakeUserService(&domain.User{ID: 1, Name: "Annabel", Email: "a@example.com"}))

	w := doRequest(r, http.MethodGet, "/api/v1/users/search?search=a", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Search term must be at least 2 characters", decodeEnvelope(t, w).Error)

	w = doRequest(r, http.MethodGet, "/api/v1/users/search", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Search term is required", decodeEnvelope(t, w).Error)

	w = doRequest(r, http.MethodGet, "/api/v1/users/search?search=Anna", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var data dto.UsersList
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &data))
	assert.Equal(t, 1, data.Total)
}
