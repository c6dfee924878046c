package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prperemyshlev/pages-service/internal/dto"
	"github.com/prperemyshlev/pages-service/internal/repository"
	"github.com/prperemyshlev/pages-service/internal/service"
	"github.com/prperemyshlev/pages-service/internal/validation"
	"go.uber.org/zap"
)

// UserHandler handles user record management
type UserHandler struct {
	userService service.UserService
	logger      *zap.Logger
}

func NewUserHandler(userService service.UserService, logger *zap.Logger) *UserHandler {
	return &UserHandler{userService: userService, logger: logger}
}

// List returns users with optional limit, offset and ordering
// @Router /users [get]
func (h *UserHandler) List(c *gin.Context) {
	limit, offset, result := validation.ValidateOffsetLimit(c.Query("limit"), c.Query("offset"))
	if !result.IsValid {
		c.JSON(http.StatusBadRequest, dto.ValidationFailure(result.Errors))
		return
	}

	opts := repository.ListOptions{
		OrderBy:        c.Query("orderBy"),
		OrderDirection: c.Query("orderDirection"),
	}
	if limit != nil {
		opts.Limit = *limit
	}
	if offset != nil {
		opts.Offset = *offset
	}

	users, total, err := h.userService.List(c.Request.Context(), opts)
	if err != nil {
		respondError(c, h.logger, err, userErrors)
		return
	}

	c.JSON(http.StatusOK, dto.Success(dto.UsersList{Users: dto.NewUserResponses(users), Total: total}, ""))
}

// Create adds a user record without credentials
// @Router /users [post]
func (h *UserHandler) Create(c *gin.Context) {
	var req dto.CreateUserRequest
	if !bindJSON(c, validation.ValidateCreateUser, &req) {
		return
	}

	user, err := h.userService.Create(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.logger, err, userErrors)
		return
	}

	c.JSON(http.StatusCreated, dto.Success(dto.NewUserResponse(user), "User created successfully"))
}

// Get returns one user
// @Router /users/{id} [get]
func (h *UserHandler) Get(c *gin.Context) {
	id, ok := parseUserID(c, c.Param("id"))
	if !ok {
		return
	}

	user, err := h.userService.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err, userErrors)
		return
	}

	c.JSON(http.StatusOK, dto.Success(dto.NewUserResponse(user), ""))
}

// Update applies a partial update to a user
// @Router /users/{id} [put]
func (h *UserHandler) Update(c *gin.Context) {
	id, ok := parseUserID(c, c.Param("id"))
	if !ok {
		return
	}

	var req dto.UpdateUserRequest
	if !bindJSON(c, validation.ValidateUpdateUser, &req) {
		return
	}

	user, err := h.userService.Update(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, h.logger, err, userErrors)
		return
	}

	c.JSON(http.StatusOK, dto.Success(dto.NewUserResponse(user), "User updated successfully"))
}

// Delete removes the user given by the id query parameter
// @Router /users [delete]
func (h *UserHandler) Delete(c *gin.Context) {
	id, ok := parseUserID(c, c.Query("id"))
	if !ok {
		return
	}

	user, err := h.userService.Delete(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err, userErrors)
		return
	}

	c.JSON(http.StatusOK, dto.Success(dto.NewUserResponse(user), "User deleted successfully"))
}

// Search matches users by name or email
// @Router /users/search [get]
func (h *UserHandler) Search(c *gin.Context) {
	term := c.Query("search")
	if result := validation.ValidateSearchTerm(term); !result.IsValid {
		firstError(c, result)
		return
	}

	users, err := h.userService.Search(c.Request.Context(), term)
	if err != nil {
		respondError(c, h.logger, err, userErrors)
		return
	}

	c.JSON(http.StatusOK, dto.Success(dto.UsersList{Users: dto.NewUserResponses(users), Total: len(users)}, ""))
}

func parseUserID(c *gin.Context, raw string) (int64, bool) {
	if result := validation.ValidateUserID(raw); !result.IsValid {
		c.JSON(http.StatusBadRequest, dto.ValidationFailure(result.Errors))
		return 0, false
	}

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ValidationFailure([]validation.FieldError{
			{Field: "id", Message: "User ID must be a positive integer"},
		}))
		return 0, false
	}

	return id, true
}
