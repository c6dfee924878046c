package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prperemyshlev/pages-service/internal/domain"
	"github.com/prperemyshlev/pages-service/internal/dto"
	"github.com/prperemyshlev/pages-service/internal/repository"
	"github.com/prperemyshlev/pages-service/internal/service"
	"github.com/prperemyshlev/pages-service/internal/validation"
	"go.uber.org/zap"
)

// PageHandler handles page requests
type PageHandler struct {
	pageService service.PageService
	logger      *zap.Logger
}

func NewPageHandler(pageService service.PageService, logger *zap.Logger) *PageHandler {
	return &PageHandler{pageService: pageService, logger: logger}
}

func pageErrors(action string) errorMessages {
	return errorMessages{
		notFound:  msgPageNotFound,
		forbidden: "You don't have permission to " + action + " this page",
	}
}

// List returns public pages, the caller's own pages or search results.
// Expects OptionalAuthMiddleware in front of it.
// @Router /pages [get]
func (h *PageHandler) List(c *gin.Context) {
	page, limit, result := validation.ValidatePaging(c.Query("page"), c.Query("limit"))
	if !result.IsValid {
		firstError(c, result)
		return
	}

	opts := repository.ListOptions{
		Limit:          limit,
		Offset:         (page - 1) * limit,
		OrderBy:        c.Query("orderBy"),
		OrderDirection: c.Query("orderDirection"),
	}
	myPages := c.Query("my_pages") == "true"
	viewer := viewerID(c)
	ctx := c.Request.Context()

	var (
		pages   []domain.PageWithOwner
		total   int
		message string
		err     error
	)

	switch search := c.Query("search"); {
	case search != "":
		if myPages && viewer == nil {
			c.JSON(http.StatusUnauthorized, dto.Failure("Authentication required for searching your pages"))
			return
		}
		pages, total, err = h.pageService.Search(ctx, search, myPages, viewer, opts)
		message = "Pages retrieved successfully"
	case myPages:
		if viewer == nil {
			c.JSON(http.StatusUnauthorized, dto.Failure(msgAuthRequired))
			return
		}
		pages, total, err = h.pageService.ListByOwner(ctx, *viewer, opts)
		message = "Your pages retrieved successfully"
	default:
		pages, total, err = h.pageService.ListPublic(ctx, opts)
		message = "Public pages retrieved successfully"
	}

	if err != nil {
		respondError(c, h.logger, err, pageErrors("view"))
		return
	}

	c.JSON(http.StatusOK, dto.Success(dto.PagesList{
		Pages:      pages,
		Pagination: dto.NewPagination(page, limit, total),
	}, message))
}

// Create stores a page owned by the authenticated user
// @Router /pages [post]
func (h *PageHandler) Create(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, dto.Failure(msgAuthRequired))
		return
	}

	var req dto.CreatePageRequest
	if !bindJSON(c, validation.ValidateCreatePage, &req) {
		return
	}

	page, err := h.pageService.Create(c.Request.Context(), user.ID, &req)
	if err != nil {
		respondError(c, h.logger, err, pageErrors("create"))
		return
	}

	c.JSON(http.StatusCreated, dto.Success(page, "Page created successfully"))
}

// Get returns a page the caller may view
// @Router /pages/{slug} [get]
func (h *PageHandler) Get(c *gin.Context) {
	page, err := h.pageService.GetBySlug(c.Request.Context(), c.Param("slug"), viewerID(c))
	if err != nil {
		respondError(c, h.logger, err, pageErrors("view"))
		return
	}

	c.JSON(http.StatusOK, dto.Success(page, "Page retrieved successfully"))
}

// Update changes a page owned by the authenticated user
// @Router /pages/{slug} [put]
func (h *PageHandler) Update(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, dto.Failure(msgAuthRequired))
		return
	}

	var req dto.UpdatePageRequest
	if !bindJSON(c, validation.ValidateUpdatePage, &req) {
		return
	}

	page, err := h.pageService.Update(c.Request.Context(), c.Param("slug"), user.ID, &req)
	if err != nil {
		respondError(c, h.logger, err, pageErrors("edit"))
		return
	}

	c.JSON(http.StatusOK, dto.Success(page, "Page updated successfully"))
}

// Delete removes a page owned by the authenticated user
// @Router /pages/{slug} [delete]
func (h *PageHandler) Delete(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, dto.Failure(msgAuthRequired))
		return
	}

	if err := h.pageService.Delete(c.Request.Context(), c.Param("slug"), user.ID); err != nil {
		respondError(c, h.logger, err, pageErrors("delete"))
		return
	}

	c.JSON(http.StatusOK, dto.Success(nil, "Page deleted successfully"))
}
