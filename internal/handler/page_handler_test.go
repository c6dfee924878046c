package handler

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prperemyshlev/pages-service/internal/domain"
	"github.com/prperemyshlev/pages-service/internal/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newPageRouter(pages *fakePageService) *gin.Engine {
	auth := newFakeAuthService(
		&domain.User{ID: 1, Email: "owner@example.com"},
		&domain.User{ID: 2, Email: "other@example.com"},
	)
	h := NewPageHandler(pages, zap.NewNop())

	r := gin.New()
	g := r.Group("/api/v1/pages")
	g.GET("", OptionalAuthMiddleware(auth), h.List)
	g.POST("", AuthMiddleware(auth), h.Create)
	g.GET("/:slug", OptionalAuthMiddleware(auth), h.Get)
	g.PUT("/:slug", AuthMiddleware(auth), h.Update)
	g.DELETE("/:slug", AuthMiddleware(auth), h.Delete)
	return r
}

type pagesListBody struct {
	Pages      []domain.PageWithOwner `json:"pages"`
	Pagination dto.Pagination         `json:"pagination"`
}

func TestPageHandler_ListPublic(t *testing.T) {
	pages := newFakePageService()
	pages.add("public-one", 1, true)
	pages.add("private-one", 1, false)
	r := newPageRouter(pages)

	w := doRequest(r, http.MethodGet, "/api/v1/pages?page=2&limit=5", nil)

	require.Equal(t, http.StatusOK, w.Code)
	env := decodeEnvelope(t, w)
	assert.Equal(t, "Public pages retrieved successfully", env.Message)

	var data pagesListBody
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.Len(t, data.Pages, 1)
	assert.Equal(t, "public-one", data.Pages[0].Slug)
	assert.Equal(t, dto.Pagination{Page: 2, Limit: 5, Total: 1, TotalPages: 1}, data.Pagination)
	assert.Equal(t, 5, pages.lastOpts.Offset)
}

func TestPageHandler_ListRejectsBadPaging(t *testing.T) {
	r := newPageRouter(newFakePageService())

	w := doRequest(r, http.MethodGet, "/api/v1/pages?limit=101", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Limit must be between 1 and 100", decodeEnvelope(t, w).Error)

	w = doRequest(r, http.MethodGet, "/api/v1/pages?page=0", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Page must be a positive integer", decodeEnvelope(t, w).Error)

	w = doRequest(r, http.MethodGet, "/api/v1/pages?page=9223372036854775807&limit=100", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Page must be between 1 and 1000000", decodeEnvelope(t, w).Error)
}

func TestPageHandler_MyPages(t *testing.T) {
	pages := newFakePageService()
	pages.add("mine", 1, false)
	pages.add("theirs", 2, true)
	r := newPageRouter(pages)

	w := doRequest(r, http.MethodGet, "/api/v1/pages?my_pages=true", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Authentication required", decodeEnvelope(t, w).Error)

	w = doRequest(r, http.MethodGet, "/api/v1/pages?my_pages=true&search=mi", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Authentication required for searching your pages", decodeEnvelope(t, w).Error)

	w = doRequest(r, http.MethodGet, "/api/v1/pages?my_pages=true", nil, "Authorization", tokenFor(1))
	require.Equal(t, http.StatusOK, w.Code)
	env := decodeEnvelope(t, w)
	assert.Equal(t, "Your pages retrieved successfully", env.Message)

	var data pagesListBody
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.Len(t, data.Pages, 1)
	assert.Equal(t, "mine", data.Pages[0].Slug)
}

func TestPageHandler_SearchIncludesOwnPrivatePages(t *testing.T) {
	pages := newFakePageService()
	pages.add("mine", 1, false)
	r := newPageRouter(pages)

	w := doRequest(r, http.MethodGet, "/api/v1/pages?search=mine&my_pages=true", nil, "Authorization", tokenFor(1))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Pages retrieved successfully", decodeEnvelope(t, w).Message)
	assert.True(t, pages.searchScoped)
}

func TestPageHandler_GetVisibility(t *testing.T) {
	pages := newFakePageService()
	pages.add("secret", 1, false)
	r := newPageRouter(pages)

	w := doRequest(r, http.MethodGet, "/api/v1/pages/secret", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "You don't have permission to view this page", decodeEnvelope(t, w).Error)

	w = doRequest(r, http.MethodGet, "/api/v1/pages/secret", nil, "Authorization", tokenFor(2))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doRequest(r, http.MethodGet, "/api/v1/pages/secret", nil, "Authorization", tokenFor(1))
	require.Equal(t, http.StatusOK, w.Code)
	var page domain.PageWithOwner
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &page))
	assert.True(t, page.CanEdit)

	w = doRequest(r, http.MethodGet, "/api/v1/pages/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Page not found", decodeEnvelope(t, w).Error)
}

func TestPageHandler_Create(t *testing.T) {
	pages := newFakePageService()
	pages.add("taken", 2, true)
	r := newPageRouter(pages)
	body := `{"slug":"my-page","title":"My page","content":"hello"}`

	w := doRequest(r, http.MethodPost, "/api/v1/pages", jsonBody(body))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doRequest(r, http.MethodPost, "/api/v1/pages", jsonBody(body), "Authorization", tokenFor(1))
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "Page created successfully", decodeEnvelope(t, w).Message)

	w = doRequest(r, http.MethodPost, "/api/v1/pages",
		jsonBody(`{"slug":"taken","title":"T","content":""}`), "Authorization", tokenFor(1))
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "Slug already exists. Please choose a different slug.", decodeEnvelope(t, w).Error)
	assert.Len(t, pages.created, 1)

	w = doRequest(r, http.MethodPost, "/api/v1/pages",
		jsonBody(`{"slug":"Bad--Slug","title":"T","content":"x"}`), "Authorization", tokenFor(1))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Validation failed", decodeEnvelope(t, w).Error)
}

func TestPageHandler_UpdateAndDeleteOwnership(t *testing.T) {
	pages := newFakePageService()
	pages.add("owned", 1, true)
	r := newPageRouter(pages)

	w := doRequest(r, http.MethodPut, "/api/v1/pages/owned", jsonBody(`{"title":"New"}`), "Authorization", tokenFor(2))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "You don't have permission to edit this page", decodeEnvelope(t, w).Error)

	w = doRequest(r, http.MethodPut, "/api/v1/pages/missing", jsonBody(`{"title":"New"}`), "Authorization", tokenFor(1))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doRequest(r, http.MethodPut, "/api/v1/pages/owned", jsonBody(`{}`), "Authorization", tokenFor(1))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(r, http.MethodPut, "/api/v1/pages/owned", jsonBody(`{"title":"New"}`), "Authorization", tokenFor(1))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Page updated successfully", decodeEnvelope(t, w).Message)

	w = doRequest(r, http.MethodDelete, "/api/v1/pages/owned", nil, "Authorization", tokenFor(2))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "You don't have permission to delete this page", decodeEnvelope(t, w).Error)

	w = doRequest(r, http.MethodDelete, "/api/v1/pages/owned", nil, "Authorization", tokenFor(1))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Page deleted successfully", decodeEnvelope(t, w).Message)
	assert.Empty(t, pages.pages)
}
