package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prperemyshlev/pages-service/internal/domain"
	"github.com/prperemyshlev/pages-service/internal/dto"
	"github.com/prperemyshlev/pages-service/internal/service"
)

// Context keys set by the auth middlewares
const (
	ctxUserID      = "user_id"
	ctxEmail       = "email"
	ctxClaims      = "claims"
	ctxUser        = "user"
	ctxAccessToken = "access_token"
)

// AuthMiddleware validates the bearer token, loads the user and adds both to the context
func AuthMiddleware(authService service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !authenticate(c, authService) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.Failure(msgAuthRequired))
			return
		}

		c.Next()
	}
}

// OptionalAuthMiddleware behaves like AuthMiddleware but lets anonymous requests through
func OptionalAuthMiddleware(authService service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authenticate(c, authService)
		c.Next()
	}
}

func authenticate(c *gin.Context, authService service.AuthService) bool {
	token, ok := bearerToken(c.GetHeader("Authorization"))
	if !ok {
		return false
	}

	claims, err := authService.ValidateToken(c.Request.Context(), token)
	if err != nil {
		return false
	}

	// the account may have been deleted since the token was issued
	user, err := authService.GetUser(c.Request.Context(), claims.UserID)
	if err != nil {
		return false
	}

	c.Set(ctxUserID, user.ID)
	c.Set(ctxEmail, user.Email)
	c.Set(ctxClaims, claims)
	c.Set(ctxUser, user)
	c.Set(ctxAccessToken, token)
	return true
}

// bearerToken extracts the token from "Bearer <token>"
func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func currentUser(c *gin.Context) (*domain.User, bool) {
	v, ok := c.Get(ctxUser)
	if !ok {
		return nil, false
	}
	user, ok := v.(*domain.User)
	return user, ok
}

// viewerID returns the authenticated user id or nil for anonymous requests
func viewerID(c *gin.Context) *int64 {
	user, ok := currentUser(c)
	if !ok {
		return nil
	}
	id := user.ID
	return &id
}
