package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prperemyshlev/pages-service/internal/dto"
	"github.com/prperemyshlev/pages-service/internal/service"
	"github.com/prperemyshlev/pages-service/internal/validation"
	"github.com/prperemyshlev/pages-service/pkg/observability"
	"go.uber.org/zap"
)

var userErrors = errorMessages{notFound: msgUserNotFound}

// AuthHandler handles authentication requests
type AuthHandler struct {
	authService service.AuthService
	userService service.UserService
	limiter     service.RateLimiter
	failedLogin RateLimitRule
	metrics     *observability.Metrics
	logger      *zap.Logger
}

// NewAuthHandler creates a new auth handler. failedLogin is the penalty
// budget charged only when a login attempt fails.
func NewAuthHandler(
	authService service.AuthService,
	userService service.UserService,
	limiter service.RateLimiter,
	failedLogin RateLimitRule,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		userService: userService,
		limiter:     limiter,
		failedLogin: failedLogin,
		metrics:     metrics,
		logger:      logger,
	}
}

// Register handles user registration
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if !bindJSON(c, validation.ValidateRegister, &req) {
		return
	}

	result, err := h.authService.Register(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.logger, err, userErrors)
		return
	}

	c.JSON(http.StatusCreated, dto.Success(result.Response(), "User registered successfully"))
}

// Login handles user login
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if !bindJSON(c, validation.ValidateLogin, &req) {
		return
	}

	result, err := h.authService.Login(c.Request.Context(), &req)
	if err != nil {
		if h.failedLoginExceeded(c) {
			c.JSON(http.StatusTooManyRequests, dto.Failure(h.failedLogin.Message))
			return
		}
		respondError(c, h.logger, err, userErrors)
		return
	}

	c.JSON(http.StatusOK, dto.Success(result.Response(), "Login successful"))
}

// failedLoginExceeded charges one failure to the client and reports whether its budget is spent
func (h *AuthHandler) failedLoginExceeded(c *gin.Context) bool {
	if h.limiter == nil || h.failedLogin.Requests <= 0 {
		return false
	}

	key := h.failedLogin.Scope + ":" + c.ClientIP()
	allowed, err := h.limiter.Allow(c.Request.Context(), key, h.failedLogin.Requests, h.failedLogin.Window)
	if err != nil {
		h.logger.Warn("Rate limiter unavailable", zap.String("scope", h.failedLogin.Scope), zap.Error(err))
		return false
	}
	if !allowed {
		h.metrics.RateLimited(c.Request.Context(), h.failedLogin.Scope)
	}
	return !allowed
}

// Refresh exchanges a refresh token for a new token pair
// @Router /auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	refreshToken, ok := refreshTokenFromBody(c)
	if !ok {
		return
	}

	result, err := h.authService.RefreshToken(c.Request.Context(), refreshToken)
	if err != nil {
		respondError(c, h.logger, err, userErrors)
		return
	}

	c.JSON(http.StatusOK, dto.Success(result.Response(), "Tokens refreshed successfully"))
}

// Logout revokes the given refresh token and the presented access token
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, dto.Failure(msgAuthRequired))
		return
	}

	refreshToken, ok := refreshTokenFromBody(c)
	if !ok {
		return
	}

	err := h.authService.Logout(c.Request.Context(), user.ID, refreshToken, c.GetString(ctxAccessToken))
	if err != nil {
		respondError(c, h.logger, err, userErrors)
		return
	}

	c.JSON(http.StatusOK, dto.Success(nil, "Logged out successfully"))
}

// refreshTokenFromBody reads {"refreshToken": "..."} and answers 400 when it is missing
func refreshTokenFromBody(c *gin.Context) (string, bool) {
	var req dto.RefreshTokenRequest

	if c.Request.Body != nil {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.Failure("Refresh token is required"))
		return "", false
	}

	return req.RefreshToken, true
}

// GetProfile returns the authenticated user
// @Router /auth/profile [get]
func (h *AuthHandler) GetProfile(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, dto.Failure(msgAuthRequired))
		return
	}

	c.JSON(http.StatusOK, dto.Success(dto.NewUserResponse(user), "Profile retrieved successfully"))
}

// UpdateProfile applies a partial update to the authenticated user
// @Router /auth/profile [put]
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, dto.Failure(msgAuthRequired))
		return
	}

	var req dto.UpdateUserRequest
	if !bindJSON(c, validation.ValidateUpdateUser, &req) {
		return
	}

	updated, err := h.userService.Update(c.Request.Context(), user.ID, &req)
	if err != nil {
		respondError(c, h.logger, err, userErrors)
		return
	}

	c.JSON(http.StatusOK, dto.Success(dto.NewUserResponse(updated), "Profile updated successfully"))
}

// ChangePassword replaces the password and signs the user out everywhere
// @Router /auth/change-password [post]
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, dto.Failure(msgAuthRequired))
		return
	}

	var req dto.ChangePasswordRequest
	if !bindJSON(c, validation.ValidatePasswordChange, &req) {
		return
	}

	err := h.authService.ChangePassword(c.Request.Context(), user.ID, req.CurrentPassword, req.NewPassword)
	if err != nil {
		respondError(c, h.logger, err, userErrors)
		return
	}

	c.JSON(http.StatusOK, dto.Success(nil, "Password changed successfully. Please log in again."))
}

// ForgotPassword starts a password reset. The answer is the same whether or not the email exists.
// @Router /auth/forgot-password [post]
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req dto.ForgotPasswordRequest
	if !bindJSON(c, validation.ValidatePasswordResetRequest, &req) {
		return
	}

	if err := h.authService.RequestPasswordReset(c.Request.Context(), req.Email); err != nil {
		respondError(c, h.logger, err, userErrors)
		return
	}

	c.JSON(http.StatusOK, dto.Success(nil, "If the email exists, a password reset link has been sent."))
}

// ResetPassword sets a new password using a reset token
// @Router /auth/reset-password [post]
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req dto.ResetPasswordRequest
	if !bindJSON(c, validation.ValidatePasswordResetConfirm, &req) {
		return
	}

	if err := h.authService.ResetPassword(c.Request.Context(), req.Token, req.Password); err != nil {
		respondError(c, h.logger, err, userErrors)
		return
	}

	c.JSON(http.StatusOK, dto.Success(nil, "Password reset successfully. Please log in with your new password."))
}
