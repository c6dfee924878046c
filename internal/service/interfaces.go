package service

import (
	"context"
	"time"

	"github.com/prperemyshlev/pages-service/internal/domain"
	"github.com/prperemyshlev/pages-service/internal/dto"
	"github.com/prperemyshlev/pages-service/internal/repository"
)

// AuthService defines methods for authentication operations
type AuthService interface {
	Register(ctx context.Context, req *dto.RegisterRequest) (*AuthResult, error)
	Login(ctx context.Context, req *dto.LoginRequest) (*AuthResult, error)
	RefreshToken(ctx context.Context, refreshToken string) (*AuthResult, error)
	Logout(ctx context.Context, userID int64, refreshToken, accessToken string) error
	LogoutAll(ctx context.Context, userID int64) error
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, password string) error
	ChangePassword(ctx context.Context, userID int64, currentPassword, newPassword string) error
	GetUser(ctx context.Context, userID int64) (*domain.User, error)
	ValidateToken(ctx context.Context, token string) (*domain.TokenClaims, error)
}

// UserService defines methods for user record management
type UserService interface {
	Create(ctx context.Context, req *dto.CreateUserRequest) (*domain.User, error)
	List(ctx context.Context, opts repository.ListOptions) ([]domain.User, int, error)
	Get(ctx context.Context, id int64) (*domain.User, error)
	Update(ctx context.Context, id int64, req *dto.UpdateUserRequest) (*domain.User, error)
	Delete(ctx context.Context, id int64) (*domain.User, error)
	EmailExists(ctx context.Context, email string, excludeID int64) (bool, error)
	Search(ctx context.Context, term string) ([]domain.User, error)
}

// PageService defines methods for page operations
type PageService interface {
	Create(ctx context.Context, ownerID int64, req *dto.CreatePageRequest) (*domain.Page, error)
	GetBySlug(ctx context.Context, slug string, viewerID *int64) (*domain.PageWithOwner, error)
	ListPublic(ctx context.Context, opts repository.ListOptions) ([]domain.PageWithOwner, int, error)
	ListByOwner(ctx context.Context, ownerID int64, opts repository.ListOptions) ([]domain.PageWithOwner, int, error)
	Search(ctx context.Context, term string, includePrivate bool, ownerID *int64, opts repository.ListOptions) ([]domain.PageWithOwner, int, error)
	Update(ctx context.Context, slug string, ownerID int64, req *dto.UpdatePageRequest) (*domain.Page, error)
	Delete(ctx context.Context, slug string, ownerID int64) error
	IsSlugAvailable(ctx context.Context, slug string) (bool, error)
}

// NotificationSender delivers out-of-band messages to users
type NotificationSender interface {
	SendPasswordReset(ctx context.Context, email, token string) error
}

// RateLimiter counts requests per key inside a time window
type RateLimiter interface {
	// Allow records one request and reports whether it is within limit
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
	// Remaining reports how many requests are left in the current window without recording one
	Remaining(ctx context.Context, key string, limit int, window time.Duration) (int, error)
}

// TokenBlacklist holds revoked access tokens until they expire
type TokenBlacklist interface {
	Add(ctx context.Context, token string, ttl time.Duration) error
	Contains(ctx context.Context, token string) (bool, error)
}
