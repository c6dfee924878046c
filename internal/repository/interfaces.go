package repository

import (
	"context"
	"time"

	"github.com/prperemyshlev/pages-service/internal/domain"
)

// ListOptions controls paging and ordering. A zero Limit means no limit.
type ListOptions struct {
	Limit          int
	Offset         int
	OrderBy        string
	OrderDirection string
}

// UserUpdate holds the fields of a partial user update; nil means unchanged
type UserUpdate struct {
	Name      *string
	Email     *string
	Age       *int
	Phone     *string
	ImagePath *string
}

// PageUpdate holds the fields of a partial page update; nil means unchanged
type PageUpdate struct {
	Title       *string
	Content     *string
	Description *string
	IsPublic    *bool
}

// UserRepository defines methods for user operations
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context, opts ListOptions) ([]domain.User, int, error)
	Search(ctx context.Context, term string) ([]domain.User, error)
	Update(ctx context.Context, id int64, update UserUpdate) (*domain.User, error)
	Delete(ctx context.Context, id int64) (*domain.User, error)
	EmailExists(ctx context.Context, email string, excludeID int64) (bool, error)
	UpdateLastLogin(ctx context.Context, id int64) error
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	SetResetToken(ctx context.Context, id int64, tokenHash string, expiresAt time.Time) error
	GetByResetToken(ctx context.Context, id int64, tokenHash string) (*domain.User, error)
}

// TokenRepository defines methods for refresh token operations.
// Tokens are looked up by the SHA-256 hex of the signed JWT.
type TokenRepository interface {
	Create(ctx context.Context, token *domain.RefreshToken) error
	GetValid(ctx context.Context, tokenHash string) (*domain.RefreshToken, error)
	Rotate(ctx context.Context, userID int64, oldHash string, next *domain.RefreshToken) error
	DeleteForUser(ctx context.Context, userID int64, tokenHash string) error
	DeleteAllForUser(ctx context.Context, userID int64) (int64, error)
}

// PageRepository defines methods for page operations
type PageRepository interface {
	Create(ctx context.Context, page *domain.Page) error
	GetBySlug(ctx context.Context, slug string) (*domain.PageWithOwner, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	ListPublic(ctx context.Context, opts ListOptions) ([]domain.PageWithOwner, int, error)
	ListByOwner(ctx context.Context, ownerID int64, opts ListOptions) ([]domain.PageWithOwner, int, error)
	Search(ctx context.Context, term string, ownerID *int64, opts ListOptions) ([]domain.PageWithOwner, int, error)
	Update(ctx context.Context, slug string, ownerID int64, update PageUpdate) (*domain.Page, error)
	Delete(ctx context.Context, slug string, ownerID int64) error
}
