package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/prperemyshlev/pages-service/internal/domain"
	"github.com/prperemyshlev/pages-service/pkg/database"
)

// tokenRepository implements TokenRepository interface
type tokenRepository struct {
	db *database.Postgres
}

// NewTokenRepository creates a new token repository
func NewTokenRepository(db *database.Postgres) TokenRepository {
	return &tokenRepository{db: db}
}

const insertRefreshToken = `
	INSERT INTO refresh_tokens (user_id, token, expires_at)
	VALUES ($1, $2, $3)
	RETURNING id, created_at
`

func insertToken(ctx context.Context, db database.DBTX, token *domain.RefreshToken) error {
	err := db.QueryRowContext(ctx, insertRefreshToken,
		token.UserID,
		token.Token,
		token.ExpiresAt.UTC(),
	).Scan(&token.ID, &token.CreatedAt)

	if err != nil {
		err = database.WrapError(err)
		if errors.Is(err, database.ErrUniqueViolation) {
			return fmt.Errorf("refresh token already stored: %w", ErrDuplicateToken)
		}
		return fmt.Errorf("failed to create token: %w", err)
	}

	return nil
}

// Create stores a refresh token
func (r *tokenRepository) Create(ctx context.Context, token *domain.RefreshToken) error {
	return insertToken(ctx, r.db, token)
}

// GetValid retrieves an unexpired refresh token by its hash
func (r *tokenRepository) GetValid(ctx context.Context, tokenHash string) (*domain.RefreshToken, error) {
	query := `
		SELECT id, user_id, token, expires_at, created_at
		FROM refresh_tokens
		WHERE token = $1 AND expires_at > NOW()
	`

	token := &domain.RefreshToken{}
	err := r.db.QueryRowContext(ctx, query, tokenHash).Scan(
		&token.ID,
		&token.UserID,
		&token.Token,
		&token.ExpiresAt,
		&token.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("refresh token not found or expired: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get refresh token: %w", database.WrapError(err))
	}

	return token, nil
}

// Rotate deletes the old token and stores next in one transaction.
// The old row must still exist, be unexpired and belong to userID.
// The user's expired rows are purged on the way.
func (r *tokenRepository) Rotate(ctx context.Context, userID int64, oldHash string, next *domain.RefreshToken) error {
	return r.db.Transaction(ctx, func(ctx context.Context, tx database.DBTX) error {
		query := `DELETE FROM refresh_tokens WHERE token = $1 AND user_id = $2 AND expires_at > NOW()`

		result, err := tx.ExecContext(ctx, query, oldHash, userID)
		if err != nil {
			return fmt.Errorf("failed to delete old refresh token: %w", err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}

		// a concurrent rotation already consumed it
		if rowsAffected != 1 {
			return fmt.Errorf("refresh token already used: %w", ErrNotFound)
		}

		if _, err := deleteExpired(ctx, tx, userID); err != nil {
			return err
		}

		return insertToken(ctx, tx, next)
	})
}

// DeleteForUser deletes one refresh token of a user
func (r *tokenRepository) DeleteForUser(ctx context.Context, userID int64, tokenHash string) error {
	query := `DELETE FROM refresh_tokens WHERE token = $1 AND user_id = $2`

	result, err := r.db.ExecContext(ctx, query, tokenHash, userID)
	if err != nil {
		return fmt.Errorf("failed to delete token by hash: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("token with hash not found: %w", ErrNotFound)
	}

	return nil
}

// DeleteAllForUser deletes every refresh token of a user
func (r *tokenRepository) DeleteAllForUser(ctx context.Context, userID int64) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete user tokens: %w", err)
	}
	return result.RowsAffected()
}

func deleteExpired(ctx context.Context, db database.DBTX, userID int64) (int64, error) {
	result, err := db.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE user_id = $1 AND expires_at <= NOW()`, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired tokens: %w", err)
	}
	return result.RowsAffected()
}
