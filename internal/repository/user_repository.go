package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/prperemyshlev/pages-service/internal/domain"
	"github.com/prperemyshlev/pages-service/pkg/database"
)

const userColumns = `id, name, email, age, phone, image_path, password_hash, email_verified,
		reset_token, reset_token_expires, last_login, created_at`

// userRepository implements UserRepository interface
type userRepository struct {
	db *database.Postgres
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *database.Postgres) UserRepository {
	return &userRepository{db: db}
}

func scanUser(row rowScanner) (*domain.User, error) {
	user := &domain.User{}
	var (
		age                          sql.NullInt64
		phone, imagePath, hash       sql.NullString
		resetToken                   sql.NullString
		resetTokenExpires, lastLogin sql.NullTime
	)

	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&age,
		&phone,
		&imagePath,
		&hash,
		&user.EmailVerified,
		&resetToken,
		&resetTokenExpires,
		&lastLogin,
		&user.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if age.Valid {
		v := int(age.Int64)
		user.Age = &v
	}
	if phone.Valid {
		user.Phone = &phone.String
	}
	if imagePath.Valid {
		user.ImagePath = &imagePath.String
	}
	if hash.Valid {
		user.PasswordHash = &hash.String
	}
	if resetToken.Valid {
		user.ResetToken = &resetToken.String
	}
	if resetTokenExpires.Valid {
		user.ResetTokenExpires = &resetTokenExpires.Time
	}
	if lastLogin.Valid {
		user.LastLogin = &lastLogin.Time
	}

	return user, nil
}

func (r *userRepository) getOne(ctx context.Context, what, query string, args ...any) (*domain.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user %s not found: %w", what, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user %s: %w", what, database.WrapError(err))
	}
	return user, nil
}

// Create inserts a user and fills in the generated id and timestamps
func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (name, email, age, phone, image_path, password_hash)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, email_verified, created_at
	`

	err := r.db.QueryRowContext(ctx, query,
		user.Name,
		user.Email,
		user.Age,
		user.Phone,
		user.ImagePath,
		user.PasswordHash,
	).Scan(&user.ID, &user.EmailVerified, &user.CreatedAt)

	if err != nil {
		err = database.WrapError(err)
		if errors.Is(err, database.ErrUniqueViolation) {
			return fmt.Errorf("user with email %s already exists: %w", user.Email, ErrDuplicateEmail)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetByID retrieves a user by id
func (r *userRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.getOne(ctx, fmt.Sprintf("with id %d", id), query, id)
}

// GetByEmail retrieves a user by email
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return r.getOne(ctx, "with email", query, email)
}

// List returns a page of users and the total row count
func (r *userRepository) List(ctx context.Context, opts ListOptions) ([]domain.User, int, error) {
	order, err := OrderClause(UserOrderColumns, opts.OrderBy, opts.OrderDirection)
	if err != nil {
		return nil, 0, err
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", database.WrapError(err))
	}

	query := `SELECT ` + userColumns + ` FROM users ` + order
	var args []any
	if opts.Limit > 0 {
		args = append(args, opts.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if opts.Offset > 0 {
		args = append(args, opts.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	users, err := r.query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}

	return users, total, nil
}

// Search matches name or email case-insensitively, ordered by name
func (r *userRepository) Search(ctx context.Context, term string) ([]domain.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE name ILIKE $1 OR email ILIKE $1
		ORDER BY name
	`
	return r.query(ctx, query, containsPattern(term))
}

func (r *userRepository) query(ctx context.Context, query string, args ...any) ([]domain.User, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	users := make([]domain.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, *user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}

	return users, nil
}

// Update applies a partial update and returns the updated row
func (r *userRepository) Update(ctx context.Context, id int64, update UserUpdate) (*domain.User, error) {
	var set setClause
	if update.Name != nil {
		set.add("name", *update.Name)
	}
	if update.Email != nil {
		set.add("email", *update.Email)
	}
	if update.Age != nil {
		set.add("age", *update.Age)
	}
	if update.Phone != nil {
		set.add("phone", *update.Phone)
	}
	if update.ImagePath != nil {
		set.add("image_path", *update.ImagePath)
	}

	if set.empty() {
		return nil, ErrNothingToUpdate
	}

	query := `UPDATE users SET ` + set.String() + ` WHERE id = ` + set.next(id) + ` RETURNING ` + userColumns

	user, err := scanUser(r.db.QueryRowContext(ctx, query, set.args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user with id %d not found: %w", id, ErrNotFound)
		}
		err = database.WrapError(err)
		if errors.Is(err, database.ErrUniqueViolation) {
			return nil, fmt.Errorf("failed to update user: %w", ErrDuplicateEmail)
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	return user, nil
}

// Delete removes a user and returns the deleted row
func (r *userRepository) Delete(ctx context.Context, id int64) (*domain.User, error) {
	query := `DELETE FROM users WHERE id = $1 RETURNING ` + userColumns
	return r.getOne(ctx, fmt.Sprintf("with id %d", id), query, id)
}

// EmailExists reports whether another user already has the email.
// excludeID of 0 checks all users.
func (r *userRepository) EmailExists(ctx context.Context, email string, excludeID int64) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1 AND id <> $2)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, email, excludeID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check email: %w", database.WrapError(err))
	}
	return exists, nil
}

// UpdateLastLogin updates the last login timestamp
func (r *userRepository) UpdateLastLogin(ctx context.Context, id int64) error {
	return r.execOne(ctx, id, "update last login",
		`UPDATE users SET last_login = NOW() WHERE id = $1`, id)
}

// UpdatePassword replaces the password hash and clears any pending reset
func (r *userRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	query := `
		UPDATE users
		SET password_hash = $1, reset_token = NULL, reset_token_expires = NULL
		WHERE id = $2
	`
	return r.execOne(ctx, id, "update password", query, passwordHash, id)
}

// SetResetToken stores the hash of a password reset token
func (r *userRepository) SetResetToken(ctx context.Context, id int64, tokenHash string, expiresAt time.Time) error {
	query := `UPDATE users SET reset_token = $1, reset_token_expires = $2 WHERE id = $3`
	return r.execOne(ctx, id, "set reset token", query, tokenHash, expiresAt.UTC(), id)
}

// GetByResetToken returns the user only while the stored reset token matches and is unexpired
func (r *userRepository) GetByResetToken(ctx context.Context, id int64, tokenHash string) (*domain.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE id = $1 AND reset_token = $2 AND reset_token_expires > NOW()
	`
	return r.getOne(ctx, "with reset token", query, id, tokenHash)
}

func (r *userRepository) execOne(ctx context.Context, id int64, action, query string, args ...any) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to %s: %w", action, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("user with id %d not found: %w", id, ErrNotFound)
	}

	return nil
}
